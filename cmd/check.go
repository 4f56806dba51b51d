// Package cmd provides command-line interface commands for the Timeline
// service.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"timeline/bootstrap"
	"timeline/config"
	"timeline/core"
	"timeline/prompt"
	"timeline/timeutil"
)

// CLI output formatters
var (
	passColor = color.New(color.FgGreen, color.Bold)
	failColor = color.New(color.FgRed, color.Bold)
	warnColor = color.New(color.FgYellow)
	infoColor = color.New(color.FgCyan)
)

// Global flags for the check command
var (
	outputJSON bool
	noColor    bool
	probe      bool
)

const probeTimeout = 10 * time.Second

// CheckResult is one preflight check outcome.
type CheckResult struct {
	Name   string `json:"name"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

// NewCheckCmd creates the 'check' command, a preflight validation of the
// deployment: configuration, prompt templates, tag vocabulary and
// (optionally) upstream reachability.
func NewCheckCmd() *cobra.Command {
	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the Timeline deployment configuration",
		Long: `Validate the Timeline deployment without starting the server.

Checks that the configuration loads (including PORT resolution), that the
application locator resolves, that the prompt templates parse and render, and
that the tag vocabulary is readable. With --probe it also verifies the
upstream API is reachable.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if noColor {
				color.NoColor = true
			}
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChecks()
		},
	}

	checkCmd.PersistentFlags().BoolVar(&outputJSON, "json", false, "Output in JSON format")
	checkCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable colored output")
	checkCmd.Flags().BoolVar(&probe, "probe", false, "Probe upstream API reachability")

	return checkCmd
}

func runChecks() error {
	return report(collectChecks())
}

// collectChecks runs every preflight check and returns the outcomes.
func collectChecks() []CheckResult {
	var results []CheckResult
	add := func(name string, err error, detail string) {
		r := CheckResult{Name: name, OK: err == nil, Detail: detail}
		if err != nil {
			r.Detail = err.Error()
		}
		results = append(results, r)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		add("config", err, "")
		return results
	}
	add("config", nil, fmt.Sprintf("listen %s", cfg.ListenAddr()))

	locator, err := bootstrap.ParseLocator(cfg.Server.App)
	if err == nil {
		_, err = bootstrap.ResolveApp(locator)
	}
	add("application locator", err, locator.String())

	add("prompt templates", checkPrompts(cfg), cfg.Prompts.Path)

	tags, err := core.LoadTagVocabulary(cfg.Tags.Path)
	detail := "tagging disabled"
	if err == nil && !tags.Empty() {
		detail = fmt.Sprintf("%d tags", len(tags.Tags))
	}
	add("tag vocabulary", err, detail)

	if cfg.Upstream.Token == "" {
		results = append(results, CheckResult{
			Name:   "upstream token",
			OK:     false,
			Detail: "AI_BUILDER_TOKEN is not set",
		})
	} else {
		add("upstream token", nil, "configured")
	}

	if probe {
		add("upstream reachability", probeUpstream(cfg), cfg.Upstream.BaseURL)
	}

	return results
}

// checkPrompts loads the templates and renders them with sample variables so
// a malformed file fails here rather than on the first request.
func checkPrompts(cfg *config.Config) error {
	loader := prompt.NewLoader(cfg.Prompts.Path)
	now := time.Now()
	_, _, err := loader.Render(map[string]string{
		"current_time_str": timeutil.FormatTime(now),
		"current_time_iso": now.Format(time.RFC3339),
		"current_date":     timeutil.FormatDate(now),
		"past_30min_str":   timeutil.PastISO(now, 30*time.Minute),
		"transcript":       "sample transcript",
		"timezone":         "UTC",
		"tags_section":     "",
	})
	return err
}

// probeUpstream checks the upstream API answers HTTP at all. Any response,
// including an auth rejection, proves reachability.
func probeUpstream(cfg *config.Config) error {
	var s *spinner.Spinner
	if !outputJSON && !noColor {
		s = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
		s.Suffix = " Probing upstream API..."
		s.Start()
	}

	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, cfg.Upstream.BaseURL, nil)
	if err == nil {
		var resp *http.Response
		resp, err = http.DefaultClient.Do(req)
		if err == nil {
			resp.Body.Close()
		}
	}

	if s != nil {
		s.Stop()
	}
	return err
}

// report renders results and returns an error when any check failed, so the
// process exits non-zero.
func report(results []CheckResult) error {
	failed := 0
	for _, r := range results {
		if !r.OK {
			failed++
		}
	}

	if outputJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(results); err != nil {
			return err
		}
	} else {
		for _, r := range results {
			if r.OK {
				passColor.Printf("PASS ")
			} else {
				failColor.Printf("FAIL ")
			}
			fmt.Printf("%-24s", r.Name)
			if r.Detail != "" {
				infoColor.Printf(" %s", r.Detail)
			}
			fmt.Println()
		}
		if failed > 0 {
			warnColor.Printf("\n%d of %d checks failed\n", failed, len(results))
		} else {
			passColor.Printf("\nAll %d checks passed\n", len(results))
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}
