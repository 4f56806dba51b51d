// Package main is the entry point for the Timeline API service.
package main

import (
	"context"
	"fmt"
	"os"

	"timeline/bootstrap"
	"timeline/cmd"
)

// run initializes and starts the Timeline service.
func run() error {
	ctx := context.Background()

	app, err := bootstrap.NewApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}

	if err := app.Start(ctx); err != nil {
		app.Shutdown()
		return fmt.Errorf("failed to start application: %w", err)
	}

	err = app.WaitForShutdown()
	app.Shutdown()
	return err
}

// main is the entry point.
func main() {
	// Check if running as CLI command
	if len(os.Args) > 1 && os.Args[1] == "check" {
		// Strip "check" from os.Args since the command already knows it's the check command
		os.Args = append([]string{os.Args[0]}, os.Args[2:]...)

		checkCmd := cmd.NewCheckCmd()
		if err := checkCmd.Execute(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Otherwise run as normal server
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
