package bootstrap

import (
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Locator names an application entry point in module:symbol form, mirroring
// the ASGI convention the service was deployed with. The default entry point
// is "app.main:app".
type Locator struct {
	Module string
	Symbol string
}

// ParseLocator parses a module:symbol reference.
func ParseLocator(s string) (Locator, error) {
	module, symbol, found := strings.Cut(s, ":")
	if !found || strings.TrimSpace(module) == "" || strings.TrimSpace(symbol) == "" {
		return Locator{}, fmt.Errorf("invalid application locator %q: want module:symbol, e.g. %q", s, "app.main:app")
	}
	return Locator{Module: strings.TrimSpace(module), Symbol: strings.TrimSpace(symbol)}, nil
}

func (l Locator) String() string {
	return l.Module + ":" + l.Symbol
}

// Factory constructs the handler an application locator resolves to. The App
// supplies the wired dependencies.
type Factory func(a *App) (http.Handler, error)

var appRegistry = map[Locator]Factory{}

// RegisterApp registers a handler constructor under a locator. Registration
// happens at init time; the locator from the configuration is resolved
// against this registry exactly once, during Start.
func RegisterApp(l Locator, f Factory) {
	appRegistry[l] = f
}

// ResolveApp looks up the factory for a locator, failing with a descriptive
// error that lists the registered entry points. The check command uses it to
// reject unknown locators before deployment.
func ResolveApp(l Locator) (Factory, error) {
	if f, ok := appRegistry[l]; ok {
		return f, nil
	}

	known := make([]string, 0, len(appRegistry))
	for k := range appRegistry {
		known = append(known, k.String())
	}
	sort.Strings(known)
	return nil, fmt.Errorf("application %q not found: no such entry point is compiled in (known: %s)",
		l, strings.Join(known, ", "))
}
