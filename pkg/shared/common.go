package shared

import (
	"sync"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-plugin"
	"github.com/spf13/pflag"
)

const (
	PluginTypeRules string = "rules"
)

var HandshakeConfig = plugin.HandshakeConfig{
	ProtocolVersion:  1,
	MagicCookieKey:   "LATER_PLUGIN",
	MagicCookieValue: "0b6a2cbbb0b4c6bd1b32cc5f6df9f3d6a4e4d1f8",
}

var PluginMap = map[string]plugin.Plugin{
	PluginTypeRules: &RulesPlugin{},
}

// ServeRules is the entrypoint of a rule plugin executable. It blocks until the host disconnects.
func ServeRules(impl RulePlugin, logger hclog.Logger) {
	plugin.Serve(&plugin.ServeConfig{
		HandshakeConfig: HandshakeConfig,
		Plugins: map[string]plugin.Plugin{
			PluginTypeRules: &RulesPlugin{Impl: impl},
		},
		Logger: logger,
	})
}

// ForEveryWithBoundedGoroutines calls f for each value with at most limit calls in flight.
func ForEveryWithBoundedGoroutines[T any](limit int, values []T, f func(i int, value T)) {
	if limit < 1 {
		limit = 1
	}
	guard := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i, value := range values {
		guard <- struct{}{} // would block if guard channel is already filled
		wg.Add(1)
		go func(i int, value T) {
			defer wg.Done()
			defer func() { <-guard }()
			f(i, value)
		}(i, value)
	}
	wg.Wait()
}

// HasFlags reports whether any flag of the set was given on the command line.
func HasFlags(flags *pflag.FlagSet) bool {
	return len(ChangedFlags(flags)) > 0
}

// ChangedFlags returns the names of the flags given on the command line.
func ChangedFlags(flags *pflag.FlagSet) []string {
	var names []string
	flags.Visit(func(f *pflag.Flag) {
		names = append(names, f.Name)
	})
	return names
}
