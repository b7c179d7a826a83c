package packrattle

import (
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EngineOptions tunes a single Engine invocation: how much tracing and
// metrics it emits, and whether a runaway grammar should be aborted
// rather than left to drain forever.
type EngineOptions struct {
	// MaxDequeues bounds the number of parser activations the engine
	// will dequeue and run before raising RunawayGrammarError; queued
	// deliveries of results to waiters are not counted. Zero means
	// unbounded, the default, matching the source engine's behavior.
	MaxDequeues int

	// TraceLevel controls how much the engine logs via logrus: "off",
	// "debug" (cache fan-out), or "trace" (every dequeue).
	TraceLevel string

	// MetricsEnabled toggles whether the engine records Prometheus
	// counters/histograms for this invocation.
	MetricsEnabled bool
}

// DefaultEngineOptions mirrors the teacher grammar engine's own
// defaults: unbounded work, tracing off, metrics off.
func DefaultEngineOptions() EngineOptions {
	return EngineOptions{
		MaxDequeues:    0,
		TraceLevel:     "off",
		MetricsEnabled: false,
	}
}

// BindEngineFlags registers the flags LoadEngineOptions reads, so a
// Cobra command can expose them the same way open-policy-agent's CLI
// binds Viper-backed flags onto Cobra commands.
func BindEngineFlags(flags *pflag.FlagSet) {
	flags.Int("engine.max-dequeues", 0, "abort a parse after this many scheduled activations (0 = unbounded)")
	flags.String("engine.trace-level", "off", "trampoline trace verbosity: off, debug, trace")
	flags.Bool("engine.metrics", false, "record Prometheus counters/histograms for the parse")
}

// LoadEngineOptions reads EngineOptions from a Viper instance already
// bound to flags/env/config file via BindEngineFlags. Unset keys fall
// back to DefaultEngineOptions.
func LoadEngineOptions(v *viper.Viper) EngineOptions {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	opts := DefaultEngineOptions()
	if v.IsSet("engine.max-dequeues") {
		opts.MaxDequeues = v.GetInt("engine.max-dequeues")
	}
	if v.IsSet("engine.trace-level") {
		opts.TraceLevel = v.GetString("engine.trace-level")
	}
	if v.IsSet("engine.metrics") {
		opts.MetricsEnabled = v.GetBool("engine.metrics")
	}
	return opts
}
