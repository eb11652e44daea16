// Package logging provides the per-module structured loggers used across
// the rendering core. Every subsystem (descriptor, shaderlib, pipeline,
// material, render, autoexposure, config) pulls its logger from here rather
// than constructing its own, so VIOLET_LOG_LEVEL and VIOLET_LOG_DISABLED_MODULES
// apply uniformly.
package logging

import (
	"os"
	"strings"
	"sync"

	"github.com/charmbracelet/log"
)

var (
	mu       sync.Mutex
	loggers  = map[string]*log.Logger{}
	level    = resolveLevel(os.Getenv("VIOLET_LOG_LEVEL"))
	disabled = parseDisabled(os.Getenv("VIOLET_LOG_DISABLED_MODULES"))
)

func resolveLevel(v string) log.Level {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "trace":
		return log.DebugLevel - 1
	case "debug":
		return log.DebugLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	case "critical", "fatal":
		return log.FatalLevel
	case "info", "":
		return log.InfoLevel
	default:
		return log.InfoLevel
	}
}

func parseDisabled(v string) map[string]bool {
	out := map[string]bool{}
	for _, name := range strings.Split(v, ",") {
		name = strings.TrimSpace(name)
		if name != "" {
			out[name] = true
		}
	}
	return out
}

// For returns the shared logger for a named module ("descriptor",
// "shaderlib", "pipeline", "material", "render", "autoexposure", "config", …).
// A disabled module gets a logger whose level is pinned above Fatal so
// nothing it emits reaches the sink.
func For(module string) *log.Logger {
	mu.Lock()
	defer mu.Unlock()

	if l, ok := loggers[module]; ok {
		return l
	}

	l := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          module,
	})
	if disabled[module] {
		l.SetLevel(log.FatalLevel + 1)
	} else {
		l.SetLevel(level)
	}
	loggers[module] = l
	return l
}
