// Package cyamllog adapts cyaml.Config's caller-supplied logging hook to
// github.com/rs/zerolog, for callers (the cmd/cyaml-test harness, and any
// CLI built on this package) that want structured console output rather
// than rolling their own. The core cyaml package itself takes no
// dependency on zerolog or any other logging library — Config.LogFn is a
// plain function value, so the core stays usable in any logging
// environment a caller already has (spec.md §5/§9 "no global state").
package cyamllog

import (
	"github.com/rs/zerolog"

	"github.com/tlsa/cyaml-go"
)

// levelMap translates cyaml's closed LogLevel enum to zerolog's.
var levelMap = map[cyaml.LogLevel]zerolog.Level{
	cyaml.LogDebug:   zerolog.DebugLevel,
	cyaml.LogInfo:    zerolog.InfoLevel,
	cyaml.LogNotice:  zerolog.InfoLevel,
	cyaml.LogWarning: zerolog.WarnLevel,
	cyaml.LogError:   zerolog.ErrorLevel,
}

// Hook returns a cyaml.LogFunc that writes every message through logger,
// at the zerolog level corresponding to the cyaml.LogLevel the engine
// passed it.
func Hook(logger zerolog.Logger) cyaml.LogFunc {
	return func(level cyaml.LogLevel, msg string) {
		zl, ok := levelMap[level]
		if !ok {
			zl = zerolog.InfoLevel
		}
		logger.WithLevel(zl).Msg(msg)
	}
}
