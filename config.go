package cyaml

import "fmt"

// LogLevel mirrors spec.md §6's log_level option.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogNotice
	LogWarning
	LogError
)

// LogFunc receives diagnostic text; it may be nil.
type LogFunc func(level LogLevel, msg string)

// Config is the caller-supplied configuration for every public operation,
// threaded explicitly end to end rather than through package-level state
// (spec.md §5/§9 "Global state: none is intentional").
type Config struct {
	// LogFn receives diagnostic text (progress messages, and a failed
	// load's error, which names the path in the data); may be nil. Control flow never depends on whether it's set.
	LogFn LogFunc
	// LogLevel is the minimum level passed to LogFn.
	LogLevel LogLevel
	// MemFn is the allocator bookkeeping shim (§4.2); nil selects
	// DefaultAllocator.
	MemFn Allocator
	// IgnoreUnknownKeys makes unknown mapping keys silently consumed
	// instead of failing with ErrMappingKeyUnknown.
	IgnoreUnknownKeys bool
	// Debug lets internal invariant panics escape instead of being
	// converted to ErrInternalError at the public-surface boundary. Off by
	// default; the CLI harness's -d/--debug flag turns it on.
	Debug bool
}

func (c *Config) allocator() Allocator {
	if c == nil || c.MemFn == nil {
		return DefaultAllocator{}
	}
	return c.MemFn
}

func (c *Config) logf(level LogLevel, format string, args ...interface{}) {
	if c == nil || c.LogFn == nil || level < c.LogLevel {
		return
	}
	c.LogFn(level, fmt.Sprintf(format, args...))
}

func (c *Config) debug() bool { return c != nil && c.Debug }
