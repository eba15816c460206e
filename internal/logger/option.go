package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// levelCore replaces the level check of the wrapped core.
// It can both raise and lower the threshold set on the global logger.
type levelCore struct {
	zapcore.Core

	level zapcore.Level
}

// Enabled reports whether l passes the overridden threshold.
func (c *levelCore) Enabled(l zapcore.Level) bool {
	return c.level.Enabled(l)
}

// Check adds c to ce when the entry passes the overridden threshold.
// The wrapped core's own level is bypassed.
//
//nolint:gocritic // AddCore requires ent to be passed by value.
func (c *levelCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if !c.Enabled(ent.Level) {
		return ce
	}

	return ce.AddCore(ent, c)
}

// With keeps the override on child cores.
//
//nolint:ireturn,nolintlint // zapcore.Core is the interface zap expects.
func (c *levelCore) With(fields []zapcore.Field) zapcore.Core {
	return &levelCore{
		Core:  c.Core.With(fields),
		level: c.level,
	}
}

// WithLevel returns an option that logs at lvl regardless of the level the
// logger was built with. Used by WithMinLevel.
//
//nolint:ireturn,nolintlint // zap.Option is the interface zap expects.
func WithLevel(lvl zapcore.Level) zap.Option {
	return zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return &levelCore{Core: core, level: lvl}
	})
}
