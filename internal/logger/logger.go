package logger

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

type Config struct {
	Level     string
	Console   bool
	Component string
}

type ctxKey string

const (
	ctxTraversalID ctxKey = "traversal_id"
	ctxRequestID   ctxKey = "request_id"
)

func WithTraversalID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewID()
	}
	return context.WithValue(ctx, ctxTraversalID, id)
}

func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = NewID()
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// TraversalID returns the id stored by WithTraversalID, or "".
func TraversalID(ctx context.Context) string {
	s, _ := ctx.Value(ctxTraversalID).(string)
	return s
}

func NewID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

func Build(cfg Config, out io.Writer) zerolog.Logger {
	if out == nil {
		out = os.Stderr
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.TimestampFieldName = "timestamp"
	zerolog.MessageFieldName = "msg"

	if cfg.Console {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	base := zerolog.New(out).Level(ParseLevel(cfg.Level))
	ctx := base.With().Timestamp()
	if cfg.Component != "" {
		ctx = ctx.Str("component", cfg.Component)
	}
	return ctx.Logger()
}

// ParseLevel maps a config string onto a zerolog level; unknown values
// mean info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "off":
		return zerolog.Disabled
	default:
		return zerolog.InfoLevel
	}
}

// returns a child logger with context fields applied
func FromContext(ctx context.Context, parent *zerolog.Logger) *zerolog.Logger {
	var base zerolog.Logger
	if parent == nil {
		base = zerolog.Nop()
	} else {
		base = *parent
	}
	w := base.With()
	if s, ok := ctx.Value(ctxTraversalID).(string); ok && s != "" {
		w = w.Str("traversal_id", s)
	}
	if s, ok := ctx.Value(ctxRequestID).(string); ok && s != "" {
		w = w.Str("request_id", s)
	}
	l := w.Logger()
	return &l
}

// Printf is the Debugf/Errorf logger used by the library packages, backed
// by zerolog.
type Printf struct {
	zl zerolog.Logger
}

// Adapt wraps zl for packages that take a printf-style logger.
func Adapt(zl zerolog.Logger) *Printf {
	return &Printf{zl: zl}
}

func (p *Printf) Debugf(format string, args ...any) {
	p.zl.Debug().Msg(fmt.Sprintf(format, args...))
}

func (p *Printf) Errorf(format string, args ...any) {
	p.zl.Error().Msg(fmt.Sprintf(format, args...))
}
