// Package logging builds the zerolog loggers used by geniectl and adapts
// them to the genie.Logger interface.
package logging

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init builds a console logger on stderr and installs it as the global
// zerolog logger.
func Init(app string, cfg Config) zerolog.Logger {
	logger := New(os.Stderr, app, cfg)
	log.Logger = logger
	return logger
}

// New builds a console logger writing to w.
func New(w io.Writer, app string, cfg Config) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        w,
		TimeFormat: time.RFC3339,
		NoColor:    cfg.NoColor,
	}
	if !cfg.Timestamp {
		output.PartsExclude = []string{zerolog.TimestampFieldName}
	}
	ctx := zerolog.New(output).Level(cfg.Level).With()
	if cfg.Timestamp {
		ctx = ctx.Timestamp()
	}
	return ctx.Str("app", app).Logger()
}

// Adapter satisfies genie.Logger on top of a zerolog.Logger.
type Adapter struct {
	logger zerolog.Logger
}

// NewAdapter wraps logger. component is added to every entry.
func NewAdapter(logger zerolog.Logger, component string) *Adapter {
	return &Adapter{logger: logger.With().Str("component", component).Logger()}
}

func (a *Adapter) Debug(msg string, keysAndValues ...interface{}) {
	withFields(a.logger.Debug(), keysAndValues).Msg(msg)
}

func (a *Adapter) Info(msg string, keysAndValues ...interface{}) {
	withFields(a.logger.Info(), keysAndValues).Msg(msg)
}

func (a *Adapter) Error(msg string, keysAndValues ...interface{}) {
	withFields(a.logger.Error(), keysAndValues).Msg(msg)
}

// withFields adds alternating key/value pairs to e. A trailing key without
// a value is logged under "extra".
func withFields(e *zerolog.Event, kv []interface{}) *zerolog.Event {
	for i := 0; i < len(kv); i += 2 {
		if i+1 >= len(kv) {
			e = e.Interface("extra", kv[i])
			break
		}
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		switch v := kv[i+1].(type) {
		case error:
			e = e.AnErr(key, v)
		default:
			e = e.Interface(key, v)
		}
	}
	return e
}
