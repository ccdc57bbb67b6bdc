package log

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// logger initializes the global zerolog logger exactly once. Level comes
// from LOG_LEVEL (default info); output is stderr.
func logger() zerolog.Logger {
	once.Do(func() {
		level := zerolog.InfoLevel
		if env := os.Getenv("LOG_LEVEL"); env != "" {
			if parsed, err := zerolog.ParseLevel(env); err == nil {
				level = parsed
			}
		}
		zerolog.SetGlobalLevel(level)
		zerolog.TimeFieldFormat = time.RFC3339

		base = zerolog.New(os.Stderr).With().
			Timestamp().
			Str("service", "assigntrack").
			Logger()
	})
	return base
}

// SetLevel overrides the global minimum level.
func SetLevel(level string) {
	logger()
	if parsed, err := zerolog.ParseLevel(level); err == nil {
		zerolog.SetGlobalLevel(parsed)
	}
}

func Debug(msg string, kv ...any) {
	l := logger()
	emit(l.Debug(), msg, kv)
}

func Info(msg string, kv ...any) {
	l := logger()
	emit(l.Info(), msg, kv)
}

func Error(msg string, err error, kv ...any) {
	l := logger()
	emit(l.Error().Err(err), msg, kv)
}

// emit attaches kv as alternating key/value pairs. Non-string keys and a
// trailing odd value are ignored.
func emit(ev *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			continue
		}
		ev = ev.Interface(key, kv[i+1])
	}
	ev.Msg(msg)
}
