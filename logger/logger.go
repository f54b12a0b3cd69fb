// Package logger is a thin key-value logging facade over zerolog shared by
// every EdgeGate package. Call sites pass alternating key/value pairs:
//
//	logger.Info("lookup complete", "ip", ip, "country", loc.CountryCode)
package logger

import (
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

var log = newLogger()

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if raw := os.Getenv("EDGEGATE_LOG_LEVEL"); raw != "" {
		if parsed, err := zerolog.ParseLevel(strings.ToLower(raw)); err == nil {
			level = parsed
		}
	}

	var w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	if os.Getenv("EDGEGATE_LOG_JSON") != "" {
		return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

func Debug(msg string, kv ...any) { emit(log.Debug(), msg, kv) }
func Info(msg string, kv ...any)  { emit(log.Info(), msg, kv) }
func Warn(msg string, kv ...any)  { emit(log.Warn(), msg, kv) }
func Error(msg string, kv ...any) { emit(log.Error(), msg, kv) }

func emit(e *zerolog.Event, msg string, kv []any) {
	for i := 0; i+1 < len(kv); i += 2 {
		key, ok := kv[i].(string)
		if !ok {
			key = fmt.Sprint(kv[i])
		}
		e = e.Interface(key, kv[i+1])
	}
	e.Msg(msg)
}
