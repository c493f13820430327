package roomtalk

import "github.com/rs/zerolog"

// Logger is a minimal logging interface accepted by the SDK.
type Logger interface {
	Debug(msg string, fields map[string]any)
	Info(msg string, fields map[string]any)
	Warn(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// noopLogger discards all logs.
type noopLogger struct{}

func (noopLogger) Debug(string, map[string]any) {}
func (noopLogger) Info(string, map[string]any)  {}
func (noopLogger) Warn(string, map[string]any)  {}
func (noopLogger) Error(string, map[string]any) {}

// ZerologAdapter bridges the SDK logger to a zerolog.Logger.
type ZerologAdapter struct {
	log zerolog.Logger
}

// NewZerologAdapter wraps a zerolog.Logger so it can be passed to SetLogger.
func NewZerologAdapter(l zerolog.Logger) *ZerologAdapter {
	return &ZerologAdapter{log: l}
}

func (a *ZerologAdapter) Debug(msg string, fields map[string]any) { emit(a.log.Debug(), msg, fields) }
func (a *ZerologAdapter) Info(msg string, fields map[string]any)  { emit(a.log.Info(), msg, fields) }
func (a *ZerologAdapter) Warn(msg string, fields map[string]any)  { emit(a.log.Warn(), msg, fields) }
func (a *ZerologAdapter) Error(msg string, fields map[string]any) { emit(a.log.Error(), msg, fields) }

func emit(e *zerolog.Event, msg string, fields map[string]any) {
	if len(fields) > 0 {
		e = e.Fields(fields)
	}
	e.Msg(msg)
}
