// Package logx is a thin structured-logging facade over zerolog.
//
// It exposes a value-type Logger with slog-like field helpers and a Service
// that can swap sinks/levels at runtime (used for config reload).
package logx
