// Package timing logs wall-clock spans around slow operations.
package timing

import (
	"time"

	"go.uber.org/zap"
)

// Span is one in-flight timed operation.
type Span struct {
	logger *zap.Logger
	name   string
	start  time.Time
}

// Start begins a span and logs its opening event.
func Start(logger *zap.Logger, name string, fields ...zap.Field) *Span {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Debug(name+".start", fields...)
	return &Span{logger: logger, name: name, start: time.Now()}
}

// End logs the closing event with the elapsed time and returns the elapsed
// duration.
func (s *Span) End(fields ...zap.Field) time.Duration {
	elapsed := time.Since(s.start)
	fields = append(fields, zap.Duration("elapsed", elapsed))
	s.logger.Info(s.name+".done", fields...)
	return elapsed
}
