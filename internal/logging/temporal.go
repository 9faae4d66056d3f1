package logging

import (
	tlog "go.temporal.io/sdk/log"
	"go.uber.org/zap"
)

// Temporal adapts a zap logger to the Temporal SDK's key/value logger so the
// client and worker write to the same sink as the rest of the process.
type Temporal struct {
	s *zap.SugaredLogger
}

var _ tlog.Logger = (*Temporal)(nil)

func NewTemporal(l *zap.Logger) *Temporal {
	if l == nil {
		l = zap.NewNop()
	}
	return &Temporal{s: l.WithOptions(zap.AddCallerSkip(1)).Sugar()}
}

func (t *Temporal) Debug(msg string, keyvals ...interface{}) { t.s.Debugw(msg, keyvals...) }
func (t *Temporal) Info(msg string, keyvals ...interface{})  { t.s.Infow(msg, keyvals...) }
func (t *Temporal) Warn(msg string, keyvals ...interface{})  { t.s.Warnw(msg, keyvals...) }
func (t *Temporal) Error(msg string, keyvals ...interface{}) { t.s.Errorw(msg, keyvals...) }
