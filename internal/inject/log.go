package inject

import (
	"github.com/sirupsen/logrus"

	"github.com/ayusman/mudra/internal/control"
)

// LogInjector only logs actions. It backs --dry-run.
type LogInjector struct {
	log logrus.FieldLogger
}

var _ control.Injector = (*LogInjector)(nil)

// NewLogInjector creates a LogInjector.
func NewLogInjector(log logrus.FieldLogger) *LogInjector {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &LogInjector{log: log.WithField("dry_run", true)}
}

// Inject implements control.Injector.
func (l *LogInjector) Inject(a control.Action) error {
	if a.Kind == control.ActionMove || a.Kind == control.ActionDragContinue {
		l.log.WithField("action", a.String()).Trace("Would inject")
		return nil
	}
	l.log.WithField("action", a.String()).Info("Would inject")
	return nil
}
