package core

import "github.com/hupe1980/tripsession/logging"

// loggerAdapter guarantees a non-nil logger and routes session events to the
// domain helpers of *logging.SessionLogger when one is configured.
type loggerAdapter struct {
	logger logging.Logger
}

func newLoggerAdapter(l logging.Logger) *loggerAdapter {
	if l == nil {
		l = logging.NoOpLogger{}
	}
	return &loggerAdapter{logger: l}
}

func (l *loggerAdapter) logIngestion(entry string, err error) {
	if sl, ok := l.logger.(*logging.SessionLogger); ok {
		sl.LogIngestion(entry, 1, err)
		return
	}
	if err != nil {
		l.logger.Warn("Ingestion degraded", "entry", entry, "error", err.Error())
		return
	}
	l.logger.Debug("Ingestion completed", "entry", entry)
}

func (l *loggerAdapter) logEviction(evicted, window int) {
	if sl, ok := l.logger.(*logging.SessionLogger); ok {
		sl.LogEviction(evicted, window)
		return
	}
	l.logger.Debug("Turns evicted", "evicted", evicted, "window", window)
}
