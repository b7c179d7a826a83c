package packrattle

import "github.com/sirupsen/logrus"

// trampolineLogger wraps logrus with the fields every trace line in
// this engine carries, the way the teacher engine's own `dbg` closure
// carried cursor/pc on every printed line, just structured instead of
// formatted into a string.
type trampolineLogger struct {
	log   *logrus.Entry
	level string
}

func newTrampolineLogger(runID string, level string) *trampolineLogger {
	base := logrus.New()
	base.SetLevel(traceLevelToLogrus(level))
	return &trampolineLogger{
		log:   base.WithField("run_id", runID),
		level: level,
	}
}

func traceLevelToLogrus(level string) logrus.Level {
	switch level {
	case "trace":
		return logrus.TraceLevel
	case "debug":
		return logrus.DebugLevel
	default:
		return logrus.WarnLevel
	}
}

func (l *trampolineLogger) dequeue(p *Parser, index, depth int) {
	l.log.WithFields(logrus.Fields{
		"parser_id": p.ID(),
		"parser":    p.Name(),
		"index":     index,
		"depth":     depth,
	}).Trace("dequeue")
}

func (l *trampolineLogger) cacheFanout(p *Parser, index int, waiters int) {
	l.log.WithFields(logrus.Fields{
		"parser_id": p.ID(),
		"index":     index,
		"waiters":   waiters,
	}).Debug("cache fan-out")
}

func (l *trampolineLogger) bestFailure(m Match) {
	l.log.WithFields(logrus.Fields{
		"span":     m.Span.String(),
		"priority": m.Priority,
	}).Debug("best failure updated")
}
