package events

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/sirupsen/logrus"
)

// loggerAdapter bridges Watermill's LoggerAdapter onto logrus.
type loggerAdapter struct {
	entry *logrus.Entry
}

func newLoggerAdapter(logger *logrus.Logger) watermill.LoggerAdapter {
	return &loggerAdapter{entry: logrus.NewEntry(logger)}
}

func (l *loggerAdapter) Error(msg string, err error, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).WithError(err).Error(msg)
}

func (l *loggerAdapter) Info(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Info(msg)
}

func (l *loggerAdapter) Debug(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Debug(msg)
}

func (l *loggerAdapter) Trace(msg string, fields watermill.LogFields) {
	l.entry.WithFields(logrus.Fields(fields)).Trace(msg)
}

func (l *loggerAdapter) With(fields watermill.LogFields) watermill.LoggerAdapter {
	return &loggerAdapter{entry: l.entry.WithFields(logrus.Fields(fields))}
}
