package arbor

import "github.com/sirupsen/logrus"

// logger is the package logger. Warn level by default so rejected values
// and frame stats stay silent unless asked for.
var logger = newDefaultLogger()

func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetLogger replaces the package logger. Pass nil to restore the default.
//
//	l := logrus.New()
//	l.SetLevel(logrus.DebugLevel)
//	arbor.SetLogger(l)
func SetLogger(l *logrus.Logger) {
	if l == nil {
		l = newDefaultLogger()
	}
	logger = l
}

// Logger returns the package logger.
func Logger() *logrus.Logger {
	return logger
}
