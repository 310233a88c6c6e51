package whttp

import (
	"fmt"
	"strings"
)

// Logger is satisfied by *logrus.Logger and most printf-style loggers.
type Logger interface {
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// leveledLogger adapts a Logger to retryablehttp.LeveledLogger.
type leveledLogger struct{ l Logger }

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.l.Errorf("%s%s", msg, pairs(kv)) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.l.Infof("%s%s", msg, pairs(kv)) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.l.Debugf("%s%s", msg, pairs(kv)) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.l.Warnf("%s%s", msg, pairs(kv)) }

func pairs(kv []interface{}) string {
	var b strings.Builder
	for i := 0; i+1 < len(kv); i += 2 {
		fmt.Fprintf(&b, " %v=%v", kv[i], kv[i+1])
	}
	return b.String()
}
