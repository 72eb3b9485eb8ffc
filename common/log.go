package common

import (
	"bytes"
	"fmt"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger. The ordinal and kvstore subsystems don't
// log through it directly; they call GetLoggerEntry to get a copy tagged
// with their module name. config and main log through it directly.
var Log = NewLogger()

func init() {
	logrus.SetReportCaller(true)
	Log.SetLevel(logrus.InfoLevel)
}

func NewLogger() *logrus.Logger {
	l := logrus.New()
	l.SetLevel(logrus.TraceLevel)
	l.SetFormatter(&CustomTextFormatter{})
	return l
}

// GetLoggerEntry returns a logrus.Entry carrying a "module" field, so every
// line a subsystem logs can be traced back to it without that subsystem
// threading an identifier through every call.
func GetLoggerEntry(module string) *logrus.Entry {
	return Log.WithField("module", module)
}

// CustomTextFormatter renders one log line per entry: timestamp, level,
// module, message. No key=value field dump, no color codes.
type CustomTextFormatter struct{}

func (f *CustomTextFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	var b bytes.Buffer

	b.WriteString(entry.Time.Format("2006-01-02 15:04:05"))
	b.WriteString(fmt.Sprintf(" [%s] ", entry.Level.String()))

	moduleName, ok := entry.Data["module"].(string)
	if !ok {
		moduleName = "default"
	}
	b.WriteString(moduleName)
	b.WriteString(": ")
	b.WriteString(entry.Message)
	b.WriteByte('\n')

	return b.Bytes(), nil
}
