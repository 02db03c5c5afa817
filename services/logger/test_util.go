package logsvc

import (
	"log"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
)

// testLogger writes through the std logger only; nothing is reported upstream.
type testLogger struct {
	std     *log.Logger
	enabled bool
}

var _ core.Logger = (*testLogger)(nil)

func NewTestLogger(std *log.Logger) core.Logger {
	return &testLogger{std: std, enabled: true}
}

func (l *testLogger) Enable(enabled bool) { l.enabled = enabled }

func (l *testLogger) print(msg string, args []interface{}) {
	if !l.enabled {
		return
	}
	l.std.Println(msg)
	for _, arg := range args {
		l.std.Printf("%+v\n", arg)
	}
}

func (l *testLogger) Debug(msg string, args ...interface{}) { l.print(msg, args) }
func (l *testLogger) Info(msg string, args ...interface{})  { l.print(msg, args) }
func (l *testLogger) Warn(msg string, args ...interface{})  { l.print(msg, args) }
func (l *testLogger) Error(msg string, args ...interface{}) { l.print(msg, args) }
func (l *testLogger) Fatal(msg string, args ...interface{}) {
	l.print(msg, args)
	l.std.Fatal(msg)
}
