package core

// Logger is any service that can log app messages, optionally shipping them to an
// error-tracking backend. Extra args may carry errors or structured context maps.
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
