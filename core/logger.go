package core

// Logger is the logging & error reporting boundary of the app.
// Never pass credentials, tokens or request bodies as args.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
