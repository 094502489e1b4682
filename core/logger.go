package core

// Logger reports application events with increasing severity.
// Extra args may carry structured context (a user.User arg identifies the
// acting account when the backing service supports it).
type Logger interface {
	Enable(enabled bool)
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}
