package core

// Logger is any service that can log application events.
// args may contain errors, maps of extra data and the Operator performing the request.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

// Operator identifies the authenticated user of the admin API in logs.
type Operator struct {
	Username string
}
