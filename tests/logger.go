package testutil

import (
	"fmt"
	"sync"

	"github.com/0xJayOnchain/academic-chain/core"
)

// Logger records log entries as "LEVEL: msg".
type Logger struct {
	mu      sync.Mutex
	Entries []string
}

var _ core.Logger = (*Logger)(nil)

func (l *Logger) log(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, fmt.Sprintf("%s: %s", level, msg))
}

// Has reports whether an entry "LEVEL: msg" was logged.
func (l *Logger) Has(level, msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	want := level + ": " + msg
	for _, e := range l.Entries {
		if e == want {
			return true
		}
	}
	return false
}

func (l *Logger) Debug(msg string, _ ...interface{}) { l.log("DEBUG", msg) }
func (l *Logger) Info(msg string, _ ...interface{})  { l.log("INFO", msg) }
func (l *Logger) Warn(msg string, _ ...interface{})  { l.log("WARN", msg) }
func (l *Logger) Error(msg string, _ ...interface{}) { l.log("ERROR", msg) }
func (l *Logger) Fatal(msg string, _ ...interface{}) { l.log("FATAL", msg) }
