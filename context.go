package stix

import (
	"sync"
	"time"
)

// Clock supplies the current time for "now" defaults.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now().UTC() }

var (
	clockMu      sync.RWMutex
	currentClock Clock = systemClock{}
)

// SetClock replaces the process-wide clock; nil values are ignored.
func SetClock(c Clock) {
	if c == nil {
		return
	}
	clockMu.Lock()
	currentClock = c
	clockMu.Unlock()
}

// UseSystemClock restores the default UTC wall clock.
func UseSystemClock() {
	clockMu.Lock()
	currentClock = systemClock{}
	clockMu.Unlock()
}

func now() time.Time {
	clockMu.RLock()
	c := currentClock
	clockMu.RUnlock()
	return c.Now()
}

// BuildContext is the state shared by every default computed during one
// construction. Now is read from the clock exactly once per construction, so
// all "now" defaults of a record are identical.
type BuildContext struct {
	Now time.Time

	typeName string
	supplied map[string]any
}

func newBuildContext(typeName string, supplied map[string]any) *BuildContext {
	return &BuildContext{Now: now(), typeName: typeName, supplied: supplied}
}

// TypeName reports the type being constructed.
func (bc *BuildContext) TypeName() string { return bc.typeName }

// Supplied returns a caller-supplied field value (before defaulting and validation).
func (bc *BuildContext) Supplied(name string) (any, bool) {
	v, ok := bc.supplied[name]
	return v, ok
}
