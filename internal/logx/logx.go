// Package logx centralizes the structured logging a memo database emits:
// dirtiness decisions, clears, and snapshot saves/loads, all as logrus
// fields rather than formatted strings, so a host application can route or
// filter them like the rest of its logs.
package logx

import (
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	mu  sync.RWMutex
	log = logrus.StandardLogger()
)

// SetLogger replaces the logger used for all memo log output. Passing nil
// restores logrus.StandardLogger().
func SetLogger(l *logrus.Logger) {
	mu.Lock()
	defer mu.Unlock()
	if l == nil {
		l = logrus.StandardLogger()
	}
	log = l
}

func current() *logrus.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return log
}

// Entry returns a field-ready logrus entry tagged with the component and
// function this log line concerns.
func Entry(component, function string) *logrus.Entry {
	return current().WithFields(logrus.Fields{
		"component": component,
		"function":  function,
	})
}

// CallDecision logs the dirty/clean verdict reached for one call.
func CallDecision(function string, callID int, dirty bool, reason string) {
	Entry("call", function).WithFields(logrus.Fields{
		"call_id": callID,
		"dirty":   dirty,
		"reason":  reason,
	}).Debug("call evaluated")
}

// Cleared logs a function or file clear.
func Cleared(kind, name string) {
	current().WithFields(logrus.Fields{
		"component": "clear",
		"kind":      kind,
		"name":      name,
	}).Info("cleared")
}

// SnapshotSaved logs a successful persistence write.
func SnapshotSaved(path string, functions, files int) {
	current().WithFields(logrus.Fields{
		"component": "snapshot",
		"path":      path,
		"functions": functions,
		"files":     files,
	}).Info("database saved")
}

// SnapshotLoaded logs a successful persistence read.
func SnapshotLoaded(path string, functions, files int) {
	current().WithFields(logrus.Fields{
		"component": "snapshot",
		"path":      path,
		"functions": functions,
		"files":     files,
	}).Info("database loaded")
}

// SnapshotLoadFailed logs a persistence read that failed for a reason other
// than the file simply not existing yet (truncated or corrupt data). The
// caller proceeds with an empty backend rather than treating this as fatal.
func SnapshotLoadFailed(path string, err error) {
	current().WithFields(logrus.Fields{
		"component": "snapshot",
		"path":      path,
		"error":     err.Error(),
	}).Warn("database load failed, starting empty")
}
