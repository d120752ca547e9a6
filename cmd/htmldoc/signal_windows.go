//go:build windows

package main

import (
	"context"
	"os"
	"os/signal"
)

// stopSignals cancel an in-flight conversion. Windows only delivers
// os.Interrupt (Ctrl+C and Ctrl+Break).
var stopSignals = []os.Signal{os.Interrupt}

// notifyContext derives a context canceled by the first stop signal.
func notifyContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, stopSignals...)
}
