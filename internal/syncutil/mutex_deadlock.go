//go:build deadlock

// Package syncutil provides the mutex types used by the error accumulator,
// the mock transport and the CP2130 simulator. This file is compiled when
// building with -tags=deadlock.
package syncutil

import (
	"time"

	deadlock "github.com/sasha-s/go-deadlock"
)

// Locks guard bookkeeping around a single USB transfer, so a wait longer
// than a few transfer timeouts is reported as a deadlock.
const lockWaitLimit = 2 * time.Second

func init() {
	deadlock.Opts.DeadlockTimeout = lockWaitLimit
}

// Mutex wraps deadlock.Mutex for deadlock detection.
type Mutex struct {
	deadlock.Mutex
}

// RWMutex wraps deadlock.RWMutex for deadlock detection.
type RWMutex struct {
	deadlock.RWMutex
}
