// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package background

import (
	"sync"
)

// Process - type signature for a background process
//
// Run must return promptly once the shutdown channel is closed
type Process interface {
	Run(args interface{}, shutdown <-chan struct{})
}

// Processes - list of processes to start
type Processes []Process

// T - handle for a started set of background processes
type T struct {
	wg       sync.WaitGroup
	shutdown chan struct{}
	once     sync.Once
}

// Start - run a set of background processes
//
// all processes share the same args value and the same shutdown
// channel
func Start(processes Processes, args interface{}) *T {

	register := &T{
		shutdown: make(chan struct{}),
	}

	// start each background
	for _, p := range processes {
		register.wg.Add(1)
		go func(p Process) {
			defer register.wg.Done()
			p.Run(args, register.shutdown)
		}(p)
	}
	return register
}

// Stop - stop the set of background processes
//
// signals shutdown then waits for every Run to return; safe to call
// more than once
func (t *T) Stop() {
	if nil == t {
		return
	}

	// shutdown all background tasks
	t.once.Do(func() {
		close(t.shutdown)
	})

	// wait for finished
	t.wg.Wait()
}
