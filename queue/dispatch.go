// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package queue

import (
	"time"

	"github.com/MixasV/fhevm-sdk-go/fault"
	"github.com/MixasV/fhevm-sdk-go/retry"
)

// the dispatch loop, run under background
type dispatcher struct {
	queue *Queue
}

func (d *dispatcher) Run(args interface{}, shutdown <-chan struct{}) {
	q := d.queue
	q.log.Info("dispatcher starting…")

loop:
	for {
		select {
		case <-shutdown:
			break loop
		case <-q.wake:
			q.dispatchAll(shutdown)
		}
	}

	q.drain()
}

// dispatch pending items while slots are free
//
// runs on the single dispatcher goroutine, so the rate spacing
// between successive dispatches is strict even with MaxConcurrent > 1
func (q *Queue) dispatchAll(shutdown <-chan struct{}) {
	for {
		q.Lock()
		if q.stopped || 0 == len(q.pending) || len(q.inFlight) >= q.maxConcurrent {
			q.Unlock()
			return
		}

		// highest priority first; ties in arrival order
		p := q.pending[0]
		q.pending = q.pending[1:]
		q.inFlight[p.item.ID] = struct{}{}
		q.Unlock()

		if !q.pace(shutdown) {
			// shutting down mid-wait: settle the popped item
			q.Lock()
			delete(q.inFlight, p.item.ID)
			q.Unlock()
			p.result <- q.refuse(p.item.ID, fault.QueueStopped)
			return
		}

		go q.execute(p)
	}
}

// enforce the minimum spacing between dispatches
//
// reservation then sleep; returns false if shutdown arrived first
func (q *Queue) pace(shutdown <-chan struct{}) bool {
	r := q.limiter.Reserve()
	if !r.OK() {
		return true
	}
	delay := r.Delay()
	if 0 == delay {
		return true
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-timer.C:
		return true
	case <-shutdown:
		r.Cancel()
		return false
	}
}

// run one item through retry and settle its result
func (q *Queue) execute(p *pendingItem) {
	item := p.item
	start := time.Now()

	value, attempts, err := retry.Do(item.Operation, retry.Config{
		MaxAttempts:  item.MaxRetries + 1,
		InitialDelay: item.RetryDelay,
		Jitter:       true,
		OnRetry: func(err error, attempt int, delay time.Duration) {
			q.log.Warnf("%q attempt %d failed: %s  retrying in %s", item.ID, attempt, err, delay)
		},
	})

	result := Result{
		ID:            item.ID,
		Success:       nil == err,
		Value:         value,
		Err:           err,
		Attempts:      attempts,
		ExecutionTime: time.Since(start),
	}

	q.Lock()
	delete(q.inFlight, item.ID)
	q.Unlock()

	if result.Success {
		q.completed.Increment()
		q.log.Debugf("%q completed in %s after %d attempts", item.ID, result.ExecutionTime, attempts)
	} else {
		q.failed.Increment()
		q.log.Warnf("%q failed after %d attempts: %s", item.ID, attempts, err)
	}

	p.result <- result

	// a slot is free now
	q.kick()
}

// settle anything still pending when the dispatcher stops
func (q *Queue) drain() {
	q.Lock()
	remaining := q.pending
	q.pending = nil
	q.Unlock()

	for _, p := range remaining {
		p.result <- q.refuse(p.item.ID, fault.QueueStopped)
	}
}
