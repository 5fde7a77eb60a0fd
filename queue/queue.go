// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package queue

import (
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/bitmark-inc/logger"

	"github.com/MixasV/fhevm-sdk-go/background"
	"github.com/MixasV/fhevm-sdk-go/counter"
	"github.com/MixasV/fhevm-sdk-go/fault"
)

// defaults for zero-valued fields
const (
	DefaultMaxConcurrent = 1
	DefaultMaxRetries    = 3
	DefaultRetryDelay    = 1 * time.Second
)

// Item - one transaction submitted for deferred execution
//
// ID must be unique among items currently pending or in flight;
// higher Priority dispatches first, ties broken by arrival order
//
// MaxRetries zero selects the default of 3; a negative value disables
// retries entirely; RetryDelay zero selects the default of 1s
type Item struct {
	ID         string
	Operation  func() (interface{}, error)
	Priority   int
	MaxRetries int
	RetryDelay time.Duration
}

// Result - terminal outcome of one accepted item
//
// produced exactly once; failures are carried here, never as a
// rejected enqueue
type Result struct {
	ID            string
	Success       bool
	Value         interface{}
	Err           error
	Attempts      int
	ExecutionTime time.Duration
}

// Status - non-blocking snapshot of queue state
type Status struct {
	Pending    int
	Processing int
	Completed  int
	Failed     int
	Running    bool
}

// Config - queue construction options
//
// RateLimit is the minimum spacing between successive dispatches,
// not completions; zero disables spacing
type Config struct {
	MaxConcurrent int
	RateLimit     time.Duration
}

type pendingItem struct {
	item   Item
	result chan Result
}

// Queue - priority transaction queue with bounded concurrency
type Queue struct {
	sync.Mutex
	log           *logger.L
	limiter       *rate.Limiter
	maxConcurrent int
	pending       []*pendingItem
	inFlight      map[string]struct{}
	completed     counter.Counter
	failed        counter.Counter
	wake          chan struct{}
	stopped       bool
	bg            *background.T
}

// New - create a queue and start its dispatcher
//
// the logger must already be initialised by the host application;
// call Stop to shut the dispatcher down
func New(name string, cfg Config) *Queue {
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}

	limit := rate.Inf
	if cfg.RateLimit > 0 {
		limit = rate.Every(cfg.RateLimit)
	}

	log := logger.New(name)
	log.Info("initialising…")

	q := &Queue{
		log:           log,
		limiter:       rate.NewLimiter(limit, 1),
		maxConcurrent: cfg.MaxConcurrent,
		inFlight:      make(map[string]struct{}),
		wake:          make(chan struct{}, 1),
	}
	q.bg = background.Start(background.Processes{
		&dispatcher{queue: q},
	}, nil)

	return q
}

// Enqueue - submit an item for execution
//
// the returned channel is buffered and receives exactly one Result;
// it never delivers a Go error for the operation itself - failures
// are inside the Result
func (q *Queue) Enqueue(item Item) <-chan Result {
	result := make(chan Result, 1)

	if "" == item.ID {
		result <- q.refuse(item.ID, fault.InvalidTransactionID)
		return result
	}
	if nil == item.Operation {
		result <- q.refuse(item.ID, fault.InvalidOperation)
		return result
	}

	if 0 == item.MaxRetries {
		item.MaxRetries = DefaultMaxRetries
	} else if item.MaxRetries < 0 {
		item.MaxRetries = 0
	}
	if item.RetryDelay <= 0 {
		item.RetryDelay = DefaultRetryDelay
	}

	q.Lock()
	if q.stopped {
		q.Unlock()
		result <- q.refuse(item.ID, fault.QueueStopped)
		return result
	}
	if q.isKnown(item.ID) {
		q.Unlock()
		result <- q.refuse(item.ID, fault.DuplicateTransaction)
		return result
	}

	q.insert(&pendingItem{
		item:   item,
		result: result,
	})
	q.Unlock()

	q.log.Debugf("enqueued %q priority %d", item.ID, item.Priority)
	q.kick()
	return result
}

// Cancel - remove a pending item before it dispatches
//
// an item already in flight cannot be cancelled; returns whether a
// pending item was removed
func (q *Queue) Cancel(id string) bool {
	q.Lock()
	var cancelled *pendingItem
	for i, p := range q.pending {
		if p.item.ID == id {
			cancelled = p
			q.pending = append(q.pending[:i], q.pending[i+1:]...)
			break
		}
	}
	q.Unlock()

	if nil == cancelled {
		return false
	}
	cancelled.result <- q.refuse(id, fault.TransactionCancelled)
	q.log.Debugf("cancelled %q", id)
	return true
}

// Clear - drop every pending item
//
// in-flight items are unaffected; each dropped item settles with a
// cancelled result; returns the number dropped
func (q *Queue) Clear() int {
	q.Lock()
	dropped := q.pending
	q.pending = nil
	q.Unlock()

	for _, p := range dropped {
		p.result <- q.refuse(p.item.ID, fault.TransactionCancelled)
	}
	return len(dropped)
}

// Status - snapshot of item counts
func (q *Queue) Status() Status {
	q.Lock()
	pending := len(q.pending)
	processing := len(q.inFlight)
	q.Unlock()

	return Status{
		Pending:    pending,
		Processing: processing,
		Completed:  int(q.completed.Uint64()),
		Failed:     int(q.failed.Uint64()),
		Running:    pending > 0 || processing > 0,
	}
}

// Stop - shut the dispatcher down
//
// remaining pending items settle with fault.QueueStopped; in-flight
// items run to completion
func (q *Queue) Stop() {
	q.Lock()
	q.stopped = true
	q.Unlock()

	q.bg.Stop()
	q.log.Info("stopped")
}

// immediate failure result for refused or cancelled items
func (q *Queue) refuse(id string, reason error) Result {
	return Result{
		ID:      id,
		Success: false,
		Err:     reason,
	}
}

// caller must hold the lock
func (q *Queue) isKnown(id string) bool {
	if _, ok := q.inFlight[id]; ok {
		return true
	}
	for _, p := range q.pending {
		if p.item.ID == id {
			return true
		}
	}
	return false
}

// stable priority insert: after all items of equal or higher
// priority; caller must hold the lock
func (q *Queue) insert(p *pendingItem) {
	at := len(q.pending)
	for i, existing := range q.pending {
		if existing.item.Priority < p.item.Priority {
			at = i
			break
		}
	}
	q.pending = append(q.pending, nil)
	copy(q.pending[at+1:], q.pending[at:])
	q.pending[at] = p
}

// wake the dispatcher without blocking
func (q *Queue) kick() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}
