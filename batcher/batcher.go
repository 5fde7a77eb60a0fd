// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package batcher

import (
	"fmt"
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/MixasV/fhevm-sdk-go/fault"
)

// defaults for zero-valued Config fields
const (
	DefaultMaxBatchSize = 10
	DefaultMinBatchSize = 1
	DefaultMaxWaitTime  = 100 * time.Millisecond
)

// Processor - handles one whole batch
//
// must return one result per payload, in the same order; an error or
// a length mismatch fails every request in the batch
type Processor func(payloads []interface{}) ([]interface{}, error)

// Config - batcher tuning
//
// MinBatchSize defers processing of a too-small batch until
// MaxWaitTime has elapsed since the oldest queued request
type Config struct {
	MaxBatchSize int
	MinBatchSize int
	MaxWaitTime  time.Duration
}

// BatchError - a whole batch failed
//
// wraps the processor error or fault.BatchLengthMismatch
type BatchError struct {
	Size    int
	Results int
	Err     error
}

func (e *BatchError) Error() string {
	if fault.BatchLengthMismatch == e.Err {
		return fmt.Sprintf("batch of %d failed: processor returned %d results", e.Size, e.Results)
	}
	return fmt.Sprintf("batch of %d failed: %s", e.Size, e.Err)
}

func (e *BatchError) Unwrap() error {
	return e.Err
}

type outcome struct {
	value interface{}
	err   error
}

type request struct {
	payload    interface{}
	enqueuedAt time.Time
	result     chan outcome
}

// Batcher - coalesces individual relayer requests into batches
type Batcher struct {
	sync.Mutex
	log          *logger.L
	process      Processor
	maxBatchSize int
	minBatchSize int
	maxWaitTime  time.Duration
	pending      []*request
	timer        *time.Timer
	processing   bool
	stopped      bool
	settled      *sync.Cond
}

// New - create a batcher around a batch processor
//
// panics on a nil processor; the logger must already be initialised
// by the host application
func New(name string, process Processor, cfg Config) *Batcher {
	if nil == process {
		panic(fault.InvalidBatchProcessor)
	}
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = DefaultMaxBatchSize
	}
	if cfg.MinBatchSize <= 0 {
		cfg.MinBatchSize = DefaultMinBatchSize
	}
	if cfg.MinBatchSize > cfg.MaxBatchSize {
		cfg.MinBatchSize = cfg.MaxBatchSize
	}
	if cfg.MaxWaitTime <= 0 {
		cfg.MaxWaitTime = DefaultMaxWaitTime
	}

	log := logger.New(name)
	log.Info("initialising…")

	b := &Batcher{
		log:          log,
		process:      process,
		maxBatchSize: cfg.MaxBatchSize,
		minBatchSize: cfg.MinBatchSize,
		maxWaitTime:  cfg.MaxWaitTime,
	}
	b.settled = sync.NewCond(b)
	return b
}

// Add - submit one payload and wait for its individual result
//
// the call blocks until the batch containing the payload settles, or
// until Clear/Stop rejects it
func (b *Batcher) Add(payload interface{}) (interface{}, error) {
	b.Lock()
	if b.stopped {
		b.Unlock()
		return nil, fault.BatcherStopped
	}

	req := &request{
		payload:    payload,
		enqueuedAt: time.Now(),
		result:     make(chan outcome, 1),
	}
	b.pending = append(b.pending, req)

	if len(b.pending) >= b.maxBatchSize {
		b.startLocked(true)
	} else if nil == b.timer {
		b.armTimerLocked(b.maxWaitTime)
	}
	b.Unlock()

	o := <-req.result
	return o.value, o.err
}

// Flush - process everything queued, repeatedly, until empty
//
// bypasses the minimum batch size; returns once the queue is empty
// and no batch is in flight
func (b *Batcher) Flush() {
	b.Lock()
	defer b.Unlock()

	for {
		if !b.processing && 0 == len(b.pending) {
			return
		}
		if !b.processing {
			b.startLocked(true)
			continue
		}
		b.settled.Wait()
	}
}

// QueueSize - number of requests waiting for a batch
func (b *Batcher) QueueSize() int {
	b.Lock()
	defer b.Unlock()
	return len(b.pending)
}

// Clear - reject every queued request with fault.BatcherCleared
//
// cannot recall a batch already dispatched; returns the number of
// requests rejected
func (b *Batcher) Clear() int {
	b.Lock()
	rejected := b.rejectPendingLocked(fault.BatcherCleared)
	b.Unlock()
	return rejected
}

// Stop - tear the batcher down
//
// stops the pending timer and rejects queued requests with
// fault.BatcherStopped; later Add calls are refused
func (b *Batcher) Stop() {
	b.Lock()
	b.stopped = true
	b.rejectPendingLocked(fault.BatcherStopped)
	b.Unlock()
	b.log.Info("stopped")
}

// caller must hold the lock
func (b *Batcher) rejectPendingLocked(reason error) int {
	if nil != b.timer {
		b.timer.Stop()
		b.timer = nil
	}
	n := len(b.pending)
	for _, req := range b.pending {
		req.result <- outcome{err: reason}
	}
	b.pending = nil
	return n
}

// caller must hold the lock
func (b *Batcher) armTimerLocked(d time.Duration) {
	if nil != b.timer {
		b.timer.Stop()
	}
	b.timer = time.AfterFunc(d, b.timerExpired)
}

func (b *Batcher) timerExpired() {
	b.Lock()
	b.timer = nil
	// the oldest request has now waited MaxWaitTime
	b.startLocked(true)
	b.Unlock()
}

// begin processing one batch if the trigger rules allow it
//
// force bypasses the minimum-size deferral (size trigger, timer
// expiry, flush); caller must hold the lock
func (b *Batcher) startLocked(force bool) {
	if b.processing || 0 == len(b.pending) {
		return
	}

	if !force && len(b.pending) < b.minBatchSize {
		age := time.Since(b.pending[0].enqueuedAt)
		if age < b.maxWaitTime {
			// too small and too young: wait out the remainder
			b.armTimerLocked(b.maxWaitTime - age)
			return
		}
	}

	n := len(b.pending)
	if n > b.maxBatchSize {
		n = b.maxBatchSize
	}
	batch := b.pending[:n:n]
	b.pending = append([]*request(nil), b.pending[n:]...)

	if nil != b.timer {
		b.timer.Stop()
		b.timer = nil
	}
	b.processing = true

	go b.runBatch(batch)
}

// process one detached batch and settle every request in it
func (b *Batcher) runBatch(batch []*request) {
	payloads := make([]interface{}, len(batch))
	for i, req := range batch {
		payloads[i] = req.payload
	}

	b.log.Debugf("processing batch of %d", len(batch))

	results, err := b.invoke(payloads)
	if nil == err && len(results) != len(batch) {
		err = error(fault.BatchLengthMismatch)
	}

	if nil != err {
		// all-or-nothing: the whole batch fails together
		batchErr := &BatchError{
			Size:    len(batch),
			Results: len(results),
			Err:     err,
		}
		b.log.Warnf("batch failed: %s", batchErr)
		for _, req := range batch {
			req.result <- outcome{err: batchErr}
		}
	} else {
		for i, req := range batch {
			req.result <- outcome{value: results[i]}
		}
	}

	b.Lock()
	b.processing = false
	b.settled.Broadcast()
	// anything queued while this batch was in flight
	b.startLocked(false)
	b.Unlock()
}

// run the processor, converting a panic to an error
func (b *Batcher) invoke(payloads []interface{}) (results []interface{}, err error) {
	defer func() {
		if r := recover(); nil != r {
			results = nil
			err = fmt.Errorf("batch processor panic: %v", r)
		}
	}()
	return b.process(payloads)
}
