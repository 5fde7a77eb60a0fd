// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package breaker

import (
	"sync"
	"time"

	"github.com/bitmark-inc/logger"

	"github.com/MixasV/fhevm-sdk-go/fault"
)

// State - the three breaker states
type State int

const (
	StateClosed State = iota
	StateOpen
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// defaults for zero-valued Config fields
const (
	DefaultFailureThreshold = 5
	DefaultResetTimeout     = 60 * time.Second
)

// Config - breaker tuning
type Config struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}

// Breaker - failure isolation for one relayer dependency
//
// closed passes calls through; FailureThreshold consecutive failures
// trip to open; open fails fast until ResetTimeout has elapsed since
// the last failure; the next call then runs as a half-open probe
type Breaker struct {
	sync.Mutex
	log              *logger.L
	failureThreshold int
	resetTimeout     time.Duration
	state            State
	failureCount     int
	lastFailureTime  time.Time
	probing          bool
}

// New - create a breaker
//
// the logger must already be initialised by the host application
func New(name string, cfg Config) *Breaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = DefaultFailureThreshold
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = DefaultResetTimeout
	}

	log := logger.New(name)
	log.Info("initialising…")

	return &Breaker{
		log:              log,
		failureThreshold: cfg.FailureThreshold,
		resetTimeout:     cfg.ResetTimeout,
		state:            StateClosed,
	}
}

// Execute - run fn under the breaker
//
// a rejection is always fault.CircuitBreakerOpen, distinguishable
// from any error produced by fn itself
func (b *Breaker) Execute(fn func() (interface{}, error)) (interface{}, error) {
	if err := b.admit(); nil != err {
		return nil, err
	}

	value, err := fn()
	b.settle(err)
	if nil != err {
		return nil, err
	}
	return value, nil
}

// State - current state, with the lazy open→half-open check applied
func (b *Breaker) State() State {
	b.Lock()
	defer b.Unlock()
	if StateOpen == b.state && time.Since(b.lastFailureTime) >= b.resetTimeout {
		return StateHalfOpen
	}
	return b.state
}

// FailureCount - consecutive failures seen while closed
func (b *Breaker) FailureCount() int {
	b.Lock()
	defer b.Unlock()
	return b.failureCount
}

// Reset - force the breaker back to closed and clear counters
func (b *Breaker) Reset() {
	b.Lock()
	defer b.Unlock()
	b.setState(StateClosed)
	b.failureCount = 0
	b.probing = false
	b.lastFailureTime = time.Time{}
}

// decide whether the next call may proceed
func (b *Breaker) admit() error {
	b.Lock()
	defer b.Unlock()

	switch b.state {

	case StateClosed:
		return nil

	case StateOpen:
		if time.Since(b.lastFailureTime) < b.resetTimeout {
			return fault.CircuitBreakerOpen
		}
		// timeout elapsed: this call becomes the probe
		b.setState(StateHalfOpen)
		b.probing = true
		return nil

	case StateHalfOpen:
		if b.probing {
			// a probe is already in flight
			return fault.CircuitBreakerOpen
		}
		b.probing = true
		return nil
	}

	return nil
}

// record the outcome of an admitted call
func (b *Breaker) settle(err error) {
	b.Lock()
	defer b.Unlock()

	if nil == err {
		if StateHalfOpen == b.state {
			b.log.Info("probe succeeded")
		}
		b.setState(StateClosed)
		b.failureCount = 0
		b.probing = false
		return
	}

	b.lastFailureTime = time.Now()

	switch b.state {

	case StateHalfOpen:
		b.log.Warn("probe failed")
		b.probing = false
		b.setState(StateOpen)

	case StateClosed:
		b.failureCount += 1
		if b.failureCount >= b.failureThreshold {
			b.log.Warnf("tripped after %d consecutive failures", b.failureCount)
			b.setState(StateOpen)
		}
	}
}

// caller must hold the lock
func (b *Breaker) setState(next State) {
	if next == b.state {
		return
	}
	b.log.Infof("state change: %s -> %s", b.state, next)
	b.state = next
}
