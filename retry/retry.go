// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package retry

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"net"
	"strings"
	"time"

	"github.com/MixasV/fhevm-sdk-go/fault"
)

// defaults for zero-valued Config fields
const (
	DefaultMaxAttempts       = 3
	DefaultInitialDelay      = 1 * time.Second
	DefaultMaxDelay          = 30 * time.Second
	DefaultBackoffMultiplier = 2.0

	jitterFraction = 0.1 // ±10%
)

// Operation - a single fallible call against the relayer
type Operation func() (interface{}, error)

// Config - retry policy
//
// zero values select the defaults above; ShouldRetry defaults to
// Transient; OnRetry is optional
type Config struct {
	MaxAttempts       int
	InitialDelay      time.Duration
	MaxDelay          time.Duration
	BackoffMultiplier float64
	Jitter            bool
	ShouldRetry       func(err error) bool
	OnRetry           func(err error, attempt int, delay time.Duration)
}

// ExhaustedError - all attempts failed
//
// wraps the error from the final attempt
type ExhaustedError struct {
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry: %d attempts exhausted: %s", e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error {
	return e.Last
}

// error signatures the relayer is known to return transiently
var transientSignatures = []string{
	"timeout",
	"timed out",
	"connection reset",
	"connection refused",
	"broken pipe",
	"temporarily unavailable",
	"too many requests",
	"service unavailable",
	"network is unreachable",
	"unexpected eof",
}

// Transient - the default retryability predicate
//
// true for timeout-class errors and for messages matching the known
// transient signatures; a nil error is never retryable
func Transient(err error) bool {
	if nil == err {
		return false
	}
	if fault.IsErrTimeout(err) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	message := strings.ToLower(err.Error())
	for _, signature := range transientSignatures {
		if strings.Contains(message, signature) {
			return true
		}
	}
	return false
}

// Do - run fn up to cfg.MaxAttempts times
//
// returns the value, the number of attempts actually made and the
// final error; a non-retryable error aborts immediately, exhaustion
// returns an ExhaustedError wrapping the last failure
func Do(fn Operation, cfg Config) (interface{}, int, error) {
	cfg = cfg.withDefaults()

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt += 1 {
		value, err := invoke(fn)
		if nil == err {
			return value, attempt, nil
		}
		lastErr = err

		if !cfg.ShouldRetry(err) {
			return nil, attempt, err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		delay := cfg.delayBeforeAttempt(attempt + 1)
		if nil != cfg.OnRetry {
			cfg.OnRetry(err, attempt, delay)
		}
		time.Sleep(delay)
	}

	return nil, cfg.MaxAttempts, &ExhaustedError{
		Attempts: cfg.MaxAttempts,
		Last:     lastErr,
	}
}

// DoWithTimeout - like Do, but each attempt is bounded by timeout
//
// an attempt that overruns fails with fault.OperationTimedOut, which
// the default predicate treats as retryable; the overrunning call is
// abandoned, not interrupted
func DoWithTimeout(fn Operation, timeout time.Duration, cfg Config) (interface{}, int, error) {
	return Do(func() (interface{}, error) {
		type outcome struct {
			value interface{}
			err   error
		}

		done := make(chan outcome, 1)
		go func() {
			value, err := invoke(fn)
			done <- outcome{value: value, err: err}
		}()

		timer := time.NewTimer(timeout)
		defer timer.Stop()

		select {
		case o := <-done:
			return o.value, o.err
		case <-timer.C:
			return nil, fault.OperationTimedOut
		}
	}, cfg)
}

// run one attempt, converting a panic in caller code to an error so
// that a bad operation is indistinguishable from a failed one
func invoke(fn Operation) (value interface{}, err error) {
	defer func() {
		if r := recover(); nil != r {
			value = nil
			err = fmt.Errorf("operation panic: %v", r)
		}
	}()
	return fn()
}

func (cfg Config) withDefaults() Config {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = DefaultInitialDelay
	}
	if cfg.MaxDelay <= 0 {
		cfg.MaxDelay = DefaultMaxDelay
	}
	if cfg.BackoffMultiplier <= 0 {
		cfg.BackoffMultiplier = DefaultBackoffMultiplier
	}
	if nil == cfg.ShouldRetry {
		cfg.ShouldRetry = Transient
	}
	return cfg
}

// delay before the given attempt number (attempt ≥ 2)
func (cfg Config) delayBeforeAttempt(attempt int) time.Duration {
	delay := float64(cfg.InitialDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-2))
	if delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	if cfg.Jitter {
		delay += delay * jitterFraction * (2*rand.Float64() - 1)
	}
	return time.Duration(delay)
}
