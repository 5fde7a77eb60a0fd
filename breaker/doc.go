// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package breaker - circuit breaker for a persistently failing relayer
//
// state machine:
//
//	closed    → open       threshold of consecutive failures reached
//	open      → half-open  reset timeout elapsed, checked lazily on call
//	half-open → closed     probe call succeeded
//	half-open → open       probe call failed
//
// while open every call is rejected with fault.CircuitBreakerOpen
// before the wrapped operation starts; only one probe is admitted in
// half-open
package breaker
