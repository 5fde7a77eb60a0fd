// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package queue - priority transaction queue for the relayer
//
// accepts transactions from arbitrarily many callers and executes
// them against the capacity-constrained relayer: at most
// MaxConcurrent in flight, at least RateLimit between successive
// dispatches, each item retried individually with exponential backoff
//
// one item's failure never blocks or fails another; every accepted
// item settles with exactly one Result carrying attempts and
// execution time
//
// priority is a plain integer with no aging: a steady flood of
// high-priority items can starve low-priority ones indefinitely
package queue
