// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package batcher - coalesce many small relayer requests into fewer
// backend calls
//
// requests accumulate until either MaxBatchSize is reached or
// MaxWaitTime has elapsed since the oldest request; each caller still
// receives its own result or error
//
// processing is serialized: a new batch never starts while one is in
// flight; requests queued meanwhile are dispatched when it settles
//
// the processor never retries on the caller's behalf; compose with
// package retry inside the processor when retries are wanted
package batcher
