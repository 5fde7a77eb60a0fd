// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package retry - bounded retry with exponential backoff
//
// wraps a single fallible relayer call; delay before attempt n+1 is
// min(InitialDelay·Multiplier^(n-1), MaxDelay), optionally jittered
// by ±10%
//
// a ShouldRetry predicate decides whether a failure is worth
// retrying; anything it declines aborts immediately without waiting
package retry
