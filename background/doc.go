// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package background - run long-lived goroutines with a common
// shutdown channel
//
// components use this for their maintenance loops (cache expiry
// sweeps, queue dispatching) so that teardown can never leak a
// goroutine or a timer closure over stale state
package background
