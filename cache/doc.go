// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package cache - memory store for expensive relayer artifacts
//
//	key                     value                    expiry
//	handle:<ct>             re-encrypted value       per entry or default
//	user:<addr>:balance     decrypted balance        per entry or default
//	contract:<addr>:data    public decryption        never, unless set
//
// entries expire by TTL (checked lazily on read, proactively by the
// background sweeper) and by capacity (oldest-inserted entry evicted
// first); statistics track hits and misses for the life of the
// current window
package cache
