// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package cache

import (
	"time"
)

// periodic expiry sweep, run under background
type sweeper struct {
	cache    *Cache
	interval time.Duration
}

func (s *sweeper) Run(args interface{}, shutdown <-chan struct{}) {
	log := s.cache.log
	log.Info("sweeper starting…")

	ticker := time.NewTicker(s.interval)
	for {
		select {
		case <-ticker.C:
			s.cache.Cleanup()
		case <-shutdown:
			ticker.Stop()
			return
		}
	}
}
