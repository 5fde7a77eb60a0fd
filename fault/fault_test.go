// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault_test

import (
	"testing"

	"github.com/MixasV/fhevm-sdk-go/fault"
)

var (
	errBusyOne     = fault.BusyError("busy one")
	errCanceledOne = fault.CanceledError("canceled one")
	errExistsOne   = fault.ExistsError("exists one")
	errInvalidOne  = fault.InvalidError("invalid one")
	errNotFoundOne = fault.NotFoundError("not found one")
	errProcessOne  = fault.ProcessError("process one")
	errTimeoutOne  = fault.TimeoutError("timeout one")
)

// test that errors of each class are only detected by their own predicate
func TestClasses(t *testing.T) {

	errorList := []struct {
		err      error
		busy     bool
		canceled bool
		exists   bool
		invalid  bool
		notFound bool
		process  bool
		timeout  bool
	}{
		{errBusyOne, true, false, false, false, false, false, false},
		{errCanceledOne, false, true, false, false, false, false, false},
		{errExistsOne, false, false, true, false, false, false, false},
		{errInvalidOne, false, false, false, true, false, false, false},
		{errNotFoundOne, false, false, false, false, true, false, false},
		{errProcessOne, false, false, false, false, false, true, false},
		{errTimeoutOne, false, false, false, false, false, false, true},
		{fault.CircuitBreakerOpen, true, false, false, false, false, false, false},
		{fault.TransactionCancelled, false, true, false, false, false, false, false},
		{fault.BatchLengthMismatch, false, false, false, false, false, true, false},
		{fault.OperationTimedOut, false, false, false, false, false, false, true},
	}

	for i, item := range errorList {
		if fault.IsErrBusy(item.err) != item.busy {
			t.Errorf("%d: IsErrBusy(%q) expected: %v", i, item.err, item.busy)
		}
		if fault.IsErrCanceled(item.err) != item.canceled {
			t.Errorf("%d: IsErrCanceled(%q) expected: %v", i, item.err, item.canceled)
		}
		if fault.IsErrExists(item.err) != item.exists {
			t.Errorf("%d: IsErrExists(%q) expected: %v", i, item.err, item.exists)
		}
		if fault.IsErrInvalid(item.err) != item.invalid {
			t.Errorf("%d: IsErrInvalid(%q) expected: %v", i, item.err, item.invalid)
		}
		if fault.IsErrNotFound(item.err) != item.notFound {
			t.Errorf("%d: IsErrNotFound(%q) expected: %v", i, item.err, item.notFound)
		}
		if fault.IsErrProcess(item.err) != item.process {
			t.Errorf("%d: IsErrProcess(%q) expected: %v", i, item.err, item.process)
		}
		if fault.IsErrTimeout(item.err) != item.timeout {
			t.Errorf("%d: IsErrTimeout(%q) expected: %v", i, item.err, item.timeout)
		}
	}
}

// test that constants compare by identity
func TestIdentity(t *testing.T) {
	var err error = fault.CircuitBreakerOpen
	if err != fault.CircuitBreakerOpen {
		t.Errorf("identity comparison failed for: %q", err)
	}
	if err == error(fault.BusyError("circuit breaker is open ")) {
		t.Errorf("unexpected equality for different message")
	}
	if "circuit breaker is open" != err.Error() {
		t.Errorf("message mismatch: %q", err.Error())
	}
}
