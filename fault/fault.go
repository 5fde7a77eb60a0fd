// SPDX-License-Identifier: ISC
// Copyright (c) 2019-2024 MixasV
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

// GenericError - the error base
type GenericError string

// to allow for different classes of errors
type (
	BusyError     GenericError
	CanceledError GenericError
	ExistsError   GenericError
	InvalidError  GenericError
	NotFoundError GenericError
	ProcessError  GenericError
	TimeoutError  GenericError
)

// common errors - keep in alphabetic order
var (
	BatcherCleared        = CanceledError("batcher cleared")
	BatcherStopped        = CanceledError("batcher stopped")
	BatchLengthMismatch   = ProcessError("batch result length mismatch")
	CircuitBreakerOpen    = BusyError("circuit breaker is open")
	DuplicateTransaction  = ExistsError("duplicate transaction id")
	InvalidBatchProcessor = InvalidError("batch processor is missing")
	InvalidOperation      = InvalidError("transaction operation is missing")
	InvalidTransactionID  = InvalidError("transaction id is missing")
	OperationTimedOut     = TimeoutError("operation timed out")
	QueueStopped          = CanceledError("transaction queue stopped")
	TransactionCancelled  = CanceledError("transaction cancelled")
	TransactionNotFound   = NotFoundError("transaction not found")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e BusyError) Error() string     { return string(e) }
func (e CanceledError) Error() string { return string(e) }
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }
func (e TimeoutError) Error() string  { return string(e) }

// determine the class of an error
func IsErrBusy(e error) bool     { _, ok := e.(BusyError); return ok }
func IsErrCanceled(e error) bool { _, ok := e.(CanceledError); return ok }
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
func IsErrTimeout(e error) bool  { _, ok := e.(TimeoutError); return ok }
