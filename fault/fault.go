// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
)

// error base
type GenericError string

// to allow for different classes of errors
type ConfigurationError GenericError
type ExistsError GenericError
type InvalidError GenericError
type LifecycleError GenericError
type LockError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised   = ExistsError("already initialised")
	ErrAlreadyOpen          = ExistsError("store location is already open")
	ErrInvalidCount         = InvalidError("invalid count")
	ErrInvalidCursor        = InvalidError("invalid cursor")
	ErrInvalidDataDirectory = ConfigurationError("invalid data directory")
	ErrInvalidLoggerChannel = InvalidError("invalid logger channel")
	ErrInvalidName          = ConfigurationError("store name must be a plain file name")
	ErrInvalidSize          = ConfigurationError("size hint must not be negative")
	ErrInvalidStructPointer = ConfigurationError("invalid struct pointer")
	ErrLockPoisoned         = LockError("store lock poisoned by an earlier failure: close and reopen")
	ErrMissingBackend       = ConfigurationError("backend is required")
	ErrMissingConfiguration = ConfigurationError("configuration is required")
	ErrMissingDirectory     = ConfigurationError("directory is required for a persistent backend")
	ErrMissingName          = ConfigurationError("store name is required")
	ErrNilKey               = InvalidError("key must not be nil")
	ErrNotOpen              = LifecycleError("store is not open")
	ErrStoreBusy            = LockError("store has operations in flight")
	ErrUnknownBackend       = ConfigurationError("backend is not recognised")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ConfigurationError) Error() string { return string(e) }
func (e ExistsError) Error() string        { return string(e) }
func (e InvalidError) Error() string       { return string(e) }
func (e LifecycleError) Error() string     { return string(e) }
func (e LockError) Error() string          { return string(e) }

// determine the class of an error
func IsErrConfiguration(e error) bool { var c ConfigurationError; return errors.As(e, &c) }
func IsErrExists(e error) bool        { var c ExistsError; return errors.As(e, &c) }
func IsErrInvalid(e error) bool       { var c InvalidError; return errors.As(e, &c) }
func IsErrLifecycle(e error) bool     { var c LifecycleError; return errors.As(e, &c) }
func IsErrLock(e error) bool          { var c LockError; return errors.As(e, &c) }
