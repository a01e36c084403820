// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package fault

import (
	"errors"
	"fmt"
)

// BackendError - the storage engine failed an operation
//
// the original engine error is kept so callers can inspect it with
// errors.Is / errors.As
type BackendError struct {
	Operation string
	Err       error
}

// NewBackendError - wrap an engine error, nil stays nil
func NewBackendError(operation string, err error) error {
	if nil == err {
		return nil
	}
	var be *BackendError
	if errors.As(err, &be) {
		return err
	}
	return &BackendError{
		Operation: operation,
		Err:       err,
	}
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("backend %s failed: %s", e.Operation, e.Err)
}

func (e *BackendError) Unwrap() error { return e.Err }

// IsErrBackend - true if the error came from the storage engine
func IsErrBackend(e error) bool {
	var be *BackendError
	return errors.As(e, &be)
}
