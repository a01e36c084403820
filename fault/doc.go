// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package fault - error instances
//
// Provides a single instance of errors to allow easy comparison
// without having to resort to partial string matches.
//
// Classes:
//	ConfigurationError - bad or missing store configuration
//	ExistsError        - already initialised or already open
//	InvalidError       - bad argument such as a nil key
//	LifecycleError     - operation on a store that is not open
//	LockError          - the store lock can no longer be trusted
//	BackendError       - the storage engine failed (wraps the engine error)
package fault
