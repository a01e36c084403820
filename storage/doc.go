// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package storage - concurrent batched key-value store
//
// A Store wraps one storage engine (see the backend package) with:
//
//	lifecycle  - created CLOSED by New, Open/Close are idempotent
//	batch      - PutToBatch/DeleteInBatch stage changes that only
//	             become visible when Commit applies all of them as one
//	             atomic write; a failed Commit keeps the batch
//	bulk       - PutBatch/DeleteBatch/Put/Delete write immediately
//	             and atomically, bypassing the batch
//	locking    - when enabled, read operations share a lock and
//	             mutating operations hold it exclusively, so a reader
//	             sees either the state before or after a mutation
//
// Operation classes:
//
//	read:      Get Has Keys IsEmpty ApproximateSize BatchSize
//	mutating:  Open Close PutToBatch DeleteInBatch Commit PutBatch
//	           DeleteBatch Put Delete Drop Compact
//
// Without locking the caller must serialise access; Close then
// refuses to run while other operations are in flight.
//
// Keys and values are copied on the way in and on the way out.
//
// A non-zero CompactInterval compacts an OPEN store periodically in
// the background.
//
// The logger must be initialised before New is called.
package storage
