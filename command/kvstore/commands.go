// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/bitmark-inc/kvstore/storage"
)

// default number of keys shown by list
const defaultListCount = 100

var (
	errMissingArguments = errors.New("missing arguments")
	errUnknownCommand   = errors.New("unknown command")
	errKeyNotFound      = errors.New("key not found")
	errInvalidPair      = errors.New("expected key=value")
)

func printUsage(w io.Writer, program string) {
	fmt.Fprintf(w, "usage: %s [--help] [--verbose] [--hex] --config-file=FILE command [arguments...]\n", program)
	fmt.Fprintf(w, "commands:\n")
	fmt.Fprintf(w, "  get KEY               print the value of KEY\n")
	fmt.Fprintf(w, "  put KEY VALUE         write a single value\n")
	fmt.Fprintf(w, "  delete KEY...         delete keys\n")
	fmt.Fprintf(w, "  load KEY=VALUE...     stage all pairs then commit them together\n")
	fmt.Fprintf(w, "  list [COUNT]          print up to COUNT keys (default %d)\n", defaultListCount)
	fmt.Fprintf(w, "  count                 print the number of entries\n")
	fmt.Fprintf(w, "  compact               compact the storage engine\n")
	fmt.Fprintf(w, "  drop                  delete every entry\n")
}

// run one command on an OPEN store
//
// keys and values are plain strings unless hexMode is set
func runCommand(w io.Writer, store *storage.Store, hexMode bool, arguments []string) error {
	if 0 == len(arguments) {
		return errMissingArguments
	}

	command := arguments[0]
	arguments = arguments[1:]

	decode := func(s string) ([]byte, error) {
		if hexMode {
			return hex.DecodeString(s)
		}
		return []byte(s), nil
	}
	encode := func(b []byte) string {
		if hexMode {
			return hex.EncodeToString(b)
		}
		return string(b)
	}

	switch command {
	case "get":
		if 1 != len(arguments) {
			return errMissingArguments
		}
		key, err := decode(arguments[0])
		if nil != err {
			return err
		}
		value, found, err := store.Get(key)
		if nil != err {
			return err
		}
		if !found {
			return errKeyNotFound
		}
		fmt.Fprintln(w, encode(value))

	case "put":
		if 2 != len(arguments) {
			return errMissingArguments
		}
		key, err := decode(arguments[0])
		if nil != err {
			return err
		}
		value, err := decode(arguments[1])
		if nil != err {
			return err
		}
		return store.Put(key, value)

	case "delete":
		if 0 == len(arguments) {
			return errMissingArguments
		}
		keys := make([][]byte, 0, len(arguments))
		for _, a := range arguments {
			key, err := decode(a)
			if nil != err {
				return err
			}
			keys = append(keys, key)
		}
		return store.DeleteBatch(keys)

	case "load":
		if 0 == len(arguments) {
			return errMissingArguments
		}
		for _, a := range arguments {
			k, v, ok := strings.Cut(a, "=")
			if !ok {
				return fmt.Errorf("%q: %w", a, errInvalidPair)
			}
			key, err := decode(k)
			if nil != err {
				return err
			}
			value, err := decode(v)
			if nil != err {
				return err
			}
			if err := store.PutToBatch(key, value); nil != err {
				return err
			}
		}
		n, err := store.BatchSize()
		if nil != err {
			return err
		}
		if err := store.Commit(); nil != err {
			return err
		}
		fmt.Fprintf(w, "committed: %d\n", n)

	case "list":
		count := defaultListCount
		if len(arguments) > 0 {
			n, err := strconv.Atoi(arguments[0])
			if nil != err {
				return err
			}
			count = n
		}
		cursor, err := store.Keys()
		if nil != err {
			return err
		}
		defer cursor.Release()

		keys, err := cursor.Fetch(count)
		if nil != err {
			return err
		}
		for _, key := range keys {
			fmt.Fprintln(w, encode(key))
		}

	case "count":
		n, err := store.ApproximateSize()
		if nil != err {
			return err
		}
		fmt.Fprintf(w, "%d\n", n)

	case "compact":
		return store.Compact()

	case "drop":
		return store.Drop()

	default:
		return fmt.Errorf("%q: %w", command, errUnknownCommand)
	}

	return nil
}
