// SPDX-License-Identifier: ISC
// Copyright (c) 2014-2020 Bitmark Inc.
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

// Package govfault provides a single instance of errors to allow easy
// comparison, grounded on the teacher's fault package.
package govfault

// error base
type GenericError string

// to allow for different classes of errors
type ExistsError GenericError
type InvalidError GenericError
type NotFoundError GenericError
type ProcessError GenericError

// common errors - keep in alphabetic order
var (
	ErrAlreadyInitialised   = ProcessError("governance manager already initialised")
	ErrConfigDirPath        = InvalidError("config is not a folder")
	ErrInvalidCollateral    = InvalidError("collateral transaction is invalid")
	ErrInvalidIPAddress     = InvalidError("invalid IP address")
	ErrInvalidIdentity      = InvalidError("identity string is invalid")
	ErrInvalidKeyFile       = InvalidError("invalid key file")
	ErrInvalidLoggerChannel = InvalidError("invalid logger channel")
	ErrInvalidPayload       = InvalidError("object payload is malformed")
	ErrInvalidPortNumber    = InvalidError("invalid port number")
	ErrInvalidSignature     = InvalidError("invalid signature")
	ErrKeyFileAlreadyExists = ExistsError("key file already exists")
	ErrNotInitialised       = ProcessError("governance manager not initialised")
	ErrObjectExists         = ExistsError("object already present")
	ErrObjectNotFound       = NotFoundError("object not found")
	ErrRequiredEndpoint     = InvalidError("content store endpoint is required")
	ErrSnapshotCorrupt      = InvalidError("snapshot is corrupt")
	ErrSnapshotVersion      = InvalidError("snapshot version is unsupported")
	ErrUnknownBlock         = NotFoundError("block not found")
	ErrUnknownTransaction   = NotFoundError("transaction not found")
)

// the error interface base method
func (e GenericError) Error() string { return string(e) }

// the error interface methods
func (e ExistsError) Error() string   { return string(e) }
func (e InvalidError) Error() string  { return string(e) }
func (e NotFoundError) Error() string { return string(e) }
func (e ProcessError) Error() string  { return string(e) }

// determine the class of an error
func IsErrExists(e error) bool   { _, ok := e.(ExistsError); return ok }
func IsErrInvalid(e error) bool  { _, ok := e.(InvalidError); return ok }
func IsErrNotFound(e error) bool { _, ok := e.(NotFoundError); return ok }
func IsErrProcess(e error) bool  { _, ok := e.(ProcessError); return ok }
