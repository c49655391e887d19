package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Client Status Codes
// --------------------------------------------------------------------------

// Code is the status a bookie client reports to its callers. Every operation
// completes with exactly one Code, errors never cross the client api.
type Code int

const (
	OK Code = iota
	NodeUnavailable
	ProtocolVersionMismatch
	LedgerFenced
	UnauthorizedAccess
	WriteOnReadOnlyNode
	WriteFailure
	ReadFailure
	NoSuchEntry
)

var codeNames = map[Code]string{
	OK:                      "OK",
	NodeUnavailable:         "NodeUnavailable",
	ProtocolVersionMismatch: "ProtocolVersionMismatch",
	LedgerFenced:            "LedgerFenced",
	UnauthorizedAccess:      "UnauthorizedAccess",
	WriteOnReadOnlyNode:     "WriteOnReadOnlyNode",
	WriteFailure:            "WriteFailure",
	ReadFailure:             "ReadFailure",
	NoSuchEntry:             "NoSuchEntry",
}

// String returns the string representation of a Code.
func (c Code) String() string {
	if name, ok := codeNames[c]; ok {
		return name
	}
	return fmt.Sprintf("Code(%d)", int(c))
}

// MarshalJSON implements the json.Marshaller interface for Code.
func (c Code) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// Err converts the code into an error, OK yields nil
func (c Code) Err() error {
	if c == OK {
		return nil
	}
	return &CodeError{Code: c}
}

// CodeError carries a non OK Code as an error value.
// Two CodeErrors match with errors.Is when their codes are equal.
type CodeError struct {
	Code Code
}

func (e *CodeError) Error() string {
	return "bookie client: " + e.Code.String()
}

func (e *CodeError) Is(target error) bool {
	t, ok := target.(*CodeError)
	return ok && t.Code == e.Code
}

// --------------------------------------------------------------------------
// Wire -> Client mapping
// --------------------------------------------------------------------------

// AddStatusToCode maps the status of an add response to a client code
func AddStatusToCode(status Status) Code {
	switch status {
	case EOK:
		return OK
	case EBADVERSION:
		return ProtocolVersionMismatch
	case EFENCED:
		return LedgerFenced
	case EUA:
		return UnauthorizedAccess
	case EREADONLY:
		return WriteOnReadOnlyNode
	default:
		return WriteFailure
	}
}

// ReadStatusToCode maps the status of a read response to a client code
func ReadStatusToCode(status Status) Code {
	switch status {
	case EOK:
		return OK
	case ENOENTRY, ENOLEDGER:
		return NoSuchEntry
	case EBADVERSION:
		return ProtocolVersionMismatch
	case EUA:
		return UnauthorizedAccess
	default:
		return ReadFailure
	}
}
