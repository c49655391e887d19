package store

import (
	"fmt"
)

// --------------------------------------------------------------------------
// Interface Definition
// --------------------------------------------------------------------------

// ILedgerStore is the storage behind a bookie. Ledgers are created by their
// first add, which also binds the master key of the ledger.
// All methods return a *Error on failure.
type ILedgerStore interface {
	// AddEntry stores an entry. Adds to a fenced ledger fail unless recovery is set.
	// Writing an existing entry again overwrites it.
	AddEntry(ledgerID, entryID int64, masterKey, data []byte, recovery bool) (err error)
	// ReadEntry returns an entry. For entryID LastAddConfirmed the entry with the
	// highest id is returned, the returned id is always the real entry id.
	ReadEntry(ledgerID, entryID int64) (actualID int64, data []byte, err error)
	// Fence marks a ledger as fenced, later adds without recovery fail.
	// Fencing an already fenced ledger is not an error.
	Fence(ledgerID int64, masterKey []byte) (err error)
	// GetInfo returns metadata about the stored ledgers.
	// It is not guaranteed that the information is up-to-date!
	GetInfo() (info Info)
}

// Info describes the content of a ledger store
type Info struct {
	Ledgers int   `json:"ledgers"`
	Entries int64 `json:"entries"`
	Bytes   int64 `json:"bytes"`
	Fenced  int   `json:"fenced"`
}

// --------------------------------------------------------------------------
// Custom Error Type
// --------------------------------------------------------------------------

// Error is a custom error type that wraps a return code (of type RetCode)
// and an error message.
type Error struct {
	Code RetCode // The return code
	Msg  string  // The error message.
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("LedgerStoreError (code %s): %s", e.Code, e.Msg)
}

// Is matches any *Error with the same code
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// NewError creates a new ledger store error with the given code and message.
func NewError(code RetCode, msg string) *Error {
	return &Error{
		Code: code,
		Msg:  msg,
	}
}

// --------------------------------------------------------------------------
// Return Codes
// --------------------------------------------------------------------------

type RetCode uint64

const (
	RetCSuccess       RetCode = iota // 0: Command executed successfully.
	RetCInternalError                // 1: Command failed due to an internal error.
	RetCNoLedger                     // 2: The ledger does not exist.
	RetCNoEntry                      // 3: The entry does not exist.
	RetCFenced                       // 4: The ledger is fenced.
	RetCUnauthorized                 // 5: The master key does not match.
)

func (c RetCode) String() string {
	switch c {
	case RetCSuccess:
		return "Success"
	case RetCInternalError:
		return "InternalError"
	case RetCNoLedger:
		return "NoLedger"
	case RetCNoEntry:
		return "NoEntry"
	case RetCFenced:
		return "Fenced"
	case RetCUnauthorized:
		return "Unauthorized"
	default:
		return "Unknown"
	}
}

// Sentinels for errors.Is checks
var (
	ErrNoLedger     = NewError(RetCNoLedger, "no such ledger")
	ErrNoEntry      = NewError(RetCNoEntry, "no such entry")
	ErrFenced       = NewError(RetCFenced, "ledger is fenced")
	ErrUnauthorized = NewError(RetCUnauthorized, "master key mismatch")
)
