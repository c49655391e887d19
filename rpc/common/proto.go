package common

import (
	"encoding/json"
	"fmt"
)

// --------------------------------------------------------------------------
// Protocol Constants
// --------------------------------------------------------------------------

const (
	// CurrentProtocolVersion is the bookie protocol version spoken by this client
	CurrentProtocolVersion byte = 2
	// LowestCompatibleProtocolVersion is the oldest version a bookie accepts
	LowestCompatibleProtocolVersion byte = 0

	// MasterKeyLength is the length of a ledger master key (SHA-1 digest)
	MasterKeyLength = 20

	// LastAddConfirmed is the entry id used by recovery reads that ask for the
	// latest entry of a ledger; the response carries the real entry id
	LastAddConfirmed int64 = -1

	// MaxFrameSize is the default maximum size of a single frame (2 MiB)
	MaxFrameSize = 2 * 1024 * 1024
)

// --------------------------------------------------------------------------
// Op Codes
// --------------------------------------------------------------------------

// OpCode identifies the operation of a request or response
type OpCode uint8

const (
	OpUnknown   OpCode = 0
	OpAddEntry  OpCode = 1
	OpReadEntry OpCode = 2
)

// String returns the string representation of an OpCode.
func (o OpCode) String() string {
	switch o {
	case OpAddEntry:
		return "addEntry"
	case OpReadEntry:
		return "readEntry"
	default:
		return "unknown"
	}
}

// MarshalJSON implements the json.Marshaller interface for OpCode.
func (o OpCode) MarshalJSON() ([]byte, error) {
	return json.Marshal(o.String())
}

// UnmarshalJSON implements the json.Unmarshaler interface for OpCode.
func (o *OpCode) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}

	switch s {
	case "addEntry":
		*o = OpAddEntry
	case "readEntry":
		*o = OpReadEntry
	default:
		return fmt.Errorf("unknown op code: %s", s)
	}
	return nil
}

// --------------------------------------------------------------------------
// Request Flags
// --------------------------------------------------------------------------

// Flag modifies how a bookie handles a request
type Flag uint16

const (
	FlagNone Flag = 0
	// FlagDoFencing fences the ledger as part of a read
	FlagDoFencing Flag = 1 << 0
	// FlagRecoveryAdd allows an add to a fenced ledger (ledger recovery)
	FlagRecoveryAdd Flag = 1 << 1
)

// Has reports whether all bits of other are set
func (f Flag) Has(other Flag) bool {
	return f&other == other
}

// --------------------------------------------------------------------------
// Wire Status Codes (as reported by a bookie)
// --------------------------------------------------------------------------

// Status is the error code a bookie puts into a response
type Status int32

const (
	EOK         Status = 0
	ENOLEDGER   Status = 1 // the ledger is unknown to the bookie
	ENOENTRY    Status = 2 // the entry is unknown to the bookie
	EBADREQ     Status = 100
	EIO         Status = 101
	EUA         Status = 102 // unauthorized access, wrong master key
	EBADVERSION Status = 103
	EFENCED     Status = 104
	EREADONLY   Status = 105
)

// String returns the string representation of a Status.
func (s Status) String() string {
	switch s {
	case EOK:
		return "EOK"
	case ENOLEDGER:
		return "ENOLEDGER"
	case ENOENTRY:
		return "ENOENTRY"
	case EBADREQ:
		return "EBADREQ"
	case EIO:
		return "EIO"
	case EUA:
		return "EUA"
	case EBADVERSION:
		return "EBADVERSION"
	case EFENCED:
		return "EFENCED"
	case EREADONLY:
		return "EREADONLY"
	default:
		return fmt.Sprintf("E(%d)", int32(s))
	}
}

// --------------------------------------------------------------------------
// Requests
// --------------------------------------------------------------------------

// Request is implemented by all requests a client can send to a bookie
type Request interface {
	GetOpCode() OpCode
	GetLedgerID() int64
	GetEntryID() int64
	GetFlags() Flag
}

// AddRequest asks a bookie to store one entry
type AddRequest struct {
	ProtocolVersion byte   `json:"version"`
	LedgerID        int64  `json:"ledgerId"`
	EntryID         int64  `json:"entryId"`
	Flags           Flag   `json:"flags"`
	MasterKey       []byte `json:"masterKey"`
	Data            []byte `json:"data"`
}

// NewAddRequest creates a new add request with the current protocol version
func NewAddRequest(ledgerID, entryID int64, flags Flag, masterKey, data []byte) *AddRequest {
	return &AddRequest{
		ProtocolVersion: CurrentProtocolVersion,
		LedgerID:        ledgerID,
		EntryID:         entryID,
		Flags:           flags,
		MasterKey:       masterKey,
		Data:            data,
	}
}

func (r *AddRequest) GetOpCode() OpCode  { return OpAddEntry }
func (r *AddRequest) GetLedgerID() int64 { return r.LedgerID }
func (r *AddRequest) GetEntryID() int64  { return r.EntryID }
func (r *AddRequest) GetFlags() Flag     { return r.Flags }

// IsRecoveryAdd reports whether the add is allowed on a fenced ledger
func (r *AddRequest) IsRecoveryAdd() bool { return r.Flags.Has(FlagRecoveryAdd) }

func (r *AddRequest) String() string {
	return fmt.Sprintf("AddRequest(lid=%d, eid=%d, flags=%d, len=%d)", r.LedgerID, r.EntryID, r.Flags, len(r.Data))
}

// ReadRequest asks a bookie for one entry, optionally fencing the ledger
type ReadRequest struct {
	ProtocolVersion byte   `json:"version"`
	LedgerID        int64  `json:"ledgerId"`
	EntryID         int64  `json:"entryId"`
	Flags           Flag   `json:"flags"`
	MasterKey       []byte `json:"masterKey,omitempty"` // only sent with FlagDoFencing
}

// NewReadRequest creates a new plain read request
func NewReadRequest(ledgerID, entryID int64) *ReadRequest {
	return &ReadRequest{
		ProtocolVersion: CurrentProtocolVersion,
		LedgerID:        ledgerID,
		EntryID:         entryID,
		Flags:           FlagNone,
	}
}

// NewFencingReadRequest creates a read request that also fences the ledger
func NewFencingReadRequest(ledgerID, entryID int64, masterKey []byte) *ReadRequest {
	return &ReadRequest{
		ProtocolVersion: CurrentProtocolVersion,
		LedgerID:        ledgerID,
		EntryID:         entryID,
		Flags:           FlagDoFencing,
		MasterKey:       masterKey,
	}
}

func (r *ReadRequest) GetOpCode() OpCode  { return OpReadEntry }
func (r *ReadRequest) GetLedgerID() int64 { return r.LedgerID }
func (r *ReadRequest) GetEntryID() int64  { return r.EntryID }
func (r *ReadRequest) GetFlags() Flag     { return r.Flags }

// IsFencing reports whether the read fences the ledger
func (r *ReadRequest) IsFencing() bool { return r.Flags.Has(FlagDoFencing) }

func (r *ReadRequest) String() string {
	return fmt.Sprintf("ReadRequest(lid=%d, eid=%d, flags=%d)", r.LedgerID, r.EntryID, r.Flags)
}

// --------------------------------------------------------------------------
// Responses
// --------------------------------------------------------------------------

// Response is the answer of a bookie to an add or read request.
// Data is only set for successful read responses.
type Response struct {
	ProtocolVersion byte   `json:"version"`
	OpCode          OpCode `json:"opCode"`
	Status          Status `json:"status"`
	LedgerID        int64  `json:"ledgerId"`
	EntryID         int64  `json:"entryId"`
	Data            []byte `json:"data,omitempty"`
}

// NewAddResponse creates a new add response
func NewAddResponse(status Status, ledgerID, entryID int64) *Response {
	return &Response{
		ProtocolVersion: CurrentProtocolVersion,
		OpCode:          OpAddEntry,
		Status:          status,
		LedgerID:        ledgerID,
		EntryID:         entryID,
	}
}

// NewReadResponse creates a new read response, data is dropped unless status is EOK
func NewReadResponse(status Status, ledgerID, entryID int64, data []byte) *Response {
	resp := &Response{
		ProtocolVersion: CurrentProtocolVersion,
		OpCode:          OpReadEntry,
		Status:          status,
		LedgerID:        ledgerID,
		EntryID:         entryID,
	}
	if status == EOK {
		resp.Data = data
	}
	return resp
}

func (r *Response) String() string {
	return fmt.Sprintf("Response(op=%s, status=%s, lid=%d, eid=%d, len=%d)",
		r.OpCode, r.Status, r.LedgerID, r.EntryID, len(r.Data))
}
