package serializer

import (
	"fmt"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// IRPCSerializer is the codec between typed bookie messages and frame payloads.
// Implementations are stateless and safe for concurrent use.
type IRPCSerializer interface {
	// EncodeRequest encodes an add or read request.
	// A master key that is required but not MasterKeyLength bytes long
	// yields an error wrapping common.ErrBadMasterKey
	EncodeRequest(req common.Request) ([]byte, error)
	// DecodeRequest decodes a request payload (used by the bookie side)
	DecodeRequest(b []byte) (common.Request, error)
	// EncodeResponse encodes a response (used by the bookie side)
	EncodeResponse(resp *common.Response) ([]byte, error)
	// DecodeResponse decodes a response payload
	DecodeResponse(b []byte) (*common.Response, error)
	// GetName returns the name of the serializer
	GetName() string
}

// validateRequest checks the fields both codecs require before encoding
func validateRequest(req common.Request) error {
	switch r := req.(type) {
	case *common.AddRequest:
		if len(r.MasterKey) != common.MasterKeyLength {
			return fmt.Errorf("add request for ledger %d: %w", r.LedgerID, common.ErrBadMasterKey)
		}
	case *common.ReadRequest:
		if r.IsFencing() && len(r.MasterKey) != common.MasterKeyLength {
			return fmt.Errorf("fencing read for ledger %d: %w", r.LedgerID, common.ErrBadMasterKey)
		}
	case nil:
		return fmt.Errorf("nil request")
	default:
		return fmt.Errorf("unsupported request type %T", req)
	}
	return nil
}

// corrupted wraps a decode failure with common.ErrCorruptedFrame
func corrupted(format string, args ...any) error {
	return fmt.Errorf("%w: %s", common.ErrCorruptedFrame, fmt.Sprintf(format, args...))
}
