package serializer

import (
	"encoding/binary"
	"fmt"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// NewBinarySerializer creates a new serializer using the bookie binary wire layout
func NewBinarySerializer() IRPCSerializer {
	return &binarySerializerImpl{}
}

// binarySerializerImpl implements IRPCSerializer with a fixed big endian layout:
//
//	request:  header | ledgerId | entryId | [masterKey] | [data]
//	response: header | status   | ledgerId | entryId    | [data]
//
// header is a uint32 packing version (8 bit), op code (8 bit) and flags (16 bit).
type binarySerializerImpl struct {
}

const (
	headerSize      = 4
	idsSize         = 16 // ledgerId + entryId
	requestMinSize  = headerSize + idsSize
	responseMinSize = headerSize + 4 + idsSize
)

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (b binarySerializerImpl) GetName() string {
	return "binary"
}

func (b binarySerializerImpl) EncodeRequest(req common.Request) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	switch r := req.(type) {
	case *common.AddRequest:
		result := make([]byte, requestMinSize+common.MasterKeyLength+len(r.Data))
		pos := putHeader(result, r.ProtocolVersion, common.OpAddEntry, r.Flags)
		pos = putIDs(result, pos, r.LedgerID, r.EntryID)
		pos += copy(result[pos:], r.MasterKey)
		copy(result[pos:], r.Data)
		return result, nil

	case *common.ReadRequest:
		size := requestMinSize
		if r.IsFencing() {
			size += common.MasterKeyLength
		}
		result := make([]byte, size)
		pos := putHeader(result, r.ProtocolVersion, common.OpReadEntry, r.Flags)
		pos = putIDs(result, pos, r.LedgerID, r.EntryID)
		if r.IsFencing() {
			copy(result[pos:], r.MasterKey)
		}
		return result, nil
	}
	return nil, fmt.Errorf("unsupported request type %T", req)
}

func (b binarySerializerImpl) DecodeRequest(data []byte) (common.Request, error) {
	if len(data) < requestMinSize {
		return nil, corrupted("request of %d bytes is shorter than %d", len(data), requestMinSize)
	}

	version, op, flags := getHeader(data)
	ledgerID, entryID := getIDs(data, headerSize)
	pos := requestMinSize

	switch op {
	case common.OpAddEntry:
		if len(data) < pos+common.MasterKeyLength {
			return nil, corrupted("add request without master key")
		}
		masterKey := cloneBytes(data[pos : pos+common.MasterKeyLength])
		pos += common.MasterKeyLength
		return &common.AddRequest{
			ProtocolVersion: version,
			LedgerID:        ledgerID,
			EntryID:         entryID,
			Flags:           flags,
			MasterKey:       masterKey,
			Data:            cloneBytes(data[pos:]),
		}, nil

	case common.OpReadEntry:
		req := &common.ReadRequest{
			ProtocolVersion: version,
			LedgerID:        ledgerID,
			EntryID:         entryID,
			Flags:           flags,
		}
		if req.IsFencing() {
			if len(data) < pos+common.MasterKeyLength {
				return nil, corrupted("fencing read request without master key")
			}
			req.MasterKey = cloneBytes(data[pos : pos+common.MasterKeyLength])
		}
		return req, nil

	default:
		return nil, corrupted("unknown op code %d", op)
	}
}

func (b binarySerializerImpl) EncodeResponse(resp *common.Response) ([]byte, error) {
	if resp == nil {
		return nil, corrupted("nil response")
	}

	var payload []byte
	if resp.OpCode == common.OpReadEntry && resp.Status == common.EOK {
		payload = resp.Data
	}

	result := make([]byte, responseMinSize+len(payload))
	pos := putHeader(result, resp.ProtocolVersion, resp.OpCode, common.FlagNone)
	binary.BigEndian.PutUint32(result[pos:pos+4], uint32(resp.Status))
	pos += 4
	pos = putIDs(result, pos, resp.LedgerID, resp.EntryID)
	copy(result[pos:], payload)
	return result, nil
}

func (b binarySerializerImpl) DecodeResponse(data []byte) (*common.Response, error) {
	if len(data) < responseMinSize {
		return nil, corrupted("response of %d bytes is shorter than %d", len(data), responseMinSize)
	}

	version, op, _ := getHeader(data)
	if op != common.OpAddEntry && op != common.OpReadEntry {
		return nil, corrupted("unknown op code %d", op)
	}

	resp := &common.Response{
		ProtocolVersion: version,
		OpCode:          op,
		Status:          common.Status(int32(binary.BigEndian.Uint32(data[headerSize : headerSize+4]))),
	}
	resp.LedgerID, resp.EntryID = getIDs(data, headerSize+4)

	if op == common.OpReadEntry && resp.Status == common.EOK {
		resp.Data = cloneBytes(data[responseMinSize:])
	}
	return resp, nil
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func putHeader(buf []byte, version byte, op common.OpCode, flags common.Flag) int {
	header := uint32(version)<<24 | uint32(op)<<16 | uint32(flags)
	binary.BigEndian.PutUint32(buf[:headerSize], header)
	return headerSize
}

func getHeader(buf []byte) (byte, common.OpCode, common.Flag) {
	header := binary.BigEndian.Uint32(buf[:headerSize])
	return byte(header >> 24), common.OpCode(header >> 16 & 0xff), common.Flag(header & 0xffff)
}

func putIDs(buf []byte, pos int, ledgerID, entryID int64) int {
	binary.BigEndian.PutUint64(buf[pos:pos+8], uint64(ledgerID))
	binary.BigEndian.PutUint64(buf[pos+8:pos+16], uint64(entryID))
	return pos + idsSize
}

func getIDs(buf []byte, pos int) (int64, int64) {
	return int64(binary.BigEndian.Uint64(buf[pos : pos+8])), int64(binary.BigEndian.Uint64(buf[pos+8 : pos+16]))
}

// cloneBytes copies b so decoded messages never alias the frame buffer
func cloneBytes(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
