package serializer

import (
	"encoding/json"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// NewJSONSerializer creates a new serializer using json encoding
func NewJSONSerializer() IRPCSerializer {
	return &jsonSerializerImpl{}
}

// jsonSerializerImpl implements the IRPCSerializer interface using json encoding.
// Byte fields (master key, data) are base64 encoded by encoding/json.
type jsonSerializerImpl struct {
}

// jsonRequest wraps a request so the decoder knows which type to create
type jsonRequest struct {
	OpCode common.OpCode       `json:"opCode"`
	Add    *common.AddRequest  `json:"add,omitempty"`
	Read   *common.ReadRequest `json:"read,omitempty"`
}

// --------------------------------------------------------------------------
// Interface Methods (docu see serializer.IRPCSerializer)
// --------------------------------------------------------------------------

func (j jsonSerializerImpl) GetName() string {
	return "json"
}

func (j jsonSerializerImpl) EncodeRequest(req common.Request) ([]byte, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}

	env := jsonRequest{OpCode: req.GetOpCode()}
	switch r := req.(type) {
	case *common.AddRequest:
		env.Add = r
	case *common.ReadRequest:
		env.Read = r
	}
	return json.Marshal(env)
}

func (j jsonSerializerImpl) DecodeRequest(b []byte) (common.Request, error) {
	var env jsonRequest
	if err := json.Unmarshal(b, &env); err != nil {
		return nil, corrupted("%v", err)
	}

	switch {
	case env.OpCode == common.OpAddEntry && env.Add != nil:
		return env.Add, nil
	case env.OpCode == common.OpReadEntry && env.Read != nil:
		return env.Read, nil
	default:
		return nil, corrupted("request without body for op %s", env.OpCode)
	}
}

func (j jsonSerializerImpl) EncodeResponse(resp *common.Response) ([]byte, error) {
	if resp == nil {
		return nil, corrupted("nil response")
	}
	return json.Marshal(resp)
}

func (j jsonSerializerImpl) DecodeResponse(b []byte) (*common.Response, error) {
	resp := &common.Response{}
	if err := json.Unmarshal(b, resp); err != nil {
		return nil, corrupted("%v", err)
	}
	if resp.OpCode != common.OpAddEntry && resp.OpCode != common.OpReadEntry {
		return nil, corrupted("unknown op code %s", resp.OpCode)
	}
	return resp, nil
}
