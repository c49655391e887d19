// Package serializer provides the codecs that turn typed bookie messages
// (common.AddRequest, common.ReadRequest, common.Response) into frame payloads
// and back.
//
// Key Components:
//
//   - IRPCSerializer: Core interface that all serializer implementations must satisfy.
//
//   - binarySerializerImpl: The bookie wire layout. A 32 bit header packs the
//     protocol version, the op code and the request flags, followed by the big
//     endian ledger and entry ids. Add requests carry the 20 byte master key and
//     the entry data, fencing reads carry the master key, successful read
//     responses carry the entry data.
//
//   - jsonSerializerImpl: JSON encoding, useful for debugging. Byte fields are
//     base64 encoded.
//
// Decoding failures wrap common.ErrCorruptedFrame, a master key of the wrong
// length is reported as common.ErrBadMasterKey when encoding.
//
// Thread Safety:
//
//	All serializer implementations are stateless and safe for concurrent use
//	across multiple goroutines without additional synchronization.
package serializer
