package serializer

import (
	"testing"

	"github.com/ValentinKolb/dLedger/rpc/common"
)

// benchmarkRequests returns a set of requests for targeted benchmarking
func benchmarkRequests() map[string]common.Request {
	return map[string]common.Request{
		"Read":         common.NewReadRequest(1, 1),
		"FencingRead":  common.NewFencingReadRequest(1, 1, testMasterKey),
		"SmallAdd":     common.NewAddRequest(1, 1, common.FlagNone, testMasterKey, []byte("v")),
		"LargeAdd":     common.NewAddRequest(1, 1, common.FlagNone, testMasterKey, make([]byte, 1024)),
		"VeryLargeAdd": common.NewAddRequest(1, 1, common.FlagNone, testMasterKey, make([]byte, 1024*16)),
	}
}

// BenchmarkEncodeRequest benchmarks request encoding for all implementations
func BenchmarkEncodeRequest(b *testing.B) {
	for name, factory := range testSerializers {
		for reqName, req := range benchmarkRequests() {
			b.Run(name+"_"+reqName, func(b *testing.B) {
				s := factory()
				b.ResetTimer()

				for i := 0; i < b.N; i++ {
					if _, err := s.EncodeRequest(req); err != nil {
						b.Fatalf("Failed to encode: %v", err)
					}
				}
			})
		}
	}
}

// BenchmarkDecodeResponse benchmarks response decoding for all implementations
func BenchmarkDecodeResponse(b *testing.B) {
	resp := common.NewReadResponse(common.EOK, 1, 1, make([]byte, 1024))

	for name, factory := range testSerializers {
		b.Run(name, func(b *testing.B) {
			s := factory()
			data, err := s.EncodeResponse(resp)
			if err != nil {
				b.Fatalf("Failed to encode: %v", err)
			}
			b.ReportMetric(float64(len(data)), "bytes")
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				if _, err := s.DecodeResponse(data); err != nil {
					b.Fatalf("Failed to decode: %v", err)
				}
			}
		})
	}
}
