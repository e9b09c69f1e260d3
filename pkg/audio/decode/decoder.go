// ABOUTME: Decoder interface definition
// ABOUTME: Chunked decoding of raw audio bytes into int32 samples
package decode

// Decoder converts chunks of encoded audio into interleaved int32 samples
// in 24-bit range. Chunks may be fed one at a time in stream order.
type Decoder interface {
	Decode(data []byte) ([]int32, error)
	Close() error
}

var _ Decoder = (*PCMDecoder)(nil)
