// ABOUTME: Audio encoder package for export containers
// ABOUTME: Provides Encoder interface and implementations for WAV and FLAC
// Package encode writes PCM samples into export containers.
//
// Supports: WAV (8, 16, 24 and 32-bit) and FLAC (8, 16 and 24-bit)
//
// Encoders accept interleaved samples at the stream's native bit depth,
// using the WAV convention of unsigned 8-bit samples. FLAC output uses
// verbatim subframes, so decoding it yields the exact input samples.
//
// Example:
//
//	f, err := os.Create("out.flac")
//	err = encode.Transcode(artifact, f, encode.ContainerFLAC)
package encode
