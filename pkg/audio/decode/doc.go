// ABOUTME: Audio decoder package for playback and verification
// ABOUTME: Provides PCM and FLAC decoders
// Package decode provides audio decoders.
//
// PCMDecoder turns raw 8, 16, 24 or 32-bit PCM into int32 samples in
// 24-bit range for playback. FLACReader reads complete FLAC streams such
// as the ones produced by the encode package.
//
// Example:
//
//	decoder, err := decode.NewPCM(params.Format())
//	samples, err := decoder.Decode(pcm)
package decode
