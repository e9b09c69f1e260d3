// ABOUTME: Audio resampling package using linear interpolation
// ABOUTME: Converts artifact audio to the output device rate
// Package resample converts interleaved int32 audio between sample rates.
//
// A Resampler keeps the last input frame and its fractional position, so
// a stream can be fed in chunks of any size and produce the same output
// as one large call. Call Reset after a seek.
//
// Example:
//
//	r := resample.New(32000, output.DeviceRate, 2)
//	out := make([]int32, r.OutputSamplesNeeded(len(chunk)))
//	n := r.Resample(chunk, out)
package resample
