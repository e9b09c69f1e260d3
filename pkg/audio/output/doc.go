// ABOUTME: Audio output package for playing audio
// ABOUTME: Provides Output interface and oto implementation
// Package output provides audio playback interfaces.
//
// The oto backend opens a single process-wide context; callers resample
// to DeviceRate before writing.
//
// Example:
//
//	out := output.NewOto()
//	err := out.Open(output.DeviceRate, 2)
//	err = out.Write(samples)
package output
