// ABOUTME: Audio output interfaces
// ABOUTME: Devices take interleaved int32 samples in 24-bit range
package output

// Output is a playback device
type Output interface {
	// Open prepares the device for sampleRate and channels
	Open(sampleRate, channels int) error

	// Write queues interleaved samples, blocking while the device is full
	Write(samples []int32) error

	Close() error
}

// Muter is implemented by outputs that can go silent without stopping
// the stream
type Muter interface {
	SetMuted(muted bool)
}

var _ Muter = (*Oto)(nil)
