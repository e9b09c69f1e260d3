// ABOUTME: Audio fundamentals package for raw byte PCM materialization
// ABOUTME: Defines Params, Artifact and sample conversion functions
// Package audio turns arbitrary bytes into playable PCM.
//
// The source bytes are used verbatim as interleaved little-endian samples
// (8-bit samples are unsigned, as in WAV). Materialize wraps them in a WAV
// container, optionally scaling amplitude by Params.Volume, and records the
// duration rounded up to the next millisecond.
//
// Example:
//
//	params := audio.Params{Channels: 1, SampleWidth: 1, SampleRate: 32000, Volume: 100}
//	art, err := audio.Materialize(src, params, audio.MemoryStore{})
//	if err != nil {
//	    return err
//	}
//	defer art.Close()
//	fmt.Println(art.DurationMs())
package audio
