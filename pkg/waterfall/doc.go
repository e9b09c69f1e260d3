// ABOUTME: Waterfall engine package documentation
// ABOUTME: Describes the load, configure and query lifecycle
// Package waterfall reinterprets an arbitrary file as PCM audio and a
// synchronized series of RGB frames.
//
// An Engine starts unloaded. Load reads a file, builds its audio artifact
// and caches the duration. Every timestamp on that audio timeline maps to
// a byte address and from there to a decoded frame.
//
// Setters validate their input and return a *ValidationError without
// touching the engine when it is rejected. Queries on an unloaded engine
// return ErrNotLoaded.
//
// Example:
//
//	e, err := waterfall.New()
//	err = e.Load("/bin/ls")
//	err = e.SetColorFormat("rgb")
//	rgb, err := e.Frame(1500)
//	defer e.Close()
package waterfall
