// ABOUTME: Color format package for byte-to-pixel channel programs
// ABOUTME: Parses and validates format strings such as "bgrx" or "W"
// Package colorformat parses the channel-format strings that tell the frame
// decoder how to turn source bytes into RGB pixels.
//
// Each character consumes one source byte per pixel:
//   - r, g, b: write the byte to the red, green or blue channel
//   - w: write the byte to all three channels (grayscale mode)
//   - x: consume the byte without writing it
//
// Uppercase letters invert the byte (255 - v) before writing it.
// Grayscale and RGB letters cannot be mixed.
//
// Example:
//
//	spec, err := colorformat.Parse("bgrx")
//	if err != nil {
//	    return err
//	}
//	fmt.Println(spec.ColorBytes()) // 4
package colorformat
