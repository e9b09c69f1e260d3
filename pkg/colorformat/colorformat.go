// ABOUTME: Color format string parser and validator
// ABOUTME: Converts format strings into immutable token programs
package colorformat

import (
	"fmt"
	"strings"
)

// Token is a single per-byte channel operation
type Token uint8

const (
	Unused Token = iota
	Red
	RedInverted
	Green
	GreenInverted
	Blue
	BlueInverted
	White
	WhiteInverted
)

// Mode distinguishes RGB programs from grayscale programs
type Mode int

const (
	ModeRGB Mode = iota
	ModeGrayscale
)

func (m Mode) String() string {
	if m == ModeGrayscale {
		return "grayscale"
	}
	return "rgb"
}

// Inverted reports whether the token writes 255 minus the source byte
func (t Token) Inverted() bool {
	switch t {
	case RedInverted, GreenInverted, BlueInverted, WhiteInverted:
		return true
	}
	return false
}

// Char returns the canonical format character for the token
func (t Token) Char() byte {
	switch t {
	case Red:
		return 'r'
	case RedInverted:
		return 'R'
	case Green:
		return 'g'
	case GreenInverted:
		return 'G'
	case Blue:
		return 'b'
	case BlueInverted:
		return 'B'
	case White:
		return 'w'
	case WhiteInverted:
		return 'W'
	default:
		return 'x'
	}
}

func (t Token) String() string {
	return string(t.Char())
}

func tokenFor(c byte) (Token, bool) {
	switch c {
	case 'r':
		return Red, true
	case 'R':
		return RedInverted, true
	case 'g':
		return Green, true
	case 'G':
		return GreenInverted, true
	case 'b':
		return Blue, true
	case 'B':
		return BlueInverted, true
	case 'w':
		return White, true
	case 'W':
		return WhiteInverted, true
	case 'x', 'X':
		return Unused, true
	}
	return Unused, false
}

// Spec is a parsed, validated channel program. The zero value is not valid;
// obtain one from Parse.
type Spec struct {
	tokens []Token
	mode   Mode
	used   int
	unused int
}

// ParseError describes why a format string was rejected
type ParseError struct {
	Format  string
	Message string
}

func (e *ParseError) Error() string {
	return e.Message
}

// Parse validates a format string and returns its token program.
// Surrounding whitespace is ignored.
func Parse(s string) (Spec, error) {
	format := strings.TrimSpace(s)

	tokens := make([]Token, 0, len(format))
	for i := 0; i < len(format); i++ {
		tok, ok := tokenFor(format[i])
		if !ok {
			return Spec{}, &ParseError{
				Format: format,
				Message: fmt.Sprintf("invalid character %q at position %d in format string %q: "+
					"color formatting codes only accept \"r\" = red, \"g\" = green, \"b\" = blue, "+
					"\"w\" = white, \"x\" = unused (uppercase inverts the channel)",
					format[i], i, format),
			}
		}
		tokens = append(tokens, tok)
	}

	var red, green, blue, white, unused int
	for _, tok := range tokens {
		switch tok {
		case Red, RedInverted:
			red++
		case Green, GreenInverted:
			green++
		case Blue, BlueInverted:
			blue++
		case White, WhiteInverted:
			white++
		case Unused:
			unused++
		}
	}

	mode := ModeRGB
	if white > 0 {
		mode = ModeGrayscale
		if red+green+blue > 0 {
			return Spec{}, &ParseError{
				Format: format,
				Message: fmt.Sprintf("when using the grayscale mode formatter \"w\", you cannot use "+
					"any of the RGB mode formatters \"r\", \"g\" or \"b\", but format string %q contains them",
					format),
			}
		}
		if white > 1 {
			return Spec{}, &ParseError{
				Format:  format,
				Message: familyCountMessage("white", 'w', white, format),
			}
		}
	} else {
		if red+green+blue == 0 {
			return Spec{}, &ParseError{
				Format: format,
				Message: fmt.Sprintf("at least one color format specifier required, but none were given "+
					"in format string %q (use \"r\", \"g\", \"b\" or \"w\")", format),
			}
		}
		for _, fam := range []struct {
			name  string
			char  byte
			count int
		}{
			{"red", 'r', red},
			{"green", 'g', green},
			{"blue", 'b', blue},
		} {
			if fam.count > 1 {
				return Spec{}, &ParseError{
					Format:  format,
					Message: familyCountMessage(fam.name, fam.char, fam.count, format),
				}
			}
		}
	}

	return Spec{
		tokens: tokens,
		mode:   mode,
		used:   len(tokens) - unused,
		unused: unused,
	}, nil
}

func familyCountMessage(name string, char byte, count int, format string) string {
	return fmt.Sprintf("exactly 1 %s channel format specifier %q allowed, but %d were given in format string %q",
		name, string(char), count, format)
}

// MustParse is like Parse but panics on an invalid format. Intended for
// package-level defaults only.
func MustParse(s string) Spec {
	spec, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return spec
}

// Validate probes a format string without keeping the result
func Validate(s string) (bool, string) {
	if _, err := Parse(s); err != nil {
		return false, err.Error()
	}
	return true, ""
}

// Tokens returns a copy of the token program
func (s Spec) Tokens() []Token {
	out := make([]Token, len(s.tokens))
	copy(out, s.tokens)
	return out
}

// Mode reports whether the program is RGB or grayscale
func (s Spec) Mode() Mode {
	return s.mode
}

// UsedColorBytes is the number of bytes per pixel written to a channel
func (s Spec) UsedColorBytes() int {
	return s.used
}

// UnusedColorBytes is the number of padding bytes per pixel
func (s Spec) UnusedColorBytes() int {
	return s.unused
}

// ColorBytes is the number of source bytes consumed per pixel
func (s Spec) ColorBytes() int {
	return s.used + s.unused
}

// Valid reports whether the spec came from a successful Parse
func (s Spec) Valid() bool {
	return len(s.tokens) > 0
}

// String returns the canonical format string. Unused bytes are always "x".
func (s Spec) String() string {
	b := make([]byte, len(s.tokens))
	for i, tok := range s.tokens {
		b[i] = tok.Char()
	}
	return string(b)
}

// Pixel writes one pixel's worth of source bytes into rgb according to the
// program. src must hold ColorBytes bytes and rgb must hold 3.
func (s Spec) Pixel(src []byte, rgb []byte) {
	for i, tok := range s.tokens {
		v := src[i]
		if tok.Inverted() {
			v = 255 - v
		}
		switch tok {
		case Red, RedInverted:
			rgb[0] = v
		case Green, GreenInverted:
			rgb[1] = v
		case Blue, BlueInverted:
			rgb[2] = v
		case White, WhiteInverted:
			rgb[0], rgb[1], rgb[2] = v, v, v
		case Unused:
		}
	}
}
