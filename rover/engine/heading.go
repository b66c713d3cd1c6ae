package engine

import "fmt"

// Heading is a compass direction. The values follow the clockwise order
// North, East, South, West.
type Heading int

const (
	North Heading = iota
	East
	South
	West

	headingCount = 4
)

const headingLetters = "NESW"

// Left returns the heading after a 90 degree counter-clockwise turn
func (h Heading) Left() Heading {
	return (h + headingCount - 1) % headingCount
}

// Right returns the heading after a 90 degree clockwise turn
func (h Heading) Right() Heading {
	return (h + 1) % headingCount
}

// Valid reports whether h is one of the four compass headings
func (h Heading) Valid() bool {
	return h >= North && h <= West
}

// String returns the single letter form (N, E, S or W)
func (h Heading) String() string {
	if !h.Valid() {
		return fmt.Sprintf("Heading(%d)", int(h))
	}
	return headingLetters[h : h+1]
}

// ParseHeading converts a heading letter to a Heading
func ParseHeading(letter byte) (Heading, bool) {
	for i := 0; i < headingCount; i++ {
		if headingLetters[i] == letter {
			return Heading(i), true
		}
	}
	return North, false
}

// MarshalText encodes the heading as its letter, so JSON carries "N" not 0.
func (h Heading) MarshalText() ([]byte, error) {
	if !h.Valid() {
		return nil, fmt.Errorf("invalid heading %d", int(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText decodes a heading letter
func (h *Heading) UnmarshalText(text []byte) error {
	if len(text) != 1 {
		return fmt.Errorf("invalid heading %q", text)
	}
	parsed, ok := ParseHeading(text[0])
	if !ok {
		return fmt.Errorf("invalid heading %q", text)
	}
	*h = parsed
	return nil
}
