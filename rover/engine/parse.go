package engine

// ParseGrid parses a grid size line such as "88": the first digit is the
// width and the second the height, each between 1 and 9.
func ParseGrid(line string) (Grid, error) {
	if len(line) != 2 {
		return Grid{}, ErrInvalidGridSize
	}
	width, ok := digit(line[0])
	if !ok {
		return Grid{}, ErrInvalidGridSize
	}
	height, ok := digit(line[1])
	if !ok {
		return Grid{}, ErrInvalidGridSize
	}
	return Grid{Width: width, Height: height}, nil
}

// ParsePosition parses a start position line such as "12 E" and checks it
// against grid.
func ParsePosition(line string, grid Grid) (RoverState, error) {
	if len(line) != 4 || line[2] != ' ' {
		return RoverState{}, ErrInvalidStartPosition
	}
	x, ok := digit(line[0])
	if !ok {
		return RoverState{}, ErrInvalidStartPosition
	}
	y, ok := digit(line[1])
	if !ok {
		return RoverState{}, ErrInvalidStartPosition
	}
	heading, ok := ParseHeading(line[3])
	if !ok {
		return RoverState{}, ErrInvalidStartPosition
	}

	pos := Position{X: x, Y: y}
	if !grid.Contains(pos) {
		return RoverState{}, ErrPositionOutOfBounds
	}

	return RoverState{Position: pos, Heading: heading}, nil
}

// digit converts a single '1'-'9' character
func digit(c byte) (int, bool) {
	if c < '1' || c > '9' {
		return 0, false
	}
	return int(c - '0'), true
}
