package engine

import "fmt"

// Instruction is a single raw movement command
type Instruction byte

const (
	TurnLeft  Instruction = 'L'
	TurnRight Instruction = 'R'
	Move      Instruction = 'M'

	// Validation constants
	MinGridSize = 1
	MaxGridSize = 9
)

// Grid is the bounded plane the rover drives on. Valid coordinates are
// [1, Width] x [1, Height].
type Grid struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether pos lies inside the grid
func (g Grid) Contains(pos Position) bool {
	return pos.X >= 1 && pos.X <= g.Width && pos.Y >= 1 && pos.Y <= g.Height
}

// XAxis describes horizontal travel: East increases x, West decreases it.
func (g Grid) XAxis() Axis {
	return Axis{
		Positive:   East,
		Negative:   West,
		Max:        g.Width,
		OutOfRange: ErrHorizontalOutOfRange,
	}
}

// YAxis describes vertical travel: North increases y, South decreases it.
func (g Grid) YAxis() Axis {
	return Axis{
		Positive:   North,
		Negative:   South,
		Max:        g.Height,
		OutOfRange: ErrVerticalOutOfRange,
	}
}

// Position represents x,y coordinates
type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// RoverState is the rover's full state at an instant
type RoverState struct {
	Position
	Heading Heading `json:"heading"`
}

// String formats the state the way the rover reports it: "x y H".
func (s RoverState) String() string {
	return fmt.Sprintf("%d %d %s", s.X, s.Y, s.Heading)
}

// Line formats the state as a start position line: "xy H".
func (s RoverState) Line() string {
	return fmt.Sprintf("%d%d %s", s.X, s.Y, s.Heading)
}

// Segment is a run of consecutive forward moves made while facing Heading
type Segment struct {
	Heading Heading `json:"heading"`
	Moves   int     `json:"moves"`
}

// Axis parameterizes integration along one coordinate
type Axis struct {
	Positive   Heading
	Negative   Heading
	Max        int
	OutOfRange error
}

// Result is the outcome of a successful simulation
type Result struct {
	Grid     Grid       `json:"grid"`
	Start    RoverState `json:"start"`
	Segments []Segment  `json:"segments"`
	Final    RoverState `json:"final"`
}
