package engine

import "strings"

// ValidateInstructions checks that line (trimmed of surrounding whitespace)
// is a non-empty string over L, R and M, and returns the trimmed form.
func ValidateInstructions(line string) (string, error) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return "", ErrEmptyInstructions
	}
	for _, r := range trimmed {
		if r != rune(TurnLeft) && r != rune(TurnRight) && r != rune(Move) {
			return "", ErrInvalidInstructionCharacter
		}
	}
	return trimmed, nil
}

// CompileInstructions collapses an instruction line into movement segments
// and the final heading, starting from heading.
//
// Consecutive moves under one heading become a single Segment carrying the
// total count. Rotations only change the heading; they never produce a
// segment of their own.
func CompileInstructions(line string, heading Heading) ([]Segment, Heading, error) {
	instructions, err := ValidateInstructions(line)
	if err != nil {
		return nil, heading, err
	}

	segments := []Segment{}
	n := 0
	for i := 0; i < len(instructions); i++ {
		instruction := Instruction(instructions[i])
		if instruction == Move {
			n++
			continue
		}
		if n > 0 {
			segments = append(segments, Segment{Heading: heading, Moves: n})
			n = 0
		}
		if instruction == TurnLeft {
			heading = heading.Left()
		} else {
			heading = heading.Right()
		}
	}
	if n > 0 {
		segments = append(segments, Segment{Heading: heading, Moves: n})
	}

	return segments, heading, nil
}
