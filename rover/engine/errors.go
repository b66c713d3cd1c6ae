package engine

import "errors"

// Input and movement errors. The messages are user facing and stable; callers
// may match on substrings of them.
var (
	ErrInvalidGridSize = errors.New("Invalid grid size provided.\n" +
		"Expected format is a two digit number with the first numeral\n" +
		" as width, and the second numeral being height. eg. 88.")
	ErrInvalidStartPosition = errors.New("Unexpected format for starting position and direction.\n" +
		"Expect: xy D\n" +
		" where x and y are single digit numbers, and D is one of NESW.")
	ErrPositionOutOfBounds         = errors.New("Initial coordinate positions exceed grid size.")
	ErrEmptyInstructions           = errors.New("No movement instructions were supplied.")
	ErrInvalidInstructionCharacter = errors.New("Movement instructions may contain only L, R or M.")
	ErrHorizontalOutOfRange        = errors.New("Horizontal movement out of range.")
	ErrVerticalOutOfRange          = errors.New("Vertical movement out of range.")
)

// Stage identifies a step of the simulation pipeline
type Stage string

const (
	StageParsingGrid           Stage = "parsing_grid"
	StageParsingPosition       Stage = "parsing_position"
	StageCompilingInstructions Stage = "compiling_instructions"
	StageIntegratingX          Stage = "integrating_x"
	StageIntegratingY          Stage = "integrating_y"
	StageDone                  Stage = "done"
	StageFailed                Stage = "failed"
)

// Error reports the pipeline stage that failed together with the cause.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// FailedStage returns the stage recorded in err, or StageFailed when err did
// not come out of the pipeline.
func FailedStage(err error) Stage {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Stage
	}
	return StageFailed
}

// Code returns a stable machine readable code for a pipeline error, or an
// empty string for nil and unknown errors.
func Code(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrInvalidGridSize):
		return "invalid_grid_size"
	case errors.Is(err, ErrInvalidStartPosition):
		return "invalid_start_position"
	case errors.Is(err, ErrPositionOutOfBounds):
		return "position_out_of_bounds"
	case errors.Is(err, ErrEmptyInstructions):
		return "empty_instructions"
	case errors.Is(err, ErrInvalidInstructionCharacter):
		return "invalid_instruction_character"
	case errors.Is(err, ErrHorizontalOutOfRange):
		return "horizontal_out_of_range"
	case errors.Is(err, ErrVerticalOutOfRange):
		return "vertical_out_of_range"
	}
	return ""
}
