package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runRover(t *testing.T, input string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := Run(strings.NewReader(input), &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestRun_Scenarios(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		stdout string
	}{
		{"specification", "88\n12 E\nMMLMRMMRRMML\n", "3 3 S\n"},
		{"alternate", "88\n12 S\nMLLMMMRMM\n", "3 4 E\n"},
		{"no trailing newline", "88\n12 S\nMLLMMMRMM", "3 4 E\n"},
		{"windows line endings", "88\r\n12 E\r\nMMLMRMMRRMML\r\n", "3 3 S\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := runRover(t, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.stdout, stdout)
			assert.Empty(t, stderr)
		})
	}
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      error
		substring string
	}{
		{"bounds", "88\n12 S\nMM\n", ErrVerticalOutOfRange, "Vertical movement out of range."},
		{"grid size", "00\n12 S\nMM\n", ErrInvalidGridSize, "grid size"},
		{"positions", "55\n64 S\nMM\n", ErrPositionOutOfBounds, "positions exceed grid size"},
		{"directions", "55\n44 Q\nMM\n", ErrInvalidStartPosition, "starting position and direction"},
		{"movements alphabet", "55\n44 S\nMMFLLLR\n", ErrInvalidInstructionCharacter, "instructions may contain only"},
		{"movements empty", "55\n44 S\n\n", ErrEmptyInstructions, "No movement instructions were supplied"},
		{"horizontal", "33\n31 E\nM\n", ErrHorizontalOutOfRange, "Horizontal movement out of range."},
		{"empty input", "", ErrInvalidGridSize, "grid size"},
		{"missing position", "88\n", ErrInvalidStartPosition, "starting position and direction"},
		{"missing instructions", "88\n12 N\n", ErrEmptyInstructions, "No movement instructions were supplied"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, stderr, err := runRover(t, tt.input)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.Contains(t, stderr, tt.substring)
			assert.True(t, strings.HasSuffix(stderr, "\n"), "error output should end with a newline")
			assert.Empty(t, stdout, "nothing may be written to stdout on failure")
		})
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) {
	return 0, errors.New("disk on fire")
}

func TestRun_ReadError(t *testing.T) {
	var stdout, stderr bytes.Buffer
	err := Run(failingReader{}, &stdout, &stderr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
	assert.Empty(t, stdout.String())
}

func TestSimulate_Result(t *testing.T) {
	result, err := Simulate("88", "12 E", "MMLMRMMRRMML")
	require.NoError(t, err)

	assert.Equal(t, Grid{Width: 8, Height: 8}, result.Grid)
	assert.Equal(t, RoverState{Position: Position{X: 1, Y: 2}, Heading: East}, result.Start)
	assert.Equal(t, RoverState{Position: Position{X: 3, Y: 3}, Heading: South}, result.Final)
	assert.Len(t, result.Segments, 4)
	assert.Equal(t, "3 3 S", result.Final.String())
}

func TestSimulate_FailedStage(t *testing.T) {
	tests := []struct {
		name                   string
		grid, pos, instruction string
		stage                  Stage
		code                   string
	}{
		{"grid", "0", "12 N", "M", StageParsingGrid, "invalid_grid_size"},
		{"position format", "88", "12 X", "M", StageParsingPosition, "invalid_start_position"},
		{"position bounds", "22", "33 N", "M", StageParsingPosition, "position_out_of_bounds"},
		{"empty instructions", "88", "12 N", "", StageCompilingInstructions, "empty_instructions"},
		{"bad instruction", "88", "12 N", "MX", StageCompilingInstructions, "invalid_instruction_character"},
		{"x axis", "22", "22 E", "M", StageIntegratingX, "horizontal_out_of_range"},
		{"y axis", "22", "22 N", "M", StageIntegratingY, "vertical_out_of_range"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Simulate(tt.grid, tt.pos, tt.instruction)
			require.Error(t, err)
			assert.Nil(t, result)

			var pe *Error
			require.True(t, errors.As(err, &pe))
			assert.Equal(t, tt.stage, pe.Stage)
			assert.Equal(t, tt.stage, FailedStage(err))
			assert.Equal(t, tt.code, Code(err))
		})
	}
}

func TestSimulate_HorizontalReportedBeforeVertical(t *testing.T) {
	// Both axes leave the grid; x is integrated first.
	_, err := Simulate("22", "22 E", "MLM")
	assert.ErrorIs(t, err, ErrHorizontalOutOfRange)
}

func TestSimulate_RecoveryDoesNotHideViolation(t *testing.T) {
	// y drops to -1 after the first run and would be back at 4 after the second.
	_, err := Simulate("88", "12 S", "MMLLMMMMM")
	assert.ErrorIs(t, err, ErrVerticalOutOfRange)
}

func TestSimulate_RotationsNeverMove(t *testing.T) {
	rotations := []string{"L", "R", "LLLL", "RRRRRRR", "LRLRLR", strings.Repeat("LRR", 40)}

	for w := 1; w <= 9; w += 4 {
		for h := 1; h <= 9; h += 4 {
			for _, instructions := range rotations {
				start := RoverState{Position: Position{X: w, Y: h}, Heading: West}
				result, err := Simulate(fmt.Sprintf("%d%d", w, h), start.Line(), instructions)
				require.NoError(t, err)
				assert.Equal(t, start.Position, result.Final.Position)
				assert.Empty(t, result.Segments)
			}
		}
	}
}

func TestCode_UnknownErrors(t *testing.T) {
	assert.Equal(t, "", Code(nil))
	assert.Equal(t, "", Code(errors.New("something else")))
	assert.Equal(t, StageFailed, FailedStage(errors.New("something else")))
	assert.Equal(t, "vertical_out_of_range", Code(fmt.Errorf("wrapped: %w", ErrVerticalOutOfRange)))
}
