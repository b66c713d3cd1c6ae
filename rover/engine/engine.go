package engine

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Simulate runs the whole pipeline over the three input lines: grid size,
// start position and movement instructions. Failures are returned as *Error
// carrying the stage that rejected the input.
func Simulate(gridLine, positionLine, instructionLine string) (*Result, error) {
	grid, err := ParseGrid(gridLine)
	if err != nil {
		return nil, &Error{Stage: StageParsingGrid, Err: err}
	}

	start, err := ParsePosition(positionLine, grid)
	if err != nil {
		return nil, &Error{Stage: StageParsingPosition, Err: err}
	}

	segments, heading, err := CompileInstructions(instructionLine, start.Heading)
	if err != nil {
		return nil, &Error{Stage: StageCompilingInstructions, Err: err}
	}

	x, err := Integrate(segments, start.X, grid.XAxis())
	if err != nil {
		return nil, &Error{Stage: StageIntegratingX, Err: err}
	}

	y, err := Integrate(segments, start.Y, grid.YAxis())
	if err != nil {
		return nil, &Error{Stage: StageIntegratingY, Err: err}
	}

	return &Result{
		Grid:     grid,
		Start:    start,
		Segments: segments,
		Final:    RoverState{Position: Position{X: x, Y: y}, Heading: heading},
	}, nil
}

// Run reads the three input lines from in and simulates them. On success the
// final state is written to stdout as "x y H\n". On failure the error message
// is written to stderr, nothing is written to stdout and the error is
// returned. Missing lines read as empty and fail the matching stage.
func Run(in io.Reader, stdout, stderr io.Writer) error {
	reader := bufio.NewReader(in)

	lines := make([]string, 3)
	for i := range lines {
		line, err := readLine(reader)
		if err != nil {
			return fmt.Errorf("failed to read input: %w", err)
		}
		lines[i] = line
	}

	result, err := Simulate(lines[0], lines[1], lines[2])
	if err != nil {
		msg := err.Error()
		if !strings.HasSuffix(msg, "\n") {
			msg += "\n"
		}
		if _, werr := io.WriteString(stderr, msg); werr != nil {
			return fmt.Errorf("failed to write error: %w", werr)
		}
		return err
	}

	if _, err := fmt.Fprintf(stdout, "%s\n", result.Final); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}

// readLine returns the next line without its line ending. End of input yields
// an empty line rather than an error.
func readLine(r *bufio.Reader) (string, error) {
	line, err := r.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, nil
}
