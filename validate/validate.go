// Command validate checks the mission files in a directory (default
// ../missions). For every .json, .yaml and .yml file it checks:
//   - the file decodes and names the mission
//   - the grid line is two digits between 1 and 9
//   - the start line is "xy D" and lies on the grid
//   - the instructions are a non-empty string of L, R and M
//   - no two files share a mission ID
//
// Each valid mission is also simulated and its outcome reported. A rover that
// leaves the grid is only a warning, since some missions exist to show that
// failure.
package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/mission"
)

// ValidationResult captures the outcome of validating a single file.
type ValidationResult struct {
	File   string
	ID     string
	Valid  bool
	Errors []string
	Info   []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

// validateMission loads and validates a single mission file
func validateMission(filePath string) ValidationResult {
	ext := filepath.Ext(filePath)
	result := ValidationResult{
		File:  filepath.Base(filePath),
		ID:    strings.TrimSuffix(filepath.Base(filePath), ext),
		Valid: true,
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	m, err := mission.Decode(data, ext)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if m.Name == "" {
		result.fail("Mission name is required")
	}

	grid, err := engine.ParseGrid(m.Grid)
	if err != nil {
		result.fail("grid %q: %s", m.Grid, firstLine(err))
		// Keep checking the start line's format against the largest grid
		grid = engine.Grid{Width: engine.MaxGridSize, Height: engine.MaxGridSize}
	}

	heading := engine.North
	if start, err := engine.ParsePosition(m.Start, grid); err != nil {
		result.fail("start %q: %s", m.Start, firstLine(err))
	} else {
		heading = start.Heading
	}

	segments, _, err := engine.CompileInstructions(m.Instructions, heading)
	if err != nil {
		result.fail("instructions %q: %s", m.Instructions, firstLine(err))
	}

	if !result.Valid {
		return result
	}

	moves := 0
	for _, seg := range segments {
		moves += seg.Moves
	}

	result.Info = append(result.Info,
		fmt.Sprintf("✓ Name: %s", m.Name),
		fmt.Sprintf("✓ Grid: %dx%d", grid.Width, grid.Height),
		fmt.Sprintf("✓ Start: %s", m.Start),
		fmt.Sprintf("✓ Moves: %d in %d segments", moves, len(segments)),
	)

	outcome, err := engine.Simulate(m.Grid, m.Start, m.Instructions)
	if err != nil {
		result.Info = append(result.Info, fmt.Sprintf("⚠ Outcome: %s (%s)", err, engine.Code(err)))
	} else {
		result.Info = append(result.Info, fmt.Sprintf("✓ Outcome: %s", outcome.Final))
	}

	return result
}

// firstLine trims multi-line engine messages to their headline
func firstLine(err error) string {
	return strings.SplitN(err.Error(), "\n", 2)[0]
}

// missionFiles lists the supported mission files in dir, sorted by name
func missionFiles(dir string) ([]string, error) {
	var files []string
	for _, pattern := range []string{"*.json", "*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, err
		}
		files = append(files, matches...)
	}
	sort.Strings(files)
	return files, nil
}

// validateDir validates every mission file in dir, writes a report to w and
// reports whether all of them are valid.
func validateDir(dir string, w io.Writer) (bool, error) {
	files, err := missionFiles(dir)
	if err != nil {
		return false, fmt.Errorf("error finding mission files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no mission files found in %s", dir)
	}

	allValid := true
	seen := make(map[string]string)
	for _, file := range files {
		result := validateMission(file)
		if first, dup := seen[result.ID]; dup {
			result.fail("Duplicate mission id %q (also defined by %s)", result.ID, first)
		} else {
			seen[result.ID] = result.File
		}

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Info {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				fmt.Fprintln(w, "  ❌ "+err)
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All missions are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some missions have errors")
	}
	return allValid, nil
}

// main validates the directory given as the first argument, or ../missions,
// exiting with non-zero status if any mission is invalid.
func main() {
	dir := "../missions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	ok, err := validateDir(dir, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !ok {
		os.Exit(1)
	}
}
