// Command analyze prints a human-readable breakdown of every mission in a
// directory (default "missions"): the compiled movement segments, how far the
// rover travels along each axis, and the simulated outcome.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/mission"
)

// Travel sums the moves made in each direction
type Travel struct {
	North, East, South, West int
}

// Add records a segment's moves under its heading
func (t *Travel) Add(seg engine.Segment) {
	switch seg.Heading {
	case engine.North:
		t.North += seg.Moves
	case engine.East:
		t.East += seg.Moves
	case engine.South:
		t.South += seg.Moves
	case engine.West:
		t.West += seg.Moves
	}
}

func main() {
	dir := "missions"
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}

	if err := analyzeDir(dir, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// analyzeDir analyzes every valid mission in dir in ID order
func analyzeDir(dir string, w io.Writer) error {
	catalog, err := mission.NewCatalog(dir, nil)
	if err != nil {
		return err
	}

	infos, err := catalog.List()
	if err != nil {
		return err
	}

	for _, info := range infos {
		fmt.Fprintf(w, "\n=== Analyzing %s ===\n", info.Filename)
		m, err := catalog.Load(info.MissionID)
		if err != nil {
			fmt.Fprintf(w, "Error loading mission: %v\n", err)
			continue
		}
		analyzeMission(w, m)
	}
	return nil
}

// analyzeMission writes the report for one mission
func analyzeMission(w io.Writer, m *mission.Mission) {
	fmt.Fprintf(w, "Name: %s\n", m.Name)
	if m.Description != "" {
		fmt.Fprintf(w, "Description: %s\n", m.Description)
	}

	grid, err := engine.ParseGrid(m.Grid)
	if err != nil {
		fmt.Fprintf(w, "Invalid grid: %q\n", m.Grid)
		return
	}
	start, err := engine.ParsePosition(m.Start, grid)
	if err != nil {
		fmt.Fprintf(w, "Invalid start: %q\n", m.Start)
		return
	}
	segments, heading, err := engine.CompileInstructions(m.Instructions, start.Heading)
	if err != nil {
		fmt.Fprintf(w, "Invalid instructions: %q\n", m.Instructions)
		return
	}

	fmt.Fprintf(w, "Grid: %d x %d\n", grid.Width, grid.Height)
	fmt.Fprintf(w, "Start: %s\n", start)
	fmt.Fprintf(w, "Instructions: %s (%d)\n", m.Instructions, len(m.Instructions))

	var travel Travel
	if len(segments) == 0 {
		fmt.Fprintf(w, "Segments: none (rotations only)\n")
	} else {
		fmt.Fprintf(w, "Segments:\n")
		fmt.Fprintf(w, "  %-3s %-7s %s\n", "#", "Heading", "Moves")
		for i, seg := range segments {
			fmt.Fprintf(w, "  %-3d %-7s %d\n", i+1, seg.Heading, seg.Moves)
			travel.Add(seg)
		}
	}

	fmt.Fprintf(w, "Travel: north %d, east %d, south %d, west %d\n", travel.North, travel.East, travel.South, travel.West)
	fmt.Fprintf(w, "Net: x %+d, y %+d\n", travel.East-travel.West, travel.North-travel.South)
	fmt.Fprintf(w, "Final heading: %s\n", heading)

	result, err := engine.Simulate(m.Grid, m.Start, m.Instructions)
	if err != nil {
		fmt.Fprintf(w, "⚠️  Outcome: FAILED at %s (%s): %v\n", engine.FailedStage(err), engine.Code(err), err)
		return
	}
	fmt.Fprintf(w, "✅ Outcome: %s\n", result.Final)
}
