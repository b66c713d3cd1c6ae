package mission

import (
	"errors"
	"fmt"

	"github.com/wricardo/mars-rover/rover/engine"
)

var (
	ErrMissionNotFound = errors.New("mission not found")
	ErrInvalidMission  = errors.New("invalid mission")
)

// Mission is a stored set of simulation inputs
type Mission struct {
	Name         string `json:"name" yaml:"name"`
	Description  string `json:"description,omitempty" yaml:"description,omitempty"`
	Grid         string `json:"grid" yaml:"grid"`
	Start        string `json:"start" yaml:"start"`
	Instructions string `json:"instructions" yaml:"instructions"`
}

// Lines returns the three pipeline input lines in order
func (m *Mission) Lines() [3]string {
	return [3]string{m.Grid, m.Start, m.Instructions}
}

// Info summarizes a mission file for listings
type Info struct {
	Filename    string      `json:"filename"`
	MissionID   string      `json:"mission_id"` // The identifier to use for running the mission
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Grid        engine.Grid `json:"grid"`
	Moves       int         `json:"moves"`
}

// Validate checks that a mission has a name and that its inputs parse and
// compile. Movement bounds are not checked: a mission may be written to end
// out of range on purpose.
func Validate(m *Mission) error {
	if m == nil {
		return fmt.Errorf("%w: mission is nil", ErrInvalidMission)
	}
	if m.Name == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidMission)
	}

	grid, err := engine.ParseGrid(m.Grid)
	if err != nil {
		return fmt.Errorf("%w: grid: %w", ErrInvalidMission, err)
	}
	start, err := engine.ParsePosition(m.Start, grid)
	if err != nil {
		return fmt.Errorf("%w: start: %w", ErrInvalidMission, err)
	}
	if _, _, err := engine.CompileInstructions(m.Instructions, start.Heading); err != nil {
		return fmt.Errorf("%w: instructions: %w", ErrInvalidMission, err)
	}
	return nil
}
