package service

import (
	"time"

	"github.com/wricardo/mars-rover/rover/engine"
)

// AdhocChannel is the broadcast channel for simulations not tied to a mission
const AdhocChannel = "adhoc"

// SimulateRequest holds the three pipeline input lines
type SimulateRequest struct {
	Grid         string `json:"grid"`
	Start        string `json:"start"`
	Instructions string `json:"instructions"`
}

// SimulationResult describes the outcome of one simulation
type SimulationResult struct {
	ID        string             `json:"id"`
	Mission   string             `json:"mission,omitempty"`
	Input     SimulateRequest    `json:"input"`
	Success   bool               `json:"success"`
	Output    string             `json:"output,omitempty"` // "x y H", exactly as the CLI prints it
	Grid      *engine.Grid       `json:"grid,omitempty"`
	Start     *engine.RoverState `json:"start,omitempty"`
	Final     *engine.RoverState `json:"final,omitempty"`
	Segments  []engine.Segment   `json:"segments,omitempty"`
	Stage     engine.Stage       `json:"stage"`
	ErrorCode string             `json:"error_code,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}

// Channel returns the broadcast channel a result belongs to
func (r *SimulationResult) Channel() string {
	if r.Mission != "" {
		return r.Mission
	}
	return AdhocChannel
}
