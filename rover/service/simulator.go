package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/mission"
)

var (
	ErrNilRequest         = errors.New("simulate request is required")
	ErrCatalogUnavailable = errors.New("mission catalog not configured")
)

// simulator implements the Simulator interface
type simulator struct {
	missions MissionCatalog
}

// NewSimulator creates a new simulator. missions may be nil, in which case
// only ad-hoc simulations are available.
func NewSimulator(missions MissionCatalog) Simulator {
	return &simulator{missions: missions}
}

// Simulate runs one simulation over the request's input lines
func (s *simulator) Simulate(ctx context.Context, req *SimulateRequest) (*SimulationResult, error) {
	if req == nil {
		return nil, ErrNilRequest
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return simulate(*req, ""), nil
}

// RunMission loads a mission from the catalog and simulates it
func (s *simulator) RunMission(ctx context.Context, missionID string) (*SimulationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m, err := s.GetMission(ctx, missionID)
	if err != nil {
		return nil, err
	}

	lines := m.Lines()
	req := SimulateRequest{Grid: lines[0], Start: lines[1], Instructions: lines[2]}
	return simulate(req, missionID), nil
}

// ListMissions returns all valid missions in the catalog
func (s *simulator) ListMissions(ctx context.Context) ([]*mission.Info, error) {
	if s.missions == nil {
		return nil, ErrCatalogUnavailable
	}
	return s.missions.List()
}

// GetMission loads a single mission
func (s *simulator) GetMission(ctx context.Context, missionID string) (*mission.Mission, error) {
	if s.missions == nil {
		return nil, ErrCatalogUnavailable
	}
	m, err := s.missions.Load(missionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load mission %s: %w", missionID, err)
	}
	return m, nil
}

// SaveMission validates and stores a mission
func (s *simulator) SaveMission(ctx context.Context, missionID string, m *mission.Mission) error {
	if s.missions == nil {
		return ErrCatalogUnavailable
	}
	return s.missions.Save(missionID, m)
}

// simulate runs the engine and folds its outcome into a result
func simulate(req SimulateRequest, missionID string) *SimulationResult {
	result := &SimulationResult{
		ID:        uuid.NewString(),
		Mission:   missionID,
		Input:     req,
		Timestamp: time.Now().UTC(),
	}

	outcome, err := engine.Simulate(req.Grid, req.Start, req.Instructions)
	if err != nil {
		result.Stage = engine.FailedStage(err)
		result.ErrorCode = engine.Code(err)
		result.Error = err.Error()
		return result
	}

	result.Success = true
	result.Stage = engine.StageDone
	result.Output = outcome.Final.String()
	result.Grid = &outcome.Grid
	result.Start = &outcome.Start
	result.Final = &outcome.Final
	result.Segments = outcome.Segments
	return result
}
