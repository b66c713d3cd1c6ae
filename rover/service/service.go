package service

import (
	"context"

	"github.com/wricardo/mars-rover/rover/mission"
)

// Simulator defines all rover simulation operations
type Simulator interface {
	// Simulations
	Simulate(ctx context.Context, req *SimulateRequest) (*SimulationResult, error)
	RunMission(ctx context.Context, missionID string) (*SimulationResult, error)

	// Missions
	ListMissions(ctx context.Context) ([]*mission.Info, error)
	GetMission(ctx context.Context, missionID string) (*mission.Mission, error)
	SaveMission(ctx context.Context, missionID string, m *mission.Mission) error
}

// MissionCatalog handles mission loading and storage
type MissionCatalog interface {
	Load(id string) (*mission.Mission, error)
	List() ([]*mission.Info, error)
	Save(id string, m *mission.Mission) error
}
