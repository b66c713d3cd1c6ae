// Package service exposes rover simulations to the transports.
//
// The Simulator interface is what the HTTP API, the MCP tools and the
// websocket hub depend on. Each call runs one isolated engine simulation;
// nothing is shared between calls apart from the read-only mission catalog.
//
// A failed simulation is not a Go error. It is reported inside the returned
// SimulationResult with Success set to false and the failing stage, error
// code and message filled in. Go errors are reserved for problems around the
// simulation: a cancelled context, a missing request or an unknown mission.
//
// Usage:
//
//	sim := service.NewSimulator(catalog)
//	result, err := sim.Simulate(ctx, &service.SimulateRequest{
//		Grid:         "88",
//		Start:        "12 E",
//		Instructions: "MMLMRMMRRMML",
//	})
//	fmt.Println(result.Output) // 3 3 S
package service
