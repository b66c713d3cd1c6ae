// Package api provides the HTTP REST API for the rover simulator.
//
// Endpoints:
//
// Simulation:
//   - POST /api/simulate - Run one simulation over {grid, start, instructions}
//
// Missions:
//   - GET /api/missions - List valid missions in the catalog
//   - POST /api/missions - Validate and save a mission
//   - GET /api/missions/{name} - Get a mission
//   - POST /api/missions/{name}/run - Simulate a stored mission
//
// Other:
//   - GET /api/health - Liveness probe
//   - GET /ws?channel=<name> - Subscribe to simulation results (default "all")
//
// A simulation that fails (bad grid, rover out of range, ...) is still a 200
// response: the returned result carries success=false together with the
// failing stage, a machine-readable error_code and the user-facing message.
// Transport and catalog problems use HTTP status codes:
//
//	{
//	  "error": "failed to load mission nope: mission not found"
//	}
package api
