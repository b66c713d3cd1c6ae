// Package mcp exposes the rover simulator to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request to the REST
// API (see package api), so the MCP surface and the HTTP surface always agree.
//
// MCP Tools:
//   - simulate: run one simulation from grid, start and instructions
//   - list_missions: list stored missions
//   - get_mission: show a stored mission
//   - run_mission: simulate a stored mission
//   - rover_instructions: rules, input formats and error codes
//
// A simulation that fails is returned as a tool error whose text carries the
// failing stage, the error code and the user-facing message.
//
// Transport Modes:
//   - Stdio: server.ServeStdio(client.GetMCPServer())
//   - HTTP: POST bodies to client.GetMCPServer().HandleMessage (mounted at /mcp)
package mcp
