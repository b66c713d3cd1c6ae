package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mars-rover/rover/mission"
	"github.com/wricardo/mars-rover/rover/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Mars Rover Simulator",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Mars Rover Simulator - MCP Interface

This is a thin client that proxies all requests to the REST API server.

A rover sits on a rectangular plateau and follows a string of L, R and M
instructions. Each simulation is independent; nothing is remembered between
calls.

AVAILABLE TOOLS:
- simulate: Run one simulation from a grid size, start position and instructions
- list_missions: List stored missions
- get_mission: Show the inputs of a stored mission
- run_mission: Simulate a stored mission
- rover_instructions: Get the full rules and input formats`),
	)

	c.registerTools()
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "simulate",
		Description: "Simulate a rover: returns the final 'x y H' state or the error that stopped it",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"grid": map[string]interface{}{
					"type":        "string",
					"description": "Two digits, width then height, each 1-9 (e.g. \"88\")",
				},
				"start": map[string]interface{}{
					"type":        "string",
					"description": "Start position and heading as \"xy D\" (e.g. \"12 E\")",
				},
				"instructions": map[string]interface{}{
					"type":        "string",
					"description": "Instruction string using only L, R and M (e.g. \"MMLMRMMRRMML\")",
				},
			},
			Required: []string{"grid", "start", "instructions"},
		},
	}, c.handleSimulate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_missions",
		Description: "List stored missions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListMissions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_mission",
		Description: "Get the inputs of a stored mission",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Mission ID (file name without extension)",
				},
			},
			Required: []string{"mission_id"},
		},
	}, c.handleGetMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "run_mission",
		Description: "Simulate a stored mission",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"mission_id": map[string]interface{}{
					"type":        "string",
					"description": "Mission ID (file name without extension)",
				},
			},
			Required: []string{"mission_id"},
		},
	}, c.handleRunMission)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "rover_instructions",
		Description: "Get the rover rules, input formats and error messages",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleRoverInstructions)
}

// GetMCPServer returns the underlying MCP server
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall makes an HTTP call to the REST API
func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

// stringArg reads a string argument from a tool request
func stringArg(request mcp.CallToolRequest, name string) string {
	value, _ := request.GetArguments()[name].(string)
	return value
}

// Tool handlers

func (c *Client) handleSimulate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := service.SimulateRequest{
		Grid:         stringArg(request, "grid"),
		Start:        stringArg(request, "start"),
		Instructions: stringArg(request, "instructions"),
	}

	var result service.SimulationResult
	if err := c.apiCall(ctx, "POST", "/api/simulate", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Success {
		return mcp.NewToolResultError(formatSimulationResult(&result)), nil
	}
	return mcp.NewToolResultText(formatSimulationResult(&result)), nil
}

func (c *Client) handleListMissions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var resp struct {
		Count    int             `json:"count"`
		Missions []*mission.Info `json:"missions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/missions", nil, &resp); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMissionList(resp.Missions)), nil
}

func (c *Client) handleGetMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request, "mission_id")
	if id == "" {
		return mcp.NewToolResultError("mission_id is required"), nil
	}

	var m mission.Mission
	if err := c.apiCall(ctx, "GET", "/api/missions/"+url.PathEscape(id), nil, &m); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatMission(id, &m)), nil
}

func (c *Client) handleRunMission(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := stringArg(request, "mission_id")
	if id == "" {
		return mcp.NewToolResultError("mission_id is required"), nil
	}

	var result service.SimulationResult
	if err := c.apiCall(ctx, "POST", "/api/missions/"+url.PathEscape(id)+"/run", nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if !result.Success {
		return mcp.NewToolResultError(formatSimulationResult(&result)), nil
	}
	return mcp.NewToolResultText(formatSimulationResult(&result)), nil
}

func (c *Client) handleRoverInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(roverInstructions), nil
}

const roverInstructions = `Mars Rover Simulator - Rules

THE PLATEAU:
The grid is W x H cells. Coordinates start at 1 in the south-west corner;
x grows to the east (up to W) and y grows to the north (up to H).

INPUT LINES:
1. Grid size: two digits, width then height, each 1-9. Example: 88
2. Start: "xy D" where x and y are single digits within the grid and D is
   one of N, E, S, W. Example: 12 E
3. Instructions: a non-empty string of L, R and M. Example: MMLMRMMRRMML

INSTRUCTIONS:
- L: turn 90 degrees left, staying in place
- R: turn 90 degrees right, staying in place
- M: move one cell forward in the current heading

HOW MOVES ARE CHECKED:
Consecutive M instructions form a run. After each run the rover must still be
inside the grid. East/west travel is checked before north/south travel, so a
horizontal violation is reported even if a vertical one also happened. A rover
that leaves the grid mid-route fails even if later runs would bring it back.

OUTPUT:
On success the final state is "x y H", for example: 3 3 S

ERRORS:
- invalid_grid_size: Invalid grid size provided.
- invalid_start_position: Unexpected format for starting position and direction.
- position_out_of_bounds: Initial coordinate positions exceed grid size.
- empty_instructions: No movement instructions were supplied.
- invalid_instruction_character: Movement instructions may contain only L, R or M.
- horizontal_out_of_range: Horizontal movement out of range.
- vertical_out_of_range: Vertical movement out of range.`

// Formatting helpers

func formatSimulationResult(result *service.SimulationResult) string {
	var sb strings.Builder

	if result.Mission != "" {
		sb.WriteString(fmt.Sprintf("Mission: %s\n", result.Mission))
	}
	sb.WriteString(fmt.Sprintf("Input: %s | %s | %s\n", result.Input.Grid, result.Input.Start, result.Input.Instructions))

	if !result.Success {
		sb.WriteString(fmt.Sprintf("FAILED at %s (%s)\n", result.Stage, result.ErrorCode))
		sb.WriteString(result.Error)
		return sb.String()
	}

	sb.WriteString(fmt.Sprintf("Final: %s\n", result.Output))
	if result.Start != nil {
		sb.WriteString(fmt.Sprintf("Start: %s\n", result.Start))
	}
	if len(result.Segments) > 0 {
		runs := make([]string, len(result.Segments))
		for i, seg := range result.Segments {
			runs[i] = fmt.Sprintf("%s%d", seg.Heading, seg.Moves)
		}
		sb.WriteString(fmt.Sprintf("Runs: %s\n", strings.Join(runs, " ")))
	} else {
		sb.WriteString("Runs: none (rotations only)\n")
	}
	return sb.String()
}

func formatMissionList(missions []*mission.Info) string {
	if len(missions) == 0 {
		return "No missions available."
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Missions (%d):\n", len(missions)))
	for _, m := range missions {
		sb.WriteString(fmt.Sprintf("- %s: %s (%dx%d, %d moves)", m.MissionID, m.Name, m.Grid.Width, m.Grid.Height, m.Moves))
		if m.Description != "" {
			sb.WriteString(" - " + m.Description)
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

func formatMission(id string, m *mission.Mission) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Mission %s: %s\n", id, m.Name))
	if m.Description != "" {
		sb.WriteString(m.Description + "\n")
	}
	sb.WriteString(fmt.Sprintf("Grid: %s\nStart: %s\nInstructions: %s\n", m.Grid, m.Start, m.Instructions))
	return sb.String()
}
