// Command sweep asks a running rover API how one instruction string behaves
// from every start cell and heading of a grid, and prints a map per heading:
//
//	.  the rover finished on the grid
//	x  horizontal movement out of range
//	y  vertical movement out of range
//	?  any other failure
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/service"
)

// Client calls the simulate endpoint of the REST API
type Client struct {
	baseURL string
	client  *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Simulate runs one simulation on the server
func (c *Client) Simulate(ctx context.Context, req service.SimulateRequest) (*service.SimulationResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/api/simulate", bytes.NewBuffer(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("simulate: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("simulate failed: %s - %s", resp.Status, string(data))
	}

	var result service.SimulationResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("parse simulate response: %w", err)
	}
	return &result, nil
}

// Report holds one outcome mark per start cell, per heading
type Report struct {
	Grid         engine.Grid
	Instructions string
	Marks        map[engine.Heading][][]byte // [y-1][x-1]
	Total        int
	Succeeded    int
}

var headings = [...]engine.Heading{engine.North, engine.East, engine.South, engine.West}

// mark maps a result to its map symbol
func mark(result *service.SimulationResult) byte {
	switch {
	case result.Success:
		return '.'
	case result.ErrorCode == "horizontal_out_of_range":
		return 'x'
	case result.ErrorCode == "vertical_out_of_range":
		return 'y'
	default:
		return '?'
	}
}

// Sweep simulates instructions from every cell and heading of gridLine
func Sweep(ctx context.Context, client *Client, gridLine, instructions string) (*Report, error) {
	grid, err := engine.ParseGrid(gridLine)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Grid:         grid,
		Instructions: instructions,
		Marks:        make(map[engine.Heading][][]byte, len(headings)),
	}

	for _, h := range headings {
		rows := make([][]byte, grid.Height)
		for y := 1; y <= grid.Height; y++ {
			rows[y-1] = make([]byte, grid.Width)
			for x := 1; x <= grid.Width; x++ {
				start := engine.RoverState{Position: engine.Position{X: x, Y: y}, Heading: h}
				result, err := client.Simulate(ctx, service.SimulateRequest{
					Grid:         gridLine,
					Start:        start.Line(),
					Instructions: instructions,
				})
				if err != nil {
					return nil, err
				}
				rows[y-1][x-1] = mark(result)
				report.Total++
				if result.Success {
					report.Succeeded++
				}
			}
		}
		report.Marks[h] = rows
	}

	return report, nil
}

// Write renders the report with north at the top of each map
func (r *Report) Write(w io.Writer) {
	fmt.Fprintf(w, "Sweep of %s on %dx%d (%d starts, %d ok)\n",
		r.Instructions, r.Grid.Width, r.Grid.Height, r.Total, r.Succeeded)

	for _, h := range headings {
		fmt.Fprintf(w, "\nHeading %s\n", h)
		rows := r.Marks[h]
		for y := r.Grid.Height; y >= 1; y-- {
			fmt.Fprintf(w, "  %d", y)
			for _, c := range rows[y-1] {
				fmt.Fprintf(w, " %c", c)
			}
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, "   ")
		for x := 1; x <= r.Grid.Width; x++ {
			fmt.Fprintf(w, " %d", x)
		}
		fmt.Fprintln(w)
	}
}

func main() {
	cmd := &cli.Command{
		Name:      "sweep",
		Usage:     "map the outcome of an instruction string from every start",
		ArgsUsage: "<grid> <instructions>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "http://localhost:8080",
				Usage:   "rover API server URL",
				Sources: cli.EnvVars("ROVER_API_URL"),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.NArg() != 2 {
				return fmt.Errorf("sweep needs <grid> <instructions>")
			}
			report, err := Sweep(ctx, NewClient(cmd.String("url")), cmd.Args().Get(0), cmd.Args().Get(1))
			if err != nil {
				return err
			}
			report.Write(cmd.Root().Writer)
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
