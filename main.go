// Command rover runs the Mars rover simulator.
//
// Without a subcommand it reads three lines from stdin (grid size, start
// position, instructions) and prints the rover's final "x y H" state, or the
// reason the simulation failed on stderr with exit status 1.
//
// Subcommands:
//  1. "simulate" – simulates inputs given as arguments or a stored mission
//  2. "serve" – runs the HTTP server exposing the REST API, WebSocket results and an /mcp endpoint
//  3. "mcp" – runs an MCP stdio server, spinning up an internal HTTP API if none is reachable
//
// Flags read their defaults from the environment (and a .env file) and cover
// the listen address, mission directory, debug logging and optional ngrok
// tunneling for external access during development.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/mark3labs/mcp-go/server"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"
	"golang.ngrok.com/ngrok"
	ngrokConfig "golang.ngrok.com/ngrok/config"

	"github.com/wricardo/mars-rover/api"
	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/mission"
	"github.com/wricardo/mars-rover/rover/service"
	"github.com/wricardo/mars-rover/transport/mcp"
	"github.com/wricardo/mars-rover/transport/websocket"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "Mars Rover Simulator"
)

// errSimulationFailed is returned after the failure has already been written
// to the error stream, so main only has to set the exit status.
var errSimulationFailed = errors.New("simulation failed")

func main() {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().Run(ctx, os.Args)
	stop()

	if err != nil {
		if !errors.Is(err, errSimulationFailed) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

// newApp builds the command tree
func newApp() *cli.Command {
	return &cli.Command{
		Name:      "rover",
		Usage:     "simulate a rover on a rectangular plateau",
		UsageText: "printf '88\\n12 E\\nMMLMRMMRRMML\\n' | rover",
		Version:   Version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "missions-dir",
				Value:   "missions",
				Usage:   "directory containing mission files (.json, .yaml)",
				Sources: cli.EnvVars("ROVER_MISSIONS_DIR"),
			},
			&cli.BoolFlag{
				Name:    "debug",
				Usage:   "enable debug logging",
				Sources: cli.EnvVars("ROVER_DEBUG"),
			},
		},
		Action: runPipeline,
		Commands: []*cli.Command{
			simulateCommand(),
			serveCommand(),
			mcpCommand(),
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:      "simulate",
		Usage:     "simulate inputs given as arguments or a stored mission",
		ArgsUsage: "<grid> <start> <instructions>",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "mission",
				Usage: "run a mission from --missions-dir instead of arguments",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "print the full simulation result as JSON",
			},
		},
		Action: runSimulate,
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP server with REST API, WebSocket and MCP endpoint",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Value:   "localhost:8080",
				Usage:   "HTTP listen address",
				Sources: cli.EnvVars("ROVER_ADDR"),
			},
			&cli.BoolFlag{
				Name:    "ngrok",
				Usage:   "enable ngrok tunnel",
				Sources: cli.EnvVars("NGROK_ENABLED"),
			},
			&cli.StringFlag{
				Name:    "ngrok-auth",
				Usage:   "ngrok auth token",
				Sources: cli.EnvVars("NGROK_AUTHTOKEN", "NGROK_AUTH_TOKEN"),
			},
			&cli.StringFlag{
				Name:    "ngrok-domain",
				Usage:   "custom ngrok domain (optional)",
				Sources: cli.EnvVars("NGROK_DOMAIN"),
			},
		},
		Action: runServe,
	}
}

func mcpCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "run an MCP stdio server backed by the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "api-url",
				Value:   "http://localhost:8080",
				Usage:   "REST API to proxy; an internal server is started if it is unreachable",
				Sources: cli.EnvVars("ROVER_API_URL"),
			},
		},
		Action: runMCP,
	}
}

// newLogger builds the production logger, at debug level when requested
func newLogger(debug bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return cfg.Build()
}

// newSimulator wires a simulator to the mission catalog in dir. A missing
// directory is not fatal: the simulator then only runs ad-hoc inputs.
func newSimulator(dir string, logger *zap.Logger) (service.Simulator, *mission.Catalog) {
	catalog, err := mission.NewCatalog(dir, logger)
	if err != nil {
		logger.Warn("mission catalog unavailable", zap.String("dir", dir), zap.Error(err))
		return service.NewSimulator(nil), nil
	}
	return service.NewSimulator(catalog), catalog
}

// watchMissions keeps the catalog cache in sync with its directory and tells
// websocket subscribers on the "all" channel which mission changed.
func watchMissions(ctx context.Context, catalog *mission.Catalog, hub *websocket.Hub, logger *zap.Logger) error {
	logger.Info("watching missions", zap.String("dir", catalog.Dir()))
	return catalog.Watch(ctx, func(id string) {
		hub.BroadcastEvent(websocket.AllChannel, websocket.EventCatalogChanged, id)
	})
}

// runPipeline reads the three input lines from stdin
func runPipeline(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Root()
	if err := engine.Run(root.Reader, root.Writer, root.ErrWriter); err != nil {
		var simErr *engine.Error
		if errors.As(err, &simErr) {
			return errSimulationFailed
		}
		return err
	}
	return nil
}

// runSimulate runs one simulation through the service layer
func runSimulate(ctx context.Context, cmd *cli.Command) error {
	root := cmd.Root()

	logger := zap.NewNop()
	if cmd.Bool("debug") {
		l, err := newLogger(true)
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer l.Sync()
		logger = l
	}

	var (
		result *service.SimulationResult
		err    error
	)
	if id := cmd.String("mission"); id != "" {
		simulator, _ := newSimulator(cmd.String("missions-dir"), logger)
		result, err = simulator.RunMission(ctx, id)
	} else {
		if cmd.NArg() != 3 {
			return fmt.Errorf("simulate needs <grid> <start> <instructions> or --mission")
		}
		args := cmd.Args()
		result, err = service.NewSimulator(nil).Simulate(ctx, &service.SimulateRequest{
			Grid:         args.Get(0),
			Start:        args.Get(1),
			Instructions: args.Get(2),
		})
	}
	if err != nil {
		return err
	}

	logger.Debug("simulation",
		zap.String("id", result.ID), zap.Bool("success", result.Success), zap.String("stage", string(result.Stage)))

	if cmd.Bool("json") {
		enc := json.NewEncoder(root.Writer)
		enc.SetIndent("", "  ")
		if err := enc.Encode(result); err != nil {
			return fmt.Errorf("failed to encode result: %w", err)
		}
	} else if result.Success {
		fmt.Fprintln(root.Writer, result.Output)
	} else {
		fmt.Fprintln(root.ErrWriter, result.Error)
	}

	if !result.Success {
		return errSimulationFailed
	}
	return nil
}

// newHTTPHandler combines the REST API, the WebSocket endpoint and an /mcp
// endpoint whose tools proxy back to baseURL.
func newHTTPHandler(simulator service.Simulator, hub api.Broadcaster, logger *zap.Logger, baseURL string) http.Handler {
	apiServer := api.NewServer(simulator, hub, logger)
	mcpClient := mcp.NewClient(baseURL)

	apiServer.Router().HandleFunc("/mcp", func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "Failed to read request", http.StatusBadRequest)
			return
		}
		defer r.Body.Close()

		response := mcpClient.GetMCPServer().HandleMessage(r.Context(), body)

		w.Header().Set("Content-Type", "application/json")
		responseData, err := json.Marshal(response)
		if err != nil {
			http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
			return
		}
		w.Write(responseData)
	}).Methods("POST")

	return apiServer
}

// runServe starts the HTTP server and, if enabled, an ngrok tunnel. It blocks
// until ctx is cancelled or the server fails.
func runServe(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	addr := cmd.String("addr")
	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("addr", addr))

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	simulator, catalog := newSimulator(cmd.String("missions-dir"), logger)

	hub := websocket.NewHub(logger)
	go hub.Run(ctx)

	if catalog != nil {
		if err := watchMissions(ctx, catalog, hub, logger); err != nil {
			logger.Warn("mission watcher disabled", zap.Error(err))
		}
	}

	handler := newHTTPHandler(simulator, hub, logger, "http://"+addr)

	httpServer := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	wg.Add(1)
	go func() {
		defer wg.Done()

		logger.Info("HTTP server listening",
			zap.String("api", "http://"+addr+"/api"),
			zap.String("websocket", "ws://"+addr+"/ws?channel=all"),
			zap.String("mcp", "http://"+addr+"/mcp"))

		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- fmt.Errorf("HTTP server failed: %w", err)
		}
	}()

	if cmd.Bool("ngrok") {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runNgrok(ctx, logger, cmd.String("ngrok-auth"), cmd.String("ngrok-domain"), handler)
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err = <-serverErr:
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if shutdownErr := httpServer.Shutdown(shutdownCtx); shutdownErr != nil {
		logger.Warn("HTTP server shutdown error", zap.Error(shutdownErr))
	}

	wg.Wait()
	logger.Info("server stopped")
	return err
}

// runNgrok serves handler through an ngrok tunnel until ctx is cancelled
func runNgrok(ctx context.Context, logger *zap.Logger, authToken, domain string, handler http.Handler) {
	if authToken == "" {
		logger.Warn("ngrok enabled but no auth token provided (use --ngrok-auth or NGROK_AUTHTOKEN)")
		return
	}

	var tunnel ngrokConfig.Tunnel
	if domain != "" {
		tunnel = ngrokConfig.HTTPEndpoint(ngrokConfig.WithDomain(domain))
		logger.Info("using custom ngrok domain", zap.String("domain", domain))
	} else {
		tunnel = ngrokConfig.HTTPEndpoint()
	}

	tun, err := ngrok.Listen(ctx, tunnel, ngrok.WithAuthtoken(authToken))
	if err != nil {
		logger.Error("failed to start ngrok tunnel", zap.Error(err))
		return
	}

	// http.Serve only returns once the tunnel is closed
	go func() {
		<-ctx.Done()
		if err := tun.Close(); err != nil {
			logger.Warn("failed to close ngrok tunnel", zap.Error(err))
		}
	}()

	url := tun.URL()
	logger.Info("ngrok tunnel established",
		zap.String("url", url),
		zap.String("api", url+"/api"),
		zap.String("websocket", url+"/ws?channel=all"),
		zap.String("mcp", url+"/mcp"))

	if err := http.Serve(tun, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
		logger.Error("ngrok server error", zap.Error(err))
	}
	logger.Info("ngrok tunnel closed")
}

// apiReachable reports whether a REST API answers its health check at baseURL
func apiReachable(baseURL string) bool {
	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get(baseURL + "/api/health")
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode < 500
}

// runMCP runs an MCP stdio server. It reuses the API at --api-url when one
// answers; otherwise it starts an internal HTTP API on a random loopback
// port and targets that.
func runMCP(ctx context.Context, cmd *cli.Command) error {
	logger, err := newLogger(cmd.Bool("debug"))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()

	baseURL := cmd.String("api-url")
	if apiReachable(baseURL) {
		logger.Info("using external API server", zap.String("url", baseURL))
	} else {
		listener, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			return fmt.Errorf("failed to get available port: %w", err)
		}

		simulator, _ := newSimulator(cmd.String("missions-dir"), logger)
		httpServer := &http.Server{Handler: api.NewServer(simulator, nil, logger)}

		go func() {
			if err := httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
				logger.Error("internal HTTP server error", zap.Error(err))
			}
		}()
		defer httpServer.Close()

		baseURL = "http://" + listener.Addr().String()
		logger.Info("started internal API server", zap.String("url", baseURL))
	}

	mcpClient := mcp.NewClient(baseURL)

	logger.Info("MCP stdio server ready")
	if err := server.ServeStdio(mcpClient.GetMCPServer()); err != nil {
		return fmt.Errorf("MCP stdio server error: %w", err)
	}
	return nil
}
