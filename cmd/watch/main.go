// Command watch subscribes to the rover API's websocket feed and prints one
// line per published simulation result.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/websocket"
	"github.com/urfave/cli/v3"

	hub "github.com/wricardo/mars-rover/transport/websocket"
)

// subscribeURL adds the channel query parameter to the websocket URL
func subscribeURL(base, channel string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid websocket URL: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return "", fmt.Errorf("invalid websocket URL %q: scheme must be ws or wss", base)
	}
	if channel != "" {
		q := u.Query()
		q.Set("channel", channel)
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// formatMessage renders one feed message as a single line
func formatMessage(msg hub.Message) string {
	if msg.Event != hub.EventSimulationResult || msg.Result == nil {
		if msg.Data != nil {
			return fmt.Sprintf("[%s] %s %v", msg.Channel, msg.Event, msg.Data)
		}
		return fmt.Sprintf("[%s] %s", msg.Channel, msg.Event)
	}

	r := msg.Result
	label := r.Channel()
	input := fmt.Sprintf("%s | %s | %s", r.Input.Grid, r.Input.Start, r.Input.Instructions)
	if r.Success {
		return fmt.Sprintf("[%s] %s -> %s", label, input, r.Output)
	}
	return fmt.Sprintf("[%s] %s -> FAILED at %s (%s)", label, input, r.Stage, r.ErrorCode)
}

// watch prints feed messages to w until ctx is done or the server closes the
// connection.
func watch(ctx context.Context, wsURL string, w io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to websocket: %w", err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return fmt.Errorf("websocket read error: %w", err)
		}

		// The hub batches queued messages into one frame
		for _, line := range bytes.Split(data, []byte{'\n'}) {
			if len(bytes.TrimSpace(line)) == 0 {
				continue
			}
			var msg hub.Message
			if err := json.Unmarshal(line, &msg); err != nil {
				fmt.Fprintf(w, "unreadable message: %v\n", err)
				continue
			}
			fmt.Fprintln(w, formatMessage(msg))
		}
	}
}

func main() {
	cmd := &cli.Command{
		Name:  "watch",
		Usage: "print simulation results as the API publishes them",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "url",
				Value:   "ws://localhost:8080/ws",
				Usage:   "rover API websocket URL",
				Sources: cli.EnvVars("ROVER_WS_URL"),
			},
			&cli.StringFlag{
				Name:  "channel",
				Value: hub.AllChannel,
				Usage: "mission ID, \"adhoc\" or \"all\"",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			wsURL, err := subscribeURL(cmd.String("url"), cmd.String("channel"))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.Root().ErrWriter, "Watching %s\n", wsURL)
			return watch(ctx, wsURL, cmd.Root().Writer)
		},
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
