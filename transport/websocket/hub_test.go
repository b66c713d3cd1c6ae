package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/goleak"

	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/service"
)

func newTestClient(hub *Hub, channel string) *Client {
	return &Client{
		hub:     hub,
		channel: channel,
		send:    make(chan []byte, bufferSize),
	}
}

func sampleResult(mission string) *service.SimulationResult {
	return &service.SimulationResult{
		ID:      "result-1",
		Mission: mission,
		Success: true,
		Output:  "1 3 N",
		Final:   &engine.RoverState{Position: engine.Position{X: 1, Y: 3}, Heading: engine.North},
		Stage:   engine.StageDone,
	}
}

func readMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var message Message
		if err := json.Unmarshal(data, &message); err != nil {
			t.Fatalf("Failed to unmarshal message: %v", err)
		}
		return message
	case <-time.After(100 * time.Millisecond):
		t.Fatal("No message received within timeout")
	}
	return Message{}
}

func TestNewHub(t *testing.T) {
	hub := NewHub(nil)

	if hub == nil {
		t.Fatal("NewHub() returned nil")
	}
	if hub.channels == nil {
		t.Error("Hub channels map is nil")
	}
	if hub.broadcast == nil || hub.register == nil || hub.unregister == nil {
		t.Error("Hub channels were not initialised")
	}
	if hub.logger == nil {
		t.Error("Hub logger should default to a no-op logger")
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := NewHub(nil)
	client1 := newTestClient(hub, "spec")
	client2 := newTestClient(hub, "spec")

	hub.registerClient(client1)
	hub.registerClient(client2)

	if len(hub.channels["spec"]) != 2 {
		t.Fatalf("Expected 2 clients in channel, got %d", len(hub.channels["spec"]))
	}

	hub.unregisterClient(client1)
	if !hub.channels["spec"][client2] {
		t.Error("client2 should still be registered")
	}
	if _, ok := <-client1.send; ok {
		t.Error("client1 send channel should be closed")
	}

	hub.unregisterClient(client2)
	if _, exists := hub.channels["spec"]; exists {
		t.Error("Channel should have been cleaned up after last client unregistered")
	}

	// Unregistering twice must not close the send channel again
	hub.unregisterClient(client2)
}

func TestHubBroadcastMessage(t *testing.T) {
	hub := NewHub(nil)
	spec := newTestClient(hub, "spec")
	other := newTestClient(hub, "other")
	hub.registerClient(spec)
	hub.registerClient(other)

	hub.broadcastMessage(&Message{Channel: "spec", Event: EventSimulationResult, Result: sampleResult("spec")})

	message := readMessage(t, spec)
	if message.Channel != "spec" {
		t.Errorf("Expected channel 'spec', got %s", message.Channel)
	}
	if message.Event != EventSimulationResult {
		t.Errorf("Expected event %q, got %s", EventSimulationResult, message.Event)
	}
	if message.Result == nil || message.Result.Output != "1 3 N" {
		t.Errorf("Result not correctly transmitted: %+v", message.Result)
	}
	if message.Result.Final.Heading != engine.North {
		t.Errorf("Expected heading N, got %s", message.Result.Final.Heading)
	}

	select {
	case <-other.send:
		t.Error("Client on another channel should not receive the message")
	default:
	}
}

func TestHubBroadcastDropsSlowClient(t *testing.T) {
	hub := NewHub(nil)
	slow := &Client{hub: hub, channel: "spec", send: make(chan []byte)}
	hub.registerClient(slow)

	hub.broadcastMessage(&Message{Channel: "spec", Event: "ping"})

	if _, exists := hub.channels["spec"]; exists {
		t.Error("Slow client should have been unregistered")
	}
}

func TestHubPublishResult(t *testing.T) {
	tests := []struct {
		name     string
		mission  string
		channels []string
	}{
		{"mission result", "spec", []string{"spec", AllChannel}},
		{"adhoc result", "", []string{service.AdhocChannel, AllChannel}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hub := NewHub(nil)
			hub.PublishResult(sampleResult(tt.mission))

			if len(hub.broadcast) != len(tt.channels) {
				t.Fatalf("Expected %d queued messages, got %d", len(tt.channels), len(hub.broadcast))
			}
			for _, want := range tt.channels {
				message := <-hub.broadcast
				if message.Channel != want {
					t.Errorf("Expected channel %q, got %q", want, message.Channel)
				}
				if message.Result == nil {
					t.Error("Expected result in message")
				}
			}
		})
	}
}

func TestHubPublishNilResult(t *testing.T) {
	hub := NewHub(nil)
	hub.PublishResult(nil)

	if len(hub.broadcast) != 0 {
		t.Errorf("Expected no queued messages, got %d", len(hub.broadcast))
	}
}

func TestHubBroadcastEvent(t *testing.T) {
	hub := NewHub(nil)
	hub.BroadcastEvent("spec", EventCatalogChanged, "spec")

	select {
	case message := <-hub.broadcast:
		if message.Channel != "spec" || message.Event != EventCatalogChanged || message.Data != "spec" {
			t.Errorf("Unexpected message: %+v", message)
		}
	default:
		t.Error("No broadcast message queued")
	}
}

func TestHubQueueFullDrops(t *testing.T) {
	hub := NewHub(nil)
	for i := 0; i < bufferSize+10; i++ {
		hub.BroadcastEvent("spec", "tick", i)
	}

	if len(hub.broadcast) != bufferSize {
		t.Errorf("Expected queue capped at %d, got %d", bufferSize, len(hub.broadcast))
	}
}

func TestHubClientCountStopped(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	if n := hub.ClientCount("spec"); n != 0 {
		t.Errorf("Expected 0 clients after stop, got %d", n)
	}
}

func waitForClients(t *testing.T, hub *Hub, channel string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.ClientCount(channel) == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("Expected %d clients in channel %q, got %d", want, channel, hub.ClientCount(channel))
}

func TestWebSocketLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("channel"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?channel=ws-test"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}

	waitForClients(t, hub, "ws-test", 1)

	conn.Close()

	waitForClients(t, hub, "ws-test", 0)
}

func TestWebSocketReceivesResult(t *testing.T) {
	defer goleak.VerifyNone(t)

	hub := NewHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hub.ServeWS(w, r, r.URL.Query().Get("channel"))
	}))
	defer server.Close()

	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "?channel=" + AllChannel
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	waitForClients(t, hub, AllChannel, 1)

	hub.PublishResult(sampleResult("spec"))

	conn.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("Failed to read WebSocket message: %v", err)
	}

	// Queued messages may be batched, one JSON document per line
	first := strings.SplitN(string(data), "\n", 2)[0]
	var message Message
	if err := json.Unmarshal([]byte(first), &message); err != nil {
		t.Fatalf("Failed to unmarshal message: %v", err)
	}

	if message.Channel != AllChannel {
		t.Errorf("Expected channel %q, got %q", AllChannel, message.Channel)
	}
	if message.Result == nil || message.Result.Mission != "spec" || message.Result.Output != "1 3 N" {
		t.Errorf("Result not correctly received: %+v", message.Result)
	}
}
