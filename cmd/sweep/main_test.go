package main

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wricardo/mars-rover/api"
	"github.com/wricardo/mars-rover/rover/engine"
	"github.com/wricardo/mars-rover/rover/service"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(api.NewServer(service.NewSimulator(nil), nil, nil))
	t.Cleanup(srv.Close)
	return srv
}

func TestSweep_SingleMove(t *testing.T) {
	client := NewClient(newTestServer(t).URL)

	report, err := Sweep(context.Background(), client, "22", "M")
	require.NoError(t, err)

	assert.Equal(t, 16, report.Total)
	assert.Equal(t, 8, report.Succeeded)

	// Rows are indexed from y=1
	assert.Equal(t, [][]byte{[]byte(".."), []byte("yy")}, report.Marks[engine.North])
	assert.Equal(t, [][]byte{[]byte(".x"), []byte(".x")}, report.Marks[engine.East])
	assert.Equal(t, [][]byte{[]byte("yy"), []byte("..")}, report.Marks[engine.South])
	assert.Equal(t, [][]byte{[]byte("x."), []byte("x.")}, report.Marks[engine.West])
}

func TestSweep_Write(t *testing.T) {
	client := NewClient(newTestServer(t).URL)

	report, err := Sweep(context.Background(), client, "22", "M")
	require.NoError(t, err)

	var out bytes.Buffer
	report.Write(&out)

	expected := "Sweep of M on 2x2 (16 starts, 8 ok)\n" +
		"\nHeading N\n  2 y y\n  1 . .\n    1 2\n" +
		"\nHeading E\n  2 . x\n  1 . x\n    1 2\n" +
		"\nHeading S\n  2 . .\n  1 y y\n    1 2\n" +
		"\nHeading W\n  2 x .\n  1 x .\n    1 2\n"
	assert.Equal(t, expected, out.String())
}

func TestSweep_InvalidGrid(t *testing.T) {
	_, err := Sweep(context.Background(), NewClient("http://unused"), "0", "M")
	assert.ErrorIs(t, err, engine.ErrInvalidGridSize)
}

func TestSweep_OtherFailures(t *testing.T) {
	client := NewClient(newTestServer(t).URL)

	report, err := Sweep(context.Background(), client, "11", "MQ")
	require.NoError(t, err)
	assert.Equal(t, 0, report.Succeeded)
	assert.Equal(t, []byte("?"), report.Marks[engine.North][0])
}

func TestClient_Simulate_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Simulate(context.Background(), service.SimulateRequest{Grid: "22"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
}
