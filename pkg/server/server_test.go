package server

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/NERVsystems/tripcarbon/pkg/refdata"
	"github.com/NERVsystems/tripcarbon/pkg/tools"
	"github.com/NERVsystems/tripcarbon/pkg/trip"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	store, err := refdata.Default()
	require.NoError(t, err)
	est, err := trip.NewEstimator(trip.Model{Source: store, Fallbacks: store.Fallbacks()})
	require.NoError(t, err)
	return tools.NewRegistry(testLogger(), est)
}

type rpcResponse struct {
	ID     int             `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  json.RawMessage `json:"error"`
}

func TestNewServer(t *testing.T) {
	s := NewServer(testRegistry(t), testLogger())
	require.NotNil(t, s)
	assert.NotNil(t, s.GetMCPServer())
}

func TestServe_ListsAndCallsTools(t *testing.T) {
	s := NewServer(testRegistry(t), testLogger())

	inR, inW := io.Pipe()
	outR, outW := io.Pipe()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.Serve(ctx, inR, outW)
		outW.Close()
	}()

	responses := make(chan rpcResponse, 8)
	go func() {
		scanner := bufio.NewScanner(outR)
		scanner.Buffer(make([]byte, 1<<20), 1<<20)
		for scanner.Scan() {
			var resp rpcResponse
			if json.Unmarshal(scanner.Bytes(), &resp) == nil && resp.ID != 0 {
				responses <- resp
			}
		}
		close(responses)
	}()

	send := func(id int, method string, params any) {
		msg, err := json.Marshal(map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"method":  method,
			"params":  params,
		})
		require.NoError(t, err)
		_, err = fmt.Fprintf(inW, "%s\n", msg)
		require.NoError(t, err)
	}
	await := func(id int) rpcResponse {
		for {
			select {
			case resp, ok := <-responses:
				require.True(t, ok, "output closed before response %d", id)
				if resp.ID == id {
					return resp
				}
			case <-ctx.Done():
				t.Fatalf("timed out waiting for response %d", id)
			}
		}
	}

	send(1, "initialize", map[string]any{
		"protocolVersion": "2025-03-26",
		"capabilities":    map[string]any{},
		"clientInfo":      map[string]any{"name": "test", "version": "1"},
	})
	initResp := await(1)
	assert.Contains(t, string(initResp.Result), ServerName)

	send(2, "tools/list", map[string]any{})
	list := await(2)
	for _, name := range []string{"estimate_automobile_trip", "describe_committees", "get_version"} {
		assert.Contains(t, string(list.Result), name)
	}

	send(3, "tools/call", map[string]any{
		"name":      "estimate_automobile_trip",
		"arguments": map[string]any{"distance": 10.0, "country": "US"},
	})
	call := await(3)
	assert.Empty(t, call.Error)
	assert.Contains(t, string(call.Result), "carbon")

	s.Shutdown()
	inW.Close()
	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after Shutdown")
	}
	s.WaitForShutdown()
}

func TestServe_AlreadyRunning(t *testing.T) {
	s := NewServer(testRegistry(t), testLogger())
	inR, inW := io.Pipe()
	defer inW.Close()

	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(context.Background(), inR, io.Discard) }()

	require.Eventually(t, func() bool {
		s.mu.Lock()
		defer s.mu.Unlock()
		return s.running
	}, time.Second, 10*time.Millisecond)

	assert.Error(t, s.Serve(context.Background(), inR, io.Discard))

	s.Shutdown()
	inW.Close()
	assert.NoError(t, <-errCh)
}

func TestShutdown_NotRunning(t *testing.T) {
	s := NewServer(testRegistry(t), testLogger())
	s.Shutdown()
	s.WaitForShutdown()
}
