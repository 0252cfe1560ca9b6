package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpopts "github.com/kart-io/astramed/pkg/options/server/http"
	errno "github.com/kart-io/astramed/pkg/utils/errors"
	"github.com/kart-io/astramed/pkg/utils/json"
)

type fakeServer struct {
	name     string
	startErr error
	stopErr  error
	events   *[]string
	errCh    chan error
}

func (f *fakeServer) Name() string { return f.name }

func (f *fakeServer) Start(context.Context) error {
	*f.events = append(*f.events, "start:"+f.name)
	return f.startErr
}

func (f *fakeServer) Stop(context.Context) error {
	*f.events = append(*f.events, "stop:"+f.name)
	return f.stopErr
}

func (f *fakeServer) Err() <-chan error { return f.errCh }

func testHTTPOptions() *httpopts.Options {
	opts := httpopts.NewOptions()
	opts.Addr = "127.0.0.1:0"
	opts.Mode = gin.TestMode
	return opts
}

func TestManager_StartStopOrder(t *testing.T) {
	var events []string
	m := NewManager(time.Second)
	m.Add(&fakeServer{name: "a", events: &events})
	m.Add(&fakeServer{name: "b", events: &events})
	m.OnShutdown(func(context.Context) error {
		events = append(events, "hook")
		return nil
	})

	require.NoError(t, m.Start(context.Background()))
	assert.Error(t, m.Start(context.Background()), "second start must fail")
	require.NoError(t, m.Stop(context.Background()))

	assert.Equal(t, []string{"start:a", "start:b", "stop:b", "stop:a", "hook"}, events)
}

func TestManager_StartFailureRollsBack(t *testing.T) {
	var events []string
	m := NewManager(time.Second)
	m.Add(&fakeServer{name: "a", events: &events})
	m.Add(&fakeServer{name: "b", events: &events, startErr: errors.New("bind failed")})
	m.Add(&fakeServer{name: "c", events: &events})

	err := m.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "b")
	assert.Equal(t, []string{"start:a", "start:b", "stop:a"}, events)
}

func TestManager_StopAggregatesErrors(t *testing.T) {
	var events []string
	m := NewManager(time.Second)
	m.Add(&fakeServer{name: "a", events: &events, stopErr: errors.New("a failed")})
	m.OnShutdown(func(context.Context) error { return errors.New("hook failed") })

	require.NoError(t, m.Start(context.Background()))
	err := m.Stop(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "a failed")
	assert.Contains(t, err.Error(), "hook failed")
}

func TestManager_RunStopsOnContext(t *testing.T) {
	var events []string
	m := NewManager(time.Second)
	m.Add(&fakeServer{name: "a", events: &events, errCh: make(chan error)})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}

func TestManager_RunReturnsServerFailure(t *testing.T) {
	var events []string
	errCh := make(chan error, 1)
	m := NewManager(time.Second)
	m.Add(&fakeServer{name: "a", events: &events, errCh: errCh})

	errCh <- errors.New("serve failed")
	err := m.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "serve failed")
	assert.Equal(t, []string{"start:a", "stop:a"}, events)
}

func TestHTTPServer_ServeAndShutdown(t *testing.T) {
	s := NewHTTPServer(testHTTPOptions())
	s.Engine().GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })

	require.NoError(t, s.Start(context.Background()))
	base := "http://" + s.Addr()

	resp, err := http.Get(base + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "pong", string(body))

	resp, err = http.Get(base + "/nope")
	require.NoError(t, err)
	var envelope struct {
		Code int `json:"code"`
	}
	body, _ = io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	require.NoError(t, json.Unmarshal(body, &envelope))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, errno.ErrRouteNotFound.Code, envelope.Code)

	resp, err = http.Post(base+"/ping", "text/plain", nil)
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))

	_, err = http.Get(base + "/ping")
	assert.Error(t, err)
}

func TestHTTPServer_StartFailsOnBadAddr(t *testing.T) {
	opts := testHTTPOptions()
	opts.Addr = "256.0.0.1:99999"
	s := NewHTTPServer(opts)
	assert.Error(t, s.Start(context.Background()))
}
