package api

import (
	"bufio"
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"adhypo/domain/core"
	"adhypo/domain/evaluation"
	"adhypo/domain/plan"
	"adhypo/domain/run"
	"adhypo/internal/errors"
	"adhypo/internal/orchestrator"
	"adhypo/ports"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeRunner struct {
	requests []orchestrator.Request
	err      error
	fatal    bool
}

func (f *fakeRunner) Execute(ctx context.Context, req orchestrator.Request) (*run.Result, error) {
	f.requests = append(f.requests, req)
	if f.fatal {
		return nil, f.err
	}
	entry := run.LogEntry{TaskID: "task_1", Task: "Analyze data", Role: plan.RoleDataAnalysis, Status: run.TaskSucceeded}
	if req.OnTask != nil {
		req.OnTask(entry)
	}
	return &run.Result{ID: req.ID, Query: req.Query, Status: run.StatusCompleted, ExecutionLog: []run.LogEntry{entry}}, f.err
}

type mockRuns struct{ mock.Mock }

func (m *mockRuns) Save(ctx context.Context, r *run.Result) error {
	return m.Called(ctx, r).Error(0)
}

func (m *mockRuns) Get(ctx context.Context, id core.RunID) (*run.Result, error) {
	args := m.Called(ctx, id)
	res, _ := args.Get(0).(*run.Result)
	return res, args.Error(1)
}

func (m *mockRuns) List(ctx context.Context, limit int) ([]ports.RunSummary, error) {
	args := m.Called(ctx, limit)
	out, _ := args.Get(0).([]ports.RunSummary)
	return out, args.Error(1)
}

func (m *mockRuns) ListEvaluations(ctx context.Context, id core.RunID, verdict evaluation.Verdict) ([]evaluation.Evaluation, error) {
	args := m.Called(ctx, id, verdict)
	out, _ := args.Get(0).([]evaluation.Evaluation)
	return out, args.Error(1)
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	s := NewServer(&fakeRunner{}, &mockRuns{}, Options{}, nil)
	w := do(t, s, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestCreateRunSynchronous(t *testing.T) {
	runner := &fakeRunner{}
	s := NewServer(runner, &mockRuns{}, Options{DataPath: "data/ads.csv"}, nil)

	w := do(t, s, http.MethodPost, "/api/runs", `{"query":"Why did ROAS drop?"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var res run.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, run.StatusCompleted, res.Status)
	require.Len(t, runner.requests, 1)
	assert.Equal(t, "data/ads.csv", runner.requests[0].DataPath, "falls back to the configured dataset")
	assert.Equal(t, res.ID, runner.requests[0].ID)
}

func TestCreateRunSinkWarning(t *testing.T) {
	s := NewServer(&fakeRunner{err: stderrors.New("disk full")}, &mockRuns{}, Options{}, nil)
	w := do(t, s, http.MethodPost, "/api/runs", `{"query":"ctr","data_path":"x.csv"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Header().Get("X-Run-Warning"), "disk full")
}

func TestCreateRunErrors(t *testing.T) {
	tests := []struct {
		name   string
		runner *fakeRunner
		body   string
		status int
		code   string
	}{
		{"missing query", &fakeRunner{}, `{}`, http.StatusBadRequest, errors.CodeValidationError},
		{"blank query", &fakeRunner{}, `{"query":"   "}`, http.StatusBadRequest, errors.CodeInvalidInput},
		{"malformed body", &fakeRunner{}, `{"query":`, http.StatusBadRequest, errors.CodeValidationError},
		{"no result", &fakeRunner{fatal: true}, `{"query":"roas"}`, http.StatusInternalServerError, errors.CodeInternalError},
		{
			"dataset unavailable",
			&fakeRunner{fatal: true, err: errors.DataUnavailable("x.csv", stderrors.New("no such file"))},
			`{"query":"roas"}`, http.StatusUnprocessableEntity, errors.CodeDataUnavailable,
		},
		{
			"cyclic plan",
			&fakeRunner{fatal: true, err: errors.SchedulingError(core.ErrCycleDetected)},
			`{"query":"roas"}`, http.StatusUnprocessableEntity, errors.CodeSchedulingError,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewServer(tt.runner, &mockRuns{}, Options{}, nil)
			w := do(t, s, http.MethodPost, "/api/runs", tt.body)
			assert.Equal(t, tt.status, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.code, body["code"])
		})
	}
}

func TestCreateRunAsyncPublishesEvents(t *testing.T) {
	s := NewServer(&fakeRunner{}, &mockRuns{}, Options{}, nil)

	w := do(t, s, http.MethodPost, "/api/runs", `{"query":"roas","async":true}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var resp createRunResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "running", resp.Status)
	assert.Equal(t, fmt.Sprintf("/api/runs/%s/events", resp.RunID), resp.Events)

	s.Wait()
	events, cancel := s.Events().Subscribe(resp.RunID)
	defer cancel()
	last, ok := <-events
	require.True(t, ok)
	assert.Equal(t, EventCompleted, last.EventType)
	assert.Equal(t, run.StatusCompleted, last.Status)
}

func TestListRuns(t *testing.T) {
	runs := &mockRuns{}
	runs.On("List", mock.Anything, 20).Return([]ports.RunSummary{{ID: core.NewRunID(), Query: "roas"}}, nil).Once()
	runs.On("List", mock.Anything, 5).Return([]ports.RunSummary{}, nil).Once()
	s := NewServer(&fakeRunner{}, runs, Options{}, nil)

	w := do(t, s, http.MethodGet, "/api/runs", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"count":1`)

	w = do(t, s, http.MethodGet, "/api/runs?limit=5", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/runs?limit=0", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodGet, "/api/runs?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	runs.AssertExpectations(t)
}

func TestGetRun(t *testing.T) {
	id := core.NewRunID()
	missing := core.NewRunID()
	runs := &mockRuns{}
	runs.On("Get", mock.Anything, id).Return(&run.Result{ID: id, Status: run.StatusPartial}, nil)
	runs.On("Get", mock.Anything, missing).Return(nil, fmt.Errorf("%w: %s", core.ErrRunNotFound, missing))
	s := NewServer(&fakeRunner{}, runs, Options{}, nil)

	w := do(t, s, http.MethodGet, "/api/runs/"+id.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"partial"`)

	w = do(t, s, http.MethodGet, "/api/runs/"+missing.String(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, s, http.MethodGet, "/api/runs/not-a-uuid", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListEvaluationsFiltersByVerdict(t *testing.T) {
	id := core.NewRunID()
	runs := &mockRuns{}
	runs.On("ListEvaluations", mock.Anything, id, evaluation.VerdictSupported).
		Return([]evaluation.Evaluation{{HypothesisID: "hyp_creative_disparity", Verdict: evaluation.VerdictSupported}}, nil)
	runs.On("ListEvaluations", mock.Anything, id, evaluation.Verdict("")).Return([]evaluation.Evaluation{}, nil)
	s := NewServer(&fakeRunner{}, runs, Options{}, nil)

	w := do(t, s, http.MethodGet, "/api/runs/"+id.String()+"/evaluations?verdict=supported", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "hyp_creative_disparity")

	w = do(t, s, http.MethodGet, "/api/runs/"+id.String()+"/evaluations", "")
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, http.MethodGet, "/api/runs/"+id.String()+"/evaluations?verdict=maybe", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	runs.AssertExpectations(t)
}

func TestStreamEventsOverHTTP(t *testing.T) {
	s := NewServer(&fakeRunner{}, &mockRuns{}, Options{}, nil)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	id := core.NewRunID()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/runs/"+id.String()+"/events", nil)
	require.NoError(t, err)

	go func() {
		for s.Events().Subscribers(id) == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		entry := run.LogEntry{TaskID: "task_1", Status: run.TaskSucceeded}
		s.Events().Publish(RunEvent{RunID: id, EventType: EventTask, Task: &entry})
		s.Events().Publish(RunEvent{RunID: id, EventType: EventCompleted, Status: run.StatusCompleted})
	}()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.True(t, strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream"), resp.Header.Get("Content-Type"))

	var names []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		if name, ok := strings.CutPrefix(scanner.Text(), "event:"); ok {
			names = append(names, strings.TrimSpace(name))
		}
	}
	assert.Equal(t, []string{EventTask, EventCompleted}, names)
}

func TestHubReplaysFinalEventToLateSubscribers(t *testing.T) {
	hub := NewEventHub(nil)
	id := core.NewRunID()
	hub.Publish(RunEvent{RunID: id, EventType: EventFailed, Error: "dataset unavailable"})

	events, cancel := hub.Subscribe(id)
	defer cancel()
	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, "dataset unavailable", ev.Error)
	_, ok = <-events
	assert.False(t, ok)
	assert.Zero(t, hub.Subscribers(id))
}

func TestHubCancelUnsubscribes(t *testing.T) {
	hub := NewEventHub(nil)
	id := core.NewRunID()
	_, cancel := hub.Subscribe(id)
	assert.Equal(t, 1, hub.Subscribers(id))
	cancel()
	cancel()
	assert.Zero(t, hub.Subscribers(id))
}

func TestHubForgetsOldestFinishedRuns(t *testing.T) {
	hub := newEventHub(2, nil)
	ids := []core.RunID{core.NewRunID(), core.NewRunID(), core.NewRunID()}
	for _, id := range ids {
		hub.Publish(RunEvent{RunID: id, EventType: EventCompleted, Status: run.StatusCompleted})
	}
	assert.Equal(t, 2, hub.finished.Len())

	// the evicted run gets a live subscription instead of a replay
	_, cancel := hub.Subscribe(ids[0])
	assert.Equal(t, 1, hub.Subscribers(ids[0]))
	cancel()

	events, cancel := hub.Subscribe(ids[2])
	defer cancel()
	ev, ok := <-events
	require.True(t, ok)
	assert.Equal(t, run.StatusCompleted, ev.Status)
	assert.Zero(t, hub.Subscribers(ids[2]))
}
