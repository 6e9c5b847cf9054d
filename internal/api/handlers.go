package api

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"adhypo/domain/core"
	"adhypo/domain/evaluation"
	"adhypo/domain/run"
	"adhypo/internal/errors"
	"adhypo/internal/orchestrator"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type createRunRequest struct {
	Query    string `json:"query" binding:"required,max=2000"`
	DataPath string `json:"data_path"`
	Async    bool   `json:"async"`
}

type createRunResponse struct {
	RunID  core.RunID `json:"run_id"`
	Status string     `json:"status"`
	Events string     `json:"events"`
}

func (s *Server) createRun(c *gin.Context) {
	var req createRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, errors.ValidationError(err.Error()))
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeError(c, errors.InvalidInput("query must not be blank"))
		return
	}
	if req.DataPath == "" {
		req.DataPath = s.opts.DataPath
	}

	id := core.NewRunID()
	if req.Async {
		s.startBackground(id, req)
		c.JSON(http.StatusAccepted, createRunResponse{
			RunID:  id,
			Status: "running",
			Events: fmt.Sprintf("/api/runs/%s/events", id),
		})
		return
	}

	res, err := s.execute(c.Request.Context(), id, req)
	if res == nil {
		writeError(c, err)
		return
	}
	if err != nil {
		// the run finished but a sink could not store it
		c.Header("X-Run-Warning", err.Error())
	}
	c.JSON(http.StatusCreated, res)
}

func (s *Server) startBackground(id core.RunID, req createRunRequest) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx := s.baseCtx
		if s.opts.RunTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.opts.RunTimeout)
			defer cancel()
		}
		if _, err := s.execute(ctx, id, req); err != nil {
			s.logger.Warn("background run ended with error", "run_id", id, "error", err)
		}
	}()
}

// execute runs the analysis and publishes its progress
func (s *Server) execute(ctx context.Context, id core.RunID, req createRunRequest) (*run.Result, error) {
	attempted := 0
	res, err := s.runner.Execute(ctx, orchestrator.Request{
		ID:       id,
		Query:    req.Query,
		DataPath: req.DataPath,
		OnTask: func(e run.LogEntry) {
			attempted++
			entry := e
			s.hub.Publish(RunEvent{RunID: id, EventType: EventTask, Task: &entry, Data: map[string]any{"attempted": attempted}})
		},
	})
	if res == nil {
		if err == nil {
			err = errors.InternalError("run produced no result")
		}
		s.hub.Publish(RunEvent{RunID: id, EventType: EventFailed, Status: run.StatusFailed, Error: err.Error()})
		return nil, err
	}
	final := RunEvent{RunID: id, EventType: EventCompleted, Status: res.Status, Data: map[string]any{
		"evaluations": len(res.Evaluations),
		"failed":      len(res.Failed()),
	}}
	if err != nil {
		final.Error = err.Error()
	}
	s.hub.Publish(final)
	return res, err
}

func (s *Server) listRuns(c *gin.Context) {
	limit := defaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxListLimit {
			writeError(c, errors.InvalidInput(fmt.Sprintf("limit must be between 1 and %d", maxListLimit)))
			return
		}
		limit = n
	}
	runs, err := s.runs.List(c.Request.Context(), limit)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "count": len(runs)})
}

func (s *Server) getRun(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	res, err := s.runs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) listEvaluations(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	var verdict evaluation.Verdict
	if raw := c.Query("verdict"); raw != "" {
		v, ok := evaluation.ParseVerdict(strings.ToUpper(raw))
		if !ok {
			writeError(c, errors.InvalidInput(fmt.Sprintf("unknown verdict %q", raw)))
			return
		}
		verdict = v
	}
	evals, err := s.runs.ListEvaluations(c.Request.Context(), id, verdict)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run_id": id, "evaluations": evals, "count": len(evals)})
}

func (s *Server) streamEvents(c *gin.Context) {
	id, ok := runID(c)
	if !ok {
		return
	}
	s.hub.Stream(c, id)
}

func runID(c *gin.Context) (core.RunID, bool) {
	id, err := core.ParseRunID(c.Param("id"))
	if err != nil {
		writeError(c, errors.InvalidInput(err.Error()))
		return "", false
	}
	return id, true
}

// writeError maps an error to its HTTP status and a JSON body
func writeError(c *gin.Context, err error) {
	code := errors.GetCode(err)
	if !errors.IsAppError(err) && core.IsNotFoundError(err) {
		code = errors.CodeNotFound
	}
	c.AbortWithStatusJSON(httpStatus(code), gin.H{"error": err.Error(), "code": code})
}

func httpStatus(code string) int {
	switch code {
	case errors.CodeInvalidInput, errors.CodeValidationError:
		return http.StatusBadRequest
	case errors.CodeNotFound:
		return http.StatusNotFound
	case errors.CodeDataUnavailable, errors.CodeSchedulingError:
		return http.StatusUnprocessableEntity
	case errors.CodeExternalService:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}
