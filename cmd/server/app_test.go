package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/phrazzld/careerpath-api/internal/config"
	"github.com/phrazzld/careerpath-api/internal/domain"
	"github.com/phrazzld/careerpath-api/internal/generation"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const goalTokens = 300

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{Port: 0, LogLevel: "debug", ShutdownTimeout: time.Second},
		LLM: config.LLMConfig{
			GeminiAPIKey:        "unused",
			ModelName:           "gemini-2.0-flash",
			RetryDelaySeconds:   1,
			RequestTimeout:      time.Second,
			Temperature:         0.7,
			TopP:                0.9,
			MaxOutputTokens:     2048,
			GoalMaxOutputTokens: goalTokens,
		},
		Scoring: config.ScoringConfig{
			TablePath:            "../../configs/scoring_table.json",
			AchievementQuestions: []string{"question13", "question30"},
		},
		Storage: config.StorageConfig{ReportsDir: t.TempDir(), Format: "html"},
		Task:    config.TaskConfig{WorkerCount: 1, QueueSize: 4},
		Cache:   config.CacheConfig{Size: 16, TTL: time.Minute},
	}
}

// fakeGenerator answers goal prompts with a fixed goal and everything else
// with a short markdown section.
func fakeGenerator(calls *atomic.Int32) generation.ContentGenerator {
	return generation.GeneratorFunc(func(_ context.Context, prompt string, opts generation.Options) (string, error) {
		calls.Add(1)
		if opts.MaxOutputTokens == goalTokens {
			return "Data Scientist", nil
		}
		return "You are **curious** and careful.\n\nKeep exploring statistics.", nil
	})
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestApp(t *testing.T, cfg *config.Config, opts ...appOption) (*application, http.Handler) {
	t.Helper()
	app, err := newApplication(context.Background(), cfg, discardLogger(), opts...)
	require.NoError(t, err)
	t.Cleanup(app.cleanup)
	return app, app.setupRouter()
}

func call(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, target, reader))
	return w
}

func TestApplication_EndToEnd(t *testing.T) {
	var calls atomic.Int32
	_, router := newTestApp(t, testConfig(t), withGenerator(fakeGenerator(&calls)))

	w := call(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = call(t, router, http.MethodPost, "/api/calculate-scores", `{"answers":{"question1":"D"}}`)
	require.Equal(t, http.StatusOK, w.Code)
	var scores struct {
		TraitScores map[string]float64 `json:"trait_scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scores))
	assert.Greater(t, scores.TraitScores["Analytical Thinking"], 0.0)
	assert.Zero(t, calls.Load(), "scoring does not call the generator")

	w = call(t, router, http.MethodPost, "/api/submit-assessment",
		`{"answers":{"question1":"A","question13":"Robotics club captain"},"studentName":"Ana Lopez","age":17}`)
	require.Equal(t, http.StatusAccepted, w.Code)
	var submitted struct {
		Message string `json:"message"`
		TaskID  string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))
	assert.Equal(t, "Report generation started", submitted.Message)
	require.NotEmpty(t, submitted.TaskID)

	var status struct {
		Status    string `json:"status"`
		ReportURL string `json:"report_url"`
		Error     string `json:"error"`
	}
	require.Eventually(t, func() bool {
		w := call(t, router, http.MethodGet, "/api/task-status/"+submitted.TaskID, "")
		if w.Code != http.StatusOK {
			return false
		}
		if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
			return false
		}
		return status.Status != "processing"
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, "completed", status.Status, status.Error)
	assert.Equal(t, "/api/download-report/Ana_Lopez_Career_Report.html", status.ReportURL)

	w = call(t, router, http.MethodGet, status.ReportURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment")
	page := w.Body.String()
	assert.Contains(t, page, "Career Development Report")
	assert.Contains(t, page, "Ana Lopez")
	assert.Contains(t, page, "Data Scientist")
	assert.Contains(t, page, "<strong>curious</strong>")

	// Task state is stored before metrics observe it, so poll.
	assert.Eventually(t, func() bool {
		w := call(t, router, http.MethodGet, "/metrics", "")
		return w.Code == http.StatusOK &&
			strings.Contains(w.Body.String(),
				`careerpath_tasks_finished_total{status="completed",task_type="report_generation"} 1`) &&
			strings.Contains(w.Body.String(), "careerpath_task_queue_depth 0")
	}, 2*time.Second, 10*time.Millisecond)
}

func TestApplication_EmptyAnswersScoreZero(t *testing.T) {
	var calls atomic.Int32
	_, router := newTestApp(t, testConfig(t), withGenerator(fakeGenerator(&calls)))

	w := call(t, router, http.MethodPost, "/api/calculate-scores", `{"answers":{}}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var scores struct {
		Message     string             `json:"message"`
		TraitScores map[string]float64 `json:"trait_scores"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &scores))
	assert.Equal(t, "Skill scores calculated successfully", scores.Message)
	require.Len(t, scores.TraitScores, len(domain.TraitNames()))
	for _, name := range domain.TraitNames() {
		score, ok := scores.TraitScores[name]
		assert.True(t, ok, name)
		assert.Zero(t, score, name)
	}

	for _, body := range []string{`{"answers":""}`, `{"answers":0}`, `{"answers":false}`, `{"answers":[]}`} {
		w := call(t, router, http.MethodPost, "/api/calculate-scores", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.JSONEq(t, `{"error":"Invalid answers format"}`, stripTrace(t, w.Body.Bytes()), body)
	}

	w = call(t, router, http.MethodPost, "/api/calculate-scores", `{"answers":null}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.JSONEq(t, `{"error":"Missing answers data"}`, stripTrace(t, w.Body.Bytes()))
}

func TestApplication_EmptyAnswersReport(t *testing.T) {
	var calls atomic.Int32
	_, router := newTestApp(t, testConfig(t), withGenerator(fakeGenerator(&calls)))

	w := call(t, router, http.MethodPost, "/api/submit-assessment", `{"answers":{}}`)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	var submitted struct {
		TaskID string `json:"task_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &submitted))

	var status struct {
		Status    string `json:"status"`
		ReportURL string `json:"report_url"`
		Error     string `json:"error"`
	}
	require.Eventually(t, func() bool {
		w := call(t, router, http.MethodGet, "/api/task-status/"+submitted.TaskID, "")
		return json.Unmarshal(w.Body.Bytes(), &status) == nil && status.Status != "processing"
	}, 5*time.Second, 10*time.Millisecond)

	require.Equal(t, "completed", status.Status, status.Error)
	assert.Equal(t, "/api/download-report/Student_Career_Report.html", status.ReportURL)

	w = call(t, router, http.MethodGet, status.ReportURL, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), domain.DefaultCareerGoal)
}

func TestApplication_UnknownTaskAndFile(t *testing.T) {
	var calls atomic.Int32
	_, router := newTestApp(t, testConfig(t), withGenerator(fakeGenerator(&calls)))

	w := call(t, router, http.MethodGet, "/api/task-status/not-a-task", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"Task not found"}`, stripTrace(t, w.Body.Bytes()))

	w = call(t, router, http.MethodGet, "/api/download-report/Nobody_Career_Report.html", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.JSONEq(t, `{"error":"File not found"}`, stripTrace(t, w.Body.Bytes()))
}

// stripTrace drops the trace id so bodies can be compared exactly.
func stripTrace(t *testing.T, body []byte) string {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &m))
	delete(m, "trace_id")
	out, err := json.Marshal(m)
	require.NoError(t, err)
	return string(out)
}

func TestApplication_RedisTier(t *testing.T) {
	mr := miniredis.RunT(t)

	cfg := testConfig(t)
	cfg.Cache.RedisURL = "redis://" + mr.Addr()
	reg := prometheus.NewRegistry()

	var calls atomic.Int32
	app, _ := newTestApp(t, cfg, withGenerator(fakeGenerator(&calls)), withRegistry(reg))
	require.NotNil(t, app.redis, "reachable redis is used as a cache tier")

	_, err := app.generator.Generate(context.Background(), "prompt", generation.Options{})
	require.NoError(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(app.metrics.CacheLookups.WithLabelValues("redis", "miss")))
	assert.NotEmpty(t, mr.Keys(), "generated text is written through to redis")
}

func TestApplication_RedisUnreachable(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.RedisURL = "redis://127.0.0.1:1"

	var calls atomic.Int32
	app, _ := newTestApp(t, cfg, withGenerator(fakeGenerator(&calls)))
	assert.Nil(t, app.redis, "startup continues without the shared tier")
}

func TestNewApplication_Failures(t *testing.T) {
	var calls atomic.Int32

	t.Run("missing scoring table", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Scoring.TablePath = "does-not-exist.json"
		_, err := newApplication(context.Background(), cfg, discardLogger(), withGenerator(fakeGenerator(&calls)))
		assert.ErrorContains(t, err, "failed to load scoring table")
	})

	t.Run("unsupported format", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.Storage.Format = "docx"
		_, err := newApplication(context.Background(), cfg, discardLogger(), withGenerator(fakeGenerator(&calls)))
		assert.ErrorContains(t, err, "unsupported report format")
	})

	t.Run("invalid gemini config", func(t *testing.T) {
		cfg := testConfig(t)
		cfg.LLM.GeminiAPIKey = ""
		_, err := newApplication(context.Background(), cfg, discardLogger())
		assert.ErrorContains(t, err, "failed to initialize LLM generator")
	})
}
