package helpers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"interview_backend/internal/app"
	"interview_backend/internal/config"
	"interview_backend/internal/database/dbtest"
	"interview_backend/internal/services"
	"interview_backend/internal/workers"

	"gorm.io/gorm"
)

type TestServer struct {
	Server    *httptest.Server
	DB        *gorm.DB
	Queue     *workers.InlineQueue
	Worker    *workers.MatchWorker
	Container *services.ServiceContainer
}

// NewTestServer starts the full router against a private in-memory database.
// Fan-out tasks land in Queue; call DrainQueue to run them.
func NewTestServer(t *testing.T) *TestServer {
	t.Helper()

	cfg := &config.Config{}
	cfg.Matching.ScoringConcurrency = 2

	db := dbtest.Open(t)
	queue := workers.NewInlineQueue(64)
	container := app.NewServiceContainer(cfg, queue, services.NopPublisher{})
	worker := workers.NewMatchWorker(db, container.MatchingService, queue, 0, 1)

	server := httptest.NewServer(app.SetupRouter(db, nil, container))
	t.Cleanup(server.Close)

	return &TestServer{
		Server:    server,
		DB:        db,
		Queue:     queue,
		Worker:    worker,
		Container: container,
	}
}

// DrainQueue runs every queued match task synchronously and returns how many ran.
func (ts *TestServer) DrainQueue(t *testing.T) int {
	t.Helper()
	ctx := context.Background()

	ran := 0
	for ts.Queue.Len() > 0 {
		task, err := ts.Queue.Next(ctx)
		if err != nil {
			t.Fatalf("failed to read match task: %v", err)
		}
		if err := ts.Worker.Handle(ctx, task); err != nil {
			t.Fatalf("match task %s (%s) failed: %v", task.ID, task.Kind, err)
		}
		ran++
	}
	return ran
}

func (ts *TestServer) SendRequest(t *testing.T, method, path string, body interface{}) (*http.Response, string) {
	t.Helper()
	url := ts.Server.URL + path

	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := ts.Server.Client().Do(req)
	if err != nil {
		t.Fatalf("failed to send request: %v", err)
	}
	defer res.Body.Close()

	resBodyBytes, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return res, string(resBodyBytes)
}

func decodeJSON(body string, out interface{}) error {
	return json.Unmarshal([]byte(body), out)
}
