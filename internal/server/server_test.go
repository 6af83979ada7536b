package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/kingbrown/caesarstudy/internal/auth"
	"github.com/kingbrown/caesarstudy/internal/database"
	"github.com/kingbrown/caesarstudy/internal/generator"
	"github.com/kingbrown/caesarstudy/internal/handler/health"
	"github.com/kingbrown/caesarstudy/internal/history"
	"github.com/kingbrown/caesarstudy/internal/migrations"
	"github.com/kingbrown/caesarstudy/internal/session"
	"github.com/kingbrown/caesarstudy/internal/study"
)

const testCookie = "study_session"

// fakeModel answers every prompt with well-formed content for its shape.
type fakeModel struct {
	mu   sync.Mutex
	fail bool
}

func (m *fakeModel) setFail(fail bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fail
}

func (m *fakeModel) Generate(_ context.Context, _ string, shape generator.Shape) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", errors.New("connection refused")
	}

	switch shape {
	case generator.ShapeQAList:
		return `[{"question":"Who says 'Beware the ides of March'?","answer":"The soothsayer."},` +
			`{"question":"Whom does Cassius flatter?","answer":"Brutus."}]`, nil
	case generator.ShapeQuizList:
		data, _ := json.Marshal(quizQuestions())
		return string(data), nil
	default:
		return "Brutus joins for the good of Rome.", nil
	}
}

func quizQuestions() []study.QuizQuestion {
	qs := make([]study.QuizQuestion, 10)
	for i := range qs {
		qs[i] = study.QuizQuestion{
			Question: "Who kills Caesar first?",
			Options:  []string{"a) Casca", "b) Brutus", "c) Cassius", "d) Antony"},
			Answer:   "a) Casca",
		}
	}
	return qs
}

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type testEnv struct {
	srv    *httptest.Server
	client *http.Client
	model  *fakeModel
}

func newEnv(t *testing.T, configured bool) *testEnv {
	t.Helper()
	logger := discard()
	model := &fakeModel{}

	opts := Options{
		Configured:    configured,
		RequiredKeys:  []string{"STORE_URL"},
		SessionCookie: testCookie,
		Checks:        map[string]health.Checker{},
	}

	deps := session.Deps{
		Generator: generator.NewAdapter(model, logger),
		Broker:    session.NewBroker(),
		SaveDelay: time.Hour,
		Logger:    logger,
	}

	if configured {
		db, err := database.Open(context.Background(), ":memory:", "")
		if err != nil {
			t.Fatalf("open db: %v", err)
		}
		t.Cleanup(func() { db.Close() })
		if err := migrations.Run(context.Background(), db); err != nil {
			t.Fatalf("migrations: %v", err)
		}
		deps.Provider = auth.NewAccountStore(db)
		opts.Checks["store"] = health.DB(db)
		opts.History = history.NewStore(db, logger)
	} else {
		opts.History = history.NewStore(nil, logger)
	}
	deps.Saver = opts.History

	opts.Broker = deps.Broker
	opts.Clients = session.NewRegistry(deps)
	t.Cleanup(func() { opts.Clients.Close() })

	srv := httptest.NewServer(NewHandler(logger, opts))
	t.Cleanup(srv.Close)

	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookie jar: %v", err)
	}
	return &testEnv{srv: srv, client: &http.Client{Jar: jar}, model: model}
}

// do sends a JSON request and decodes the JSON response into out, if given.
func (e *testEnv) do(t *testing.T, method, path string, body, out any) int {
	t.Helper()
	var rd io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("encoding body: %v", err)
		}
		rd = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := e.client.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decoding response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func (e *testEnv) signUp(t *testing.T, email string) {
	t.Helper()
	status := e.do(t, http.MethodPost, "/api/auth/signup", SignUpRequest{
		Email: email, Password: "ides-of-march", ConfirmPassword: "ides-of-march",
	}, nil)
	if status != http.StatusCreated {
		t.Fatalf("sign up status = %d, want %d", status, http.StatusCreated)
	}
}
