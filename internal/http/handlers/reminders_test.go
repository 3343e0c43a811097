package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/nvarela/terapia-platform/internal/reminders"
)

type stubSweeper struct {
	result reminders.Result
	err    error
	runs   int
}

func (s *stubSweeper) Run(_ context.Context) (reminders.Result, error) {
	s.runs++
	return s.result, s.err
}

func runTrigger(h *RemindersHandler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/internal/reminders/run", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.Run(rec, req)
	return rec
}

func TestRemindersRunRequiresSecret(t *testing.T) {
	sweeper := &stubSweeper{}
	h := NewRemindersHandler(sweeper, "s3cret", nil)

	for _, token := range []string{"", "wrong"} {
		rec := runTrigger(h, token)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401 for token %q, got %d", token, rec.Code)
		}
	}
	if sweeper.runs != 0 {
		t.Fatalf("sweep must not run unauthorized")
	}
}

func TestRemindersRunWithValidSecret(t *testing.T) {
	sweeper := &stubSweeper{result: reminders.Result{Sent24h: 3, Sent1h: 1}}
	h := NewRemindersHandler(sweeper, "s3cret", nil)

	rec := runTrigger(h, "s3cret")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if sweeper.runs != 1 {
		t.Fatalf("expected one run, got %d", sweeper.runs)
	}
	if !strings.Contains(rec.Body.String(), `"sent_24h":3`) {
		t.Fatalf("expected result payload, got %s", rec.Body.String())
	}
}

func TestRemindersRunSweepFailure(t *testing.T) {
	sweeper := &stubSweeper{err: errors.New("db down")}
	h := NewRemindersHandler(sweeper, "s3cret", nil)

	rec := runTrigger(h, "s3cret")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestRemindersRunUnconfigured(t *testing.T) {
	h := NewRemindersHandler(&stubSweeper{}, "", nil)
	rec := runTrigger(h, "anything")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}
