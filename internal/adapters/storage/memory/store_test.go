package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prepwise/interview-agent/internal/adapters/storage/memory"
	"github.com/prepwise/interview-agent/internal/domain"
)

func TestCreateAndGetSession(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	session := domain.NewSession("s1", "Backend Engineer", domain.DifficultyMedium, "General", time.Now())
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "s1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.Role != "Backend Engineer" {
		t.Fatalf("unexpected role %q", got.Role)
	}

	// Mutating the returned session must not reach the store.
	got.Role = "changed"
	again, _ := store.GetSession(ctx, "s1")
	if again.Role != "Backend Engineer" {
		t.Fatalf("store handed out a shared session")
	}
}

func TestGetSessionNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	if _, err := store.GetSession(ctx, "missing"); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := store.UpdateSession(ctx, domain.NewSession("missing", "x", domain.DifficultyEasy, "t", time.Now())); !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on update, got %v", err)
	}
}

func TestAppendQuestionAssignsOrder(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	session := domain.NewSession("s1", "Backend Engineer", domain.DifficultyMedium, "General", time.Now())
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	q1, err := store.AppendQuestion(ctx, "s1", "Q1")
	if err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}
	if err := store.AppendAnswer(ctx, "s1", "A1", nil); err != nil {
		t.Fatalf("AppendAnswer failed: %v", err)
	}
	q2, err := store.AppendQuestion(ctx, "s1", "Q2")
	if err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}

	if q1.Order != 1 || q2.Order != 2 {
		t.Fatalf("expected orders 1 and 2, got %d and %d", q1.Order, q2.Order)
	}
}

func TestAppendAnswerOnlyLatestQuestion(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	session := domain.NewSession("s1", "Backend Engineer", domain.DifficultyMedium, "General", time.Now())
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	if err := store.AppendAnswer(ctx, "s1", "A0", nil); err == nil {
		t.Fatalf("answering with no questions must fail")
	}

	if _, err := store.AppendQuestion(ctx, "s1", "Q1"); err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}
	four := 4
	if err := store.AppendAnswer(ctx, "s1", "A1", &four); err != nil {
		t.Fatalf("AppendAnswer failed: %v", err)
	}

	// Re-answering the latest question overwrites; a retried turn must
	// not wedge on previously persisted state.
	eight := 8
	if err := store.AppendAnswer(ctx, "s1", "A1 retried", &eight); err != nil {
		t.Fatalf("re-answering the latest question must be accepted: %v", err)
	}

	mean, err := store.MeanScore(ctx, "s1")
	if err != nil {
		t.Fatalf("MeanScore failed: %v", err)
	}
	if mean != 8.0 {
		t.Fatalf("overwrite must replace the score, got mean %v", mean)
	}
}

func TestMeanScore(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	session := domain.NewSession("s1", "Backend Engineer", domain.DifficultyMedium, "General", time.Now())
	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	mean, err := store.MeanScore(ctx, "s1")
	if err != nil {
		t.Fatalf("MeanScore failed: %v", err)
	}
	if mean != 0 {
		t.Fatalf("expected 0 with no answers, got %v", mean)
	}

	seven, nine := 7, 9
	if _, err := store.AppendQuestion(ctx, "s1", "Q1"); err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}
	if err := store.AppendAnswer(ctx, "s1", "A1", &seven); err != nil {
		t.Fatalf("AppendAnswer failed: %v", err)
	}
	if _, err := store.AppendQuestion(ctx, "s1", "Q2"); err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}
	if err := store.AppendAnswer(ctx, "s1", "A2", &nine); err != nil {
		t.Fatalf("AppendAnswer failed: %v", err)
	}
	if _, err := store.AppendQuestion(ctx, "s1", "Q3"); err != nil {
		t.Fatalf("AppendQuestion failed: %v", err)
	}
	if err := store.AppendAnswer(ctx, "s1", "unscored", nil); err != nil {
		t.Fatalf("AppendAnswer failed: %v", err)
	}

	mean, err = store.MeanScore(ctx, "s1")
	if err != nil {
		t.Fatalf("MeanScore failed: %v", err)
	}
	if mean != 8.0 {
		t.Fatalf("expected mean 8.0 over scored answers only, got %v", mean)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := memory.NewStore()

	base := time.Now()
	for i, id := range []domain.SessionID{"old", "mid", "new"} {
		s := domain.NewSession(id, "Backend Engineer", domain.DifficultyMedium, "General", base.Add(time.Duration(i)*time.Second))
		if err := store.CreateSession(ctx, s); err != nil {
			t.Fatalf("CreateSession(%s) failed: %v", id, err)
		}
	}

	sessions, err := store.ListSessions(ctx, 2)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}
	if sessions[0].ID != "new" || sessions[1].ID != "mid" {
		t.Fatalf("expected newest first, got %s then %s", sessions[0].ID, sessions[1].ID)
	}
}
