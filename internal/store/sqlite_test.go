package store

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/me/neurolens/pkg/model"
)

func testStore(t *testing.T) *SQLiteStore {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}))
	st, err := NewSQLiteStore(":memory:", logger)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	return st
}

func sampleSession() *model.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Session{ID: "sess_test-1", CreatedAt: now, UpdatedAt: now}
}

func sampleRun(sessionID string) *model.Run {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &model.Run{
		ID:        "run_test-1",
		SessionID: sessionID,
		FileName:  "subject01.edf",
		Extension: "edf",
		State:     model.RunStateUploaded,
		CreatedAt: now,
	}
}

func TestMigrateIdempotent(t *testing.T) {
	st := testStore(t)
	if err := st.Migrate(context.Background()); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestSessionCRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	sess := sampleSession()

	if err := st.CreateSession(ctx, sess); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.GetSession(ctx, sess.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if got.LoggedIn || got.Attempts != 0 || !got.CreatedAt.Equal(sess.CreatedAt) {
		t.Errorf("got %+v", got)
	}

	sess.LoggedIn = true
	sess.Username = "test"
	sess.Attempts = 3
	sess.UpdatedAt = sess.UpdatedAt.Add(time.Second)
	if err := st.UpdateSession(ctx, sess); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetSession(ctx, sess.ID)
	if !got.LoggedIn || got.Username != "test" || got.Attempts != 3 || !got.UpdatedAt.Equal(sess.UpdatedAt) {
		t.Errorf("after update: %+v", got)
	}

	if err := st.DeleteSession(ctx, sess.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, err = st.GetSession(ctx, sess.ID)
	if err != nil || got != nil {
		t.Errorf("after delete: %v, %v", got, err)
	}
}

func TestGetSessionMissing(t *testing.T) {
	got, err := testStore(t).GetSession(context.Background(), "sess_nope")
	if err != nil || got != nil {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestUpdateSessionMissing(t *testing.T) {
	if err := testStore(t).UpdateSession(context.Background(), sampleSession()); err == nil {
		t.Error("expected error updating missing session")
	}
}

func TestRunCRUD(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	sess := sampleSession()
	st.CreateSession(ctx, sess)
	run := sampleRun(sess.ID)

	if err := st.CreateRun(ctx, run); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := st.GetRun(ctx, run.ID)
	if err != nil || got == nil {
		t.Fatalf("get: %v, %v", got, err)
	}
	if got.SessionID != sess.ID || got.State != model.RunStateUploaded || got.StartedAt != nil {
		t.Errorf("got %+v", got)
	}

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := run.Start(now); err != nil {
		t.Fatal(err)
	}
	run.Progress = 100
	if err := run.Finish(model.RunStateCompleted, now.Add(3*time.Second)); err != nil {
		t.Fatal(err)
	}
	if err := st.UpdateRun(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, _ = st.GetRun(ctx, run.ID)
	if got.State != model.RunStateCompleted || got.Progress != 100 {
		t.Errorf("after update: %+v", got)
	}
	if got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Errorf("started_at = %v", got.StartedAt)
	}
	if got.CompletedAt == nil || !got.CompletedAt.Equal(now.Add(3*time.Second)) {
		t.Errorf("completed_at = %v", got.CompletedAt)
	}

	runs, err := st.ListRunsBySession(ctx, sess.ID)
	if err != nil || len(runs) != 1 {
		t.Fatalf("list: %v, %v", runs, err)
	}
}

func TestStartRunClaimsOnce(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	sess := sampleSession()
	st.CreateSession(ctx, sess)
	run := sampleRun(sess.ID)
	run.Progress = 40
	st.CreateRun(ctx, run)

	now := time.Now().UTC().Truncate(time.Millisecond)
	if err := st.StartRun(ctx, run.ID, now); err != nil {
		t.Fatalf("first start: %v", err)
	}
	got, _ := st.GetRun(ctx, run.ID)
	if got.State != model.RunStateRunning || got.Progress != 0 || got.StartedAt == nil || !got.StartedAt.Equal(now) {
		t.Errorf("after start: %+v", got)
	}
	if err := st.StartRun(ctx, run.ID, now); !errors.Is(err, ErrRunActive) {
		t.Errorf("second start err = %v, want ErrRunActive", err)
	}
	if err := st.StartRun(ctx, "run_nope", now); !errors.Is(err, ErrRunActive) {
		t.Errorf("missing run err = %v, want ErrRunActive", err)
	}

	got.Progress = 100
	if err := got.Finish(model.RunStateFailed, now); err != nil {
		t.Fatal(err)
	}
	st.UpdateRun(ctx, got)
	if err := st.StartRun(ctx, run.ID, now); err != nil {
		t.Errorf("restart after failure: %v", err)
	}
	got, _ = st.GetRun(ctx, run.ID)
	if got.CompletedAt != nil || got.Progress != 0 {
		t.Errorf("restart left %+v", got)
	}
}

func TestGetRunMissing(t *testing.T) {
	got, err := testStore(t).GetRun(context.Background(), "run_nope")
	if err != nil || got != nil {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestRunRequiresSession(t *testing.T) {
	st := testStore(t)
	if err := st.CreateRun(context.Background(), sampleRun("sess_missing")); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestDeleteSessionCascadesRuns(t *testing.T) {
	st := testStore(t)
	ctx := context.Background()
	sess := sampleSession()
	st.CreateSession(ctx, sess)
	st.CreateRun(ctx, sampleRun(sess.ID))

	st.DeleteSession(ctx, sess.ID)
	got, err := st.GetRun(ctx, "run_test-1")
	if err != nil || got != nil {
		t.Errorf("run survived session delete: %v, %v", got, err)
	}
}
