package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	model "github.com/seohyun-lab/maum-counsel/backend/internal/model/chat"
	chat "github.com/seohyun-lab/maum-counsel/backend/internal/service/chat"
)

var testModels = []string{"gemini-2.5-flash", "gemini-2.5-pro"}

func TestCreateSessionDefaultsToFirstModel(t *testing.T) {
	svc := chat.NewService(testModels)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if session.Model != "gemini-2.5-flash" {
		t.Fatalf("unexpected default model: %s", session.Model)
	}

	got, err := svc.Session(ctx, session.ID)
	if err != nil {
		t.Fatalf("Session err: %v", err)
	}
	if got.ID != session.ID {
		t.Fatalf("unexpected session ID: got %s want %s", got.ID, session.ID)
	}
}

func TestCreateSessionRejectsUnknownModel(t *testing.T) {
	svc := chat.NewService(testModels)

	_, err := svc.CreateSession(context.Background(), "gpt-4")
	if !errors.Is(err, chat.ErrUnknownModel) {
		t.Fatalf("expected ErrUnknownModel, got %v", err)
	}
}

func TestSessionNotFound(t *testing.T) {
	svc := chat.NewService(testModels)
	ctx := context.Background()

	if _, err := svc.Session(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if _, err := svc.Transcript(ctx, "missing"); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestAppendExchangeKeepsPairsInOrder(t *testing.T) {
	svc := chat.NewService(testModels)
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}

	if err := svc.AppendExchange(ctx, session.ID, "요즘 잠이 잘 안 와요", "불면은 흔한 스트레스 반응입니다"); err != nil {
		t.Fatalf("AppendExchange err: %v", err)
	}

	turns, err := svc.Transcript(ctx, session.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("unexpected turn count: %d", len(turns))
	}
	if turns[0].Role != model.RoleUser || turns[1].Role != model.RoleModel {
		t.Fatalf("unexpected roles: %s, %s", turns[0].Role, turns[1].Role)
	}

	records, err := svc.ExportLog(ctx, session.ID)
	if err != nil {
		t.Fatalf("ExportLog err: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("unexpected log count: %d", len(records))
	}
	if records[0].SessionID != session.ID || records[0].Model != session.Model {
		t.Fatalf("unexpected log record: %+v", records[0])
	}
	if records[1].Message != "불면은 흔한 스트레스 반응입니다" {
		t.Fatalf("unexpected log message: %s", records[1].Message)
	}
}

func TestSelectModelDoesNotRewriteHistory(t *testing.T) {
	svc := chat.NewService(testModels)
	ctx := context.Background()

	session, _ := svc.CreateSession(ctx, "")
	if err := svc.AppendExchange(ctx, session.ID, "안녕하세요", "안녕하세요, 어떤 이야기를 나누고 싶으신가요?"); err != nil {
		t.Fatalf("AppendExchange err: %v", err)
	}

	updated, err := svc.SelectModel(ctx, session.ID, "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("SelectModel err: %v", err)
	}
	if updated.Model != "gemini-2.5-pro" {
		t.Fatalf("unexpected model: %s", updated.Model)
	}

	records, _ := svc.ExportLog(ctx, session.ID)
	if records[0].Model != "gemini-2.5-flash" {
		t.Fatalf("history model rewritten: %s", records[0].Model)
	}
}

func TestResetReplacesStateAndID(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := chat.NewService(testModels, chat.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	session, err := svc.CreateSession(ctx, "gemini-2.5-pro")
	if err != nil {
		t.Fatalf("CreateSession err: %v", err)
	}
	if session.ID != "session_20260301100000" {
		t.Fatalf("unexpected session id: %s", session.ID)
	}

	if err := svc.AppendExchange(ctx, session.ID, "hi", "hello"); err != nil {
		t.Fatalf("AppendExchange err: %v", err)
	}

	clock = clock.Add(time.Second)
	fresh, err := svc.Reset(ctx, session.ID)
	if err != nil {
		t.Fatalf("Reset err: %v", err)
	}

	if fresh.ID == session.ID {
		t.Fatalf("reset kept the old session id: %s", fresh.ID)
	}
	if fresh.Model != "gemini-2.5-pro" {
		t.Fatalf("reset lost the model selection: %s", fresh.Model)
	}

	turns, err := svc.Transcript(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("Transcript err: %v", err)
	}
	if len(turns) != 0 {
		t.Fatalf("expected empty transcript, got %d turns", len(turns))
	}

	records, err := svc.ExportLog(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("ExportLog err: %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("expected empty log, got %d records", len(records))
	}

	// The old session is gone entirely.
	if _, err := svc.Session(ctx, session.ID); !errors.Is(err, chat.ErrSessionNotFound) {
		t.Fatalf("expected old session to be removed, got %v", err)
	}
}

func TestSameSecondSessionIDsStayUnique(t *testing.T) {
	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	svc := chat.NewService(testModels, chat.WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	first, _ := svc.CreateSession(ctx, "")
	second, _ := svc.CreateSession(ctx, "")
	if first.ID == second.ID {
		t.Fatalf("colliding session ids: %s", first.ID)
	}
}
