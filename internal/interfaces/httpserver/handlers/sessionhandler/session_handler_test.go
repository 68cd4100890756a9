package sessionhandler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"chat-server/internal/domain/conversation"
)

type fakeSessionRepo struct {
	sessions []conversation.ChatSession
}

func (f *fakeSessionRepo) Create(_ context.Context, session *conversation.ChatSession) error {
	if session.Title == "" {
		session.Title = "New Chat"
	}
	session.ID = fmt.Sprintf("sess-%d", len(f.sessions)+1)
	session.CreatedAt = time.Now()
	session.UpdatedAt = session.CreatedAt
	f.sessions = append(f.sessions, *session)
	return nil
}

func (f *fakeSessionRepo) ListByUser(_ context.Context, userID string) ([]conversation.ChatSession, error) {
	var out []conversation.ChatSession
	for _, s := range f.sessions {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Rename(_ context.Context, id, title string) (*conversation.ChatSession, error) {
	for i := range f.sessions {
		if f.sessions[i].ID == id {
			f.sessions[i].Title = title
			f.sessions[i].UpdatedAt = time.Now()
			s := f.sessions[i]
			return &s, nil
		}
	}
	return nil, fmt.Errorf("session %s not found", id)
}

func (f *fakeSessionRepo) Touch(_ context.Context, _ string) error { return nil }

func (f *fakeSessionRepo) Delete(_ context.Context, id string) error {
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.ID != id {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
	return nil
}

type fakeMessageRepo struct {
	deleted []string
}

func (f *fakeMessageRepo) Save(_ context.Context, _ *conversation.Message) error { return nil }
func (f *fakeMessageRepo) History(_ context.Context, _ string, _ int) ([]conversation.Message, error) {
	return nil, nil
}
func (f *fakeMessageRepo) DeleteBySession(_ context.Context, sessionID string) error {
	f.deleted = append(f.deleted, sessionID)
	return nil
}

func newTestEngine(sessions *fakeSessionRepo, messages *fakeMessageRepo) *gin.Engine {
	gin.SetMode(gin.TestMode)
	handler := NewSessionHandler(sessions, messages, zerolog.Nop())
	engine := gin.New()
	engine.POST("/sessions", handler.PostSession)
	engine.GET("/sessions", handler.GetSessions)
	engine.PATCH("/sessions/:id", handler.PatchSession)
	engine.DELETE("/sessions/:id", handler.DeleteSession)
	return engine
}

func TestSessionLifecycle(t *testing.T) {
	sessions := &fakeSessionRepo{}
	messages := &fakeMessageRepo{}
	engine := newTestEngine(sessions, messages)

	// Create with default title.
	req := httptest.NewRequest(http.MethodPost, "/sessions", strings.NewReader(`{"userId":"u1"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	var created conversation.ChatSession
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode created session: %v", err)
	}
	if created.Title != "New Chat" {
		t.Fatalf("expected default title, got %q", created.Title)
	}

	// List by user.
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions?userId=u1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), created.ID) {
		t.Fatalf("list: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	// Rename.
	req = httptest.NewRequest(http.MethodPatch, "/sessions/"+created.ID, strings.NewReader(`{"title":"Trip planning"}`))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "Trip planning") {
		t.Fatalf("rename: unexpected response %d %s", rec.Code, rec.Body.String())
	}

	// Delete removes the session and its messages.
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/sessions/"+created.ID, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", rec.Code)
	}
	if len(sessions.sessions) != 0 {
		t.Fatalf("session not deleted: %+v", sessions.sessions)
	}
	if len(messages.deleted) != 1 || messages.deleted[0] != created.ID {
		t.Fatalf("messages not cleared with session: %+v", messages.deleted)
	}
}

func TestGetSessionsRequiresUserID(t *testing.T) {
	engine := newTestEngine(&fakeSessionRepo{}, &fakeMessageRepo{})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sessions", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without userId, got %d", rec.Code)
	}
}
