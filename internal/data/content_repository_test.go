package data

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cosmic-community/community-support-hub/internal/config"
	"github.com/cosmic-community/community-support-hub/internal/cosmic"
)

func newTestRepository(t *testing.T, handler http.HandlerFunc) *ContentRepository {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := cosmic.New(config.CosmicConfig{
		BucketSlug: "test-bucket",
		ReadKey:    "rk",
		WriteKey:   "wk",
		BaseURL:    server.URL,
		Timeout:    5 * time.Second,
	}, server.Client())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return NewContentRepository(client)
}

func requestFilter(t *testing.T, r *http.Request) map[string]interface{} {
	t.Helper()
	var filter map[string]interface{}
	if err := json.Unmarshal([]byte(r.URL.Query().Get("query")), &filter); err != nil {
		t.Fatalf("query parameter is not valid JSON: %v", err)
	}
	return filter
}

func TestListQuestions(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		filter := requestFilter(t, r)
		if filter["type"] != TypeQuestion {
			t.Errorf("expected type filter %q, got %v", TypeQuestion, filter["type"])
		}
		if got := r.URL.Query().Get("sort"); got != "-created_at" {
			t.Errorf("expected sort -created_at, got %q", got)
		}
		if got := r.URL.Query().Get("depth"); got != "1" {
			t.Errorf("expected depth 1, got %q", got)
		}
		w.Write([]byte(`{"objects": [
			{"id": "q2", "slug": "newer", "type": "questions", "metadata": {"title": "Newer question"}},
			{"id": "q1", "slug": "older", "type": "questions", "metadata": {"title": "Older question"}}
		]}`))
	})

	questions, err := repo.ListQuestions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(questions))
	}
	if questions[0].ID != "q2" || questions[1].ID != "q1" {
		t.Errorf("bucket order must be preserved, got %s then %s", questions[0].ID, questions[1].ID)
	}
}

func TestNotFoundMapsToEmpty(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"message": "No objects found"}`))
	})

	t.Run("list", func(t *testing.T) {
		questions, err := repo.ListQuestions(context.Background())
		if err != nil {
			t.Fatalf("a 404 must not surface as an error, got %v", err)
		}
		if len(questions) != 0 {
			t.Errorf("expected no questions, got %d", len(questions))
		}
	})

	t.Run("single", func(t *testing.T) {
		user, err := repo.GetUserBySlug(context.Background(), "ghost")
		if err != nil {
			t.Fatalf("a 404 must not surface as an error, got %v", err)
		}
		if user != nil {
			t.Errorf("expected nil user, got %+v", user)
		}
	})
}

func TestServerErrorPropagates(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	if _, err := repo.ListUsers(context.Background()); err == nil {
		t.Error("expected an error from a 500 response, got nil")
	}
	if _, err := repo.GetQuestionBySlug(context.Background(), "any"); err == nil {
		t.Error("expected an error from a 500 response, got nil")
	}
}

func TestListFeaturedQuestions(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		filter := requestFilter(t, r)
		if filter["metadata.is_featured"] != true {
			t.Errorf("expected is_featured filter, got %v", filter)
		}
		if got := r.URL.Query().Get("limit"); got != "5" {
			t.Errorf("expected limit 5, got %q", got)
		}
		w.Write([]byte(`{"objects": [
			{"id": "q1", "slug": "featured", "type": "questions", "metadata": {"title": "Featured", "is_featured": true}}
		]}`))
	})

	questions, err := repo.ListFeaturedQuestions(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 || !questions[0].IsFeatured {
		t.Errorf("unexpected result: %+v", questions)
	}
}

func TestListAnswersByQuestionID(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		filter := requestFilter(t, r)
		if filter["metadata.question"] != "q1" {
			t.Errorf("expected question filter q1, got %v", filter)
		}
		if got := r.URL.Query().Get("sort"); got != "-metadata.helpful_count" {
			t.Errorf("expected sort by helpful count, got %q", got)
		}
		w.Write([]byte(`{"objects": [
			{"id": "a1", "slug": "a1", "type": "answers", "metadata": {"content": "Most helpful", "question": "q1", "helpful_count": 9}},
			{"id": "a2", "slug": "a2", "type": "answers", "metadata": {"content": "Less helpful", "question": "q1", "helpful_count": 2}}
		]}`))
	})

	answers, err := repo.ListAnswersByQuestionID(context.Background(), "q1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(answers) != 2 || answers[0].HelpfulCount != 9 {
		t.Errorf("unexpected answers: %+v", answers)
	}
}

func TestListDecodesFailOnMalformedObject(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"objects": [
			{"id": "u1", "slug": "ok", "type": "users", "metadata": {"name": "Ann", "username": "ann"}},
			{"id": "u2", "slug": "broken", "type": "users", "metadata": {"name": "No Username"}}
		]}`))
	})

	if _, err := repo.ListUsers(context.Background()); err == nil {
		t.Error("expected a decode error for the malformed object, got nil")
	}
}

func TestCreateUser(t *testing.T) {
	repo := newTestRepository(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		var draft cosmic.ObjectDraft
		if err := json.NewDecoder(r.Body).Decode(&draft); err != nil {
			t.Fatalf("failed to decode draft: %v", err)
		}
		if draft.Type != TypeUser {
			t.Errorf("expected draft type %q, got %q", TypeUser, draft.Type)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"object": {"id": "u9", "slug": "ann", "title": "Ann", "type": "users",
			"metadata": {"name": "Ann", "username": "ann", "email": "ann@example.com"}}}`))
	})

	user, err := repo.CreateUser(context.Background(), cosmic.ObjectDraft{
		Title: "Ann",
		Slug:  "ann",
		Type:  TypeUser,
		Metadata: map[string]interface{}{
			"name":     "Ann",
			"username": "ann",
			"email":    "ann@example.com",
		},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "u9" || user.Username != "ann" {
		t.Errorf("unexpected created user: %+v", user)
	}
}
