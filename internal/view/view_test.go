package view

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/cosmic-community/community-support-hub/internal/data"
	"github.com/cosmic-community/community-support-hub/web"
)

func TestFormatDate(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "Unknown"},
		{"valid", "2024-03-01", "Mar 2024"},
		{"unparseable passes through", "March 2024", "March 2024"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FormatDate(tc.input); got != tc.want {
				t.Errorf("FormatDate(%q) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestTimeAgo(t *testing.T) {
	now := time.Now()
	testCases := []struct {
		name  string
		input time.Time
		want  string
	}{
		{"zero time", time.Time{}, "Unknown time"},
		{"seconds", now.Add(-30 * time.Second), "just now"},
		{"minutes", now.Add(-5 * time.Minute), "5 minutes ago"},
		{"hours", now.Add(-3 * time.Hour), "3 hours ago"},
		{"yesterday", now.Add(-30 * time.Hour), "yesterday"},
		{"days", now.Add(-5 * 24 * time.Hour), "5 days ago"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := TimeAgo(tc.input); got != tc.want {
				t.Errorf("TimeAgo(%v) = %q, want %q", tc.input, got, tc.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	testCases := []struct {
		name    string
		content string
		max     int
		want    string
	}{
		{"short text untouched", "hello world", 50, "hello world"},
		{"markup stripped", "<p>hello <strong>world</strong></p>", 50, "hello world"},
		{"truncated with ellipsis", "one two three four", 7, "one two…"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Excerpt(tc.content, tc.max); got != tc.want {
				t.Errorf("Excerpt(%q, %d) = %q, want %q", tc.content, tc.max, got, tc.want)
			}
		})
	}
}

func TestNewParsesAllPages(t *testing.T) {
	v, err := New(web.TemplateFS)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	pages := []string{
		"home.html", "questions.html", "question.html", "ask.html",
		"users.html", "user.html", "badges.html", "search.html",
		"signup.html", "error.html",
	}
	for _, name := range pages {
		if _, ok := v.templates[name]; !ok {
			t.Errorf("expected page %q to be parsed", name)
		}
	}
}

func TestRenderHome(t *testing.T) {
	v, err := New(web.TemplateFS)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	questions := []*data.Question{{
		ID:        "q1",
		Slug:      "react-hooks-bug",
		Title:     "React hooks bug",
		Content:   "My effect runs twice.",
		CreatedAt: time.Now().Add(-2 * time.Hour),
	}}

	var buf bytes.Buffer
	err = v.Render(&buf, "home.html", map[string]interface{}{
		"Questions":     questions,
		"QuestionCount": 1,
		"Featured":      questions,
		"Flash":         "Welcome!",
	})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}

	out := buf.String()
	for _, want := range []string{"React hooks bug", "/questions/react-hooks-bug", "Welcome!"} {
		if !strings.Contains(out, want) {
			t.Errorf("rendered page missing %q", want)
		}
	}
}

func TestRenderUnknownTemplate(t *testing.T) {
	v, err := New(web.TemplateFS)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}
	if err := v.Render(&bytes.Buffer{}, "missing.html", nil); err == nil {
		t.Error("expected an error for an unknown template, got nil")
	}
}

func TestRenderError(t *testing.T) {
	v, err := New(web.TemplateFS)
	if err != nil {
		t.Fatalf("failed to parse templates: %v", err)
	}

	var buf bytes.Buffer
	err = v.Render(&buf, "error.html", map[string]interface{}{
		"StatusCode": 404,
		"StatusText": "Question not found",
	})
	if err != nil {
		t.Fatalf("failed to render: %v", err)
	}
	if !strings.Contains(buf.String(), "Question not found") {
		t.Error("rendered error page missing the status text")
	}
}
