package service

import (
	"bytes"
	"context"
	"html/template"
	"strings"

	"github.com/cosmic-community/community-support-hub/internal/data"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
)

// ContentReader defines the read operations the community service needs.
type ContentReader interface {
	ListUsers(ctx context.Context) ([]*data.User, error)
	GetUserBySlug(ctx context.Context, slug string) (*data.User, error)
	ListQuestions(ctx context.Context) ([]*data.Question, error)
	GetQuestionBySlug(ctx context.Context, slug string) (*data.Question, error)
	ListFeaturedQuestions(ctx context.Context) ([]*data.Question, error)
	ListAnswersByQuestionID(ctx context.Context, questionID string) ([]*data.Answer, error)
	ListBadges(ctx context.Context) ([]*data.Badge, error)
	ListUserBadges(ctx context.Context, userID string) ([]*data.UserBadge, error)
}

// QuestionPage is a question together with its answers.
type QuestionPage struct {
	Question *data.Question
	Answers  []*data.Answer
}

// UserProfile is a member together with the badges they earned.
type UserProfile struct {
	User   *data.User
	Badges []*data.UserBadge
}

// BadgeGroup is the badge list for one badge type, in bucket sort order.
type BadgeGroup struct {
	Type   string
	Badges []*data.Badge
}

// CommunityService provides the read-side operations behind every page.
type CommunityService struct {
	repo      ContentReader
	markdown  goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewCommunityService creates a CommunityService over the given repository.
func NewCommunityService(repo ContentReader) *CommunityService {
	return &CommunityService{
		repo: repo,
		// Stored content may carry inline HTML, so the renderer passes it
		// through and the sanitizer decides what survives.
		markdown:  goldmark.New(goldmark.WithRendererOptions(goldmarkhtml.WithUnsafe())),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// ListQuestions returns all questions, newest first.
func (s *CommunityService) ListQuestions(ctx context.Context) ([]*data.Question, error) {
	return s.repo.ListQuestions(ctx)
}

// FeaturedQuestions returns the featured question list.
func (s *CommunityService) FeaturedQuestions(ctx context.Context) ([]*data.Question, error) {
	return s.repo.ListFeaturedQuestions(ctx)
}

// FilterQuestions keeps questions matching the given category and status
// keys. Empty keys match everything. Source order is preserved.
func (s *CommunityService) FilterQuestions(questions []*data.Question, category, status string) []*data.Question {
	if category == "" && status == "" {
		return questions
	}
	filtered := make([]*data.Question, 0, len(questions))
	for _, q := range questions {
		if category != "" && (q.Category == nil || q.Category.Key != category) {
			continue
		}
		if status != "" && (q.Status == nil || q.Status.Key != status) {
			continue
		}
		filtered = append(filtered, q)
	}
	return filtered
}

// SearchQuestions keeps questions whose title, content or tags contain the
// case-folded query as a substring. The bucket API offers no text search,
// so this is a linear scan over the full list; matches keep their source
// order and are not re-ranked.
func (s *CommunityService) SearchQuestions(ctx context.Context, query string) ([]*data.Question, error) {
	questions, err := s.repo.ListQuestions(ctx)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(query)
	matches := make([]*data.Question, 0, len(questions))
	for _, q := range questions {
		haystack := strings.ToLower(q.Title + " " + q.Content + " " + strings.Join(q.Tags, " "))
		if strings.Contains(haystack, needle) {
			matches = append(matches, q)
		}
	}
	return matches, nil
}

// GetQuestionPage returns a question and its answers, or nil when the slug
// does not exist.
func (s *CommunityService) GetQuestionPage(ctx context.Context, slug string) (*QuestionPage, error) {
	question, err := s.repo.GetQuestionBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if question == nil {
		return nil, nil
	}
	answers, err := s.repo.ListAnswersByQuestionID(ctx, question.ID)
	if err != nil {
		return nil, err
	}
	return &QuestionPage{Question: question, Answers: answers}, nil
}

// ListUsers returns all members sorted by descending reputation.
func (s *CommunityService) ListUsers(ctx context.Context) ([]*data.User, error) {
	return s.repo.ListUsers(ctx)
}

// GetUserProfile returns a member and their earned badges, or nil when the
// slug does not exist.
func (s *CommunityService) GetUserProfile(ctx context.Context, slug string) (*UserProfile, error) {
	user, err := s.repo.GetUserBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, nil
	}
	badges, err := s.repo.ListUserBadges(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserProfile{User: user, Badges: badges}, nil
}

// BadgeGroups returns all badges grouped by badge type, preserving the
// bucket's badge-type sort order.
func (s *CommunityService) BadgeGroups(ctx context.Context) ([]BadgeGroup, error) {
	badges, err := s.repo.ListBadges(ctx)
	if err != nil {
		return nil, err
	}
	var groups []BadgeGroup
	for _, b := range badges {
		label := b.BadgeType.Value
		if len(groups) == 0 || groups[len(groups)-1].Type != label {
			groups = append(groups, BadgeGroup{Type: label})
		}
		groups[len(groups)-1].Badges = append(groups[len(groups)-1].Badges, b)
	}
	return groups, nil
}

// RenderContent turns stored rich text into sanitized HTML ready for a
// template. Content that fails to render falls back to escaped text.
func (s *CommunityService) RenderContent(content string) template.HTML {
	var buf bytes.Buffer
	if err := s.markdown.Convert([]byte(content), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(content))
	}
	return template.HTML(s.sanitizer.SanitizeBytes(buf.Bytes()))
}
