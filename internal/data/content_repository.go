package data

import (
	"context"
	"fmt"

	"github.com/cosmic-community/community-support-hub/internal/cosmic"
)

// ContentRepository reads and writes community content in the remote
// bucket. Every method issues exactly one query and applies one error
// policy: a 404 from the bucket means "no content" and maps to an empty
// result; any other failure is wrapped and returned to the caller.
type ContentRepository struct {
	client *cosmic.Client
}

// NewContentRepository creates a ContentRepository over the given client.
func NewContentRepository(client *cosmic.Client) *ContentRepository {
	return &ContentRepository{client: client}
}

// ListUsers returns all members sorted by descending reputation.
func (r *ContentRepository) ListUsers(ctx context.Context) ([]*User, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeUser}).
		Props("id", "title", "slug", "metadata").
		Sort("-metadata.reputation_score").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list users: %w", err)
	}
	return decodeAll(resp.Objects, DecodeUser)
}

// GetUserBySlug returns one member, or nil when no such member exists.
func (r *ContentRepository) GetUserBySlug(ctx context.Context, slug string) (*User, error) {
	resp, err := r.client.FindOne(cosmic.Filter{"type": TypeUser, "slug": slug}).
		Props("id", "title", "slug", "metadata").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user %q: %w", slug, err)
	}
	return DecodeUser(*resp.Object)
}

// ListQuestions returns all questions, newest first, with authors resolved.
func (r *ContentRepository) ListQuestions(ctx context.Context) ([]*Question, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeQuestion}).
		Props("id", "title", "slug", "metadata", "created_at").
		Depth(1).
		Sort("-created_at").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list questions: %w", err)
	}
	return decodeAll(resp.Objects, DecodeQuestion)
}

// GetQuestionBySlug returns one question with two levels of references
// resolved, or nil when no such question exists.
func (r *ContentRepository) GetQuestionBySlug(ctx context.Context, slug string) (*Question, error) {
	resp, err := r.client.FindOne(cosmic.Filter{"type": TypeQuestion, "slug": slug}).
		Props("id", "title", "slug", "metadata", "created_at").
		Depth(2).
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get question %q: %w", slug, err)
	}
	return DecodeQuestion(*resp.Object)
}

// ListFeaturedQuestions returns up to five questions flagged as featured,
// in the bucket's descending-creation order.
func (r *ContentRepository) ListFeaturedQuestions(ctx context.Context) ([]*Question, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeQuestion, "metadata.is_featured": true}).
		Props("id", "title", "slug", "metadata", "created_at").
		Depth(1).
		Limit(5).
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list featured questions: %w", err)
	}
	return decodeAll(resp.Objects, DecodeQuestion)
}

// ListAnswersByQuestionID returns a question's answers, most helpful first.
func (r *ContentRepository) ListAnswersByQuestionID(ctx context.Context, questionID string) ([]*Answer, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeAnswer, "metadata.question": questionID}).
		Props("id", "title", "slug", "metadata", "created_at").
		Depth(1).
		Sort("-metadata.helpful_count").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list answers for question %q: %w", questionID, err)
	}
	return decodeAll(resp.Objects, DecodeAnswer)
}

// ListBadges returns all badge definitions grouped by badge type.
func (r *ContentRepository) ListBadges(ctx context.Context) ([]*Badge, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeBadge}).
		Props("id", "title", "slug", "metadata").
		Sort("metadata.badge_type").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return decodeAll(resp.Objects, DecodeBadge)
}

// ListUserBadges returns the badges a member has earned, newest first.
func (r *ContentRepository) ListUserBadges(ctx context.Context, userID string) ([]*UserBadge, error) {
	resp, err := r.client.Find(cosmic.Filter{"type": TypeUserBadge, "metadata.user": userID}).
		Props("id", "title", "slug", "metadata").
		Depth(1).
		Sort("-metadata.earned_date").
		Do(ctx)
	if err != nil {
		if cosmic.IsNotFound(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("list badges for user %q: %w", userID, err)
	}
	return decodeAll(resp.Objects, DecodeUserBadge)
}

// CreateUser inserts a new member. Signup is the only write path in the
// application; questions, answers and badges are never written here.
func (r *ContentRepository) CreateUser(ctx context.Context, draft cosmic.ObjectDraft) (*User, error) {
	obj, err := r.client.InsertOne(ctx, draft)
	if err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}
	return DecodeUser(*obj)
}

func decodeAll[T any](objects []cosmic.Object, decode func(cosmic.Object) (*T, error)) ([]*T, error) {
	out := make([]*T, 0, len(objects))
	for _, obj := range objects {
		entity, err := decode(obj)
		if err != nil {
			return nil, err
		}
		out = append(out, entity)
	}
	return out, nil
}
