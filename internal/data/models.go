package data

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cosmic-community/community-support-hub/internal/cosmic"
)

// Object type tags used by the bucket.
const (
	TypeUser      = "users"
	TypeQuestion  = "questions"
	TypeAnswer    = "answers"
	TypeBadge     = "badges"
	TypeUserBadge = "user-badges"
)

// Image is an uploaded media reference.
type Image struct {
	URL      string `json:"url"`
	ImgixURL string `json:"imgix_url"`
}

// KeyValue is a select-dropdown value pair, e.g. {"open", "Open"}.
type KeyValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// CodeSnippet is one entry in an answer's snippet list.
type CodeSnippet struct {
	Language string `json:"language"`
	Code     string `json:"code"`
}

// User is a community member.
type User struct {
	ID              string
	Slug            string
	Name            string
	Username        string
	Email           string
	PasswordHash    string
	Bio             string
	Avatar          *Image
	CompanyRole     string
	Location        string
	Website         string
	ReputationScore int
	JoinDate        string
	ExpertiseTags   []string
}

// UserRef is a reference to a user that may or may not have been expanded
// by the query depth. At depth 0 only ID is set.
type UserRef struct {
	ID   string
	User *User
}

// Resolved reports whether the referenced user was expanded inline.
func (r *UserRef) Resolved() bool {
	return r != nil && r.User != nil
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj cosmic.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("user reference: %w", err)
	}
	user, err := DecodeUser(obj)
	if err != nil {
		return err
	}
	r.ID = obj.ID
	r.User = user
	return nil
}

// Question is a community question.
type Question struct {
	ID         string
	Slug       string
	Title      string
	Content    string
	Author     UserRef
	Tags       []string
	Category   *KeyValue
	Status     *KeyValue
	ViewsCount int
	IsFeatured bool
	CreatedAt  time.Time
}

// StatusLabel returns the display status, defaulting to "Open" when the
// stored value is absent. The default is applied at render time only.
func (q *Question) StatusLabel() string {
	if q.Status != nil && q.Status.Value != "" {
		return q.Status.Value
	}
	return "Open"
}

// CategoryLabel returns the display category, defaulting to "General".
func (q *Question) CategoryLabel() string {
	if q.Category != nil && q.Category.Value != "" {
		return q.Category.Value
	}
	return "General"
}

// Answer is a reply to a question.
type Answer struct {
	ID           string
	Slug         string
	Content      string
	Author       UserRef
	QuestionID   string
	IsAccepted   bool
	HelpfulCount int
	CodeSnippets []CodeSnippet
	CreatedAt    time.Time
}

// Badge is an earnable badge definition.
type Badge struct {
	ID             string
	Slug           string
	Name           string
	Description    string
	Icon           *Image
	BadgeType      KeyValue
	Color          string
	PointsRequired int
	Criteria       string
}

// BadgeRef is a reference to a badge that may have been expanded.
type BadgeRef struct {
	ID    string
	Badge *Badge
}

func (r *BadgeRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj cosmic.Object
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("badge reference: %w", err)
	}
	badge, err := DecodeBadge(obj)
	if err != nil {
		return err
	}
	r.ID = obj.ID
	r.Badge = badge
	return nil
}

// UserBadge joins a user to a badge they earned.
type UserBadge struct {
	ID         string
	Slug       string
	User       UserRef
	Badge      BadgeRef
	EarnedDate string
	Reason     string
}

// SplitTags normalizes a comma-separated tag string into a slice, trimming
// whitespace and dropping empties. Parsing happens once, here, instead of
// at every read site.
func SplitTags(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// decodeError reports a malformed object. Remote data that does not match
// the expected shape fails the decode instead of propagating into pages.
func decodeError(obj cosmic.Object, kind, reason string) error {
	return fmt.Errorf("data: malformed %s object %q: %s", kind, obj.ID, reason)
}

// DecodeUser parses a users object into a User.
func DecodeUser(obj cosmic.Object) (*User, error) {
	var meta struct {
		Name            string `json:"name"`
		Username        string `json:"username"`
		Email           string `json:"email"`
		PasswordHash    string `json:"password_hash"`
		Bio             string `json:"bio"`
		Avatar          *Image `json:"avatar"`
		CompanyRole     string `json:"company_role"`
		Location        string `json:"location"`
		Website         string `json:"website"`
		ReputationScore int    `json:"reputation_score"`
		JoinDate        string `json:"join_date"`
		ExpertiseTags   string `json:"expertise_tags"`
	}
	if err := unmarshalMetadata(obj, TypeUser, &meta); err != nil {
		return nil, err
	}
	if meta.Name == "" || meta.Username == "" {
		return nil, decodeError(obj, TypeUser, "missing name or username")
	}
	if meta.ReputationScore < 0 {
		return nil, decodeError(obj, TypeUser, "negative reputation score")
	}
	return &User{
		ID:              obj.ID,
		Slug:            obj.Slug,
		Name:            meta.Name,
		Username:        meta.Username,
		Email:           meta.Email,
		PasswordHash:    meta.PasswordHash,
		Bio:             meta.Bio,
		Avatar:          meta.Avatar,
		CompanyRole:     meta.CompanyRole,
		Location:        meta.Location,
		Website:         meta.Website,
		ReputationScore: meta.ReputationScore,
		JoinDate:        meta.JoinDate,
		ExpertiseTags:   SplitTags(meta.ExpertiseTags),
	}, nil
}

// DecodeQuestion parses a questions object into a Question.
func DecodeQuestion(obj cosmic.Object) (*Question, error) {
	var meta struct {
		Title      string    `json:"title"`
		Content    string    `json:"content"`
		Author     UserRef   `json:"author"`
		Tags       string    `json:"tags"`
		Category   *KeyValue `json:"category"`
		Status     *KeyValue `json:"status"`
		ViewsCount int       `json:"views_count"`
		IsFeatured bool      `json:"is_featured"`
	}
	if err := unmarshalMetadata(obj, TypeQuestion, &meta); err != nil {
		return nil, err
	}
	title := meta.Title
	if title == "" {
		title = obj.Title
	}
	if title == "" {
		return nil, decodeError(obj, TypeQuestion, "missing title")
	}
	return &Question{
		ID:         obj.ID,
		Slug:       obj.Slug,
		Title:      title,
		Content:    meta.Content,
		Author:     meta.Author,
		Tags:       SplitTags(meta.Tags),
		Category:   meta.Category,
		Status:     meta.Status,
		ViewsCount: meta.ViewsCount,
		IsFeatured: meta.IsFeatured,
		CreatedAt:  obj.CreatedAt,
	}, nil
}

// DecodeAnswer parses an answers object into an Answer.
func DecodeAnswer(obj cosmic.Object) (*Answer, error) {
	var meta struct {
		Content      string        `json:"content"`
		Author       UserRef       `json:"author"`
		Question     questionRef   `json:"question"`
		IsAccepted   bool          `json:"is_accepted"`
		HelpfulCount int           `json:"helpful_count"`
		CodeSnippets []CodeSnippet `json:"code_snippets"`
	}
	if err := unmarshalMetadata(obj, TypeAnswer, &meta); err != nil {
		return nil, err
	}
	if meta.Content == "" {
		return nil, decodeError(obj, TypeAnswer, "missing content")
	}
	return &Answer{
		ID:           obj.ID,
		Slug:         obj.Slug,
		Content:      meta.Content,
		Author:       meta.Author,
		QuestionID:   meta.Question.ID,
		IsAccepted:   meta.IsAccepted,
		HelpfulCount: meta.HelpfulCount,
		CodeSnippets: meta.CodeSnippets,
		CreatedAt:    obj.CreatedAt,
	}, nil
}

// questionRef only ever needs the id; answers never render their parent
// question inline.
type questionRef struct {
	ID string
}

func (r *questionRef) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || string(data) == "null" {
		return nil
	}
	if data[0] == '"' {
		return json.Unmarshal(data, &r.ID)
	}
	var obj struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("question reference: %w", err)
	}
	r.ID = obj.ID
	return nil
}

// DecodeBadge parses a badges object into a Badge.
func DecodeBadge(obj cosmic.Object) (*Badge, error) {
	var meta struct {
		Name           string   `json:"name"`
		Description    string   `json:"description"`
		Icon           *Image   `json:"icon"`
		BadgeType      KeyValue `json:"badge_type"`
		Color          string   `json:"color"`
		PointsRequired int      `json:"points_required"`
		Criteria       string   `json:"criteria"`
	}
	if err := unmarshalMetadata(obj, TypeBadge, &meta); err != nil {
		return nil, err
	}
	if meta.Name == "" {
		return nil, decodeError(obj, TypeBadge, "missing name")
	}
	return &Badge{
		ID:             obj.ID,
		Slug:           obj.Slug,
		Name:           meta.Name,
		Description:    meta.Description,
		Icon:           meta.Icon,
		BadgeType:      meta.BadgeType,
		Color:          meta.Color,
		PointsRequired: meta.PointsRequired,
		Criteria:       meta.Criteria,
	}, nil
}

// DecodeUserBadge parses a user-badges object into a UserBadge.
func DecodeUserBadge(obj cosmic.Object) (*UserBadge, error) {
	var meta struct {
		User       UserRef  `json:"user"`
		Badge      BadgeRef `json:"badge"`
		EarnedDate string   `json:"earned_date"`
		Reason     string   `json:"reason"`
	}
	if err := unmarshalMetadata(obj, TypeUserBadge, &meta); err != nil {
		return nil, err
	}
	return &UserBadge{
		ID:         obj.ID,
		Slug:       obj.Slug,
		User:       meta.User,
		Badge:      meta.Badge,
		EarnedDate: meta.EarnedDate,
		Reason:     meta.Reason,
	}, nil
}

func unmarshalMetadata(obj cosmic.Object, kind string, dst interface{}) error {
	if len(obj.Metadata) == 0 {
		return decodeError(obj, kind, "missing metadata")
	}
	if err := json.Unmarshal(obj.Metadata, dst); err != nil {
		return decodeError(obj, kind, err.Error())
	}
	return nil
}
