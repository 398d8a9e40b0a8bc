package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"github.com/cosmic-community/community-support-hub/internal/cosmic"
	"github.com/cosmic-community/community-support-hub/internal/data"
	"github.com/cosmic-community/community-support-hub/internal/logger"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
)

// bcryptCost matches the cost the stored hashes were created with.
const bcryptCost = 12

// UserAccounts defines the repository operations signup needs.
type UserAccounts interface {
	ListUsers(ctx context.Context) ([]*data.User, error)
	CreateUser(ctx context.Context, draft cosmic.ObjectDraft) (*data.User, error)
}

// SignupRequest is the validated input for creating an account.
type SignupRequest struct {
	Name          string
	Username      string
	Email         string
	Password      string
	Slug          string // optional; derived from the username when empty
	Bio           string
	CompanyRole   string
	Location      string
	Website       string
	ExpertiseTags string
}

// PublicUser is the subset of a created account that is safe to return.
// The password hash never leaves the service.
type PublicUser struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

// ValidationError reports a missing or invalid signup field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// ConflictError reports a username or email that is already taken.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// SignupService creates new member accounts in the remote bucket.
type SignupService struct {
	repo UserAccounts
	log  logger.Logger
	now  func() time.Time
}

// NewSignupService creates a SignupService.
func NewSignupService(repo UserAccounts, log logger.Logger) *SignupService {
	return &SignupService{repo: repo, log: log, now: time.Now}
}

// Signup validates the request, rejects duplicate usernames and emails,
// hashes the password and inserts the new member. All validation happens
// before any remote call.
//
// The duplicate check lists every member and scans for matches; it is not
// atomic with the insert, so two concurrent signups for the same username
// can both pass. The bucket API offers no unique constraint to close that
// window.
func (s *SignupService) Signup(ctx context.Context, req SignupRequest) (*PublicUser, error) {
	if err := validateSignup(req); err != nil {
		return nil, err
	}

	users, err := s.repo.ListUsers(ctx)
	if err != nil {
		// Bootstrap allowance: when the listing itself fails (e.g. no
		// member objects exist yet), the first signup must still succeed.
		s.log.Warn(fmt.Sprintf("signup duplicate check skipped, user listing failed: %v", err))
		users = nil
	}
	for _, u := range users {
		if u.Username == req.Username {
			return nil, &ConflictError{Field: "username", Message: "Username already exists"}
		}
	}
	for _, u := range users {
		if u.Email == req.Email {
			return nil, &ConflictError{Field: "email", Message: "Email already exists"}
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	userSlug := req.Slug
	if userSlug == "" {
		userSlug = slug.Make(req.Username)
	}
	if userSlug == "" {
		userSlug = slug.Make(req.Name)
	}

	draft := cosmic.ObjectDraft{
		Title: req.Name,
		Slug:  userSlug,
		Type:  data.TypeUser,
		Metadata: map[string]interface{}{
			"name":             req.Name,
			"username":         req.Username,
			"email":            req.Email,
			"password_hash":    string(hash),
			"bio":              req.Bio,
			"company_role":     req.CompanyRole,
			"location":         req.Location,
			"website":          req.Website,
			"reputation_score": 0,
			"join_date":        s.now().Format("2006-01-02"),
			"expertise_tags":   req.ExpertiseTags,
		},
	}

	created, err := s.repo.CreateUser(ctx, draft)
	if err != nil {
		return nil, err
	}

	return &PublicUser{
		ID:       created.ID,
		Name:     created.Name,
		Username: created.Username,
		Email:    created.Email,
	}, nil
}

func validateSignup(req SignupRequest) error {
	if req.Name == "" {
		return &ValidationError{Field: "name", Message: "Name is required"}
	}
	switch {
	case req.Username == "":
		return &ValidationError{Field: "username", Message: "Username is required"}
	case len(req.Username) < 3:
		return &ValidationError{Field: "username", Message: "Username must be at least 3 characters"}
	case !usernamePattern.MatchString(req.Username):
		return &ValidationError{Field: "username", Message: "Username can only contain letters, numbers, and underscores"}
	}
	switch {
	case req.Email == "":
		return &ValidationError{Field: "email", Message: "Email is required"}
	case !emailPattern.MatchString(req.Email):
		return &ValidationError{Field: "email", Message: "Please enter a valid email address"}
	}
	switch {
	case req.Password == "":
		return &ValidationError{Field: "password", Message: "Password is required"}
	case len(req.Password) < 8:
		return &ValidationError{Field: "password", Message: "Password must be at least 8 characters long"}
	}
	if req.Bio != "" && len(req.Bio) > 500 {
		return &ValidationError{Field: "bio", Message: "Bio must be less than 500 characters"}
	}
	return nil
}
