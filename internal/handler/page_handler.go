package handler

import (
	"errors"
	"html/template"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/cosmic-community/community-support-hub/internal/data"
	"github.com/cosmic-community/community-support-hub/internal/logger"
	"github.com/cosmic-community/community-support-hub/internal/middleware"
	"github.com/cosmic-community/community-support-hub/internal/service"
	"github.com/cosmic-community/community-support-hub/internal/view"
	"github.com/go-chi/chi/v5"
)

const flashKey = "flash"

// PageHandler holds the dependencies for the page handlers.
type PageHandler struct {
	community *service.CommunityService
	view      *view.View
	session   *scs.SessionManager
	log       logger.Logger
}

// NewPageHandler creates a new PageHandler with the given dependencies.
func NewPageHandler(cs *service.CommunityService, v *view.View, sm *scs.SessionManager, log logger.Logger) *PageHandler {
	return &PageHandler{
		community: cs,
		view:      v,
		session:   sm,
		log:       log,
	}
}

// renderedAnswer pairs an answer with its sanitized HTML body.
type renderedAnswer struct {
	Answer *data.Answer
	HTML   template.HTML
}

// homeHandler renders the landing page: recent and featured questions.
func (h *PageHandler) homeHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	questions, err := h.community.ListQuestions(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load questions", Code: http.StatusInternalServerError}
	}
	featured, err := h.community.FeaturedQuestions(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load featured questions", Code: http.StatusInternalServerError}
	}

	recent := questions
	if len(recent) > 10 {
		recent = recent[:10]
	}

	pageData := map[string]interface{}{
		"Questions":     recent,
		"QuestionCount": len(questions),
		"Featured":      featured,
		"Flash":         h.session.PopString(r.Context(), flashKey),
	}
	if err := h.view.Render(w, "home.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render home page", Code: http.StatusInternalServerError}
	}
	return nil
}

// questionsHandler renders the question index, optionally filtered by the
// category and status query parameters.
func (h *PageHandler) questionsHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	questions, err := h.community.ListQuestions(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load questions", Code: http.StatusInternalServerError}
	}

	category := r.URL.Query().Get("category")
	status := r.URL.Query().Get("status")
	filtered := h.community.FilterQuestions(questions, category, status)

	pageData := map[string]interface{}{
		"Questions": filtered,
		"Category":  category,
		"Status":    status,
		"Flash":     h.session.PopString(r.Context(), flashKey),
	}
	if err := h.view.Render(w, "questions.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render questions page", Code: http.StatusInternalServerError}
	}
	return nil
}

// questionHandler renders one question with its answers.
func (h *PageHandler) questionHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")
	page, err := h.community.GetQuestionPage(r.Context(), slug)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load question", Code: http.StatusInternalServerError}
	}
	if page == nil {
		return &middleware.AppError{Error: errors.New("question not found: " + slug), Message: "Question not found", Code: http.StatusNotFound}
	}

	answers := make([]renderedAnswer, len(page.Answers))
	for i, a := range page.Answers {
		answers[i] = renderedAnswer{Answer: a, HTML: h.community.RenderContent(a.Content)}
	}

	pageData := map[string]interface{}{
		"Question":    page.Question,
		"ContentHTML": h.community.RenderContent(page.Question.Content),
		"Answers":     answers,
	}
	if err := h.view.Render(w, "question.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render question page", Code: http.StatusInternalServerError}
	}
	return nil
}

// askHandler renders the ask-a-question form.
func (h *PageHandler) askHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.view.Render(w, "ask.html", map[string]interface{}{}); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render ask page", Code: http.StatusInternalServerError}
	}
	return nil
}

// askSubmitHandler acknowledges a submitted question. Question creation is
// not wired to the community store yet; nothing is persisted.
func (h *PageHandler) askSubmitHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid form submission", Code: http.StatusBadRequest}
	}
	h.session.Put(r.Context(), flashKey, "Thanks for your question! It will appear once it has been reviewed.")
	http.Redirect(w, r, "/questions", http.StatusFound)
	return nil
}

// usersHandler renders the member list, highest reputation first.
func (h *PageHandler) usersHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	users, err := h.community.ListUsers(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load members", Code: http.StatusInternalServerError}
	}

	pageData := map[string]interface{}{
		"Users": users,
	}
	if err := h.view.Render(w, "users.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render members page", Code: http.StatusInternalServerError}
	}
	return nil
}

// userHandler renders a member profile with their earned badges.
func (h *PageHandler) userHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	slug := chi.URLParam(r, "slug")
	profile, err := h.community.GetUserProfile(r.Context(), slug)
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load member profile", Code: http.StatusInternalServerError}
	}
	if profile == nil {
		return &middleware.AppError{Error: errors.New("user not found: " + slug), Message: "Member not found", Code: http.StatusNotFound}
	}

	pageData := map[string]interface{}{
		"User":    profile.User,
		"BioHTML": h.community.RenderContent(profile.User.Bio),
		"Badges":  profile.Badges,
	}
	if err := h.view.Render(w, "user.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render profile page", Code: http.StatusInternalServerError}
	}
	return nil
}

// badgesHandler renders all badge definitions grouped by type.
func (h *PageHandler) badgesHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	groups, err := h.community.BadgeGroups(r.Context())
	if err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to load badges", Code: http.StatusInternalServerError}
	}

	pageData := map[string]interface{}{
		"Groups": groups,
	}
	if err := h.view.Render(w, "badges.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render badges page", Code: http.StatusInternalServerError}
	}
	return nil
}

// searchHandler renders substring search results for the q parameter.
func (h *PageHandler) searchHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	query := r.URL.Query().Get("q")

	var results []*data.Question
	if query != "" {
		var err error
		results, err = h.community.SearchQuestions(r.Context(), query)
		if err != nil {
			return &middleware.AppError{Error: err, Message: "Search failed", Code: http.StatusInternalServerError}
		}
	}

	pageData := map[string]interface{}{
		"Query":   query,
		"Results": results,
	}
	if err := h.view.Render(w, "search.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render search page", Code: http.StatusInternalServerError}
	}
	return nil
}
