package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/alexedwards/scs/v2"
	"github.com/cosmic-community/community-support-hub/internal/logger"
	"github.com/cosmic-community/community-support-hub/internal/middleware"
	"github.com/cosmic-community/community-support-hub/internal/service"
	"github.com/cosmic-community/community-support-hub/internal/view"
)

// SignupHandler serves the signup form and the JSON signup endpoint.
type SignupHandler struct {
	signup  *service.SignupService
	view    *view.View
	session *scs.SessionManager
	log     logger.Logger
}

// NewSignupHandler creates a new SignupHandler.
func NewSignupHandler(ss *service.SignupService, v *view.View, sm *scs.SessionManager, log logger.Logger) *SignupHandler {
	return &SignupHandler{signup: ss, view: v, session: sm, log: log}
}

// signupPayload is the JSON request body: a user draft in the bucket's
// object shape plus the plaintext password.
type signupPayload struct {
	User *struct {
		Title    string                 `json:"title"`
		Slug     string                 `json:"slug"`
		Type     string                 `json:"type"`
		Metadata map[string]interface{} `json:"metadata"`
	} `json:"user"`
	Password string `json:"password"`
}

type messageResponse struct {
	Message string              `json:"message"`
	User    *service.PublicUser `json:"user,omitempty"`
}

// apiSignupHandler handles POST /api/signup.
func (h *SignupHandler) apiSignupHandler(w http.ResponseWriter, r *http.Request) {
	var payload signupPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithMessage(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	if payload.User == nil || payload.Password == "" {
		respondWithMessage(w, http.StatusBadRequest, "User data and password are required")
		return
	}

	req := service.SignupRequest{
		Name:          metaString(payload.User.Metadata, "name"),
		Username:      metaString(payload.User.Metadata, "username"),
		Email:         metaString(payload.User.Metadata, "email"),
		Password:      payload.Password,
		Slug:          payload.User.Slug,
		Bio:           metaString(payload.User.Metadata, "bio"),
		CompanyRole:   metaString(payload.User.Metadata, "company_role"),
		Location:      metaString(payload.User.Metadata, "location"),
		Website:       metaString(payload.User.Metadata, "website"),
		ExpertiseTags: metaString(payload.User.Metadata, "expertise_tags"),
	}

	created, err := h.signup.Signup(r.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		var conflictErr *service.ConflictError
		switch {
		case errors.As(err, &validationErr):
			respondWithMessage(w, http.StatusBadRequest, validationErr.Message)
		case errors.As(err, &conflictErr):
			respondWithMessage(w, http.StatusConflict, conflictErr.Message)
		default:
			h.log.Error(err, "Signup failed")
			respondWithMessage(w, http.StatusInternalServerError, "Internal server error")
		}
		return
	}

	respondWithJSON(w, http.StatusCreated, messageResponse{
		Message: "User created successfully",
		User:    created,
	})
}

// signupFormHandler renders the signup form.
func (h *SignupHandler) signupFormHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := h.view.Render(w, "signup.html", map[string]interface{}{}); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render signup page", Code: http.StatusInternalServerError}
	}
	return nil
}

// signupSubmitHandler handles the urlencoded signup form. It calls the
// same service as the JSON endpoint; failures re-render the form with an
// inline message instead of an error page.
func (h *SignupHandler) signupSubmitHandler(w http.ResponseWriter, r *http.Request) *middleware.AppError {
	if err := r.ParseForm(); err != nil {
		return &middleware.AppError{Error: err, Message: "Invalid form submission", Code: http.StatusBadRequest}
	}

	req := service.SignupRequest{
		Name:          r.PostFormValue("name"),
		Username:      r.PostFormValue("username"),
		Email:         r.PostFormValue("email"),
		Password:      r.PostFormValue("password"),
		Bio:           r.PostFormValue("bio"),
		CompanyRole:   r.PostFormValue("company_role"),
		Location:      r.PostFormValue("location"),
		Website:       r.PostFormValue("website"),
		ExpertiseTags: r.PostFormValue("expertise_tags"),
	}

	if req.Password != r.PostFormValue("confirm_password") {
		return h.renderSignupError(w, http.StatusBadRequest, "Passwords do not match", req)
	}

	created, err := h.signup.Signup(r.Context(), req)
	if err != nil {
		var validationErr *service.ValidationError
		var conflictErr *service.ConflictError
		switch {
		case errors.As(err, &validationErr):
			return h.renderSignupError(w, http.StatusBadRequest, validationErr.Message, req)
		case errors.As(err, &conflictErr):
			return h.renderSignupError(w, http.StatusConflict, conflictErr.Message, req)
		default:
			return &middleware.AppError{Error: err, Message: "Signup failed", Code: http.StatusInternalServerError}
		}
	}

	h.session.Put(r.Context(), flashKey, fmt.Sprintf("Welcome, %s! Your account is ready.", created.Name))
	http.Redirect(w, r, "/", http.StatusFound)
	return nil
}

func (h *SignupHandler) renderSignupError(w http.ResponseWriter, code int, message string, req service.SignupRequest) *middleware.AppError {
	w.WriteHeader(code)
	pageData := map[string]interface{}{
		"Error": message,
		"Form":  req,
	}
	if err := h.view.Render(w, "signup.html", pageData); err != nil {
		return &middleware.AppError{Error: err, Message: "Failed to render signup page", Code: http.StatusInternalServerError}
	}
	return nil
}

func metaString(metadata map[string]interface{}, key string) string {
	if metadata == nil {
		return ""
	}
	if s, ok := metadata[key].(string); ok {
		return s
	}
	return ""
}

func respondWithMessage(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, messageResponse{Message: message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"message": "Failed to marshal JSON response"}`))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}
