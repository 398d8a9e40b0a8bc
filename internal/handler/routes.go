package handler

import (
	"io/fs"
	"net/http"

	"github.com/alexedwards/scs/v2"
	appmw "github.com/cosmic-community/community-support-hub/internal/middleware"
	"github.com/cosmic-community/community-support-hub/web"
	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// NewRouter creates and configures a new chi router.
func NewRouter(
	pages *PageHandler,
	signup *SignupHandler,
	seo *SeoHandler,
	errorMW func(appmw.AppHandler) http.Handler,
	sessionManager *scs.SessionManager,
) *chi.Mux {
	r := chi.NewRouter()

	// A good base middleware stack
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Logger)
	r.Use(chimw.Recoverer)
	r.Use(sessionManager.LoadAndSave)

	// Static assets
	staticRoot, _ := fs.Sub(web.StaticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticRoot))))

	// Pages
	r.Method(http.MethodGet, "/", errorMW(pages.homeHandler))
	r.Method(http.MethodGet, "/questions", errorMW(pages.questionsHandler))
	r.Method(http.MethodGet, "/questions/ask", errorMW(pages.askHandler))
	r.Method(http.MethodPost, "/questions/ask", errorMW(pages.askSubmitHandler))
	r.Method(http.MethodGet, "/questions/{slug}", errorMW(pages.questionHandler))
	r.Method(http.MethodGet, "/users", errorMW(pages.usersHandler))
	r.Method(http.MethodGet, "/users/{slug}", errorMW(pages.userHandler))
	r.Method(http.MethodGet, "/badges", errorMW(pages.badgesHandler))
	r.Method(http.MethodGet, "/search", errorMW(pages.searchHandler))

	// Signup: HTML form and JSON API
	r.Method(http.MethodGet, "/signup", errorMW(signup.signupFormHandler))
	r.Method(http.MethodPost, "/signup", errorMW(signup.signupSubmitHandler))
	r.Post("/api/signup", signup.apiSignupHandler)

	// SEO
	r.Get("/robots.txt", seo.robotsHandler)
	r.Get("/sitemap.xml", seo.sitemapHandler)

	return r
}
