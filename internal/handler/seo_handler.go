package handler

import (
	"encoding/xml"
	"fmt"
	"net/http"

	"github.com/cosmic-community/community-support-hub/internal/service"
)

// SeoHandler holds dependencies for SEO-related handlers.
type SeoHandler struct {
	community *service.CommunityService
}

// NewSeoHandler creates a new SeoHandler.
func NewSeoHandler(cs *service.CommunityService) *SeoHandler {
	return &SeoHandler{community: cs}
}

// robotsHandler serves a static robots.txt file.
func (h *SeoHandler) robotsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "User-agent: *")
	fmt.Fprintln(w, "Allow: /")
	fmt.Fprintln(w, "")
	// In a real deployment the domain comes from config.
	fmt.Fprintln(w, "Sitemap: http://localhost:8080/sitemap.xml")
}

const (
	sitemapDateFormat = "2006-01-02"
	questionBaseURL   = "http://localhost:8080/questions/"
)

type sitemapURL struct {
	XMLName xml.Name `xml:"url"`
	Loc     string   `xml:"loc"`
	LastMod string   `xml:"lastmod,omitempty"`
}

type urlSet struct {
	XMLName xml.Name     `xml:"urlset"`
	Xmlns   string       `xml:"xmlns,attr"`
	URLs    []sitemapURL `xml:"url"`
}

// sitemapHandler generates and serves a dynamic sitemap.xml over all
// question pages.
func (h *SeoHandler) sitemapHandler(w http.ResponseWriter, r *http.Request) {
	questions, err := h.community.ListQuestions(r.Context())
	if err != nil {
		http.Error(w, "Failed to retrieve questions for sitemap", http.StatusInternalServerError)
		return
	}

	sitemap := urlSet{
		Xmlns: "http://www.sitemaps.org/schemas/sitemap/0.9",
		URLs:  make([]sitemapURL, len(questions)),
	}

	for i, q := range questions {
		entry := sitemapURL{Loc: questionBaseURL + q.Slug}
		if !q.CreatedAt.IsZero() {
			entry.LastMod = q.CreatedAt.Format(sitemapDateFormat)
		}
		sitemap.URLs[i] = entry
	}

	w.Header().Set("Content-Type", "application/xml")
	w.Write([]byte(xml.Header))
	encoder := xml.NewEncoder(w)
	encoder.Indent("", "  ")
	if err := encoder.Encode(sitemap); err != nil {
		http.Error(w, "Failed to generate sitemap XML", http.StatusInternalServerError)
		return
	}
}
