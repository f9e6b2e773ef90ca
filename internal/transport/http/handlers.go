package http

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/NewsFlow/internal/app"
	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/infra/newsapi"
	"github.com/gorilla/mux"
)

// SourceNews serves per-source headline pages.
type SourceNews interface {
	FetchSourceNews(ctx context.Context, source string, page, limit int) (*domain.NewsPage, error)
}

// CachePurger clears cached responses; an empty key clears everything.
type CachePurger interface {
	Purge(ctx context.Context, key string) error
}

type Handler struct {
	news    domain.NewsReader
	sources SourceNews
	purger  CachePurger
	contact domain.ContactGateway
}

func NewHandler(news domain.NewsReader, sources SourceNews, purger CachePurger, contact domain.ContactGateway) *Handler {
	return &Handler{
		news:    news,
		sources: sources,
		purger:  purger,
		contact: contact,
	}
}

type pageResponse struct {
	Results    []domain.Article `json:"results"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	IsMockData bool             `json:"isMockData,omitempty"`
}

type articleResponse struct {
	domain.Article
	IsMockData bool `json:"isMockData,omitempty"`
}

func (h *Handler) ListNews(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := paging(w, r)
	if !ok {
		return
	}
	result, err := h.news.FetchNews(r.Context(), categories(r), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, result)
}

func (h *Handler) LatestNews(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := paging(w, r)
	if !ok {
		return
	}
	result, err := h.news.FetchLatestNews(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, result)
}

func (h *Handler) NewsByID(w http.ResponseWriter, r *http.Request) {
	result, err := h.news.FetchNewsByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, articleResponse{
		Article:    result.Article,
		IsMockData: result.Provenance == domain.ProvenanceMock,
	})
}

func (h *Handler) SourceNews(w http.ResponseWriter, r *http.Request) {
	page, limit, ok := paging(w, r)
	if !ok {
		return
	}
	result, err := h.sources.FetchSourceNews(r.Context(), mux.Vars(r)["source"], page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writePage(w, result)
}

func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	var submission domain.ContactSubmission
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64<<10)).Decode(&submission); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("Invalid request body"))
		return
	}
	reply := h.contact.Forward(r.Context(), submission)
	writeJSON(w, reply.StatusCode, reply.Body)
}

func (h *Handler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	key := mux.Vars(r)["key"]
	if err := h.purger.Purge(r.Context(), key); err != nil {
		// Local caches are already clear at this point
		slog.Warn("Cache purge broadcast failed", "key", key, "error", err)
	}
	w.WriteHeader(http.StatusNoContent)
}

func paging(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	page, err := intParam(r, "page")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("page must be a positive integer"))
		return 0, 0, false
	}
	limit, err := intParam(r, "limit")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("limit must be a positive integer"))
		return 0, 0, false
	}
	return page, limit, true
}

// intParam returns 0 for an absent parameter so the service applies its default.
func intParam(r *http.Request, name string) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, errors.New("invalid " + name)
	}
	return n, nil
}

// categories accepts both ?category=a,b and repeated ?category= parameters.
func categories(r *http.Request) []string {
	var out []string
	for _, v := range r.URL.Query()["category"] {
		out = append(out, strings.Split(v, ",")...)
	}
	return out
}

func writePage(w http.ResponseWriter, p *domain.NewsPage) {
	writeJSON(w, http.StatusOK, pageResponse{
		Results:    p.Results,
		Total:      p.Total,
		Page:       p.Page,
		Limit:      p.Limit,
		IsMockData: p.IsMock(),
	})
}

func writeError(w http.ResponseWriter, err error) {
	var apiErr *newsapi.APIError
	switch {
	case errors.Is(err, app.ErrMissingID), errors.Is(err, app.ErrMissingSource):
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
	case errors.As(err, &apiErr) && apiErr.IsClientError():
		writeJSON(w, apiErr.StatusCode, errorBody(apiErr.UserMessage))
	case errors.Is(err, context.Canceled):
		// client went away, nobody reads the response
		slog.Debug("Request canceled by client", "error", err)
	case errors.Is(err, context.DeadlineExceeded):
		writeJSON(w, http.StatusGatewayTimeout, errorBody(newsapi.MsgConnectivity))
	default:
		slog.Error("Request failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody(newsapi.UserMessage(err)))
	}
}

func errorBody(msg string) map[string]string {
	return map[string]string{"status": "error", "message": msg}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}
