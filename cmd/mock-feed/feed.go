package main

import (
	"encoding/json"
	"log/slog"
	"math/rand"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/NewsFlow/internal/domain"
	"github.com/NewsFlow/internal/mockdata"
	"github.com/gorilla/mux"
)

var feedCategories = []string{"World", "Business", "Technology", "Sports", "Entertainment"}

type feed struct {
	articles    []domain.Article // newest first
	failureRate float64

	mu  sync.Mutex
	rng *rand.Rand
}

func (f *feed) shouldFail() bool {
	if f.failureRate <= 0 {
		return false
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rng.Float64() < f.failureRate
}

func newFeed(now time.Time, perCategory int, failureRate float64, seed int64) *feed {
	var all []domain.Article
	for _, cat := range feedCategories {
		all = append(all, mockdata.GenerateArticles(cat, perCategory, now)...)
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].PublishedAt.After(all[j].PublishedAt)
	})
	return &feed{
		articles:    all,
		failureRate: failureRate,
		rng:         rand.New(rand.NewSource(seed)),
	}
}

func (f *feed) router() *mux.Router {
	r := mux.NewRouter()
	r.Use(f.chaos)
	r.HandleFunc("/api/news", f.list).Methods(http.MethodGet)
	r.HandleFunc("/api/news/latest", f.latest).Methods(http.MethodGet)
	r.HandleFunc("/api/news/{id}", f.byID).Methods(http.MethodGet)
	r.HandleFunc("/api/contact", f.contact).Methods(http.MethodPost)
	return r
}

// chaos fails a share of requests with 503 so clients can exercise retries.
func (f *feed) chaos(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if f.shouldFail() {
			slog.Info("Injecting failure", "path", r.URL.Path)
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"message": "Service temporarily unavailable"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *feed) list(w http.ResponseWriter, r *http.Request) {
	wanted := map[string]bool{}
	for _, c := range strings.Split(r.URL.Query().Get("category"), ",") {
		if c = strings.TrimSpace(c); c != "" {
			wanted[strings.ToLower(c)] = true
		}
	}

	var matched []domain.Article
	for _, a := range f.articles {
		if len(wanted) == 0 || wanted[strings.ToLower(a.Category)] {
			matched = append(matched, a)
		}
	}
	f.writePage(w, r, matched)
}

func (f *feed) latest(w http.ResponseWriter, r *http.Request) {
	f.writePage(w, r, f.articles)
}

func (f *feed) byID(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	for _, a := range f.articles {
		if a.ID == id {
			writeJSON(w, http.StatusOK, a)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "Article not found"})
}

func (f *feed) contact(w http.ResponseWriter, r *http.Request) {
	var sub domain.ContactSubmission
	if err := json.NewDecoder(r.Body).Decode(&sub); err != nil || !sub.Complete() {
		writeJSON(w, http.StatusBadRequest, map[string]string{"status": "error", "message": "All fields are required"})
		return
	}
	slog.Info("Contact form received", "email", sub.Email, "subject", sub.Subject)
	writeJSON(w, http.StatusCreated, map[string]string{"status": "success", "message": "Thank you for your message"})
}

func (f *feed) writePage(w http.ResponseWriter, r *http.Request, all []domain.Article) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}

	writeJSON(w, http.StatusOK, domain.NewsPage{
		Results: append([]domain.Article{}, all[start:end]...),
		Total:   len(all),
		Page:    page,
		Limit:   limit,
	})
}

func queryInt(r *http.Request, name string, fallback int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}
