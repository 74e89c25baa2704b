package httpadapter

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/kirillkom/haiku-studio/internal/core/domain"
)

var errStoreDisabled = errors.New("storage backend is not configured")

func (rt *Router) storeIndex(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"message": "Welcome to the Haiku Generator API",
		"endpoints": map[string]string{
			"GET /api/haikus":  "Retrieve all haikus",
			"POST /api/haikus": "Create a new haiku",
			"GET /api/health":  "Health check endpoint",
		},
	})
}

func (rt *Router) listHaikus(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Store == nil {
		writeError(w, r, domain.WrapError(domain.ErrTemporary, "list haikus", errStoreDisabled))
		return
	}
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, r, domain.WrapError(domain.ErrInvalidInput, "list haikus", err))
			return
		}
		limit = n
	}
	items, err := rt.deps.Store.List(r.Context(), limit)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if items == nil {
		items = []domain.StoredArtifact{}
	}
	writeJSON(w, http.StatusOK, items)
}

func (rt *Router) createHaiku(w http.ResponseWriter, r *http.Request) {
	if rt.deps.Store == nil {
		writeError(w, r, domain.WrapError(domain.ErrTemporary, "create haiku", errStoreDisabled))
		return
	}
	var in domain.NewArtifact
	if err := decodeJSON(w, r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	if _, err := rt.deps.Store.Create(r.Context(), in); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]bool{"success": true})
}

func (rt *Router) storeHealth(w http.ResponseWriter, r *http.Request) {
	healthy := rt.deps.Store != nil && rt.deps.Store.Healthy(r.Context())
	writeJSON(w, http.StatusOK, map[string]any{"status": "healthy", "database": healthy})
}
