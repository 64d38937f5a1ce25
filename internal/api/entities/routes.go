package entities

import (
	"net/http"

	"github.com/johnwards/repoquery/internal/store"
)

// RegisterRoutes adds the generic entity endpoints to the given mux.
func RegisterRoutes(mux *http.ServeMux, s *store.Store) {
	h := &Handler{repo: s.Repository}

	mux.HandleFunc("GET /v1/{entity}", h.List)
	mux.HandleFunc("POST /v1/{entity}", h.Create)
	mux.HandleFunc("POST /v1/{entity}/query", h.Query)
	mux.HandleFunc("POST /v1/{entity}/query/one", h.QueryOne)
	mux.HandleFunc("GET /v1/{entity}/{id}", h.Get)
	mux.HandleFunc("PATCH /v1/{entity}/{id}", h.Update)
	mux.HandleFunc("DELETE /v1/{entity}/{id}", h.Delete)
}
