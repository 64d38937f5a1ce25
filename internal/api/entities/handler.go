package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/johnwards/repoquery/internal/api"
	"github.com/johnwards/repoquery/internal/domain"
	"github.com/johnwards/repoquery/internal/jsonv"
	"github.com/johnwards/repoquery/internal/metrics"
	"github.com/johnwards/repoquery/internal/store"
)

// Handler handles generic entity HTTP requests.
type Handler struct {
	repo store.Repository
}

// maxBatchSize bounds createMany requests.
const maxBatchSize = 100

func observe(entity, operation string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.OperationsTotal.WithLabelValues(entity, operation, status).Inc()
}

// Query handles POST /v1/{entity}/query.
func (h *Handler) Query(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	corrID := api.CorrelationID(r.Context())

	var q domain.Query
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON: "+err.Error(), corrID, nil))
		return
	}

	h.getMany(w, r, entity, q)
}

// List handles GET /v1/{entity}. The where and order query parameters carry
// JSON documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	corrID := api.CorrelationID(r.Context())

	q, err := parseListQuery(r)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError(err.Error(), corrID, nil))
		return
	}

	h.getMany(w, r, entity, q)
}

func (h *Handler) getMany(w http.ResponseWriter, r *http.Request, entity string, q domain.Query) {
	res, err := h.repo.GetMany(r.Context(), entity, q)
	observe(entity, "getMany", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, res)
}

func parseListQuery(r *http.Request) (domain.Query, error) {
	params := r.URL.Query()
	var q domain.Query

	for name, dst := range map[string]*jsonv.Value{"where": &q.Where, "order": &q.Order} {
		raw := params.Get(name)
		if raw == "" {
			continue
		}
		v, err := jsonv.Decode([]byte(raw))
		if err != nil {
			return domain.Query{}, fmt.Errorf("%s must be a JSON document: %s", name, err)
		}
		*dst = v
	}

	q.Relations = parseRelationsParam(r)
	q.DataType = domain.DataType(params.Get("dataType"))

	page, size := params.Get("page"), params.Get("size")
	if page != "" || size != "" {
		if size == "" {
			return domain.Query{}, errors.New("size is required with page")
		}
		pg := &domain.Pagination{}
		var err error
		if page != "" {
			if pg.Page, err = strconv.Atoi(page); err != nil {
				return domain.Query{}, fmt.Errorf("page must be an integer")
			}
		}
		if pg.Size, err = strconv.Atoi(size); err != nil {
			return domain.Query{}, fmt.Errorf("size must be an integer")
		}
		q.Pagination = pg
	}

	return q, nil
}

// parseRelationsParam reads the relations query parameter, which may be
// comma-separated or repeated.
func parseRelationsParam(r *http.Request) []string {
	var relations []string
	for _, v := range r.URL.Query()["relations"] {
		for _, name := range strings.Split(v, ",") {
			if name = strings.TrimSpace(name); name != "" {
				relations = append(relations, name)
			}
		}
	}
	return relations
}

// QueryOne handles POST /v1/{entity}/query/one.
func (h *Handler) QueryOne(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	corrID := api.CorrelationID(r.Context())

	var q domain.OneQuery
	if err := json.NewDecoder(r.Body).Decode(&q); err != nil && !errors.Is(err, io.EOF) {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON: "+err.Error(), corrID, nil))
		return
	}

	rec, err := h.repo.GetOne(r.Context(), entity, q)
	observe(entity, "getOne", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

// Get handles GET /v1/{entity}/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")

	rec, err := h.repo.GetByID(r.Context(), entity, r.PathValue("id"), parseRelationsParam(r))
	observe(entity, "getOne", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

// Create handles POST /v1/{entity}. An object body creates one row, an array
// body creates all of them atomically.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	corrID := api.CorrelationID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}

	trimmed := bytes.TrimSpace(body)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var inputs []domain.Input
		if err := decodeInput(trimmed, &inputs); err != nil {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON: "+err.Error(), corrID, nil))
			return
		}
		if len(inputs) > maxBatchSize {
			api.WriteError(w, http.StatusBadRequest, api.NewValidationError(
				fmt.Sprintf("Batch size %d exceeds maximum of %d", len(inputs), maxBatchSize), corrID, nil))
			return
		}
		recs, err := h.repo.CreateMany(r.Context(), entity, inputs)
		observe(entity, "createMany", err)
		if err != nil {
			writeStoreError(w, r, entity, err)
			return
		}
		api.WriteJSON(w, http.StatusCreated, recs)
		return
	}

	var in domain.Input
	if err := decodeInput(trimmed, &in); err != nil || in == nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Input must be a JSON object or array of objects", corrID, nil))
		return
	}
	rec, err := h.repo.Create(r.Context(), entity, in)
	observe(entity, "create", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}
	api.WriteJSON(w, http.StatusCreated, rec)
}

// Update handles PATCH /v1/{entity}/{id}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")
	corrID := api.CorrelationID(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Invalid input JSON", corrID, nil))
		return
	}
	var in domain.Input
	if err := decodeInput(body, &in); err != nil || in == nil {
		api.WriteError(w, http.StatusBadRequest, api.NewValidationError("Input must be a JSON object", corrID, nil))
		return
	}

	rec, err := h.repo.Update(r.Context(), entity, r.PathValue("id"), in)
	observe(entity, "update", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}
	api.WriteJSON(w, http.StatusOK, rec)
}

// Delete handles DELETE /v1/{entity}/{id}. A missing row is reported in the
// body, not as a 404.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	entity := r.PathValue("entity")

	ok, err := h.repo.Delete(r.Context(), entity, r.PathValue("id"))
	observe(entity, "delete", err)
	if err != nil {
		writeStoreError(w, r, entity, err)
		return
	}

	res := domain.DeleteResult{Status: domain.StatusFail}
	if ok {
		res.Status = domain.StatusSuccess
	}
	api.WriteJSON(w, http.StatusOK, res)
}

// decodeInput decodes body keeping numbers as json.Number so integer
// columns do not round-trip through float64.
func decodeInput(body []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(v); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after input")
	}
	return nil
}
