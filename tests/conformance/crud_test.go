package conformance_test

import (
	"net/http"
	"testing"
)

func TestCRUD_CreateAndGet(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, "/v1/users", map[string]any{
		"name":  "Dan Moss",
		"email": "dan@example.com",
		"age":   41,
	})
	mustStatus(t, resp, http.StatusCreated)
	user := readJSON(t, resp)

	id := assertIsString(t, user, "id")
	assertStringField(t, user, "name", "Dan Moss")
	assertISOTimestamp(t, assertIsString(t, user, "created_at"))
	assertISOTimestamp(t, assertIsString(t, user, "updated_at"))

	resp = doRequest(t, http.MethodPost, "/v1/places", map[string]any{
		"name":     "Kew Gardens",
		"category": "park",
		"rating":   4.6,
		"user_id":  id,
	})
	mustStatus(t, resp, http.StatusCreated)
	place := readJSON(t, resp)
	if place["id"] != float64(6) {
		t.Errorf("id = %v, want 6", place["id"])
	}

	resp = doRequest(t, http.MethodGet, "/v1/users/"+id+"?relations=places", nil)
	mustStatus(t, resp, http.StatusOK)
	got := readJSON(t, resp)
	places := assertIsArray(t, got, "places")
	if len(places) != 1 {
		t.Fatalf("got %d places, want 1", len(places))
	}
	assertStringField(t, toObject(t, places[0]), "name", "Kew Gardens")
}

func TestCRUD_CreateMany(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPost, "/v1/places", []map[string]any{
		{"name": "Prado", "category": "museum"},
		{"name": "Hyde Park", "category": "park"},
	})
	mustStatus(t, resp, http.StatusCreated)
	created := readJSONArray(t, resp)
	if len(created) != 2 {
		t.Fatalf("created %d places, want 2", len(created))
	}

	// One bad input rolls the whole batch back.
	resp = doRequest(t, http.MethodPost, "/v1/places", []map[string]any{
		{"name": "Uffizi", "category": "museum"},
		{"name": "Nowhere", "altitude": 10},
	})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")

	assertNumbers(t, queryIDs(t, "places", `{"where": {"name": "Uffizi"}}`))
}

func TestCRUD_Update(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodPatch, "/v1/places/3", map[string]any{"rating": 4.9})
	mustStatus(t, resp, http.StatusOK)
	place := readJSON(t, resp)
	if place["rating"] != 4.9 {
		t.Errorf("rating = %v, want 4.9", place["rating"])
	}
	// Fields not in the input are untouched.
	assertStringField(t, place, "name", "Joe's Pizza")

	resp = doRequest(t, http.MethodPatch, "/v1/places/99", map[string]any{"rating": 1})
	mustStatus(t, resp, http.StatusNotFound)
	assertAPIError(t, readJSON(t, resp), "OBJECT_NOT_FOUND")

	resp = doRequest(t, http.MethodPatch, "/v1/places/3", map[string]any{"id": 7})
	mustStatus(t, resp, http.StatusBadRequest)
	assertAPIError(t, readJSON(t, resp), "VALIDATION_ERROR")
}

func TestCRUD_Delete(t *testing.T) {
	resetServer(t)

	resp := doRequest(t, http.MethodDelete, "/v1/places/4", nil)
	mustStatus(t, resp, http.StatusOK)
	assertStringField(t, readJSON(t, resp), "status", "success")

	resp = doRequest(t, http.MethodDelete, "/v1/places/4", nil)
	mustStatus(t, resp, http.StatusOK)
	assertStringField(t, readJSON(t, resp), "status", "fail")

	assertNumbers(t, queryIDs(t, "places", `{"where": {"category": "museum"}}`), 2)
}
