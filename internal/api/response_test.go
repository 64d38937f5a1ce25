package api_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/johnwards/repoquery/internal/api"
	"github.com/johnwards/repoquery/internal/domain"
)

func TestWriteJSONResult(t *testing.T) {
	rows := []domain.Record{{"id": int64(1), "name": "Louvre"}}

	tests := []struct {
		name   string
		status int
		v      any
		want   string
	}{
		{"all", http.StatusOK, &domain.Result{DataType: domain.DataAll, Data: rows, Count: 1}, `{"count":1,"data":[{"id":1,"name":"Louvre"}]}`},
		{"data only", http.StatusOK, &domain.Result{DataType: domain.DataRows, Count: 1}, `{"data":[]}`},
		{"count only", http.StatusOK, &domain.Result{DataType: domain.DataCount, Data: rows, Count: 7}, `{"count":7}`},
		{"created record", http.StatusCreated, domain.Record{"id": "u1"}, `{"id":"u1"}`},
		{"delete result", http.StatusOK, domain.DeleteResult{Status: domain.StatusFail}, `{"status":"fail"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			api.WriteJSON(rec, tt.status, tt.v)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Content-Type = %q, want application/json", ct)
			}
			if got := strings.TrimSpace(rec.Body.String()); got != tt.want {
				t.Errorf("body = %s, want %s", got, tt.want)
			}
		})
	}
}
