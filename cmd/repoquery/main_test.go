package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestCompileCommand(t *testing.T) {
	out, err := runCLI(t, "compile",
		"--entity", "places",
		"--where", `{"user": {"name": "Ann Lee"}, "rating": {"$gte": 4}}`,
		"--order", `{"rating": "DESC"}`,
	)
	if err != nil {
		t.Fatalf("compile: %v", err)
	}

	var plan struct {
		Entity string                    `json:"entity"`
		Where  map[string]map[string]any `json:"where"`
		Order  []map[string]any          `json:"order"`
		Select string                    `json:"select"`
	}
	if err := json.Unmarshal([]byte(out), &plan); err != nil {
		t.Fatalf("decode output %q: %v", out, err)
	}
	if plan.Entity != "places" {
		t.Errorf("entity = %q, want places", plan.Entity)
	}
	if plan.Where["user.name"]["op"] != "eq" || plan.Where["rating"]["op"] != "gte" {
		t.Errorf("where = %v", plan.Where)
	}
	if len(plan.Order) != 1 || plan.Order[0]["direction"] != "DESC" {
		t.Errorf("order = %v", plan.Order)
	}
	if !strings.Contains(plan.Select, `LEFT JOIN "users" t1`) {
		t.Errorf("select = %q, want users join", plan.Select)
	}
}

func TestCompileCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing entity", []string{"compile"}, "entity"},
		{"bad json", []string{"compile", "--entity", "places", "--where", "{"}, "--where"},
		{"unknown operator", []string{"compile", "--entity", "places", "--where", `{"name": {"$near": 1}}`}, "unknown operator"},
		{"bad direction", []string{"compile", "--entity", "places", "--order", `{"name": "UP"}`}, "must be ASC"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runCLI(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestCompileCommandLiteralFallback(t *testing.T) {
	_, err := runCLI(t, "compile", "--entity", "places", "--literal-fallback", "--where", `{"name": {"$near": 1}}`)
	if err != nil {
		t.Errorf("compile with fallback: %v", err)
	}
}
