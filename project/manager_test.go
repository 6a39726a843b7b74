package project

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
)

const projectsDoc = `{"projects": [
	{"id": "1", "title": "Support Agent", "type": "agent", "featured": true, "priority": 2},
	{"id": "2", "title": "Invoice Flow", "type": "workflow"},
	{"id": "3", "title": "Shop", "type": "fullstack", "featured": true, "priority": 1, "liveUrl": "https://shop.example.com"},
	{"id": "4", "title": "Scripts", "type": "misc", "priority": 2}
]}`

func ids(projects []Project) []string {
	out := make([]string, len(projects))
	for i, p := range projects {
		out[i] = p.ID
	}
	return out
}

func setupManager(t *testing.T) *Manager {
	t.Helper()
	projects, err := Decode(strings.NewReader(projectsDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return New(projects, WithLogger(zerolog.Nop()))
}

func TestDecodeDefaults(t *testing.T) {
	projects, err := Decode(strings.NewReader(projectsDoc))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	p := projects[1]
	if p.Featured || p.Priority != DefaultPriority {
		t.Errorf("defaults = featured %v priority %d", p.Featured, p.Priority)
	}
	if p.Tags == nil || p.Stack == nil || p.Features == nil {
		t.Errorf("list fields should decode as empty slices: %+v", p)
	}
}

func TestAllSortsByPriority(t *testing.T) {
	m := setupManager(t)
	// 1 and 4 share priority 2 and keep their load order
	want := []string{"3", "1", "4", "2"}
	if diff := cmp.Diff(want, ids(m.All())); diff != "" {
		t.Errorf("All() order mismatch (-want +got):\n%s", diff)
	}
}

func TestFeatured(t *testing.T) {
	m := setupManager(t)
	if diff := cmp.Diff([]string{"3", "1"}, ids(m.Featured())); diff != "" {
		t.Errorf("Featured() mismatch (-want +got):\n%s", diff)
	}
}

func TestByType(t *testing.T) {
	m := setupManager(t)
	tests := []struct {
		typ  Type
		want []string
	}{
		{TypeAgent, []string{"1"}},
		{TypeWorkflow, []string{"2"}},
		{TypeAll, []string{"3", "1", "4", "2"}},
	}
	for _, tt := range tests {
		if diff := cmp.Diff(tt.want, ids(m.ByType(tt.typ))); diff != "" {
			t.Errorf("ByType(%s) mismatch (-want +got):\n%s", tt.typ, diff)
		}
	}
}

func TestParseType(t *testing.T) {
	if got, err := ParseType(""); err != nil || got != TypeAll {
		t.Errorf("ParseType(\"\") = %q, %v", got, err)
	}
	if got, err := ParseType("Agent"); err != nil || got != TypeAgent {
		t.Errorf("ParseType(Agent) = %q, %v", got, err)
	}
	if _, err := ParseType("game"); !errors.Is(err, ErrUnknownType) {
		t.Errorf("ParseType(game) err = %v, want ErrUnknownType", err)
	}
}

func TestByIDReturnsCopy(t *testing.T) {
	m := setupManager(t)
	p, ok := m.ByID("3")
	if !ok {
		t.Fatal("project 3 not found")
	}
	p.Tags = append(p.Tags, "changed")
	again, _ := m.ByID("3")
	if len(again.Tags) != 0 {
		t.Errorf("store modified through a returned copy: %v", again.Tags)
	}
	if _, ok := m.ByID("missing"); ok {
		t.Error("missing id should report false")
	}
}

func TestInvalidCollectionServesEmpty(t *testing.T) {
	tests := []struct {
		name     string
		projects []Project
		want     error
	}{
		{"bad type", []Project{{ID: "1", Title: "x", Type: "game"}}, ErrInvalidProject},
		{"no title", []Project{{ID: "1", Type: TypeMisc}}, ErrInvalidProject},
		{"bad url", []Project{{ID: "1", Title: "x", Type: TypeMisc, LiveURL: "not a url"}}, ErrInvalidProject},
		{"duplicate id", []Project{{ID: "1", Title: "x", Type: TypeMisc}, {ID: "1", Title: "y", Type: TypeMisc}}, ErrDuplicateID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateAll(tt.projects); !errors.Is(err, tt.want) {
				t.Errorf("ValidateAll err = %v, want %v", err, tt.want)
			}
			if m := New(tt.projects, WithLogger(zerolog.Nop())); m.Len() != 0 {
				t.Errorf("Len = %d, want 0", m.Len())
			}
		})
	}
}
