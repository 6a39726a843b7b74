// Package project holds the portfolio's project records and answers the
// queries the projects section needs: all projects in display order, the
// featured ones, and those of one type.
package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// Type categorizes a project.
type Type string

const (
	TypeAgent     Type = "agent"
	TypeWorkflow  Type = "workflow"
	TypeFullstack Type = "fullstack"
	TypeMisc      Type = "misc"
	// TypeAll is a query value only; no record carries it.
	TypeAll Type = "all"
)

// DefaultPriority is given to records that do not set a priority. Lower
// priorities are shown first.
const DefaultPriority = 999

var (
	// ErrInvalidProject is returned when a record fails schema validation.
	ErrInvalidProject = errors.New("project: invalid project")
	// ErrDuplicateID is returned when two records share an id.
	ErrDuplicateID = errors.New("project: duplicate id")
	// ErrUnknownType is returned for a type query outside the known set.
	ErrUnknownType = errors.New("project: unknown type")
)

// Project is one portfolio entry.
type Project struct {
	ID               string   `json:"id" validate:"required"`
	Title            string   `json:"title" validate:"required"`
	Description      string   `json:"description"`
	Image            string   `json:"image"`
	QuickViewImage   string   `json:"quickViewImage,omitempty"`
	Video            string   `json:"video,omitempty"`
	Tags             []string `json:"tags"`
	Stack            []string `json:"stack"`
	Timeline         string   `json:"timeline"`
	Features         []string `json:"features"`
	Challenges       []string `json:"challenges,omitempty"`
	GithubURL        string   `json:"githubUrl,omitempty" validate:"omitempty,url"`
	LiveURL          string   `json:"liveUrl,omitempty" validate:"omitempty,url"`
	Type             Type     `json:"type" validate:"oneof=agent workflow fullstack misc"`
	QuickViewEnabled bool     `json:"quickViewEnabled"`
	Featured         bool     `json:"featured"`
	Priority         int      `json:"priority"`
}

// ParseType checks a type query. The empty string means TypeAll.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	switch t {
	case "":
		return TypeAll, nil
	case TypeAgent, TypeWorkflow, TypeFullstack, TypeMisc, TypeAll:
		return t, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownType, s)
}

var projectValidator = sync.OnceValue(func() *validator.Validate {
	return validator.New()
})

// Validate checks a single record against the project schema.
func Validate(p Project) error {
	err := projectValidator().Struct(p)
	if err == nil {
		return nil
	}
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return fmt.Errorf("%w: %v", ErrInvalidProject, err)
	}
	fields := make([]string, 0, len(ve))
	for _, fe := range ve {
		fields = append(fields, fe.Field()+" ("+fe.Tag()+")")
	}
	return fmt.Errorf("%w %q: %s", ErrInvalidProject, p.ID, strings.Join(fields, ", "))
}

// ValidateAll validates every record and checks that ids are unique.
func ValidateAll(projects []Project) error {
	var errs []error
	ids := make(map[string]struct{}, len(projects))
	for _, p := range projects {
		if err := Validate(p); err != nil {
			errs = append(errs, err)
			continue
		}
		if _, ok := ids[p.ID]; ok {
			errs = append(errs, fmt.Errorf("%w: %s", ErrDuplicateID, p.ID))
			continue
		}
		ids[p.ID] = struct{}{}
	}
	return errors.Join(errs...)
}

// record is the on-disk form, where featured and priority may be absent.
type record struct {
	Project
	Featured *bool `json:"featured"`
	Priority *int  `json:"priority"`
}

// Decode reads a {"projects": [...]} document. Missing featured flags are
// false and missing priorities are DefaultPriority.
func Decode(r io.Reader) ([]Project, error) {
	var doc struct {
		Projects []record `json:"projects"`
	}
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("project: decode json: %w", err)
	}
	out := make([]Project, 0, len(doc.Projects))
	for _, rec := range doc.Projects {
		p := rec.Project
		p.Featured = rec.Featured != nil && *rec.Featured
		p.Priority = DefaultPriority
		if rec.Priority != nil {
			p.Priority = *rec.Priority
		}
		if p.Tags == nil {
			p.Tags = []string{}
		}
		if p.Stack == nil {
			p.Stack = []string{}
		}
		if p.Features == nil {
			p.Features = []string{}
		}
		out = append(out, p)
	}
	return out, nil
}

// Load reads the projects document at path.
func Load(path string) ([]Project, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Decode(f)
}

// Clone returns a copy that shares no slices with p.
func (p Project) Clone() Project {
	c := p
	c.Tags = slices.Clone(p.Tags)
	c.Stack = slices.Clone(p.Stack)
	c.Features = slices.Clone(p.Features)
	c.Challenges = slices.Clone(p.Challenges)
	return c
}
