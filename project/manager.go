package project

import (
	"sort"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Manager is an immutable view of the projects sorted by priority. It is
// safe for concurrent use and returns copies.
type Manager struct {
	projects []Project
	byID     map[string]int
	log      zerolog.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for load-time diagnostics.
func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.log = l
	}
}

// New copies and validates projects and sorts them by ascending priority.
// Equal priorities keep their load order. An invalid collection is logged
// and the manager serves no projects.
func New(projects []Project, opts ...Option) *Manager {
	m := &Manager{
		projects: []Project{},
		byID:     map[string]int{},
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := ValidateAll(projects); err != nil {
		m.log.Error().Err(err).Int("projects", len(projects)).Msg("project: invalid content, serving empty store")
		return m
	}

	m.projects = make([]Project, len(projects))
	for i, p := range projects {
		m.projects[i] = p.Clone()
	}
	sort.SliceStable(m.projects, func(i, j int) bool {
		return m.projects[i].Priority < m.projects[j].Priority
	})
	for i, p := range m.projects {
		m.byID[p.ID] = i
	}
	return m
}

// Len returns the number of projects.
func (m *Manager) Len() int {
	return len(m.projects)
}

// All returns every project in priority order.
func (m *Manager) All() []Project {
	return m.filter(func(Project) bool { return true })
}

// Featured returns the featured projects in priority order.
func (m *Manager) Featured() []Project {
	return m.filter(func(p Project) bool { return p.Featured })
}

// ByType returns the projects of type t in priority order. TypeAll returns
// every project.
func (m *Manager) ByType(t Type) []Project {
	if t == TypeAll {
		return m.All()
	}
	return m.filter(func(p Project) bool { return p.Type == t })
}

// ByID returns the project with the given id.
func (m *Manager) ByID(id string) (Project, bool) {
	i, ok := m.byID[id]
	if !ok {
		return Project{}, false
	}
	return m.projects[i].Clone(), true
}

func (m *Manager) filter(keep func(Project) bool) []Project {
	out := []Project{}
	for _, p := range m.projects {
		if keep(p) {
			out = append(out, p.Clone())
		}
	}
	return out
}
