// Package catalog holds the portfolio projects rendered by the site. Projects are
// read from YAML files, one project per file, and can be filtered with expr-lang
// expressions over the Project fields.
package catalog

import (
	"cmp"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"regexp"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"gopkg.in/yaml.v3"
)

var (
	// ErrInvalidProject is returned when a project fails validation.
	ErrInvalidProject = errors.New("invalid project")

	// ErrDuplicateSlug is returned when two projects share a slug.
	ErrDuplicateSlug = errors.New("duplicate project slug")
)

var slugRegex = regexp.MustCompile(`^[a-z0-9][a-z0-9-]*$`)

// Project is a single portfolio entry.
type Project struct {
	Slug     string    `yaml:"slug"`
	Title    string    `yaml:"title"`
	Summary  string    `yaml:"summary"`
	Body     string    `yaml:"body"`
	Tags     []string  `yaml:"tags"`
	Year     int       `yaml:"year"`
	Featured bool      `yaml:"featured"`
	URL      string    `yaml:"url"`
	Image    string    `yaml:"image"`
	Updated  time.Time `yaml:"updated"`
}

func (p Project) validate() error {
	if !slugRegex.MatchString(p.Slug) {
		return fmt.Errorf("%w: slug %q must match %s", ErrInvalidProject, p.Slug, slugRegex)
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("%w: %s has no title", ErrInvalidProject, p.Slug)
	}
	return nil
}

// Catalog is a concurrency-safe, reloadable set of projects.
type Catalog struct {
	mu       sync.RWMutex
	projects []Project
	bySlug   map[string]int

	progMu   sync.Mutex
	programs map[string]*vm.Program

	subMu       sync.Mutex
	subscribers map[chan struct{}]struct{}
}

// New creates a catalog from projects.
func New(projects ...Project) (*Catalog, error) {
	sorted, index, err := buildIndex(projects)
	if err != nil {
		return nil, err
	}
	return &Catalog{
		projects:    sorted,
		bySlug:      index,
		programs:    make(map[string]*vm.Program),
		subscribers: make(map[chan struct{}]struct{}),
	}, nil
}

// Load reads every *.yaml and *.yml file at the root of fsys. A project's slug
// defaults to its file name without the extension.
func Load(fsys fs.FS) (*Catalog, error) {
	projects, err := readProjects(fsys)
	if err != nil {
		return nil, err
	}
	return New(projects...)
}

// Reload replaces the catalog contents with the projects in fsys and notifies
// subscribers. On error the previous contents are kept.
func (c *Catalog) Reload(fsys fs.FS) error {
	projects, err := readProjects(fsys)
	if err != nil {
		return err
	}
	sorted, index, err := buildIndex(projects)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.projects = sorted
	c.bySlug = index
	c.mu.Unlock()

	c.notify()
	return nil
}

func readProjects(fsys fs.FS) ([]Project, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("read content directory: %w", err)
	}

	var projects []Project
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !IsProjectFile(name) {
			continue
		}

		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}

		var p Project
		if err := yaml.Unmarshal(data, &p); err != nil {
			return nil, fmt.Errorf("decode %s: %w", name, err)
		}
		if p.Slug == "" {
			p.Slug = strings.TrimSuffix(name, path.Ext(name))
		}
		projects = append(projects, p)
	}

	return projects, nil
}

// IsProjectFile reports whether name has a project file extension.
func IsProjectFile(name string) bool {
	switch path.Ext(name) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

// buildIndex validates projects and sorts them newest first, then by title.
func buildIndex(projects []Project) ([]Project, map[string]int, error) {
	sorted := slices.Clone(projects)
	for _, p := range sorted {
		if err := p.validate(); err != nil {
			return nil, nil, err
		}
	}

	slices.SortStableFunc(sorted, func(a, b Project) int {
		if c := cmp.Compare(b.Year, a.Year); c != 0 {
			return c
		}
		return cmp.Compare(a.Title, b.Title)
	})

	index := make(map[string]int, len(sorted))
	for i, p := range sorted {
		if _, ok := index[p.Slug]; ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrDuplicateSlug, p.Slug)
		}
		index[p.Slug] = i
	}

	return sorted, index, nil
}

// Get returns the project with the given slug.
func (c *Catalog) Get(slug string) (Project, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	i, ok := c.bySlug[slug]
	if !ok {
		return Project{}, false
	}
	return c.projects[i], true
}

// List returns all projects sorted by year descending, then by title.
func (c *Catalog) List() []Project {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Clone(c.projects)
}

// Len returns the number of projects.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.projects)
}

// Query returns the projects for which the boolean expression holds, in List order.
// The expression sees the Project fields by name:
//
//	Featured && "go" in Tags
//	Year >= 2020
func (c *Catalog) Query(expression string) ([]Project, error) {
	prog, err := c.program(expression)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	var out []Project
	for _, p := range c.projects {
		v, err := expr.Run(prog, p)
		if err != nil {
			return nil, fmt.Errorf("evaluate %q for %s: %w", expression, p.Slug, err)
		}
		if ok, _ := v.(bool); ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (c *Catalog) program(expression string) (*vm.Program, error) {
	c.progMu.Lock()
	defer c.progMu.Unlock()

	if prog, ok := c.programs[expression]; ok {
		return prog, nil
	}

	prog, err := expr.Compile(expression, expr.Env(Project{}), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile query %q: %w", expression, err)
	}
	c.programs[expression] = prog
	return prog, nil
}

// Subscribe returns a channel receiving a value after each reload. Notifications
// are coalesced: a slow subscriber sees at most one pending value.
func (c *Catalog) Subscribe() chan struct{} {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	sub := make(chan struct{}, 1)
	c.subscribers[sub] = struct{}{}
	return sub
}

// Unsubscribe stops notifications and closes sub.
func (c *Catalog) Unsubscribe(sub chan struct{}) {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	if _, ok := c.subscribers[sub]; !ok {
		return
	}
	delete(c.subscribers, sub)
	close(sub)
}

func (c *Catalog) notify() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	for sub := range c.subscribers {
		select {
		case sub <- struct{}{}:
		default:
		}
	}
}
