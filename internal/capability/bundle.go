package capability

import (
	"fmt"
	"log/slog"
	"sort"

	"github.com/akshayn23/drover/internal/util"
)

// Provider constructs a named capability value at pool-open time.
// Providers run exactly once per bundle materialization.
type Provider func() (interface{}, error)

// entry is a single registration in the bundle table
type entry struct {
	name     string
	provider Provider
	required bool
}

// Bundle is a registration table of named capabilities shared by every work
// item in a pool. Registration order is preserved through materialization so
// resolution warnings are deterministic.
type Bundle struct {
	entries []entry
}

// NewBundle creates an empty capability bundle
func NewBundle() *Bundle {
	return &Bundle{}
}

// Register adds a named capability provider to the bundle.
// Registering the same name twice replaces the earlier entry.
func (b *Bundle) Register(name string, provider Provider) *Bundle {
	return b.add(name, provider, false)
}

// RegisterRequired adds a capability whose resolution failure makes the whole
// bundle unusable. Pool construction fails if any required entry cannot be
// resolved.
func (b *Bundle) RegisterRequired(name string, provider Provider) *Bundle {
	return b.add(name, provider, true)
}

// RegisterValue adds a static named value to the bundle
func (b *Bundle) RegisterValue(name string, value interface{}) *Bundle {
	return b.add(name, func() (interface{}, error) { return value, nil }, false)
}

func (b *Bundle) add(name string, provider Provider, required bool) *Bundle {
	for i := range b.entries {
		if b.entries[i].name == name {
			b.entries[i] = entry{name: name, provider: provider, required: required}
			return b
		}
	}
	b.entries = append(b.entries, entry{name: name, provider: provider, required: required})
	return b
}

// Len returns the number of registered capabilities
func (b *Bundle) Len() int {
	return len(b.entries)
}

// Env is the resolved, shared capability environment of an open pool.
// It is read-only after materialization; per-task mutation happens through
// isolated Scopes.
type Env struct {
	values map[string]interface{}
}

// Lookup returns the named capability and whether it resolved
func (e *Env) Lookup(name string) (interface{}, bool) {
	v, ok := e.values[name]
	return v, ok
}

// Names returns the resolved capability names in sorted order
func (e *Env) Names() []string {
	names := make([]string, 0, len(e.values))
	for name := range e.values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewScope creates an isolated per-task view of the environment.
// Writes through the scope never reach the shared Env or sibling scopes.
func (e *Env) NewScope() *Scope {
	local := make(map[string]interface{}, len(e.values))
	for k, v := range e.values {
		local[k] = v
	}
	return &Scope{values: local}
}

// Materialize resolves every registered provider once and returns the shared
// environment. An entry that fails to resolve is logged as a warning and
// skipped; the bundle still materializes with the remainder. Only a failing
// required entry aborts materialization.
func (b *Bundle) Materialize(logger *slog.Logger) (*Env, error) {
	if logger == nil {
		logger = slog.Default()
	}

	values := make(map[string]interface{}, len(b.entries))
	for _, ent := range b.entries {
		v, err := ent.provider()
		if err != nil {
			if ent.required {
				return nil, util.WrapErrorf(util.ErrBundleInit,
					"required capability %q failed: %v", ent.name, err)
			}
			logger.Warn("capability failed to resolve, continuing without it",
				"capability", ent.name,
				"error", err)
			continue
		}
		values[ent.name] = v
	}

	logger.Debug("capability bundle materialized",
		"registered", len(b.entries),
		"resolved", len(values))

	return &Env{values: values}, nil
}

// Scope is a per-task mutable view over the shared environment.
// Each task gets its own scope, so state created by one work item is
// invisible to the bundle and to other tasks.
type Scope struct {
	values map[string]interface{}
}

// Get returns the named value from the scope
func (s *Scope) Get(name string) (interface{}, bool) {
	v, ok := s.values[name]
	return v, ok
}

// Set stores a value in this scope only
func (s *Scope) Set(name string, value interface{}) {
	s.values[name] = value
}

// GetString returns the named value as a string, or an error if it is
// missing or of a different type
func (s *Scope) GetString(name string) (string, error) {
	v, ok := s.values[name]
	if !ok {
		return "", fmt.Errorf("capability %q not available", name)
	}
	str, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("capability %q is %T, not string", name, v)
	}
	return str, nil
}
