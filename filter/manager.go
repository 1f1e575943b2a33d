package filter

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// Manager holds named filter presets and evaluates them over records
type Manager struct {
	compiler  Compiler
	evaluator *ConcurrentEvaluator
	filters   map[string]CompiledFilter
	mu        sync.RWMutex
}

// ManagerOption configures a filter manager
type ManagerOption func(*Manager)

// WithCompiler sets a custom compiler
func WithCompiler(compiler Compiler) ManagerOption {
	return func(m *Manager) {
		m.compiler = compiler
	}
}

// WithEvaluator sets a custom evaluator
func WithEvaluator(evaluator *ConcurrentEvaluator) ManagerOption {
	return func(m *Manager) {
		m.evaluator = evaluator
	}
}

// NewManager creates a new filter manager
func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		filters: make(map[string]CompiledFilter),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.compiler == nil {
		m.compiler = NewExprCompiler(WithCache(100))
	}
	if m.evaluator == nil {
		m.evaluator = NewConcurrentEvaluator()
	}
	return m
}

// RegisterFilter registers a new preset or replaces an existing one
func (m *Manager) RegisterFilter(name, expression string) error {
	filter, err := m.compiler.Compile(expression)
	if err != nil {
		return fmt.Errorf("failed to compile filter '%s': %w", name, err)
	}

	m.mu.Lock()
	m.filters[name] = filter
	m.mu.Unlock()
	return nil
}

// RegisterFilters registers every preset or none of them
func (m *Manager) RegisterFilters(filters map[string]string) error {
	compiled := make(map[string]CompiledFilter, len(filters))
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		filter, err := m.compiler.Compile(filters[name])
		if err != nil {
			return fmt.Errorf("failed to compile filter '%s': %w", name, err)
		}
		compiled[name] = filter
	}

	m.mu.Lock()
	maps.Copy(m.filters, compiled)
	m.mu.Unlock()
	return nil
}

// UnregisterFilter removes a preset
func (m *Manager) UnregisterFilter(name string) {
	m.mu.Lock()
	delete(m.filters, name)
	m.mu.Unlock()
}

// GetFilter returns a preset by name
func (m *Manager) GetFilter(name string) (CompiledFilter, bool) {
	m.mu.RLock()
	filter, exists := m.filters[name]
	m.mu.RUnlock()
	return filter, exists
}

// ListFilters returns the registered preset names, sorted
func (m *Manager) ListFilters() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return slices.Sorted(maps.Keys(m.filters))
}

// Resolve turns a command-line filter argument into a filter. "@name"
// always refers to a preset; a bare word is a preset if one is registered
// under it and an expression otherwise.
func (m *Manager) Resolve(selector string) (CompiledFilter, error) {
	selector = strings.TrimSpace(selector)
	if name, ok := strings.CutPrefix(selector, "@"); ok {
		filter, exists := m.GetFilter(name)
		if !exists {
			return nil, fmt.Errorf("%w: %s", ErrUnknownFilter, name)
		}
		return filter, nil
	}
	if filter, exists := m.GetFilter(selector); exists {
		return filter, nil
	}
	return m.compiler.Compile(selector)
}

// Select returns the indexes of the records selector matches
func (m *Manager) Select(ctx context.Context, selector string, records []Record) ([]int, error) {
	filter, err := m.Resolve(selector)
	if err != nil {
		return nil, err
	}
	return m.evaluator.Select(ctx, filter, records)
}

// SelectAll evaluates every registered preset, ordered by name
func (m *Manager) SelectAll(ctx context.Context, records []Record) ([]BatchResult, error) {
	m.mu.RLock()
	filters := maps.Clone(m.filters)
	m.mu.RUnlock()

	matches, err := m.evaluator.SelectBatch(ctx, filters, records)
	if err != nil {
		return nil, err
	}

	results := make([]BatchResult, 0, len(filters))
	for _, name := range slices.Sorted(maps.Keys(filters)) {
		result := BatchResult{FilterName: name}
		if found, ok := matches[name]; ok {
			result.Matches = found
		} else if len(records) > 0 {
			result.Error = fmt.Errorf("filter '%s' was not evaluated", name)
		}
		results = append(results, result)
	}
	return results, nil
}

// Close gracefully shuts down the manager
func (m *Manager) Close(ctx context.Context) error {
	return m.evaluator.Stop(ctx)
}
