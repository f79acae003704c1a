package tool

import (
	"sync"

	"github.com/context-kit/contextkit/internal/logging"
)

// Registry manages capability registration and lookup. It is populated once
// at process start and read concurrently afterward.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
	order []string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a capability, replacing any previous one with the same id.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.tools[t.ID()]; !exists {
		r.order = append(r.order, t.ID())
	}
	r.tools[t.ID()] = t
}

// Get retrieves a capability by id.
func (r *Registry) Get(id string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[id]
	return t, ok
}

// GetByIDs resolves a list of capability ids, silently dropping unknown
// names. A session configured with a since-removed tool id degrades to
// "fewer tools available" instead of failing.
func (r *Registry) GetByIDs(ids []string) []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(ids))
	for _, id := range ids {
		t, ok := r.tools[id]
		if !ok {
			logging.Debug().Str("tool", id).Msg("skipping unknown tool id")
			continue
		}
		tools = append(tools, t)
	}
	return tools
}

// List returns all registered capabilities in registration order.
func (r *Registry) List() []Tool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tools := make([]Tool, 0, len(r.order))
	for _, id := range r.order {
		tools = append(tools, r.tools[id])
	}
	return tools
}

// IDs returns all capability ids in registration order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// DefaultRegistry creates a registry with the built-in capabilities rooted
// at the given context repository path.
func DefaultRegistry(repoPath string) *Registry {
	r := NewRegistry()

	r.Register(NewContextReadTool(repoPath))
	r.Register(NewContextSearchTool(repoPath))

	r.Register(NewPipelineValidateTool(repoPath))
	r.Register(NewPipelineBuildGraphTool(repoPath))
	r.Register(NewPipelineImpactTool(repoPath))
	r.Register(NewPipelineGenerateTool(repoPath))

	logging.Info().Strs("tools", r.IDs()).Msg("tool registry initialized")
	return r
}
