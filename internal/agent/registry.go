package agent

import (
	"fmt"
	"sort"
	"strings"
)

// Registry maps agent names to implementations. It is populated at startup
// and passed explicitly to the components that need it.
type Registry struct {
	agents map[string]Agent
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{agents: make(map[string]Agent)}
}

// Builtin returns a registry populated with every built-in agent.
func Builtin() *Registry {
	r := NewRegistry()
	for _, a := range []Agent{
		&Claude{},
		&Copilot{},
		&Cursor{},
		&Gemini{},
		&Continue{},
		&Windsurf{},
	} {
		// Built-in names are unique; a collision here is a programming error.
		if err := r.Register(a); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds an agent. Names are case-insensitive and must be unique.
func (r *Registry) Register(a Agent) error {
	name := strings.ToLower(a.Name())
	if _, exists := r.agents[name]; exists {
		return fmt.Errorf("agent '%s' already registered", name)
	}
	r.agents[name] = a
	return nil
}

// Get returns the agent with the given name (case-insensitive).
func (r *Registry) Get(name string) (Agent, bool) {
	a, ok := r.agents[strings.ToLower(name)]
	return a, ok
}

// All returns every registered agent, sorted by name.
func (r *Registry) All() []Agent {
	names := r.Names()
	agents := make([]Agent, 0, len(names))
	for _, name := range names {
		agents = append(agents, r.agents[name])
	}
	return agents
}

// Names returns every registered agent name, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Configured returns the agents that appear to be set up in the project,
// sorted by name.
func (r *Registry) Configured(projectRoot string) []Agent {
	var configured []Agent
	for _, a := range r.All() {
		if a.IsConfigured(projectRoot) {
			configured = append(configured, a)
		}
	}
	return configured
}

// Supports reports whether the named agent exists and accepts the given
// artifact type. It satisfies the manifest package's catalog interface.
func (r *Registry) Supports(agentName, artifactType string) bool {
	a, ok := r.Get(agentName)
	if !ok {
		return false
	}
	for _, t := range a.SupportedTypes() {
		if t == artifactType {
			return true
		}
	}
	return false
}

// Has reports whether the named agent exists.
func (r *Registry) Has(agentName string) bool {
	_, ok := r.Get(agentName)
	return ok
}

// Types returns the supported artifact types of the named agent.
func (r *Registry) Types(agentName string) []string {
	a, ok := r.Get(agentName)
	if !ok {
		return nil
	}
	return a.SupportedTypes()
}
