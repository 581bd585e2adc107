// Package agents loads and serves the static agent roster. Each agent is a
// named support persona backed by its own vector collection and ticket data
// source. The roster file is YAML (JSON is accepted by extension for older
// deployments); it is read once at startup and can be reloaded before a
// reindex-all pass to pick up roster changes without a restart.
package agents

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned by Get for an unknown agent id.
var ErrNotFound = errors.New("agents: agent not found")

// Agent is one configured support persona.
type Agent struct {
	// ID is the unique agent identifier used in API routes.
	ID string `yaml:"id" json:"id"`

	// Name is the display name of the agent.
	Name string `yaml:"name" json:"name"`

	// Description summarises the agent's area of expertise.
	Description string `yaml:"description" json:"description"`

	// Icon is the icon name shown by the frontend.
	Icon string `yaml:"icon" json:"icon"`

	// CollectionName is the vector store collection backing this agent (1:1).
	CollectionName string `yaml:"collection_name" json:"collection_name"`

	// DataSource is the path to the agent's ticket batch file for indexing.
	DataSource string `yaml:"data_source" json:"data_source"`

	// SystemPrompt is the agent-specific instruction text. Empty means the
	// default support prompt is used.
	SystemPrompt string `yaml:"system_prompt" json:"system_prompt"`
}

// rosterFile is the on-disk shape of the roster.
type rosterFile struct {
	Agents []Agent `yaml:"agents" json:"agents"`
}

// Registry holds the loaded agent roster. Safe for concurrent use; Reload
// swaps the roster atomically under the lock.
type Registry struct {
	// path is the roster file location, kept for Reload.
	path string

	// mu guards agents.
	mu sync.RWMutex

	// agents is the current roster in file order.
	agents []Agent
}

// Load reads the roster file at path and returns a ready Registry.
func Load(path string) (*Registry, error) {
	r := &Registry{path: path}
	if err := r.Reload(); err != nil {
		return nil, err
	}
	return r, nil
}

// Reload re-reads the roster file, replacing the in-memory roster on
// success. On failure the previous roster is kept.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if err != nil {
		return fmt.Errorf("agents: failed to read roster %s: %w", r.path, err)
	}

	var roster rosterFile
	if strings.ToLower(filepath.Ext(r.path)) == ".json" {
		err = json.Unmarshal(data, &roster)
	} else {
		err = yaml.Unmarshal(data, &roster)
	}
	if err != nil {
		return fmt.Errorf("agents: failed to parse roster %s: %w", r.path, err)
	}

	for i, a := range roster.Agents {
		if a.ID == "" {
			return fmt.Errorf("agents: roster entry %d has no id", i)
		}
		if a.CollectionName == "" {
			return fmt.Errorf("agents: agent %q has no collection_name", a.ID)
		}
	}

	r.mu.Lock()
	r.agents = roster.Agents
	r.mu.Unlock()

	return nil
}

// All returns the roster in file order. The returned slice is a copy.
func (r *Registry) All() []Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Agent, len(r.agents))
	copy(out, r.agents)
	return out
}

// Get returns the agent with the given id, or ErrNotFound.
func (r *Registry) Get(id string) (Agent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.agents {
		if a.ID == id {
			return a, nil
		}
	}
	return Agent{}, fmt.Errorf("%w: %q", ErrNotFound, id)
}
