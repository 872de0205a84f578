package metadata

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Registry holds the content catalogue and its write rules. It is loaded once
// at startup and read concurrently by every request.
type Registry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
	rules    map[string][]*Rule // by entity name, in priority order
}

func NewRegistry() *Registry {
	return &Registry{
		entities: map[string]*Entity{},
		rules:    map[string][]*Rule{},
	}
}

// GetEntity returns nil for unknown names.
func (r *Registry) GetEntity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// AllEntities returns the catalogue sorted by name.
func (r *Registry) AllEntities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.SortedFunc(maps.Values(r.entities), func(a, b *Entity) int {
		return cmp.Compare(a.Name, b.Name)
	})
}

// GetRulesForEntity returns the active rules for hook in priority order.
func (r *Registry) GetRulesForEntity(entityName, hook string) []*Rule {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*Rule
	for _, rule := range r.rules[entityName] {
		if rule.Active && rule.Hook == hook {
			out = append(out, rule)
		}
	}
	return out
}

// Load replaces the catalogue.
func (r *Registry) Load(entities []*Entity, rules []*Rule) {
	byName := make(map[string]*Entity, len(entities))
	for _, e := range entities {
		byName[e.Name] = e
	}
	byEntity := map[string][]*Rule{}
	for _, rule := range rules {
		byEntity[rule.Entity] = append(byEntity[rule.Entity], rule)
	}
	for _, list := range byEntity {
		slices.SortStableFunc(list, func(a, b *Rule) int { return cmp.Compare(a.Priority, b.Priority) })
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entities = byName
	r.rules = byEntity
}
