package wireplan

import (
	"encoding/json"
	"slices"
)

// PlanEntry is one bean in construction order. Slot is the bean's index in the plan and in
// the arena of every container built from it.
type PlanEntry struct {
	Slot         int         `json:"slot"`
	Key          BeanKey     `json:"key"`
	Provider     ProviderRef `json:"provider"`
	Dependencies []BeanKey   `json:"dependencies,omitempty"`
	Dynamic      bool        `json:"dynamic,omitempty"`
	// Bean is nil for external entries.
	Bean *BeanDescriptor `json:"bean,omitempty"`
}

// WiringPlan is the validated, ordered list of beans: every entry comes after all of its
// dependencies. A plan is immutable; accessors hand out copies.
type WiringPlan struct {
	contexts []TypeRef
	entries  []PlanEntry
	index    map[BeanKey]int
}

func newPlan(decls []ContextDescriptor, g *providerGraph, order []BeanKey) *WiringPlan {
	p := &WiringPlan{
		entries: make([]PlanEntry, 0, len(order)),
		index:   make(map[BeanKey]int, len(order)),
	}
	for i := range decls {
		if decls[i].Generated() {
			p.contexts = append(p.contexts, decls[i].Name)
		}
	}
	for slot, key := range order {
		n := g.Nodes[key]
		entry := PlanEntry{
			Slot:         slot,
			Key:          key,
			Provider:     n.Provider,
			Dependencies: slices.Clone(n.Dependencies),
		}
		if n.Bean != nil {
			entry.Dynamic = n.Bean.Dynamic
			entry.Bean = n.Bean
		}
		p.entries = append(p.entries, entry)
		p.index[key] = slot
	}
	return p
}

// Len returns the number of entries, which is also the arena size a container needs.
func (p *WiringPlan) Len() int {
	return len(p.entries)
}

// Contexts returns the generated contexts in declaration order.
func (p *WiringPlan) Contexts() []TypeRef {
	return slices.Clone(p.contexts)
}

// Entries returns all entries in construction order.
func (p *WiringPlan) Entries() []PlanEntry {
	return slices.Clone(p.entries)
}

// Entry returns the entry for key.
func (p *WiringPlan) Entry(key BeanKey) (PlanEntry, bool) {
	slot, ok := p.index[key]
	if !ok {
		return PlanEntry{}, false
	}
	return p.entries[slot], true
}

// EntriesFor returns the beans a context exposes, in construction order.
func (p *WiringPlan) EntriesFor(ctx TypeRef) []PlanEntry {
	var out []PlanEntry
	for _, e := range p.entries {
		if e.Key.Context == ctx && !e.Key.External {
			out = append(out, e)
		}
	}
	return out
}

// Keys returns the bean keys in construction order.
func (p *WiringPlan) Keys() []BeanKey {
	keys := make([]BeanKey, len(p.entries))
	for i, e := range p.entries {
		keys[i] = e.Key
	}
	return keys
}

type planJSON struct {
	Contexts []TypeRef   `json:"contexts"`
	Entries  []PlanEntry `json:"entries"`
}

// MarshalJSON renders the plan for the external code emitter.
func (p *WiringPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(planJSON{Contexts: p.contexts, Entries: p.entries})
}
