package model

import "strings"

// Default entity type enumeration. The allowed set is a configuration
// input; these are the types the default config ships with.
const (
	EntityPerson       = "Person"
	EntityMovie        = "Movie"
	EntityStudio       = "Studio"
	EntityOrganization = "Organization"
	EntityLocation     = "Location"
	EntityConcept      = "Concept"
	EntityGeneric      = "Generic"
)

// Entity is a node candidate extracted from source data.
// (type, lowercased name) is the dedup and merge key.
type Entity struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     string         `json:"source,omitempty"`
	Confidence float64        `json:"confidence"`

	// StoreID is the store-assigned identifier, set after upsert.
	StoreID string `json:"store_id,omitempty"`
}

// Key returns the dedup key. Names are folded to lower case so casing
// drift in LLM output does not produce duplicate nodes; the original
// casing is preserved on the entity itself.
func (e Entity) Key() string {
	return e.Type + "\x00" + strings.ToLower(e.Name)
}

// StoreProps flattens the property bag into the node property map
// written to the graph store.
func (e Entity) StoreProps() map[string]any {
	props := make(map[string]any, len(e.Properties)+3)
	for k, v := range e.Properties {
		props[k] = v
	}
	props["name"] = e.Name
	props["confidence"] = e.Confidence
	if e.Source != "" {
		props["source"] = e.Source
	}
	return props
}

// CountEntitiesByType aggregates entities per type for reporting.
func CountEntitiesByType(entities []Entity) map[string]int {
	counts := make(map[string]int)
	for _, e := range entities {
		counts[e.Type]++
	}
	return counts
}
