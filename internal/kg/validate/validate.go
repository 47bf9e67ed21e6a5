// Package validate checks structural invariants on extracted entity and
// relation sets before storage.
package validate

import (
	"fmt"
	"strings"

	"github.com/jarvislabs/kgraph/internal/config"
	"github.com/jarvislabs/kgraph/internal/kg/model"
)

// Report accumulates validation counts and findings. Entities and
// Relations hold the surviving items; the orchestrator decides whether
// the findings abort the run (strict) or only filter (lenient).
type Report struct {
	TotalEntities    int      `json:"total_entities"`
	ValidEntities    int      `json:"valid_entities"`
	InvalidEntities  int      `json:"invalid_entities"`
	TotalRelations   int      `json:"total_relations"`
	ValidRelations   int      `json:"valid_relations"`
	InvalidRelations int      `json:"invalid_relations"`
	Errors           []string `json:"errors,omitempty"`
	Warnings         []string `json:"warnings,omitempty"`

	Entities  []model.Entity   `json:"-"`
	Relations []model.Relation `json:"-"`
}

func (r *Report) HasErrors() bool { return len(r.Errors) > 0 }

type Validator struct {
	cfg config.PipelineConfig
}

func New(cfg config.PipelineConfig) *Validator {
	return &Validator{cfg: cfg}
}

// Validate checks every entity and relation against the configured
// enumerations and referential invariants. It never mutates its inputs;
// surviving items are copied into the report.
func (v *Validator) Validate(entities []model.Entity, relations []model.Relation) *Report {
	report := &Report{
		TotalEntities:  len(entities),
		TotalRelations: len(relations),
	}

	entityTypes := toSet(v.cfg.EntityTypes)
	relationTypes := toSet(v.cfg.RelationTypes)

	validNames := make(map[string]struct{}, len(entities))
	for _, e := range entities {
		if err := v.checkEntity(e, entityTypes); err != "" {
			report.InvalidEntities++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.ValidEntities++
		report.Entities = append(report.Entities, e)
		validNames[strings.ToLower(e.Name)] = struct{}{}
	}

	for _, r := range relations {
		if err := v.checkRelation(r, relationTypes, validNames); err != "" {
			report.InvalidRelations++
			report.Errors = append(report.Errors, err)
			continue
		}
		report.ValidRelations++
		report.Relations = append(report.Relations, r)
	}

	return report
}

func (v *Validator) checkEntity(e model.Entity, allowed map[string]struct{}) string {
	if strings.TrimSpace(e.Name) == "" {
		return fmt.Sprintf("entity of type %s has empty name", e.Type)
	}
	if _, ok := allowed[e.Type]; !ok {
		return fmt.Sprintf("entity %q has type %q outside the allowed enumeration", e.Name, e.Type)
	}
	if e.Confidence < 0 || e.Confidence > 1 {
		return fmt.Sprintf("entity %q has confidence %v outside [0,1]", e.Name, e.Confidence)
	}
	return ""
}

func (v *Validator) checkRelation(r model.Relation, allowed map[string]struct{}, validNames map[string]struct{}) string {
	if _, ok := allowed[r.Type]; !ok {
		return fmt.Sprintf("relation %s(%s -> %s) has type outside the allowed enumeration", r.Type, r.From, r.To)
	}
	if _, ok := validNames[strings.ToLower(r.From)]; !ok {
		return fmt.Sprintf("relation %s(%s -> %s) references unknown source entity", r.Type, r.From, r.To)
	}
	if _, ok := validNames[strings.ToLower(r.To)]; !ok {
		return fmt.Sprintf("relation %s(%s -> %s) references unknown target entity", r.Type, r.From, r.To)
	}
	if !v.cfg.AllowSelfLoops && strings.EqualFold(r.From, r.To) {
		return fmt.Sprintf("relation %s(%s -> %s) is a self-loop", r.Type, r.From, r.To)
	}
	return ""
}

func toSet(values []string) map[string]struct{} {
	set := make(map[string]struct{}, len(values))
	for _, v := range values {
		set[v] = struct{}{}
	}
	return set
}
