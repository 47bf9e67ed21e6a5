package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jarvislabs/kgraph/internal/config"
	"github.com/jarvislabs/kgraph/internal/kg/jsonx"
	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/llm"
)

// Cap on entity names included in the prompt so huge entity sets do not
// blow up the context window.
const maxPromptEntities = 300

type extractedRelation struct {
	Type       string         `json:"type"`
	From       string         `json:"from_entity"`
	To         string         `json:"to_entity"`
	Properties map[string]any `json:"properties"`
	Confidence float64        `json:"confidence"`
}

type RelationAgent struct {
	agent
}

func NewRelationAgent(client llm.CompletionClient, cfg config.PipelineConfig) *RelationAgent {
	return &RelationAgent{agent{llm: client, cfg: cfg}}
}

// Extract identifies typed relations between already-extracted
// entities. Candidates whose endpoints do not resolve (compared
// case-insensitively) against the entity set are dropped with a
// warning, never stored dangling. The result is deduplicated by
// (type, from, to).
func (a *RelationAgent) Extract(ctx context.Context, records []model.Record, meta model.Metadata, entities []model.Entity, source string) ([]model.Relation, []string, error) {
	start := time.Now()

	// Lowercased name -> entity, for endpoint resolution.
	byName := make(map[string]model.Entity, len(entities))
	for _, e := range entities {
		byName[strings.ToLower(e.Name)] = e
	}

	var all []model.Relation
	var warnings []string

	for i, span := range a.batches(len(records)) {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		batch := records[span[0]:span[1]]
		logger.Debug("extracting relations", "batch", i+1, "records", len(batch))

		response, err := a.complete(ctx, a.buildPrompt(batch, entities))
		if err != nil {
			warnings = append(warnings, batchWarning("relation", i+1, err))
			logger.Warn("relation batch failed", "batch", i+1, "err", err)
			continue
		}

		var raw []extractedRelation
		if err := jsonx.Unmarshal(response, &raw); err != nil {
			warnings = append(warnings, batchWarning("relation", i+1, err))
			logger.Warn("relation batch unparseable", "batch", i+1, "err", err)
			continue
		}

		for _, item := range raw {
			from, okFrom := byName[strings.ToLower(strings.TrimSpace(item.From))]
			to, okTo := byName[strings.ToLower(strings.TrimSpace(item.To))]
			if !okFrom || !okTo {
				warnings = append(warnings, fmt.Sprintf(
					"relation batch %d: dropped %s(%s -> %s): unknown endpoint", i+1, item.Type, item.From, item.To))
				continue
			}
			conf := item.Confidence
			if conf <= 0 || conf > 1 {
				conf = 0.95
			}
			all = append(all, model.Relation{
				Type: normalizeType(item.Type, a.cfg.RelationTypes, model.RelationRelatedTo),
				// Use the canonical casing from the entity set.
				From:       from.Name,
				To:         to.Name,
				FromType:   from.Type,
				ToType:     to.Type,
				Properties: item.Properties,
				Source:     source,
				Confidence: conf,
			})
		}
	}

	deduped := DedupeRelations(all)
	logger.Info("relation extraction done",
		"raw", len(all), "unique", len(deduped), "warnings", len(warnings), "took", elapsed(start))
	return deduped, warnings, nil
}

func (a *RelationAgent) buildPrompt(batch []model.Record, entities []model.Entity) string {
	recordsJSON, _ := json.MarshalIndent(batch, "", "  ")

	// Group entity names by type for compact prompt context.
	byType := make(map[string][]string)
	total := 0
	for _, e := range entities {
		if total >= maxPromptEntities {
			break
		}
		byType[e.Type] = append(byType[e.Type], e.Name)
		total++
	}
	entitiesJSON, _ := json.MarshalIndent(byType, "", "  ")

	var sb strings.Builder
	sb.WriteString("You are an expert at extracting relationships between entities for a knowledge graph.\n\n")
	sb.WriteString("Your task: analyze the records and identify ALL relationships between the extracted entities.\n\n")

	sb.WriteString("Allowed relation types: ")
	sb.WriteString(strings.Join(a.cfg.RelationTypes, ", "))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Extracted entities:\n%s\n\n", entitiesJSON))
	sb.WriteString(fmt.Sprintf("Records (%d):\n%s\n\n", len(batch), recordsJSON))

	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Extract ALL relationships you can identify from the data.\n")
	sb.WriteString("2. Use EXACT entity names as listed above.\n")
	sb.WriteString("3. Only create relations between entities that exist in the entity list.\n")
	sb.WriteString(fmt.Sprintf("4. If one field lists multiple values separated by %q, emit one relation per value.\n", a.cfg.MultiValueSeparator))
	sb.WriteString("5. Add relevant properties (e.g. role, year).\n")
	sb.WriteString("6. Return ONLY a valid JSON array, no explanation.\n\n")

	sb.WriteString("Output format (JSON array):\n")
	sb.WriteString(`[{"type": "...", "from_entity": "...", "to_entity": "...", "properties": {}, "confidence": 0.95}]`)
	sb.WriteString("\n\nReturn the JSON array now:")
	return sb.String()
}

// DedupeRelations collapses relations sharing a (type, from, to) key
// with the same merge policy as entity dedup.
func DedupeRelations(relations []model.Relation) []model.Relation {
	seen := make(map[string]int, len(relations))
	var unique []model.Relation

	for _, r := range relations {
		key := r.Key()
		if idx, ok := seen[key]; ok {
			existing := &unique[idx]
			existing.Properties = mergeProps(existing.Properties, r.Properties)
			existing.Confidence = (existing.Confidence + r.Confidence) / 2
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, r)
	}
	return unique
}
