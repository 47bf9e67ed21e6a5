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

// extractedEntity is the wire shape the prompt instructs the LLM to emit.
type extractedEntity struct {
	Type       string         `json:"type"`
	Name       string         `json:"name"`
	Properties map[string]any `json:"properties"`
	Confidence float64        `json:"confidence"`
}

type EntityAgent struct {
	agent
}

func NewEntityAgent(client llm.CompletionClient, cfg config.PipelineConfig) *EntityAgent {
	return &EntityAgent{agent{llm: client, cfg: cfg}}
}

// Extract pulls typed entities out of the records in batches. A batch
// whose response fails to parse (or times out) contributes zero
// entities and a warning; only context cancellation aborts the whole
// extraction. The returned list is deduplicated by (type, name).
func (a *EntityAgent) Extract(ctx context.Context, records []model.Record, meta model.Metadata, source string) ([]model.Entity, []string, error) {
	start := time.Now()
	var all []model.Entity
	var warnings []string

	for i, span := range a.batches(len(records)) {
		if err := ctx.Err(); err != nil {
			return nil, warnings, err
		}

		batch := records[span[0]:span[1]]
		logger.Debug("extracting entities", "batch", i+1, "records", len(batch))

		response, err := a.complete(ctx, a.buildPrompt(batch, meta))
		if err != nil {
			warnings = append(warnings, batchWarning("entity", i+1, err))
			logger.Warn("entity batch failed", "batch", i+1, "err", err)
			continue
		}

		var raw []extractedEntity
		if err := jsonx.Unmarshal(response, &raw); err != nil {
			warnings = append(warnings, batchWarning("entity", i+1, err))
			logger.Warn("entity batch unparseable", "batch", i+1, "err", err)
			continue
		}

		for _, item := range raw {
			if strings.TrimSpace(item.Name) == "" {
				warnings = append(warnings, fmt.Sprintf("entity batch %d: dropped entity with empty name", i+1))
				continue
			}
			conf := item.Confidence
			if conf <= 0 || conf > 1 {
				conf = 0.95
			}
			all = append(all, model.Entity{
				Type:       normalizeType(item.Type, a.cfg.EntityTypes, model.EntityGeneric),
				Name:       strings.TrimSpace(item.Name),
				Properties: item.Properties,
				Source:     source,
				Confidence: conf,
			})
		}
	}

	deduped := DedupeEntities(all)
	logger.Info("entity extraction done",
		"raw", len(all), "unique", len(deduped), "warnings", len(warnings), "took", elapsed(start))
	return deduped, warnings, nil
}

func (a *EntityAgent) buildPrompt(batch []model.Record, meta model.Metadata) string {
	recordsJSON, _ := json.MarshalIndent(batch, "", "  ")

	var sb strings.Builder
	sb.WriteString("You are an expert at extracting structured entities from data for a knowledge graph.\n\n")
	sb.WriteString("Your task: analyze the following records and extract ALL entities with their properties.\n\n")

	sb.WriteString("Allowed entity types: ")
	sb.WriteString(strings.Join(a.cfg.EntityTypes, ", "))
	sb.WriteString("\n\n")

	if len(meta.Columns) > 0 {
		sb.WriteString("Record schema:\n")
		for _, col := range meta.Columns {
			sb.WriteString(fmt.Sprintf("- %s (%s)\n", col, meta.ColumnTypes[col]))
		}
		sb.WriteString("\n")
	}

	sb.WriteString(fmt.Sprintf("Records (%d):\n%s\n\n", len(batch), recordsJSON))

	sb.WriteString("Instructions:\n")
	sb.WriteString("1. Extract EVERY entity mentioned in the data.\n")
	sb.WriteString(fmt.Sprintf("2. If one field lists multiple values separated by %q, emit one entity per value.\n", a.cfg.MultiValueSeparator))
	sb.WriteString("3. Use the exact names as they appear in the data.\n")
	sb.WriteString("4. Put type-specific attributes in \"properties\".\n")
	sb.WriteString("5. Return ONLY a valid JSON array, no explanation.\n\n")

	sb.WriteString("Output format (JSON array):\n")
	sb.WriteString(`[{"type": "...", "name": "...", "properties": {"key": "value"}, "confidence": 0.95}]`)
	sb.WriteString("\n\nReturn the JSON array now:")
	return sb.String()
}

// DedupeEntities collapses entities sharing a (type, name) key. The
// merge policy is last-seen-wins per property, with confidence averaged
// pairwise in input order.
func DedupeEntities(entities []model.Entity) []model.Entity {
	seen := make(map[string]int, len(entities))
	var unique []model.Entity

	for _, e := range entities {
		key := e.Key()
		if idx, ok := seen[key]; ok {
			existing := &unique[idx]
			existing.Properties = mergeProps(existing.Properties, e.Properties)
			existing.Confidence = (existing.Confidence + e.Confidence) / 2
			continue
		}
		seen[key] = len(unique)
		unique = append(unique, e)
	}
	return unique
}
