package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/jarvislabs/kgraph/internal/kg/extract"
	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/kg/parser"
	"github.com/jarvislabs/kgraph/internal/kg/storage"
	"github.com/jarvislabs/kgraph/internal/kg/validate"
	"github.com/jarvislabs/kgraph/internal/llm"
)

// Stage names double as keys in stage results and status mapping.
const (
	StageParse            = "parse"
	StageChunk            = "chunk"
	StageEmbed            = "embed"
	StageNER              = "ner"
	StageExtractEntities  = "extract_entities"
	StageExtractRelations = "extract_relations"
	StageValidate         = "validate"
	StageStore            = "store"
)

type parseStage struct {
	parser *parser.FileParser
}

func (s *parseStage) Name() string { return StageParse }

func (s *parseStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	result, err := s.parser.Parse(pc.Path, pc.Document.Format)
	if err != nil {
		return failure(s.Name(), start, err)
	}

	pc.Records = result.Records
	pc.Metadata = result.Metadata
	pc.Text = result.Text

	return success(s.Name(), start, map[string]any{
		"records": len(result.Records),
		"format":  string(pc.Document.Format),
	})
}

type chunkStage struct {
	parser *parser.FileParser
}

func (s *chunkStage) Name() string { return StageChunk }

// Execute splits extracted text into overlapping chunks and exposes
// them as records for the extraction agents. Structured inputs carry
// no text and skip straight through.
func (s *chunkStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	if pc.Text == "" {
		return skipped(s.Name(), "no text content to chunk")
	}

	pc.Chunks = s.parser.Chunk(pc.Text)
	pc.Records = parser.ChunkRecords(pc.Chunks)
	pc.Metadata.RowCount = len(pc.Records)

	return success(s.Name(), start, map[string]any{"chunks": len(pc.Chunks)})
}

type embedStage struct {
	embedder llm.EmbedderClient
}

func (s *embedStage) Name() string { return StageEmbed }

// Execute computes one embedding per chunk. Embeddings are auxiliary,
// so per-chunk failures become warnings rather than aborting the run;
// only context cancellation fails the stage.
func (s *embedStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	if s.embedder == nil {
		return skipped(s.Name(), "no embedding client configured")
	}
	if len(pc.Chunks) == 0 {
		return skipped(s.Name(), "no chunks to embed")
	}

	embedded := 0
	for i, chunk := range pc.Chunks {
		if err := ctx.Err(); err != nil {
			return failure(s.Name(), start, err)
		}
		vector, err := s.embedder.Embed(ctx, chunk)
		if err != nil {
			pc.Warnings = append(pc.Warnings, fmt.Sprintf("embedding chunk %d failed: %v", i, err))
			pc.Embeddings = append(pc.Embeddings, nil)
			continue
		}
		pc.Embeddings = append(pc.Embeddings, vector)
		embedded++
	}

	return success(s.Name(), start, map[string]any{"embedded": embedded, "chunks": len(pc.Chunks)})
}

type nerStage struct {
	modelName string
}

func (s *nerStage) Name() string { return StageNER }

// Execute is a placeholder for span-level named entity recognition.
// No model ships with the service, so the stage skips unless one is
// configured externally.
func (s *nerStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	if s.modelName == "" {
		return skipped(s.Name(), "no named entity recognition model configured")
	}
	return skipped(s.Name(), fmt.Sprintf("model %q not available", s.modelName))
}

type entityExtractionStage struct {
	agent *extract.EntityAgent
}

func (s *entityExtractionStage) Name() string { return StageExtractEntities }

func (s *entityExtractionStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	if len(pc.Records) == 0 {
		return failure(s.Name(), start, fmt.Errorf("no records to extract from"))
	}

	entities, warnings, err := s.agent.Extract(ctx, pc.Records, pc.Metadata, pc.Document.Filename)
	pc.Warnings = append(pc.Warnings, warnings...)
	if err != nil {
		return failure(s.Name(), start, err)
	}

	pc.Entities = entities
	return success(s.Name(), start, map[string]any{
		"entities": len(entities),
		"by_type":  model.CountEntitiesByType(entities),
	})
}

type relationExtractionStage struct {
	agent *extract.RelationAgent
}

func (s *relationExtractionStage) Name() string { return StageExtractRelations }

func (s *relationExtractionStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	if len(pc.Entities) == 0 {
		return skipped(s.Name(), "no entities to relate")
	}

	relations, warnings, err := s.agent.Extract(ctx, pc.Records, pc.Metadata, pc.Entities, pc.Document.Filename)
	pc.Warnings = append(pc.Warnings, warnings...)
	if err != nil {
		return failure(s.Name(), start, err)
	}

	pc.Relations = relations
	return success(s.Name(), start, map[string]any{
		"relations": len(relations),
		"by_type":   model.CountRelationsByType(relations),
	})
}

type validateStage struct {
	validator *validate.Validator
	strict    bool
}

func (s *validateStage) Name() string { return StageValidate }

// Execute filters entities and relations down to the valid sets. In
// strict mode any finding fails the stage; in lenient mode findings
// become warnings and only the survivors flow on.
func (s *validateStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	report := s.validator.Validate(pc.Entities, pc.Relations)
	pc.Report = report

	if report.HasErrors() {
		if s.strict {
			return failure(s.Name(), start, fmt.Errorf(
				"validation failed: %d invalid entities, %d invalid relations",
				report.InvalidEntities, report.InvalidRelations))
		}
		pc.Warnings = append(pc.Warnings, report.Errors...)
	}

	pc.Entities = report.Entities
	pc.Relations = report.Relations

	return success(s.Name(), start, map[string]any{
		"valid_entities":    report.ValidEntities,
		"invalid_entities":  report.InvalidEntities,
		"valid_relations":   report.ValidRelations,
		"invalid_relations": report.InvalidRelations,
	})
}

type storeStage struct {
	service *storage.GraphService
}

func (s *storeStage) Name() string { return StageStore }

func (s *storeStage) Execute(ctx context.Context, pc *Context) model.StageResult {
	start := time.Now()

	entityIDs, err := s.service.UpsertEntitiesBatch(ctx, pc.Entities)
	if err != nil {
		return failure(s.Name(), start, err)
	}
	for i := range pc.Entities {
		pc.Entities[i].StoreID = entityIDs[i]
	}

	relationIDs, skippedRelations, err := s.service.UpsertRelationsBatch(ctx, pc.Relations)
	if err != nil {
		return failure(s.Name(), start, err)
	}
	for i := range pc.Relations {
		pc.Relations[i].StoreID = relationIDs[i]
	}
	pc.Warnings = append(pc.Warnings, skippedRelations...)

	pc.StorageOutput = map[string]any{
		"entities_stored":   len(pc.Entities),
		"relations_stored":  len(pc.Relations) - len(skippedRelations),
		"relations_skipped": len(skippedRelations),
	}
	return success(s.Name(), start, pc.StorageOutput)
}
