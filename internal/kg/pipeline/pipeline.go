package pipeline

import (
	"context"

	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/kg/validate"
)

// Result aggregates one pipeline run for the caller.
type Result struct {
	Document        *model.Document     `json:"document"`
	Entities        int                 `json:"entities_extracted"`
	Relations       int                 `json:"relations_extracted"`
	EntitiesByType  map[string]int      `json:"entities_by_type,omitempty"`
	RelationsByType map[string]int      `json:"relations_by_type,omitempty"`
	Validation      *validate.Report    `json:"validation,omitempty"`
	Storage         map[string]any      `json:"storage,omitempty"`
	Stages          []model.StageResult `json:"stages"`
	Warnings        []string            `json:"warnings,omitempty"`
	DurationMS      int64               `json:"duration_ms"`
	Error           string              `json:"error,omitempty"`
}

// statusFor maps a stage about to run onto the document status and
// progress reported while it runs.
var statusFor = map[string]struct {
	status   model.ProcessingStatus
	progress float64
}{
	StageParse:            {model.StatusParsing, 0.1},
	StageChunk:            {model.StatusParsing, 0.2},
	StageEmbed:            {model.StatusParsing, 0.25},
	StageNER:              {model.StatusParsing, 0.3},
	StageExtractEntities:  {model.StatusExtractingEntities, 0.4},
	StageExtractRelations: {model.StatusExtractingRelations, 0.6},
	StageValidate:         {model.StatusValidating, 0.8},
	StageStore:            {model.StatusStoring, 0.9},
}

// Pipeline runs an ordered stage sequence over one document. Separate
// documents run on separate Pipeline contexts; instances share only
// the storage connection pool underneath.
type Pipeline struct {
	stages []Stage
}

func New(stages ...Stage) *Pipeline {
	return &Pipeline{stages: stages}
}

// Run executes the stages in order, halting on the first failure. The
// context is returned in both cases so callers can inspect partial
// work after a failed run.
func (p *Pipeline) Run(ctx context.Context, pc *Context) (*Result, *Context) {
	doc := pc.Document
	logger.Info("pipeline starting", "document", doc.ID, "filename", doc.Filename, "format", doc.Format)

	for _, stage := range p.stages {
		if st, ok := statusFor[stage.Name()]; ok {
			doc.SetStatus(st.status, st.progress)
		}

		result := runStage(ctx, stage, pc)
		pc.addResult(result)

		if result.IsFailure() {
			doc.MarkFailed(result.Error)
			logger.Error("pipeline failed",
				"document", doc.ID, "stage", stage.Name(), "err", result.Error, "took", pc.Duration())
			return p.buildResult(pc, result.Error), pc
		}
		logger.Debug("stage done", "stage", stage.Name(), "status", result.Status, "took", result.Duration)
	}

	doc.MarkCompleted(len(pc.Entities), len(pc.Relations))
	logger.Info("pipeline completed",
		"document", doc.ID, "entities", len(pc.Entities), "relations", len(pc.Relations), "took", pc.Duration())
	return p.buildResult(pc, ""), pc
}

func (p *Pipeline) buildResult(pc *Context, errMsg string) *Result {
	return &Result{
		Document:        pc.Document,
		Entities:        len(pc.Entities),
		Relations:       len(pc.Relations),
		EntitiesByType:  model.CountEntitiesByType(pc.Entities),
		RelationsByType: model.CountRelationsByType(pc.Relations),
		Validation:      pc.Report,
		Storage:         pc.StorageOutput,
		Stages:          pc.StageResults,
		Warnings:        pc.Warnings,
		DurationMS:      pc.Duration().Milliseconds(),
		Error:           errMsg,
	}
}
