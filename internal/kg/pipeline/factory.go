package pipeline

import (
	"github.com/jarvislabs/kgraph/internal/config"
	"github.com/jarvislabs/kgraph/internal/kg/extract"
	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/kg/parser"
	"github.com/jarvislabs/kgraph/internal/kg/storage"
	"github.com/jarvislabs/kgraph/internal/kg/validate"
	"github.com/jarvislabs/kgraph/internal/llm"
)

// Factory assembles pipelines from shared components. One factory
// serves all uploads; the per-run state lives in the Context.
type Factory struct {
	cfg      config.PipelineConfig
	parser   *parser.FileParser
	entities *extract.EntityAgent
	relation *extract.RelationAgent
	validate *validate.Validator
	storage  *storage.GraphService
	embedder llm.EmbedderClient
}

func NewFactory(cfg config.PipelineConfig, client llm.CompletionClient, embedder llm.EmbedderClient, graph *storage.GraphService) *Factory {
	return &Factory{
		cfg:      cfg,
		parser:   parser.New(cfg.ChunkSize, cfg.ChunkOverlap),
		entities: extract.NewEntityAgent(client, cfg),
		relation: extract.NewRelationAgent(client, cfg),
		validate: validate.New(cfg),
		storage:  graph,
		embedder: embedder,
	}
}

// ForFormat builds the stage profile for a document format. Structured
// formats go straight from parsing to extraction; text-like formats
// pass through chunking and the optional enrichment stages first.
func (f *Factory) ForFormat(format model.DocumentFormat) *Pipeline {
	switch format {
	case model.FormatTXT, model.FormatPDF:
		return New(
			&parseStage{parser: f.parser},
			&chunkStage{parser: f.parser},
			&embedStage{embedder: f.embedder},
			&nerStage{},
			&entityExtractionStage{agent: f.entities},
			&relationExtractionStage{agent: f.relation},
			&validateStage{validator: f.validate, strict: f.cfg.StrictValidation},
			&storeStage{service: f.storage},
		)
	default:
		return New(
			&parseStage{parser: f.parser},
			&entityExtractionStage{agent: f.entities},
			&relationExtractionStage{agent: f.relation},
			&validateStage{validator: f.validate, strict: f.cfg.StrictValidation},
			&storeStage{service: f.storage},
		)
	}
}

// Minimal builds the smallest useful profile: parse, extract, store.
// Used by batch backfills where validation is handled out of band.
func (f *Factory) Minimal() *Pipeline {
	return New(
		&parseStage{parser: f.parser},
		&entityExtractionStage{agent: f.entities},
		&relationExtractionStage{agent: f.relation},
		&storeStage{service: f.storage},
	)
}
