package model

import (
	"time"

	"github.com/google/uuid"
)

type DocumentFormat string

const (
	FormatCSV  DocumentFormat = "csv"
	FormatJSON DocumentFormat = "json"
	FormatPDF  DocumentFormat = "pdf"
	FormatTXT  DocumentFormat = "txt"
	FormatXLSX DocumentFormat = "xlsx"
)

type ProcessingStatus string

const (
	StatusPending             ProcessingStatus = "pending"
	StatusParsing             ProcessingStatus = "parsing"
	StatusExtractingEntities  ProcessingStatus = "extracting_entities"
	StatusExtractingRelations ProcessingStatus = "extracting_relations"
	StatusValidating          ProcessingStatus = "validating"
	StatusStoring             ProcessingStatus = "storing"
	StatusCompleted           ProcessingStatus = "completed"
	StatusFailed              ProcessingStatus = "failed"
)

// Document tracks one uploaded source file through the pipeline.
// It is owned by a single pipeline run and never shared across runs.
type Document struct {
	ID                 string           `json:"document_id"`
	Filename           string           `json:"filename"`
	Format             DocumentFormat   `json:"format"`
	SizeBytes          int64            `json:"size_bytes"`
	Status             ProcessingStatus `json:"status"`
	Progress           float64          `json:"progress"`
	UploadedAt         time.Time        `json:"uploaded_at"`
	ProcessedAt        *time.Time       `json:"processed_at,omitempty"`
	EntitiesExtracted  int              `json:"entities_extracted"`
	RelationsExtracted int              `json:"relations_extracted"`
	Error              string           `json:"error,omitempty"`
}

func NewDocument(filename string, format DocumentFormat, sizeBytes int64) *Document {
	return &Document{
		ID:         uuid.New().String(),
		Filename:   filename,
		Format:     format,
		SizeBytes:  sizeBytes,
		Status:     StatusPending,
		UploadedAt: time.Now().UTC(),
	}
}

func (d *Document) SetStatus(status ProcessingStatus, progress float64) {
	d.Status = status
	d.Progress = progress
}

func (d *Document) MarkCompleted(entities, relations int) {
	now := time.Now().UTC()
	d.Status = StatusCompleted
	d.Progress = 1.0
	d.ProcessedAt = &now
	d.EntitiesExtracted = entities
	d.RelationsExtracted = relations
}

func (d *Document) MarkFailed(errMsg string) {
	now := time.Now().UTC()
	d.Status = StatusFailed
	d.ProcessedAt = &now
	d.Error = errMsg
}
