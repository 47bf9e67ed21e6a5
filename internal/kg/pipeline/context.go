// Package pipeline orchestrates document processing as an ordered
// sequence of stages. Each stage reads and writes the shared run
// context; the orchestrator halts on the first failed stage.
package pipeline

import (
	"time"

	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/kg/validate"
)

// Context carries the state of one pipeline run. It is owned by a
// single run and never shared between goroutines.
type Context struct {
	Document *model.Document
	Path     string

	Records  []model.Record
	Metadata model.Metadata
	Text     string

	Chunks     []string
	Embeddings [][]float32

	Entities  []model.Entity
	Relations []model.Relation

	Report *validate.Report

	StorageOutput map[string]any

	StageResults []model.StageResult
	Warnings     []string

	start time.Time
}

func NewContext(doc *model.Document, path string) *Context {
	return &Context{
		Document: doc,
		Path:     path,
		start:    time.Now(),
	}
}

func (c *Context) Duration() time.Duration {
	return time.Since(c.start).Round(time.Millisecond)
}

// Successful reports whether no stage has failed so far. Skipped
// stages do not count against success.
func (c *Context) Successful() bool {
	for _, r := range c.StageResults {
		if r.IsFailure() {
			return false
		}
	}
	return true
}

// StageResult returns the recorded result for a stage by name.
func (c *Context) StageResult(name string) (model.StageResult, bool) {
	for _, r := range c.StageResults {
		if r.StageName == name {
			return r, true
		}
	}
	return model.StageResult{}, false
}

func (c *Context) addResult(r model.StageResult) {
	c.StageResults = append(c.StageResults, r)
}
