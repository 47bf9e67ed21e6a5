package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvislabs/kgraph/internal/kg/model"
)

func testEntities() []model.Entity {
	return []model.Entity{
		{Type: "Person", Name: "Alice"},
		{Type: "Person", Name: "Bob"},
		{Type: "Organization", Name: "TechCorp"},
	}
}

func TestRelationExtraction(t *testing.T) {
	mockLLM := &MockLLM{
		Response: `[
			{"type": "WORKS_AT", "from_entity": "alice", "to_entity": "techcorp", "properties": {"role": "engineer"}, "confidence": 0.9},
			{"type": "KNOWS", "from_entity": "Alice", "to_entity": "Bob", "properties": {}, "confidence": 0.85}
		]`,
	}

	agent := NewRelationAgent(mockLLM, testConfig())
	relations, warnings, err := agent.Extract(context.Background(), testRecords(1), model.Metadata{}, testEntities(), "people.csv")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, relations, 2)

	// Endpoint casing drift from the LLM resolves to the canonical names.
	worksAt := relations[0]
	assert.Equal(t, "WORKS_AT", worksAt.Type)
	assert.Equal(t, "Alice", worksAt.From)
	assert.Equal(t, "TechCorp", worksAt.To)
	assert.Equal(t, "Person", worksAt.FromType)
	assert.Equal(t, "Organization", worksAt.ToType)
	assert.Equal(t, "people.csv", worksAt.Source)
}

func TestRelationExtractionUnknownEndpointDropped(t *testing.T) {
	mockLLM := &MockLLM{
		Response: `[
			{"type": "WORKS_AT", "from_entity": "Alice", "to_entity": "GloboCorp", "properties": {}, "confidence": 0.9},
			{"type": "KNOWS", "from_entity": "Alice", "to_entity": "Bob", "properties": {}, "confidence": 0.9}
		]`,
	}

	agent := NewRelationAgent(mockLLM, testConfig())
	relations, warnings, err := agent.Extract(context.Background(), testRecords(1), model.Metadata{}, testEntities(), "src")
	require.NoError(t, err)

	require.Len(t, relations, 1)
	assert.Equal(t, "KNOWS", relations[0].Type)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "GloboCorp")
}

func TestRelationExtractionUnknownTypeFallsBack(t *testing.T) {
	mockLLM := &MockLLM{
		Response: `[{"type": "EMPLOYS", "from_entity": "TechCorp", "to_entity": "Alice", "properties": {}, "confidence": 0.9}]`,
	}

	agent := NewRelationAgent(mockLLM, testConfig())
	relations, _, err := agent.Extract(context.Background(), testRecords(1), model.Metadata{}, testEntities(), "src")
	require.NoError(t, err)
	require.Len(t, relations, 1)
	assert.Equal(t, model.RelationRelatedTo, relations[0].Type)
}

func TestRelationExtractionPromptContents(t *testing.T) {
	mockLLM := &MockLLM{Response: `[]`}
	agent := NewRelationAgent(mockLLM, testConfig())

	_, _, err := agent.Extract(context.Background(), testRecords(1), model.Metadata{}, testEntities(), "src")
	require.NoError(t, err)

	require.Len(t, mockLLM.Prompts, 1)
	prompt := mockLLM.Prompts[0]
	assert.Contains(t, prompt, "WORKS_AT, KNOWS, RELATED_TO")
	assert.Contains(t, prompt, "TechCorp")
	assert.Contains(t, prompt, "EXACT entity names")
}

func TestRelationExtractionBadBatchIsWarning(t *testing.T) {
	mockLLM := &MockLLM{
		ResponseQueue: []string{
			`not json at all`,
			`[{"type": "KNOWS", "from_entity": "Alice", "to_entity": "Bob", "properties": {}, "confidence": 0.9}]`,
		},
	}

	agent := NewRelationAgent(mockLLM, testConfig())
	relations, warnings, err := agent.Extract(context.Background(), testRecords(3), model.Metadata{}, testEntities(), "src")
	require.NoError(t, err)
	assert.Len(t, relations, 1)
	assert.Len(t, warnings, 1)
}

func TestDedupeRelationsMergePolicy(t *testing.T) {
	relations := []model.Relation{
		{Type: "WORKS_AT", From: "Alice", To: "TechCorp", Properties: map[string]any{"role": "engineer"}, Confidence: 1.0},
		{Type: "WORKS_AT", From: "Alice", To: "TechCorp", Properties: map[string]any{"role": "manager", "since": "2020"}, Confidence: 0.5},
		{Type: "KNOWS", From: "Alice", To: "Bob", Confidence: 0.9},
	}

	deduped := DedupeRelations(relations)
	require.Len(t, deduped, 2)

	merged := deduped[0]
	assert.Equal(t, "manager", merged.Properties["role"])
	assert.Equal(t, "2020", merged.Properties["since"])
	assert.Equal(t, 0.75, merged.Confidence)
}
