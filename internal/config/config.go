package config

import (
	"fmt"
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
)

type LLMConfig struct {
	Provider       string `toml:"provider"`
	Model          string `toml:"model"`
	EmbeddingModel string `toml:"embedding_model"`
	APIKey         string `toml:"api_key"`
	BaseURL        string `toml:"base_url"`
}

type Neo4jConfig struct {
	URI      string `toml:"uri"`
	User     string `toml:"user"`
	Password string `toml:"password"`
}

// PipelineConfig holds the logical knobs the extraction pipeline depends on.
type PipelineConfig struct {
	EntityTypes         []string `toml:"entity_types"`
	RelationTypes       []string `toml:"relation_types"`
	BatchSize           int      `toml:"batch_size"`
	StrictValidation    bool     `toml:"strict_validation"`
	MultiValueSeparator string   `toml:"multi_value_separator"`
	AllowSelfLoops      bool     `toml:"allow_self_loops"`
	LLMTimeoutSeconds   int      `toml:"llm_timeout_seconds"`
	StoreTimeoutSeconds int      `toml:"store_timeout_seconds"`
	ChunkSize           int      `toml:"chunk_size"`
	ChunkOverlap        int      `toml:"chunk_overlap"`
}

type Config struct {
	LLM      LLMConfig      `toml:"llm"`
	Neo4j    Neo4jConfig    `toml:"neo4j"`
	Pipeline PipelineConfig `toml:"pipeline"`
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file '%s': %w", path, err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse TOML: %w", err)
	}
	cfg.applyDefaults()

	return &cfg, nil
}

// Default returns a config usable without a config file.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if len(c.Pipeline.EntityTypes) == 0 {
		c.Pipeline.EntityTypes = []string{
			"Person", "Movie", "Studio", "Organization", "Location", "Concept", "Generic",
		}
	}
	if len(c.Pipeline.RelationTypes) == 0 {
		c.Pipeline.RelationTypes = []string{
			"ACTED_IN", "DIRECTED", "PRODUCED_BY", "WORKS_AT",
			"KNOWS", "RELATED_TO", "LOCATED_IN", "PART_OF",
		}
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 50
	}
	if c.Pipeline.MultiValueSeparator == "" {
		c.Pipeline.MultiValueSeparator = ";"
	}
	if c.Pipeline.LLMTimeoutSeconds <= 0 {
		c.Pipeline.LLMTimeoutSeconds = 60
	}
	if c.Pipeline.StoreTimeoutSeconds <= 0 {
		c.Pipeline.StoreTimeoutSeconds = 30
	}
	if c.Pipeline.ChunkSize <= 0 {
		c.Pipeline.ChunkSize = 1000
	}
	if c.Pipeline.ChunkOverlap < 0 || c.Pipeline.ChunkOverlap >= c.Pipeline.ChunkSize {
		c.Pipeline.ChunkOverlap = 200
	}
	if c.Neo4j.URI == "" {
		c.Neo4j.URI = "bolt://localhost:7687"
	}
}

func (c *PipelineConfig) LLMTimeout() time.Duration {
	return time.Duration(c.LLMTimeoutSeconds) * time.Second
}

func (c *PipelineConfig) StoreTimeout() time.Duration {
	return time.Duration(c.StoreTimeoutSeconds) * time.Second
}

// ApplyEnv overrides config values from environment variables when set.
func (c *Config) ApplyEnv() {
	if v := os.Getenv("LLM_PROVIDER"); v != "" {
		c.LLM.Provider = v
	}
	if v := os.Getenv("LLM_MODEL"); v != "" {
		c.LLM.Model = v
	}
	if v := os.Getenv("LLM_EMBEDDING_MODEL"); v != "" {
		c.LLM.EmbeddingModel = v
	}
	if v := os.Getenv("LLM_API_KEY"); v != "" {
		c.LLM.APIKey = v
	}
	if v := os.Getenv("LLM_BASE_URL"); v != "" {
		c.LLM.BaseURL = v
	}
	if v := os.Getenv("NEO4J_URI"); v != "" {
		c.Neo4j.URI = v
	}
	if v := os.Getenv("NEO4J_USER"); v != "" {
		c.Neo4j.User = v
	}
	if v := os.Getenv("NEO4J_PASSWORD"); v != "" {
		c.Neo4j.Password = v
	}
}
