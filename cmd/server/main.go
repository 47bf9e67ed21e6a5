package main

import (
	"context"
	"os"

	"github.com/charmbracelet/log"
	"github.com/joho/godotenv"

	"github.com/jarvislabs/kgraph/internal/config"
	"github.com/jarvislabs/kgraph/internal/driver"
	"github.com/jarvislabs/kgraph/internal/kg/pipeline"
	"github.com/jarvislabs/kgraph/internal/kg/storage"
	"github.com/jarvislabs/kgraph/internal/llm"
	"github.com/jarvislabs/kgraph/internal/server"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config/config.toml"
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Warn("config file not loaded, using defaults", "path", cfgPath, "err", err)
		cfg = config.Default()
	}
	cfg.ApplyEnv()

	if cfg.LLM.Provider == "" {
		cfg.LLM.Provider = "ollama"
		cfg.LLM.Model = "gpt-oss:latest"
	}

	ctx := context.Background()

	d, err := driver.NewNeo4jDriver(cfg.Neo4j.URI, cfg.Neo4j.User, cfg.Neo4j.Password)
	if err != nil {
		log.Fatal("failed to connect to graph store", "err", err)
	}
	defer d.Close(ctx)

	if err := d.BuildIndices(ctx, cfg.Pipeline.EntityTypes); err != nil {
		log.Warn("index build incomplete", "err", err)
	}

	completion, embedder, err := llm.NewClient(ctx, cfg.LLM)
	if err != nil {
		log.Fatal("failed to initialize llm client", "err", err)
	}
	log.Info("llm client ready", "provider", cfg.LLM.Provider, "model", cfg.LLM.Model)

	graph := storage.NewGraphService(d, cfg.Pipeline.BatchSize, cfg.Pipeline.StoreTimeout())
	factory := pipeline.NewFactory(cfg.Pipeline, completion, embedder, graph)

	srv := server.New(factory, graph)
	router := srv.SetupRouter()

	addr := os.Getenv("LISTEN_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	log.Info("listening", "addr", addr)
	if err := router.Run(addr); err != nil {
		log.Fatal("server exited", "err", err)
	}
}
