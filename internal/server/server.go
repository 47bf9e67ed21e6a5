// Package server exposes the pipeline and graph read operations over
// HTTP.
package server

import (
	"net/http"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/log"
	"github.com/gin-gonic/gin"

	"github.com/jarvislabs/kgraph/internal/kg/model"
	"github.com/jarvislabs/kgraph/internal/kg/parser"
	"github.com/jarvislabs/kgraph/internal/kg/pipeline"
	"github.com/jarvislabs/kgraph/internal/kg/storage"
)

var logger = log.WithPrefix("server")

type Server struct {
	factory *pipeline.Factory
	graph   *storage.GraphService
}

func New(factory *pipeline.Factory, graph *storage.GraphService) *Server {
	return &Server{factory: factory, graph: graph}
}

func (s *Server) SetupRouter() *gin.Engine {
	r := gin.Default()

	r.POST("/documents", s.ProcessDocument)
	r.GET("/graph/stats", s.GraphStats)
	r.GET("/graph/snapshot", s.GraphSnapshot)
	r.DELETE("/graph", s.ClearGraph)

	return r
}

// ProcessDocument accepts a multipart upload, infers the format from
// the filename (a "format" form field overrides it), and runs the
// pipeline synchronously. The response carries the aggregated run
// result in both the success and failure cases.
func (s *Server) ProcessDocument(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file upload"})
		return
	}

	format, ok := parser.DetectFormat(fileHeader.Filename)
	if declared := c.PostForm("format"); declared != "" {
		format, ok = model.DocumentFormat(declared), true
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file format"})
		return
	}

	doc := model.NewDocument(fileHeader.Filename, format, fileHeader.Size)

	path := filepath.Join(os.TempDir(), doc.ID+"_"+filepath.Base(fileHeader.Filename))
	if err := c.SaveUploadedFile(fileHeader, path); err != nil {
		logger.Error("failed to persist upload", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store upload"})
		return
	}
	defer os.Remove(path)

	run := s.factory.ForFormat(format)
	result, _ := run.Run(c.Request.Context(), pipeline.NewContext(doc, path))

	if result.Error != "" {
		c.JSON(http.StatusUnprocessableEntity, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) GraphStats(c *gin.Context) {
	stats, err := s.graph.GetGraphStats(c.Request.Context())
	if err != nil {
		logger.Error("graph stats failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read graph stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) GraphSnapshot(c *gin.Context) {
	limit := 100
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = parsed
	}

	snapshot, err := s.graph.GetGraphSnapshot(c.Request.Context(), limit)
	if err != nil {
		logger.Error("graph snapshot failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read graph snapshot"})
		return
	}
	c.JSON(http.StatusOK, snapshot)
}

func (s *Server) ClearGraph(c *gin.Context) {
	if err := s.graph.ClearGraph(c.Request.Context()); err != nil {
		logger.Error("graph clear failed", "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to clear graph"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "cleared"})
}
