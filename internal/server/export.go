package server

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"datascope/internal/export"
	"datascope/internal/publish"
	"datascope/internal/report"
)

// publishTimeout bounds one publish request end to end, connection included.
const publishTimeout = 60 * time.Second

// handleExport serves the current dataset as a download. Format comes from
// the "format" query parameter and defaults to csv.
func (s *Server) handleExport(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	format := export.Format(strings.ToLower(c.DefaultQuery("format", "csv")))
	data, err := export.Encode(ds, format)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	name := exportName(ds.Source, string(format))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, format.ContentType(), data)
}

// exportName derives the download filename from the upload source, so
// "sales.xlsx" exported as csv becomes "sales.csv".
func exportName(source, ext string) string {
	base := filepath.Base(source)
	if base == "." || base == "/" || base == "" {
		base = "dataset"
	}
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return base + "." + ext
}

// handleReport serves the markdown EDA report.
func (s *Server) handleReport(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	md := report.Markdown(ds)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exportName(ds.Source, "md")))
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", md)
}

// publishRequest selects a registered database backend and destination.
type publishRequest struct {
	Kind  string `json:"kind"`
	DSN   string `json:"dsn"`
	Table string `json:"table"`
}

// handlePublish writes the dataset into an external database. The DSN is
// used for this one request and never stored.
func (s *Server) handlePublish(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var req publishRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}
	if req.Kind == "" || req.DSN == "" || req.Table == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("kind, dsn and table are required; kinds: %v", publish.Kinds()),
		})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), publishTimeout)
	defer cancel()

	start := time.Now()
	n, err := publish.Publish(ctx, publish.Config{Kind: req.Kind, DSN: req.DSN, Table: req.Table}, ds)
	if err != nil {
		// Connection and DDL failures here are almost always bad user input
		// (wrong DSN, wrong permissions), not server faults.
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	s.log.Printf("stage=publish ok kind=%s table=%s rows=%d duration=%s", req.Kind, req.Table, n, time.Since(start).Round(time.Millisecond))
	c.JSON(http.StatusOK, gin.H{"kind": req.Kind, "table": req.Table, "rows_written": n})
}
