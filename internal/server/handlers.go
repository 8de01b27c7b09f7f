package server

import (
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"datascope/internal/dataset"
	"datascope/internal/describe"
	"datascope/internal/insights"
	"datascope/internal/loader"
	"datascope/internal/metrics"
	"datascope/internal/quality"
)

// handleUpload parses the multipart file, infers column types and replaces
// the session dataset. The response is the same overview block the summary
// endpoint serves, so the page can render immediately.
func (s *Server) handleUpload(c *gin.Context) {
	fh, err := c.FormFile("file")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "missing multipart field \"file\""})
		return
	}
	if fh.Size > s.cfg.MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file is %d bytes; limit is %d", fh.Size, s.cfg.MaxUploadBytes),
		})
		return
	}

	f, err := fh.Open()
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, s.cfg.MaxUploadBytes+1))
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	if int64(len(data)) > s.cfg.MaxUploadBytes {
		c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
			"error": fmt.Sprintf("file exceeds the %d byte limit", s.cfg.MaxUploadBytes),
		})
		return
	}

	ds, err := loader.Load(fh.Filename, data, loader.Options{MaxRows: s.cfg.MaxLoadRows})
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	sess := currentSession(c)
	if !s.sessions.SetDataset(sess.ID, ds) {
		// Session was swept between middleware and now; extremely unlikely
		// but recoverable by re-uploading.
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session expired, retry the upload"})
		return
	}

	metrics.ObserveHistogram(metrics.UploadBytes, float64(len(data)), nil)
	metrics.IncCounter(metrics.RowsLoadedTotal, float64(ds.Rows()), metrics.Labels{"format": formatLabel(fh.Filename)})
	s.log.Printf("stage=load ok source=%s rows=%d cols=%d", fh.Filename, ds.Rows(), ds.Cols())

	sum := describe.Describe(ds)
	c.JSON(http.StatusOK, gin.H{
		"overview": sum.Overview,
		"columns":  columnIndex(sum),
	})
}

// handleSample seeds the session with the built-in demonstration dataset.
// The response mirrors the upload endpoint so the page renders the same way.
func (s *Server) handleSample(c *gin.Context) {
	ds, err := dataset.Sample()
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	sess := currentSession(c)
	if !s.sessions.SetDataset(sess.ID, ds) {
		c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "session expired, retry"})
		return
	}

	metrics.IncCounter(metrics.RowsLoadedTotal, float64(ds.Rows()), metrics.Labels{"format": "sample"})
	s.log.Printf("stage=load ok source=sample rows=%d cols=%d", ds.Rows(), ds.Cols())

	sum := describe.Describe(ds)
	c.JSON(http.StatusOK, gin.H{
		"overview": sum.Overview,
		"columns":  columnIndex(sum),
	})
}

// columnIndex is the light name/kind listing the page uses to populate
// selectors without pulling the full summary.
func columnIndex(sum describe.Summary) []gin.H {
	out := make([]gin.H, len(sum.Columns))
	for i, col := range sum.Columns {
		out[i] = gin.H{"name": col.Name, "kind": col.Kind, "missing": col.Missing}
	}
	return out
}

func (s *Server) handleSummary(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, describe.Describe(ds))
}

func (s *Server) handleColumnSummary(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	name := c.Param("column")
	col, ok := ds.Column(name)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no column %q", name)})
		return
	}
	c.JSON(http.StatusOK, describe.DescribeColumn(col, ds.Rows()))
}

func (s *Server) handleHead(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	n := intQuery(c, "n", 10)
	if n < 1 {
		n = 10
	}
	if n > 100 {
		n = 100
	}
	c.JSON(http.StatusOK, gin.H{
		"columns": ds.ColumnNames(),
		"rows":    ds.Head(n),
	})
}

func (s *Server) handleValueCounts(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	name := c.Param("column")
	col, ok := ds.Column(name)
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no column %q", name)})
		return
	}

	counts := describe.ValueCounts(col)
	if top := intQuery(c, "top", 0); top > 0 && top < len(counts) {
		counts = counts[:top]
	}
	c.JSON(http.StatusOK, gin.H{"column": name, "counts": counts})
}

func (s *Server) handleCorrMatrix(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	names, m := describe.CorrMatrix(ds)

	// NaN cells (pairs without enough complete observations) must become
	// JSON null rather than poisoning the whole response.
	matrix := make([][]describe.Float, len(m))
	for i, row := range m {
		matrix[i] = make([]describe.Float, len(row))
		for j, v := range row {
			matrix[i][j] = describe.Float(v)
		}
	}
	c.JSON(http.StatusOK, gin.H{"columns": names, "matrix": matrix})
}

func (s *Server) handleQuality(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, quality.Assess(ds))
}

func (s *Server) handleInsights(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"insights": insights.Generate(ds)})
}

func intQuery(c *gin.Context, key string, def int) int {
	v := c.Query(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func formatLabel(name string) string {
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			return name[i+1:]
		}
	}
	return "unknown"
}
