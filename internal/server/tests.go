package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"datascope/internal/hypothesis"
)

// testRequest is the shared body for every test kind; each kind reads the
// fields it needs.
type testRequest struct {
	Column  string `json:"column"`   // normality
	Numeric string `json:"numeric"`  // ttest
	Group   string `json:"group"`    // ttest
	ColumnA string `json:"column_a"` // chi2, correlation
	ColumnB string `json:"column_b"` // chi2, correlation
}

// handleTest runs one hypothesis test. Results always include the p-value
// and a significance verdict at alpha=0.05.
func (s *Server) handleTest(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var req testRequest
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	var result any
	switch kind := c.Param("kind"); kind {
	case "normality":
		result, err = hypothesis.Normality(ds, req.Column, s.cfg.NormalitySampleCap)
	case "ttest":
		result, err = hypothesis.TTest(ds, req.Numeric, req.Group, s.cfg.AnalysisSampleCap)
	case "chi2":
		result, err = hypothesis.ChiSquare(ds, req.ColumnA, req.ColumnB, s.cfg.AnalysisSampleCap)
	case "correlation":
		result, err = hypothesis.Correlation(ds, req.ColumnA, req.ColumnB, s.cfg.AnalysisSampleCap)
	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown test kind %q", kind)})
		return
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
