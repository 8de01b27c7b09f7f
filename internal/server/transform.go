package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	json "github.com/goccy/go-json"

	"datascope/internal/transform"
)

// handleTransform applies one feature-engineering action to the session
// dataset in place and reports what changed.
func (s *Server) handleTransform(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var req transform.Request
	if err := json.NewDecoder(c.Request.Body).Decode(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body: " + err.Error()})
		return
	}

	added, err := transform.Apply(ds, req)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	s.log.Printf("stage=transform ok op=%s column=%s added=%d", req.Op, req.Column, len(added))
	c.JSON(http.StatusOK, gin.H{
		"op":            req.Op,
		"added_columns": added,
		"rows":          ds.Rows(),
		"cols":          ds.Cols(),
	})
}
