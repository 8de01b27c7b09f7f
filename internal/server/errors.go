package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"datascope/internal/hypothesis"
	"datascope/internal/loader"
	"datascope/internal/transform"
	"datascope/internal/viz"
)

// errNoDataset is returned by session lookup helpers when the user has not
// uploaded anything yet.
var errNoDataset = errors.New("no dataset loaded; upload a file first")

// abortWithError maps domain errors onto HTTP statuses. User mistakes
// (unsupported format, malformed file, test requirements not met) become
// 4xx with the message intact; everything else is a 500 and the detail goes
// to the log only.
func (s *Server) abortWithError(c *gin.Context, err error) {
	var (
		parseErr *loader.ParseError
		reqErr   *hypothesis.RequirementError
		incErr   *transform.IncompatibleError
		chartErr *viz.ChartError
	)

	switch {
	case errors.Is(err, errNoDataset):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.Is(err, loader.ErrUnsupportedFormat):
		c.AbortWithStatusJSON(http.StatusUnsupportedMediaType, gin.H{"error": err.Error()})

	case errors.As(err, &parseErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	case errors.As(err, &reqErr), errors.As(err, &incErr):
		c.AbortWithStatusJSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})

	case errors.As(err, &chartErr):
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})

	default:
		s.log.Printf("stage=%s error=%v", c.FullPath(), err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
