package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"datascope/internal/viz"
)

// handleChart renders one chart as PNG. The kind path segment selects the
// renderer; column selection comes from query parameters.
//
// Kinds and their parameters:
//   - histogram: column, bins (optional)
//   - bar:       column, top (optional)
//   - box:       column
//   - scatter:   x, y
//   - timeseries: time, value
//   - heatmap:   (none; uses all numeric columns)
//   - qq:        column
func (s *Server) handleChart(c *gin.Context) {
	ds, err := currentDataset(c)
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	var png []byte
	switch kind := c.Param("kind"); kind {
	case "histogram":
		png, err = viz.Histogram(ds, c.Query("column"), intQuery(c, "bins", 0))
	case "bar":
		png, err = viz.Bar(ds, c.Query("column"), intQuery(c, "top", 0))
	case "box":
		png, err = viz.Box(ds, c.Query("column"))
	case "scatter":
		png, err = viz.Scatter(ds, c.Query("x"), c.Query("y"))
	case "timeseries":
		png, err = viz.TimeSeries(ds, c.Query("time"), c.Query("value"))
	case "heatmap":
		png, err = viz.CorrelationHeatmap(ds)
	case "qq":
		png, err = viz.QQ(ds, c.Query("column"))
	default:
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("unknown chart kind %q", kind)})
		return
	}
	if err != nil {
		s.abortWithError(c, err)
		return
	}

	c.Data(http.StatusOK, "image/png", png)
}
