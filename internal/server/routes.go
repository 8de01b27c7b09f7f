package server

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"datascope/internal/dataset"
	"datascope/internal/metrics"
	"datascope/internal/session"
)

const sessionKey = "datascope_session"

func (s *Server) routes(r *gin.Engine) {
	r.GET("/healthz", s.handleHealth)
	r.GET("/", s.handlePage)

	api := r.Group("/api", s.withSession(), s.withMetrics())
	{
		api.POST("/upload", s.handleUpload)
		api.POST("/sample", s.handleSample)

		api.GET("/summary", s.handleSummary)
		api.GET("/summary/:column", s.handleColumnSummary)
		api.GET("/head", s.handleHead)
		api.GET("/values/:column", s.handleValueCounts)
		api.GET("/corr", s.handleCorrMatrix)

		api.GET("/quality", s.handleQuality)
		api.GET("/insights", s.handleInsights)

		api.GET("/chart/:kind", s.handleChart)

		api.POST("/test/:kind", s.handleTest)
		api.POST("/transform", s.handleTransform)

		api.GET("/export", s.handleExport)
		api.GET("/report", s.handleReport)
		api.POST("/publish", s.handlePublish)
	}
}

// withSession resolves the cookie session, creating one on first contact.
// The session lock is held for the whole request: handlers mutate the
// dataset in place, so concurrent requests on one session must serialize.
func (s *Server) withSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, _ := c.Cookie(session.CookieName)
		sess, created := s.sessions.GetOrCreate(id)
		if created {
			c.SetCookie(session.CookieName, sess.ID, 0, "/", "", false, true)
		}
		c.Set(sessionKey, sess)

		sess.Lock()
		defer sess.Unlock()
		c.Next()
	}
}

// withMetrics counts requests and samples latency per operation.
func (s *Server) withMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		labels := metrics.Labels{
			"op":     c.FullPath(),
			"status": strconv.Itoa(c.Writer.Status()),
		}
		metrics.IncCounter(metrics.RequestsTotal, 1, labels)
		metrics.ObserveHistogram(metrics.RequestDurationSeconds, time.Since(start).Seconds(), labels)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": s.sessions.Len()})
}

// currentSession returns the session the middleware attached.
func currentSession(c *gin.Context) *session.Session {
	return c.MustGet(sessionKey).(*session.Session)
}

// currentDataset returns the session dataset, or errNoDataset before any
// successful upload.
func currentDataset(c *gin.Context) (*dataset.Dataset, error) {
	sess := currentSession(c)
	if sess.Dataset == nil {
		return nil, errNoDataset
	}
	return sess.Dataset, nil
}
