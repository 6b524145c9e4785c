package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kenobase/app"
	"kenobase/domain/ecosystem"
	"kenobase/internal/report"
)

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"nodes":  s.graph.NodeCount(),
		"edges":  s.graph.EdgeCount(),
	})
}

func (s *Server) handleGraph(c *gin.Context) {
	c.JSON(http.StatusOK, app.NewGraphDocument(s.graph))
}

func (s *Server) handleSummary(c *gin.Context) {
	c.JSON(http.StatusOK, s.graph.Summary())
}

// handleReport serves ?format=json (default), markdown or html
func (s *Server) handleReport(c *gin.Context) {
	r, err := report.Build(s.graph)
	if err != nil {
		s.logger.Error("report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "report failed"})
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "json":
		c.JSON(http.StatusOK, r)
	case "markdown", "md":
		c.Data(http.StatusOK, "text/markdown; charset=utf-8", report.Markdown(r))
	case "html":
		c.Data(http.StatusOK, "text/html; charset=utf-8", report.HTML(r))
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "format must be json, markdown or html"})
	}
}

func (s *Server) handleNodes(c *gin.Context) {
	c.JSON(http.StatusOK, s.graph.Nodes())
}

func (s *Server) handleNode(c *gin.Context) {
	name := c.Param("name")
	node, ok := s.graph.Node(name)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "game not found", "name": name})
		return
	}
	c.JSON(http.StatusOK, node)
}

// handleNodeEdges answers for any name, known node or not: edges may
// reference games outside the node set.
func (s *Server) handleNodeEdges(c *gin.Context) {
	name := c.Param("name")

	var edges []ecosystem.Edge
	switch c.DefaultQuery("direction", "out") {
	case "out":
		edges = s.graph.EdgesFrom(name)
	case "in":
		edges = s.graph.EdgesTo(name)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be out or in"})
		return
	}
	c.JSON(http.StatusOK, edges)
}

// handleEdges filters by ?method= and ?control=1
func (s *Server) handleEdges(c *gin.Context) {
	var edges []ecosystem.Edge
	if method := c.Query("method"); method != "" {
		edges = s.graph.EdgesByMethod(method)
	} else {
		edges = s.graph.Edges()
	}

	if c.Query("control") == "1" || c.Query("control") == "true" {
		controls := make(map[string]bool)
		for _, name := range s.graph.ControlNodes() {
			controls[name] = true
		}
		filtered := make([]ecosystem.Edge, 0, len(edges))
		for _, e := range edges {
			if controls[e.Source] || controls[e.Target] {
				filtered = append(filtered, e)
			}
		}
		edges = filtered
	}

	c.JSON(http.StatusOK, edges)
}
