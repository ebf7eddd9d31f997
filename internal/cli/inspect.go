package cli

import (
	"context"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toyz/strata/internal/annotations"
	"github.com/toyz/strata/internal/errors"
	"github.com/toyz/strata/internal/generator"
)

// GraphSource analyzes the project and returns its graph
type GraphSource func(ctx context.Context) (*generator.Graph, error)

// InspectServer serves the resolved graph as JSON. Every request analyzes
// the project again, so the answer follows the sources on disk.
type InspectServer struct {
	source GraphSource
	engine *gin.Engine
}

// ProblemJSON is one error of a failed analysis
type ProblemJSON struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Location string `json:"location,omitempty"`
}

// NewInspectServer creates the server and its routes
func NewInspectServer(source GraphSource) *InspectServer {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &InspectServer{source: source, engine: engine}
	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	engine.GET("/graph", s.handleGraph)
	engine.GET("/graph/scopes/:name", s.handleScope)
	return s
}

// Handler returns the http.Handler of the server
func (s *InspectServer) Handler() http.Handler {
	return s.engine
}

// ListenAndServe serves on addr until ctx is done
func (s *InspectServer) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	err := srv.ListenAndServe()
	if stderrors.Is(err, http.ErrServerClosed) {
		<-done
		return nil
	}
	return err
}

func (s *InspectServer) handleGraph(c *gin.Context) {
	graph, ok := s.analyze(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, graph)
}

func (s *InspectServer) handleScope(c *gin.Context) {
	graph, ok := s.analyze(c)
	if !ok {
		return
	}
	name := c.Param("name")
	for _, scope := range graph.Scopes {
		if scope.Name == name {
			c.JSON(http.StatusOK, scope)
			return
		}
	}
	c.JSON(http.StatusNotFound, gin.H{"error": "no scope named " + name})
}

func (s *InspectServer) analyze(c *gin.Context) (*generator.Graph, bool) {
	graph, err := s.source(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error":    "analysis failed",
			"problems": problems(err),
		})
		return nil, false
	}
	return graph, true
}

func problems(err error) []ProblemJSON {
	var out []ProblemJSON
	for _, e := range flatten(err) {
		p := ProblemJSON{Code: "Other", Message: e.Error()}
		switch typed := e.(type) {
		case errors.StrataError:
			p.Code = typed.ErrorCode().String()
			p.Message = message(typed)
			if loc := typed.Location(); !loc.IsEmpty() {
				p.Location = loc.String()
			}
		case annotations.AnnotationError:
			p.Code = typed.Code().String()
		}
		out = append(out, p)
	}
	return out
}
