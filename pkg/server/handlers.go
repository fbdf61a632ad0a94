package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/haigpapa/Chromatoverse/pkg/analyzer"
	"github.com/haigpapa/Chromatoverse/pkg/db"
	"github.com/haigpapa/Chromatoverse/pkg/llm"
	"github.com/haigpapa/Chromatoverse/pkg/metrics"
	"github.com/haigpapa/Chromatoverse/pkg/repo"
)

// User-facing error messages
const (
	msgMissingURL     = "Missing githubUrl parameter"
	msgInvalidURL     = "Invalid GitHub URL. Please provide a valid public GitHub repository URL."
	msgNoRepoName     = "Could not extract repository name from URL"
	msgRepoNotFound   = "Repository not found. Please check the URL and ensure the repository is public."
	msgAccessDenied   = "Access denied. This may be a private repository."
	msgAnalyzeFailed  = "Failed to analyze repository. Please try again."
	msgMissingTrace   = "Missing errorTrace parameter"
	msgInvalidFiles   = "Missing or invalid files array"
	msgAIUnavailable  = "AI analysis not available"
	msgExplainFailed  = "Failed to explain error"
	msgInvalidBody    = "Invalid JSON body"
	msgNoStore        = "Analysis storage is not configured"
	msgAnalysisAbsent = "Analysis not found"
)

const headerAnalysisID = "X-Analysis-ID"

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type analyzeRequest struct {
	GithubURL string `json:"githubUrl" binding:"required"`
}

func (s *Server) handleAnalyze(c *gin.Context) {
	log := logger(c)

	var req analyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) || errors.Is(err, io.EOF) {
			c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingURL})
			return
		}
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidBody, Details: err.Error()})
		return
	}

	if err := repo.ValidateURL(req.GithubURL); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidURL})
		return
	}
	name, err := repo.Name(req.GithubURL)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgNoRepoName})
		return
	}

	if s.cache != nil {
		if result, ok := s.cache.Get(req.GithubURL); ok {
			metrics.CacheHits.Inc()
			log.Info("Serving cached analysis", "url", req.GithubURL)
			c.JSON(http.StatusOK, result)
			return
		}
	}

	log.Info("Analyzing repository", "url", req.GithubURL)
	result, err := s.analyzeRemote(c.Request.Context(), req.GithubURL, name)
	if err != nil {
		log.Error("Analysis failed", "url", req.GithubURL, "error", err)
		switch {
		case errors.Is(err, repo.ErrNotFound):
			metrics.CloneErrors.WithLabelValues("not_found").Inc()
			c.JSON(http.StatusNotFound, errorResponse{Error: msgRepoNotFound})
		case errors.Is(err, repo.ErrAccessDenied):
			metrics.CloneErrors.WithLabelValues("access_denied").Inc()
			c.JSON(http.StatusForbidden, errorResponse{Error: msgAccessDenied})
		default:
			c.JSON(http.StatusInternalServerError, errorResponse{Error: msgAnalyzeFailed, Details: err.Error()})
		}
		return
	}

	if s.cache != nil {
		s.cache.Add(req.GithubURL, result)
	}

	if s.deps.Store != nil {
		id, err := s.deps.Store.SaveAnalysis(c.Request.Context(), req.GithubURL, result)
		if err != nil {
			log.Warn("Failed to store analysis", "url", req.GithubURL, "error", err)
		} else {
			c.Header(headerAnalysisID, id)
		}
	}

	log.Info("Analysis complete", "repo", name, "files", len(result.Graph.Nodes))
	c.JSON(http.StatusOK, result)
}

// analyzeRemote clones url, analyzes the checkout and removes it again
func (s *Server) analyzeRemote(ctx context.Context, url, name string) (*analyzer.Result, error) {
	start := time.Now()

	cloneCtx, cancel := context.WithTimeout(ctx, s.cfg.CloneTimeout)
	ws, err := repo.Checkout(cloneCtx, s.deps.Cloner, s.cfg.TempDir, url)
	cancel()
	if err != nil {
		metrics.ObserveAnalysis(metrics.SourceServer, time.Since(start), 0, 0, err)
		return nil, err
	}
	defer ws.Close()

	result, err := s.deps.Analyzer.Analyze(ctx, ws.Dir)
	if err != nil {
		metrics.ObserveAnalysis(metrics.SourceServer, time.Since(start), 0, 0, err)
		return nil, err
	}
	// The checkout directory carries a timestamp suffix
	result.Project.ProjectName = name

	metrics.ObserveAnalysis(metrics.SourceServer, time.Since(start), len(result.Graph.Nodes), len(result.Graph.Links), nil)
	return result, nil
}

type explainRequest struct {
	ErrorTrace string          `json:"errorTrace"`
	Files      json.RawMessage `json:"files"`
}

type fileRef struct {
	Path string `json:"path"`
}

func (s *Server) handleExplainError(c *gin.Context) {
	log := logger(c)

	var req explainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidBody, Details: err.Error()})
		return
	}
	if req.ErrorTrace == "" {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgMissingTrace})
		return
	}

	var files []fileRef
	if len(req.Files) == 0 || string(req.Files) == "null" || json.Unmarshal(req.Files, &files) != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: msgInvalidFiles})
		return
	}

	if s.deps.Explainer == nil {
		c.JSON(http.StatusServiceUnavailable, errorResponse{Error: msgAIUnavailable, Details: llm.ErrUnavailable.Error()})
		return
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		paths = append(paths, f.Path)
	}

	log.Info("Explaining error", "files", len(paths))
	explanation, err := s.deps.Explainer.ExplainError(c.Request.Context(), req.ErrorTrace, paths)
	if err != nil {
		log.Error("Error explanation failed", "error", err)
		if errors.Is(err, llm.ErrUnavailable) {
			c.JSON(http.StatusServiceUnavailable, errorResponse{Error: msgAIUnavailable, Details: err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, errorResponse{Error: msgExplainFailed, Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, explanation)
}

type healthFeatures struct {
	AIAnalysis     bool `json:"aiAnalysis"`
	ErrorExplainer bool `json:"errorExplainer"`
	Storage        bool `json:"storage"`
}

type healthResponse struct {
	Status   string         `json:"status"`
	Message  string         `json:"message"`
	Version  string         `json:"version"`
	Features healthFeatures `json:"features"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, healthResponse{
		Status:  "ok",
		Message: "Codeverse Explorer API is running",
		Version: s.cfg.Version,
		Features: healthFeatures{
			AIAnalysis:     s.deps.AIEnabled,
			ErrorExplainer: s.deps.Explainer != nil,
			Storage:        s.deps.Store != nil,
		},
	})
}

func (s *Server) handleGetAnalysis(c *gin.Context) {
	if s.deps.Store == nil {
		c.JSON(http.StatusNotImplemented, errorResponse{Error: msgNoStore})
		return
	}

	result, err := s.deps.Store.GetAnalysis(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, db.ErrNotFound) {
			c.JSON(http.StatusNotFound, errorResponse{Error: msgAnalysisAbsent})
			return
		}
		logger(c).Error("Failed to load analysis", "id", c.Param("id"), "error", err)
		c.JSON(http.StatusInternalServerError, errorResponse{Error: "Failed to load analysis", Details: err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}
