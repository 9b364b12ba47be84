// Package server exposes the pipeline over HTTP. Each request runs the
// chain synchronously and the response carries either the result or a
// JSON error body; nothing is persisted between requests.
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"runtime"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/alnah/go-chapters/internal/config"
	"github.com/alnah/go-chapters/internal/ffmpeg"
	"github.com/alnah/go-chapters/internal/pipeline"
	"github.com/alnah/go-chapters/internal/transcript"
)

// Service is the slice of the pipeline the handlers need.
// *pipeline.Pipeline implements it; tests inject fakes.
type Service interface {
	Transcribe(ctx context.Context, media io.Reader, opts pipeline.TranscribeOptions) (transcript.Result, error)
	Generate(ctx context.Context, normalized string) (string, error)
	Chapters(ctx context.Context, media io.Reader, opts pipeline.TranscribeOptions) (transcript.Result, string, error)
	TranscoderPath() (string, error)
	HasCredential() bool
}

var _ Service = (*pipeline.Pipeline)(nil)

// Server wires the HTTP surface to a Service.
type Server struct {
	echo          *echo.Echo
	svc           Service
	skipTranscode bool
	bodyLimit     string
}

// Option configures a Server.
type Option func(*Server)

// WithSkipTranscode makes uploads go to the transcription service as-is,
// without audio extraction.
func WithSkipTranscode(skip bool) Option {
	return func(s *Server) { s.skipTranscode = skip }
}

// WithBodyLimit caps request body size ("100M", "2G"). Empty means
// unbounded, which matches the default behavior.
func WithBodyLimit(limit string) Option {
	return func(s *Server) { s.bodyLimit = limit }
}

// New builds the routing table around svc.
func New(svc Service, opts ...Option) *Server {
	s := &Server{
		echo: echo.New(),
		svc:  svc,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.echo.Use(middleware.Recover())
	s.echo.Use(middleware.Logger())
	if s.bodyLimit != "" {
		s.echo.Use(middleware.BodyLimit(s.bodyLimit))
	}

	s.echo.POST("/transcribe", s.handleTranscribe)
	s.echo.POST("/generate", s.handleGenerate)
	s.echo.POST("/chapters", s.handleChapters)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/ping", s.handlePing)
	s.echo.POST("/ping", s.handlePing)

	return s
}

// Handler returns the routing table as an http.Handler, for tests and
// embedding.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown or a listener error.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

type transcribeResponse struct {
	Transcript transcript.Result `json:"transcript"`
	Normalized string            `json:"normalized"`
}

type generateRequest struct {
	Transcript string `json:"transcript"`
}

type generateResponse struct {
	Chapters string `json:"chapters"`
}

type chaptersResponse struct {
	Transcript transcript.Result `json:"transcript"`
	Normalized string            `json:"normalized"`
	Chapters   string            `json:"chapters"`
}

type healthChecks struct {
	FFmpeg    string `json:"ffmpeg"`
	Token     bool   `json:"token"`
	GoVersion string `json:"goVersion"`
	Platform  string `json:"platform"`
	TmpDir    string `json:"tmpDir"`
}

type healthResponse struct {
	Status string       `json:"status"`
	Checks healthChecks `json:"checks"`
}

func (s *Server) handleTranscribe(c echo.Context) error {
	media, err := uploadedFile(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	defer media.Close()

	result, err := s.svc.Transcribe(c.Request().Context(), media, s.transcribeOptions(c))
	if err != nil {
		return s.serviceError(c, "Failed to transcribe video", err)
	}

	return c.JSON(http.StatusOK, transcribeResponse{
		Transcript: result,
		Normalized: result.Normalize(),
	})
}

func (s *Server) handleGenerate(c echo.Context) error {
	var req generateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Invalid request body"})
	}
	if req.Transcript == "" {
		return c.JSON(http.StatusBadRequest, errorBody{Error: "Transcript is required"})
	}

	text, err := s.svc.Generate(c.Request().Context(), req.Transcript)
	if err != nil {
		return s.serviceError(c, "Failed to generate chapters", err)
	}

	return c.JSON(http.StatusOK, generateResponse{Chapters: text})
}

func (s *Server) handleChapters(c echo.Context) error {
	media, err := uploadedFile(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorBody{Error: err.Error()})
	}
	defer media.Close()

	result, text, err := s.svc.Chapters(c.Request().Context(), media, s.transcribeOptions(c))
	if err != nil {
		return s.serviceError(c, "Failed to generate chapters", err)
	}

	return c.JSON(http.StatusOK, chaptersResponse{
		Transcript: result,
		Normalized: result.Normalize(),
		Chapters:   text,
	})
}

func (s *Server) handleHealth(c echo.Context) error {
	checks := healthChecks{
		Token:     s.svc.HasCredential(),
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		TmpDir:    os.TempDir(),
	}

	status := "ok"
	if path, err := s.svc.TranscoderPath(); err != nil {
		checks.FFmpeg = "unavailable: " + err.Error()
		status = "degraded"
	} else {
		checks.FFmpeg = path
	}
	if !checks.Token {
		status = "degraded"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	return c.JSON(code, healthResponse{Status: status, Checks: checks})
}

// handlePing answers liveness probes. The POST variant reports whether a
// multipart upload made it through intact, for client-side debugging.
func (s *Server) handlePing(c echo.Context) error {
	if c.Request().Method == http.MethodPost {
		resp := map[string]any{"status": "ok", "fileReceived": false}
		if fh, err := c.FormFile("file"); err == nil {
			resp["fileReceived"] = true
			resp["fileSize"] = fh.Size
		}
		return c.JSON(http.StatusOK, resp)
	}
	return c.JSON(http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// transcribeOptions merges the server default with the request's
// skip_transcode form field.
func (s *Server) transcribeOptions(c echo.Context) pipeline.TranscribeOptions {
	skip := s.skipTranscode
	if v := c.FormValue("skip_transcode"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			skip = b
		}
	}
	return pipeline.TranscribeOptions{SkipTranscode: skip}
}

// uploadedFile extracts the "file" part of a multipart upload.
func uploadedFile(c echo.Context) (io.ReadCloser, error) {
	fh, err := c.FormFile("file")
	if err != nil {
		return nil, errors.New("No video file provided")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, errors.New("Could not read uploaded file")
	}
	return f, nil
}

// serviceError renders a pipeline failure. Everything past validation is
// a server-side failure; the body carries diagnostics for the caller.
func (s *Server) serviceError(c echo.Context, msg string, err error) error {
	body := errorBody{Error: msg, Details: err.Error()}

	var convErr *ffmpeg.ConvertError
	if errors.As(err, &convErr) {
		body.Details = convErr.Detail()
	}
	if errors.Is(err, config.ErrTokenMissing) {
		body.Error = "Server configuration error"
	}

	return c.JSON(http.StatusInternalServerError, body)
}
