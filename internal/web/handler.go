// Package web serves the upload and question page and its JSON API.
package web

import (
	"embed"
	"errors"
	"html/template"
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist/internal/domain"
	"docassist/internal/log"
	"docassist/internal/service"
)

const (
	sessionCookie = "docassist_session"
	sessionKey    = "session"
)

//go:embed templates/*.html
var templates embed.FS

// Handler serves every route for sessions handed out by a Manager.
type Handler struct {
	sessions       *service.Manager
	maxUploadBytes int64
}

func NewHandler(sessions *service.Manager, maxUploadMB int) *Handler {
	if maxUploadMB <= 0 {
		maxUploadMB = 64
	}
	return &Handler{sessions: sessions, maxUploadBytes: int64(maxUploadMB) << 20}
}

// NewRouter builds a gin engine with the handler's routes and page templates.
func NewRouter(h *Handler) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())
	r.SetHTMLTemplate(template.Must(template.ParseFS(templates, "templates/*.html")))
	r.MaxMultipartMemory = h.maxUploadBytes
	h.RegisterRoutes(r)
	return r
}

// RegisterRoutes registers the page and API routes.
func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/healthz", h.Health)

	page := r.Group("/", h.withSession)
	page.GET("/", h.Index)
	page.POST("/upload", h.UploadForm)
	page.POST("/summary", h.SummaryForm)
	page.POST("/query", h.QueryForm)

	api := r.Group("/api", h.withSession)
	api.GET("/documents", h.ListDocuments)
	api.POST("/documents", h.UploadDocuments)
	api.POST("/query", h.Query)
	api.POST("/summary", h.Summary)
}

// withSession attaches the caller's session, issuing a cookie for new ones.
func (h *Handler) withSession(c *gin.Context) {
	id, _ := c.Cookie(sessionCookie)
	s, err := h.sessions.Get(id)
	if err != nil {
		log.Error(err, "create session")
		c.AbortWithStatusJSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: "could not create session"})
		return
	}
	if s.ID() != id {
		c.SetSameSite(http.SameSiteLaxMode)
		c.SetCookie(sessionCookie, s.ID(), 0, "/", "", false, true)
	}
	c.Set(sessionKey, s)
	c.Next()
}

func session(c *gin.Context) *service.Session {
	return c.MustGet(sessionKey).(*service.Session)
}

func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "sessions": h.sessions.Len()})
}

// readUploads reads every file of the multipart field "files".
func (h *Handler) readUploads(c *gin.Context) ([]service.Upload, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadBytes)
	form, err := c.MultipartForm()
	if err != nil {
		return nil, err
	}
	headers := form.File["files"]
	if len(headers) == 0 {
		return nil, errNoFiles
	}
	uploads := make([]service.Upload, 0, len(headers))
	for _, fh := range headers {
		data, err := readFile(fh)
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, service.Upload{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

var errNoFiles = errors.New("no files uploaded")

func readFile(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}

func requestLogger() gin.HandlerFunc {
	logger := log.WithName("http")
	return func(c *gin.Context) {
		c.Next()
		logger.V(1).Info("request", "method", c.Request.Method, "path", c.Request.URL.Path, "status", c.Writer.Status())
	}
}

// statusFor maps an error to an HTTP status and code.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrEmptyQuery):
		return http.StatusBadRequest, "BAD_REQUEST"
	case domain.Retryable(err):
		return http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
