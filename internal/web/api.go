package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist/internal/domain"
	"docassist/internal/service"
)

// ErrorResponse is the JSON body of every failed API call.
type ErrorResponse struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

type documentResponse struct {
	Name    string `json:"name"`
	Pages   int    `json:"pages"`
	Chunks  int    `json:"chunks"`
	Preview string `json:"preview,omitempty"`
}

type fileResultResponse struct {
	Filename string `json:"filename"`
	Status   string `json:"status"`
	Chunks   int    `json:"chunks,omitempty"`
	Error    string `json:"error,omitempty"`
}

type queryRequest struct {
	Query string `json:"query"`
}

func sendError(c *gin.Context, err error) {
	status, code := statusFor(err)
	c.JSON(status, ErrorResponse{
		Code:      code,
		Message:   service.UserMessage(err),
		Retryable: domain.Retryable(err),
	})
}

func (h *Handler) ListDocuments(c *gin.Context) {
	s := session(c)
	docs := s.Documents()
	out := make([]documentResponse, len(docs))
	for i, d := range docs {
		out[i] = documentResponse{Name: d.Name, Pages: d.Pages, Chunks: d.Chunks, Preview: d.Preview}
	}
	c.JSON(http.StatusOK, gin.H{"state": s.State().String(), "documents": out})
}

func (h *Handler) UploadDocuments(c *gin.Context) {
	uploads, err := h.readUploads(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	results := session(c).Upload(c.Request.Context(), uploads)
	out := make([]fileResultResponse, len(results))
	for i, r := range results {
		out[i] = fileResultResponse{Filename: r.Filename, Status: string(r.Status), Chunks: r.Chunks}
		if r.Err != nil {
			out[i].Error = service.UserMessage(r.Err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": service.Describe(results), "results": out})
}

func (h *Handler) Query(c *gin.Context) {
	var req queryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "BAD_REQUEST", Message: err.Error()})
		return
	}
	answer, err := session(c).Query(c.Request.Context(), req.Query)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}

func (h *Handler) Summary(c *gin.Context) {
	summary, err := session(c).Summary(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}
