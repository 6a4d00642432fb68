package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"docassist/internal/service"
)

type pageView struct {
	Documents []service.DocumentInfo
	Message   string
	Summary   string
	Question  string
	Answer    string
	Error     string
}

func (h *Handler) render(c *gin.Context, status int, v pageView) {
	v.Documents = session(c).Documents()
	c.HTML(status, "index.html", v)
}

func (h *Handler) Index(c *gin.Context) {
	h.render(c, http.StatusOK, pageView{})
}

func (h *Handler) UploadForm(c *gin.Context) {
	uploads, err := h.readUploads(c)
	if err != nil {
		h.render(c, http.StatusBadRequest, pageView{Error: "Upload failed: " + err.Error()})
		return
	}
	results := session(c).Upload(c.Request.Context(), uploads)
	h.render(c, http.StatusOK, pageView{Message: service.Describe(results)})
}

func (h *Handler) SummaryForm(c *gin.Context) {
	summary, err := session(c).Summary(c.Request.Context())
	if err != nil {
		status, _ := statusFor(err)
		h.render(c, status, pageView{Error: service.UserMessage(err)})
		return
	}
	h.render(c, http.StatusOK, pageView{Summary: summary})
}

func (h *Handler) QueryForm(c *gin.Context) {
	question := c.PostForm("query")
	answer, err := session(c).Query(c.Request.Context(), question)
	if err != nil {
		status, _ := statusFor(err)
		h.render(c, status, pageView{Question: question, Error: service.UserMessage(err)})
		return
	}
	h.render(c, http.StatusOK, pageView{Question: question, Answer: answer})
}
