package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/domain/contact"
)

type ContactsStore interface {
	Insert(ctx context.Context, req contact.CreateSubmissionRequest) error
	List(ctx context.Context) ([]contact.Submission, error)
}

type ContactsHandler struct {
	repo    ContactsStore
	captcha CaptchaVerifier
}

func NewContactsHandler(repo ContactsStore, captcha CaptchaVerifier) *ContactsHandler {
	return &ContactsHandler{
		repo:    repo,
		captcha: captcha,
	}
}

// Submit handles the public contact form. The bot gate and validation both
// run before anything is written.
func (h *ContactsHandler) Submit(ctx *gin.Context) {
	var req contact.CreateSubmissionRequest

	if !BindJSON(ctx, &req) {
		return
	}

	err := h.captcha.Verify(ctx.Request.Context(), req.CaptchaToken, ctx.ClientIP())

	if err != nil {
		RespondBadRequest(ctx, "Captcha verification failed", nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err = h.repo.Insert(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not save contact information")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": "Contact information saved successfully",
	})
}

func (h *ContactsHandler) List(ctx *gin.Context) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	submissions, err := h.repo.List(cctx)

	if err != nil {
		RespondInternal(ctx, "Could not list contact submissions")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": submissions,
		"count": len(submissions),
	})
}
