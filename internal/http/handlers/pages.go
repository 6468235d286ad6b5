package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pagedesk/blogapi/internal/config"
	"github.com/pagedesk/blogapi/internal/domain/page"
	"github.com/pagedesk/blogapi/internal/sanitize"
)

type PagesStore interface {
	List(ctx context.Context, activeOnly bool) ([]page.Summary, error)
	GetByID(ctx context.Context, id int, activeOnly bool) (page.Page, error)
	Create(ctx context.Context, req page.CreatePageRequest) (int, error)
	Update(ctx context.Context, id int, req page.UpdatePageRequest) error
	Delete(ctx context.Context, id int) error
}

type PagesHandler struct {
	repo PagesStore
}

func NewPagesHandler(repo PagesStore) *PagesHandler {
	return &PagesHandler{repo: repo}
}

// ListPublic serves the public listing: active pages only.
func (h *PagesHandler) ListPublic(ctx *gin.Context) {
	h.list(ctx, true)
}

// ListAll serves the control panel: every page regardless of state.
func (h *PagesHandler) ListAll(ctx *gin.Context) {
	h.list(ctx, false)
}

func (h *PagesHandler) list(ctx *gin.Context, activeOnly bool) {
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	pages, err := h.repo.List(cctx, activeOnly)

	if err != nil {
		RespondInternal(ctx, "Could not list pages")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": pages,
		"count": len(pages),
	})
}

// GetPublic returns an active page by ID; an inactive page looks like a 404
// to public callers.
func (h *PagesHandler) GetPublic(ctx *gin.Context) {
	h.get(ctx, true)
}

// GetAny returns a page in any state for authenticated callers.
func (h *PagesHandler) GetAny(ctx *gin.Context) {
	h.get(ctx, false)
}

func (h *PagesHandler) get(ctx *gin.Context, activeOnly bool) {
	id, ok := PathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	p, err := h.repo.GetByID(cctx, id, activeOnly)

	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not fetch page")
		return
	}

	ctx.JSON(http.StatusOK, p)
}

func (h *PagesHandler) CreatePage(ctx *gin.Context) {
	var req page.CreatePageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	// content is stored as plain text; markup never survives the write
	req.Content = sanitize.Text(req.Content)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	id, err := h.repo.Create(cctx, req)

	if err != nil {
		RespondInternal(ctx, "Could not create page")
		return
	}

	ctx.JSON(http.StatusCreated, gin.H{
		"success": true,
		"pageId":  id,
	})
}

func (h *PagesHandler) UpdatePage(ctx *gin.Context) {
	id, ok := PathID(ctx, "id")
	if !ok {
		return
	}

	var req page.UpdatePageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	req.Content = sanitize.Text(req.Content)

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Update(cctx, id, req)

	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not update page")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}

func (h *PagesHandler) DeletePage(ctx *gin.Context) {
	id, ok := PathID(ctx, "id")
	if !ok {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	err := h.repo.Delete(cctx, id)

	if err != nil {
		if errors.Is(err, page.ErrNotFound) {
			RespondNotFound(ctx, "Page not found")
			return
		}
		RespondInternal(ctx, "Could not delete page")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"success": true,
	})
}
