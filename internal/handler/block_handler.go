package handler

import (
	"net/http"

	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

type BlockHandler struct {
	svc *service.BlockService
}

func NewBlockHandler(svc *service.BlockService) *BlockHandler {
	return &BlockHandler{svc: svc}
}

func (h *BlockHandler) Block(c *gin.Context) {
	target, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Block(c.Request.Context(), accountID(c), target); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user blocked"})
}

// Unblock answers 200 even when there was nothing to remove.
func (h *BlockHandler) Unblock(c *gin.Context) {
	target, ok := pathID(c, "id")
	if !ok {
		return
	}
	removed, err := h.svc.Unblock(c.Request.Context(), accountID(c), target)
	if err != nil {
		writeError(c, err)
		return
	}
	if !removed {
		c.JSON(http.StatusOK, gin.H{"msg": "user was not blocked"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "user unblocked"})
}

func (h *BlockHandler) List(c *gin.Context) {
	page, err := h.svc.ListBlocked(c.Request.Context(), accountID(c), queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}
