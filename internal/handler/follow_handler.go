package handler

import (
	"net/http"
	"time"

	"gigconnect/internal/model"
	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

type FollowHandler struct {
	svc *service.FollowService
}

func NewFollowHandler(svc *service.FollowService) *FollowHandler {
	return &FollowHandler{svc: svc}
}

type requestView struct {
	ID        uint64    `json:"id"`
	FromUser  uint64    `json:"from_user"`
	ToUser    uint64    `json:"to_user"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

func newRequestView(r *model.FollowRequest) requestView {
	status := "pending"
	switch r.Status {
	case model.FollowRequestAccepted:
		status = "accepted"
	case model.FollowRequestRejected:
		status = "rejected"
	}
	return requestView{ID: r.ID, FromUser: r.FromID, ToUser: r.ToID, Status: status, CreatedAt: r.CreatedAt}
}

// SendRequest asks :id for permission to follow.
func (h *FollowHandler) SendRequest(c *gin.Context) {
	to, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.SendRequest(c.Request.Context(), accountID(c), to)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newRequestView(req))
}

func (h *FollowHandler) CancelRequest(c *gin.Context) {
	to, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.CancelRequest(c.Request.Context(), accountID(c), to); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "follow request canceled"})
}

// Accept and Reject take the request id, not an account id.
func (h *FollowHandler) Accept(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, err := h.svc.AcceptRequest(c.Request.Context(), id, accountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRequestView(req))
}

func (h *FollowHandler) Reject(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RejectRequest(c.Request.Context(), id, accountID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "follow request rejected"})
}

func (h *FollowHandler) Pending(c *gin.Context) {
	list, err := h.svc.PendingRequests(c.Request.Context(), accountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h *FollowHandler) Sent(c *gin.Context) {
	list, err := h.svc.SentRequests(c.Request.Context(), accountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": list})
}

func (h *FollowHandler) Unfollow(c *gin.Context) {
	target, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Unfollow(c.Request.Context(), accountID(c), target); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "unfollowed"})
}

func (h *FollowHandler) RemoveFollower(c *gin.Context) {
	follower, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.svc.RemoveFollower(c.Request.Context(), accountID(c), follower); err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"msg": "follower removed"})
}

// Followers pages with ?cursor=&limit=.
func (h *FollowHandler) Followers(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Followers(c.Request.Context(), id, queryUint(c, "cursor"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FollowHandler) Following(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	list, err := h.svc.Following(c.Request.Context(), id, queryUint(c, "cursor"), queryInt(c, "limit"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *FollowHandler) MutualFollowers(c *gin.Context) {
	a, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, ok := pathID(c, "other")
	if !ok {
		return
	}
	res, err := h.svc.MutualFollowers(c.Request.Context(), a, b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *FollowHandler) MutualFollowing(c *gin.Context) {
	a, ok := pathID(c, "id")
	if !ok {
		return
	}
	b, ok := pathID(c, "other")
	if !ok {
		return
	}
	res, err := h.svc.MutualFollowing(c.Request.Context(), a, b)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
