package handler

import (
	"net/http"

	"gigconnect/internal/repository/mysql"
	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

// GigHandler serves gigs, their tags and reviews.
type GigHandler struct {
	gigs    *service.GigService
	reviews *service.ReviewService
}

func NewGigHandler(gigs *service.GigService, reviews *service.ReviewService) *GigHandler {
	return &GigHandler{gigs: gigs, reviews: reviews}
}

type tagReq struct {
	Name string `json:"name" binding:"required"`
}

// List filters by ?organizer=&open=&recommended=. Recommended needs a
// signed-in viewer.
func (h *GigHandler) List(c *gin.Context) {
	page, err := h.gigs.List(c.Request.Context(), service.GigQuery{
		ViewerID:    accountID(c),
		OrganizerID: queryUint(c, "organizer"),
		OpenOnly:    queryBool(c, "open", false),
		Recommended: queryBool(c, "recommended", false),
		Page:        queryInt(c, "page"),
		PageSize:    queryInt(c, "page_size"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *GigHandler) Create(c *gin.Context) {
	var in service.GigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badParams(c)
		return
	}
	g, err := h.gigs.Create(c.Request.Context(), accountID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GigHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	g, err := h.gigs.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GigHandler) Update(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.GigInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badParams(c)
		return
	}
	g, err := h.gigs.Update(c.Request.Context(), id, accountID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GigHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.gigs.Delete(c.Request.Context(), id, accountID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GigHandler) Tags(c *gin.Context) {
	tags, err := h.gigs.Tags(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": tags})
}

func (h *GigHandler) CreateTag(c *gin.Context) {
	var req tagReq
	if err := c.ShouldBindJSON(&req); err != nil {
		badParams(c)
		return
	}
	t, err := h.gigs.CreateTag(c.Request.Context(), req.Name, accountID(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// Reviews filters by ?reviewer=&reviewed_user=&gig=.
func (h *GigHandler) Reviews(c *gin.Context) {
	page, err := h.reviews.List(c.Request.Context(), mysql.ReviewFilter{
		ReviewerID: queryUint(c, "reviewer"),
		ReviewedID: queryUint(c, "reviewed_user"),
		GigID:      queryUint(c, "gig"),
	}, queryInt(c, "page"), queryInt(c, "page_size"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *GigHandler) CreateReview(c *gin.Context) {
	var in service.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badParams(c)
		return
	}
	rv, err := h.reviews.Create(c.Request.Context(), accountID(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, rv)
}

func (h *GigHandler) DeleteReview(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id, accountID(c)); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
