package handler

import (
	"net/http"

	"gigconnect/internal/service"

	"github.com/gin-gonic/gin"
)

// RankingHandler serves suggestions, search and the feed.
type RankingHandler struct {
	suggestions *service.SuggestionService
	search      *service.SearchService
	feed        *service.FeedService
}

func NewRankingHandler(sg *service.SuggestionService, se *service.SearchService, f *service.FeedService) *RankingHandler {
	return &RankingHandler{suggestions: sg, search: se, feed: f}
}

func (h *RankingHandler) Suggestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	res, err := h.suggestions.Basic(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// AdvancedSuggestions writes the encoded body as stored in the cache.
func (h *RankingHandler) AdvancedSuggestions(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	body, err := h.suggestions.Advanced(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *RankingHandler) Search(c *gin.Context) {
	res, err := h.search.Search(c.Request.Context(), service.SearchQuery{
		Q:        c.Query("q"),
		SkillID:  queryUint(c, "skill"),
		City:     c.Query("city"),
		Country:  c.Query("country"),
		ViewerID: accountID(c),
		Page:     queryInt(c, "page"),
		PageSize: queryInt(c, "page_size"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Feed accepts since=24h|7d|30d, type=gig|review, sort=recent|trending and
// include_self.
func (h *RankingHandler) Feed(c *gin.Context) {
	res, err := h.feed.Feed(c.Request.Context(), service.FeedQuery{
		ViewerID:    accountID(c),
		Since:       c.Query("since"),
		Type:        c.Query("type"),
		Sort:        c.Query("sort"),
		IncludeSelf: queryBool(c, "include_self", true),
		Page:        queryInt(c, "page"),
		PageSize:    queryInt(c, "page_size"),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
