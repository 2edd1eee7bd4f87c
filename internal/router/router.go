package router

import (
	"net/http"

	"gigconnect/internal/handler"
	"gigconnect/internal/metrics"
	"gigconnect/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Handlers struct {
	User         *handler.UserHandler
	Follow       *handler.FollowHandler
	Block        *handler.BlockHandler
	Notification *handler.NotificationHandler
	Ranking      *handler.RankingHandler
	Gig          *handler.GigHandler
}

type Options struct {
	Log           *zap.Logger
	Auth          middleware.Authenticator
	Metrics       *metrics.Metrics
	Gatherer      prometheus.Gatherer
	SearchLimiter *middleware.IPRateLimiter
}

// New builds the engine. Routes marked with auth require a bearer token;
// optional ones read it when present.
func New(h Handlers, o Options) *gin.Engine {
	r := gin.New()
	r.Use(middleware.Recovery(o.Log), middleware.RequestLogger(o.Log), middleware.Metrics(o.Metrics))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if o.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(o.Gatherer, promhttp.HandlerOpts{})))
	}

	auth := middleware.Auth(o.Auth)
	optional := middleware.OptionalAuth(o.Auth)
	api := r.Group("/api")

	// accounts
	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", h.User.Register)
		authGroup.POST("/login", h.User.Login)
		authGroup.POST("/refresh", h.User.Refresh)
		authGroup.POST("/logout", auth, h.User.Logout)
		authGroup.POST("/change-password", auth, h.User.ChangePassword)
	}

	profile := api.Group("/profile", auth)
	{
		profile.GET("", h.User.Profile)
		profile.PUT("", h.User.UpdateProfile)
		profile.DELETE("", h.User.DeleteProfile)
	}

	// users and the follow graph
	users := api.Group("/users")
	{
		users.GET("", auth, h.User.List)
		users.GET("/:id", h.User.Get)
		users.GET("/:id/public", optional, h.User.PublicProfile)
		users.GET("/:id/followers", h.Follow.Followers)
		users.GET("/:id/following", h.Follow.Following)
		users.GET("/:id/mutual-followers/:other", h.Follow.MutualFollowers)
		users.GET("/:id/mutual-following/:other", h.Follow.MutualFollowing)
		users.POST("/:id/unfollow", auth, h.Follow.Unfollow)
		users.POST("/:id/remove-follower", auth, h.Follow.RemoveFollower)
		users.POST("/:id/follow-request", auth, h.Follow.SendRequest)
		users.POST("/:id/cancel-follow-request", auth, h.Follow.CancelRequest)
		users.POST("/:id/block", auth, h.Block.Block)
		users.POST("/:id/unblock", auth, h.Block.Unblock)
		users.GET("/:id/suggestions", h.Ranking.Suggestions)
		users.GET("/:id/advanced-suggestions", h.Ranking.AdvancedSuggestions)
	}

	requests := api.Group("/follow-requests", auth)
	{
		requests.GET("/pending", h.Follow.Pending)
		requests.GET("/sent", h.Follow.Sent)
		requests.POST("/:id/accept", h.Follow.Accept)
		requests.POST("/:id/reject", h.Follow.Reject)
	}

	api.GET("/blocked", auth, h.Block.List)

	searchChain := []gin.HandlerFunc{optional}
	if o.SearchLimiter != nil {
		searchChain = append(searchChain, middleware.RateLimit(o.SearchLimiter))
	}
	api.GET("/search", append(searchChain, h.Ranking.Search)...)
	api.GET("/feed", auth, h.Ranking.Feed)

	notes := api.Group("/notifications", auth)
	{
		notes.GET("", h.Notification.List)
		notes.GET("/unread-count", h.Notification.UnreadCount)
		notes.PATCH("/read-all", h.Notification.MarkAllRead)
		notes.PATCH("/:id/read", h.Notification.MarkRead)
	}

	// gigs, tags and reviews
	gigs := api.Group("/gigs")
	{
		gigs.GET("", optional, h.Gig.List)
		gigs.POST("", auth, h.Gig.Create)
		gigs.GET("/:id", h.Gig.Get)
		gigs.PUT("/:id", auth, h.Gig.Update)
		gigs.DELETE("/:id", auth, h.Gig.Delete)
	}
	api.GET("/tags", h.Gig.Tags)
	api.POST("/tags", auth, h.Gig.CreateTag)
	api.GET("/reviews", h.Gig.Reviews)
	api.POST("/reviews", auth, h.Gig.CreateReview)
	api.DELETE("/reviews/:id", auth, h.Gig.DeleteReview)

	return r
}
