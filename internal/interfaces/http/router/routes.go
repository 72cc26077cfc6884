package router

import (
	"github.com/bizconsult/crm/internal/domain/identity"
	"github.com/bizconsult/crm/internal/interfaces/http/handler"
	"github.com/bizconsult/crm/internal/interfaces/http/middleware"
	"github.com/gin-gonic/gin"
)

// Handlers are the HTTP handlers served under the versioned API
type Handlers struct {
	Auth         *handler.AuthHandler
	Customer     *handler.CustomerHandler
	Funnel       *handler.FunnelHandler
	Document     *handler.DocumentHandler
	Proposal     *handler.ProposalHandler
	Feed         *handler.FeedHandler
	Settlement   *handler.SettlementHandler
	Notification *handler.NotificationHandler
	Todo         *handler.TodoHandler
	User         *handler.UserHandler
	System       *handler.SystemHandler
}

// APIOptions tune route-level middleware
type APIOptions struct {
	// LoginLimiter throttles POST /auth/login per client IP; nil disables it
	LoginLimiter *middleware.RateLimiter
	// MaxBodySize bounds JSON request bodies; zero disables the limit
	MaxBodySize int64
	// MaxUploadSize bounds multipart document uploads; zero disables the limit
	MaxUploadSize int64
}

// FeedPath is the SSE route; it accepts the token as a query parameter
func FeedPath(basePath string) string {
	return basePath + "/customers/:id/feed"
}

// RegisterAPI builds the domain groups of the CRM and registers them on r
func RegisterAPI(r *Router, h Handlers, opts APIOptions) {
	groups := []*DomainGroup{
		authRoutes(h, opts),
		customerRoutes(h),
		settlementRoutes(h),
		notificationRoutes(h),
		todoRoutes(h),
		userRoutes(h),
		systemRoutes(h),
	}
	for _, g := range groups {
		if opts.MaxBodySize > 0 {
			g.Use(middleware.BodyLimit(opts.MaxBodySize))
		}
		r.Register(g)
	}

	// uploads get their own group so the JSON body limit does not apply
	uploads := NewDomainGroup("documents", "/customers")
	if opts.MaxUploadSize > 0 {
		uploads.Use(middleware.BodyLimit(opts.MaxUploadSize))
	}
	uploads.POST("/:id/documents", h.Document.Upload)
	r.Register(uploads)
}

func authRoutes(h Handlers, opts APIOptions) *DomainGroup {
	g := NewDomainGroup("auth", "/auth")
	login := []gin.HandlerFunc{h.Auth.Login}
	if opts.LoginLimiter != nil {
		login = append([]gin.HandlerFunc{middleware.RateLimit(opts.LoginLimiter)}, login...)
	}
	g.POST("/login", login...)
	g.POST("/logout", h.Auth.Logout)
	g.GET("/me", h.Auth.GetCurrentUser)
	return g
}

func customerRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("customers", "/customers")
	g.POST("", h.Customer.Create)
	g.GET("", h.Customer.List)
	g.GET("/counts", h.Customer.CountByStatus)
	g.GET("/:id", h.Customer.GetByID)
	g.PUT("/:id", h.Customer.Update)
	g.DELETE("/:id", middleware.RequireSuperAdmin(), h.Customer.Delete)
	g.POST("/:id/memos", h.Customer.AddMemo)
	g.POST("/:id/counseling", h.Customer.AddCounseling)
	g.PUT("/:id/obligations", h.Customer.ReplaceObligations)
	g.GET("/:id/history", h.Customer.History)

	// funnel
	g.POST("/:id/status", h.Funnel.ChangeStatus)
	g.GET("/:id/transitions/:status", h.Funnel.PlanTransition)
	g.GET("/:id/draft", h.Funnel.PendingDrafts)
	g.PATCH("/:id/draft", h.Funnel.EditDraft)
	g.POST("/:id/draft/flush", h.Funnel.FlushDraft)
	g.DELETE("/:id/draft", h.Funnel.DiscardDraft)

	g.GET("/:id/documents", h.Document.List)
	g.GET("/:id/documents/:docId/url", h.Document.DownloadURL)
	g.DELETE("/:id/documents/:docId", h.Document.Delete)
	g.POST("/:id/documents/:docId/extract", h.Document.Extract)

	g.GET("/:id/proposal", h.Proposal.Get)
	g.POST("/:id/proposal/pdf", h.Proposal.PDF)

	g.GET("/:id/feed", h.Feed.Stream)
	return g
}

func settlementRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("settlements", "/settlements")
	g.GET("/summary", h.Settlement.Summary)
	g.GET("/items", h.Settlement.Items)
	g.GET("/export", h.Settlement.Export)
	g.POST("/sync/:customerId", h.Settlement.Sync)
	g.POST("/clawback/:customerId",
		middleware.RequireRole(identity.RoleSuperAdmin, identity.RoleTeamLeader),
		h.Settlement.Clawback)
	return g
}

func notificationRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("notifications", "/notifications")
	g.POST("/business-card", h.Notification.SendBusinessCard)
	g.POST("/long-absence", h.Notification.SendLongAbsence)
	return g
}

func todoRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("todos", "/todos")
	g.POST("", h.Todo.Create)
	g.GET("", h.Todo.List)
	g.GET("/:id", h.Todo.GetByID)
	g.PUT("/:id", h.Todo.Update)
	g.POST("/:id/complete", h.Todo.Complete)
	g.POST("/:id/reopen", h.Todo.Reopen)
	g.DELETE("/:id", h.Todo.Delete)
	return g
}

// userRoutes serves user and team administration. Team leaders may list
// the users of their own team; everything else is super-admin only.
func userRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("identity", "")
	g.GET("/users", middleware.RequireRole(identity.RoleSuperAdmin, identity.RoleTeamLeader), h.User.List)

	admin := g.Group("identity-admin", "").Use(middleware.RequireSuperAdmin())
	admin.POST("/users", h.User.Create)
	admin.GET("/users/:id", h.User.GetByID)
	admin.PUT("/users/:id", h.User.Update)
	admin.PUT("/users/:id/commission", h.User.UpdateCommissionPolicy)
	admin.POST("/users/:id/activate", h.User.Activate)
	admin.POST("/users/:id/deactivate", h.User.Deactivate)

	admin.POST("/teams", h.User.CreateTeam)
	admin.GET("/teams", h.User.ListTeams)
	admin.GET("/teams/:id", h.User.GetTeam)
	admin.PUT("/teams/:id", h.User.UpdateTeam)
	admin.DELETE("/teams/:id", h.User.DeleteTeam)
	return g
}

func systemRoutes(h Handlers) *DomainGroup {
	g := NewDomainGroup("system", "/system")
	g.GET("/info", h.System.GetSystemInfo)
	g.GET("/health", h.System.Health)
	return g
}
