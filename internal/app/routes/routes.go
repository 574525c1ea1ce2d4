package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/parivartan/hub/internal/app/controllers"
	"github.com/parivartan/hub/internal/app/session"
	"github.com/parivartan/hub/internal/middleware"
)

// Controllers are the handlers mounted by SetupRouter.
type Controllers struct {
	Auth          *controllers.AuthController
	Sync          *controllers.SyncController
	Posts         *controllers.PostController
	Announcements *controllers.AnnouncementController
	Events        *controllers.EventController
	Campaigns     *controllers.CampaignController
	Chat          *controllers.ChatController
	Tasks         *controllers.TaskController
	Homepage      *controllers.HomepageController
	Members       *controllers.MemberController
	AI            *controllers.AIController
}

// SetupRouter configures all application routes
func SetupRouter(router *gin.Engine, c Controllers, authMiddleware *middleware.AuthMiddleware) {
	// API version group
	v1 := router.Group("/api/v1")

	v1.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/signup", c.Auth.SignUp)
		auth.POST("/login", c.Auth.Login)
		auth.POST("/guest", c.Auth.GuestLogin)
		auth.GET("/confirm", c.Auth.ConfirmEmail)
		auth.POST("/confirm", c.Auth.ConfirmEmail)
		auth.POST("/forgot-password", c.Auth.ForgotPassword)
		auth.POST("/reset-password", c.Auth.ResetPassword)
	}

	// --- Signed in, any gate state ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.POST("/auth/logout", c.Auth.Logout)
		authenticated.GET("/me", c.Auth.Me)
	}

	// Incomplete profiles may only finish the profile.
	profile := authenticated.Group("")
	profile.Use(authMiddleware.RequireState(session.ProfileIncomplete, session.Authenticated))
	{
		profile.PATCH("/me/profile", c.Auth.UpdateMyProfile)
	}

	// --- Domain routes: authenticated gate state and a loaded session ---
	app := authenticated.Group("")
	app.Use(authMiddleware.RequireState(session.Authenticated), authMiddleware.Session(), middleware.Serialize())

	app.GET("/sync/snapshot", c.Sync.Snapshot)
	app.POST("/sync/reload", c.Sync.Reload)
	app.GET("/badges", c.Sync.BadgeCatalog)

	notifications := app.Group("/notifications")
	{
		notifications.GET("", c.Sync.Notifications)
		notifications.POST("/read-all", c.Sync.MarkAllNotificationsRead)
		notifications.POST("/:id/read", c.Sync.MarkNotificationRead)
	}

	posts := app.Group("/posts")
	{
		posts.GET("", c.Posts.Feed)
		posts.POST("", c.Posts.CreatePost)
		posts.DELETE("/:id", c.Posts.DeletePost)
		posts.POST("/:id/comments", c.Posts.AddComment)
		posts.DELETE("/:id/comments/:commentId", c.Posts.DeleteComment)
		posts.POST("/:id/reactions", c.Posts.React)
	}

	announcements := app.Group("/announcements")
	{
		announcements.GET("", c.Announcements.ListAnnouncements)
		announcements.POST("", c.Announcements.CreateAnnouncement)
		announcements.PUT("/:id", c.Announcements.UpdateAnnouncement)
		announcements.DELETE("/:id", c.Announcements.DeleteAnnouncement)
	}

	achievements := app.Group("/achievements")
	{
		achievements.GET("", c.Announcements.ListAchievements)
		achievements.POST("", c.Announcements.CreateAchievement)
		achievements.PUT("/:id", c.Announcements.UpdateAchievement)
		achievements.DELETE("/:id", c.Announcements.DeleteAchievement)
	}

	events := app.Group("/events")
	{
		events.GET("", c.Events.ListEvents)
		events.POST("", c.Events.CreateEvent)
		events.DELETE("/:id", c.Events.DeleteEvent)
		events.POST("/:id/attendance", c.Events.MarkAttendance)
	}

	campaigns := app.Group("/campaigns")
	{
		campaigns.GET("", c.Campaigns.ListCampaigns)
		campaigns.POST("", c.Campaigns.CreateCampaign)
		campaigns.POST("/:id/donations", c.Campaigns.Donate)
	}

	chat := app.Group("/chat")
	{
		chat.GET("", c.Chat.Messages)
		chat.POST("", c.Chat.Send)
		chat.POST("/read", c.Chat.MarkRead)
	}
	app.GET("/ws", c.Chat.Connect)

	tasks := app.Group("/tasks")
	{
		tasks.GET("", c.Tasks.Board)
		tasks.POST("", c.Tasks.CreateTask)
		tasks.PUT("/:id", c.Tasks.UpdateTask)
		tasks.PATCH("/:id/status", c.Tasks.MoveTask)
		tasks.DELETE("/:id", c.Tasks.DeleteTask)
	}

	homepage := app.Group("/homepage")
	{
		homepage.GET("", c.Homepage.Homepage)
		homepage.POST("/slides", c.Homepage.AddSlide)
		homepage.DELETE("/slides/:id", c.Homepage.DeleteSlide)
		homepage.PUT("/popup", c.Homepage.SetPopup)
		homepage.DELETE("/popup", c.Homepage.DeletePopup)
	}

	members := app.Group("/members")
	{
		members.GET("", c.Members.ListMembers)
		members.POST("", c.Members.AddMember)
		members.GET("/:id/badges", c.Members.Badges)
		members.PATCH("/:id/profile", c.Members.UpdateProfile)
		members.PUT("/:id/role", c.Members.ChangeRole)
		members.DELETE("/:id", c.Members.RemoveMember)
	}

	ai := app.Group("/ai")
	{
		ai.POST("/text", c.AI.GenerateText)
		ai.POST("/image", c.AI.GenerateImage)
		ai.POST("/moderate", c.AI.Moderate)
		ai.POST("/assistant", c.AI.Assistant)
	}
}
