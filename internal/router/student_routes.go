package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-housing/internal/handler"
	"github.com/iliyamo/student-housing/internal/middleware"
)

// RegisterStudent registers endpoints available to authenticated
// students: conversations, reviews and notifications.  Messaging and
// notifications are shared with landlords, so those routes accept both
// roles; reviews are student-only.
func RegisterStudent(e *echo.Echo, m *handler.MessagingHandler, r *handler.ReviewHandler, n *handler.NotificationHandler, jwtSecret string) {
	shared := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT", "LANDLORD"),
	)

	// ---- Conversations ----
	shared.GET("/conversations", m.ListConversations)
	shared.GET("/conversations/:id/messages", m.ListMessages)
	shared.POST("/conversations/:id/messages", m.SendMessage)

	// ---- Notifications ----
	shared.GET("/notifications", n.List)
	shared.POST("/notifications/:id/read", n.MarkRead)

	students := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("STUDENT"),
	)

	// Students open conversations about a listing.
	students.POST("/conversations", m.StartConversation)
	// ---- Reviews ----
	students.POST("/properties/:id/reviews", r.CreateReview)
}
