package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/student-housing/internal/handler"    // landlord handlers
	"github.com/iliyamo/student-housing/internal/middleware" // JWT + role middlewares
)

// RegisterLandlord registers LANDLORD-scoped endpoints under /v1.
// All routes require a valid JWT and LANDLORD role.
func RegisterLandlord(e *echo.Echo, l *handler.LandlordHandler, a *handler.AllocationHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("LANDLORD"),
	)

	// ---- Properties ----
	g.POST("/properties", l.CreateProperty)
	g.GET("/properties", l.ListProperties)
	g.PUT("/properties/:id", l.UpdateProperty)
	g.PATCH("/properties/:id", l.UpdateProperty) // allow partial/semantic updates via PATCH as well
	g.POST("/properties/:id/maintenance", l.SetMaintenance)
	g.DELETE("/properties/:id", l.DeleteProperty)

	// ---- Occupants ----
	g.GET("/properties/:id/occupants", l.ListOccupants)

	// ---- Allocations ----
	g.POST("/properties/:id/allocations", a.Allocate)
	g.DELETE("/properties/:id/allocations/:userID", a.Unallocate)
}
