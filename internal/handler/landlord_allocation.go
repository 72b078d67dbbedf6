package handler

import (
    "errors"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/allocation"
)

// AllocationHandler exposes the room allocation engine over HTTP.
type AllocationHandler struct {
    Engine *allocation.Engine
}

// NewAllocationHandler constructs an AllocationHandler and panics when
// the engine is nil.
func NewAllocationHandler(engine *allocation.Engine) *AllocationHandler {
    if engine == nil {
        panic("nil engine passed to NewAllocationHandler")
    }
    return &AllocationHandler{Engine: engine}
}

type allocateReq struct {
    UserID     uint64 `json:"user_id"`
    RoomNumber uint32 `json:"room_number"`
}

// Allocate handles POST /v1/properties/:id/allocations.
func (h *AllocationHandler) Allocate(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    propertyID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    var req allocateReq
    if err := c.Bind(&req); err != nil || req.UserID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "user_id and room_number required"})
    }

    res, err := h.Engine.Allocate(c.Request().Context(), propertyID, req.UserID, req.RoomNumber, uid)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusCreated, echo.Map{
        "occupant": res.Occupant,
        "student": echo.Map{
            "id":    res.Student.ID,
            "name":  res.Student.Name,
            "email": res.Student.Email,
        },
        "property": res.Property,
        "summary":  res.Summary,
    })
}

// Unallocate handles DELETE /v1/properties/:id/allocations/:userID.
func (h *AllocationHandler) Unallocate(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    propertyID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    studentID, ok := pathID(c, "userID")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid user id"})
    }

    res, err := h.Engine.Unallocate(c.Request().Context(), propertyID, studentID, uid)
    if err != nil {
        return writeEngineError(c, err)
    }
    return c.JSON(http.StatusOK, echo.Map{
        "occupant": res.Occupant,
        "property": res.Property,
    })
}

// writeEngineError translates the engine's error taxonomy into HTTP
// responses, exposing the rule token so clients can react to specific
// failures.
func writeEngineError(c echo.Context, err error) error {
    var ae *allocation.Error
    if !errors.As(err, &ae) {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "allocation failed"})
    }
    status := http.StatusInternalServerError
    switch ae.Kind {
    case allocation.KindNotFound:
        status = http.StatusNotFound
    case allocation.KindUnauthorized:
        status = http.StatusForbidden
    case allocation.KindInvalidArgument:
        status = http.StatusBadRequest
    case allocation.KindInvalidState:
        status = http.StatusUnprocessableEntity
    case allocation.KindConflict:
        status = http.StatusConflict
    }
    return c.JSON(status, echo.Map{"error": ae.Message, "rule": ae.Rule})
}
