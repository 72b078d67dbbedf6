package handler

import (
    "database/sql"
    "net/http"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/repository"
)

// NotificationHandler serves the per-user notification inbox fed by
// the queue consumer.
type NotificationHandler struct {
    Notifications *repository.NotificationRepo
}

func NewNotificationHandler(notifications *repository.NotificationRepo) *NotificationHandler {
    if notifications == nil {
        panic("nil repository passed to NewNotificationHandler")
    }
    return &NotificationHandler{Notifications: notifications}
}

// List handles GET /v1/notifications.
func (h *NotificationHandler) List(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    items, err := h.Notifications.ListForUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list notifications failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"notifications": items})
}

// MarkRead handles POST /v1/notifications/:id/read.
func (h *NotificationHandler) MarkRead(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid notification id"})
    }
    switch err := h.Notifications.MarkRead(c.Request().Context(), id, uid); err {
    case nil:
        return c.NoContent(http.StatusNoContent)
    case sql.ErrNoRows:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "notification not found"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "mark read failed"})
    }
}
