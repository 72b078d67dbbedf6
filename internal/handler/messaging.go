package handler

import (
    "database/sql"
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/repository"
)

// MessagingHandler serves conversation and message endpoints shared by
// students and landlords.
type MessagingHandler struct {
    Conversations *repository.ConversationRepo
}

func NewMessagingHandler(conversations *repository.ConversationRepo) *MessagingHandler {
    if conversations == nil {
        panic("nil repository passed to NewMessagingHandler")
    }
    return &MessagingHandler{Conversations: conversations}
}

// StartConversation handles POST /v1/conversations with a body of
// {"property_id": n}.  Students open conversations; landlords reply in
// existing threads.
func (h *MessagingHandler) StartConversation(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req struct {
        PropertyID uint64 `json:"property_id"`
    }
    if err := c.Bind(&req); err != nil || req.PropertyID == 0 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "property_id required"})
    }
    conv, err := h.Conversations.GetOrCreate(c.Request().Context(), req.PropertyID, uid)
    if err == repository.ErrPropertyNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "open conversation failed"})
    }
    return c.JSON(http.StatusOK, conv)
}

// ListConversations handles GET /v1/conversations, returning the
// caller's inbox.
func (h *MessagingHandler) ListConversations(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    convs, err := h.Conversations.ListForUser(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list conversations failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"conversations": convs})
}

// ListMessages handles GET /v1/conversations/:id/messages.
func (h *MessagingHandler) ListMessages(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
    }
    msgs, err := h.Conversations.Messages(c.Request().Context(), id, uid)
    switch err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"messages": msgs})
    case sql.ErrNoRows:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list messages failed"})
    }
}

// SendMessage handles POST /v1/conversations/:id/messages.
func (h *MessagingHandler) SendMessage(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid conversation id"})
    }
    var req struct {
        Body string `json:"body"`
    }
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.Body) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "body required"})
    }
    msg, err := h.Conversations.AddMessage(c.Request().Context(), id, uid, strings.TrimSpace(req.Body))
    switch err {
    case nil:
        return c.JSON(http.StatusCreated, msg)
    case sql.ErrNoRows:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "conversation not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "send message failed"})
    }
}
