package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/model"
    "github.com/iliyamo/student-housing/internal/repository"
)

// ReviewHandler lets students rate properties they live or lived in.
type ReviewHandler struct {
    Properties *repository.PropertyRepo
    Occupants  *repository.OccupantRepo
    Reviews    *repository.ReviewRepo
}

func NewReviewHandler(properties *repository.PropertyRepo, occupants *repository.OccupantRepo, reviews *repository.ReviewRepo) *ReviewHandler {
    if properties == nil || occupants == nil || reviews == nil {
        panic("nil repository passed to NewReviewHandler")
    }
    return &ReviewHandler{Properties: properties, Occupants: occupants, Reviews: reviews}
}

// CreateReview handles POST /v1/properties/:id/reviews.  Only current
// or former occupants may post, and only once per property.
func (h *ReviewHandler) CreateReview(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    propertyID, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    var req struct {
        Rating  uint8  `json:"rating"`
        Comment string `json:"comment"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if req.Rating < 1 || req.Rating > 5 {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "rating must be between 1 and 5"})
    }

    ctx := c.Request().Context()
    if _, err := h.Properties.GetByID(ctx, propertyID); err != nil {
        if err == repository.ErrPropertyNotFound {
            return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load property failed"})
    }
    lived, err := h.Occupants.HasEverOccupied(ctx, propertyID, uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "occupancy check failed"})
    }
    if !lived {
        return c.JSON(http.StatusForbidden, echo.Map{"error": "only occupants may review this property"})
    }

    rv := &model.Review{PropertyID: propertyID, StudentID: uid, Rating: req.Rating}
    if body := strings.TrimSpace(req.Comment); body != "" {
        rv.Comment = &body
    }
    if err := h.Reviews.Create(ctx, rv); err != nil {
        if err == repository.ErrConflict {
            return c.JSON(http.StatusConflict, echo.Map{"error": "you already reviewed this property"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create review failed"})
    }
    return c.JSON(http.StatusCreated, rv)
}
