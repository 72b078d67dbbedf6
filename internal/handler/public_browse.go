package handler

import (
    "net/http"
    "strconv"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints.  These
// routes sit behind the Redis response cache.
type PublicHandler struct {
    Properties *repository.PropertyRepo
    Occupants  *repository.OccupantRepo
    Reviews    *repository.ReviewRepo
}

func NewPublicHandler(properties *repository.PropertyRepo, occupants *repository.OccupantRepo, reviews *repository.ReviewRepo) *PublicHandler {
    if properties == nil || occupants == nil || reviews == nil {
        panic("nil repository passed to NewPublicHandler")
    }
    return &PublicHandler{Properties: properties, Occupants: occupants, Reviews: reviews}
}

// SearchProperties handles GET /v1/browse/properties.  Supported query
// parameters: location (substring), max_price_cents, gender, religion,
// sharing (true/false).  Only AVAILABLE listings are returned.
func (h *PublicHandler) SearchProperties(c echo.Context) error {
    f := repository.PropertyFilter{
        Location: c.QueryParam("location"),
        Gender:   strings.ToUpper(strings.TrimSpace(c.QueryParam("gender"))),
        Religion: strings.ToUpper(strings.TrimSpace(c.QueryParam("religion"))),
    }
    if v := c.QueryParam("max_price_cents"); v != "" {
        n, err := strconv.ParseUint(v, 10, 32)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid max_price_cents"})
        }
        f.MaxPriceCents = uint32(n)
    }
    if v := c.QueryParam("sharing"); v != "" {
        b, err := strconv.ParseBool(v)
        if err != nil {
            return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid sharing flag"})
        }
        f.Sharing = &b
    }

    props, err := h.Properties.Search(c.Request().Context(), f)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "search failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"properties": props})
}

// GetProperty handles GET /v1/browse/properties/:id, returning the
// listing together with its occupancy summary and reviews.
func (h *PublicHandler) GetProperty(c echo.Context) error {
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    ctx := c.Request().Context()
    p, err := h.Properties.GetByID(ctx, id)
    if err == repository.ErrPropertyNotFound {
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load property failed"})
    }
    active, err := h.Occupants.ActiveByProperty(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load occupancy failed"})
    }
    reviews, err := h.Reviews.ListByProperty(ctx, id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load reviews failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "property": p,
        "summary":  p.Summarize(active),
        "reviews":  reviews,
    })
}
