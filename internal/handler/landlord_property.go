package handler

import (
    "net/http"
    "strings"

    "github.com/labstack/echo/v4"

    "github.com/iliyamo/student-housing/internal/model"
    "github.com/iliyamo/student-housing/internal/repository"
)

// LandlordHandler bundles the repositories landlords need to manage
// their listings and occupants.
type LandlordHandler struct {
    Properties *repository.PropertyRepo
    Occupants  *repository.OccupantRepo
}

// NewLandlordHandler constructs a LandlordHandler and panics if any
// dependency is nil.
func NewLandlordHandler(properties *repository.PropertyRepo, occupants *repository.OccupantRepo) *LandlordHandler {
    if properties == nil || occupants == nil {
        panic("nil repository passed to NewLandlordHandler")
    }
    return &LandlordHandler{Properties: properties, Occupants: occupants}
}

type propertyReq struct {
    Title             string  `json:"title"`
    Location          string  `json:"location"`
    Description       *string `json:"description"`
    PricePerRoomCents uint32  `json:"price_per_room_cents"`
    Bedrooms          uint32  `json:"bedrooms"`
    RoomSharing       bool    `json:"room_sharing"`
    TenantsPerRoom    uint32  `json:"tenants_per_room"`
    Gender            string  `json:"gender"`
    Religion          string  `json:"religion"`
}

func (req *propertyReq) normalize() error {
    req.Title = strings.TrimSpace(req.Title)
    req.Location = strings.TrimSpace(req.Location)
    if req.Title == "" || req.Location == "" {
        return echo.NewHTTPError(http.StatusBadRequest, "title and location required")
    }
    if req.Bedrooms < 1 {
        return echo.NewHTTPError(http.StatusBadRequest, "bedrooms must be at least 1")
    }
    if req.RoomSharing && req.TenantsPerRoom < 1 {
        return echo.NewHTTPError(http.StatusBadRequest, "tenants_per_room must be at least 1 for shared rooms")
    }
    req.Gender = strings.ToUpper(strings.TrimSpace(req.Gender))
    if req.Gender != model.GenderMale && req.Gender != model.GenderFemale {
        req.Gender = model.GenderAny
    }
    req.Religion = strings.ToUpper(strings.TrimSpace(req.Religion))
    if req.Religion == "" {
        req.Religion = model.ReligionAny
    }
    return nil
}

// CreateProperty handles POST /v1/properties.
func (h *LandlordHandler) CreateProperty(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    var req propertyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := req.normalize(); err != nil {
        return err
    }
    p := &model.Property{
        LandlordID:        uid,
        Title:             req.Title,
        Location:          req.Location,
        Description:       req.Description,
        PricePerRoomCents: req.PricePerRoomCents,
        Bedrooms:          req.Bedrooms,
        RoomSharing:       req.RoomSharing,
        TenantsPerRoom:    req.TenantsPerRoom,
        Gender:            req.Gender,
        Religion:          req.Religion,
    }
    if err := h.Properties.Create(c.Request().Context(), p); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create property failed"})
    }
    return c.JSON(http.StatusCreated, p)
}

// ListProperties handles GET /v1/properties (landlord's own listings).
func (h *LandlordHandler) ListProperties(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    props, err := h.Properties.ListByLandlord(c.Request().Context(), uid)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list properties failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{"properties": props})
}

// UpdateProperty handles PUT /v1/properties/:id.  Only descriptive
// fields can be changed; the occupancy counter and status belong to
// the allocation flow.
func (h *LandlordHandler) UpdateProperty(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    var req propertyReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    if err := req.normalize(); err != nil {
        return err
    }
    p := &model.Property{
        ID:                id,
        Title:             req.Title,
        Location:          req.Location,
        Description:       req.Description,
        PricePerRoomCents: req.PricePerRoomCents,
        Bedrooms:          req.Bedrooms,
        RoomSharing:       req.RoomSharing,
        TenantsPerRoom:    req.TenantsPerRoom,
        Gender:            req.Gender,
        Religion:          req.Religion,
    }
    switch err := h.Properties.Update(c.Request().Context(), p, uid); err {
    case nil:
    case repository.ErrPropertyNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your property"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update property failed"})
    }
    updated, err := h.Properties.GetByID(c.Request().Context(), id)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "load property failed"})
    }
    return c.JSON(http.StatusOK, updated)
}

// SetMaintenance handles POST /v1/properties/:id/maintenance with a
// body of {"enabled": bool}, toggling the listing in and out of the
// MAINTENANCE state.
func (h *LandlordHandler) SetMaintenance(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    var req struct {
        Enabled bool `json:"enabled"`
    }
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    status := model.PropertyAvailable
    if req.Enabled {
        status = model.PropertyMaintenance
    }
    switch err := h.Properties.SetStatus(c.Request().Context(), id, uid, status); err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"id": id, "status": status})
    case repository.ErrPropertyNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update status failed"})
    }
}

// DeleteProperty handles DELETE /v1/properties/:id.  Listings with
// active occupants cannot be removed.
func (h *LandlordHandler) DeleteProperty(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    switch err := h.Properties.Delete(c.Request().Context(), id, uid); err {
    case nil:
        return c.NoContent(http.StatusNoContent)
    case repository.ErrPropertyNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your property"})
    case repository.ErrConflict:
        return c.JSON(http.StatusConflict, echo.Map{"error": "property has active occupants"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete property failed"})
    }
}

// ListOccupants handles GET /v1/properties/:id/occupants, returning
// current and historical occupancy records with student identity.
func (h *LandlordHandler) ListOccupants(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
    }
    id, ok := pathID(c, "id")
    if !ok {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid property id"})
    }
    details, err := h.Occupants.ListDetailsByProperty(c.Request().Context(), id, uid)
    switch err {
    case nil:
        return c.JSON(http.StatusOK, echo.Map{"occupants": details})
    case repository.ErrPropertyNotFound:
        return c.JSON(http.StatusNotFound, echo.Map{"error": "property not found"})
    case repository.ErrForbidden:
        return c.JSON(http.StatusForbidden, echo.Map{"error": "not your property"})
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "list occupants failed"})
    }
}
