package handler_test

import (
    "context"
    "encoding/json"
    "fmt"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/student-housing/internal/allocation"
    "github.com/iliyamo/student-housing/internal/handler"
    "github.com/iliyamo/student-housing/internal/model"
)

// memStore keeps properties and occupancy records in memory and
// implements both allocation.Store and allocation.TxStore; the handler
// tests only need single-request behavior, not real isolation.
type memStore struct {
    props  map[uint64]*model.Property
    occs   []model.Occupant
    nextID uint64
}

func (s *memStore) FindProperty(_ context.Context, id uint64) (*model.Property, error) {
    p, ok := s.props[id]
    if !ok {
        return nil, fmt.Errorf("property %d: %w", id, allocation.ErrRecordNotFound)
    }
    cp := *p
    return &cp, nil
}

func (s *memStore) ActiveOccupants(_ context.Context, propertyID uint64) ([]model.Occupant, error) {
    var out []model.Occupant
    for _, o := range s.occs {
        if o.PropertyID == propertyID && o.Status == model.OccupantActive {
            out = append(out, o)
        }
    }
    return out, nil
}

func (s *memStore) InTransaction(_ context.Context, fn func(tx allocation.TxStore) error) error {
    return fn(s)
}

func (s *memStore) LockProperty(ctx context.Context, id uint64) (*model.Property, error) {
    return s.FindProperty(ctx, id)
}

func (s *memStore) InsertOccupant(_ context.Context, o *model.Occupant) error {
    s.nextID++
    o.ID = s.nextID
    s.occs = append(s.occs, *o)
    return nil
}

func (s *memStore) ReleaseOccupant(_ context.Context, occupantID uint64, endDate time.Time) error {
    for i := range s.occs {
        if s.occs[i].ID == occupantID && s.occs[i].Status == model.OccupantActive {
            s.occs[i].Status = model.OccupantInactive
            end := endDate
            s.occs[i].EndDate = &end
            return nil
        }
    }
    return fmt.Errorf("occupant %d: %w", occupantID, allocation.ErrRecordNotFound)
}

func (s *memStore) UpdatePropertyOccupancy(_ context.Context, propertyID uint64, currentOccupants uint32, status string) error {
    p := s.props[propertyID]
    p.CurrentOccupants = currentOccupants
    p.Status = status
    return nil
}

type memUsers struct {
    users map[uint64]*model.User
}

func (u *memUsers) GetUser(_ context.Context, id uint64) (*model.User, error) {
    usr, ok := u.users[id]
    if !ok {
        return nil, fmt.Errorf("user %d: %w", id, allocation.ErrRecordNotFound)
    }
    cp := *usr
    return &cp, nil
}

type memSink struct {
    events []allocation.TenantLeft
}

func (s *memSink) EmitTenantLeft(_ context.Context, ev allocation.TenantLeft) error {
    s.events = append(s.events, ev)
    return nil
}

const landlordID = 7

func newTestHandler(t *testing.T) (*handler.AllocationHandler, *memStore, *memSink) {
    t.Helper()
    store := &memStore{props: map[uint64]*model.Property{
        1: {
            ID:                1,
            LandlordID:        landlordID,
            Title:             "Two singles near campus",
            Location:          "5 Mill Lane",
            PricePerRoomCents: 52000,
            Bedrooms:          2,
            Status:            model.PropertyAvailable,
            Gender:            model.GenderAny,
            Religion:          model.ReligionAny,
        },
    }}
    users := &memUsers{users: map[uint64]*model.User{
        20: {ID: 20, Name: "Dana", Email: "dana@example.com", UserType: model.UserTypeStudent,
            Gender: model.GenderAny, Religion: model.ReligionAny},
    }}
    sink := &memSink{}
    engine := allocation.NewEngine(store, users, sink, allocation.DefaultPolicy())
    return handler.NewAllocationHandler(engine), store, sink
}

func doAllocate(t *testing.T, h *handler.AllocationHandler, callerID uint64, propertyID, body string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/v1/properties/"+propertyID+"/allocations", strings.NewReader(body))
    req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/properties/:id/allocations")
    c.SetParamNames("id")
    c.SetParamValues(propertyID)
    c.Set("user_id", callerID)
    require.NoError(t, h.Allocate(c))
    return rec
}

func doUnallocate(t *testing.T, h *handler.AllocationHandler, callerID uint64, propertyID, userID string) *httptest.ResponseRecorder {
    t.Helper()
    e := echo.New()
    req := httptest.NewRequest(http.MethodDelete, "/v1/properties/"+propertyID+"/allocations/"+userID, nil)
    rec := httptest.NewRecorder()
    c := e.NewContext(req, rec)
    c.SetPath("/v1/properties/:id/allocations/:userID")
    c.SetParamNames("id", "userID")
    c.SetParamValues(propertyID, userID)
    c.Set("user_id", callerID)
    require.NoError(t, h.Unallocate(c))
    return rec
}

func TestAllocateEndpointCreatesOccupant(t *testing.T) {
    h, store, _ := newTestHandler(t)

    rec := doAllocate(t, h, landlordID, "1", `{"user_id":20,"room_number":1}`)
    require.Equal(t, http.StatusCreated, rec.Code)

    var resp struct {
        Occupant model.Occupant          `json:"occupant"`
        Summary  model.AllocationSummary `json:"summary"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.EqualValues(t, 20, resp.Occupant.UserID)
    assert.EqualValues(t, 1, resp.Occupant.RoomNumber)
    assert.EqualValues(t, 52000, resp.Occupant.TotalPriceCents)
    assert.EqualValues(t, 1, resp.Summary.OccupiedRooms)

    assert.EqualValues(t, 1, store.props[1].CurrentOccupants)
}

func TestAllocateEndpointErrorMapping(t *testing.T) {
    h, _, _ := newTestHandler(t)

    // Unknown property -> 404 with a rule token.
    rec := doAllocate(t, h, landlordID, "99", `{"user_id":20,"room_number":1}`)
    require.Equal(t, http.StatusNotFound, rec.Code)
    var body map[string]string
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, allocation.RulePropertyNotFound, body["rule"])

    // Someone else's property -> 403.
    rec = doAllocate(t, h, landlordID+1, "1", `{"user_id":20,"room_number":1}`)
    assert.Equal(t, http.StatusForbidden, rec.Code)

    // Room out of range -> 400.
    rec = doAllocate(t, h, landlordID, "1", `{"user_id":20,"room_number":9}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)

    // Duplicate occupancy -> 409.
    rec = doAllocate(t, h, landlordID, "1", `{"user_id":20,"room_number":1}`)
    require.Equal(t, http.StatusCreated, rec.Code)
    rec = doAllocate(t, h, landlordID, "1", `{"user_id":20,"room_number":2}`)
    require.Equal(t, http.StatusConflict, rec.Code)
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
    assert.Equal(t, allocation.RuleAlreadyOccupant, body["rule"])
}

func TestAllocateEndpointRejectsBadBody(t *testing.T) {
    h, _, _ := newTestHandler(t)
    rec := doAllocate(t, h, landlordID, "1", `{"room_number":1}`)
    assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUnallocateEndpointReleasesAndResetsStatus(t *testing.T) {
    h, store, sink := newTestHandler(t)

    rec := doAllocate(t, h, landlordID, "1", `{"user_id":20,"room_number":1}`)
    require.Equal(t, http.StatusCreated, rec.Code)

    rec = doUnallocate(t, h, landlordID, "1", "20")
    require.Equal(t, http.StatusOK, rec.Code)

    var resp struct {
        Occupant model.Occupant `json:"occupant"`
        Property model.Property `json:"property"`
    }
    require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
    assert.Equal(t, model.OccupantInactive, resp.Occupant.Status)
    require.NotNil(t, resp.Occupant.EndDate)
    assert.Equal(t, model.PropertyAvailable, resp.Property.Status)
    assert.EqualValues(t, 0, store.props[1].CurrentOccupants)

    require.Len(t, sink.events, 1)
    assert.EqualValues(t, landlordID, sink.events[0].LandlordID)
    assert.Equal(t, "Dana", sink.events[0].StudentName)

    // No active occupancy left -> 404.
    rec = doUnallocate(t, h, landlordID, "1", "20")
    assert.Equal(t, http.StatusNotFound, rec.Code)
}
