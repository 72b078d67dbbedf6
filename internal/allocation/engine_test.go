package allocation_test

import (
    "context"
    "fmt"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/student-housing/internal/allocation"
    "github.com/iliyamo/student-housing/internal/model"
)

// fakeStore is an in-memory Store/TxStore used to exercise the engine
// without a database.  InTransaction simply runs the callback against
// the same state; writes only happen after validation passes, so no
// rollback emulation is required.  The beforeTx hook lets tests
// simulate a concurrent writer committing between the engine's
// snapshot read and its transaction.
type fakeStore struct {
    props    map[uint64]*model.Property
    occs     []model.Occupant
    nextID   uint64
    beforeTx func(s *fakeStore)
}

func newFakeStore(props ...*model.Property) *fakeStore {
    s := &fakeStore{props: make(map[uint64]*model.Property)}
    for _, p := range props {
        cp := *p
        s.props[p.ID] = &cp
    }
    return s
}

func (s *fakeStore) FindProperty(_ context.Context, id uint64) (*model.Property, error) {
    p, ok := s.props[id]
    if !ok {
        return nil, fmt.Errorf("property %d: %w", id, allocation.ErrRecordNotFound)
    }
    cp := *p
    return &cp, nil
}

func (s *fakeStore) ActiveOccupants(_ context.Context, propertyID uint64) ([]model.Occupant, error) {
    var out []model.Occupant
    for _, o := range s.occs {
        if o.PropertyID == propertyID && o.Status == model.OccupantActive {
            out = append(out, o)
        }
    }
    return out, nil
}

func (s *fakeStore) InTransaction(_ context.Context, fn func(tx allocation.TxStore) error) error {
    if s.beforeTx != nil {
        hook := s.beforeTx
        s.beforeTx = nil
        hook(s)
    }
    return fn(s)
}

func (s *fakeStore) LockProperty(ctx context.Context, id uint64) (*model.Property, error) {
    return s.FindProperty(ctx, id)
}

func (s *fakeStore) InsertOccupant(_ context.Context, o *model.Occupant) error {
    s.nextID++
    o.ID = s.nextID
    s.occs = append(s.occs, *o)
    return nil
}

func (s *fakeStore) ReleaseOccupant(_ context.Context, occupantID uint64, endDate time.Time) error {
    for i := range s.occs {
        if s.occs[i].ID == occupantID {
            s.occs[i].Status = model.OccupantInactive
            end := endDate
            s.occs[i].EndDate = &end
            return nil
        }
    }
    return fmt.Errorf("occupant %d: %w", occupantID, allocation.ErrRecordNotFound)
}

func (s *fakeStore) UpdatePropertyOccupancy(_ context.Context, propertyID uint64, currentOccupants uint32, status string) error {
    p, ok := s.props[propertyID]
    if !ok {
        return fmt.Errorf("property %d: %w", propertyID, allocation.ErrRecordNotFound)
    }
    p.CurrentOccupants = currentOccupants
    p.Status = status
    return nil
}

// seedOccupant plants an ACTIVE occupancy directly, bypassing the
// engine, for arranging test fixtures.
func (s *fakeStore) seedOccupant(propertyID, userID uint64, room uint32) {
    s.nextID++
    s.occs = append(s.occs, model.Occupant{
        ID:         s.nextID,
        PropertyID: propertyID,
        UserID:     userID,
        RoomNumber: room,
        Status:     model.OccupantActive,
        StartDate:  time.Now().UTC(),
    })
    if p, ok := s.props[propertyID]; ok {
        p.CurrentOccupants++
    }
}

type fakeUsers struct {
    users map[uint64]*model.User
}

func (f *fakeUsers) GetUser(_ context.Context, id uint64) (*model.User, error) {
    u, ok := f.users[id]
    if !ok {
        return nil, fmt.Errorf("user %d: %w", id, allocation.ErrRecordNotFound)
    }
    cp := *u
    return &cp, nil
}

type fakeSink struct {
    events []allocation.TenantLeft
    err    error
}

func (f *fakeSink) EmitTenantLeft(_ context.Context, ev allocation.TenantLeft) error {
    if f.err != nil {
        return f.err
    }
    f.events = append(f.events, ev)
    return nil
}

const landlordID = 100

func student(id uint64, gender, religion string) *model.User {
    return &model.User{
        ID:       id,
        Name:     fmt.Sprintf("student-%d", id),
        UserType: model.UserTypeStudent,
        Gender:   gender,
        Religion: religion,
    }
}

func singleProperty(bedrooms uint32) *model.Property {
    return &model.Property{
        ID:                1,
        LandlordID:        landlordID,
        Location:          "12 College Road",
        PricePerRoomCents: 45000,
        Bedrooms:          bedrooms,
        Status:            model.PropertyAvailable,
        Gender:            model.GenderAny,
        Religion:          model.ReligionAny,
    }
}

func sharedProperty(bedrooms, tenantsPerRoom uint32) *model.Property {
    p := singleProperty(bedrooms)
    p.RoomSharing = true
    p.TenantsPerRoom = tenantsPerRoom
    return p
}

type fixture struct {
    engine *allocation.Engine
    store  *fakeStore
    users  *fakeUsers
    sink   *fakeSink
}

func newFixture(t *testing.T, policy allocation.Policy, prop *model.Property, users ...*model.User) *fixture {
    t.Helper()
    store := newFakeStore(prop)
    fu := &fakeUsers{users: map[uint64]*model.User{}}
    for _, u := range users {
        fu.users[u.ID] = u
    }
    sink := &fakeSink{}
    return &fixture{
        engine: allocation.NewEngine(store, fu, sink, policy),
        store:  store,
        users:  fu,
        sink:   sink,
    }
}

func requireEngineErr(t *testing.T, err error, kind allocation.Kind, rule string) *allocation.Error {
    t.Helper()
    var ae *allocation.Error
    require.ErrorAs(t, err, &ae)
    assert.Equal(t, kind, ae.Kind)
    assert.Equal(t, rule, ae.Rule)
    return ae
}

func TestAllocateFillsSingleRoomProperty(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(4),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
        student(3, model.GenderAny, model.ReligionAny),
        student(4, model.GenderAny, model.ReligionAny),
        student(5, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    for i := uint64(1); i <= 4; i++ {
        res, err := fx.engine.Allocate(ctx, 1, i, uint32(i), landlordID)
        require.NoError(t, err, "allocation %d", i)
        assert.Equal(t, model.OccupantActive, res.Occupant.Status)
        assert.Equal(t, uint32(i), res.Property.CurrentOccupants)
        assert.Equal(t, uint32(45000), res.Occupant.TotalPriceCents)
    }

    p, err := fx.store.FindProperty(ctx, 1)
    require.NoError(t, err)
    assert.Equal(t, model.PropertyRented, p.Status)
    assert.Equal(t, uint32(4), p.CurrentOccupants)

    // Fully rented now: a fifth allocation is refused before the room
    // capacity check even runs.
    _, err = fx.engine.Allocate(ctx, 1, 5, 1, landlordID)
    requireEngineErr(t, err, allocation.KindInvalidState, allocation.RuleNotAllocatable)
}

func TestAllocateRejectsSecondOccupantWhenNotSharing(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(4),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)

    _, err = fx.engine.Allocate(ctx, 1, 2, 1, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleRoomCapacity)
}

func TestAllocateSharedRoomCapacity(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), sharedProperty(2, 2),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
        student(3, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)
    res, err := fx.engine.Allocate(ctx, 1, 2, 1, landlordID)
    require.NoError(t, err)
    assert.Equal(t, uint32(2), res.Property.CurrentOccupants)
    assert.Equal(t, uint32(1), res.Summary.OccupiedRooms)

    // Room 1 is at 2/2 now.
    _, err = fx.engine.Allocate(ctx, 1, 3, 1, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleRoomCapacity)

    // The other room is still open.
    _, err = fx.engine.Allocate(ctx, 1, 3, 2, landlordID)
    require.NoError(t, err)
}

func TestAllocateRejectsDuplicateActiveOccupancy(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(4),
        student(1, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)

    _, err = fx.engine.Allocate(ctx, 1, 1, 2, landlordID)
    ae := requireEngineErr(t, err, allocation.KindConflict, allocation.RuleAlreadyOccupant)
    assert.Contains(t, ae.Message, "already an occupant")
}

func TestAllocateGenderCompatibility(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), sharedProperty(2, 2),
        student(1, model.GenderMale, model.ReligionAny),
        student(2, model.GenderFemale, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)

    _, err = fx.engine.Allocate(ctx, 1, 2, 1, landlordID)
    ae := requireEngineErr(t, err, allocation.KindConflict, allocation.RuleGenderMismatch)
    assert.Contains(t, strings.ToLower(ae.Message), "gender")

    // The same candidate fits into an empty room.
    _, err = fx.engine.Allocate(ctx, 1, 2, 2, landlordID)
    require.NoError(t, err)
}

func TestAllocateReligionCompatibility(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), sharedProperty(1, 3),
        student(1, model.GenderAny, "CHRISTIAN"),
        student(2, model.GenderAny, "MUSLIM"),
        student(3, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)

    _, err = fx.engine.Allocate(ctx, 1, 2, 1, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleReligionMismatch)

    // ANY on the candidate side never conflicts.
    _, err = fx.engine.Allocate(ctx, 1, 3, 1, landlordID)
    require.NoError(t, err)
}

func TestAllocateValidationFailures(t *testing.T) {
    prop := singleProperty(4)
    fx := newFixture(t, allocation.DefaultPolicy(), prop,
        student(1, model.GenderAny, model.ReligionAny),
    )
    landlord := &model.User{ID: 50, Name: "landlord", UserType: model.UserTypeLandlord}
    fx.users.users[50] = landlord
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 999, 1, 1, landlordID)
    requireEngineErr(t, err, allocation.KindNotFound, allocation.RulePropertyNotFound)

    _, err = fx.engine.Allocate(ctx, 1, 1, 1, landlordID+1)
    requireEngineErr(t, err, allocation.KindUnauthorized, allocation.RuleNotLandlord)

    _, err = fx.engine.Allocate(ctx, 1, 999, 1, landlordID)
    requireEngineErr(t, err, allocation.KindNotFound, allocation.RuleStudentNotFound)

    _, err = fx.engine.Allocate(ctx, 1, 50, 1, landlordID)
    requireEngineErr(t, err, allocation.KindInvalidArgument, allocation.RuleNotAStudent)

    _, err = fx.engine.Allocate(ctx, 1, 1, 0, landlordID)
    requireEngineErr(t, err, allocation.KindInvalidArgument, allocation.RuleRoomOutOfRange)
    _, err = fx.engine.Allocate(ctx, 1, 1, 5, landlordID)
    requireEngineErr(t, err, allocation.KindInvalidArgument, allocation.RuleRoomOutOfRange)

    fx.store.props[1].Status = model.PropertyMaintenance
    _, err = fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    requireEngineErr(t, err, allocation.KindInvalidState, allocation.RuleNotAllocatable)
}

func TestAllocateConcurrentWriterIsCaughtInTransaction(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(4),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    // The pre-transaction snapshot sees room 1 free; a concurrent
    // request fills it before this request's transaction begins.  The
    // locked re-check must refuse the write.
    fx.store.beforeTx = func(s *fakeStore) {
        s.seedOccupant(1, 2, 1)
    }
    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleRoomCapacity)

    // Only the concurrent writer's occupancy exists.
    active, err := fx.store.ActiveOccupants(ctx, 1)
    require.NoError(t, err)
    require.Len(t, active, 1)
    assert.Equal(t, uint64(2), active[0].UserID)
}

func TestAllocateSharedRoomCapPolicy(t *testing.T) {
    policy := allocation.Policy{FairDistribution: true, SharedRoomCap: 2}
    fx := newFixture(t, policy, sharedProperty(2, 3),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
        student(3, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)
    _, err = fx.engine.Allocate(ctx, 1, 2, 1, landlordID)
    require.NoError(t, err)

    // The listing says three per room but policy caps it at two.
    _, err = fx.engine.Allocate(ctx, 1, 3, 1, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleRoomCapacity)
}

func TestUnallocateRoundTrip(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(4),
        student(1, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    before, err := fx.store.FindProperty(ctx, 1)
    require.NoError(t, err)

    _, err = fx.engine.Allocate(ctx, 1, 1, 2, landlordID)
    require.NoError(t, err)

    res, err := fx.engine.Unallocate(ctx, 1, 1, landlordID)
    require.NoError(t, err)
    assert.Equal(t, model.OccupantInactive, res.Occupant.Status)
    require.NotNil(t, res.Occupant.EndDate)
    assert.Equal(t, before.CurrentOccupants, res.Property.CurrentOccupants)
    assert.Equal(t, model.PropertyAvailable, res.Property.Status)

    // The tenant-left event reached the sink with the full payload.
    require.Len(t, fx.sink.events, 1)
    ev := fx.sink.events[0]
    assert.Equal(t, uint64(1), ev.StudentID)
    assert.Equal(t, "student-1", ev.StudentName)
    assert.Equal(t, uint64(1), ev.PropertyID)
    assert.Equal(t, "12 College Road", ev.PropertyLocation)
    assert.Equal(t, uint32(2), ev.RoomNumber)
    assert.Equal(t, uint64(landlordID), ev.LandlordID)

    // A later allocation creates a brand-new record instead of
    // reactivating the released one.
    res2, err := fx.engine.Allocate(ctx, 1, 1, 2, landlordID)
    require.NoError(t, err)
    assert.NotEqual(t, res.Occupant.ID, res2.Occupant.ID)
}

func TestUnallocateResetsStatusWithRemainingOccupants(t *testing.T) {
    // Historical behavior: releasing any occupant resets the property
    // to AVAILABLE even when other rooms are still occupied.
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(2),
        student(1, model.GenderAny, model.ReligionAny),
        student(2, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)
    _, err = fx.engine.Allocate(ctx, 1, 2, 2, landlordID)
    require.NoError(t, err)

    p, err := fx.store.FindProperty(ctx, 1)
    require.NoError(t, err)
    require.Equal(t, model.PropertyRented, p.Status)

    res, err := fx.engine.Unallocate(ctx, 1, 1, landlordID)
    require.NoError(t, err)
    assert.Equal(t, model.PropertyAvailable, res.Property.Status)
    assert.Equal(t, uint32(1), res.Property.CurrentOccupants)

    active, err := fx.store.ActiveOccupants(ctx, 1)
    require.NoError(t, err)
    assert.Len(t, active, 1)
}

func TestUnallocateFailures(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(2),
        student(1, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    _, err := fx.engine.Unallocate(ctx, 999, 1, landlordID)
    requireEngineErr(t, err, allocation.KindNotFound, allocation.RulePropertyNotFound)

    _, err = fx.engine.Unallocate(ctx, 1, 1, landlordID+1)
    requireEngineErr(t, err, allocation.KindUnauthorized, allocation.RuleNotLandlord)

    _, err = fx.engine.Unallocate(ctx, 1, 999, landlordID)
    requireEngineErr(t, err, allocation.KindNotFound, allocation.RuleStudentNotFound)

    _, err = fx.engine.Unallocate(ctx, 1, 1, landlordID)
    requireEngineErr(t, err, allocation.KindNotFound, allocation.RuleNoActiveOccupancy)
}

func TestUnallocateNotificationFailureIsSwallowed(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), singleProperty(2),
        student(1, model.GenderAny, model.ReligionAny),
    )
    fx.sink.err = fmt.Errorf("broker unreachable")
    ctx := context.Background()

    _, err := fx.engine.Allocate(ctx, 1, 1, 1, landlordID)
    require.NoError(t, err)

    res, err := fx.engine.Unallocate(ctx, 1, 1, landlordID)
    require.NoError(t, err)
    assert.Equal(t, model.OccupantInactive, res.Occupant.Status)
}

func TestFairDistributionCatchesCounterDrift(t *testing.T) {
    mk := func(policy allocation.Policy) *fixture {
        fx := newFixture(t, policy, singleProperty(4),
            student(1, model.GenderAny, model.ReligionAny),
            student(2, model.GenderAny, model.ReligionAny),
            student(3, model.GenderAny, model.ReligionAny),
        )
        // Two occupancy records exist but the denormalized counter was
        // never incremented: the property looks emptier than it is.
        fx.store.seedOccupant(1, 2, 1)
        fx.store.seedOccupant(1, 3, 2)
        fx.store.props[1].CurrentOccupants = 0
        return fx
    }
    ctx := context.Background()

    fx := mk(allocation.DefaultPolicy())
    _, err := fx.engine.Allocate(ctx, 1, 1, 3, landlordID)
    requireEngineErr(t, err, allocation.KindConflict, allocation.RuleFairDistribution)

    // With the guard disabled the drift goes unnoticed and the
    // allocation proceeds.
    fx = mk(allocation.Policy{FairDistribution: false})
    _, err = fx.engine.Allocate(ctx, 1, 1, 3, landlordID)
    require.NoError(t, err)
}

func TestAllocateSummary(t *testing.T) {
    fx := newFixture(t, allocation.DefaultPolicy(), sharedProperty(3, 2),
        student(1, model.GenderAny, model.ReligionAny),
    )
    ctx := context.Background()

    res, err := fx.engine.Allocate(ctx, 1, 1, 2, landlordID)
    require.NoError(t, err)

    s := res.Summary
    assert.Equal(t, uint32(3), s.TotalRooms)
    assert.Equal(t, uint32(1), s.OccupiedRooms)
    assert.Equal(t, uint32(2), s.AvailableRooms)
    assert.Equal(t, uint32(45000), s.PricePerRoomCents)
    assert.True(t, s.IsShared)
    assert.Equal(t, uint32(2), s.TenantsPerRoom)
    assert.Equal(t, uint32(1), s.TotalOccupants)
    assert.Equal(t, uint32(6), s.MaxOccupants)
    assert.Equal(t, uint32(5), s.RemainingOccupantSlots)
}
