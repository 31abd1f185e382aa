package services_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"gymdesk/internal/adapters/persistence/models"
	"gymdesk/internal/adapters/persistence/repositories"
	"gymdesk/internal/core/domain"
	"gymdesk/internal/core/services"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	companyA uint = 1
	companyB uint = 2
	staffID  uint = 7
)

var dbSeq atomic.Int64

// newTestDB opens a private in-memory database. A single connection makes
// concurrent transactions queue up the way row locks would serialize them.
func newTestDB(t require.TestingT) *gorm.DB {
	dsn := fmt.Sprintf("file:gymdesk_%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	if tt, ok := t.(interface{ Cleanup(func()) }); ok {
		tt.Cleanup(func() { sqlDB.Close() })
	}

	require.NoError(t, models.AutoMigrate(db))
	return db
}

func date(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func ymd(t time.Time) string {
	return t.Format("2006-01-02")
}

// fakeClock is a settable Clock
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newClock(day string) *fakeClock {
	return &fakeClock{now: date(day).Add(9 * time.Hour)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(days int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, days)
}

// recordingAudit keeps every entry it receives
type recordingAudit struct {
	mu      sync.Mutex
	entries []domain.AuditEntry
}

func (a *recordingAudit) Record(entry domain.AuditEntry) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries = append(a.entries, entry)
}

func (a *recordingAudit) Actions() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.entries))
	for i, e := range a.entries {
		out[i] = e.Action
	}
	return out
}

// countingCache is an in-memory MembershipCache that counts invalidations.
// beforeSet, when set, runs between the read and the store of a view.
type countingCache struct {
	mu            sync.Mutex
	items         map[string]*models.MembershipResponse
	versions      map[string]int64
	generation    int64
	invalidated   []uint
	invalidateAll int
	beforeSet     func()
}

func newCountingCache() *countingCache {
	return &countingCache{
		items:    map[string]*models.MembershipResponse{},
		versions: map[string]int64{},
	}
}

func cacheKey(companyID, id uint) string {
	return fmt.Sprintf("%d:%d", companyID, id)
}

func (c *countingCache) Get(_ context.Context, companyID, id uint) (*models.MembershipResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	m, ok := c.items[cacheKey(companyID, id)]
	return m, ok
}

func (c *countingCache) Version(_ context.Context, companyID, id uint) (int64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generation + c.versions[cacheKey(companyID, id)], true
}

func (c *countingCache) Set(_ context.Context, companyID uint, m *models.MembershipResponse, version int64) {
	c.mu.Lock()
	hook := c.beforeSet
	c.beforeSet = nil
	c.mu.Unlock()
	if hook != nil {
		hook()
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(companyID, m.ID)
	if c.generation+c.versions[k] != version {
		return
	}
	c.items[k] = m
}

func (c *countingCache) Invalidate(_ context.Context, companyID, id uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	k := cacheKey(companyID, id)
	c.versions[k]++
	delete(c.items, k)
	c.invalidated = append(c.invalidated, id)
}

func (c *countingCache) InvalidateAll(context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.items = map[string]*models.MembershipResponse{}
	c.invalidateAll++
}

// fixture wires the services over a fresh database
type fixture struct {
	db          *gorm.DB
	store       *repositories.Store
	clock       *fakeClock
	audit       *recordingAudit
	cache       *countingCache
	holds       *services.HoldTracker
	ledger      *services.PaymentLedger
	memberships *services.MembershipService
	reconciler  *services.MembershipReconciler
	plans       *services.PlanService

	member uint
	plan   uint
}

func newFixture(t require.TestingT, today string) *fixture {
	db := newTestDB(t)
	f := &fixture{
		db:    db,
		store: repositories.NewStore(db),
		clock: newClock(today),
		audit: &recordingAudit{},
		cache: newCountingCache(),
	}
	f.holds = services.NewHoldTracker(f.store)
	f.ledger = services.NewPaymentLedger(f.store, f.audit, f.cache, f.clock.Now)
	f.memberships = services.NewMembershipService(f.store, f.holds, f.ledger, f.audit, f.cache, f.clock.Now)
	f.reconciler = services.NewMembershipReconciler(f.store, f.memberships, f.cache, f.clock.Now)
	f.plans = services.NewPlanService(f.store.Plans)

	f.member = f.addMember(t, companyA, "Asha Rao")
	f.plan = f.addPlan(t, companyA, "Monthly", 1, 1500)
	return f
}

func (f *fixture) addMember(t require.TestingT, companyID uint, name string) uint {
	m := &models.Member{CompanyID: companyID, FullName: name}
	require.NoError(t, f.db.Create(m).Error)
	return m.ID
}

func (f *fixture) addPlan(t require.TestingT, companyID uint, name string, months int, price int64) uint {
	p := &models.MembershipPlan{
		CompanyID:      companyID,
		Name:           name,
		DurationMonths: months,
		Price:          decimal.NewFromInt(price),
		IsActive:       true,
	}
	require.NoError(t, f.db.Create(p).Error)
	return p.ID
}

func caller(companyID uint) domain.Caller {
	return domain.Caller{UserID: staffID, CompanyID: companyID}
}

// newMembership creates a membership of the default member starting on start
func (f *fixture) newMembership(t require.TestingT, start string, initial int64) uint {
	s := date(start)
	resp, err := f.memberships.Create(context.Background(), caller(companyA), services.CreateMembershipInput{
		MemberID:       f.member,
		PlanID:         f.plan,
		StartDate:      &s,
		InitialPayment: decimal.NewFromInt(initial),
		PaymentMode:    "cash",
	})
	require.NoError(t, err)
	return resp.ID
}

func (f *fixture) load(t require.TestingT, id uint) *models.Membership {
	var m models.Membership
	require.NoError(t, f.db.First(&m, id).Error)
	return &m
}

func (f *fixture) summary(t require.TestingT, id uint) *models.Payment {
	var p models.Payment
	require.NoError(t, f.db.Where("membership_id = ?", id).First(&p).Error)
	return &p
}

func (f *fixture) holdRows(t require.TestingT, id uint) []models.MembershipHold {
	var holds []models.MembershipHold
	require.NoError(t, f.db.Where("membership_id = ?", id).Order("id").Find(&holds).Error)
	return holds
}

func createInput(f *fixture) services.CreateMembershipInput {
	return services.CreateMembershipInput{MemberID: f.member, PlanID: f.plan}
}
