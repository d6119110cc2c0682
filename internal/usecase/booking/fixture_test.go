package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/rezervi/rezervi-api/internal/domain/availability"
	"github.com/rezervi/rezervi-api/internal/domain/reservation"
	"github.com/rezervi/rezervi-api/internal/infra/memory"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/validators"
)

// 2030-01-07 is a Monday.
const monday = "2030-01-07"

type fixture struct {
	t     *testing.T
	store *memory.Store
	biz   *models.Business
	owner Principal
	now   time.Time
	deps  Deps
}

type bizOption func(*models.Business)

func newFixture(t *testing.T, opts ...bizOption) *fixture {
	t.Helper()

	f := &fixture{
		t:     t,
		store: memory.New(),
		now:   time.Date(2030, 1, 6, 10, 0, 0, 0, time.UTC),
	}

	ownerID := uuid.New()
	biz := &models.Business{
		OwnerID:                ownerID,
		Name:                   "Studio",
		Slug:                   "studio-" + ownerID.String()[:8],
		Type:                   models.BusinessSalon,
		Timezone:               "UTC",
		SlotDurationMinutes:    60,
		BookingWindowDays:      30,
		MinAdvanceBookingHours: 2,
		MaxCapacityPerSlot:     1,
	}
	for _, o := range opts {
		o(biz)
	}
	ctx := context.Background()
	if err := f.store.Businesses().Create(ctx, biz); err != nil {
		t.Fatalf("create business: %v", err)
	}

	var hours []models.WorkingHours
	for wd := 1; wd <= 5; wd++ {
		hours = append(hours, models.WorkingHours{Weekday: wd, Enabled: true, Open: "09:00", Close: "12:00"})
	}
	if err := f.store.Businesses().ReplaceWorkingHours(ctx, biz.ID, hours); err != nil {
		t.Fatalf("working hours: %v", err)
	}

	f.biz = biz
	f.owner = Principal{UserID: ownerID, Role: models.RoleOwner, BusinessID: &biz.ID}
	f.deps = Deps{
		Repo:      f.store,
		Validator: validators.New([]string{"US"}),
		Policy:    reservation.DefaultPolicy(),
		Now:       func() time.Time { return f.now },
	}
	return f
}

// setHours opens every weekday from open to close.
func (f *fixture) setHours(open, close string) {
	f.t.Helper()
	var hours []models.WorkingHours
	for wd := 0; wd <= 6; wd++ {
		hours = append(hours, models.WorkingHours{Weekday: wd, Enabled: true, Open: open, Close: close})
	}
	if err := f.store.Businesses().ReplaceWorkingHours(context.Background(), f.biz.ID, hours); err != nil {
		f.t.Fatalf("working hours: %v", err)
	}
}

func withCapacity(n int) bizOption { return func(b *models.Business) { b.MaxCapacityPerSlot = n } }
func withAutoConfirm() bizOption   { return func(b *models.Business) { b.AutoConfirm = true } }

func (f *fixture) input(date, at string) BookInput {
	return BookInput{
		BusinessID: f.biz.ID,
		Date:       date,
		Time:       at,
		Customer:   CustomerInfo{Name: "Ana Petrova", Phone: "+1 650-253-0000"},
	}
}

func (f *fixture) book(date, at string) (*models.Reservation, error) {
	r, _, err := NewBook(f.deps).Execute(context.Background(), f.input(date, at))
	return r, err
}

func (f *fixture) mustBook(date, at string) *models.Reservation {
	f.t.Helper()
	r, err := f.book(date, at)
	if err != nil {
		f.t.Fatalf("book %s %s: %v", date, at, err)
	}
	return r
}

func (f *fixture) slots(date string) []string {
	f.t.Helper()
	res, err := NewGetAvailability(f.deps).Execute(context.Background(), f.biz.ID, date)
	if err != nil {
		f.t.Fatalf("availability: %v", err)
	}
	return times(res.Slots)
}

func (f *fixture) setStatus(id uuid.UUID, status string, p Principal) (*models.Reservation, error) {
	return NewChangeStatus(f.deps).Execute(context.Background(), ChangeStatusInput{
		ReservationID: id,
		Status:        status,
		Principal:     p,
	})
}

func (f *fixture) reservation(id uuid.UUID) *models.Reservation {
	f.t.Helper()
	r, err := f.store.Get(context.Background(), id)
	if err != nil {
		f.t.Fatalf("get reservation: %v", err)
	}
	return r
}

func times(slots []availability.Slot) []string {
	out := []string{}
	for _, s := range slots {
		out = append(out, s.Time.String())
	}
	return out
}

func customer() Principal {
	return Principal{UserID: uuid.New(), Role: models.RoleCustomer}
}

func (f *fixture) bookAs(p Principal, date, at string) *models.Reservation {
	f.t.Helper()
	in := f.input(date, at)
	in.CustomerID = &p.UserID
	r, _, err := NewBook(f.deps).Execute(context.Background(), in)
	if err != nil {
		f.t.Fatalf("book %s %s: %v", date, at, err)
	}
	return r
}
