package business

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/infra/memory"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/validators"
)

type fixture struct {
	svc   *Service
	store *memory.Store
	disp  *audit.Dispatcher
	biz   *models.Business
	owner uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.New()
	disp := audit.NewDispatcher(audit.New(store), zap.NewNop(), 10)

	owner := uuid.New()
	biz := &models.Business{
		OwnerID:                owner,
		Name:                   "Studio Lina",
		Slug:                   "studio-lina",
		Type:                   models.BusinessSalon,
		Timezone:               "Europe/Skopje",
		SlotDurationMinutes:    30,
		BookingWindowDays:      30,
		MinAdvanceBookingHours: 2,
		MaxCapacityPerSlot:     1,
	}
	if err := store.Businesses().Create(context.Background(), biz); err != nil {
		t.Fatal(err)
	}

	svc := NewService(store.Businesses(), store, disp, validators.New([]string{"US"}), zap.NewNop())
	return &fixture{svc: svc, store: store, disp: disp, biz: biz, owner: owner}
}

// flush drains the audit queue so entries are visible to ListAudit.
func (f *fixture) flush(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := f.disp.Close(ctx); err != nil {
		t.Fatal(err)
	}
}

func ptr[T any](v T) *T { return &v }

func TestUpdateSettingsPartial(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.UpdateSettings(ctx, f.biz.ID, f.owner, SettingsPatch{
		MaxCapacityPerSlot: ptr(4),
		AutoConfirm:        ptr(true),
	})
	if err != nil {
		t.Fatal(err)
	}
	if got.MaxCapacityPerSlot != 4 || !got.AutoConfirm {
		t.Fatalf("settings not applied: %+v", got)
	}
	if got.Name != "Studio Lina" || got.SlotDurationMinutes != 30 {
		t.Fatalf("untouched fields changed: %+v", got)
	}

	stored, _ := f.svc.Get(ctx, f.biz.ID)
	if stored.MaxCapacityPerSlot != 4 {
		t.Fatalf("stored capacity = %d", stored.MaxCapacityPerSlot)
	}
}

func TestUpdateSettingsRejects(t *testing.T) {
	cases := map[string]SettingsPatch{
		"zero capacity":    {MaxCapacityPerSlot: ptr(0)},
		"zero slot":        {SlotDurationMinutes: ptr(0)},
		"negative buffer":  {BufferTimeMinutes: ptr(-5)},
		"empty window":     {BookingWindowDays: ptr(0)},
		"negative advance": {MinAdvanceBookingHours: ptr(-1)},
		"bad timezone":     {Timezone: ptr("Mars/Olympus")},
		"bad type":         {Type: ptr("casino")},
		"bad phone":        {Phone: ptr("12")},
	}
	for name, patch := range cases {
		t.Run(name, func(t *testing.T) {
			f := newFixture(t)
			if _, err := f.svc.UpdateSettings(context.Background(), f.biz.ID, f.owner, patch); !httperr.IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestUpdateSettingsNormalizesPhone(t *testing.T) {
	f := newFixture(t)
	got, err := f.svc.UpdateSettings(context.Background(), f.biz.ID, f.owner, SettingsPatch{Phone: ptr("(650) 253-0000")})
	if err != nil {
		t.Fatal(err)
	}
	if got.Phone != "+16502530000" {
		t.Fatalf("phone = %q", got.Phone)
	}
}

func TestUpdateSettingsUnknownBusiness(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.UpdateSettings(context.Background(), uuid.New(), f.owner, SettingsPatch{}); !httperr.IsNotFound(err) {
		t.Fatalf("want not found, got %v", err)
	}
}

func TestReplaceWorkingHours(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	days := []DayInput{
		{Weekday: 1, Enabled: true, Open: "09:00", Close: "17:00"},
		{Weekday: 6, Enabled: true, Open: "10:00", Close: "14:00"},
		{Weekday: 0},
	}
	if _, err := f.svc.ReplaceWorkingHours(ctx, f.biz.ID, f.owner, days); err != nil {
		t.Fatal(err)
	}

	b, _ := f.svc.Get(ctx, f.biz.ID)
	if len(b.WorkingHours) != 3 {
		t.Fatalf("hours = %d", len(b.WorkingHours))
	}

	bad := map[string][]DayInput{
		"close before open": {{Weekday: 2, Enabled: true, Open: "17:00", Close: "09:00"}},
		"duplicate day":     {{Weekday: 2}, {Weekday: 2}},
		"weekday range":     {{Weekday: 7}},
		"bad clock":         {{Weekday: 2, Enabled: true, Open: "9am", Close: "17:00"}},
	}
	for name, in := range bad {
		if _, err := f.svc.ReplaceWorkingHours(ctx, f.biz.ID, f.owner, in); !httperr.IsValidation(err) {
			t.Errorf("%s: want validation error, got %v", name, err)
		}
	}

	b, _ = f.svc.Get(ctx, f.biz.ID)
	if len(b.WorkingHours) != 3 {
		t.Fatalf("rejected update changed hours: %d", len(b.WorkingHours))
	}
}

func TestReplaceSpecialDates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.svc.ReplaceSpecialDates(ctx, f.biz.ID, f.owner, []SpecialDateInput{
		{Date: "2030-01-01", Closed: true, Open: "09:00", Close: "10:00", Note: " New year "},
		{Date: "2030-01-02", Open: "10:00", Close: "13:00"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if got[0].Open != "" || got[0].Note != "New year" {
		t.Fatalf("closed date kept hours or untrimmed note: %+v", got[0])
	}

	if _, err := f.svc.ReplaceSpecialDates(ctx, f.biz.ID, f.owner, []SpecialDateInput{
		{Date: "2030-01-05", Closed: true},
		{Date: "2030-01-05", Closed: true},
	}); !httperr.IsValidation(err) {
		t.Fatalf("duplicate date: want validation error, got %v", err)
	}
	if _, err := f.svc.ReplaceSpecialDates(ctx, f.biz.ID, f.owner, []SpecialDateInput{{Date: "2030-13-01", Closed: true}}); !httperr.IsValidation(err) {
		t.Fatalf("bad date: want validation error, got %v", err)
	}
}

func TestSearch(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	other := &models.Business{
		OwnerID: uuid.New(), Name: "Bistro Ohrid", Slug: "bistro-ohrid", Type: models.BusinessRestaurant,
		SlotDurationMinutes: 60, BookingWindowDays: 30, MaxCapacityPerSlot: 10,
	}
	if err := f.store.Businesses().Create(ctx, other); err != nil {
		t.Fatal(err)
	}

	all, err := f.svc.Search(ctx, "", "", 0)
	if err != nil || len(all) != 2 {
		t.Fatalf("all = %d, %v", len(all), err)
	}
	byType, _ := f.svc.Search(ctx, "restaurant", "", 10)
	if len(byType) != 1 || byType[0].ID != other.ID {
		t.Fatalf("by type = %+v", byType)
	}
	byName, _ := f.svc.Search(ctx, "", "lina", 10)
	if len(byName) != 1 || byName[0].ID != f.biz.ID {
		t.Fatalf("by name = %+v", byName)
	}
}

func TestListAuditPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if _, err := f.svc.UpdateSettings(ctx, f.biz.ID, f.owner, SettingsPatch{MaxCapacityPerSlot: ptr(i)}); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := f.svc.ReplaceWorkingHours(ctx, f.biz.ID, f.owner, []DayInput{{Weekday: 1}}); err != nil {
		t.Fatal(err)
	}
	f.flush(t)

	page, err := f.svc.ListAudit(ctx, f.biz.ID, AuditQuery{Page: 2, Limit: 3})
	if err != nil {
		t.Fatal(err)
	}
	if page.Total != 4 || len(page.Logs) != 1 || page.Page != 2 {
		t.Fatalf("page = %+v", page)
	}

	filtered, _ := f.svc.ListAudit(ctx, f.biz.ID, AuditQuery{Action: "working_hours_updated"})
	if filtered.Total != 1 || filtered.Limit != 50 {
		t.Fatalf("filtered = %+v", filtered)
	}

	capped, _ := f.svc.ListAudit(ctx, f.biz.ID, AuditQuery{Limit: 1000})
	if capped.Limit != 200 {
		t.Fatalf("limit = %d", capped.Limit)
	}

	none, _ := f.svc.ListAudit(ctx, uuid.New(), AuditQuery{})
	if none.Logs == nil || len(none.Logs) != 0 {
		t.Fatalf("other business logs = %+v", none.Logs)
	}
}
