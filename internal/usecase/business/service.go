package business

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rezervi/rezervi-api/internal/audit"
	domain "github.com/rezervi/rezervi-api/internal/domain/business"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

// SettingsPatch updates only the fields that are set.
type SettingsPatch struct {
	Name      *string  `json:"name" validate:"omitempty,min=2,max=100"`
	Type      *string  `json:"type"`
	Phone     *string  `json:"phone" validate:"omitempty,phone"`
	Address   *string  `json:"address" validate:"omitempty,max=255"`
	Latitude  *float64 `json:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `json:"longitude" validate:"omitempty,longitude"`
	Timezone  *string  `json:"timezone" validate:"omitempty,timezone"`

	SlotDurationMinutes    *int  `json:"slot_duration_minutes"`
	BufferTimeMinutes      *int  `json:"buffer_time_minutes"`
	BookingWindowDays      *int  `json:"booking_window_days"`
	MinAdvanceBookingHours *int  `json:"min_advance_booking_hours"`
	MaxCapacityPerSlot     *int  `json:"max_capacity_per_slot"`
	AutoConfirm            *bool `json:"auto_confirm"`
}

type DayInput struct {
	Weekday int    `json:"weekday" validate:"min=0,max=6"`
	Enabled bool   `json:"enabled"`
	Open    string `json:"open" validate:"omitempty,hhmm"`
	Close   string `json:"close" validate:"omitempty,hhmm"`
}

type SpecialDateInput struct {
	Date   string `json:"date" validate:"required,isodate"`
	Closed bool   `json:"closed"`
	Open   string `json:"open" validate:"omitempty,hhmm"`
	Close  string `json:"close" validate:"omitempty,hhmm"`
	Note   string `json:"note" validate:"max=255"`
}

type hoursRequest struct {
	Days []DayInput `json:"days" validate:"max=7,dive"`
}

type datesRequest struct {
	Dates []SpecialDateInput `json:"dates" validate:"max=366,dive"`
}

// ======================================================
// USE CASE
// ======================================================

type Service struct {
	repo      domain.Repository
	auditLogs audit.Store
	audit     *audit.Dispatcher
	validator *validators.Validator
	log       *zap.Logger
}

func NewService(
	repo domain.Repository,
	auditLogs audit.Store,
	dispatcher *audit.Dispatcher,
	validator *validators.Validator,
	log *zap.Logger,
) *Service {
	return &Service{repo: repo, auditLogs: auditLogs, audit: dispatcher, validator: validator, log: log}
}

func (s *Service) Search(ctx context.Context, typ, query string, limit int) ([]models.Business, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 100 {
		limit = 100
	}
	return s.repo.Search(ctx, domain.SearchFilter{Type: typ, Query: query, Limit: limit})
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Business, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) UpdateSettings(
	ctx context.Context,
	businessID uuid.UUID,
	actorID uuid.UUID,
	patch SettingsPatch,
) (*models.Business, error) {

	if err := s.validator.Struct(patch); err != nil {
		return nil, err
	}

	b, err := s.repo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}

	changed := apply(b, patch, s.validator)
	if err := domain.ValidateSettings(b); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateProfile(ctx, b); err != nil {
		return nil, err
	}

	s.record(businessID, actorID, "business_settings_updated", businessID.String(), map[string]any{"fields": changed})
	return b, nil
}

func (s *Service) ReplaceWorkingHours(
	ctx context.Context,
	businessID uuid.UUID,
	actorID uuid.UUID,
	days []DayInput,
) ([]models.WorkingHours, error) {

	if err := s.validator.Struct(hoursRequest{Days: days}); err != nil {
		return nil, err
	}

	seen := map[int]bool{}
	hours := make([]models.WorkingHours, 0, len(days))
	for _, d := range days {
		if seen[d.Weekday] {
			return nil, httperr.InvalidField("days", fmt.Sprintf("weekday %d listed twice", d.Weekday))
		}
		seen[d.Weekday] = true
		hours = append(hours, models.WorkingHours{Weekday: d.Weekday, Enabled: d.Enabled, Open: d.Open, Close: d.Close})
	}

	b, err := s.repo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	b.WorkingHours = hours
	if err := domain.ValidateCalendar(b); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceWorkingHours(ctx, businessID, hours); err != nil {
		return nil, err
	}

	s.record(businessID, actorID, "working_hours_updated", businessID.String(), map[string]any{"days": len(hours)})
	return hours, nil
}

func (s *Service) ReplaceSpecialDates(
	ctx context.Context,
	businessID uuid.UUID,
	actorID uuid.UUID,
	dates []SpecialDateInput,
) ([]models.SpecialDate, error) {

	if err := s.validator.Struct(datesRequest{Dates: dates}); err != nil {
		return nil, err
	}

	out := make([]models.SpecialDate, 0, len(dates))
	for _, d := range dates {
		sd := models.SpecialDate{Date: d.Date, Closed: d.Closed, Note: strings.TrimSpace(d.Note)}
		if !d.Closed {
			sd.Open, sd.Close = d.Open, d.Close
		}
		out = append(out, sd)
	}

	b, err := s.repo.Get(ctx, businessID)
	if err != nil {
		return nil, err
	}
	b.SpecialDates = out
	if err := domain.ValidateCalendar(b); err != nil {
		return nil, err
	}

	if err := s.repo.ReplaceSpecialDates(ctx, businessID, out); err != nil {
		return nil, err
	}

	s.record(businessID, actorID, "special_dates_updated", businessID.String(), map[string]any{"dates": len(out)})
	return out, nil
}

// AuditPage is one page of a business's audit trail, newest first.
type AuditPage struct {
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
	Total int64             `json:"total"`
	Logs  []models.AuditLog `json:"logs"`
}

type AuditQuery struct {
	Action string
	Entity string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

func (s *Service) ListAudit(ctx context.Context, businessID uuid.UUID, q AuditQuery) (*AuditPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 50
	}
	if q.Limit > 200 {
		q.Limit = 200
	}

	logs, total, err := s.auditLogs.ListAudit(ctx, audit.Filter{
		BusinessID: businessID,
		Action:     q.Action,
		Entity:     q.Entity,
		From:       q.From,
		To:         q.To,
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
	})
	if err != nil {
		return nil, err
	}
	if logs == nil {
		logs = []models.AuditLog{}
	}

	return &AuditPage{Page: q.Page, Limit: q.Limit, Total: total, Logs: logs}, nil
}

func (s *Service) record(businessID, actorID uuid.UUID, action, entityID string, meta any) {
	if s.audit == nil {
		return
	}
	s.audit.Dispatch(audit.Event{
		BusinessID: businessID,
		ActorID:    &actorID,
		Action:     action,
		Entity:     "business",
		EntityID:   entityID,
		Metadata:   meta,
	})
}

// apply copies the set fields of p onto b and returns their names.
func apply(b *models.Business, p SettingsPatch, v *validators.Validator) []string {
	var changed []string
	set := func(name string) { changed = append(changed, name) }

	if p.Name != nil {
		b.Name = strings.TrimSpace(*p.Name)
		set("name")
	}
	if p.Type != nil {
		b.Type = models.BusinessType(*p.Type)
		set("type")
	}
	if p.Phone != nil {
		b.Phone = *p.Phone
		if e164, ok := v.NormalizePhone(*p.Phone); ok {
			b.Phone = e164
		}
		set("phone")
	}
	if p.Address != nil {
		b.Address = strings.TrimSpace(*p.Address)
		set("address")
	}
	if p.Latitude != nil {
		b.Latitude = p.Latitude
		set("latitude")
	}
	if p.Longitude != nil {
		b.Longitude = p.Longitude
		set("longitude")
	}
	if p.Timezone != nil {
		b.Timezone = *p.Timezone
		set("timezone")
	}
	if p.SlotDurationMinutes != nil {
		b.SlotDurationMinutes = *p.SlotDurationMinutes
		set("slot_duration_minutes")
	}
	if p.BufferTimeMinutes != nil {
		b.BufferTimeMinutes = *p.BufferTimeMinutes
		set("buffer_time_minutes")
	}
	if p.BookingWindowDays != nil {
		b.BookingWindowDays = *p.BookingWindowDays
		set("booking_window_days")
	}
	if p.MinAdvanceBookingHours != nil {
		b.MinAdvanceBookingHours = *p.MinAdvanceBookingHours
		set("min_advance_booking_hours")
	}
	if p.MaxCapacityPerSlot != nil {
		b.MaxCapacityPerSlot = *p.MaxCapacityPerSlot
		set("max_capacity_per_slot")
	}
	if p.AutoConfirm != nil {
		b.AutoConfirm = *p.AutoConfirm
		set("auto_confirm")
	}
	return changed
}
