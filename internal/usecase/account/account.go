package account

import (
	"context"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/rezervi/rezervi-api/internal/auth"
	domain "github.com/rezervi/rezervi-api/internal/domain/account"
	"github.com/rezervi/rezervi-api/internal/domain/business"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/models"
	"github.com/rezervi/rezervi-api/internal/timezone"
	"github.com/rezervi/rezervi-api/internal/validators"
)

// ======================================================
// INPUT
// ======================================================

type BusinessInput struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Slug     string `json:"slug" validate:"required,min=3,max=100"`
	Type     string `json:"type" validate:"omitempty,oneof=barbershop salon restaurant clinic spa fitness other"`
	Phone    string `json:"phone" validate:"omitempty,phone"`
	Address  string `json:"address" validate:"max=255"`
	Timezone string `json:"timezone" validate:"omitempty,timezone"`
}

type RegisterInput struct {
	Role     string         `json:"role" validate:"omitempty,oneof=owner customer"`
	Name     string         `json:"name" validate:"required,min=2,max=100"`
	Email    string         `json:"email" validate:"required,email,max=100"`
	Password string         `json:"password" validate:"required,min=8,max=72"`
	Phone    string         `json:"phone" validate:"omitempty,phone"`
	Business *BusinessInput `json:"business"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type Result struct {
	Token    string           `json:"token"`
	User     *models.User     `json:"user"`
	Business *models.Business `json:"business,omitempty"`
}

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

// ======================================================
// USE CASE
// ======================================================

type Service struct {
	users      domain.Repository
	businesses business.Repository
	issuer     *auth.Issuer
	validator  *validators.Validator
	defaultTZ  string
	log        *zap.Logger
}

func NewService(
	users domain.Repository,
	businesses business.Repository,
	issuer *auth.Issuer,
	validator *validators.Validator,
	defaultTZ string,
	log *zap.Logger,
) *Service {
	return &Service{
		users:      users,
		businesses: businesses,
		issuer:     issuer,
		validator:  validator,
		defaultTZ:  defaultTZ,
		log:        log,
	}
}

// Register creates a customer, or an owner together with their business.
// Owners get Monday to Friday 09:00-17:00 until they change it.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Result, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}
	role := in.Role
	if role == "" {
		role = models.RoleCustomer
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	var biz *models.Business
	if role == models.RoleOwner {
		if in.Business == nil {
			return nil, httperr.InvalidField("business", "is required for owners")
		}
		slug := strings.ToLower(strings.TrimSpace(in.Business.Slug))
		if !slugPattern.MatchString(slug) {
			return nil, httperr.InvalidField("business.slug", "must be lowercase letters, digits and hyphens")
		}
		biz = s.newBusiness(in.Business, slug)
	}

	// Email is checked first so a taken address never leaves a business behind.
	if _, err := s.users.GetUserByEmail(ctx, email); err == nil {
		return nil, httperr.Conflict("email_taken", "Email already registered.")
	} else if !httperr.IsNotFound(err) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Name:         strings.TrimSpace(in.Name),
		Email:        email,
		PasswordHash: string(hash),
		Phone:        s.phone(in.Phone),
		Role:         role,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if biz != nil {
		biz.OwnerID = user.ID
		if err := s.businesses.Create(ctx, biz); err != nil {
			return nil, err
		}
		if err := s.businesses.ReplaceWorkingHours(ctx, biz.ID, defaultHours()); err != nil {
			return nil, err
		}
		biz.WorkingHours = defaultHours()
	}

	token, err := s.issuer.Issue(user, businessID(biz))
	if err != nil {
		return nil, err
	}

	s.log.Info("account registered", zap.Stringer("user_id", user.ID), zap.String("role", role))
	return &Result{Token: token, User: user, Business: biz}, nil
}

func (s *Service) Login(ctx context.Context, in LoginInput) (*Result, error) {
	if err := s.validator.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if httperr.IsNotFound(err) {
			return nil, httperr.Unauthorized("invalid_credentials")
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, httperr.Unauthorized("invalid_credentials")
	}

	var biz *models.Business
	if user.Role == models.RoleOwner {
		biz, err = s.businesses.GetByOwner(ctx, user.ID)
		if err != nil && !httperr.IsNotFound(err) {
			return nil, err
		}
	}

	token, err := s.issuer.Issue(user, businessID(biz))
	if err != nil {
		return nil, err
	}
	return &Result{Token: token, User: user, Business: biz}, nil
}

func (s *Service) newBusiness(in *BusinessInput, slug string) *models.Business {
	tz := in.Timezone
	if !timezone.IsValid(tz) {
		tz = s.defaultTZ
	}
	typ := models.BusinessType(in.Type)
	if typ == "" {
		typ = models.BusinessOther
	}
	return &models.Business{
		Name:                   strings.TrimSpace(in.Name),
		Slug:                   slug,
		Type:                   typ,
		Phone:                  s.phone(in.Phone),
		Address:                strings.TrimSpace(in.Address),
		Timezone:               tz,
		SlotDurationMinutes:    30,
		BookingWindowDays:      30,
		MinAdvanceBookingHours: 2,
		MaxCapacityPerSlot:     1,
	}
}

func (s *Service) phone(raw string) string {
	if e164, ok := s.validator.NormalizePhone(raw); ok {
		return e164
	}
	return strings.TrimSpace(raw)
}

func defaultHours() []models.WorkingHours {
	hours := make([]models.WorkingHours, 0, 7)
	for wd := 0; wd <= 6; wd++ {
		open := wd >= 1 && wd <= 5
		hours = append(hours, models.WorkingHours{Weekday: wd, Enabled: open, Open: "09:00", Close: "17:00"})
	}
	return hours
}

func businessID(b *models.Business) *uuid.UUID {
	if b == nil {
		return nil
	}
	return &b.ID
}
