package validators

import (
	"errors"
	"reflect"
	"strings"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"

	"github.com/rezervi/rezervi-api/internal/domain/calendar"
	"github.com/rezervi/rezervi-api/internal/httperr"
	"github.com/rezervi/rezervi-api/internal/timezone"
)

// Validator wraps go-playground/validator with the booking tags registered:
// phone, hhmm, isodate and timezone.
type Validator struct {
	v       *validator.Validate
	regions []string
}

func New(regions []string) *Validator {
	val := &Validator{
		v:       validator.New(validator.WithRequiredStructEnabled()),
		regions: regions,
	}
	val.register(val.v)
	return val
}

// BindGin registers the same tags on gin's binding engine so request structs
// can use them in `binding` tags.
func (val *Validator) BindGin() {
	if engine, ok := binding.Validator.Engine().(*validator.Validate); ok {
		val.register(engine)
	}
}

func (val *Validator) register(v *validator.Validate) {
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		_, ok := val.NormalizePhone(fl.Field().String())
		return ok
	})
	_ = v.RegisterValidation("hhmm", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseClock(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("isodate", func(fl validator.FieldLevel) bool {
		_, err := calendar.ParseDate(fl.Field().String())
		return err == nil
	})
	_ = v.RegisterValidation("timezone", func(fl validator.FieldLevel) bool {
		return timezone.IsValid(fl.Field().String())
	})
}

// Struct validates s and converts failures into a ValidationError keyed by
// JSON field path.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}
	return Translate(err)
}

// Translate turns validator errors into a ValidationError. Other errors, such
// as malformed JSON from gin binding, become a generic invalid body error.
func Translate(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return httperr.InvalidField("body", "malformed request body")
	}

	fields := make(map[string]string, len(verrs))
	for _, fe := range verrs {
		fields[fieldPath(fe)] = describe(fe)
	}
	return httperr.Validation("invalid request", fields)
}

// NormalizePhone returns the E.164 form of phone if it parses as a valid
// number in one of the configured regions, or is already international.
func (val *Validator) NormalizePhone(phone string) (string, bool) {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return "", false
	}

	regions := val.regions
	if strings.HasPrefix(phone, "+") {
		regions = []string{"ZZ"}
	}
	for _, region := range regions {
		num, err := phonenumbers.Parse(phone, region)
		if err != nil || !phonenumbers.IsValidNumber(num) {
			continue
		}
		return phonenumbers.Format(num, phonenumbers.E164), true
	}
	return "", false
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" {
		return ""
	}
	if name == "" {
		return fld.Name
	}
	return name
}

// fieldPath drops the root struct name from the namespace.
func fieldPath(fe validator.FieldError) string {
	ns := fe.Namespace()
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return fe.Field()
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "phone":
		return "must be a valid phone number"
	case "hhmm":
		return "must be a time in HH:MM format"
	case "isodate":
		return "must be a date in YYYY-MM-DD format"
	case "timezone":
		return "must be an IANA timezone"
	case "email":
		return "must be a valid email"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "min":
		return "must be at least " + fe.Param()
	case "max":
		return "must be at most " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}
