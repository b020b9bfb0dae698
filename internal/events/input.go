package events

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Captain-Rohith/CommunityPulse/internal/apperr"
	"github.com/Captain-Rohith/CommunityPulse/internal/models"
	"github.com/Captain-Rohith/CommunityPulse/pkg/form"
	"github.com/Captain-Rohith/CommunityPulse/pkg/storage"
)

// Input is a create or partial-update request. Nil fields were not sent.
type Input struct {
	Title             *string
	Description       *string
	Location          *string
	Category          *string
	Type              *models.EventType
	Price             *float64
	Latitude          *float64
	Longitude         *float64
	StartDate         *time.Time
	EndDate           *time.Time
	RegistrationStart *time.Time
	RegistrationEnd   *time.Time
	Image             *storage.Upload
}

func (in *Input) validateCreate() error {
	required := []struct {
		name string
		v    *string
	}{
		{"title", in.Title}, {"description", in.Description},
		{"location", in.Location}, {"category", in.Category},
	}
	for _, f := range required {
		if f.v == nil || strings.TrimSpace(*f.v) == "" {
			return apperr.Validation(f.name + " is required")
		}
	}
	dates := []struct {
		name string
		v    *time.Time
	}{
		{"start_date", in.StartDate}, {"end_date", in.EndDate},
		{"registration_start", in.RegistrationStart}, {"registration_end", in.RegistrationEnd},
	}
	for _, f := range dates {
		if f.v == nil {
			return apperr.Validation(f.name + " is required")
		}
	}
	if err := in.validateUpdate(); err != nil {
		return err
	}
	return checkOrder(*in.StartDate, *in.EndDate, *in.RegistrationStart, *in.RegistrationEnd)
}

func (in *Input) validateUpdate() error {
	if in.Type != nil && !in.Type.Valid() {
		return apperr.Validation("type must be Free or Paid")
	}
	if in.Price != nil && *in.Price < 0 {
		return apperr.Validation("price must not be negative")
	}
	if in.Latitude != nil && (*in.Latitude < -90 || *in.Latitude > 90) {
		return apperr.Validation("latitude out of range")
	}
	if in.Longitude != nil && (*in.Longitude < -180 || *in.Longitude > 180) {
		return apperr.Validation("longitude out of range")
	}
	return nil
}

func checkOrder(start, end, regStart, regEnd time.Time) error {
	if end.Before(start) {
		return apperr.Validation("end_date must not be before start_date")
	}
	if regEnd.Before(regStart) {
		return apperr.Validation("registration_end must not be before registration_start")
	}
	return nil
}

// parseForm reads an event form from a multipart or urlencoded body. Unparsable values are
// Validation errors. The returned closer releases the uploaded image, if any.
func parseForm(c *gin.Context, loc *time.Location) (Input, func(), error) {
	in := Input{
		Title:       form.String(c, "title"),
		Description: form.String(c, "description"),
		Location:    form.String(c, "location"),
		Category:    form.String(c, "category"),
	}
	noop := func() {}
	if v := form.String(c, "type"); v != nil && *v != "" {
		t := models.EventType(*v)
		in.Type = &t
	}

	var err error
	for _, f := range []struct {
		key string
		dst **float64
	}{{"price", &in.Price}, {"latitude", &in.Latitude}, {"longitude", &in.Longitude}} {
		if *f.dst, err = form.Float(c, f.key); err != nil {
			return in, noop, err
		}
	}
	for _, f := range []struct {
		key string
		dst **time.Time
	}{
		{"start_date", &in.StartDate}, {"end_date", &in.EndDate},
		{"registration_start", &in.RegistrationStart}, {"registration_end", &in.RegistrationEnd},
	} {
		if *f.dst, err = form.Time(c, f.key, loc); err != nil {
			return in, noop, err
		}
	}

	in.Image, noop, err = form.Image(c)
	return in, noop, err
}
