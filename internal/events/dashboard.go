package events

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// Age buckets, in display order.
var AgeBuckets = []string{"0-18", "19-25", "26-35", "36-50", "50+"}

const trendDays = 7

// Dashboard is the organizer view of an event.
type Dashboard struct {
	EventID            uuid.UUID         `json:"event_id"`
	Title              string            `json:"title"`
	Views              int               `json:"views"`
	Likes              int               `json:"likes"`
	Registrations      RegistrationStats `json:"registrations"`
	Interested         int               `json:"interested"`
	DailyRegistrations []DailyCount      `json:"daily_registrations"`
	CreatedAt          time.Time         `json:"created_at"`
	LastUpdated        time.Time         `json:"last_updated"`
}

// RegistrationStats summarizes registered parties.
type RegistrationStats struct {
	Total           int               `json:"total"`
	TotalAttendees  int               `json:"total_attendees"`
	AverageAge      *float64          `json:"average_age"`
	AgeDistribution map[string]int    `json:"age_distribution"`
	Attendees       []models.Attendee `json:"attendees"`
}

// DailyCount is the number of registrations created on a calendar day.
type DailyCount struct {
	Date  string `json:"date"`
	Count int    `json:"count"`
}

func ageBucket(age int) string {
	switch {
	case age <= 18:
		return "0-18"
	case age <= 25:
		return "19-25"
	case age <= 35:
		return "26-35"
	case age <= 50:
		return "36-50"
	default:
		return "50+"
	}
}

// BuildDashboard aggregates regs (every status) for ev as of now. Attendee stats cover
// registered parties only; the daily trend counts rows of any status created in the last
// seven calendar days of now's zone, zero-filled and oldest first.
func BuildDashboard(ev *models.Event, likes int, regs []models.EventRegistration, now time.Time) *Dashboard {
	d := &Dashboard{
		EventID:     ev.ID,
		Title:       ev.Title,
		Views:       ev.Views,
		Likes:       likes,
		CreatedAt:   ev.CreatedAt,
		LastUpdated: ev.UpdatedAt,
		Registrations: RegistrationStats{
			AgeDistribution: make(map[string]int, len(AgeBuckets)),
			Attendees:       []models.Attendee{},
		},
	}
	for _, b := range AgeBuckets {
		d.Registrations.AgeDistribution[b] = 0
	}

	loc := now.Location()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	first := today.AddDate(0, 0, -(trendDays - 1))
	daily := make(map[string]int, trendDays)

	ageSum := 0
	for _, r := range regs {
		switch r.Status {
		case models.StatusRegistered:
			d.Registrations.Total++
			for _, a := range r.Attendees {
				d.Registrations.Attendees = append(d.Registrations.Attendees, a)
				ageSum += a.Age
				d.Registrations.AgeDistribution[ageBucket(a.Age)]++
			}
		case models.StatusInterested:
			d.Interested++
		}
		if at := r.RegisteredAt.In(loc); !at.Before(first) {
			daily[at.Format(time.DateOnly)]++
		}
	}

	n := len(d.Registrations.Attendees)
	d.Registrations.TotalAttendees = n
	if n > 0 {
		avg := math.Round(float64(ageSum)/float64(n)*10) / 10
		d.Registrations.AverageAge = &avg
	}

	d.DailyRegistrations = make([]DailyCount, 0, trendDays)
	for i := 0; i < trendDays; i++ {
		day := first.AddDate(0, 0, i).Format(time.DateOnly)
		d.DailyRegistrations = append(d.DailyRegistrations, DailyCount{Date: day, Count: daily[day]})
	}
	return d
}
