package events

import (
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Captain-Rohith/CommunityPulse/internal/models"
)

// Columns selects an event row in ScanEvent order.
const Columns = `id, title, description, location, latitude, longitude, category, event_type, price::float8, views,
	start_date, end_date, registration_start, registration_end, image_path, organizer_id, is_approved,
	attendees_count, created_at, updated_at`

// ColumnsAs is Columns qualified with a table alias, for joins.
func ColumnsAs(alias string) string {
	parts := strings.Split(Columns, ",")
	for i, p := range parts {
		parts[i] = alias + "." + strings.TrimSpace(p)
	}
	return strings.Join(parts, ", ")
}

// ScanEvent reads an event selected with Columns, appending extra scan targets after it.
func ScanEvent(row pgx.Row, extra ...any) (*models.Event, error) {
	var e models.Event
	var typ string
	dest := []any{&e.ID, &e.Title, &e.Description, &e.Location, &e.Latitude, &e.Longitude, &e.Category,
		&typ, &e.Price, &e.Views, &e.StartDate, &e.EndDate, &e.RegistrationStart, &e.RegistrationEnd,
		&e.ImagePath, &e.OrganizerID, &e.IsApproved, &e.AttendeesCount, &e.CreatedAt, &e.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	e.Type = models.EventType(typ)
	return &e, nil
}

// collect scans every row into a slice, never returning nil on success.
func collect(rows pgx.Rows) ([]models.Event, error) {
	defer rows.Close()
	list := []models.Event{}
	for rows.Next() {
		e, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, *e)
	}
	return list, rows.Err()
}
