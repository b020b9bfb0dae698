// Package tz holds the regional time zone and the date formats accepted from clients.
package tz

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata"
)

// Kolkata is the Asia/Kolkata location (IST, no DST).
var Kolkata *time.Location

func init() {
	var err error
	Kolkata, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		panic("tz: load Asia/Kolkata: " + err.Error())
	}
}

// Load returns the named location, falling back to Kolkata for an empty name.
func Load(name string) (*time.Location, error) {
	if name == "" {
		return Kolkata, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("tz: load %s: %w", name, err)
	}
	return loc, nil
}

// Layouts without an offset are interpreted in the regional zone.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Parse reads an RFC 3339 timestamp or a local date-time and returns it in loc.
func Parse(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}
