package tasks

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrUnknownPreset = errors.New("unknown schedule preset")
	ErrPastSchedule  = errors.New("scheduled time is in the past")
)

// Preset identifies a quick schedule option
type Preset string

const (
	Preset3h              Preset = "3h"
	Preset6h              Preset = "6h"
	PresetTomorrowMorning Preset = "tomorrow_morning"
	PresetTomorrowEvening Preset = "tomorrow_evening"
)

// PresetOption describes a preset for display
type PresetOption struct {
	ID       Preset `json:"id"`
	Label    string `json:"label"`
	Sublabel string `json:"sublabel"`
}

// Presets lists the quick schedule options in display order
func Presets() []PresetOption {
	return []PresetOption{
		{ID: Preset3h, Label: "3 Jam", Sublabel: "Lagi"},
		{ID: Preset6h, Label: "6 Jam", Sublabel: "Lagi"},
		{ID: PresetTomorrowMorning, Label: "Besok", Sublabel: "Pagi (09:00)"},
		{ID: PresetTomorrowEvening, Label: "Besok", Sublabel: "Malam (20:00)"},
	}
}

// PresetTime computes the scheduled instant for p relative to now.
// Tomorrow presets use the calendar of now's location.
func PresetTime(p Preset, now time.Time) (time.Time, error) {
	switch p {
	case Preset3h:
		return now.Add(3 * time.Hour), nil
	case Preset6h:
		return now.Add(6 * time.Hour), nil
	case PresetTomorrowMorning:
		return tomorrowAt(now, 9), nil
	case PresetTomorrowEvening:
		return tomorrowAt(now, 20), nil
	default:
		return time.Time{}, fmt.Errorf("%w: %q", ErrUnknownPreset, p)
	}
}

func tomorrowAt(now time.Time, hour int) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, hour, 0, 0, 0, now.Location())
}

// CustomTime parses a user-entered date (2006-01-02) and time (15:04) in
// now's location and rejects instants before now.
func CustomTime(date, clock string, now time.Time) (time.Time, error) {
	t, err := time.ParseInLocation("2006-01-02 15:04", date+" "+clock, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date or time: %w", err)
	}
	if t.Before(now) {
		return time.Time{}, ErrPastSchedule
	}
	return t, nil
}
