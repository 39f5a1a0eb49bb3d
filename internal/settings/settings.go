// Package settings persists user preferences in the durable database.
package settings

// PrayerReminders controls per-prayer notification toggles.
type PrayerReminders struct {
	Enabled bool `json:"enabled"`
	Fajr    bool `json:"fajr"`
	Dhuhr   bool `json:"dhuhr"`
	Asr     bool `json:"asr"`
	Maghrib bool `json:"maghrib"`
	Isha    bool `json:"isha"`
}

// Location holds coordinates and the calculation method used for
// prayer-time lookups.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Method    int     `json:"method"`
}

// Settings holds all user-tunable behavior.
type Settings struct {
	Enabled            bool            `json:"enabled"`
	Interval           int             `json:"interval"` // minutes between reminders
	EnabledCategories  []string        `json:"enabledCategories"`
	Language           string          `json:"language"`
	AudioEnabled       bool            `json:"audioEnabled"`
	PrayerReminders    PrayerReminders `json:"prayerReminders"`
	EventNotifications bool            `json:"eventNotifications"`
	NotificationSound  bool            `json:"notificationSound"`
	Location           Location        `json:"location"`
}

// Default returns the settings applied on first run. The default location
// is Mecca with the Umm al-Qura calculation method.
func Default() Settings {
	return Settings{
		Enabled:           true,
		Interval:          30,
		EnabledCategories: []string{"morning", "evening", "general", "forgiveness", "protection"},
		Language:          "both",
		AudioEnabled:      false,
		PrayerReminders: PrayerReminders{
			Enabled: true,
			Fajr:    true,
			Dhuhr:   true,
			Asr:     true,
			Maghrib: true,
			Isha:    true,
		},
		EventNotifications: true,
		NotificationSound:  true,
		Location: Location{
			Latitude:  21.4225,
			Longitude: 39.8262,
			Method:    4,
		},
	}
}

// CategoryEnabled reports whether a dhikr category should be used for
// reminders.
func (s Settings) CategoryEnabled(key string) bool {
	for _, c := range s.EnabledCategories {
		if c == key {
			return true
		}
	}
	return false
}

// PrayerEnabled reports whether notifications are wanted for a specific
// prayer name (lowercase).
func (s Settings) PrayerEnabled(name string) bool {
	if !s.PrayerReminders.Enabled {
		return false
	}
	switch name {
	case "fajr":
		return s.PrayerReminders.Fajr
	case "dhuhr":
		return s.PrayerReminders.Dhuhr
	case "asr":
		return s.PrayerReminders.Asr
	case "maghrib":
		return s.PrayerReminders.Maghrib
	case "isha":
		return s.PrayerReminders.Isha
	}
	return false
}
