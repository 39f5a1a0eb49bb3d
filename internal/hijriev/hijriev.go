// Package hijriev detects notable days of the Islamic calendar:
// recommended fasting days and fixed Hijri-date events.
package hijriev

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/prayer"
)

// Event is a calendar occasion worth notifying about.
type Event struct {
	Key     string
	Title   string
	Message string
	Urgent  bool
}

// hijriEvents maps Hijri month -> day -> event.
var hijriEvents = map[int]map[int]Event{
	1: {
		1: {
			Title:   "🌙 رأس السنة الهجرية - Islamic New Year",
			Message: "Happy Islamic New Year! عام هجري سعيد",
			Urgent:  true,
		},
		10: {
			Title:   "📅 يوم عاشوراء - Day of Ashura",
			Message: "Today is the Day of Ashura. Fasting is recommended.\nاليوم يوم عاشوراء. يُستحب الصيام",
			Urgent:  true,
		},
	},
	3: {
		12: {
			Title:   "🌟 المولد النبوي الشريف - Mawlid",
			Message: "Today is the birthday of Prophet Muhammad ﷺ\nاليوم ذكرى مولد النبي محمد ﷺ",
			Urgent:  true,
		},
	},
	7: {
		27: {
			Title:   "🌙 الإسراء والمعراج - Isra Mi'raj",
			Message: "Tonight is the night of Isra and Mi'raj\nالليلة ليلة الإسراء والمعراج",
			Urgent:  true,
		},
	},
	8: {
		15: {
			Title:   "🌕 ليلة النصف من شعبان - Mid-Sha'ban",
			Message: "Tonight is the middle of Sha'ban\nالليلة ليلة النصف من شعبان",
			Urgent:  true,
		},
	},
	9: {
		1: {
			Title:   "🌙 رمضان مبارك - Ramadan Mubarak",
			Message: "The blessed month of Ramadan has begun!\nبدأ شهر رمضان المبارك! رمضان كريم",
			Urgent:  true,
		},
		27: {
			Title:   "✨ ليلة القدر - Laylat al-Qadr",
			Message: "Tonight could be Laylat al-Qadr\nالليلة قد تكون ليلة القدر",
			Urgent:  true,
		},
	},
	10: {
		1: {
			Title:   "🎉 عيد الفطر المبارك - Eid al-Fitr",
			Message: "Eid Mubarak! عيد فطر مبارك! تقبل الله منا ومنكم",
			Urgent:  true,
		},
	},
	12: {
		9: {
			Title:   "🕋 يوم عرفة - Day of Arafah",
			Message: "Today is the Day of Arafah. Fasting is recommended.\nاليوم يوم عرفة. يُستحب صيامه",
			Urgent:  true,
		},
		10: {
			Title:   "🐑 عيد الأضحى المبارك - Eid al-Adha",
			Message: "Eid Mubarak! عيد أضحى مبارك! تقبل الله منا ومنكم",
			Urgent:  true,
		},
	},
}

// Manager computes due calendar events and deduplicates notifications
// per day.
type Manager struct {
	db *sql.DB
}

func NewManager(db *sql.DB) *Manager {
	return &Manager{db: db}
}

// DueEvents returns the events for the given moment that have not yet
// been notified today. Returned events are immediately marked notified.
// The hijri date may be nil when a lookup failed; weekday-based events
// still work.
func (m *Manager) DueEvents(ctx context.Context, now time.Time, hijri *prayer.HijriDate) ([]Event, error) {
	today := now.Format(time.DateOnly)
	var due []Event

	// Monday and Thursday fasting
	if wd := now.Weekday(); wd == time.Monday || wd == time.Thursday {
		dayName := "Monday / الاثنين"
		if wd == time.Thursday {
			dayName = "Thursday / الخميس"
		}
		ok, err := m.markNotified(ctx, today, "fasting")
		if err != nil {
			return nil, err
		}
		if ok {
			due = append(due, Event{
				Key:   "fasting",
				Title: "📅 صيام مستحب - Recommended Fasting",
				Message: fmt.Sprintf(
					"Today is %s. The Prophet ﷺ used to fast on this day.\nاليوم %s. كان النبي ﷺ يصوم هذا اليوم",
					dayName, dayName),
			})
		}
	}

	if hijri != nil {
		day := hijri.DayNumber()

		// White days of the lunar month
		if day >= 13 && day <= 15 {
			ok, err := m.markNotified(ctx, today, "whiteDays")
			if err != nil {
				return nil, err
			}
			if ok {
				due = append(due, Event{
					Key:   "whiteDays",
					Title: "⚪ الأيام البيض - White Days",
					Message: fmt.Sprintf(
						"Today is one of the White Days (%d). Fasting is recommended.\nاليوم من الأيام البيض (%d). يُستحب الصيام",
						day, day),
				})
			}
		}

		if ev, found := hijriEvents[hijri.Month.Number][day]; found {
			key := fmt.Sprintf("event_%d_%d", hijri.Month.Number, day)
			ok, err := m.markNotified(ctx, today, key)
			if err != nil {
				return nil, err
			}
			if ok {
				ev.Key = key
				due = append(due, ev)
			}
		}
	}

	if len(due) > 0 {
		m.prune(ctx, today)
	}
	return due, nil
}

func (m *Manager) markNotified(ctx context.Context, day, key string) (bool, error) {
	res, err := m.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notified_events (day, event) VALUES (?, ?)
	`, day, key)
	if err != nil {
		return false, fmt.Errorf("mark notified: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (m *Manager) prune(ctx context.Context, today string) {
	_, err := m.db.ExecContext(ctx,
		`DELETE FROM notified_events WHERE day < ?`, today)
	if err != nil {
		logrus.WithError(err).Warn("hijriev: prune failed")
	}
}
