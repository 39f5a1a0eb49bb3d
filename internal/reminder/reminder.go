// Package reminder delivers periodic dhikr reminders: a random entry
// from the user's enabled categories, as a desktop notification and a
// broadcast event.
package reminder

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/catalog"
	"github.com/MahMoudMostaAfa/azkar/internal/notify"
	"github.com/MahMoudMostaAfa/azkar/internal/settings"
)

// Catalog is the subset of the catalog used to pick reminders.
type Catalog interface {
	Random(ctx context.Context, categories []string) catalog.Dhikr
}

// Service picks and delivers reminders.
type Service struct {
	catalog  Catalog
	settings settings.Store
	notifier notify.Notifier
	bus      *bus.Broadcaster
}

func New(cat Catalog, st settings.Store, notifier notify.Notifier, b *bus.Broadcaster) *Service {
	return &Service{
		catalog:  cat,
		settings: st,
		notifier: notifier,
		bus:      b,
	}
}

// Remind picks a random dhikr and delivers it. A disabled reminder
// setting turns the call into a no-op.
func (s *Service) Remind(ctx context.Context) {
	cfg := s.settings.Load(ctx)
	if !cfg.Enabled {
		return
	}
	s.deliver(ctx, s.catalog.Random(ctx, cfg.EnabledCategories))
}

// RemindNow delivers a reminder regardless of the enabled setting. Used
// by the manual trigger.
func (s *Service) RemindNow(ctx context.Context) catalog.Dhikr {
	cfg := s.settings.Load(ctx)
	d := s.catalog.Random(ctx, cfg.EnabledCategories)
	s.deliver(ctx, d)
	return d
}

func (s *Service) deliver(_ context.Context, d catalog.Dhikr) {
	body := d.Arabic
	if d.Translation != "" {
		body += "\n" + d.Translation
	}

	_, err := s.notifier.Notify(notify.Notification{
		Title:   "📿 أذكار المسلم - Azkar",
		Body:    body,
		Timeout: -1,
		Urgency: notify.UrgencyNormal,
	})
	if err != nil {
		logrus.WithError(err).Warn("reminder: notification failed")
	}

	s.bus.Broadcast(bus.Reminder{
		ID:              d.ID,
		Arabic:          d.Arabic,
		Transliteration: d.Transliteration,
		Translation:     d.Translation,
		Source:          d.Source,
		Times:           d.Times,
		Category:        d.Category,
	})

	logrus.WithField("dhikr", d.ID).Debug("reminder delivered")
}
