package app

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/notify"
)

// handleAlarm routes fired alarms. Queue pacing alarms go to the
// coordinator; the rest are the daemon's standing notification alarms.
func (a *App) handleAlarm(name string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	if a.coord.HandleAlarm(ctx, name) {
		return
	}

	switch name {
	case alarmReminder:
		a.reminder.Remind(ctx)
	case alarmDailyReset:
		if err := a.progress.DailyReset(ctx); err != nil {
			logrus.WithError(err).Warn("daily reset failed")
		}
	case alarmPrayerCheck:
		a.checkPrayers(ctx)
	case alarmEventCheck:
		a.checkEvents(ctx)
	case alarmAdhanStop:
		a.exec.Stop(ctx)
		a.exec.Release(ctx)
	default:
		logrus.WithField("alarm", name).Warn("unknown alarm")
	}
}

// checkPrayers notifies for any prayer whose time has arrived and plays
// the adhan.
func (a *App) checkPrayers(ctx context.Context) {
	cfg := a.settings.Load(ctx)

	due, err := a.prayer.DuePrayers(ctx, time.Now(), cfg)
	if err != nil {
		logrus.WithError(err).Debug("prayer check failed")
		return
	}

	for _, p := range due {
		_, err := a.notifier.Notify(notify.Notification{
			Title: "🕌 حان وقت الصلاة - Prayer Time",
			Body: fmt.Sprintf("حان وقت صلاة %s (%s)\nTime for %s prayer",
				p.ArabicName, p.Time, p.Key),
			Timeout: 0, // stays until dismissed
			Urgency: notify.UrgencyCritical,
		})
		if err != nil {
			logrus.WithError(err).Warn("prayer notification failed")
		}

		a.playAdhan(ctx)
		logrus.WithField("prayer", p.Key).Info("prayer time")
	}
}

// playAdhan plays the adhan recording through the audio executor and
// schedules its stop.
func (a *App) playAdhan(ctx context.Context) {
	url := a.cfg.Catalog.AdhanURL
	if url == "" {
		url = a.catalog.AdhanAudioURL(ctx)
	}
	if url == "" {
		return
	}

	if !a.exec.EnsureReady(ctx) {
		logrus.Warn("adhan skipped, audio executor unavailable")
		return
	}
	if !a.exec.Play(ctx, url) {
		return
	}
	if err := a.sched.Schedule(alarmAdhanStop, adhanStopDelay); err != nil {
		logrus.WithError(err).Warn("adhan stop alarm failed")
	}
}

// checkEvents notifies for Islamic calendar occasions.
func (a *App) checkEvents(ctx context.Context) {
	cfg := a.settings.Load(ctx)
	if !cfg.EventNotifications {
		return
	}

	hijri, err := a.prayer.HijriToday(ctx, cfg.Location)
	if err != nil {
		logrus.WithError(err).Debug("hijri lookup failed")
		// Weekday events still apply
	}

	due, err := a.events.DueEvents(ctx, time.Now(), hijri)
	if err != nil {
		logrus.WithError(err).Warn("event check failed")
		return
	}

	for _, ev := range due {
		urgency := notify.UrgencyNormal
		timeout := int32(-1)
		if ev.Urgent {
			urgency = notify.UrgencyCritical
			timeout = 0
		}
		_, err := a.notifier.Notify(notify.Notification{
			Title:   ev.Title,
			Body:    ev.Message,
			Timeout: timeout,
			Urgency: urgency,
		})
		if err != nil {
			logrus.WithError(err).Warn("event notification failed")
		}
		logrus.WithField("event", ev.Key).Info("calendar event")
	}
}
