// Package app wires the daemon together: stores, scheduler, playback
// coordinator, reminder/prayer/event services, and the HTTP API.
package app

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/api"
	"github.com/MahMoudMostaAfa/azkar/internal/bus"
	"github.com/MahMoudMostaAfa/azkar/internal/catalog"
	"github.com/MahMoudMostaAfa/azkar/internal/config"
	"github.com/MahMoudMostaAfa/azkar/internal/coordinator"
	"github.com/MahMoudMostaAfa/azkar/internal/executor"
	"github.com/MahMoudMostaAfa/azkar/internal/hijriev"
	"github.com/MahMoudMostaAfa/azkar/internal/notify"
	"github.com/MahMoudMostaAfa/azkar/internal/prayer"
	"github.com/MahMoudMostaAfa/azkar/internal/progress"
	"github.com/MahMoudMostaAfa/azkar/internal/reminder"
	"github.com/MahMoudMostaAfa/azkar/internal/router"
	"github.com/MahMoudMostaAfa/azkar/internal/scheduler"
	"github.com/MahMoudMostaAfa/azkar/internal/session"
	"github.com/MahMoudMostaAfa/azkar/internal/settings"
	"github.com/MahMoudMostaAfa/azkar/internal/store"
)

// Standing alarm names. The queue coordinator owns its own two alarms;
// these cover the notification side of the daemon.
const (
	alarmReminder    = "azkar-reminder"
	alarmDailyReset  = "daily-reset"
	alarmPrayerCheck = "prayer-check"
	alarmEventCheck  = "event-check"
	alarmAdhanStop   = "adhan-stop"
)

const (
	prayerCheckPeriod = 5 * time.Minute
	adhanStopDelay    = time.Minute
)

// App is the assembled daemon.
type App struct {
	cfg *config.Config

	sessionStore *session.Manager
	durableStore *store.Manager
	sched        *scheduler.Scheduler
	bus          *bus.Broadcaster
	exec         *executor.Proxy
	coord        *coordinator.Coordinator
	settings     *settings.Manager
	catalog      *catalog.Manager
	prayer       *prayer.Manager
	events       *hijriev.Manager
	progress     *progress.Manager
	reminder     *reminder.Service
	notifier     notify.Notifier
	server       *api.Server
}

// New assembles the daemon from configuration. Call Run to start it.
func New(cfg *config.Config) (*App, error) {
	a := &App{cfg: cfg}

	sessionStore, err := session.Open()
	if err != nil {
		return nil, err
	}
	a.sessionStore = sessionStore

	durable, err := store.Open()
	if err != nil {
		sessionStore.Close()
		return nil, err
	}
	a.durableStore = durable

	sched, err := scheduler.New(sessionStore.DB())
	if err != nil {
		a.closeStores()
		return nil, err
	}
	a.sched = sched

	a.bus = bus.New()

	transport, err := executor.NewDBusTransport(cfg.OffscreenBin)
	if err != nil {
		a.closeStores()
		return nil, err
	}
	a.exec = executor.NewProxy(transport)

	skip, ended, errDelay, release := cfg.GetPacing()
	a.coord = coordinator.New(sessionStore, a.exec, sched, a.bus, coordinator.Pacing{
		SkipDelay:    skip,
		EndedDelay:   ended,
		ErrorDelay:   errDelay,
		ReleaseDelay: release,
	})

	err = transport.Listen(a.exec.MarkReady, func(ev executor.Event) {
		a.coord.HandleExecutorEvent(context.Background(), ev)
	})
	if err != nil {
		a.closeStores()
		return nil, err
	}

	a.notifier, err = notify.New()
	if err != nil {
		a.closeStores()
		return nil, err
	}

	a.settings = settings.NewManager(durable.DB())
	a.catalog = catalog.NewManager(durable.DB(), catalog.NewClient(cfg.Catalog.RemoteURL))
	a.prayer = prayer.NewManager(durable.DB(), prayer.NewClient(""))
	a.events = hijriev.NewManager(durable.DB())
	a.progress = progress.NewManager(durable.DB())
	a.reminder = reminder.New(a.catalog, a.settings, a.notifier, a.bus)

	a.server = api.New(cfg.Listen, api.Deps{
		Router:          router.New(a.coord),
		Bus:             a.bus,
		Settings:        a.settings,
		Progress:        a.progress,
		Catalog:         a.catalog,
		Prayer:          a.prayer,
		Reminder:        a.reminder,
		OnSettingsSaved: a.onSettingsSaved,
	})

	return a, nil
}

// Run starts the scheduler, standing alarms, and HTTP server, then
// blocks until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	a.sched.Start(a.handleAlarm)
	a.ensureAlarms(ctx)
	a.server.Start()

	// Warm the catalog cache in the background
	go func() {
		warmCtx, cancel := context.WithTimeout(ctx, time.Minute)
		defer cancel()
		a.catalog.Data(warmCtx)
	}()

	<-ctx.Done()
	return a.shutdown()
}

func (a *App) shutdown() error {
	logrus.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := a.server.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("api shutdown failed")
	}
	a.exec.Release(shutdownCtx)
	a.sched.Stop()
	a.bus.Close()
	a.closeStores()
	return nil
}

func (a *App) closeStores() {
	if a.durableStore != nil {
		a.durableStore.Close()
	}
	if a.sessionStore != nil {
		a.sessionStore.Close()
	}
}

// ensureAlarms creates the standing alarms that survive in the runtime
// database across daemon restarts within a login session.
func (a *App) ensureAlarms(ctx context.Context) {
	cfg := a.settings.Load(ctx)

	if cfg.Enabled {
		a.ensurePeriodic(alarmReminder, reminderPeriod(cfg))
	}
	a.ensureAt(alarmDailyReset, nextMidnight(time.Now()), 24*time.Hour)
	a.ensurePeriodic(alarmPrayerCheck, prayerCheckPeriod)
	a.ensurePeriodic(alarmEventCheck, 24*time.Hour)
}

func (a *App) ensurePeriodic(name string, period time.Duration) {
	exists, err := a.sched.Get(name)
	if err == nil && exists {
		return
	}
	if err := a.sched.SchedulePeriodic(name, period, period); err != nil {
		logrus.WithError(err).WithField("alarm", name).Warn("alarm setup failed")
	}
}

func (a *App) ensureAt(name string, when time.Time, period time.Duration) {
	exists, err := a.sched.Get(name)
	if err == nil && exists {
		return
	}
	if err := a.sched.ScheduleAt(name, when, period); err != nil {
		logrus.WithError(err).WithField("alarm", name).Warn("alarm setup failed")
	}
}

func reminderPeriod(cfg settings.Settings) time.Duration {
	minutes := cfg.Interval
	if minutes < 1 {
		minutes = 30
	}
	return time.Duration(minutes) * time.Minute
}

func nextMidnight(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, now.Location())
}

// onSettingsSaved re-arms the reminder alarm and reacts to location
// changes. Runs from API handlers.
func (a *App) onSettingsSaved(ctx context.Context, old, updated settings.Settings) {
	if err := a.sched.Clear(alarmReminder); err != nil {
		logrus.WithError(err).Warn("reminder alarm clear failed")
	}
	if updated.Enabled {
		period := reminderPeriod(updated)
		if err := a.sched.SchedulePeriodic(alarmReminder, period, period); err != nil {
			logrus.WithError(err).Warn("reminder alarm setup failed")
		}
	}

	if old.Location != updated.Location {
		if err := a.prayer.InvalidateCache(ctx); err != nil {
			logrus.WithError(err).Warn("prayer cache invalidation failed")
		}
	}
}
