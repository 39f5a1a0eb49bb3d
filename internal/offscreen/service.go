package offscreen

import (
	"context"
	"errors"
	"fmt"

	"github.com/godbus/dbus/v5"
	"github.com/sirupsen/logrus"

	"github.com/MahMoudMostaAfa/azkar/internal/executor"
)

// Service exports the player on the session bus. The daemon spawns one
// azkar-offscreen process and drives it through this interface.
type Service struct {
	conn   *dbus.Conn
	player *Player
	quit   chan struct{}
}

// NewService claims the bus name and exports the playback methods. It
// fails when another offscreen process already owns the name.
func NewService(player *Player) (*Service, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect session bus: %w", err)
	}

	s := &Service{
		conn:   conn,
		player: player,
		quit:   make(chan struct{}),
	}
	player.OnStarted = func() { s.emit("Started") }
	player.OnFinished = func() { s.emit("Ended") }

	if err := conn.Export(s, executor.ObjectPath, executor.Interface); err != nil {
		return nil, fmt.Errorf("export object: %w", err)
	}

	reply, err := conn.RequestName(executor.BusName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return nil, fmt.Errorf("request bus name: %w", err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return nil, errors.New("bus name already owned")
	}

	// Announce readiness to any waiting daemon
	s.emit("Ready")
	logrus.Info("offscreen: ready")
	return s, nil
}

// Wait blocks until Quit is called over the bus.
func (s *Service) Wait() {
	<-s.quit
}

// Play starts playback of a URL. Exported on the bus.
func (s *Service) Play(url string) *dbus.Error {
	logrus.WithField("url", url).Debug("offscreen: play")

	if err := s.player.Play(context.Background(), url); err != nil {
		logrus.WithError(err).Warn("offscreen: playback failed")
		s.emitError(err.Error())
		return nil
	}
	return nil
}

// Stop halts playback. Exported on the bus.
func (s *Service) Stop() *dbus.Error {
	logrus.Debug("offscreen: stop")
	s.player.Stop()
	return nil
}

// Quit stops playback and exits. Exported on the bus.
func (s *Service) Quit() *dbus.Error {
	logrus.Info("offscreen: quit")
	s.player.Stop()
	close(s.quit)
	return nil
}

func (s *Service) emit(name string) {
	err := s.conn.Emit(executor.ObjectPath, executor.Interface+"."+name)
	if err != nil {
		logrus.WithError(err).Warn("offscreen: signal emit failed")
	}
}

func (s *Service) emitError(detail string) {
	err := s.conn.Emit(executor.ObjectPath, executor.Interface+".PlaybackError", detail)
	if err != nil {
		logrus.WithError(err).Warn("offscreen: signal emit failed")
	}
}
