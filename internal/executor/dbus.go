package executor

import (
	"context"
	"os/exec"

	"github.com/godbus/dbus/v5"
)

// Session-bus contract shared with the azkar-offscreen process.
const (
	BusName    = "io.azkar.Offscreen1"
	ObjectPath = "/io/azkar/Offscreen1"
	Interface  = "io.azkar.Offscreen1"

	signalReady   = Interface + ".Ready"
	signalStarted = Interface + ".Started"
	signalEnded   = Interface + ".Ended"
	signalError   = Interface + ".PlaybackError"
)

// DBusTransport drives the azkar-offscreen process over the session bus:
// bus-name ownership answers "does it exist", method calls carry commands,
// and signals carry readiness and lifecycle events back.
type DBusTransport struct {
	conn    *dbus.Conn
	obj     dbus.BusObject
	binPath string
}

// NewDBusTransport connects to the session bus. binPath is the
// azkar-offscreen executable to spawn on Create.
func NewDBusTransport(binPath string) (*DBusTransport, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, err
	}
	return &DBusTransport{
		conn:    conn,
		obj:     conn.Object(BusName, ObjectPath),
		binPath: binPath,
	}, nil
}

func (t *DBusTransport) Exists(ctx context.Context) (bool, error) {
	var has bool
	err := t.conn.BusObject().
		CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, BusName).
		Store(&has)
	if err != nil {
		return false, err
	}
	return has, nil
}

func (t *DBusTransport) Create(ctx context.Context) error {
	// Re-check under the spawn: another daemon instance may have won.
	if exists, err := t.Exists(ctx); err == nil && exists {
		return ErrAlreadyExists
	}

	cmd := exec.Command(t.binPath)
	if err := cmd.Start(); err != nil {
		return err
	}
	go cmd.Wait() //nolint:errcheck // reap only, lifecycle is tracked via the bus

	return nil
}

func (t *DBusTransport) SendPlay(ctx context.Context, locator string) error {
	return t.obj.CallWithContext(ctx, Interface+".Play", 0, locator).Err
}

func (t *DBusTransport) SendStop(ctx context.Context) error {
	return t.obj.CallWithContext(ctx, Interface+".Stop", 0).Err
}

func (t *DBusTransport) Destroy(ctx context.Context) error {
	return t.obj.CallWithContext(ctx, Interface+".Quit", 0).Err
}

// Listen subscribes to the offscreen process's signals. onReady fires on
// the readiness signal, onEvent on every lifecycle event; both are invoked
// from a background goroutine until the bus connection closes.
func (t *DBusTransport) Listen(onReady func(), onEvent func(Event)) error {
	if err := t.conn.AddMatchSignal(
		dbus.WithMatchInterface(Interface),
		dbus.WithMatchObjectPath(ObjectPath),
	); err != nil {
		return err
	}

	ch := make(chan *dbus.Signal, 16)
	t.conn.Signal(ch)

	go func() {
		for sig := range ch {
			switch sig.Name {
			case signalReady:
				onReady()
			case signalStarted:
				onEvent(Event{Kind: Started})
			case signalEnded:
				onEvent(Event{Kind: Ended})
			case signalError:
				var detail string
				if len(sig.Body) > 0 {
					detail, _ = sig.Body[0].(string)
				}
				onEvent(Event{Kind: Error, Detail: detail})
			}
		}
	}()
	return nil
}

// Verify DBusTransport implements Transport at compile time.
var _ Transport = (*DBusTransport)(nil)
