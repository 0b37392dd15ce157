// Package logind reaches systemd-logind over the system bus, for power
// actions and for the session LockedHint that tells logind the screen is
// locked.
//
// See [org.freedesktop.login1].
//
// [org.freedesktop.login1]: https://www.freedesktop.org/software/systemd/man/latest/org.freedesktop.login1.html
package logind

import (
	"errors"
	"fmt"
	"os"

	"github.com/coreos/go-systemd/v22/login1"
	"github.com/godbus/dbus/v5"
)

const (
	dbusDest             = "org.freedesktop.login1"
	dbusPath             = "/org/freedesktop/login1"
	dbusManagerInterface = "org.freedesktop.login1.Manager"
	dbusSessionInterface = "org.freedesktop.login1.Session"
)

// Power issues power-state changes through logind. Polkit decides whether
// the caller may; interactive authorization is never requested, so a denial
// comes back as an error.
type Power struct {
	conn    *dbus.Conn
	manager dbus.BusObject
}

func NewPower() (*Power, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	return &Power{conn: conn, manager: conn.Object(dbusDest, dbusPath)}, nil
}

func (p *Power) call(method string) error {
	err := p.manager.Call(dbusManagerInterface+"."+method, 0, false).Err
	if err != nil {
		return fmt.Errorf("logind %s: %w", method, err)
	}
	return nil
}

// Reboot returns once logind accepted the request; the system then goes down.
func (p *Power) Reboot() error { return p.call("Reboot") }

func (p *Power) PowerOff() error { return p.call("PowerOff") }

func (p *Power) Suspend() error { return p.call("Suspend") }

func (p *Power) Close() error {
	if p.conn == nil {
		return nil
	}
	return p.conn.Close()
}

// Session is one logind session of the current user.
type Session struct {
	conn *dbus.Conn
	obj  dbus.BusObject
}

// NewSession looks up the session by id, or by this process when id is
// empty. id is usually $XDG_SESSION_ID.
func NewSession(id string) (*Session, error) {
	var path dbus.ObjectPath
	if id != "" {
		login, err := login1.New()
		if err != nil {
			return nil, fmt.Errorf("failed to connect to logind: %w", err)
		}
		path, err = login.GetSession(id)
		login.Close()
		if err != nil {
			return nil, fmt.Errorf("failed to find session %s: %w", id, err)
		}
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to system bus: %w", err)
	}
	if id == "" {
		err = conn.Object(dbusDest, dbusPath).
			Call(dbusManagerInterface+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
		if err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("failed to find session object: %w", err)
		}
	}
	if !path.IsValid() {
		_ = conn.Close()
		return nil, errors.New("logind returned an invalid session path")
	}

	return &Session{conn: conn, obj: conn.Object(dbusDest, path)}, nil
}

// SetLockedHint sets the session's LockedHint; true=locked, false=unlocked.
func (s *Session) SetLockedHint(locked bool) error {
	err := s.obj.Call(dbusSessionInterface+".SetLockedHint", 0, locked).Err
	if err != nil {
		return fmt.Errorf("could not set locked hint: %w", err)
	}
	return nil
}

func (s *Session) Close() error {
	return s.conn.Close()
}
