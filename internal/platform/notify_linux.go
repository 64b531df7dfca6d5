//go:build linux

package platform

import (
	"github.com/godbus/dbus/v5"
)

const (
	busName    = "org.freedesktop.Notifications"
	objectPath = "/org/freedesktop/Notifications"
)

// Notify sends a desktop notification over the Freedesktop.org notifications D-Bus interface.
func Notify(title, body string, opts Options) error {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return err
	}
	defer conn.Close()

	hints := map[string]dbus.Variant{}
	if opts.Category != "" {
		hints["category"] = dbus.MakeVariant(opts.Category)
	}
	timeout := int32(5000)
	if opts.TimeoutMS > 0 {
		timeout = int32(opts.TimeoutMS)
	}
	obj := conn.Object(busName, dbus.ObjectPath(objectPath))
	call := obj.Call(busName+".Notify", 0,
		opts.AppName(), uint32(0), opts.IconPath, title, body, []string{}, hints, timeout)
	return call.Err
}
