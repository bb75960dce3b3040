//go:build !windows

package signals

import (
	"os"
	"syscall"
)

var watched = []os.Signal{syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT}

func actionFor(sig os.Signal) (Action, bool) {
	switch sig {
	case syscall.SIGHUP:
		return Reload, true
	case syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT:
		return Shutdown, true
	default:
		return 0, false
	}
}
