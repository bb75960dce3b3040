//go:build windows

package signals

import "os"

var watched = []os.Signal{os.Interrupt}

func actionFor(sig os.Signal) (Action, bool) {
	if sig == os.Interrupt {
		return Shutdown, true
	}

	return 0, false
}
