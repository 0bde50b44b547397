package core

import (
	"net"
	"time"
)

func isIPv4(ip net.IP) bool {
	return ip.To4() != nil
}

// clearTimer stops a timer and drains its channel if it had already fired.
func clearTimer(timer *time.Timer) {
	if !timer.Stop() {
		select {
		case <-timer.C:
		default:
		}
	}
}
