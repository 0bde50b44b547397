package core

import (
	"time"
)

// RoundTripResult is the end result of a round trip
type RoundTripResult int

const (
	// Replied is the result of when an echo request is successfully replied
	Replied RoundTripResult = iota
	// TimedOut is the result of when an echo request does not receive a
	// reply before its window slot is reclaimed
	TimedOut
)

// RoundTrip is the reported outcome of a single probe.
type RoundTrip struct {
	// TTL is the time-to-live of the reply datagram, receiving only
	TTL int
	// Seq is the sequence number of the probe, successful or not
	Seq uint16
	// Len is the length of the reply datagram
	Len int
	// Time is the measured rtt, successful-only
	Time time.Duration
	// Res is the outcome
	Res RoundTripResult
}

// buildTimedOutRT builds a round trip record for a probe that was never
// answered.
func buildTimedOutRT(seq uint16) *RoundTrip {
	return &RoundTrip{
		TTL:  0,
		Time: 0,
		Len:  0,
		Seq:  seq,
		Res:  TimedOut,
	}
}
