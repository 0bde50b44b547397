package core

import "time"

// windowSize is the number of probes that may be in flight at once. With
// one probe per second this means a reply has five seconds to arrive
// before its slot is reclaimed.
const windowSize = 5

// probeWindow tracks in-flight probes in a fixed ring indexed by
// seq % windowSize. A slot holds the send time of the probe occupying it,
// or the zero time when no probe is outstanding in that residue class.
//
// The timeout inference in recordSend relies on sequences increasing by
// exactly one per send, which holds because only the session event loop
// sends probes.
type probeWindow struct {
	slots [windowSize]time.Time

	// lastSeq is the most recently recorded sequence, used to reject
	// replies that fall outside the live window.
	lastSeq uint16
}

// recordSend stores the send time of probe seq. If the slot about to be
// reused still holds an unanswered probe, that probe (seq-windowSize, as
// slots are reused in strictly increasing sequence order) has timed out;
// its sequence is returned with timedOut set.
func (w *probeWindow) recordSend(seq uint16, at time.Time) (expired uint16, timedOut bool) {
	idx := seq % windowSize

	if !w.slots[idx].IsZero() {
		expired = seq - windowSize
		timedOut = true
	}

	w.slots[idx] = at
	w.lastSeq = seq
	return expired, timedOut
}

// resolve matches a reply for probe seq against the window. Replies whose
// distance from the last sent sequence is windowSize or more are outside
// the live window (already timed out, already answered, or bogus) and do
// not match. An empty slot means a duplicate or foreign reply. On a match
// the slot is cleared and the elapsed time since the send is returned.
func (w *probeWindow) resolve(seq uint16, now time.Time) (time.Duration, bool) {
	// uint16 arithmetic makes replies "from the future" wrap into large
	// distances, so they are rejected by the same comparison
	if w.lastSeq-seq >= windowSize {
		return 0, false
	}

	idx := seq % windowSize
	sent := w.slots[idx]
	if sent.IsZero() {
		return 0, false
	}

	w.slots[idx] = time.Time{}
	return now.Sub(sent), true
}

// pending reports how many probes are currently outstanding.
func (w *probeWindow) pending() int {
	n := 0
	for _, s := range w.slots {
		if !s.IsZero() {
			n++
		}
	}
	return n
}
