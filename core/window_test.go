package core

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// TestWindowUnansweredProbesTimeOut sends ten consecutive probes without
// any replies. The first five sends find empty slots; each of the next
// five reclaims a slot and must surface the timeout of the probe five
// sequences back.
func TestWindowUnansweredProbesTimeOut(t *testing.T) {
	w := &probeWindow{}
	now := time.Now()

	for seq := uint16(0); seq < 10; seq++ {
		expired, timedOut := w.recordSend(seq, now.Add(time.Duration(seq)*time.Second))

		if seq < windowSize {
			assert.False(t, timedOut, "send %d should not report a timeout", seq)
		} else {
			assert.True(t, timedOut, "send %d should report a timeout", seq)
			assert.Equal(t, seq-windowSize, expired)
		}
	}
}

func TestWindowResolveMeasuresElapsed(t *testing.T) {
	w := &probeWindow{}
	sent := time.Now()

	_, timedOut := w.recordSend(3, sent)
	assert.False(t, timedOut)

	rtt, ok := w.resolve(3, sent.Add(42*time.Millisecond))
	assert.True(t, ok)
	assert.Equal(t, 42*time.Millisecond, rtt)
}

// TestWindowDuplicateReply resolves the same sequence twice, the second
// time against an already cleared slot.
func TestWindowDuplicateReply(t *testing.T) {
	w := &probeWindow{}
	sent := time.Now()

	w.recordSend(3, sent)

	_, ok := w.resolve(3, sent.Add(time.Millisecond))
	assert.True(t, ok)

	_, ok = w.resolve(3, sent.Add(2*time.Millisecond))
	assert.False(t, ok, "a reply for a cleared slot must not match")
}

// TestWindowStaleReply checks that a reply whose distance from the last
// sent sequence is the window size or more never matches, even though its
// residue slot is occupied by a newer probe.
func TestWindowStaleReply(t *testing.T) {
	w := &probeWindow{}
	now := time.Now()

	for seq := uint16(0); seq <= 10; seq++ {
		w.recordSend(seq, now)
	}

	// seq 5 is exactly windowSize behind the last sent sequence 10
	_, ok := w.resolve(5, now)
	assert.False(t, ok)

	// seq 6 is still inside the live window
	_, ok = w.resolve(6, now)
	assert.True(t, ok)
}

func TestWindowFutureReply(t *testing.T) {
	w := &probeWindow{}
	now := time.Now()

	w.recordSend(1, now)

	_, ok := w.resolve(2, now)
	assert.False(t, ok, "a reply for a never-sent sequence must not match")
}

// TestWindowSequenceWrap walks the window across the uint16 wrap point.
func TestWindowSequenceWrap(t *testing.T) {
	w := &probeWindow{}
	now := time.Now()

	for i := 0; i < 10; i++ {
		seq := uint16(0xfffb) + uint16(i) // wraps past 0xffff
		w.recordSend(seq, now)

		rtt, ok := w.resolve(seq, now.Add(time.Millisecond))
		assert.True(t, ok, "reply for seq %d should match", seq)
		assert.Equal(t, time.Millisecond, rtt)
	}
}

func TestWindowPending(t *testing.T) {
	w := &probeWindow{}
	now := time.Now()

	assert.Equal(t, 0, w.pending())

	w.recordSend(0, now)
	w.recordSend(1, now)
	assert.Equal(t, 2, w.pending())

	w.resolve(0, now)
	assert.Equal(t, 1, w.pending())
}
