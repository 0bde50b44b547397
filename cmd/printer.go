package cmd

import (
	"fmt"
	"time"

	"github.com/echoping/echoping/core"
)

func printOnStart(s *core.Session) {
	fmt.Printf("PING %s with 16 bytes of data\n", s.Address())
}

func printOnRoundTrip(s *core.Session, rt *core.RoundTrip) {
	switch rt.Res {
	case core.Replied:
		ms := float64(rt.Time) / float64(time.Millisecond)
		fmt.Printf("reply seq=%d ttl=%d time=%.2fms\n", rt.Seq, rt.TTL, ms)
	case core.TimedOut:
		fmt.Printf("timeout seq=%d\n", rt.Seq)
	}
}
