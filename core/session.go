package core

import (
	"errors"
	"fmt"
	"net"
	"os"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// rawPacket is one datagram read from the socket, handed from the poll
// goroutine to the session loop.
type rawPacket struct {
	content []byte
	length  int
}

// Session is a sequence of echo probes against a single target. All of
// its mutable state (sequence counter, probe window) belongs to the event
// loop in Run; handlers are called from that same loop.
type Session struct {
	settings *Settings

	// id is the ICMP identifier of every probe in this session, used to
	// tell our replies apart from other ping processes sharing the raw
	// socket type. It is the process id truncated to 16 bits.
	id uint16

	// lastSeq is the sequence number of the last sent echo request.
	// It is advanced by exactly one per probe, which the window's
	// timeout inference depends on.
	lastSeq uint16

	// totalSent is the number of probes sent so far.
	totalSent int

	// window tracks in-flight probes, measures RTTs and surfaces
	// timeouts when a slot is about to be reused.
	window probeWindow

	// addr is the resolved target address.
	addr *net.IPAddr

	// conn is the raw socket collaborator. Left nil, Run opens the real
	// one; tests inject a fake.
	conn PacketConn

	// logger is an instance of logrus used to log activities related to
	// this session.
	logger *log.Logger

	// finishReqs carries a request to end the run: nil for a clean stop,
	// an error for a fatal condition that Run should return.
	finishReqs chan error

	// done is closed when the session is shutting down, releasing the
	// poll goroutine.
	done chan struct{}

	isStarted  bool
	isFinished bool

	// rtHandlers are the callback functions called when a probe is
	// answered or declared timed out.
	rtHandlers []func(*Session, *RoundTrip)

	// stHandlers are the callback functions called when the session starts.
	stHandlers []func(*Session)

	// endHandlers are the callback functions called when the session ends.
	endHandlers []func(*Session)
}

// NewSession creates a new Session against the given address.
func NewSession(address string, settings *Settings) (*Session, error) {
	logger := NewLogger(settings.LoggingLevel)

	logger.Debug("Validating settings")
	if err := settings.validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}

	logger.Infof("Resolving address %s", address)
	ipaddr, err := net.ResolveIPAddr("ip", address)
	if err != nil {
		return nil, fmt.Errorf("error while resolving address %s: %w", address, err)
	}

	if !isIPv4(ipaddr.IP) {
		return nil, fmt.Errorf("address %s resolved to %s, only IPv4 targets are supported", address, ipaddr)
	}

	logger.Infof("Address %s resolved to IP address %s", address, ipaddr)

	session := &Session{
		settings:   settings,
		id:         uint16(os.Getpid()),
		lastSeq:    0,
		addr:       ipaddr,
		logger:     logger,
		finishReqs: make(chan error, 1),
		done:       make(chan struct{}),
		isStarted:  false,
		isFinished: false,
	}

	logger.Infof("Created session with id %d, addr %s", session.id, session.addr)

	return session, nil
}

// Run executes the sequence of pings until a stop is requested, a limit
// is hit or a fatal I/O error occurs.
func (s *Session) Run() error {
	if s.isFinished {
		return fmt.Errorf("this session has already finished")
	}
	if s.isStarted {
		return fmt.Errorf("this session has already started")
	}
	s.isStarted = true

	if s.conn == nil {
		s.logger.Infof("Opening raw ICMP socket with TTL %d", s.settings.TTL)
		conn, err := newRawConn(s.settings.TTL)
		if err != nil {
			return err
		}
		s.conn = conn
	}
	defer s.conn.Close()

	s.logger.Info("Calling start callbacks")
	for _, f := range s.stHandlers {
		f(s)
	}

	// fires immediately when the deadline config is inactive, the handler
	// ignores it in that case
	deadline := time.NewTimer(s.settings.deadline())
	defer clearTimer(deadline)

	// zero duration so the first probe goes out right away, reset to the
	// configured interval after every send
	interval := time.NewTimer(0)
	defer clearTimer(interval)

	// channel that will stream all incoming datagrams
	rawPackets := make(chan *rawPacket, windowSize)

	s.logger.Info("Calling goroutine to poll for incoming datagrams")
	var wg sync.WaitGroup
	wg.Add(1)
	go s.pollConnection(&wg, rawPackets)

	for {
		select {
		case <-deadline.C:
			s.handleDeadlineTimer()
		case <-interval.C:
			s.handleIntervalTimer(interval)
		case raw := <-rawPackets:
			s.handleRawPacket(raw)
		case err := <-s.finishReqs:
			return s.handleFinishRequest(err, &wg)
		}
	}
}

// RequestStop requests the stop of the execution of the session
func (s *Session) RequestStop() {
	if s.isFinished {
		return
	}

	s.logger.Info("Requesting to end session")
	s.requestFinish(nil)
}

// requestFinish queues a finish request unless one is already pending.
// The event loop is the only consumer, so a blocking send from within one
// of its own handlers could never complete.
func (s *Session) requestFinish(err error) {
	select {
	case s.finishReqs <- err:
	default:
		s.logger.Debug("Finish already requested, dropping request")
	}
}

// IsStarted returns whether this session is started
func (s *Session) IsStarted() bool {
	return s.isStarted
}

// IsFinished returns whether this session is finished
func (s *Session) IsFinished() bool {
	return s.isFinished
}

// Address is the resolved address of the target host in this session
func (s *Session) Address() net.IP {
	return s.addr.IP
}

// TotalSent is the number of probes sent so far.
func (s *Session) TotalSent() int {
	return s.totalSent
}

// AddOnRecv adds a handler function called when a probe is answered or
// declared timed out.
func (s *Session) AddOnRecv(handler func(*Session, *RoundTrip)) {
	s.rtHandlers = append(s.rtHandlers, handler)
}

// AddOnStart adds a handler function called when the session starts.
func (s *Session) AddOnStart(handler func(*Session)) {
	s.stHandlers = append(s.stHandlers, handler)
}

// AddOnFinish adds a handler function called when the session ends.
func (s *Session) AddOnFinish(handler func(*Session)) {
	s.endHandlers = append(s.endHandlers, handler)
}

// pollConnection constantly reads the socket and streams datagrams to the
// session loop. It exits when the session shuts down or the socket fails.
func (s *Session) pollConnection(wg *sync.WaitGroup, recv chan<- *rawPacket) {
	defer wg.Done()

	for {
		select {
		case <-s.done:
			s.logger.Info("Session is shutting down, ending poll")
			return
		default:
			buffer := make([]byte, mtu)

			length, err := s.conn.Read(buffer)
			if err != nil {
				if errors.Is(err, ErrReadTimeout) {
					continue
				}

				s.requestFinish(fmt.Errorf("error while reading from socket, finishing session: %w", err))
				return
			}

			s.logger.Tracef("Read datagram %x", buffer[:length])

			select {
			case recv <- &rawPacket{content: buffer, length: length}:
			case <-s.done:
				return
			}
		}
	}
}

// handleDeadlineTimer ends the session once the configured deadline has
// passed. The timer also fires when no deadline was configured, in which
// case it is ignored.
func (s *Session) handleDeadlineTimer() {
	s.logger.Info("Deadline timer has fired")

	if !s.settings.isDeadlineActive() {
		s.logger.Info("Ignoring deadline timer because the deadline config has not been activated")
		return
	}

	s.logger.Info("Requesting to finish the session")
	s.requestFinish(nil)
}

// handleIntervalTimer sends the next probe. Before the send time is
// recorded, the window slot being reclaimed tells us whether the probe
// five sequences back was ever answered; if not, it is reported as timed
// out now.
func (s *Session) handleIntervalTimer(interval *time.Timer) {
	s.logger.Info("Interval timer has fired")

	if s.reachedRequestLimit() {
		// drain interval after the last probe has passed
		s.logger.Info("Probe count limit reached, requesting to finish the session")
		s.requestFinish(nil)
		return
	}

	s.lastSeq++
	now := time.Now()

	if expired, timedOut := s.window.recordSend(s.lastSeq, now); timedOut {
		s.logger.Infof("Probe with seq %d was never answered, reporting timeout", expired)
		s.processRoundTrip(buildTimedOutRT(expired))
	}

	req := &EchoRequest{
		ID:        s.id,
		Seq:       s.lastSeq,
		Timestamp: uint64(now.UnixNano()),
	}

	s.logger.Infof("Sending echo request with id %d, seq %d to %s", req.ID, req.Seq, s.addr)
	if err := s.conn.WriteTo(req.Marshal(), s.addr.IP); err != nil {
		s.requestFinish(fmt.Errorf("error while sending echo request: %w", err))
		return
	}

	s.totalSent++
	interval.Reset(s.settings.interval())
}

// handleRawPacket validates an incoming datagram and, when it matches an
// in-flight probe of this session, reports the measured round trip.
// Unrelated or malformed traffic is normal on a raw ICMP socket and is
// dropped quietly.
func (s *Session) handleRawPacket(raw *rawPacket) {
	now := time.Now()

	reply, ttl, err := parseDatagram(raw.content[:raw.length])
	if err != nil {
		s.logger.Debugf("Dropping datagram: %s", err)
		return
	}

	if reply.ID != s.id {
		s.logger.Debugf("Dropping echo reply for id %d, ours is %d", reply.ID, s.id)
		return
	}

	rtt, ok := s.window.resolve(reply.Seq, now)
	if !ok {
		s.logger.Debugf("Dropping reply with seq %d outside the live window", reply.Seq)
		return
	}

	s.processRoundTrip(&RoundTrip{
		TTL:  ttl,
		Seq:  reply.Seq,
		Len:  raw.length,
		Time: rtt,
		Res:  Replied,
	})
}

// handleFinishRequest tears the session down and decides Run's return
// value. Fatal errors are returned to the caller, which owns the
// exit-versus-report decision.
func (s *Session) handleFinishRequest(err error, wg *sync.WaitGroup) error {
	s.logger.Info("Finish request received")

	close(s.done)
	wg.Wait() // waiting for polling to return

	s.logger.Info("Calling ending callbacks")
	for _, f := range s.endHandlers {
		f(s)
	}

	s.isFinished = true
	s.logger.Infof("Session ended, %d probes left unanswered", s.window.pending())
	return err
}

// reachedRequestLimit returns whether we have sent all probes this
// session was configured to send.
func (s *Session) reachedRequestLimit() bool {
	return s.settings.isMaxCountActive() && s.totalSent >= s.settings.MaxCount
}

// processRoundTrip calls all handlers for a round trip.
func (s *Session) processRoundTrip(rt *RoundTrip) {
	s.logger.Info("Calling all handlers for latest round trip")
	for _, f := range s.rtHandlers {
		f(s, rt)
	}
}
