// Package session implements the session state machine (§4.7): Logon
// negotiation, heartbeats, test requests, resend-gap recovery, and orderly
// logout, all serialized through one single-writer sequencer per session
// (§5). Grounded on coreengine/kernel/lifecycle.go's state-transition table
// and coreengine/kernel/interrupts.go's TTL-timer idiom, generalized from a
// generic process/interrupt model to FIX's specific session obligations.
package session

import (
	"strconv"
	"sync"
	"time"

	"github.com/recurry/versafix/codec"
	"github.com/recurry/versafix/config"
	"github.com/recurry/versafix/internal/idgen"
	"github.com/recurry/versafix/observability"
	"github.com/recurry/versafix/registry"
	"github.com/recurry/versafix/sessiondb"
	"github.com/recurry/versafix/wire"
)

// RxResult reports what HandleRxMessage did with one inbound buffer.
type RxResult struct {
	Kind          codec.ResultKind
	BytesConsumed int
	Delivered     bool
}

type pendingInbound struct {
	seq int
	msg *codec.Message
}

type sequenceOutcome struct {
	accept    bool
	buffered  bool
	duplicate bool
	violation bool
}

type job struct {
	fn   func()
	done chan struct{}
}

// Config bundles a Session's fixed collaborators at construction. All
// fields except Clock/Logger are required.
type Config struct {
	ID         string
	SessionCfg *config.SessionConfig
	Clock      Clock
	Logger     observability.Logger
	Store      *sessiondb.Store
	SxMatcher  *registry.VxMatcher
	AxMatcher  *registry.VxMatcher
	Dx         *registry.DxRegistry
	SxVersion  *registry.VersionRecord
	AxVersion  *registry.VersionRecord
	Transport  Transport
	App        Application
}

// Session is one FIX session: one SenderCompID-TargetCompID identity pair,
// one session-database lease, one sequencer goroutine. All state below the
// job channel is only ever touched from that sequencer, so it needs no lock
// of its own.
type Session struct {
	id  string
	cfg *config.SessionConfig

	clock  Clock
	logger observability.Logger

	store  *sessiondb.Store
	record *sessiondb.Record

	sxMatcher *registry.VxMatcher
	axMatcher *registry.VxMatcher
	dx        *registry.DxRegistry
	sxVersion *registry.VersionRecord
	axVersion *registry.VersionRecord

	assembler *codec.Assembler
	transport Transport
	app       Application

	timers *timers
	state  State

	resendActive bool
	resendUpper  int
	pending      []pendingInbound

	jobs chan job
	wg   sync.WaitGroup

	// stopped is set by Disconnect once jobs is closed; stopMu guards it.
	stopMu  sync.RWMutex
	stopped bool
}

// New acquires the session's database lease and starts its sequencer. The
// caller owns calling Disconnect when the transport connection ends.
func New(cfg Config) (*Session, error) {
	record, err := cfg.Store.AcquireSession(cfg.ID)
	if err != nil {
		return nil, err
	}
	clock := cfg.Clock
	if clock == nil {
		clock = SystemClock{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	s := &Session{
		id:        cfg.ID,
		cfg:       cfg.SessionCfg,
		clock:     clock,
		logger:    logger,
		store:     cfg.Store,
		record:    record,
		sxMatcher: cfg.SxMatcher,
		axMatcher: cfg.AxMatcher,
		dx:        cfg.Dx,
		sxVersion: cfg.SxVersion,
		axVersion: cfg.AxVersion,
		assembler: codec.NewAssembler(cfg.Dx),
		transport: cfg.Transport,
		app:       cfg.App,
		timers:    newTimers(cfg.SessionCfg, clock.Now()),
		state:     StateActive,
		jobs:      make(chan job, 64),
	}
	s.wg.Add(1)
	go s.run()
	return s, nil
}

func (s *Session) run() {
	defer s.wg.Done()
	for j := range s.jobs {
		j.fn()
		close(j.done)
	}
}

// do runs fn on the sequencer and blocks until it completes, giving callers
// a synchronous API while preserving per-session ordering. After Disconnect
// has stopped the sequencer, fn runs directly on the caller's goroutine.
func (s *Session) do(fn func()) {
	s.stopMu.RLock()
	defer s.stopMu.RUnlock()
	if s.stopped {
		fn()
		return
	}
	j := job{fn: fn, done: make(chan struct{})}
	s.jobs <- j
	<-j.done
}

// ID returns the session identifier (SenderCompID-TargetCompID).
func (s *Session) ID() string { return s.id }

// State returns the current state machine state.
func (s *Session) State() State {
	var st State
	s.do(func() { st = s.state })
	return st
}

// Record returns a snapshot of the session database record.
func (s *Session) Record() sessiondb.Record {
	var r sessiondb.Record
	s.do(func() { r = *s.record })
	return r
}

func (s *Session) transitionTo(to State) bool {
	if !IsValidTransition(s.state, to) {
		return false
	}
	from := s.state
	s.state = to
	observability.RecordSessionTransition(string(from), string(to))
	return true
}

func (s *Session) forceShutdown() {
	if s.state == StateShutdown {
		return
	}
	from := s.state
	s.state = StateShutdown
	observability.RecordSessionTransition(string(from), string(StateShutdown))
}

// HandleRxMessage parses one inbound buffer and runs it through the
// session-layer sequence check and admin/application dispatch.
func (s *Session) HandleRxMessage(buf []byte) RxResult {
	var out RxResult
	s.do(func() { out = s.handleRxMessage(buf) })
	return out
}

func (s *Session) handleRxMessage(buf []byte) RxResult {
	if s.state == StateClosed || s.state == StateShutdown {
		return RxResult{Kind: codec.ResultExhausted}
	}

	started := time.Now()
	result := codec.Parse(buf, codec.ParserConfig{
		SxMatcher:              s.sxMatcher,
		AxMatcher:              s.axMatcher,
		Dx:                     s.dx,
		StrictGroupTermination: s.cfg.StrictGroupTermination,
	})
	observability.RecordParse(string(result.Kind), msgTypeOf(result.Message), time.Since(started).Seconds())

	switch result.Kind {
	case codec.ResultComplete:
		s.timers.markInbound(s.clock.Now())
		s.dispatchInbound(result.Message)
		return RxResult{Kind: result.Kind, BytesConsumed: result.BytesConsumed, Delivered: true}
	case codec.ResultExhausted:
		return RxResult{Kind: result.Kind}
	default:
		s.logger.Warn("session: disconnecting on parse failure", "session", s.id, "kind", string(result.Kind), "detail", result.Detail)
		s.fail(newProtocolViolationError(s.id))
		return RxResult{Kind: result.Kind, BytesConsumed: result.BytesConsumed}
	}
}

func msgTypeOf(msg *codec.Message) string {
	if msg == nil {
		return ""
	}
	t, _ := msg.MsgType()
	return t
}

func (s *Session) dispatchInbound(msg *codec.Message) {
	msgType, _ := msg.MsgType()
	seqStr, hasSeq := msg.FieldValue(tagMsgSeqNum)

	if s.state == StateActive {
		s.handlePreLogon(msg, msgType, seqStr, hasSeq)
		return
	}

	if !hasSeq {
		s.fail(newProtocolViolationError(s.id))
		return
	}
	seqNum, ok := codec.AsInt(seqStr)
	if !ok {
		s.fail(newProtocolViolationError(s.id))
		return
	}
	possDup := false
	if v, ok := msg.FieldValue(tagPossDupFlag); ok {
		possDup = v == "Y"
	}

	outcome := s.checkSequence(seqNum, possDup)
	switch {
	case outcome.violation:
		s.sendLogout("MsgSeqNum too low")
		s.transitionTo(StateClosing)
		return
	case outcome.duplicate:
		return
	case outcome.buffered:
		if s.cfg.ResendGapBufferLimit > 0 && len(s.pending) >= s.cfg.ResendGapBufferLimit {
			s.fail(newSequenceGapError(s.id, s.record.RxSequence, seqNum))
			return
		}
		s.pending = append(s.pending, pendingInbound{seq: seqNum, msg: msg})
		return
	}

	s.processAccepted(msg, msgType)
	s.drainPending()
	s.persistRecord()
}

// persistRecord writes the in-memory record to disk without releasing the
// session's lease, when configured to journal sequence state on every
// accepted message rather than only at Disconnect (§9 open question).
func (s *Session) persistRecord() {
	if !s.cfg.JournalEveryInbound {
		return
	}
	if err := s.store.SyncRecord(s.id, s.record); err != nil {
		s.logger.Error("session: record sync failed", "session", s.id, "error", err)
	}
}

// handlePreLogon requires the very first inbound message to be a Logon
// whose MsgSeqNum matches the session's recorded expectation (§4.7
// "Active → Opened on successful LOGON exchange").
func (s *Session) handlePreLogon(msg *codec.Message, msgType, seqStr string, hasSeq bool) {
	if msgType != msgTypeLogon || !hasSeq {
		s.fail(newProtocolViolationError(s.id))
		return
	}
	seqNum, ok := codec.AsInt(seqStr)
	if !ok || seqNum != s.record.RxSequence {
		s.fail(newSequenceTooLowError(s.id, s.record.RxSequence, seqNum))
		return
	}
	s.record.RxSequence++

	if hb, ok := msg.FieldValue(tagHeartBtInt); ok {
		if secs, ok := codec.AsInt(hb); ok {
			s.cfg.HeartBtInt = time.Duration(secs) * time.Second
		}
	}
	if !s.transitionTo(StateOpened) {
		s.fail(newProtocolViolationError(s.id))
		return
	}
	s.persistRecord()
	s.app.OnSessionOpened(s.id)
	s.app.OnSessionLogon(msg)
	s.replyLogon()
}

func (s *Session) replyLogon() {
	hb := int(s.cfg.HeartBtInt.Seconds())
	s.sendAdmin(msgTypeLogon, map[int]string{tagHeartBtInt: strconv.Itoa(hb)})
}

// checkSequence implements §4.7's gap/violation/resend rules. expected is
// the next MsgSeqNum the session will accept.
func (s *Session) checkSequence(seqNum int, possDup bool) sequenceOutcome {
	expected := s.record.RxSequence
	switch {
	case seqNum == expected:
		s.record.RxSequence++
		if s.resendActive && s.record.RxSequence > s.resendUpper {
			s.resendActive = false
		}
		return sequenceOutcome{accept: true}
	case seqNum > expected:
		if !s.resendActive {
			s.resendActive = true
			s.resendUpper = seqNum - 1
			s.sendResendRequest(expected, seqNum-1)
			observability.RecordSequenceGap()
		}
		return sequenceOutcome{buffered: true}
	default:
		if !possDup {
			return sequenceOutcome{violation: true}
		}
		if !s.resendActive {
			return sequenceOutcome{duplicate: true}
		}
		s.record.RxSequence++
		if s.record.RxSequence > s.resendUpper {
			s.resendActive = false
		}
		return sequenceOutcome{accept: true}
	}
}

// drainPending delivers buffered out-of-order messages that a resend
// recovery has now made contiguous with the expected sequence (§8 scenario
// 3: "8 is accepted; buffered messages follow").
func (s *Session) drainPending() {
	for {
		idx := -1
		for i, p := range s.pending {
			if p.seq == s.record.RxSequence {
				idx = i
				break
			}
		}
		if idx < 0 {
			return
		}
		p := s.pending[idx]
		s.pending = append(s.pending[:idx:idx], s.pending[idx+1:]...)
		s.record.RxSequence++
		if s.resendActive && s.record.RxSequence > s.resendUpper {
			s.resendActive = false
		}
		msgType, _ := p.msg.MsgType()
		s.processAccepted(p.msg, msgType)
	}
}

func (s *Session) processAccepted(msg *codec.Message, msgType string) {
	if isAdminMsgType(msgType) {
		s.handleAdminMessage(msg, msgType)
		s.app.OnSessionRxAdmMessage(msg)
		return
	}
	s.app.OnSessionRxAppMessage(msg)
}

func (s *Session) handleAdminMessage(msg *codec.Message, msgType string) {
	switch msgType {
	case msgTypeTestRequest:
		reqID, _ := msg.FieldValue(tagTestReqID)
		s.sendAdmin(msgTypeHeartbeat, map[int]string{tagTestReqID: reqID})
	case msgTypeResendRequest:
		begin, _ := msg.FieldValue(tagBeginSeqNo)
		end, _ := msg.FieldValue(tagEndSeqNo)
		s.handleResendRequest(begin, end)
	case msgTypeSequenceReset:
		s.handleSequenceReset(msg)
	case msgTypeLogout:
		s.app.OnSessionLogout(msg)
		if s.state == StateClosing {
			s.transitionTo(StateClosed)
			return
		}
		s.sendLogout("")
		s.transitionTo(StateClosed)
	case msgTypeHeartbeat:
		// markInbound already recorded by handleRxMessage; nothing further.
	}
}

// handleSequenceReset applies GapFill(123=Y) by jumping the expected Rx
// counter directly to NewSeqNo(36) without delivering intermediate
// messages (§4.7). A SequenceReset without GapFill is a hard reset, applied
// the same way: this implementation doesn't distinguish the two because
// neither delivers intermediate messages.
func (s *Session) handleSequenceReset(msg *codec.Message) {
	newSeqStr, ok := msg.FieldValue(tagNewSeqNo)
	if !ok {
		return
	}
	newSeq, ok := codec.AsInt(newSeqStr)
	if !ok || newSeq < s.record.RxSequence {
		return
	}
	s.record.RxSequence = newSeq
	if s.resendActive && s.record.RxSequence > s.resendUpper {
		s.resendActive = false
	}
	s.drainPending()
	s.persistRecord()
}

// handleResendRequest answers a peer's ResendRequest(35=2). The session
// database only exposes sequence bookkeeping, not a per-sequence replay of
// previously journaled payloads, so this engine answers with an
// administrative GapFill rather than resending original bytes -- a
// pragmatic fallback FIX permits when true message replay isn't available.
func (s *Session) handleResendRequest(beginStr, endStr string) {
	end, ok := codec.AsInt(endStr)
	if !ok || end == 0 {
		end = s.record.TxSequence - 1
	}
	_, _ = codec.AsInt(beginStr)
	s.sendAdmin(msgTypeSequenceReset, map[int]string{
		tagNewSeqNo:    strconv.Itoa(end + 1),
		tagGapFillFlag: "Y",
	})
}

func (s *Session) sendResendRequest(begin, end int) {
	s.sendAdmin(msgTypeResendRequest, map[int]string{
		tagBeginSeqNo: strconv.Itoa(begin),
		tagEndSeqNo:   strconv.Itoa(end),
	})
	observability.RecordResendRequestSent()
}

func (s *Session) sendLogout(reason string) {
	fields := map[int]string{}
	if reason != "" {
		fields[tagText] = reason
	}
	s.sendAdmin(msgTypeLogout, fields)
}

func (s *Session) sendAdmin(msgType string, fields map[int]string) {
	if err := s.send(msgType, fields); err != nil {
		s.logger.Error("session: failed to send admin message", "session", s.id, "msg_type", msgType, "error", err)
	}
}

// HandleTxMessage is the application-facing outbound path (§4.7): stamps
// MsgSeqNum/SendingTime/SenderCompID/TargetCompID, serializes, journals,
// increments txSequence, and emits via the transport.
func (s *Session) HandleTxMessage(msgType string, fields map[int]string) error {
	var err error
	s.do(func() { err = s.send(msgType, fields) })
	return err
}

func (s *Session) send(msgType string, fields map[int]string) error {
	if s.state != StateOpened && s.state != StateClosing {
		return newProtocolViolationError(s.id)
	}
	s.assembler.Set(wire.TagBeginString, s.sxVersion.BeginString)
	s.assembler.Set(tagMsgSeqNum, strconv.Itoa(s.record.TxSequence))
	s.assembler.Set(tagSendingTime, codec.FormatUTCTimestamp(s.clock.Now()))
	s.assembler.Set(tagSenderCompID, s.record.SenderCompID)
	s.assembler.Set(tagTargetCompID, s.record.TargetCompID)
	for tag, v := range fields {
		s.assembler.Set(tag, v)
	}
	msg, err := s.assembler.CreateMessage(s.sxVersion, s.axVersion, msgType)
	s.assembler.Reset()
	if err != nil {
		return err
	}
	return s.transmit(msg)
}

// transmit implements the journal/emit sequence common to every message this
// session sends, admin or application (§4.7 "Outbound path"). send already
// staged MsgSeqNum/SendingTime/SenderCompID/TargetCompID into the assembler
// scratch before CreateMessage ran, so PopulateHeader's Reorder installed
// them at their dictionary positions; transmit stamps nothing itself. It
// serializes, journals, advances TxSequence, sends via the transport and
// fires the Tx callback.
func (s *Session) transmit(msg *codec.Message) error {
	payload := msg.Serialize()

	started := time.Now()
	err := s.store.AddMessage(s.id, payload)
	observability.RecordJournalWrite(err == nil, time.Since(started).Seconds())
	if err != nil {
		s.logger.Error("session: journal write failed, shutting down", "session", s.id, "error", err)
		s.forceShutdown()
		s.app.OnSessionClosed(s.id)
		return err
	}

	s.record.TxSequence++
	s.timers.markOutbound(s.clock.Now())
	s.persistRecord()

	if err := s.transport.Send(payload); err != nil {
		return err
	}

	msgType, _ := msg.MsgType()
	switch msgType {
	case msgTypeHeartbeat:
		observability.RecordHeartbeatSent()
	case msgTypeTestRequest:
		observability.RecordTestRequestSent()
	}
	if isAdminMsgType(msgType) {
		s.app.OnSessionTxAdmMessage(msg)
	} else {
		s.app.OnSessionTxAppMessage(msg)
	}
	return nil
}

// Tick drives the heartbeat/test-request/logout timers; callers (the
// engine's cleanup loop) invoke it periodically for every live session.
func (s *Session) Tick() {
	s.do(func() { s.tick() })
}

func (s *Session) tick() {
	now := s.clock.Now()

	if s.state == StateClosing {
		if s.timers.logoutTimedOut(now) {
			s.logger.Warn("session: logout timeout, forcing closed", "session", s.id)
			s.transitionTo(StateClosed)
		}
		return
	}
	if s.state != StateOpened {
		return
	}

	if s.timers.testRequestTimedOut(now) {
		s.app.OnSessionTimeout(s.id, "test_request_timeout")
		s.sendLogout("Test Request Timeout")
		s.transitionTo(StateClosing)
		s.timers.startLogoutTimer(now)
		return
	}
	if s.timers.testRequestDue(now) {
		s.timers.markTestRequestSent(now)
		s.sendAdmin(msgTypeTestRequest, map[int]string{tagTestReqID: idgen.New("treq")})
		return
	}
	if s.timers.heartbeatDue(now) {
		s.sendAdmin(msgTypeHeartbeat, nil)
	}
}

// HandleShutdown requests graceful closure (§4.7 "Opened → Closing on
// local HandleShutdown"): a Logout is sent and the logout timer starts.
func (s *Session) HandleShutdown() {
	s.do(func() {
		if s.state != StateOpened {
			return
		}
		s.sendLogout("")
		s.timers.startLogoutTimer(s.clock.Now())
		s.transitionTo(StateClosing)
	})
}

func (s *Session) fail(err error) {
	s.logger.Warn("session: forcing shutdown", "session", s.id, "error", err)
	s.forceShutdown()
	s.teardown()
}

func (s *Session) teardown() {
	if err := s.store.ReleaseSession(s.id, s.record); err != nil {
		s.logger.Error("session: release failed", "session", s.id, "error", err)
	}
	s.app.OnSessionClosed(s.id)
}

// Disconnect tears the session down on transport loss (§4.7 "Closed →
// Shutdown on transport disconnect"), releasing its session-database lease
// and stopping its sequencer. Safe to call from any state.
func (s *Session) Disconnect() {
	s.do(func() {
		if s.state == StateShutdown {
			return
		}
		if !s.transitionTo(StateShutdown) {
			s.forceShutdown()
		}
		s.teardown()
	})
	s.stopMu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.jobs)
	}
	s.stopMu.Unlock()
	s.wg.Wait()
}
