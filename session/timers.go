package session

import (
	"time"

	"github.com/recurry/versafix/config"
)

// timers tracks the three deadline-driven session-layer obligations of
// §4.7: heartbeat-on-idle-outbound, test-request-on-idle-inbound, and the
// logout-reply timeout started by HandleShutdown. Adapted from
// coreengine/kernel/interrupts.go's TTL/expiry idiom (a deadline computed
// once, checked against the clock on each poll) simplified from a
// multi-entry store down to the three fixed deadlines a session needs.
type timers struct {
	cfg *config.SessionConfig

	lastOutboundAt time.Time
	lastInboundAt  time.Time

	testRequestSent bool
	testRequestAt   time.Time

	logoutDeadline time.Time
	logoutPending  bool
}

func newTimers(cfg *config.SessionConfig, now time.Time) *timers {
	return &timers{cfg: cfg, lastOutboundAt: now, lastInboundAt: now}
}

func (t *timers) markOutbound(now time.Time) { t.lastOutboundAt = now }

func (t *timers) markInbound(now time.Time) {
	t.lastInboundAt = now
	t.testRequestSent = false
}

// heartbeatDue reports whether HeartBtInt has elapsed since the last
// outbound message.
func (t *timers) heartbeatDue(now time.Time) bool {
	return now.Sub(t.lastOutboundAt) >= t.cfg.HeartBtInt
}

// testRequestDue reports whether the idle-inbound threshold
// (TestRequestFactor * HeartBtInt) has elapsed and no TestRequest has been
// sent yet for the current idle period.
func (t *timers) testRequestDue(now time.Time) bool {
	if t.testRequestSent {
		return false
	}
	threshold := time.Duration(float64(t.cfg.HeartBtInt) * t.cfg.TestRequestFactor)
	return now.Sub(t.lastInboundAt) >= threshold
}

func (t *timers) markTestRequestSent(now time.Time) {
	t.testRequestSent = true
	t.testRequestAt = now
}

// testRequestTimedOut reports whether a Heartbeat reply failed to arrive
// within one more HeartBtInt after the TestRequest was sent.
func (t *timers) testRequestTimedOut(now time.Time) bool {
	if !t.testRequestSent {
		return false
	}
	return now.Sub(t.testRequestAt) >= t.cfg.HeartBtInt
}

func (t *timers) startLogoutTimer(now time.Time) {
	t.logoutPending = true
	t.logoutDeadline = now.Add(t.cfg.LogoutTimeout)
}

func (t *timers) logoutTimedOut(now time.Time) bool {
	return t.logoutPending && !now.Before(t.logoutDeadline)
}
