package session

import (
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recurry/versafix/codec"
	"github.com/recurry/versafix/config"
	"github.com/recurry/versafix/sessiondb"
)

// memTransport is an in-memory Transport double capturing every payload
// handed to Send, standing in for a real socket.
type memTransport struct {
	mu     sync.Mutex
	out    [][]byte
	parser codec.ParserConfig
}

func (m *memTransport) Send(payload []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := append([]byte(nil), payload...)
	m.out = append(m.out, cp)
	return nil
}

func (m *memTransport) messages() []*codec.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*codec.Message, 0, len(m.out))
	for _, raw := range m.out {
		res := codec.Parse(raw, m.parser)
		if res.Kind == codec.ResultComplete {
			out = append(out, res.Message)
		}
	}
	return out
}

// appRecorder is an Application double recording every callback invocation
// in order, for assertion.
type appRecorder struct {
	mu     sync.Mutex
	events []string
}

func (r *appRecorder) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, name)
}

func (r *appRecorder) has(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e == name {
			return true
		}
	}
	return false
}

func (r *appRecorder) OnSessionOpened(string)               { r.record("opened") }
func (r *appRecorder) OnSessionLogon(*codec.Message)        { r.record("logon") }
func (r *appRecorder) OnSessionLogout(*codec.Message)       { r.record("logout") }
func (r *appRecorder) OnSessionRxAdmMessage(*codec.Message) { r.record("rx_adm") }
func (r *appRecorder) OnSessionRxAppMessage(*codec.Message) { r.record("rx_app") }
func (r *appRecorder) OnSessionTxAdmMessage(*codec.Message) { r.record("tx_adm") }
func (r *appRecorder) OnSessionTxAppMessage(*codec.Message) { r.record("tx_app") }
func (r *appRecorder) OnSessionTimeout(string, string)      { r.record("timeout") }
func (r *appRecorder) OnSessionClosed(string)               { r.record("closed") }

func newTestSession(t *testing.T, clock *FakeClock, app *appRecorder, transport *memTransport) *Session {
	t.Helper()
	sxMatcher, axMatcher, dx, sxVersion, axVersion := buildSessionFixture(t)
	transport.parser = codec.ParserConfig{SxMatcher: sxMatcher, AxMatcher: axMatcher, Dx: dx}
	dir := t.TempDir()
	store := sessiondb.NewStore(dir, nil)

	cfg := config.DefaultSessionConfig()
	cfg.HeartBtInt = time.Second
	cfg.LogoutTimeout = time.Second

	sess, err := New(Config{
		ID:         "CLIENT-SERVER",
		SessionCfg: cfg,
		Clock:      clock,
		Store:      store,
		SxMatcher:  sxMatcher,
		AxMatcher:  axMatcher,
		Dx:         dx,
		SxVersion:  sxVersion,
		AxVersion:  axVersion,
		Transport:  transport,
		App:        app,
	})
	require.NoError(t, err)
	return sess
}

func logonBytes(seq int) []byte {
	return buildFixMessage("35=A|34=" + strconv.Itoa(seq) + "|49=CLIENT|56=SERVER|98=0|108=1|")
}

func TestLogonExchangeOpensSession(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)

	result := sess.HandleRxMessage(logonBytes(1))
	require.Equal(t, codec.ResultComplete, result.Kind)
	require.Equal(t, StateOpened, sess.State())
	require.True(t, app.has("opened"))
	require.True(t, app.has("logon"))

	record := sess.Record()
	require.Equal(t, 2, record.TxSequence)
	require.Equal(t, 2, record.RxSequence)

	msgs := transport.messages()
	require.Len(t, msgs, 1)
	mt, _ := msgs[0].MsgType()
	require.Equal(t, "A", mt)
}

func TestMalformedChecksumDisconnects(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)

	buf := buildFixMessage("35=0|34=2|49=CLIENT|56=SERVER|")
	buf[len(buf)-2] = '9' // corrupt checksum digit
	result := sess.HandleRxMessage(buf)
	require.Equal(t, codec.ResultMalformed, result.Kind)
	require.Equal(t, StateShutdown, sess.State())
	require.True(t, app.has("closed"))
}

func TestHeartbeatDueSendsHeartbeat(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)

	// Past heartbeatDue's 1s threshold but short of testRequestDue's 1.2s
	// idle-inbound threshold, so only the heartbeat fires.
	clock.Advance(1100 * time.Millisecond)
	sess.Tick()

	msgs := transport.messages()
	last, _ := msgs[len(msgs)-1].MsgType()
	require.Equal(t, "0", last)
}

func TestTestRequestTimeoutForcesLogoutClosing(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)

	clock.Advance(1200 * time.Millisecond)
	sess.Tick()
	msgs := transport.messages()
	last, _ := msgs[len(msgs)-1].MsgType()
	require.Equal(t, "1", last, "expected TestRequest after idle-inbound threshold")

	clock.Advance(1100 * time.Millisecond)
	sess.Tick()
	require.Equal(t, StateClosing, sess.State())
	require.True(t, app.has("timeout"))

	msgs = transport.messages()
	last, _ = msgs[len(msgs)-1].MsgType()
	require.Equal(t, "5", last, "expected Logout after TestRequest timeout")
}

func TestResendGapRecovery(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)
	require.Equal(t, 2, sess.Record().RxSequence)

	// Expected next is 2; a message arrives claiming 4: gap [2,3].
	gapMsg := buildFixMessage("35=D|34=4|49=CLIENT|56=SERVER|11=ord-4|")
	result := sess.HandleRxMessage(gapMsg)
	require.Equal(t, codec.ResultComplete, result.Kind)
	require.Equal(t, 2, sess.Record().RxSequence, "sequence must not advance on a buffered gap message")

	msgs := transport.messages()
	last, _ := msgs[len(msgs)-1].MsgType()
	require.Equal(t, "2", last, "expected ResendRequest for the gap")

	fill2 := buildFixMessage("35=D|34=2|43=Y|49=CLIENT|56=SERVER|11=ord-2|")
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(fill2).Kind)
	require.Equal(t, 3, sess.Record().RxSequence)

	fill3 := buildFixMessage("35=D|34=3|43=Y|49=CLIENT|56=SERVER|11=ord-3|")
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(fill3).Kind)

	// Filling 2 and 3 must drain the buffered 4, landing Rx at 5.
	require.Equal(t, 5, sess.Record().RxSequence)
	require.True(t, app.has("rx_app"))
}

func TestHandleShutdownThenInboundLogoutCloses(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)

	sess.HandleShutdown()
	require.Equal(t, StateClosing, sess.State())

	logoutMsg := buildFixMessage("35=5|34=2|49=CLIENT|56=SERVER|")
	result := sess.HandleRxMessage(logoutMsg)
	require.Equal(t, codec.ResultComplete, result.Kind)
	require.Equal(t, StateClosed, sess.State())
	require.True(t, app.has("logout"))
}

func TestDisconnectReleasesLeaseAndStopsSequencer(t *testing.T) {
	clock := NewFakeClock(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
	app := &appRecorder{}
	transport := &memTransport{}
	sess := newTestSession(t, clock, app, transport)
	require.Equal(t, codec.ResultComplete, sess.HandleRxMessage(logonBytes(1)).Kind)

	sess.Disconnect()
	require.Equal(t, StateShutdown, sess.State())
	require.True(t, app.has("closed"))
}
