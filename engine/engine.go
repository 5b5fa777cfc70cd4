// Package engine composes the session-database, registry, and session
// layers into a running pool: one Session per bound connection, transport
// token binding from an unidentified Conn to a session identity, and a
// periodic cleanup tick across every live session. Grounded on
// coreengine/kernel/kernel.go's composition-root shape (a struct aggregating
// subsystems behind accessor methods, built once via a New* constructor),
// narrowed from a general process kernel to a pool of FIX sessions.
package engine

import (
	"sync"

	"github.com/recurry/versafix/config"
	"github.com/recurry/versafix/observability"
	"github.com/recurry/versafix/registry"
	"github.com/recurry/versafix/session"
	"github.com/recurry/versafix/sessiondb"
	"github.com/recurry/versafix/wire"
)

// Config bundles an Engine's fixed collaborators. SxVersion/AxVersion are
// shared across every session this engine opens; §B.3/Non-goals exclude
// per-session app-version negotiation beyond the dictionary model, so one
// pair suffices for the whole pool.
type Config struct {
	EngineCfg *config.EngineConfig
	Store     *sessiondb.Store
	Dx        *registry.DxRegistry
	SxMatcher *registry.VxMatcher
	AxMatcher *registry.VxMatcher
	SxVersion *registry.VersionRecord
	AxVersion *registry.VersionRecord
	Clock     session.Clock
	Logger    observability.Logger
	App       session.Application
}

// Engine is a pool of live sessions sharing one SessionDb store and one
// dictionary/registry set.
type Engine struct {
	cfg *config.EngineConfig

	store     *sessiondb.Store
	dx        *registry.DxRegistry
	sxMatcher *registry.VxMatcher
	axMatcher *registry.VxMatcher
	sxVersion *registry.VersionRecord
	axVersion *registry.VersionRecord

	clock  session.Clock
	logger observability.Logger
	app    session.Application

	mu       sync.RWMutex
	sessions map[string]*session.Session

	stopCleanup func()
}

// New builds an Engine. It does not start the cleanup loop; call
// StartCleanup for that.
func New(cfg Config) *Engine {
	engineCfg := cfg.EngineCfg
	if engineCfg == nil {
		engineCfg = config.DefaultEngineConfig()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = observability.NoopLogger{}
	}
	return &Engine{
		cfg:       engineCfg,
		store:     cfg.Store,
		dx:        cfg.Dx,
		sxMatcher: cfg.SxMatcher,
		axMatcher: cfg.AxMatcher,
		sxVersion: cfg.SxVersion,
		axVersion: cfg.AxVersion,
		clock:     cfg.Clock,
		logger:    logger,
		app:       cfg.App,
		sessions:  make(map[string]*session.Session),
	}
}

// sessionConfig returns the configured SessionConfig for id, falling back
// to defaults stamped with id when the engine config carries none.
func (e *Engine) sessionConfig(id string) *config.SessionConfig {
	for i := range e.cfg.Sessions {
		if e.cfg.Sessions[i].SessionID == id {
			sc := e.cfg.Sessions[i]
			return &sc
		}
	}
	sc := config.DefaultSessionConfig()
	sc.SessionID = id
	return sc
}

// Open acquires id's SessionDb lease, starts its sequencer, and binds
// transport as its outbound path. The returned Session is registered in
// the pool under id until Close removes it; a session that shuts itself down
// stays in the pool.
func (e *Engine) Open(id string, transport session.Transport) (*session.Session, error) {
	e.mu.RLock()
	_, already := e.sessions[id]
	e.mu.RUnlock()
	if already {
		return nil, newDuplicateSessionError(id)
	}

	sess, err := session.New(session.Config{
		ID:         id,
		SessionCfg: e.sessionConfig(id),
		Clock:      e.clock,
		Logger:     e.logger,
		Store:      e.store,
		SxMatcher:  e.sxMatcher,
		AxMatcher:  e.axMatcher,
		Dx:         e.dx,
		SxVersion:  e.sxVersion,
		AxVersion:  e.axVersion,
		Transport:  transport,
		App:        e.app,
	})
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	e.sessions[id] = sess
	e.mu.Unlock()
	observability.SetSessionsActive(e.activeCount())
	return sess, nil
}

// BindConnection implements transport token binding: it reads the first
// framed message off an unidentified Conn, extracts the SenderCompID(49)/
// TargetCompID(56) pair without needing a resolved dictionary, opens (or
// rejects a duplicate of) the session those ids name, and hands the first
// buffer to it.
func (e *Engine) BindConnection(conn Conn) (*session.Session, error) {
	buf, err := conn.Recv()
	if err != nil {
		return nil, err
	}
	id, ok := sessionIDFromBuffer(buf)
	if !ok {
		return nil, newUnidentifiableConnectionError()
	}

	sess, err := e.Open(id, conn)
	if err != nil {
		return nil, err
	}
	sess.HandleRxMessage(buf)
	return sess, nil
}

// sessionIDFromBuffer scans a raw wire buffer for tags 49/56 directly,
// ahead of any dictionary resolution, so a connection can be routed to its
// session before the codec has matched a version record.
func sessionIDFromBuffer(buf []byte) (string, bool) {
	var sender, target string
	pos := 0
	for pos < len(buf) {
		field, next, ok := wire.ScanField(buf, pos)
		if !ok {
			break
		}
		switch field.Tag {
		case tagSenderCompID:
			sender = field.Value
		case tagTargetCompID:
			target = field.Value
		}
		pos = next
		if sender != "" && target != "" {
			break
		}
	}
	if sender == "" || target == "" {
		return "", false
	}
	return sender + "-" + target, true
}

const (
	tagSenderCompID = 49
	tagTargetCompID = 56
)

// Session returns the pool's live session for id, if any.
func (e *Engine) Session(id string) (*session.Session, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	sess, ok := e.sessions[id]
	return sess, ok
}

// Sessions returns the ids of every session currently in the pool.
func (e *Engine) Sessions() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]string, 0, len(e.sessions))
	for id := range e.sessions {
		ids = append(ids, id)
	}
	return ids
}

func (e *Engine) activeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.sessions)
}

// Close requests graceful shutdown of id's session and removes it from the
// pool once torn down.
func (e *Engine) Close(id string) {
	e.mu.Lock()
	sess, ok := e.sessions[id]
	if ok {
		delete(e.sessions, id)
	}
	e.mu.Unlock()
	if !ok {
		return
	}
	sess.HandleShutdown()
	sess.Disconnect()
	observability.SetSessionsActive(e.activeCount())
}

// Shutdown tears every session in the pool down, for process exit.
func (e *Engine) Shutdown() {
	if e.stopCleanup != nil {
		e.stopCleanup()
	}
	for _, id := range e.Sessions() {
		e.Close(id)
	}
}
