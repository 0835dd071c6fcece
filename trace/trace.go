// Package trace manages runtime observability sessions: signal traces
// backed by dynamic connections on live nodes, and property watches that
// diff tracked values on demand. Event logs are bounded FIFOs with
// drop-oldest eviction.
package trace

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/slighter12/godot-agent-tools/logger"
	"github.com/slighter12/godot-agent-tools/scene"
)

// Event is one recorded signal emission.
type Event struct {
	Index      int    `json:"index"`
	Timestamp  int64  `json:"timestamp_usec"`
	SourcePath string `json:"source_path"`
	SignalName string `json:"signal_name"`
	Args       []any  `json:"args,omitempty"`
}

// DeltaEvent is one recorded property-watch observation. A snapshot event
// carries all tracked values; a delta event carries only the changed ones.
type DeltaEvent struct {
	Index     int            `json:"index"`
	Timestamp int64          `json:"timestamp_usec"`
	Snapshot  bool           `json:"snapshot,omitempty"`
	Values    map[string]any `json:"values"`
}

type subscription struct {
	node   *scene.Node
	path   string
	signal string
	handle string
}

// Session is an active signal trace.
type Session struct {
	ID            string
	maxEvents     int
	events        []Event
	nextIndex     int
	subscriptions []subscription
	stopped       bool
}

// push appends an event, evicting the oldest once the buffer is full.
func (s *Session) push(sourcePath, signal string, args []any) {
	if s.stopped {
		return
	}
	ev := Event{
		Index:      s.nextIndex,
		Timestamp:  time.Now().UnixMicro(),
		SourcePath: sourcePath,
		SignalName: signal,
		Args:       args,
	}
	s.nextIndex++
	s.events = append(s.events, ev)
	if len(s.events) > s.maxEvents {
		s.events = s.events[len(s.events)-s.maxEvents:]
	}
}

// WatchSession is an active property watch.
type WatchSession struct {
	ID            string
	NodePath      string
	node          *scene.Node
	variableNames []string
	lastValues    map[string]any
	maxEvents     int
	events        []DeltaEvent
	nextIndex     int
	polledOnce    bool
}

func (w *WatchSession) push(snapshot bool, values map[string]any) {
	ev := DeltaEvent{
		Index:     w.nextIndex,
		Timestamp: time.Now().UnixMicro(),
		Snapshot:  snapshot,
		Values:    values,
	}
	w.nextIndex++
	w.events = append(w.events, ev)
	if len(w.events) > w.maxEvents {
		w.events = w.events[len(w.events)-w.maxEvents:]
	}
}

// Limits bound session event buffers and the session registries.
type Limits struct {
	DefaultMaxEvents int
	MaxMaxEvents     int
	MaxSessions      int
}

func (l Limits) normalize() Limits {
	if l.DefaultMaxEvents <= 0 {
		l.DefaultMaxEvents = 256
	}
	if l.MaxMaxEvents <= 0 {
		l.MaxMaxEvents = 4096
	}
	if l.MaxSessions <= 0 {
		l.MaxSessions = 16
	}
	return l
}

// Manager owns the trace and watch session registries. All methods run on
// the caller's goroutine; the host drives tool operations serially.
type Manager struct {
	limits   Limits
	sessions map[string]*Session
	watches  map[string]*WatchSession
}

func NewManager(limits Limits) *Manager {
	return &Manager{
		limits:   limits.normalize(),
		sessions: make(map[string]*Session),
		watches:  make(map[string]*WatchSession),
	}
}

// newSessionID derives an id from a monotonic clock reading plus a short
// random suffix. Uniqueness is probabilistic.
func newSessionID(prefix string) string {
	return fmt.Sprintf("%s_%d_%s", prefix, time.Now().UnixMicro(), uuid.NewString()[:8])
}

func (m *Manager) clampMaxEvents(requested int) int {
	if requested <= 0 {
		return m.limits.DefaultMaxEvents
	}
	if requested > m.limits.MaxMaxEvents {
		return m.limits.MaxMaxEvents
	}
	return requested
}

// Target pairs a resolved node with the path it was resolved from, so
// events can be attributed without re-deriving tree paths in callbacks.
type Target struct {
	Node *scene.Node
	Path string
}

// StartTrace subscribes a new session to signals on the given nodes. With
// an empty filter every declared signal is traced; otherwise only the
// named ones. Nodes lacking a filtered signal are skipped, not an error.
func (m *Manager) StartTrace(targets []Target, signalFilter []string, maxEvents int) (string, error) {
	if len(targets) == 0 {
		return "", fmt.Errorf("no trace targets")
	}
	if len(m.sessions) >= m.limits.MaxSessions {
		return "", fmt.Errorf("trace session limit reached (%d)", m.limits.MaxSessions)
	}

	session := &Session{
		ID:        newSessionID("trace"),
		maxEvents: m.clampMaxEvents(maxEvents),
	}

	for _, target := range targets {
		signals := target.Node.SignalNames()
		if len(signalFilter) > 0 {
			signals = intersect(signals, signalFilter)
		}
		for _, signal := range signals {
			// Capture per subscription so the shared callback body can
			// attribute the event to its source.
			sourcePath, signalName := target.Path, signal
			handle, err := target.Node.Connect(signal, func(args []any) {
				session.push(sourcePath, signalName, args)
			})
			if err != nil {
				m.teardown(session)
				return "", fmt.Errorf("connect %s.%s: %w", target.Path, signal, err)
			}
			session.subscriptions = append(session.subscriptions, subscription{
				node:   target.Node,
				path:   target.Path,
				signal: signal,
				handle: handle,
			})
		}
	}

	if len(session.subscriptions) == 0 {
		return "", fmt.Errorf("no matching signals on the requested nodes")
	}

	m.sessions[session.ID] = session
	logger.Info("Signal trace started",
		"session", session.ID, "subscriptions", len(session.subscriptions), "max_events", session.maxEvents)
	return session.ID, nil
}

// PollTrace returns events with index >= sinceIndex. The cursor is
// monotonic: polling again at the same cursor re-delivers nothing new.
func (m *Manager) PollTrace(sessionID string, sinceIndex int) ([]Event, int, error) {
	session, ok := m.sessions[sessionID]
	if !ok {
		return nil, 0, fmt.Errorf("unknown trace session %q", sessionID)
	}
	var out []Event
	for _, ev := range session.events {
		if ev.Index >= sinceIndex {
			out = append(out, ev)
		}
	}
	return out, session.nextIndex, nil
}

// StopTrace disconnects every subscription individually and removes the
// session. Nodes freed since connect time are tolerated.
func (m *Manager) StopTrace(sessionID string) error {
	session, ok := m.sessions[sessionID]
	if !ok {
		return fmt.Errorf("unknown trace session %q", sessionID)
	}
	m.teardown(session)
	delete(m.sessions, sessionID)
	logger.Info("Signal trace stopped", "session", sessionID, "events", len(session.events))
	return nil
}

func (m *Manager) teardown(session *Session) {
	session.stopped = true
	for _, sub := range session.subscriptions {
		if sub.node == nil {
			continue
		}
		if !sub.node.Disconnect(sub.handle) {
			logger.Debug("Trace subscription already gone",
				"session", session.ID, "path", sub.path, "signal", sub.signal)
		}
	}
	session.subscriptions = nil
}

// StartWatch begins polling the named properties on one node. Unknown
// property names are tracked anyway and report null until they exist.
func (m *Manager) StartWatch(target Target, variableNames []string, maxEvents int) (string, error) {
	if target.Node == nil {
		return "", fmt.Errorf("no watch target")
	}
	if len(variableNames) == 0 {
		return "", fmt.Errorf("no variables to watch")
	}
	if len(m.watches) >= m.limits.MaxSessions {
		return "", fmt.Errorf("watch session limit reached (%d)", m.limits.MaxSessions)
	}

	names := append([]string(nil), variableNames...)
	sort.Strings(names)

	watch := &WatchSession{
		ID:            newSessionID("watch"),
		NodePath:      target.Path,
		node:          target.Node,
		variableNames: names,
		lastValues:    make(map[string]any, len(names)),
		maxEvents:     m.clampMaxEvents(maxEvents),
	}
	m.watches[watch.ID] = watch
	logger.Info("Property watch started",
		"session", watch.ID, "path", watch.NodePath, "variables", len(names))
	return watch.ID, nil
}

// PollWatch samples the tracked properties, records a snapshot event on
// first poll and a delta event on later polls only when a value changed,
// then returns events with index >= sinceIndex.
func (m *Manager) PollWatch(sessionID string, sinceIndex int) ([]DeltaEvent, int, error) {
	watch, ok := m.watches[sessionID]
	if !ok {
		return nil, 0, fmt.Errorf("unknown watch session %q", sessionID)
	}

	current := make(map[string]any, len(watch.variableNames))
	for _, name := range watch.variableNames {
		value, _ := watch.node.Get(name)
		current[name] = value
	}

	if !watch.polledOnce {
		watch.polledOnce = true
		watch.push(true, current)
		for name, value := range current {
			watch.lastValues[name] = value
		}
	} else {
		changed := make(map[string]any)
		for _, name := range watch.variableNames {
			if !valuesEqual(watch.lastValues[name], current[name]) {
				changed[name] = current[name]
				watch.lastValues[name] = current[name]
			}
		}
		if len(changed) > 0 {
			watch.push(false, changed)
		}
	}

	var out []DeltaEvent
	for _, ev := range watch.events {
		if ev.Index >= sinceIndex {
			out = append(out, ev)
		}
	}
	return out, watch.nextIndex, nil
}

// StopWatch removes a watch session. Watches hold no subscriptions, so
// teardown is just registry removal.
func (m *Manager) StopWatch(sessionID string) error {
	watch, ok := m.watches[sessionID]
	if !ok {
		return fmt.Errorf("unknown watch session %q", sessionID)
	}
	delete(m.watches, sessionID)
	logger.Info("Property watch stopped", "session", sessionID, "events", len(watch.events))
	return nil
}

// ActiveSessions reports the registry sizes, for status surfaces.
func (m *Manager) ActiveSessions() (traces, watches int) {
	return len(m.sessions), len(m.watches)
}

func intersect(have, want []string) []string {
	wanted := make(map[string]struct{}, len(want))
	for _, w := range want {
		wanted[w] = struct{}{}
	}
	var out []string
	for _, h := range have {
		if _, ok := wanted[h]; ok {
			out = append(out, h)
		}
	}
	return out
}

// valuesEqual compares watch samples. Value types compare by fields,
// everything else by formatted representation, which is stable enough for
// change detection on engine property values.
func valuesEqual(a, b any) bool {
	if a == nil && b == nil {
		return true
	}
	if av, ok := a.(scene.Vector2); ok {
		bv, ok2 := b.(scene.Vector2)
		return ok2 && av == bv
	}
	if ac, ok := a.(scene.Color); ok {
		bc, ok2 := b.(scene.Color)
		return ok2 && ac == bc
	}
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}
