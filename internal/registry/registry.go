// Package registry owns every map's immutable definition and the live
// session that runs on it, creating sessions lazily on first use and
// fanning out tick advancement across all of them. It knows nothing about
// authentication or persistence: the retirement sink each session invokes
// is supplied by the application layer at registry construction.
package registry

import (
	"math/rand"
	"sync"
	"time"

	"dogloot/server/session"
	"dogloot/server/worldmap"
)

// Config bundles the parameters every lazily created session inherits.
type Config struct {
	Maps            []*worldmap.Map
	SpawnPolicy     session.SpawnPolicy
	RetireAfter     time.Duration
	LootPeriod      time.Duration
	LootProbability float64
	// Sink is wired into every session this registry creates. The
	// application layer supplies it so retirement can persist a record and
	// unregister the player without the registry depending on either
	// concern.
	Sink session.RetirementSink
}

// Registry looks up maps by id and lazily owns one *session.Session per map.
type Registry struct {
	cfg Config

	mu            sync.Mutex
	maps          map[string]*worldmap.Map
	sessions      map[string]*session.Session
	nextSessionID uint64
}

// New constructs a registry pre-loaded with every configured map's
// definition. No sessions are created until a map is first requested.
func New(cfg Config) *Registry {
	maps := make(map[string]*worldmap.Map, len(cfg.Maps))
	for _, m := range cfg.Maps {
		maps[m.ID] = m
	}
	return &Registry{
		cfg:      cfg,
		maps:     maps,
		sessions: make(map[string]*session.Session),
	}
}

// MapIDs returns every configured map id, in configuration order.
func (r *Registry) MapIDs() []string {
	ids := make([]string, 0, len(r.cfg.Maps))
	for _, m := range r.cfg.Maps {
		ids = append(ids, m.ID)
	}
	return ids
}

// Map looks up a map's immutable definition.
func (r *Registry) Map(id string) (*worldmap.Map, bool) {
	m, ok := r.maps[id]
	return m, ok
}

// Session returns the live session for a map, creating it on first access.
func (r *Registry) Session(mapID string) (*session.Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sessionLocked(mapID)
}

func (r *Registry) sessionLocked(mapID string) (*session.Session, bool) {
	if s, ok := r.sessions[mapID]; ok {
		return s, true
	}
	m, ok := r.maps[mapID]
	if !ok {
		return nil, false
	}
	id := r.nextSessionID
	r.nextSessionID++
	s := session.New(session.Config{
		Map:             m,
		ID:              id,
		SpawnPolicy:     r.cfg.SpawnPolicy,
		RetireAfter:     r.cfg.RetireAfter,
		LootPeriod:      r.cfg.LootPeriod,
		LootProbability: r.cfg.LootProbability,
		Sink:            r.cfg.Sink,
		RNG:             rand.New(rand.NewSource(int64(id) + 1)),
	})
	r.sessions[mapID] = s
	return s, true
}

// AddGameSession installs a session restored from a snapshot, bypassing
// lazy creation so a restarted server resumes exactly where it left off.
func (r *Registry) AddGameSession(mapID string, s *session.Session) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[mapID] = s
}

// Sessions returns every currently live session, keyed by map id, for
// snapshotting.
func (r *Registry) Sessions() map[string]*session.Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*session.Session, len(r.sessions))
	for id, s := range r.sessions {
		out[id] = s
	}
	return out
}

// OnTick advances every currently live session by dt.
func (r *Registry) OnTick(dt time.Duration) {
	r.mu.Lock()
	sessions := make([]*session.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	r.mu.Unlock()

	for _, s := range sessions {
		s.OnTick(dt)
	}
}
