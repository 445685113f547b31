package main

import (
	"errors"
	"sync"

	"fortio.org/log"
	"myweb.bot/myweb-discord-bot/fixedmap"
	"myweb.bot/myweb-discord-bot/game"
)

var ErrAlreadyPlaying = errors.New("already playing")

// Registry tracks the live games by session ID, owner and message. Games
// leave it when they end. Beyond the maximum the least recently used game is
// closed.
type Registry struct {
	sessions *fixedmap.FixedMap[string, *game.Session]

	mu        sync.Mutex
	byOwner   map[string]string
	byMessage map[string]string
}

func NewRegistry(maxGames int) *Registry {
	return &Registry{
		sessions:  fixedmap.NewFixedMap[string, *game.Session](maxGames),
		byOwner:   make(map[string]string),
		byMessage: make(map[string]string),
	}
}

// Add registers s, unless its owner already has a live game. The owner check
// and the insert happen under one lock; an evicted game is closed after it.
func (r *Registry) Add(s *game.Session) error {
	r.mu.Lock()
	if id, found := r.byOwner[s.Owner()]; found {
		if other, ok := r.sessions.Peek(id); ok && other.Alive() {
			r.mu.Unlock()
			return ErrAlreadyPlaying
		}
	}
	r.byOwner[s.Owner()] = s.ID()
	evicted, _ := r.sessions.Add(s.ID(), s)
	r.mu.Unlock()
	go func() {
		<-s.Done()
		r.remove(s)
	}()
	if evicted != nil {
		log.S(log.Warning, "too many games, stopping least recently used",
			log.String("id", evicted.Key), log.String("owner", evicted.Value.Owner()))
		evicted.Value.Close()
	}
	return nil
}

func (r *Registry) remove(s *game.Session) {
	r.sessions.Remove(s.ID())
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.byOwner[s.Owner()] == s.ID() {
		delete(r.byOwner, s.Owner())
	}
	for msgID, id := range r.byMessage {
		if id == s.ID() {
			delete(r.byMessage, msgID)
		}
	}
	log.LogVf("Game %s removed from registry, %d left", s.ID(), r.sessions.Len())
}

// Get returns a live game and marks it as recently used.
func (r *Registry) Get(id string) (*game.Session, bool) {
	return r.sessions.Get(id)
}

func (r *Registry) ByOwner(owner string) (*game.Session, bool) {
	r.mu.Lock()
	id, found := r.byOwner[owner]
	r.mu.Unlock()
	if !found {
		return nil, false
	}
	return r.sessions.Get(id)
}

func (r *Registry) ByMessage(messageID string) (*game.Session, bool) {
	r.mu.Lock()
	id, found := r.byMessage[messageID]
	r.mu.Unlock()
	if !found {
		return nil, false
	}
	return r.sessions.Get(id)
}

// SetMessage records the message showing a game, for reactions.
func (r *Registry) SetMessage(id, messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	// Checked under the lock so a concurrent remove() cleans up after us.
	if _, found := r.sessions.Peek(id); !found {
		return // already over
	}
	r.byMessage[messageID] = id
}

func (r *Registry) Len() int {
	return r.sessions.Len()
}

// CloseAll stops every live game and returns how many there were.
func (r *Registry) CloseAll() int {
	all := r.sessions.Values()
	for _, s := range all {
		s.Close()
	}
	return len(all)
}
