// Package store provides in-memory storage for rule sets, characters and chat
// sessions.
package store

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lemonberrylabs/webrpg-engine/pkg/chat"
	"github.com/lemonberrylabs/webrpg-engine/pkg/ruleset"
	"github.com/lemonberrylabs/webrpg-engine/pkg/types"
)

var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when creating a record whose id is taken.
	ErrAlreadyExists = errors.New("already exists")
)

// Character is a stored character: the rule set it uses and its attributes.
type Character struct {
	ID         string           `json:"id"`
	RuleSet    string           `json:"rule_set"`
	Attrs      types.Attributes `json:"attrs"`
	CreateTime time.Time        `json:"createTime"`
	UpdateTime time.Time        `json:"updateTime"`
}

// Session is a chat session with its dice mode.
type Session struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Mode       chat.Mode `json:"mode"`
	CreateTime time.Time `json:"createTime"`
}

// Message is a formatted chat message.
type Message struct {
	ID         string         `json:"id"`
	SessionID  string         `json:"session_id"`
	Author     string         `json:"author,omitempty"`
	Text       string         `json:"text"`
	Segments   []chat.Segment `json:"segments"`
	CreateTime time.Time      `json:"createTime"`
}

// Store is a thread-safe in-memory storage. Getters return copies, so callers
// may modify what they receive.
type Store struct {
	mu         sync.RWMutex
	ruleSets   map[string]*ruleset.RuleSet
	characters map[string]*Character
	sessions   map[string]*Session
	messages   map[string][]*Message // by session id
}

// New creates a new empty store.
func New() *Store {
	return &Store{
		ruleSets:   make(map[string]*ruleset.RuleSet),
		characters: make(map[string]*Character),
		sessions:   make(map[string]*Session),
		messages:   make(map[string][]*Message),
	}
}

// AddRuleSet registers a rule set. Rule sets are immutable once added.
func (s *Store) AddRuleSet(rs *ruleset.RuleSet) error {
	if rs == nil || rs.ID == "" {
		return fmt.Errorf("rule set must have an id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.ruleSets[rs.ID]; exists {
		return fmt.Errorf("rule set '%s': %w", rs.ID, ErrAlreadyExists)
	}
	s.ruleSets[rs.ID] = rs
	return nil
}

// GetRuleSet retrieves a rule set by id.
func (s *Store) GetRuleSet(id string) (*ruleset.RuleSet, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rs, ok := s.ruleSets[id]
	if !ok {
		return nil, fmt.Errorf("rule set '%s': %w", id, ErrNotFound)
	}
	return rs, nil
}

// ListRuleSets returns all rule sets ordered by id.
func (s *Store) ListRuleSets() []*ruleset.RuleSet {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*ruleset.RuleSet, 0, len(s.ruleSets))
	for _, rs := range s.ruleSets {
		result = append(result, rs)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// CreateCharacter stores a new character using the rule set ruleSetID.
func (s *Store) CreateCharacter(ruleSetID string, attrs types.Attributes) (*Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.ruleSets[ruleSetID]; !ok {
		return nil, fmt.Errorf("rule set '%s': %w", ruleSetID, ErrNotFound)
	}

	now := time.Now()
	ch := &Character{
		ID:         uuid.NewString(),
		RuleSet:    ruleSetID,
		Attrs:      attrs.Clone(),
		CreateTime: now,
		UpdateTime: now,
	}
	s.characters[ch.ID] = ch
	return ch.copy(), nil
}

// GetCharacter retrieves a character by id.
func (s *Store) GetCharacter(id string) (*Character, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ch, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("character '%s': %w", id, ErrNotFound)
	}
	return ch.copy(), nil
}

// ListCharacters returns all characters ordered by creation time.
func (s *Store) ListCharacters() []*Character {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Character, 0, len(s.characters))
	for _, ch := range s.characters {
		result = append(result, ch.copy())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].CreateTime.Before(result[j].CreateTime) })
	return result
}

// UpdateCharacter replaces a character's attributes.
func (s *Store) UpdateCharacter(id string, attrs types.Attributes) (*Character, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch, ok := s.characters[id]
	if !ok {
		return nil, fmt.Errorf("character '%s': %w", id, ErrNotFound)
	}
	ch.Attrs = attrs.Clone()
	ch.UpdateTime = time.Now()
	return ch.copy(), nil
}

// DeleteCharacter removes a character.
func (s *Store) DeleteCharacter(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.characters[id]; !ok {
		return fmt.Errorf("character '%s': %w", id, ErrNotFound)
	}
	delete(s.characters, id)
	return nil
}

// CreateSession starts a chat session.
func (s *Store) CreateSession(title string, mode chat.Mode) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess := &Session{
		ID:         uuid.NewString(),
		Title:      title,
		Mode:       mode,
		CreateTime: time.Now(),
	}
	s.sessions[sess.ID] = sess
	cp := *sess
	return &cp
}

// GetSession retrieves a session by id.
func (s *Store) GetSession(id string) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session '%s': %w", id, ErrNotFound)
	}
	cp := *sess
	return &cp, nil
}

// AddMessage appends a formatted message to a session's log.
func (s *Store) AddMessage(sessionID, author, text string, segments []chat.Segment) (*Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
	}

	msg := &Message{
		ID:         uuid.NewString(),
		SessionID:  sessionID,
		Author:     author,
		Text:       text,
		Segments:   segments,
		CreateTime: time.Now(),
	}
	s.messages[sessionID] = append(s.messages[sessionID], msg)
	return msg, nil
}

// ListMessages returns a session's messages in the order they were added.
func (s *Store) ListMessages(sessionID string) ([]*Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return nil, fmt.Errorf("session '%s': %w", sessionID, ErrNotFound)
	}
	result := make([]*Message, len(s.messages[sessionID]))
	copy(result, s.messages[sessionID])
	return result, nil
}

func (c *Character) copy() *Character {
	cp := *c
	cp.Attrs = c.Attrs.Clone()
	return &cp
}
