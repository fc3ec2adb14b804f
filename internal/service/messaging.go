package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"haul/internal/domain"
	"haul/internal/logging"
	"haul/internal/realtime"
	"haul/internal/ticker"
)

// DefaultChatPollInterval is the fallback poll period while the channel is degraded.
const DefaultChatPollInterval = 10 * time.Second

// Identity exposes the signed-in user.
type Identity interface {
	Current() *domain.User
}

// MessagingService manages the open conversations of the driver.
type MessagingService struct {
	backend      MessageBackend
	channel      Channel
	identity     Identity
	pollInterval time.Duration
	log          *slog.Logger

	mu            sync.Mutex
	conversations map[string]*Conversation
}

// NewMessagingService creates a new MessagingService. channel may be nil,
// in which case conversations always poll.
func NewMessagingService(
	backend MessageBackend,
	channel Channel,
	identity Identity,
	pollInterval time.Duration,
	log *slog.Logger,
) *MessagingService {
	if pollInterval <= 0 {
		pollInterval = DefaultChatPollInterval
	}
	return &MessagingService{
		backend:       backend,
		channel:       channel,
		identity:      identity,
		pollInterval:  pollInterval,
		log:           log,
		conversations: make(map[string]*Conversation),
	}
}

// Open returns the conversation with peerID, opening it when needed.
func (s *MessagingService) Open(ctx context.Context, peerID string) (*Conversation, error) {
	peerID = strings.TrimSpace(peerID)
	if peerID == "" {
		return nil, ErrInvalidUserID
	}
	me := s.identity.Current()
	if me == nil {
		return nil, ErrNotAuthenticated
	}

	s.mu.Lock()
	if c, ok := s.conversations[peerID]; ok && c.selfID == me.ID {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	c := &Conversation{
		selfID:  me.ID,
		peerID:  peerID,
		backend: s.backend,
		channel: s.channel,
		log:     s.log,
		seen:    make(map[string]struct{}),
	}
	if err := c.open(ctx, s.pollInterval); err != nil {
		return nil, err
	}

	s.mu.Lock()
	prev := s.conversations[peerID]
	s.conversations[peerID] = c
	s.mu.Unlock()

	if prev != nil {
		prev.Close()
	}
	return c, nil
}

// Get returns an open conversation.
func (s *MessagingService) Get(peerID string) (*Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.conversations[peerID]
	if !ok {
		return nil, ErrConversationNotOpen
	}
	return c, nil
}

// Close closes the conversation with peerID, if open.
func (s *MessagingService) Close(peerID string) {
	s.mu.Lock()
	c := s.conversations[peerID]
	delete(s.conversations, peerID)
	s.mu.Unlock()

	if c != nil {
		c.Close()
	}
}

// CloseAll closes every conversation.
func (s *MessagingService) CloseAll() {
	s.mu.Lock()
	all := s.conversations
	s.conversations = make(map[string]*Conversation)
	s.mu.Unlock()

	for _, c := range all {
		c.Close()
	}
}

// Conversation is the chat with one peer. New messages arrive over the
// realtime channel; while the channel is DEGRADED the history is polled.
type Conversation struct {
	selfID  string
	peerID  string
	backend MessageBackend
	channel Channel
	log     *slog.Logger

	poller ticker.Task

	mu          sync.Mutex
	messages    []domain.Message
	seen        map[string]struct{}
	draft       string
	unsubscribe func()
}

func (c *Conversation) open(ctx context.Context, interval time.Duration) error {
	msgs, err := c.backend.Conversation(ctx, c.peerID)
	if err != nil {
		return err
	}
	c.replace(msgs)

	if c.channel != nil {
		off := c.channel.On(realtime.EventNewMessage, c.onNewMessage)
		c.mu.Lock()
		c.unsubscribe = off
		c.mu.Unlock()
	}
	c.poller.Start(context.Background(), interval, c.poll)

	logging.Info(ctx, c.log, "conversation_open", "conversation opened", "peer_id", c.peerID, "messages", len(msgs))
	return nil
}

// PeerID returns the other participant.
func (c *Conversation) PeerID() string {
	return c.peerID
}

// SetDraft replaces the composed text.
func (c *Conversation) SetDraft(text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.draft = text
}

// Draft returns the composed text.
func (c *Conversation) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Send posts the draft. The draft is cleared while sending and restored
// exactly as composed when the send fails, unless a new draft was composed
// in the meantime.
func (c *Conversation) Send(ctx context.Context) (*domain.Message, error) {
	c.mu.Lock()
	text := c.draft
	if strings.TrimSpace(text) == "" {
		c.mu.Unlock()
		return nil, ErrEmptyMessage
	}
	c.draft = ""
	c.mu.Unlock()

	msg, err := c.backend.SendMessage(ctx, c.peerID, strings.TrimSpace(text))
	if err != nil {
		c.mu.Lock()
		if c.draft == "" {
			c.draft = text
		}
		c.mu.Unlock()
		return nil, err
	}

	c.mu.Lock()
	c.appendLocked(*msg)
	c.mu.Unlock()
	return msg, nil
}

// Messages returns the conversation ordered by creation time.
func (c *Conversation) Messages() []domain.Message {
	c.mu.Lock()
	out := append([]domain.Message(nil), c.messages...)
	c.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Close stops polling and unsubscribes from the channel. It is idempotent.
func (c *Conversation) Close() {
	c.poller.Stop()

	c.mu.Lock()
	off := c.unsubscribe
	c.unsubscribe = nil
	c.mu.Unlock()

	if off != nil {
		off()
	}
}

func (c *Conversation) onNewMessage(data json.RawMessage) {
	var msg domain.Message
	if !decode(data, &msg) || !msg.Between(c.selfID, c.peerID) {
		return
	}
	c.mu.Lock()
	c.appendLocked(msg)
	c.mu.Unlock()
}

func (c *Conversation) poll(ctx context.Context, tok ticker.Token) {
	if c.channel != nil && c.channel.Mode() == realtime.ModeConnected {
		return
	}

	msgs, err := c.backend.Conversation(ctx, c.peerID)
	if err != nil {
		if ctx.Err() == nil {
			logging.Warn(ctx, c.log, "conversation_poll", "fallback poll failed", err, "peer_id", c.peerID)
		}
		return
	}
	if !tok.Valid() {
		return
	}
	c.replace(msgs)
}

// replace installs a fetched history, keeping messages appended locally
// that the fetch did not include yet.
func (c *Conversation) replace(msgs []domain.Message) {
	c.mu.Lock()
	defer c.mu.Unlock()

	local := c.messages
	c.messages = make([]domain.Message, 0, len(msgs))
	c.seen = make(map[string]struct{}, len(msgs))
	for _, m := range msgs {
		c.appendLocked(m)
	}
	for _, m := range local {
		c.appendLocked(m)
	}
}

func (c *Conversation) appendLocked(m domain.Message) {
	if m.ID != "" {
		if _, dup := c.seen[m.ID]; dup {
			return
		}
		c.seen[m.ID] = struct{}{}
	}
	c.messages = append(c.messages, m)
}
