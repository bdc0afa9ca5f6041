package store

import (
	"fmt"
	"sort"
	"time"

	"voice-gateway/internal/models"

	gocache "github.com/patrickmn/go-cache"
)

// SessionStore keeps customer info for single outbound calls, keyed by
// conversation id. Entries expire after the configured TTL; a TTL of 0
// keeps them until deleted.
type SessionStore struct {
	c   *gocache.Cache
	now func() time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	var c *gocache.Cache
	if ttl > 0 {
		c = gocache.New(ttl, time.Minute)
	} else {
		c = gocache.New(gocache.NoExpiration, 0)
	}
	return &SessionStore{c: c, now: time.Now}
}

// Store upserts the session for conversationID
func (s *SessionStore) Store(conversationID string, info models.CustomerInfo) (models.CustomerSession, error) {
	if conversationID == "" {
		return models.CustomerSession{}, fmt.Errorf("%w: conversation id is required", ErrInvalidSession)
	}
	session := models.CustomerSession{
		ConversationID: conversationID,
		CustomerInfo:   info,
		CreatedAt:      s.now().UTC(),
	}
	session = session.Clone()
	s.c.Set(conversationID, session, gocache.DefaultExpiration)
	return session.Clone(), nil
}

func (s *SessionStore) Lookup(conversationID string) (models.CustomerSession, error) {
	v, ok := s.c.Get(conversationID)
	if !ok {
		return models.CustomerSession{}, fmt.Errorf("%w: %s", ErrSessionNotFound, conversationID)
	}
	return v.(models.CustomerSession).Clone(), nil
}

// Delete is a no-op when the session is absent
func (s *SessionStore) Delete(conversationID string) {
	s.c.Delete(conversationID)
}

// List returns live sessions ordered by creation time
func (s *SessionStore) List() []models.CustomerSession {
	items := s.c.Items()
	out := make([]models.CustomerSession, 0, len(items))
	for _, item := range items {
		out = append(out, item.Object.(models.CustomerSession).Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ConversationID < out[j].ConversationID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *SessionStore) Len() int {
	return s.c.ItemCount()
}
