package memory

import (
	"time"

	"dbquery-be/pkg/copilot/session"

	"github.com/patrickmn/go-cache"
)

// SessionRepository keeps live conversation contexts in memory. Sessions
// expire after the TTL of inactivity; Save also refreshes the expiration.
type SessionRepository struct {
	cache *cache.Cache
}

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	c := cache.New(ttl, 10*time.Minute)
	return &SessionRepository{
		cache: c,
	}
}

func (r *SessionRepository) Save(sess *session.Context) {
	r.cache.Set(sess.ID, sess, cache.DefaultExpiration)
}

func (r *SessionRepository) Get(sessionID string) (*session.Context, bool) {
	if x, found := r.cache.Get(sessionID); found {
		return x.(*session.Context), true
	}
	return nil, false
}

func (r *SessionRepository) Delete(sessionID string) {
	r.cache.Delete(sessionID)
}
