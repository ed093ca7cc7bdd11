package memory

import (
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
)

// ProfileRepository remembers the active agent profile per user.
type ProfileRepository struct {
	cache *cache.Cache
}

func NewProfileRepository() *ProfileRepository {
	// Profiles survive a working day of inactivity; expired entries are
	// purged every 30 minutes.
	c := cache.New(12*time.Hour, 30*time.Minute)
	return &ProfileRepository{
		cache: c,
	}
}

func (r *ProfileRepository) Set(userId uuid.UUID, profileId string) {
	r.cache.Set(userId.String(), profileId, cache.DefaultExpiration)
}

func (r *ProfileRepository) Get(userId uuid.UUID) (string, bool) {
	if x, found := r.cache.Get(userId.String()); found {
		return x.(string), true
	}
	return "", false
}

func (r *ProfileRepository) Delete(userId uuid.UUID) {
	r.cache.Delete(userId.String())
}
