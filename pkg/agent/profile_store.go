package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// ActiveProfileCache keeps the selected profile per user.
type ActiveProfileCache interface {
	Get(userId uuid.UUID) (string, bool)
	Set(userId uuid.UUID, profileId string)
}

type ProfileStore struct {
	catalog *Catalog
	cache   ActiveProfileCache
}

func NewProfileStore(c *Catalog, cache ActiveProfileCache) *ProfileStore {
	return &ProfileStore{catalog: c, cache: cache}
}

func (s *ProfileStore) CurrentProfile(userId uuid.UUID) string {
	if id, ok := s.cache.Get(userId); ok {
		return id
	}
	return s.catalog.Default().ID
}

func (s *ProfileStore) SetActiveProfile(ctx context.Context, userId uuid.UUID, profileId string) error {
	if _, ok := s.catalog.Get(profileId); !ok {
		return fmt.Errorf("unknown agent profile %q", profileId)
	}
	s.cache.Set(userId, profileId)
	return nil
}

// SystemPrompt falls back to the default profile for unknown ids.
func (s *ProfileStore) SystemPrompt(profileId string) string {
	if p, ok := s.catalog.Get(profileId); ok {
		return p.SystemPrompt
	}
	return s.catalog.Default().SystemPrompt
}

func (s *ProfileStore) Profiles() []Profile {
	return s.catalog.List()
}
