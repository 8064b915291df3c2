// Package artifacts is the durable, append-only list of saved visual
// breakdowns. Its lifetime is independent of any chat session.
package artifacts

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/models"
	"github.com/mingainspire/better-bolt/internal/utils"
)

// Persister is the record the store writes through: a JSON array of
// artifacts, rewritten wholesale on every save, never expiring.
type Persister interface {
	Load() (string, bool)
	Save(raw string) error
	Drop()
}

type Store struct {
	p   Persister
	log *logrus.Logger
	now func() time.Time
}

func New(p Persister, log *logrus.Logger) *Store {
	return &Store{p: p, log: log, now: time.Now}
}

// Save appends a new artifact and persists the whole list eagerly. Identical
// content saved twice yields two artifacts; there is no dedup. Ids derive
// from creation time in milliseconds and are strictly increasing even for
// same-millisecond saves.
func (s *Store) Save(content string) (models.Artifact, error) {
	const op = "ArtifactStore.Save"

	if content == "" {
		return models.Artifact{}, utils.E(utils.CodeInvalidArgument, op, "content is required", nil)
	}

	list := s.load()

	id := s.now().UnixMilli()
	if last := lastID(list); id <= last {
		id = last + 1
	}

	a := models.Artifact{ID: strconv.FormatInt(id, 10), Content: content}
	list = append(list, a)

	raw, err := json.Marshal(list)
	if err != nil {
		return models.Artifact{}, utils.E(utils.CodeInternal, op, "failed to encode artifacts", err)
	}
	if err := s.p.Save(string(raw)); err != nil {
		return models.Artifact{}, utils.E(utils.CodeInternal, op, "failed to persist artifacts", err)
	}
	return a, nil
}

// List returns all artifacts in creation order.
func (s *Store) List() []models.Artifact {
	return s.load()
}

func (s *Store) load() []models.Artifact {
	raw, ok := s.p.Load()
	if !ok || raw == "" {
		return nil
	}

	var list []models.Artifact
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		s.log.WithError(err).Warn("discarding corrupt artifact record")
		s.p.Drop()
		return nil
	}
	return list
}

func lastID(list []models.Artifact) int64 {
	var max int64
	for _, a := range list {
		if n, err := strconv.ParseInt(a.ID, 10, 64); err == nil && n > max {
			max = n
		}
	}
	return max
}
