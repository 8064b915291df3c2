// Package credstore holds the per-client provider API keys.
//
// Keys live in a single persisted record (a cookie in the HTTP path) holding
// a JSON object of provider id -> secret. Every Set reads, merges, and
// rewrites the whole record. Malformed persisted data is never an error: the
// store recovers to empty state and drops the corrupt record.
package credstore

import (
	"encoding/json"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// TTL is the retention window of the persisted record.
const TTL = 30 * 24 * time.Hour

// Persister is the key-value record the store writes through. The HTTP layer
// backs it with a strict same-site, secure cookie; tests use memory.
type Persister interface {
	// Load returns the raw record and whether it exists.
	Load() (string, bool)
	// Save rewrites the record with the given retention window.
	Save(raw string, ttl time.Duration) error
	// Drop discards the record.
	Drop()
}

type Store struct {
	p   Persister
	log *logrus.Logger
}

func New(p Persister, log *logrus.Logger) *Store {
	return &Store{p: p, log: log}
}

// Get returns the secret for a provider. Absence is not an error: the
// provider may be keyless or rely on the server-side default credential.
func (s *Store) Get(provider string) (string, bool) {
	keys := s.load()
	secret, ok := keys[provider]
	return secret, ok && secret != ""
}

// Set merges one provider's secret into the mapping and rewrites the whole
// persisted record.
func (s *Store) Set(provider, secret string) error {
	const op = "CredStore.Set"

	if provider == "" {
		return utils.E(utils.CodeInvalidArgument, op, "provider is required", nil)
	}

	keys := s.load()
	keys[provider] = secret

	raw, err := json.Marshal(keys)
	if err != nil {
		return utils.E(utils.CodeInternal, op, "failed to encode key mapping", err)
	}
	if err := s.p.Save(string(raw), TTL); err != nil {
		return utils.E(utils.CodeInternal, op, "failed to persist key mapping", err)
	}
	return nil
}

// Configured reports which providers have a client-side key, without exposing
// the secrets themselves.
func (s *Store) Configured() map[string]bool {
	out := map[string]bool{}
	for p, secret := range s.load() {
		if secret != "" {
			out[p] = true
		}
	}
	return out
}

// load reads the persisted mapping, failing open on corrupt data.
func (s *Store) load() map[string]string {
	raw, ok := s.p.Load()
	if !ok || raw == "" {
		return map[string]string{}
	}

	var keys map[string]string
	if err := json.Unmarshal([]byte(raw), &keys); err != nil || keys == nil {
		s.log.WithError(err).Warn("discarding corrupt api key record")
		s.p.Drop()
		return map[string]string{}
	}
	return keys
}
