package credstore

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mingainspire/better-bolt/internal/utils"
)

// memPersister simulates the cookie record across "reloads": a new Store over
// the same persister sees whatever the last Save wrote.
type memPersister struct {
	raw     string
	exists  bool
	lastTTL time.Duration
	saves   int
}

func (m *memPersister) Load() (string, bool) { return m.raw, m.exists }

func (m *memPersister) Save(raw string, ttl time.Duration) error {
	m.raw, m.exists, m.lastTTL = raw, true, ttl
	m.saves++
	return nil
}

func (m *memPersister) Drop() { m.raw, m.exists = "", false }

func newTestStore(p Persister) *Store {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return New(p, l)
}

func TestSetGetRoundTrip(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(p)

	require.NoError(t, s.Set("Anthropic", "sk-ant-123"))

	got, ok := s.Get("Anthropic")
	require.True(t, ok)
	assert.Equal(t, "sk-ant-123", got)

	// Simulated reload: a fresh store over the same persisted record.
	s2 := newTestStore(p)
	got, ok = s2.Get("Anthropic")
	require.True(t, ok)
	assert.Equal(t, "sk-ant-123", got)
}

func TestSetMergesIntoExistingMapping(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(p)

	require.NoError(t, s.Set("Anthropic", "a-key"))
	require.NoError(t, s.Set("OpenAI", "o-key"))

	got, ok := s.Get("Anthropic")
	require.True(t, ok)
	assert.Equal(t, "a-key", got)

	got, ok = s.Get("OpenAI")
	require.True(t, ok)
	assert.Equal(t, "o-key", got)

	// Every set rewrites the whole record.
	assert.Equal(t, 2, p.saves)
}

func TestSetUsesRetentionWindow(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(p)

	require.NoError(t, s.Set("Groq", "g-key"))
	assert.Equal(t, TTL, p.lastTTL)
}

func TestGetAbsentProvider(t *testing.T) {
	s := newTestStore(&memPersister{})

	_, ok := s.Get("Mistral")
	assert.False(t, ok)
}

func TestCorruptRecordFailsOpen(t *testing.T) {
	p := &memPersister{raw: "{not json", exists: true}
	s := newTestStore(p)

	_, ok := s.Get("Anthropic")
	assert.False(t, ok)

	// The corrupt record was discarded, not kept around.
	assert.False(t, p.exists)

	// And the store keeps working afterwards.
	require.NoError(t, s.Set("Anthropic", "fresh"))
	got, ok := s.Get("Anthropic")
	require.True(t, ok)
	assert.Equal(t, "fresh", got)
}

func TestConfiguredNeverExposesSecrets(t *testing.T) {
	p := &memPersister{}
	s := newTestStore(p)

	require.NoError(t, s.Set("Anthropic", "secret"))
	require.NoError(t, s.Set("OpenAI", ""))

	conf := s.Configured()
	assert.True(t, conf["Anthropic"])
	assert.False(t, conf["OpenAI"])
}

func TestSetRequiresProvider(t *testing.T) {
	s := newTestStore(&memPersister{})

	err := s.Set("", "key")
	require.Error(t, err)
	assert.True(t, utils.IsCode(err, utils.CodeInvalidArgument))
}
