package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/mingainspire/better-bolt/internal/artifacts"
	"github.com/mingainspire/better-bolt/internal/credstore"
)

// Client-scoped persistence: one named cookie per record, rewritten wholesale
// on every write, strict same-site, path-scoped to the whole app.
const (
	apiKeysCookie   = "apiKeys"
	artifactsCookie = "visualBreakdowns"

	// Cookies cannot live forever; ten years stands in for "no expiry" on
	// the artifact record.
	artifactsMaxAge = 10 * 365 * 24 * 3600
)

type cookieRecord struct {
	c    *gin.Context
	name string
}

func (r cookieRecord) Load() (string, bool) {
	v, err := r.c.Cookie(r.name)
	if err != nil {
		return "", false
	}
	return v, true
}

func (r cookieRecord) set(raw string, maxAge int) {
	r.c.SetSameSite(http.SameSiteStrictMode)
	r.c.SetCookie(r.name, raw, maxAge, "/", "", true, false)
}

func (r cookieRecord) Drop() {
	r.set("", -1)
}

// keysCookie adapts the cookie to the credential store's persister contract.
type keysCookie struct{ cookieRecord }

func (k keysCookie) Save(raw string, ttl time.Duration) error {
	k.set(raw, int(ttl.Seconds()))
	return nil
}

// artifactsRecord adapts the cookie to the artifact store's persister
// contract.
type artifactsRecord struct{ cookieRecord }

func (a artifactsRecord) Save(raw string) error {
	a.set(raw, artifactsMaxAge)
	return nil
}

func keyStore(c *gin.Context, log *logrus.Logger) *credstore.Store {
	return credstore.New(keysCookie{cookieRecord{c: c, name: apiKeysCookie}}, log)
}

func artifactStore(c *gin.Context, log *logrus.Logger) *artifacts.Store {
	return artifacts.New(artifactsRecord{cookieRecord{c: c, name: artifactsCookie}}, log)
}
