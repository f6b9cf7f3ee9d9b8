package jarstore

import (
	"context"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
	"time"

	"environovalab/log"
	"environovalab/oops"

	om "github.com/wk8/go-ordered-map/v2"
	"golang.org/x/net/publicsuffix"
)

// Jar is an http.CookieJar that writes the API host's cookies through to a Store every time the
// server sets or clears one. Cookies for other hosts are kept in memory only.
//
// A Jar lives for one request (or one command), so it holds that request's context for the
// writes.
type Jar struct {
	ctx     context.Context
	store   Store
	key     string
	host    string
	apiUrl  *url.URL
	inner   *cookiejar.Jar
	mu      sync.Mutex
	cookies *om.OrderedMap[string, Cookie]
	logger  log.Logger
}

func NewJar(ctx context.Context, store Store, key string, apiBaseUrl string, logger log.Logger) (*Jar, error) {
	apiUrl, err := url.Parse(apiBaseUrl)
	if err != nil {
		return nil, oops.Wrapf(err, "parse api base url")
	}
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, oops.Wrap(err)
	}

	jar := &Jar{
		ctx:     ctx,
		store:   store,
		key:     key,
		host:    apiUrl.Hostname(),
		apiUrl:  &url.URL{Scheme: apiUrl.Scheme, Host: apiUrl.Host, Path: "/"},
		inner:   inner,
		mu:      sync.Mutex{},
		cookies: om.New[string, Cookie](),
		logger:  logger,
	}

	stored, err := store.Load(ctx, key)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	var restored []*http.Cookie
	for _, cookie := range stored {
		if cookie.expired(now) {
			continue
		}
		if cookie.Path == "" {
			cookie.Path = "/"
		}
		jar.cookies.Set(cookieKey(cookie.Name, cookie.Path), cookie)
		restored = append(restored, cookie.httpCookie())
	}
	if len(restored) > 0 {
		inner.SetCookies(jar.apiUrl, restored)
	}
	return jar, nil
}

func cookieKey(name, path string) string {
	return name + ";" + path
}

func (j *Jar) Key() string {
	return j.key
}

func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.inner.Cookies(u)
}

func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.inner.SetCookies(u, cookies)
	if u.Hostname() != j.host {
		return
	}

	now := time.Now()
	for _, c := range cookies {
		path := c.Path
		if path == "" {
			path = "/"
		}
		key := cookieKey(c.Name, path)

		expires := c.Expires
		if c.MaxAge > 0 {
			expires = now.Add(time.Duration(c.MaxAge) * time.Second)
		}
		if c.MaxAge < 0 || (!expires.IsZero() && !expires.After(now)) {
			j.cookies.Delete(key)
			continue
		}
		j.cookies.Set(key, Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Path:     path,
			Expires:  expires,
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
		})
	}

	if err := j.store.Save(j.ctx, j.key, j.snapshotLocked()); err != nil {
		j.logger.Error().Err(err).Str("jar", j.key).Msg("Couldn't persist API cookies")
	}
}

func (j *Jar) snapshotLocked() []Cookie {
	cookies := make([]Cookie, 0, j.cookies.Len())
	for pair := j.cookies.Oldest(); pair != nil; pair = pair.Next() {
		cookies = append(cookies, pair.Value)
	}
	return cookies
}

// Snapshot returns the persisted cookies in the order they were first set
func (j *Jar) Snapshot() []Cookie {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.snapshotLocked()
}

// Clear forgets every cookie, in memory and in the store
func (j *Jar) Clear() error {
	j.mu.Lock()
	defer j.mu.Unlock()
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return oops.Wrap(err)
	}
	j.inner = inner
	j.cookies = om.New[string, Cookie]()
	return j.store.Delete(j.ctx, j.key)
}

var _ http.CookieJar = (*Jar)(nil)
