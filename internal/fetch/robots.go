package fetch

import (
	"net/http"
	"net/url"
	"sync"

	"github.com/temoto/robotstxt"
)

// robotsCache fetches and caches a domain's /robots.txt group, keyed by
// scheme://host, so each domain is fetched at most once per Fetcher
// lifetime.
type robotsCache struct {
	client    *http.Client
	userAgent string

	mu     sync.RWMutex
	groups map[string]*robotstxt.Group // nil value means "no robots.txt, allow all"
}

func newRobotsCache(client *http.Client, userAgent string) *robotsCache {
	return &robotsCache{
		client:    client,
		userAgent: userAgent,
		groups:    make(map[string]*robotstxt.Group),
	}
}

func (c *robotsCache) groupFor(target *url.URL) *robotstxt.Group {
	domain := target.Scheme + "://" + target.Host

	c.mu.RLock()
	group, known := c.groups[domain]
	c.mu.RUnlock()
	if known {
		return group
	}

	group = c.fetchGroup(domain)
	c.mu.Lock()
	c.groups[domain] = group
	c.mu.Unlock()
	return group
}

func (c *robotsCache) fetchGroup(domain string) *robotstxt.Group {
	req, err := http.NewRequest("GET", domain+"/robots.txt", nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", c.userAgent)
	res, err := c.client.Do(req)
	if err != nil {
		return nil
	}
	defer res.Body.Close()
	if res.StatusCode == http.StatusNotFound {
		return nil
	}

	data, err := robotstxt.FromResponse(res)
	if err != nil {
		return nil
	}
	return data.FindGroup(c.userAgent)
}

// allowed reports whether target may be crawled under the robots.txt rules
// cached for its domain. A missing or unparsable robots.txt allows
// everything.
func (c *robotsCache) allowed(target *url.URL) bool {
	group := c.groupFor(target)
	if group == nil {
		return true
	}
	return group.Test(target.RequestURI())
}
