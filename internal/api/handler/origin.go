package handler

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/pion/logging"
)

// originPolicy decides which browser origins may open a websocket or call
// the API cross-origin.
type originPolicy struct {
	allowAll bool
	allowed  map[string]struct{}
	log      logging.LeveledLogger
}

func newOriginPolicy(origins []string, log logging.LeveledLogger) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}), log: log}
	for _, origin := range origins {
		trimmed := strings.TrimSpace(origin)
		switch {
		case trimmed == "":
			continue
		case trimmed == "*":
			p.allowAll = true
			continue
		}

		normalized, ok := normalizeOrigin(trimmed)
		if !ok {
			log.Warnf("ignoring invalid origin in configuration: %q", origin)
			continue
		}
		p.allowed[normalized] = struct{}{}
	}
	return p
}

func normalizeOrigin(origin string) (string, bool) {
	parsed, err := url.Parse(origin)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return "", false
	}
	return strings.ToLower(parsed.Scheme) + "://" + strings.ToLower(parsed.Host), true
}

// allows reports whether a browser origin is accepted.
func (p originPolicy) allows(origin string) bool {
	if p.allowAll {
		return true
	}
	normalized, ok := normalizeOrigin(origin)
	if !ok {
		return false
	}
	_, allowed := p.allowed[normalized]
	return allowed
}

// checkOrigin is the websocket upgrader's CheckOrigin. Requests without an
// Origin header come from non-browser clients and are let through.
func (p originPolicy) checkOrigin(r *http.Request) bool {
	header := r.Header.Get("Origin")
	if header == "" || p.allows(header) {
		return true
	}
	p.log.Warnf("blocked websocket from disallowed origin %q", header)
	return false
}
