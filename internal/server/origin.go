package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// originPolicy decides which browser origins may open a WebSocket. Origins
// are compared as lower-cased scheme://host; "*" admits any well-formed
// origin. Requests without an Origin header are refused.
type originPolicy struct {
	any     bool
	allowed map[string]struct{}
	log     *slog.Logger
}

func newOriginPolicy(origins []string, log *slog.Logger) originPolicy {
	p := originPolicy{allowed: make(map[string]struct{}, len(origins)), log: log}
	for _, raw := range origins {
		raw = strings.TrimSpace(raw)
		switch raw {
		case "":
			continue
		case "*":
			p.any = true
			continue
		}
		key, ok := originKey(raw)
		if !ok {
			log.Warn("Ignoring invalid origin in configuration", "origin", raw)
			continue
		}
		p.allowed[key] = struct{}{}
	}
	return p
}

func originKey(origin string) (string, bool) {
	u, err := url.Parse(origin)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", false
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), true
}

func (p originPolicy) admits(origin string) bool {
	key, ok := originKey(origin)
	if !ok {
		return false
	}
	if p.any {
		return true
	}
	_, ok = p.allowed[key]
	return ok
}

// checkOrigin is the upgrader's CheckOrigin.
func (p originPolicy) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if p.admits(origin) {
		return true
	}
	p.log.Warn("Blocked WebSocket connection from disallowed origin", "origin", origin, "remote", r.RemoteAddr)
	return false
}
