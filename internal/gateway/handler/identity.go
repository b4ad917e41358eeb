package handler

import (
	"net"
	"net/http"
	"strings"

	"prism/internal/gateway/entity"
)

// UserHeader carries the caller identity set by the auth proxy in front of the
// gateway. Browsers cannot set headers on websocket upgrades, so the user_id
// query parameter is accepted as well.
const UserHeader = "X-User-ID"

func UserFromRequest(r *http.Request) entity.UserID {
	if id := UserFromRequestHeader(r.Header); !id.IsZero() {
		return id
	}
	return entity.NormalizeUserID(r.URL.Query().Get("user_id"))
}

func UserFromRequestHeader(h http.Header) entity.UserID {
	return entity.NormalizeUserID(h.Get(UserHeader))
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// connection address.
func ClientIP(header http.Header, remoteAddr string) string {
	if fwd := header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	if ip := strings.TrimSpace(header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		return strings.TrimSpace(remoteAddr)
	}
	return host
}
