package handlers

import (
	"net/http"

	"github.com/linesmerrill/police-case-api/notify"
)

// Notification serves the live event stream
type Notification struct {
	Hub *notify.Hub
}

// WebSocketHandler registers the caller's connection with the hub
func (n Notification) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	p, ok := principal(w, r)
	if !ok {
		return
	}
	n.Hub.ServeWS(w, r, p.ID(), p.Actor.Roles)
}

// tokenFromQuery lets browsers, which cannot set headers on a websocket
// handshake, pass the bearer token as ?token=
func tokenFromQuery(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token := r.URL.Query().Get("token"); token != "" && r.Header.Get("Authorization") == "" {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		next.ServeHTTP(w, r)
	})
}
