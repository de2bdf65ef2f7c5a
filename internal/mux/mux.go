// Package mux provides the HTTP and websocket surface of the server.
package mux

import (
	"net/http"
	"time"

	gmux "github.com/gorilla/mux"

	"bigtwo-server/internal/config"
	"bigtwo-server/pkg/room"
)

// Mux handles HTTP requests
type Mux struct {
	*gmux.Router
	version string
	manager *room.Manager
}

// NewMux returns a new HTTP mux
func NewMux(version string) *Mux {
	manager := room.NewManager(time.Duration(config.Instance().EndGameDelay) * time.Second)

	this := &Mux{
		Router:  gmux.NewRouter(),
		version: version,
		manager: manager,
	}

	r := this.Router
	r.Methods(http.MethodGet).Path("/health").Handler(this.getHealth())
	r.Methods(http.MethodPost).Path("/room").Handler(this.postRoom())
	r.Methods(http.MethodGet).Path("/room/{code:[A-Za-z0-9_-]+}/ws").Handler(this.getRoomCodeWS())

	return this
}
