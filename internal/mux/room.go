package mux

import (
	"net/http"
)

type postRoomPayload struct {
	Size int `json:"size"`
}

type postRoomResponse struct {
	Code string `json:"code"`
	Size int    `json:"size"`
}

// postRoom creates a new room and returns its join code
func (m *Mux) postRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload postRoomPayload
		if !decodeRequest(w, r, &payload) {
			return
		}

		rm, err := m.manager.CreateRoom(payload.Size)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err)
			return
		}

		writeJSON(w, http.StatusCreated, postRoomResponse{
			Code: rm.Code(),
			Size: payload.Size,
		})
	}
}
