package mux

import (
	"net/http"
	"time"

	gmux "github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"bigtwo-server/internal/jwt"
	"bigtwo-server/internal/util"
	"bigtwo-server/pkg/game"
	"bigtwo-server/pkg/room"
)

const writeWait = time.Second * 10
const pongWait = time.Second * 60
const pingPeriod = pongWait * 9 / 10

type joinedData struct {
	Name    string `json:"name"`
	Room    string `json:"room"`
	Session string `json:"session"`
}

// getRoomCodeWS upgrades the connection and seats the caller. A `session`
// query parameter resumes an existing seat; otherwise `name` (or a random
// name) joins a free one.
func (m *Mux) getRoomCodeWS() http.HandlerFunc {
	upgrader := &websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := m.manager.Room(gmux.Vars(r)["code"])
		if !ok {
			writeJSONError(w, http.StatusNotFound, nil)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}

		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			_ = conn.SetReadDeadline(time.Now().Add(pongWait))
			return nil
		})

		client, resumed, err := m.seatClient(rm, r)
		if err != nil {
			_ = conn.WriteJSON(&game.Message{Key: "error", Data: err.Error()})
			_ = conn.Close()
			return
		}

		generation, send, replaced := client.Attach()

		signed, err := jwt.Sign(client.SessionID())
		if err != nil {
			logrus.WithError(err).Error("could not sign session token")
		} else {
			client.Send(&game.Message{Key: "joined", Data: joinedData{
				Name:    client.Name(),
				Room:    rm.Code(),
				Session: signed,
			}})
		}

		if resumed {
			rm.Resync(client)
		}

		defer func() {
			if client.Detach(generation) {
				rm.ClientGone(client)
			}
			_ = conn.Close()
		}()

		go m.webSocketWriteLoop(conn, client, send, replaced)
		m.webSocketReadLoop(conn, client)
	}
}

// seatClient resumes the session named by the request, or joins as a new
// player
func (m *Mux) seatClient(rm *room.Room, r *http.Request) (*room.Client, bool, error) {
	if session := r.FormValue("session"); session != "" {
		sessionID, err := jwt.ValidSessionID(session)
		if err != nil {
			return nil, false, err
		}

		client, err := rm.ClientBySession(sessionID)
		return client, err == nil, err
	}

	name := r.FormValue("name")
	if name == "" {
		name = util.GetRandomName()
	}

	client, err := rm.Join(name)
	return client, false, err
}

func (m *Mux) webSocketWriteLoop(conn *websocket.Conn, client *room.Client, send <-chan *game.Message, replaced <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-replaced:
			// a newer socket owns this client now
			return
		case reason := <-client.CloseChan():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason))
			return
		case msg, ok := <-send:
			if !ok {
				return
			}

			logrus.WithFields(logrus.Fields{
				"key":    msg.Key,
				"client": client.Name(),
			}).Trace("sending message to client")

			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logrus.WithError(err).WithField("client", client.Name()).Error("could not write message")
				return
			}
		}
	}
}

func (m *Mux) webSocketReadLoop(conn *websocket.Conn, client *room.Client) {
	for {
		var msg room.PayloadIn
		if err := conn.ReadJSON(&msg); err != nil {
			if !websocket.IsUnexpectedCloseError(err) {
				logrus.WithError(err).Debug("client closed connection")
			} else if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure) {
				logrus.WithError(err).Error("could not read message")
			}

			return
		}

		client.Room().ReceivedMessage(client, &msg)
	}
}
