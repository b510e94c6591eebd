package handlers

import (
	"log/slog"
	"net/http"

	"github.com/adilzhm/pickbracket/brackets"
	"github.com/adilzhm/pickbracket/services"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: restrict to the frontend origin once it is deployed.
		return true
	},
}

type WebSocketHandler struct {
	hub *brackets.Hub
}

func NewWebSocketHandler(hub *brackets.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs subscribes the caller to live updates of one bracket session.
// The room key matches the session key used by the bracket service, so
// every applied pick or undo is pushed to connected clients.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	pollID, err := readIDParam(r, "pollID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	userID, err := readIDParam(r, "userID")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error to the client.
		slog.Error("failed to upgrade websocket connection", "error", err, "poll_id", pollID)
		return
	}

	roomID := services.SessionKey(pollID, userID)

	client := &brackets.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256),
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	slog.Info("websocket client registered", "room", roomID)
}
