package websocket

import (
	"log"
	"net/http"
	"time"

	"backtest-backend/internal/domain"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // chart page may be served from a different origin
	},
}

// Handler streams render states to connected chart pages: the latest snapshot
// on connect, then a push whenever a newer state lands in the repository.
type Handler struct {
	states domain.RenderStateRepository
}

func NewHandler(states domain.RenderStateRepository) *Handler {
	return &Handler{states: states}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Println("ws upgrade:", err)
		return
	}
	defer conn.Close()

	var lastSeq uint64
	var lastPhase string

	if state, ok := h.states.Latest(); ok {
		if err := conn.WriteJSON(state); err != nil {
			log.Println("ws write:", err)
			return
		}
		lastSeq, lastPhase = state.Sequence, state.Phase
	}

	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		state, ok := h.states.Latest()
		if !ok || (state.Sequence == lastSeq && state.Phase == lastPhase) {
			continue
		}
		if err := conn.WriteJSON(state); err != nil {
			log.Println("ws write:", err)
			return
		}
		lastSeq, lastPhase = state.Sequence, state.Phase
	}
}
