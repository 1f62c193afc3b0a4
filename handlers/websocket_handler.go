package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/Dosada05/tournament-staging/courts"
	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// В продакшене здесь должна быть проверка Origin,
		// чтобы разрешать подключения только с доверенных доменов.
		return true // Для разработки разрешаем все
	},
}

type WebSocketHandler struct {
	hub *courts.Hub
}

func NewWebSocketHandler(hub *courts.Hub) *WebSocketHandler {
	return &WebSocketHandler{hub: hub}
}

// ServeWs обрабатывает WebSocket подписку на табло этапа.
// Клиент подключается к /ws/stages/{stageID} и получает
// BOARD_UPDATED / TIMER_UPDATED / TIMER_EXPIRED сообщения.
func (h *WebSocketHandler) ServeWs(w http.ResponseWriter, r *http.Request) {
	stageIDStr := chi.URLParam(r, "stageID")
	stageID, err := strconv.Atoi(stageIDStr)
	if err != nil || stageID <= 0 {
		http.Error(w, "Invalid stageID", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader.Upgrade сам отправляет HTTP ошибку клиенту, так что здесь просто логируем.
		log.Printf("Failed to upgrade connection for stage %d: %v", stageID, err)
		return
	}

	roomID := courts.StageRoom(stageID)

	client := &courts.Client{
		Hub:  h.hub,
		Conn: conn,
		Send: make(chan []byte, 256), // Буферизированный канал
		Room: roomID,
	}
	client.Hub.Register <- client

	go client.WritePump()
	go client.ReadPump()

	log.Printf("Client registered and pumps started for room %s.", roomID)
}
