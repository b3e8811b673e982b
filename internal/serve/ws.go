package serve

import (
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/Vansh-04/buildfirst/internal/runner"
)

const (
	statusWSWriteWait = 10 * time.Second
	statusWSPongWait  = 60 * time.Second
	statusWSPingEvery = (statusWSPongWait * 9) / 10
)

var statusWSUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// handleStatusWS sends the stored status, then every status change of a
// running build, until the client goes away.
func (h *Handler) handleStatusWS(w http.ResponseWriter, r *http.Request) {
	conn, err := statusWSUpgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer conn.Close()

	updates, release := h.hub.Subscribe()
	defer release()

	if err := conn.SetReadDeadline(time.Now().Add(statusWSPongWait)); err != nil {
		h.log.Debug("status ws set read deadline failed", zap.Error(err))
		return
	}
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(statusWSPongWait))
	})

	readerDone := make(chan struct{})
	go func() {
		defer close(readerDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
	defer func() {
		_ = conn.Close()
		<-readerDone
	}()

	write := func(v any) bool {
		if err := conn.SetWriteDeadline(time.Now().Add(statusWSWriteWait)); err != nil {
			return false
		}
		return conn.WriteJSON(v) == nil
	}
	if st, err := runner.LoadStatus(r.Context(), h.store); err == nil {
		if !write(statusView(st)) {
			return
		}
	}

	ticker := time.NewTicker(statusWSPingEvery)
	defer ticker.Stop()
	for {
		select {
		case <-readerDone:
			return
		case <-h.base.Done():
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "server closing"),
				time.Now().Add(statusWSWriteWait))
			return
		case st := <-updates:
			if !write(statusView(st)) {
				return
			}
		case <-ticker.C:
			if err := conn.SetWriteDeadline(time.Now().Add(statusWSWriteWait)); err != nil {
				return
			}
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
