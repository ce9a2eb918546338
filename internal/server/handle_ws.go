package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const wsWriteTimeout = 5 * time.Second

// handleWSEvents streams the same render commands as handleEvents over a
// websocket, backlog first. Client messages are read and discarded so close frames are seen.
func handleWSEvents(logger *slog.Logger, broker *Broker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Subscribe before the handshake completes so nothing published after
		// the client's dial returns is missed.
		backlog, ch := broker.Subscribe()
		defer broker.Unsubscribe(ch)

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer conn.CloseNow()

		ctx := conn.CloseRead(r.Context())

		for _, data := range backlog {
			if err := writeWS(ctx, conn, data); err != nil {
				logger.Debug("websocket write failed", "error", err)
				return
			}
		}

		ping := time.NewTicker(pingInterval)
		defer ping.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Debug("websocket stream ended", "error", ctx.Err())
				conn.Close(websocket.StatusNormalClosure, "")
				return
			case data := <-ch:
				if err := writeWS(ctx, conn, data); err != nil {
					logger.Debug("websocket write failed", "error", err)
					return
				}
			case <-ping.C:
				pctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
				err := conn.Ping(pctx)
				cancel()
				if err != nil {
					logger.Debug("websocket ping failed", "error", err)
					return
				}
			}
		}
	}
}

func writeWS(ctx context.Context, conn *websocket.Conn, data []byte) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, data)
}
