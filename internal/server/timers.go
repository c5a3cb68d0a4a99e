package server

import (
	"time"

	"board-tracker/internal/protocol"

	"github.com/gorilla/websocket"
)

func (n *Notifier) heartbeatLoop() {
	defer close(n.done)
	ticker := time.NewTicker(n.opts.CheckInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n.CheckHeartbeats()
		case <-n.stop:
			return
		}
	}
}

// CheckHeartbeats probes connections idle past HeartbeatIdle and closes
// those silent past HeartbeatHard.
func (n *Notifier) CheckHeartbeats() {
	now := n.opts.Now()
	for _, c := range n.snapshotConns() {
		silent := now.Sub(c.seen())
		switch {
		case n.opts.HeartbeatHard > 0 && silent >= n.opts.HeartbeatHard:
			_ = c.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "heartbeat timeout"),
				time.Now().Add(writeWait))
			n.remove(c, "heartbeat timeout")
		case n.opts.HeartbeatIdle > 0 && silent >= n.opts.HeartbeatIdle:
			if err := c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				n.remove(c, "ping failed: "+err.Error())
				continue
			}
			n.sendTo(c, protocol.Ping{Timestamp: now.UnixMilli()})
		}
	}
}
