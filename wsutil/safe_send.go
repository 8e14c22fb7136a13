package wsutil

import (
	"encoding/json"
	"log/slog"
)

// SafeSend sends data to a channel without panicking if the channel is closed.
// If the channel is full or closed, the send is skipped and false is returned.
func SafeSend(ch chan []byte, data []byte) (sent bool) {
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("SafeSend recovered panic", "tag", "wsutil", "panic", r)
			sent = false
		}
	}()
	select {
	case ch <- data:
		return true
	default:
		slog.Debug("send buffer full, dropping message", "tag", "wsutil")
		return false
	}
}

// SendJSON marshals v and hands it to SafeSend.
func SendJSON(ch chan []byte, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal message", "tag", "wsutil", "err", err)
		return false
	}
	return SafeSend(ch, data)
}
