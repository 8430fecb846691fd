package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/id"
)

// MatrixConfig holds the connection parameters for the Matrix sink.
type MatrixConfig struct {
	Homeserver  string
	UserID      string
	AccessToken string
	// RoomID is the room notifications are posted to.
	RoomID string
}

// MatrixNotifier posts notifications as notices to a Matrix room. This is the
// headless stand-in for desktop notifications: the "permission" is simply
// whether a room is configured.
type MatrixNotifier struct {
	mxc    *mautrix.Client
	roomID id.RoomID
}

// NewMatrix creates the Matrix notifier. It does not join or sync; posting
// notices only needs a valid access token and room membership.
func NewMatrix(cfg MatrixConfig) (*MatrixNotifier, error) {
	mxc, err := mautrix.NewClient(cfg.Homeserver, id.UserID(cfg.UserID), cfg.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("create matrix client: %w", err)
	}
	return &MatrixNotifier{mxc: mxc, roomID: id.RoomID(cfg.RoomID)}, nil
}

// Notify posts the notification as a notice. Send failures are logged at
// WARN; the caller is never blocked for more than a few seconds.
func (n *MatrixNotifier) Notify(ctx context.Context, notif Notification) {
	if n.roomID == "" {
		return
	}
	sendCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	text := notif.Title
	if notif.Body != "" {
		text += "\n" + notif.Body
	}
	if _, err := n.mxc.SendNotice(sendCtx, n.roomID, text); err != nil {
		slog.Warn("matrix notification failed", "room", n.roomID, "err", err)
	}
}

var _ Notifier = (*MatrixNotifier)(nil)
