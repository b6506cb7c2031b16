package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"community/internal/featureflags"
	"community/internal/middleware"
	"community/internal/models"
	"community/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

const liveParamsLocal = "livePostID"

// LiveBoardUpgrade validates a live board request before the websocket upgrade.
func (s *Server) LiveBoardUpgrade(c *fiber.Ctx) error {
	userID := callerID(c)
	if !s.featureFlags.Enabled(featureflags.LiveCounters, userID) {
		return models.RespondWithError(c, fiber.StatusNotFound,
			models.NewNotFoundError("Feature", featureflags.LiveCounters))
	}
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	postID, err := parseID(c, "postId")
	if err != nil {
		return nil
	}

	exists, err := s.store.Boards().Exists(c.UserContext(), postID)
	if err != nil {
		return respondError(c, err)
	}
	if !exists {
		return respondError(c, models.NewPostNotFoundError(postID))
	}

	c.Locals(liveParamsLocal, postID)
	return c.Next()
}

// LiveBoardHandler streams like and comment events of one board to the client.
// The first frame is a snapshot of the current counters.
// @Summary Live board counters
// @Description WebSocket. Pass the access token as the token query parameter.
// @Tags realtime
// @Param postId path int true "Board ID"
// @Param token query string true "Access token"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /ws/boards/{postId} [get]
func (s *Server) LiveBoardHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		postID, _ := conn.Locals(liveParamsLocal).(uint)
		userID, _ := conn.Locals("userID").(uint)

		sub, err := s.hub.Register(postID, userID, conn)
		if err != nil {
			level := slog.LevelWarn
			if errors.Is(err, notifications.ErrHubClosed) {
				level = slog.LevelDebug
			}
			middleware.Logger.Log(s.shutdownCtxOrBackground(), level, "live subscriber rejected",
				slog.Uint64("post_id", uint64(postID)),
				slog.String("error", err.Error()),
			)
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseTryAgainLater, err.Error()))
			_ = conn.Close()
			return
		}

		if snapshot, err := s.liveSnapshot(postID); err == nil {
			sub.TrySend(snapshot)
		}

		go sub.WritePump()
		sub.ReadPump()
	})
}

func (s *Server) liveSnapshot(postID uint) ([]byte, error) {
	ctx := s.shutdownCtxOrBackground()
	stats, err := s.store.Stats().Get(ctx, postID)
	if err != nil {
		return nil, err
	}
	return json.Marshal(notifications.Event{
		Type:    notifications.EventSnapshot,
		PostID:  postID,
		Payload: stats,
		At:      time.Now().UTC(),
	})
}
