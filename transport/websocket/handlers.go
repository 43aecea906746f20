package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-timetravel/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/entity"
	"github.com/rocketscienceinc/tictactoe-timetravel/internal/repository"
)

func (that *Server) handleNewSession(ctx context.Context, msg *Message, sender *client) error {
	log := that.logger.With("method", "handleNewSession")

	game, err := that.sessions.CreateSession(ctx)
	if err != nil {
		log.Error("failed to create session", "error", err)
		return that.sendError(sender, msg.Action, "failed to create a new session", nil)
	}

	that.attach(game.SessionID, sender)

	if err = sender.send(msg.Action, Payload{SessionID: game.SessionID, Game: game}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("session started", "sessionID", game.SessionID)

	return nil
}

func (that *Server) handleJoinSession(ctx context.Context, msg *Message, sender *client) error {
	log := that.logger.With("method", "handleJoinSession")

	payloadReq, ok := that.parsePayload(msg, sender)
	if !ok {
		return nil
	}

	game, err := that.sessions.GetSession(ctx, payloadReq.SessionID)
	if err != nil {
		log.Warn("failed to join session", "sessionID", payloadReq.SessionID, "error", err)
		return that.sendError(sender, msg.Action, errorText(err), nil)
	}

	that.attach(game.SessionID, sender)

	if err = sender.send(msg.Action, Payload{SessionID: game.SessionID, Game: game}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("connection joined session", "sessionID", game.SessionID)

	return nil
}

func (that *Server) handleGameMove(ctx context.Context, msg *Message, sender *client) error {
	payloadReq, ok := that.parsePayload(msg, sender)
	if !ok {
		return nil
	}

	if payloadReq.Cell == nil {
		return that.sendError(sender, msg.Action, "cell is required", nil)
	}

	game, err := that.sessions.MakeMove(ctx, payloadReq.SessionID, *payloadReq.Cell)
	if err != nil {
		return that.sendError(sender, msg.Action, errorText(err), game)
	}

	that.attach(payloadReq.SessionID, sender)
	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleGameJump(ctx context.Context, msg *Message, sender *client) error {
	payloadReq, ok := that.parsePayload(msg, sender)
	if !ok {
		return nil
	}

	if payloadReq.Move == nil {
		return that.sendError(sender, msg.Action, "move is required", nil)
	}

	game, err := that.sessions.JumpTo(ctx, payloadReq.SessionID, *payloadReq.Move)
	if err != nil {
		return that.sendError(sender, msg.Action, errorText(err), game)
	}

	that.attach(payloadReq.SessionID, sender)
	that.broadcast(msg.Action, game)

	return nil
}

func (that *Server) handleLeaveSession(ctx context.Context, msg *Message, sender *client) error {
	log := that.logger.With("method", "handleLeaveSession")

	payloadReq, ok := that.parsePayload(msg, sender)
	if !ok {
		return nil
	}

	if err := that.sessions.EndSession(ctx, payloadReq.SessionID); err != nil {
		log.Error("failed to end session", "sessionID", payloadReq.SessionID, "error", err)
		return that.sendError(sender, msg.Action, "failed to end session", nil)
	}

	watchers := that.takeWatchers(payloadReq.SessionID)
	if len(watchers) == 0 {
		watchers = []*client{sender}
	}

	for _, watcher := range watchers {
		if err := watcher.send(msg.Action, Payload{SessionID: payloadReq.SessionID}); err != nil {
			log.Error("failed to send leave message", "error", err)
		}
	}

	log.Info("session ended", "sessionID", payloadReq.SessionID)

	return nil
}

// broadcast sends the new state to every connection watching the session.
func (that *Server) broadcast(action string, game *entity.GameView) {
	log := that.logger.With("method", "broadcast", "sessionID", game.SessionID)

	for _, watcher := range that.watchers(game.SessionID) {
		if err := watcher.send(action, Payload{SessionID: game.SessionID, Game: game}); err != nil {
			log.Error("failed to send game update", "error", err)
		}
	}
}

// parsePayload answers the sender itself when the payload is unusable.
func (that *Server) parsePayload(msg *Message, sender *client) (*Payload, bool) {
	var payloadReq Payload

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		that.logger.Warn("failed to unmarshal payload", "action", msg.Action, "error", err)
		_ = that.sendError(sender, msg.Action, "malformed payload", nil)
		return nil, false
	}

	if payloadReq.SessionID == "" {
		_ = that.sendError(sender, msg.Action, "session_id is required", nil)
		return nil, false
	}

	return &payloadReq, true
}

func (that *Server) sendError(sender *client, action, errorMsg string, game *entity.GameView) error {
	if err := sender.send(action, Payload{Error: errorMsg, Game: game}); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

// errorText keeps internal failures out of client messages.
func errorText(err error) string {
	switch {
	case apperror.IsRejected(err), apperror.IsInvalidIndex(err):
		return err.Error()
	case errors.Is(err, repository.ErrSessionNotFound):
		return repository.ErrSessionNotFound.Error()
	default:
		return "internal error"
	}
}
