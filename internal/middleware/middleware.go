package middleware

import (
	"runtime/debug"
	"time"

	"unisocial/internal/protocol"
)

type Middleware func(protocol.HandlerFunc) protocol.HandlerFunc

// Recorder receives one observation per handled command.
type Recorder interface {
	ObserveCommand(command string, success bool, duration time.Duration)
}

// RequireAuth rejects commands on a connection without a logged in user.
func RequireAuth(next protocol.HandlerFunc) protocol.HandlerFunc {
	return func(c *protocol.Context) protocol.Response {
		if !c.Session.Authenticated() {
			return protocol.Fail(protocol.MsgNotAuthenticated)
		}
		return next(c)
	}
}

type ownerData struct {
	UserID *int64 `json:"userId"`
}

// OwnerOnly requires data.userId to be the session user.
func OwnerOnly(next protocol.HandlerFunc) protocol.HandlerFunc {
	return func(c *protocol.Context) protocol.Response {
		var data ownerData
		if err := c.Request.Decode(&data); err != nil {
			return protocol.Fail(protocol.MsgInternalError)
		}

		if data.UserID == nil || *data.UserID != c.Session.UserID() {
			c.Log.Warn().Interface("requested_user_id", data.UserID).Msg("Попытка изменить чужой профиль")
			return protocol.Fail(protocol.MsgUnauthorized)
		}
		return next(c)
	}
}

func Recover(next protocol.HandlerFunc) protocol.HandlerFunc {
	return func(c *protocol.Context) (resp protocol.Response) {
		defer func() {
			if p := recover(); p != nil {
				c.Log.Error().
					Interface("panic", p).
					Bytes("stack", debug.Stack()).
					Str("command", c.Request.Command).
					Msg("Паника при обработке команды")
				resp = protocol.Fail(protocol.MsgInternalError)
			}
		}()
		return next(c)
	}
}

func Logging(next protocol.HandlerFunc) protocol.HandlerFunc {
	return func(c *protocol.Context) protocol.Response {
		start := time.Now()
		resp := next(c)

		event := c.Log.Debug()
		if !resp.Success() {
			event = c.Log.Info()
		}
		event.
			Str("command", c.Request.Command).
			Bool("success", resp.Success()).
			Dur("duration", time.Since(start)).
			Interface("response_message", resp["message"]).
			Msg("Команда обработана")

		return resp
	}
}

func Metrics(recorder Recorder) Middleware {
	return func(next protocol.HandlerFunc) protocol.HandlerFunc {
		return func(c *protocol.Context) protocol.Response {
			start := time.Now()
			resp := next(c)
			if recorder != nil {
				recorder.ObserveCommand(c.Request.Command, resp.Success(), time.Since(start))
			}
			return resp
		}
	}
}

// Chain wraps h so that the first middleware is the outermost.
func Chain(h protocol.HandlerFunc, middlewares ...Middleware) protocol.HandlerFunc {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}
