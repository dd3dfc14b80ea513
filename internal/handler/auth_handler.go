package handlers

import (
	"time"

	"unisocial/internal/models"
	"unisocial/internal/protocol"
)

type HandshakeRequest struct {
	Version  string `json:"version"`
	ClientID string `json:"clientId"`
	Token    string `json:"token"`
}

type CredentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type DeleteAccountRequest struct {
	UserID   int64  `json:"userId" validate:"required,gt=0"`
	Password string `json:"password" validate:"required"`
}

func (h *Handlers) Handshake(c *protocol.Context) protocol.Response {
	var req HandshakeRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	c.Log.Debug().Str("client_version", req.Version).Str("client_id", req.ClientID).Msg("Рукопожатие")

	resp := protocol.OK().
		Message("Handshake successful").
		With("serverVersion", protocol.ServerVersion)

	if req.Token == "" {
		return resp
	}

	// resume a session from a token issued by an earlier LOGIN or SIGNUP
	user, err := h.AuthService.Tokens().Resume(c.Ctx, req.Token)
	if err != nil {
		return fail(c, err)
	}
	c.Session.Login(user, req.Token)
	c.Log.Info().Int64("user_id", user.ID).Msg("Сессия восстановлена по токену")

	return resp.With("user", user)
}

// startSession logs the user in on this connection and issues a resume token.
func (h *Handlers) startSession(c *protocol.Context, user *models.User, message string) protocol.Response {
	token, err := h.AuthService.Tokens().Issue(user.ID)
	if err != nil {
		return fail(c, err)
	}

	// a new login on this connection retires the previous session token
	if c.Session.Authenticated() {
		h.endSession(c)
	}
	c.Session.Login(user, token)

	resp := protocol.OK().Message(message).With("user", user)
	if token != "" {
		resp = resp.With("token", token)
	}
	return resp
}

func (h *Handlers) Login(c *protocol.Context) protocol.Response {
	var req CredentialsRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	user, err := h.AuthService.Authenticate(c.Ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	c.Log.Info().Int64("user_id", user.ID).Msg("Пользователь вошёл")
	return h.startSession(c, user, "Login successful")
}

func (h *Handlers) Signup(c *protocol.Context) protocol.Response {
	var req CredentialsRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	user, err := h.AuthService.CreateUser(c.Ctx, req.Username, req.Password)
	if err != nil {
		return fail(c, err)
	}

	return h.startSession(c, user, "Signup successful")
}

// endSession clears the session and revokes its token.
func (h *Handlers) endSession(c *protocol.Context) {
	if err := h.AuthService.Tokens().Revoke(c.Ctx, c.Session.Token()); err != nil {
		c.Log.Error().Err(err).Msg("Не удалось отозвать токен")
	}
	c.Session.Logout()
}

func (h *Handlers) Logout(c *protocol.Context) protocol.Response {
	c.Log.Info().Int64("user_id", c.Session.UserID()).Msg("Пользователь вышел")
	h.endSession(c)
	return protocol.OK().Message("Logout successful")
}

func (h *Handlers) ChangePassword(c *protocol.Context) protocol.Response {
	var req ChangePasswordRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	if err := h.AuthService.ChangePassword(c.Ctx, c.Session.UserID(), req.OldPassword, req.NewPassword); err != nil {
		return fail(c, err)
	}
	return protocol.OK().Message("Password changed")
}

func (h *Handlers) DeleteAccount(c *protocol.Context) protocol.Response {
	var req DeleteAccountRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	avatarURL, err := h.AuthService.DeleteAccount(c.Ctx, req.UserID, req.Password)
	if err != nil {
		return fail(c, err)
	}

	h.UserService.DiscardAvatar(c.Ctx, req.UserID, avatarURL)
	h.endSession(c)
	return protocol.OK().Message("Account deleted")
}

func (h *Handlers) Ping(c *protocol.Context) protocol.Response {
	return protocol.OK().
		Message("pong").
		With("timestamp", time.Now().UnixMilli())
}

func (h *Handlers) Disconnect(c *protocol.Context) protocol.Response {
	c.Close = true
	return protocol.OK().Message("Disconnect acknowledged")
}
