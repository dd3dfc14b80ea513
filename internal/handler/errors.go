package handlers

import (
	"errors"
	"fmt"

	"unisocial/internal/models"
	"unisocial/internal/protocol"
)

var errInvalidRequest = errors.New("некорректные данные запроса")

// errorMessages is checked in order; more specific errors come first.
var errorMessages = []struct {
	err     error
	message string
}{
	{models.ErrInvalidCredentials, protocol.MsgInvalidCredential},
	{models.ErrUsernameTaken, protocol.MsgUsernameTaken},
	{models.ErrInvalidUsername, "Username must be 3-20 characters: letters, digits or underscore"},
	{models.ErrInvalidPassword, "Password must be between 6 and 72 characters"},
	{models.ErrEmptyContent, protocol.MsgEmptyContent},
	{models.ErrContentTooLong, "Post content is too long"},
	{models.ErrUserNotFound, protocol.MsgUserNotFound},
	{models.ErrPostNotFound, "Post not found"},
	{models.ErrForbidden, protocol.MsgUnauthorized},
	{models.ErrSelfFollow, "Cannot follow yourself"},
	{models.ErrAvatarTooLarge, "Avatar image is too large"},
	{models.ErrInvalidAvatar, "Invalid avatar data"},
	{models.ErrInvalidToken, protocol.MsgInvalidToken},
	{errInvalidRequest, "Invalid request data"},
}

// isClientError reports whether err has a dedicated wire message.
func isClientError(err error) bool {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

// fail turns a service error into a negative response. Unknown errors are
// logged and reported as an internal error.
func fail(c *protocol.Context, err error) protocol.Response {
	for _, m := range errorMessages {
		if errors.Is(err, m.err) {
			return protocol.Fail(m.message)
		}
	}

	if errors.Is(err, protocol.ErrMalformed) {
		c.Log.Warn().Err(err).Str("command", c.Request.Command).Msg("Некорректные данные команды")
	} else {
		c.Log.Error().Err(err).Str("command", c.Request.Command).Msg("Ошибка выполнения команды")
	}
	return protocol.Fail(protocol.MsgInternalError)
}

// bind decodes the request data into dst and runs the struct validation.
func (h *Handlers) bind(c *protocol.Context, dst interface{}) error {
	if err := c.Request.Decode(dst); err != nil {
		return err
	}
	if err := h.Validate.Struct(dst); err != nil {
		return fmt.Errorf("%w: %v", errInvalidRequest, err)
	}
	return nil
}
