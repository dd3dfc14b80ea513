package handlers

import (
	"unisocial/internal/models"
	"unisocial/internal/protocol"
)

type GetUserRequest struct {
	UserID   int64  `json:"userId" validate:"required_without=Username"`
	Username string `json:"username"`
}

type UserIDRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
}

type UserListRequest struct {
	UserID int64 `json:"userId" validate:"required,gt=0"`
	Limit  int   `json:"limit" validate:"gte=0"`
}

type TargetUserRequest struct {
	TargetUserID int64 `json:"targetUserId" validate:"required,gt=0"`
}

type SearchUsersRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit" validate:"gte=0"`
}

type UpdateProfileRequest struct {
	UserID    int64   `json:"userId" validate:"required,gt=0"`
	FullName  *string `json:"fullName" validate:"omitempty,max=100"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatarUrl" validate:"omitempty,max=2048"`
}

type UpdateAvatarRequest struct {
	UserID      int64  `json:"userId" validate:"required,gt=0"`
	AvatarData  string `json:"avatarData" validate:"required"`
	ContentType string `json:"contentType"`
}

func (h *Handlers) GetUser(c *protocol.Context) protocol.Response {
	var req GetUserRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	var (
		user *models.User
		err  error
	)
	if req.UserID != 0 {
		user, err = h.UserService.GetUserByID(c.Ctx, req.UserID)
	} else {
		user, err = h.UserService.GetUserByUsername(c.Ctx, req.Username)
	}
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("user", user)
}

func (h *Handlers) UpdateProfile(c *protocol.Context) protocol.Response {
	var req UpdateProfileRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	update := models.ProfileUpdate{
		FullName:  req.FullName,
		Bio:       req.Bio,
		AvatarURL: req.AvatarURL,
	}
	if err := h.UserService.UpdateProfile(c.Ctx, req.UserID, update); err != nil {
		return fail(c, err)
	}

	// keep the session copy in step with the stored profile
	if user, err := h.UserService.GetUserByID(c.Ctx, req.UserID); err == nil {
		c.Session.Login(user, c.Session.Token())
	}
	return protocol.OK().Message("Profile updated")
}

func (h *Handlers) SearchUsers(c *protocol.Context) protocol.Response {
	var req SearchUsersRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	users, err := h.UserService.SearchUsers(c.Ctx, req.Query, req.Limit)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("users", users)
}

func (h *Handlers) FollowUser(c *protocol.Context) protocol.Response {
	var req TargetUserRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	following, err := h.UserService.ToggleFollow(c.Ctx, c.Session.UserID(), req.TargetUserID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().
		Message("Follow toggled").
		With("following", following)
}

func (h *Handlers) IsFollowing(c *protocol.Context) protocol.Response {
	var req TargetUserRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	following, err := h.UserService.IsFollowing(c.Ctx, c.Session.UserID(), req.TargetUserID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("following", following)
}

func (h *Handlers) GetFollowers(c *protocol.Context) protocol.Response {
	var req UserListRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	users, err := h.UserService.GetFollowers(c.Ctx, req.UserID, req.Limit)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("users", users)
}

func (h *Handlers) GetFollowing(c *protocol.Context) protocol.Response {
	var req UserListRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	users, err := h.UserService.GetFollowing(c.Ctx, req.UserID, req.Limit)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("users", users)
}

func (h *Handlers) GetUserStats(c *protocol.Context) protocol.Response {
	var req UserIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	stats, err := h.UserService.GetUserStats(c.Ctx, req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("stats", stats)
}

func (h *Handlers) GetAvatarURL(c *protocol.Context) protocol.Response {
	var req UserIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	avatarURL, err := h.UserService.GetAvatarURL(c.Ctx, req.UserID)
	if err != nil {
		return fail(c, err)
	}
	return protocol.OK().With("avatarUrl", avatarURL)
}

func (h *Handlers) UpdateAvatar(c *protocol.Context) protocol.Response {
	var req UpdateAvatarRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	avatarURL, err := h.UserService.UpdateAvatar(c.Ctx, req.UserID, req.AvatarData, req.ContentType)
	if err != nil {
		if isClientError(err) {
			return fail(c, err)
		}
		c.Log.Error().Err(err).Int64("user_id", req.UserID).Msg("Не удалось обновить аватар")
		return protocol.Fail("Failed to update avatar")
	}

	if user := c.Session.User(); user != nil {
		updated := *user
		updated.AvatarURL = &avatarURL
		c.Session.Login(&updated, c.Session.Token())
	}
	return protocol.OK().With("avatarUrl", avatarURL)
}

func (h *Handlers) DeleteAvatar(c *protocol.Context) protocol.Response {
	var req UserIDRequest
	if err := h.bind(c, &req); err != nil {
		return fail(c, err)
	}

	if err := h.UserService.DeleteAvatar(c.Ctx, req.UserID); err != nil {
		return fail(c, err)
	}

	if user := c.Session.User(); user != nil {
		updated := *user
		updated.AvatarURL = nil
		c.Session.Login(&updated, c.Session.Token())
	}
	return protocol.OK().Message("Avatar deleted")
}
