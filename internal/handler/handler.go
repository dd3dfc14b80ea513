package handlers

import (
	"time"

	"github.com/go-playground/validator/v10"

	"unisocial/internal/middleware"
	"unisocial/internal/protocol"
	"unisocial/internal/service"
)

// MaxLineSize caps a single request line.
const MaxLineSize = 8 * 1024 * 1024

type Handlers struct {
	UserService service.UserService
	PostService service.PostService
	AuthService service.AuthService
	Validate    *validator.Validate

	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	MaxLineSize  int

	commands map[string]protocol.HandlerFunc
}

func NewHandlers(service *service.Service, recorder middleware.Recorder, readTimeout time.Duration) *Handlers {
	h := &Handlers{
		UserService:  service.User,
		PostService:  service.Post,
		AuthService:  service.Auth,
		Validate:     validator.New(),
		ReadTimeout:  readTimeout,
		WriteTimeout: 30 * time.Second,
		MaxLineSize:  MaxLineSize,
	}
	h.commands = h.routes(recorder)
	return h
}

func (h *Handlers) routes(recorder middleware.Recorder) map[string]protocol.HandlerFunc {
	base := []middleware.Middleware{middleware.Metrics(recorder), middleware.Logging, middleware.Recover}

	public := func(fn protocol.HandlerFunc) protocol.HandlerFunc {
		return middleware.Chain(fn, base...)
	}
	authed := func(fn protocol.HandlerFunc) protocol.HandlerFunc {
		return middleware.Chain(fn, append(base, middleware.RequireAuth)...)
	}
	owner := func(fn protocol.HandlerFunc) protocol.HandlerFunc {
		return middleware.Chain(fn, append(base, middleware.RequireAuth, middleware.OwnerOnly)...)
	}

	return map[string]protocol.HandlerFunc{
		protocol.CmdHandshake:  public(h.Handshake),
		protocol.CmdLogin:      public(h.Login),
		protocol.CmdSignup:     public(h.Signup),
		protocol.CmdPing:       public(h.Ping),
		protocol.CmdDisconnect: public(h.Disconnect),

		protocol.CmdLogout:         authed(h.Logout),
		protocol.CmdChangePassword: authed(h.ChangePassword),
		protocol.CmdDeleteAccount:  owner(h.DeleteAccount),

		protocol.CmdCreatePost:   authed(h.CreatePost),
		protocol.CmdGetFeed:      authed(h.GetFeed),
		protocol.CmdLikePost:     authed(h.LikePost),
		protocol.CmdBookmarkPost: authed(h.BookmarkPost),
		protocol.CmdDeletePost:   authed(h.DeletePost),
		protocol.CmdUpdatePost:   authed(h.UpdatePost),
		protocol.CmdGetBookmarks: authed(h.GetBookmarks),
		protocol.CmdGetUserPosts: public(h.GetUserPosts),
		protocol.CmdGetPost:      public(h.GetPost),

		protocol.CmdGetUser:       public(h.GetUser),
		protocol.CmdSearchUsers:   public(h.SearchUsers),
		protocol.CmdGetAvatarURL:  public(h.GetAvatarURL),
		protocol.CmdGetFollowers:  public(h.GetFollowers),
		protocol.CmdGetFollowing:  public(h.GetFollowing),
		protocol.CmdGetUserStats:  public(h.GetUserStats),
		protocol.CmdFollowUser:    authed(h.FollowUser),
		protocol.CmdIsFollowing:   authed(h.IsFollowing),
		protocol.CmdUpdateProfile: owner(h.UpdateProfile),
		protocol.CmdUpdateAvatar:  owner(h.UpdateAvatar),
		protocol.CmdDeleteAvatar:  owner(h.DeleteAvatar),
	}
}

// Dispatch runs one request line against the session.
func (h *Handlers) Dispatch(c *protocol.Context, line []byte) protocol.Response {
	req, err := protocol.ParseRequest(line)
	if err != nil {
		c.Log.Warn().Err(err).Msg("Не удалось разобрать запрос")
		return protocol.Fail(protocol.MsgInternalError)
	}
	c.Request = req

	command, ok := h.commands[req.Command]
	if !ok {
		c.Log.Warn().Str("command", req.Command).Msg("Неизвестная команда")
		return protocol.Fail(protocol.MsgInternalError)
	}
	return command(c)
}
