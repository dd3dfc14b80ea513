package protocol

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog"

	"unisocial/internal/models"
)

const (
	ServerVersion = "1.0"

	MsgNotAuthenticated  = "Not authenticated"
	MsgUnauthorized      = "Unauthorized"
	MsgInternalError     = "Internal server error"
	MsgInvalidCredential = "Invalid credentials"
	MsgUsernameTaken     = "Username already exists"
	MsgEmptyContent      = "Post content cannot be empty"
	MsgUserNotFound      = "User not found"
	MsgInvalidToken      = "Invalid session token"
)

const (
	CmdHandshake      = "HANDSHAKE"
	CmdLogin          = "LOGIN"
	CmdSignup         = "SIGNUP"
	CmdLogout         = "LOGOUT"
	CmdCreatePost     = "CREATE_POST"
	CmdGetFeed        = "GET_FEED"
	CmdLikePost       = "LIKE_POST"
	CmdBookmarkPost   = "BOOKMARK_POST"
	CmdDeletePost     = "DELETE_POST"
	CmdGetUser        = "GET_USER"
	CmdUpdateProfile  = "UPDATE_PROFILE"
	CmdSearchUsers    = "SEARCH_USERS"
	CmdFollowUser     = "FOLLOW_USER"
	CmdGetAvatarURL   = "GET_AVATAR_URL"
	CmdUpdateAvatar   = "UPDATE_AVATAR"
	CmdDeleteAvatar   = "DELETE_AVATAR"
	CmdPing           = "PING"
	CmdDisconnect     = "DISCONNECT"
	CmdGetUserPosts   = "GET_USER_POSTS"
	CmdGetPost        = "GET_POST"
	CmdUpdatePost     = "UPDATE_POST"
	CmdGetBookmarks   = "GET_BOOKMARKS"
	CmdGetFollowers   = "GET_FOLLOWERS"
	CmdGetFollowing   = "GET_FOLLOWING"
	CmdIsFollowing    = "IS_FOLLOWING"
	CmdGetUserStats   = "GET_USER_STATS"
	CmdChangePassword = "CHANGE_PASSWORD"
	CmdDeleteAccount  = "DELETE_ACCOUNT"
)

// ErrMalformed marks a request that could not be decoded.
var ErrMalformed = errors.New("некорректный запрос")

type Request struct {
	Command   string          `json:"command"`
	Timestamp int64           `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
}

func ParseRequest(line []byte) (*Request, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return nil, errors.Join(ErrMalformed, err)
	}
	if req.Command == "" {
		return nil, ErrMalformed
	}
	return &req, nil
}

// Decode unmarshals the request data into dst. Missing data decodes as {}.
func (r *Request) Decode(dst interface{}) error {
	data := bytes.TrimSpace(r.Data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		data = []byte("{}")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return errors.Join(ErrMalformed, err)
	}
	return nil
}

// Response is {"success": ..., "message": ..., extras...}.
type Response map[string]interface{}

func OK() Response {
	return Response{"success": true}
}

func Fail(message string) Response {
	return Response{"success": false, "message": message}
}

func (r Response) With(key string, value interface{}) Response {
	r[key] = value
	return r
}

func (r Response) Message(message string) Response {
	r["message"] = message
	return r
}

func (r Response) Success() bool {
	ok, _ := r["success"].(bool)
	return ok
}

// Encode writes the response as one line terminated by '\n'.
func (r Response) Encode() ([]byte, error) {
	raw, err := json.Marshal(r)
	if err != nil {
		return nil, err
	}
	return append(raw, '\n'), nil
}

// Session is the per-connection authentication state.
type Session struct {
	user  *models.User
	token string
}

func (s *Session) Authenticated() bool {
	return s.user != nil
}

func (s *Session) UserID() int64 {
	if s.user == nil {
		return 0
	}
	return s.user.ID
}

func (s *Session) User() *models.User {
	return s.user
}

func (s *Session) Token() string {
	return s.token
}

func (s *Session) Login(user *models.User, token string) {
	s.user = user
	s.token = token
}

func (s *Session) Logout() {
	s.user = nil
	s.token = ""
}

// Context carries one command through the middleware chain.
type Context struct {
	Ctx     context.Context
	Request *Request
	Session *Session
	Log     zerolog.Logger

	// Close is set by handlers that end the connection after replying.
	Close bool
}

type HandlerFunc func(c *Context) Response
