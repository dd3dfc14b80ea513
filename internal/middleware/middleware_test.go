package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"unisocial/internal/models"
	"unisocial/internal/protocol"
)

type MockRecorder struct {
	mock.Mock
}

func (m *MockRecorder) ObserveCommand(command string, success bool, duration time.Duration) {
	m.Called(command, success, duration)
}

func newContext(command, data string, session *protocol.Session) *protocol.Context {
	return &protocol.Context{
		Ctx:     context.Background(),
		Request: &protocol.Request{Command: command, Data: json.RawMessage(data)},
		Session: session,
		Log:     zerolog.Nop(),
	}
}

func okHandler(c *protocol.Context) protocol.Response {
	return protocol.OK()
}

func loggedIn(id int64) *protocol.Session {
	s := &protocol.Session{}
	s.Login(&models.User{ID: id, Username: "alice"}, "")
	return s
}

func TestRequireAuth(t *testing.T) {
	h := RequireAuth(okHandler)

	t.Run("Без сессии", func(t *testing.T) {
		resp := h(newContext("GET_FEED", `{}`, &protocol.Session{}))
		assert.False(t, resp.Success())
		assert.Equal(t, protocol.MsgNotAuthenticated, resp["message"])
	})

	t.Run("С сессией", func(t *testing.T) {
		resp := h(newContext("GET_FEED", `{}`, loggedIn(1)))
		assert.True(t, resp.Success())
	})
}

func TestOwnerOnly(t *testing.T) {
	h := OwnerOnly(okHandler)

	tests := []struct {
		name    string
		data    string
		success bool
	}{
		{"Свой профиль", `{"userId": 1}`, true},
		{"Чужой профиль", `{"userId": 2}`, false},
		{"Нет userId", `{}`, false},
		{"Нет data", ``, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := h(newContext("UPDATE_PROFILE", tt.data, loggedIn(1)))
			assert.Equal(t, tt.success, resp.Success())
			if !tt.success {
				assert.Equal(t, protocol.MsgUnauthorized, resp["message"])
			}
		})
	}

	t.Run("Некорректные данные", func(t *testing.T) {
		resp := h(newContext("UPDATE_PROFILE", `{"userId": "abc"}`, loggedIn(1)))
		assert.Equal(t, protocol.MsgInternalError, resp["message"])
	})
}

func TestRecover(t *testing.T) {
	h := Recover(func(c *protocol.Context) protocol.Response {
		panic("boom")
	})

	resp := h(newContext("PING", `{}`, &protocol.Session{}))
	assert.False(t, resp.Success())
	assert.Equal(t, protocol.MsgInternalError, resp["message"])
}

func TestChain(t *testing.T) {
	var order []string
	tag := func(name string) Middleware {
		return func(next protocol.HandlerFunc) protocol.HandlerFunc {
			return func(c *protocol.Context) protocol.Response {
				order = append(order, name)
				return next(c)
			}
		}
	}

	h := Chain(okHandler, tag("outer"), tag("inner"), Logging)
	h(newContext("PING", `{}`, &protocol.Session{}))

	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestMetrics(t *testing.T) {
	recorder := new(MockRecorder)
	recorder.On("ObserveCommand", "GET_FEED", false, mock.AnythingOfType("time.Duration")).Once()

	h := Chain(okHandler, Metrics(recorder), RequireAuth)
	h(newContext("GET_FEED", `{}`, &protocol.Session{}))

	recorder.AssertExpectations(t)
}

func TestLogging_SingleMessageKey(t *testing.T) {
	var buf bytes.Buffer
	c := newContext("GET_FEED", `{}`, &protocol.Session{})
	c.Log = zerolog.New(&buf)

	Chain(okHandler, Logging, RequireAuth)(c)

	line := buf.String()
	assert.Equal(t, 1, strings.Count(line, `"message":`))

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, protocol.MsgNotAuthenticated, entry["response_message"])
	assert.Equal(t, "GET_FEED", entry["command"])
}
