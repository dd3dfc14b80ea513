package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"unisocial/internal/models"
)

func TestParseRequest(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		command string
		wantErr bool
	}{
		{"Обычный запрос", `{"command":"PING","timestamp":1,"data":{}}`, "PING", false},
		{"Без data", `{"command":"LOGOUT"}`, "LOGOUT", false},
		{"Нет команды", `{"data":{}}`, "", true},
		{"Не JSON", `PING`, "", true},
		{"Массив", `[1,2]`, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := ParseRequest([]byte(tt.line))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.command, req.Command)
		})
	}
}

func TestRequest_Decode(t *testing.T) {
	var dst struct {
		UserID int64 `json:"userId"`
	}

	for _, data := range []string{``, `null`, ` {} `} {
		req := &Request{Data: json.RawMessage(data)}
		require.NoError(t, req.Decode(&dst))
		assert.Zero(t, dst.UserID)
	}

	req := &Request{Data: json.RawMessage(`{"userId":"x"}`)}
	assert.ErrorIs(t, req.Decode(&dst), ErrMalformed)
}

func TestResponse_Encode(t *testing.T) {
	raw, err := OK().Message("pong").With("timestamp", 5).Encode()
	require.NoError(t, err)
	assert.Equal(t, byte('\n'), raw[len(raw)-1])

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, true, decoded["success"])
	assert.Equal(t, "pong", decoded["message"])

	assert.False(t, Fail(MsgNotAuthenticated).Success())
}

func TestSession(t *testing.T) {
	var s Session
	assert.False(t, s.Authenticated())
	assert.Zero(t, s.UserID())

	s.Login(&models.User{ID: 7}, "tok")
	assert.True(t, s.Authenticated())
	assert.Equal(t, int64(7), s.UserID())
	assert.Equal(t, "tok", s.Token())

	s.Logout()
	assert.False(t, s.Authenticated())
	assert.Empty(t, s.Token())
	assert.Nil(t, s.User())
}
