package handlers

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"unisocial/internal/cache"
	"unisocial/internal/config"
	"unisocial/internal/database"
	"unisocial/internal/repository"
	"unisocial/internal/service"
	"unisocial/internal/storage"
)

type testEnv struct {
	handlers  *Handlers
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dir := t.TempDir()

	cfg := &config.Config{
		DB: config.DB{
			URL:             filepath.Join(dir, "handler.db"),
			MaxOpenConns:    8,
			MaxIdleConns:    8,
			ConnMaxLifetime: time.Hour,
		},
		Avatar: config.Avatar{
			UploadDir: filepath.Join(dir, "avatars"),
			MaxSize:   service.MaxAvatarSize,
		},
		Auth: config.Auth{
			BcryptCost:      bcrypt.MinCost,
			JWTSecretKey:    "test-secret",
			SessionTokenTTL: time.Hour,
		},
	}

	db, err := database.ConnectDB(context.Background(), cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.CloseDB() })

	avatars, err := storage.NewLocalStorage(cfg.Avatar.UploadDir)
	require.NoError(t, err)

	svc := service.NewService(repository.NewRepository(db), cfg, avatars, cache.NewMemoryTokenStore())
	return &testEnv{
		handlers:  NewHandlers(svc, nil, 0),
		uploadDir: cfg.Avatar.UploadDir,
	}
}

type testClient struct {
	t      *testing.T
	conn   net.Conn
	reader *bufio.Reader
	done   chan struct{}
}

// connect serves one side of an in-memory pipe and returns the client side.
func (e *testEnv) connect(t *testing.T) *testClient {
	return e.connectContext(t, context.Background())
}

func (e *testEnv) connectContext(t *testing.T, ctx context.Context) *testClient {
	t.Helper()

	server, client := net.Pipe()
	done := make(chan struct{})
	go func() {
		defer close(done)
		e.handlers.Serve(ctx, server)
	}()
	t.Cleanup(func() {
		_ = client.Close()
		<-done
	})

	return &testClient{t: t, conn: client, reader: bufio.NewReader(client), done: done}
}

func (c *testClient) writeRaw(raw string) {
	c.t.Helper()
	_, err := c.conn.Write([]byte(raw))
	require.NoError(c.t, err)
}

func (c *testClient) readLine() string {
	c.t.Helper()
	require.NoError(c.t, c.conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	line, err := c.reader.ReadString('\n')
	require.NoError(c.t, err)
	return line
}

func (c *testClient) readResponse() map[string]interface{} {
	c.t.Helper()
	var resp map[string]interface{}
	require.NoError(c.t, json.Unmarshal([]byte(c.readLine()), &resp))
	return resp
}

func (c *testClient) send(command string, data interface{}) map[string]interface{} {
	c.t.Helper()
	raw, err := json.Marshal(map[string]interface{}{
		"command":   command,
		"timestamp": time.Now().UnixMilli(),
		"data":      data,
	})
	require.NoError(c.t, err)
	c.writeRaw(string(raw) + "\n")
	return c.readResponse()
}

type obj = map[string]interface{}

func field(t *testing.T, resp obj, key string) obj {
	t.Helper()
	value, ok := resp[key].(map[string]interface{})
	require.True(t, ok, "в ответе нет объекта %q: %v", key, resp)
	return value
}

func list(t *testing.T, resp obj, key string) []interface{} {
	t.Helper()
	value, ok := resp[key].([]interface{})
	require.True(t, ok, "в ответе нет массива %q: %v", key, resp)
	return value
}

func id(t *testing.T, value obj) int64 {
	t.Helper()
	raw, ok := value["id"].(float64)
	require.True(t, ok)
	return int64(raw)
}

// signup registers username on c and returns the new user's id.
func (c *testClient) signup(username string) int64 {
	c.t.Helper()
	resp := c.send("SIGNUP", obj{"username": username, "password": "pw12345"})
	require.Equal(c.t, true, resp["success"], resp)
	return id(c.t, field(c.t, resp, "user"))
}
