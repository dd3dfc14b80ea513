package handlers

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"unisocial/internal/protocol"
)

// Serve runs the request loop of one connection. It returns when the peer
// goes away, after DISCONNECT, or on the first idle timeout after ctx is done.
func (h *Handlers) Serve(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	connLog := log.With().Str("remote", conn.RemoteAddr().String()).Logger()
	connLog.Info().Msg("Клиент подключён")
	defer func() { connLog.Info().Msg("Клиент отключён") }()

	// commands started before shutdown still run to completion
	cmdCtx := context.WithoutCancel(ctx)

	reader := bufio.NewReader(conn)
	session := &protocol.Session{}

	var (
		pending   []byte
		oversized bool
	)

	for {
		if ctx.Err() != nil {
			return
		}
		if h.ReadTimeout > 0 {
			_ = conn.SetReadDeadline(time.Now().Add(h.ReadTimeout))
		}

		chunk, err := reader.ReadSlice('\n')
		if !oversized {
			if len(pending)+len(chunk) > h.MaxLineSize {
				oversized = true
				pending = nil
			} else {
				pending = append(pending, chunk...)
			}
		}

		if err != nil {
			if errors.Is(err, bufio.ErrBufferFull) {
				continue
			}
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				continue
			}
			if !errors.Is(err, io.EOF) && !errors.Is(err, net.ErrClosed) {
				connLog.Warn().Err(err).Msg("Ошибка чтения из сокета")
			}
			return
		}

		var (
			resp       protocol.Response
			closeAfter bool
		)
		if oversized {
			oversized = false
			connLog.Warn().Int("limit", h.MaxLineSize).Msg("Запрос превышает допустимый размер")
			resp = protocol.Fail(protocol.MsgInternalError)
		} else {
			line := bytes.TrimSpace(pending)
			pending = nil
			if len(line) == 0 {
				continue
			}
			resp, closeAfter = h.handle(cmdCtx, session, connLog, line)
		}

		if err := h.write(conn, resp); err != nil {
			connLog.Warn().Err(err).Msg("Ошибка записи в сокет")
			return
		}
		if closeAfter {
			return
		}
	}
}

func (h *Handlers) handle(ctx context.Context, session *protocol.Session, connLog zerolog.Logger, line []byte) (protocol.Response, bool) {
	logger := connLog
	if session.Authenticated() {
		logger = connLog.With().Int64("user_id", session.UserID()).Logger()
	}

	c := &protocol.Context{
		Ctx:     ctx,
		Session: session,
		Log:     logger,
	}
	resp := h.Dispatch(c, line)
	return resp, c.Close
}

func (h *Handlers) write(conn net.Conn, resp protocol.Response) error {
	raw, err := resp.Encode()
	if err != nil {
		log.Error().Err(err).Msg("Не удалось сериализовать ответ")
		raw, _ = protocol.Fail(protocol.MsgInternalError).Encode()
	}

	if h.WriteTimeout > 0 {
		_ = conn.SetWriteDeadline(time.Now().Add(h.WriteTimeout))
	}
	_, err = conn.Write(raw)
	return err
}
