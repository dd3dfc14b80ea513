package server

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
)

// ConnHandler serves one accepted connection and closes it when done.
type ConnHandler interface {
	Serve(ctx context.Context, conn net.Conn)
}

type Observer interface {
	ConnectionOpened()
	ConnectionClosed()
	ConnectionRejected()
}

type noopObserver struct{}

func (noopObserver) ConnectionOpened()   {}
func (noopObserver) ConnectionClosed()   {}
func (noopObserver) ConnectionRejected() {}

type Server struct {
	handler    ConnHandler
	observer   Observer
	maxClients int64

	listener net.Listener
	active   atomic.Int64
	closing  atomic.Bool

	// ctx is cancelled when shutdown starts; dispatchers watch it between requests.
	ctx    context.Context
	cancel context.CancelFunc

	mu    sync.Mutex
	conns map[net.Conn]struct{}
	wg    sync.WaitGroup
}

func New(handler ConnHandler, maxClients int, observer Observer) *Server {
	if observer == nil {
		observer = noopObserver{}
	}
	if maxClients <= 0 {
		maxClients = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Server{
		handler:    handler,
		observer:   observer,
		maxClients: int64(maxClients),
		ctx:        ctx,
		cancel:     cancel,
		conns:      make(map[net.Conn]struct{}),
	}
}

// Listen binds the TCP socket.
func (s *Server) Listen(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	s.listener = listener
	return nil
}

func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// ActiveClients is the number of connections being served.
func (s *Server) ActiveClients() int {
	return int(s.active.Load())
}

// Serve accepts connections until Shutdown. It returns nil after a shutdown.
func (s *Server) Serve() error {
	if s.listener == nil {
		return errors.New("сервер не слушает порт")
	}

	log.Info().Str("addr", s.listener.Addr().String()).Int64("max_clients", s.maxClients).Msg("Сервер запущен")

	var backoff time.Duration
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.closing.Load() || errors.Is(err, net.ErrClosed) {
				return nil
			}

			if backoff == 0 {
				backoff = 5 * time.Millisecond
			} else {
				backoff *= 2
			}
			if backoff > time.Second {
				backoff = time.Second
			}
			log.Error().Err(err).Dur("retry_in", backoff).Msg("Ошибка приёма соединения")
			time.Sleep(backoff)
			continue
		}
		backoff = 0

		if s.active.Add(1) > s.maxClients {
			s.active.Add(-1)
			s.observer.ConnectionRejected()
			log.Warn().Str("remote", conn.RemoteAddr().String()).Msg("Достигнут лимит клиентов, соединение закрыто")
			_ = conn.Close()
			continue
		}

		if !s.register(conn) {
			s.active.Add(-1)
			_ = conn.Close()
			return nil
		}
		s.observer.ConnectionOpened()

		go func() {
			defer func() {
				s.untrack(conn)
				s.active.Add(-1)
				s.observer.ConnectionClosed()
				s.wg.Done()
			}()
			s.handler.Serve(s.ctx, conn)
		}()
	}
}

// register tracks conn and counts it in wg unless shutdown has started.
func (s *Server) register(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closing.Load() {
		return false
	}
	s.conns[conn] = struct{}{}
	s.wg.Add(1)
	return true
}

func (s *Server) untrack(conn net.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.conns, conn)
}

// Shutdown stops accepting and waits for dispatchers to drain. When ctx
// expires first, the remaining connections are closed and ctx.Err() is returned.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing.Store(true)
	s.mu.Unlock()
	s.cancel()

	if s.listener != nil {
		if err := s.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
			log.Warn().Err(err).Msg("Ошибка при закрытии слушающего сокета")
		}
	}

	drained := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		log.Info().Msg("Все соединения завершены")
		return nil
	case <-ctx.Done():
	}

	s.mu.Lock()
	log.Warn().Int("connections", len(s.conns)).Msg("Принудительное закрытие соединений")
	for conn := range s.conns {
		_ = conn.Close()
	}
	s.mu.Unlock()

	<-drained
	return ctx.Err()
}
