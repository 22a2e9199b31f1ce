// Package server wires the acceptor, the per-connection tasks and the
// transaction router into a runnable MXD server.
package server // import "github.com/mxd-net/mxd-core/server"

import (
	"context"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mxd-net/mxd-core/auth"
	"github.com/mxd-net/mxd-core/common/errors"
	"github.com/mxd-net/mxd-core/datastore"
	"github.com/mxd-net/mxd-core/protocol"
)

// Server is an MXD server instance. The data store, the password hasher and
// the privilege table are constructed once and shared by every connection
// task.
type Server struct {
	config   *Config
	store    datastore.DataStore
	hasher   auth.PasswordHasher
	registry *Registry
	router   *Router

	ioTimeout        time.Duration
	handshakeTimeout time.Duration

	access   sync.Mutex
	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	tasks    *errgroup.Group
	running  bool
}

// New creates a server over the shared collaborators.
func New(config *Config, store datastore.DataStore, hasher auth.PasswordHasher) (*Server, error) {
	var banner []byte
	if config.Banner != "" {
		data, err := os.ReadFile(config.Banner)
		if err != nil {
			return nil, errors.New("failed to read banner ", config.Banner).Base(err)
		}
		banner = data
	}

	registry := NewRegistry()
	return &Server{
		config:           config,
		store:            store,
		hasher:           hasher,
		registry:         registry,
		router:           NewRouter(store, hasher, registry, banner),
		ioTimeout:        protocol.IOTimeout,
		handshakeTimeout: protocol.HandshakeTimeout,
	}, nil
}

// Hasher returns the shared password hasher instance.
func (s *Server) Hasher() auth.PasswordHasher {
	return s.hasher
}

// Registry returns the online-session registry.
func (s *Server) Registry() *Registry {
	return s.registry
}

// Addr returns the bound listener address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.access.Lock()
	defer s.access.Unlock()

	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Start implements common.Runnable. A bind failure is fatal and returned to
// the caller.
func (s *Server) Start() error {
	s.access.Lock()
	defer s.access.Unlock()

	if s.running {
		return nil
	}

	listener, err := net.Listen("tcp", s.config.Bind)
	if err != nil {
		return errors.New("failed to listen on ", s.config.Bind).Base(err).AtError()
	}
	s.listener = listener
	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.tasks = new(errgroup.Group)
	s.running = true

	errors.LogInfo(s.ctx, "listening TCP on ", listener.Addr())

	go s.keepAccepting(listener)
	return nil
}

func (s *Server) keepAccepting(listener net.Listener) {
	for {
		conn, err := listener.Accept()
		if err != nil {
			errStr := err.Error()
			if strings.Contains(errStr, "closed") {
				break
			}
			errors.LogWarningInner(context.Background(), err, "failed to accept connection")
			if strings.Contains(errStr, "too many") {
				time.Sleep(time.Millisecond * 500)
			}
			continue
		}
		s.tasks.Go(func() error {
			return s.handleConnection(conn)
		})
	}
}

// Close implements common.Closable. The acceptor stops first; connection
// tasks finish their in-flight transaction and are drained before Close
// returns.
func (s *Server) Close() error {
	s.access.Lock()
	if !s.running {
		s.access.Unlock()
		return nil
	}
	s.running = false
	s.cancel()
	listener := s.listener
	s.listener = nil
	tasks := s.tasks
	s.access.Unlock()

	err := listener.Close()
	if waitErr := tasks.Wait(); waitErr != nil {
		err = errors.Combine(err, waitErr)
	}
	return err
}
