package server

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"go.heapstore/internal/auth"
	"go.heapstore/internal/config"
	"go.heapstore/internal/engine"
	"go.heapstore/internal/logger"
)

// deadline in the past, used to wake blocked reads
var aLongTimeAgo = time.Unix(1, 0)

type Server struct {
	cfg  *config.Config
	auth *auth.Authenticator
	db   engine.Backend
	log  *logger.Logger

	ln        net.Listener
	shutdown  chan struct{}
	closeOnce sync.Once
	conns     sync.WaitGroup
}

func New(cfg *config.Config, db engine.Backend, log *logger.Logger) (*Server, error) {
	store, err := auth.NewFileStore(cfg.UserFile)
	if err != nil {
		return nil, err
	}
	a := auth.NewAuthenticator(store)

	return &Server{
		cfg:      cfg,
		auth:     a,
		db:       db,
		log:      log,
		shutdown: make(chan struct{}),
	}, nil
}

// Listen opens the configured address and serves until SIGINT / SIGTERM
func (s *Server) Listen() error {
	var l net.Listener
	var err error

	if s.cfg.EnableTLS {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCert, s.cfg.TLSKey)
		if err != nil {
			return fmt.Errorf("failed to load TLS certificate: %w", err)
		}

		tlsCfg := &tls.Config{
			Certificates: []tls.Certificate{cert},
			MinVersion:   tls.VersionTLS12,
		}

		l, err = tls.Listen("tcp", s.cfg.Addr, tlsCfg)
		if err != nil {
			return fmt.Errorf("failed to start TLS listener: %w", err)
		}

		s.log.Infof("TLS enabled")
	} else {
		l, err = net.Listen("tcp", s.cfg.Addr)
		if err != nil {
			return fmt.Errorf("failed to start TCP listener: %w", err)
		}
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
		defer signal.Stop(sigCh)

		select {
		case <-sigCh:
			fmt.Println("\nServer shutting down...")
			s.Close()
		case <-s.shutdown:
		}
	}()

	s.log.Infof("listening on %s", l.Addr())
	return s.Serve(l)
}

// Serve accepts connections on l until Close is called. It waits for open
// sessions to finish before returning.
func (s *Server) Serve(l net.Listener) error {
	s.ln = l

	go func() {
		<-s.shutdown
		s.ln.Close()
	}()

	defer s.conns.Wait()

	for {
		conn, err := l.Accept()

		select {
		case <-s.shutdown:
			if conn != nil {
				conn.Close()
			}
			return nil
		default:
		}

		if errors.Is(err, net.ErrClosed) {
			return nil
		}
		if err != nil {
			s.log.Warnf("accept: %v", err)
			continue
		}

		s.conns.Add(1)
		go func() {
			defer s.conns.Done()
			s.handleConn(conn)
		}()
	}
}

func (s *Server) Close() {
	s.closeOnce.Do(func() {
		close(s.shutdown)
	})
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	sess := newSession()
	// a dropped connection ends its transaction too
	defer func() { s.db.TransactionFinished(sess.tid) }()

	s.log.Debugf("connection from %s", conn.RemoteAddr())

	done := make(chan struct{})
	defer close(done)

	// unblock the scanner when the server stops
	go func() {
		select {
		case <-s.shutdown:
			conn.SetReadDeadline(aLongTimeAgo)
		case <-done:
		}
	}()

	reader := bufio.NewScanner(conn)

	conn.Write([]byte(Prompt))

	for reader.Scan() {
		select {
		case <-s.shutdown:
			conn.Write([]byte("\nServer shutting down...\n"))
			return
		default:
		}

		line := reader.Text()
		resp := s.exec(sess, line)

		conn.Write([]byte(resp.Msg + "\n"))

		if resp.Close {
			return
		}

		conn.Write([]byte(Prompt))
	}
}

func (s *Server) exec(sess *Session, line string) Response {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return Respond("")
	}

	switch strings.ToUpper(parts[0]) {
	case "AUTH":
		return s.authCommand(sess, parts)
	case "CREATE":
		return s.createCommand(sess, parts)
	case "DROP":
		return s.dropCommand(sess, parts)
	case "INSERT":
		return s.insertCommand(sess, parts, line)
	case "GET":
		return s.getCommand(sess, parts)
	case "DEL":
		return s.delCommand(sess, parts)
	case "UPDATE":
		return s.updateCommand(sess, parts, line)
	case "SCAN":
		return s.scanCommand(sess, parts)
	case "LIST":
		return s.listCommand(sess, parts)
	case "COMMIT":
		return s.commitCommand(sess, parts)
	case "CREATEUSER":
		return s.createUserCommand(sess, parts)
	case "DELUSER":
		return s.delUserCommand(sess, parts)
	case "GRANT":
		return s.grantCommand(sess, parts)
	case "REVOKE":
		return s.revokeCommand(sess, parts)
	case "EXIT":
		return Response{Msg: Bye, Close: true}
	default:
		return Err(Unknown)
	}
}
