package main

import (
	"bufio"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"github.com/nickyhof/CommitKV"
	"github.com/nickyhof/CommitKV/op"
	"github.com/nickyhof/CommitKV/wire"
)

// Server is a TCP server that exposes a CommitKV instance.
type Server struct {
	listener net.Listener
	instance *CommitKV.Instance
	done     chan struct{}
	wg       sync.WaitGroup
	tls      bool
}

// NewServer creates a new server for the given instance.
func NewServer(instance *CommitKV.Instance) *Server {
	return &Server{
		instance: instance,
		done:     make(chan struct{}),
	}
}

// Start begins listening for plain TCP connections on addr.
func (s *Server) Start(addr string) error {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	s.listener = listener

	log.Printf("Server listening on %s", listener.Addr())

	go s.acceptLoop()
	return nil
}

// StartTLS begins listening for TLS connections on addr.
func (s *Server) StartTLS(addr, certFile, keyFile string) error {
	cert, err := tls.LoadX509KeyPair(certFile, keyFile)
	if err != nil {
		return fmt.Errorf("failed to load TLS certificate: %w", err)
	}

	listener, err := tls.Listen("tcp", addr, &tls.Config{
		Certificates: []tls.Certificate{cert},
		MinVersion:   tls.VersionTLS12,
	})
	if err != nil {
		return fmt.Errorf("failed to start TLS server: %w", err)
	}
	s.listener = listener
	s.tls = true

	log.Printf("Server listening on %s (TLS)", listener.Addr())

	go s.acceptLoop()
	return nil
}

// Stop gracefully shuts down the server.
func (s *Server) Stop() error {
	close(s.done)
	if s.listener != nil {
		s.listener.Close()
	}
	s.wg.Wait()
	return nil
}

// Addr returns the server's listening address.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// TLSEnabled reports whether the server was started with StartTLS.
func (s *Server) TLSEnabled() bool {
	return s.tls
}

func (s *Server) acceptLoop() {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
				log.Printf("Accept error: %v", err)
				continue
			}
		}

		s.wg.Add(1)
		go s.handleConnection(conn)
	}
}

func (s *Server) handleConnection(conn net.Conn) {
	defer s.wg.Done()
	defer conn.Close()

	sess := newSession(s.instance)
	log.Printf("[%s] Client connected: %s", sess.id, conn.RemoteAddr())

	reader := bufio.NewReader(conn)
	timeout := s.instance.Config().Net.ReadTimeout.Duration

	for {
		select {
		case <-s.done:
			return
		default:
		}

		if timeout > 0 {
			conn.SetReadDeadline(time.Now().Add(timeout))
		}

		line, err := reader.ReadString('\n')
		if err != nil {
			var netErr net.Error
			switch {
			case err == io.EOF:
			case errors.As(err, &netErr) && netErr.Timeout():
				log.Printf("[%s] Idle timeout: %s", sess.id, conn.RemoteAddr())
			default:
				log.Printf("[%s] Read error from %s: %v", sess.id, conn.RemoteAddr(), err)
			}
			return
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		kind, args := classify(line)
		if kind == quitCommand {
			log.Printf("[%s] Client disconnected: %s", sess.id, conn.RemoteAddr())
			return
		}

		resp := s.dispatch(sess, kind, args, line)

		data, err := wire.EncodeResponse(resp)
		if err != nil {
			log.Printf("[%s] Failed to encode response: %v", sess.id, err)
			data, _ = wire.EncodeResponse(errorResponse(wire.StatusInvalidBody, "response body is not encodable"))
		}

		if _, err := conn.Write(data); err != nil {
			log.Printf("[%s] Write error to %s: %v", sess.id, conn.RemoteAddr(), err)
			return
		}
	}
}

func (s *Server) dispatch(sess *session, kind commandKind, args, line string) wire.Response {
	if kind == authCommand {
		return s.handleAuth(sess, args)
	}

	if s.instance.Config().Auth.Enabled {
		if !sess.authenticated {
			return errorResponse(wire.StatusInvalidAuth, "authentication required")
		}
		if sess.expired(time.Now()) {
			sess.authenticated = false
			return errorResponse(wire.StatusInvalidAuth, "token expired")
		}
	}

	switch kind {
	case useCommand:
		return s.handleUse(sess, args)
	default:
		return s.executeQuery(sess, line)
	}
}

func (s *Server) handleUse(sess *session, database string) wire.Response {
	if err := op.ValidateName(database); err != nil {
		status := wire.StatusInvalidQuery
		if errors.Is(err, op.ErrReserved) {
			status = wire.StatusReserved
		}
		return errorResponse(status, err.Error())
	}

	sess.use(s.instance, database)
	return wire.OK(map[string]string{"database": database})
}

func (s *Server) handleAuth(sess *session, args string) wire.Response {
	req, err := parseAuthCommand(args)
	if err != nil {
		return errorResponse(wire.StatusInvalidAuth, err.Error())
	}

	shared := s.instance.Shared
	var expiry time.Time

	var username string
	switch req.method {
	case "BASIC":
		username = req.username
		user, err := op.Authenticate(shared, req.username, req.password)
		if err != nil {
			log.Printf("[%s] Authentication failed for %s: %v", sess.id, req.username, err)
			return errorResponse(wire.StatusInvalidAuth, "invalid credentials")
		}
		sess.login(s.instance, user, expiry)

	case "JWT":
		result, err := validateJWT(shared.Config.Auth, req.token)
		if err != nil {
			log.Printf("[%s] JWT authentication failed: %v", sess.id, err)
			return errorResponse(wire.StatusInvalidAuth, err.Error())
		}
		username = result.username
		user, err := op.LookupUser(shared, result.username)
		if err != nil {
			log.Printf("[%s] JWT names unknown user %s", sess.id, result.username)
			return errorResponse(wire.StatusInvalidAuth, "unknown user: "+result.username)
		}
		expiry = result.expiresAt
		sess.login(s.instance, user, expiry)
	}

	log.Printf("[%s] Authenticated %s via %s", sess.id, username, req.method)

	body := map[string]any{
		"session":    sess.id,
		"user":       sess.user.Username,
		"permission": sess.user.Permission.String(),
	}
	if !expiry.IsZero() {
		body["expires_in"] = int(time.Until(expiry).Seconds())
	}
	return wire.OK(body)
}

func (s *Server) executeQuery(sess *session, query string) wire.Response {
	resp, werr := sess.executor.ExecuteQuery(query)
	if werr != nil {
		log.Printf("[%s] %s@%s: %s", sess.id, sess.username(), sess.database, werr)
		return werr.Response()
	}
	return resp
}
