package feed

import (
	"bufio"
	"log"
	"net"
	"sync"
)

// Server accepts TCP connections for the live feed. Subscribers just hold
// the connection open; the sync process connects the same way and writes
// JSON lines, which get rebroadcast to everyone else.
type Server struct {
	Addr string
	Hub  *Hub

	mu     sync.Mutex
	ln     net.Listener
	closed bool
}

func NewServer(addr string, hub *Hub) *Server {
	return &Server{Addr: addr, Hub: hub}
}

func (s *Server) Run() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	log.Printf("[feed] listening on %s", s.Addr)

	for {
		conn, err := ln.Accept()
		if err != nil {
			s.mu.Lock()
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return nil
			}
			continue
		}

		s.Hub.Add(conn)
		s.Hub.Welcome(conn)
		log.Printf("[feed] client connected: %s", conn.RemoteAddr())

		go func(c net.Conn) {
			defer func() {
				s.Hub.Remove(c)
				log.Printf("[feed] client disconnected: %s", c.RemoteAddr())
			}()

			// any line a client sends is treated as a published event
			sc := bufio.NewScanner(c)
			for sc.Scan() {
				line := sc.Bytes()
				if len(line) == 0 {
					continue
				}
				s.Hub.BroadcastLine(append(append([]byte{}, line...), '\n'))
			}
		}(conn)
	}
}

// ListenAddr reports the bound address once Run has started listening,
// empty before that. Useful when Addr asked for port 0.
func (s *Server) ListenAddr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.ln == nil {
		return nil
	}
	return s.ln.Close()
}
