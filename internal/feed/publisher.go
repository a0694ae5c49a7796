package feed

import (
	"encoding/json"
	"net"
	"time"
)

// Publisher pushes events from the sync process to a running feed server
// over plain TCP, one JSON object per line. Everything is best-effort: a
// missing or dead feed server never affects the sync run.
type Publisher struct {
	conn net.Conn
}

// Dial connects to the feed server. A nil *Publisher is a valid no-op sink.
func Dial(addr string) (*Publisher, error) {
	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	if err != nil {
		return nil, err
	}
	return &Publisher{conn: conn}, nil
}

func (p *Publisher) Publish(v any) {
	if p == nil || p.conn == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = p.conn.SetWriteDeadline(time.Now().Add(2 * time.Second))
	_, _ = p.conn.Write(append(b, '\n'))
}

func (p *Publisher) Close() error {
	if p == nil || p.conn == nil {
		return nil
	}
	return p.conn.Close()
}
