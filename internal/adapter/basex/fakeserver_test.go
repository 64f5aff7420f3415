package basex

import (
	"bufio"
	"fmt"
	"net"
	"strings"
	"sync"
	"testing"
)

// fakeServer speaks the server side of the BaseX protocol over one
// connection. It understands the subset of commands the tests send.
type fakeServer struct {
	t        *testing.T
	greeting string
	user     string
	password string

	mu       sync.Mutex
	commands []string
	queries  map[string]string
	bindings map[string]map[string]string
	inputs   map[string]string
	nextID   int
}

func newFakeServer(t *testing.T) *fakeServer {
	return &fakeServer{
		t:        t,
		greeting: "BaseX:123456",
		user:     "admin",
		password: "secret",
		queries:  make(map[string]string),
		bindings: make(map[string]map[string]string),
		inputs:   make(map[string]string),
	}
}

// pipe returns the client end of a connection served by s.
func (s *fakeServer) pipe() net.Conn {
	clientConn, serverConn := net.Pipe()
	go s.serve(serverConn)
	s.t.Cleanup(func() { _ = clientConn.Close() })
	return clientConn
}

func (s *fakeServer) recorded() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.commands...)
}

func (s *fakeServer) serve(conn net.Conn) {
	defer conn.Close()
	r := bufio.NewReader(conn)
	w := bufio.NewWriter(conn)

	send := func(parts ...string) {
		for _, p := range parts {
			_, _ = w.WriteString(p)
		}
		_ = w.Flush()
	}

	send(escape(s.greeting), "\x00")
	user, err := readZ(r)
	if err != nil {
		return
	}
	hash, err := readZ(r)
	if err != nil {
		return
	}
	code, nonce := s.password, s.greeting
	if realm, n, ok := strings.Cut(s.greeting, ":"); ok {
		code, nonce = s.user+":"+realm+":"+s.password, n
	}
	if user != s.user || hash != digest(code, nonce) {
		send("\x01")
		return
	}
	send("\x00")

	for {
		b, err := r.ReadByte()
		if err != nil {
			return
		}
		switch b {
		case codeQuery:
			q, _ := readZ(r)
			if strings.Contains(q, "syntax error") {
				send("\x00", "\x01", "[XPST0003] Unexpected end of query", "\x00")
				continue
			}
			s.mu.Lock()
			s.nextID++
			id := fmt.Sprintf("q%d", s.nextID)
			s.queries[id] = q
			s.bindings[id] = map[string]string{}
			s.mu.Unlock()
			send(id, "\x00", "\x00")
		case codeBind:
			id, _ := readZ(r)
			name, _ := readZ(r)
			value, _ := readZ(r)
			_, _ = readZ(r)
			s.mu.Lock()
			s.bindings[id][name] = value
			s.mu.Unlock()
			send("\x00", "\x00")
		case codeExecute:
			id, _ := readZ(r)
			s.mu.Lock()
			q := s.queries[id]
			vars := s.bindings[id]
			s.mu.Unlock()
			result := "result:" + q
			if v, ok := vars["name"]; ok {
				result += ":" + v
			}
			if strings.Contains(q, "escaped") {
				result = "a\x00b"
			}
			send(escape(result), "\x00", "\x00")
		case codeClose:
			id, _ := readZ(r)
			s.mu.Lock()
			delete(s.queries, id)
			s.mu.Unlock()
			send("\x00", "\x00")
		case codeCreate, codeAdd:
			name, _ := readZ(r)
			input, _ := readZ(r)
			s.mu.Lock()
			s.inputs[name] = input
			s.mu.Unlock()
			send("Database '"+name+"' created", "\x00", "\x00")
		default:
			if err := r.UnreadByte(); err != nil {
				return
			}
			cmd, err := readZ(r)
			if err != nil {
				return
			}
			s.mu.Lock()
			s.commands = append(s.commands, cmd)
			s.mu.Unlock()
			switch {
			case cmd == "exit":
				return
			case strings.HasPrefix(cmd, "OPEN missing"):
				send("\x00", "Database 'missing' was not found.", "\x00", "\x01")
			case strings.HasPrefix(cmd, "XQUERY "):
				send(strings.TrimPrefix(cmd, "XQUERY "), "\x00", "Query executed", "\x00", "\x00")
			default:
				send("\x00", "ok", "\x00", "\x00")
			}
		}
	}
}

// readZ reads a zero-terminated string, undoing 0xFF escapes.
func readZ(r *bufio.Reader) (string, error) {
	var sb strings.Builder
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		if b == 0x00 {
			return sb.String(), nil
		}
		if b == 0xFF {
			if b, err = r.ReadByte(); err != nil {
				return "", err
			}
		}
		sb.WriteByte(b)
	}
}

func escape(s string) string {
	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x00 || s[i] == 0xFF {
			sb.WriteByte(0xFF)
		}
		sb.WriteByte(s[i])
	}
	return sb.String()
}
