// Package sse fans editor changes out to Server-Sent Events subscribers.
package sse

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/debemdeboas/archive-editor/internal/model"
)

// Message is one event on the stream.
type Message struct {
	Event string
	Data  string
}

// WriteTo writes m in wire format. Multi-line data is split over several
// data fields.
func (m Message) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	if m.Event != "" {
		fmt.Fprintf(&b, "event: %s\n", m.Event)
	}
	for _, line := range strings.Split(m.Data, "\n") {
		fmt.Fprintf(&b, "data: %s\n", line)
	}
	b.WriteString("\n")

	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

type Client struct {
	Msg     chan Message
	DraftID model.DraftID
}

func NewClient(id model.DraftID) *Client {
	return &Client{Msg: make(chan Message, 8), DraftID: id}
}

type SSEClients struct {
	clients map[*Client]bool
	mu      sync.RWMutex
}

func NewSSEClients() *SSEClients {
	return &SSEClients{
		clients: make(map[*Client]bool),
	}
}

func (s *SSEClients) Add(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.clients[client] = true
}

func (s *SSEClients) Delete(client *Client) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.clients[client] {
		delete(s.clients, client)
		close(client.Msg)
	}
}

func (s *SSEClients) Count(id model.DraftID) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	n := 0
	for client := range s.clients {
		if client.DraftID == id {
			n++
		}
	}
	return n
}

// Broadcast sends msg to every subscriber of the draft. Slow subscribers
// miss messages instead of blocking the editor.
func (s *SSEClients) Broadcast(id model.DraftID, msg Message) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for client := range s.clients {
		if client.DraftID == id {
			select {
			case client.Msg <- msg:
			default:
			}
		}
	}
}
