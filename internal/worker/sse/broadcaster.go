// Package sse streams data-change notifications to dashboard clients as Server-Sent Events.
package sse

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"
)

const (
	// WriteTimeout is the timeout for writing to SSE clients.
	WriteTimeout = 2 * time.Second

	// EventDataChanged announces that session data or master stats changed on disk.
	EventDataChanged = "data_changed"
	// EventReassigned announces an administrative character reassignment.
	EventReassigned = "reassigned"
)

// Event is a notification sent to every connected client.
type Event struct {
	Type      string    `json:"type"`
	Path      string    `json:"path,omitempty"`
	SessionID string    `json:"sessionId,omitempty"`
	At        time.Time `json:"at"`
}

// Client represents a connected SSE client.
type Client struct {
	Writer  http.ResponseWriter
	Flusher http.Flusher
	Done    chan struct{}
	ID      string

	// mu serializes writes to Writer, which is not safe for concurrent use.
	mu        sync.Mutex
	closeOnce sync.Once
}

// errClientClosed is returned by send once the client has been removed.
var errClientClosed = errors.New("sse client closed")

func (c *Client) close() {
	c.closeOnce.Do(func() { close(c.Done) })
}

// send writes and flushes one frame. Nothing is written after the client is closed.
func (c *Client) send(frame []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.Done:
		return errClientClosed
	default:
	}
	if _, err := c.Writer.Write(frame); err != nil {
		return err
	}
	c.Flusher.Flush()
	return nil
}

// wait blocks until an in-flight send has finished.
func (c *Client) wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
}

// Broadcaster manages SSE client connections and fans events out to them.
type Broadcaster struct {
	clients map[string]*Client
	mu      sync.RWMutex
	nextID  int
}

// NewBroadcaster creates a new SSE broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[string]*Client),
	}
}

// AddClient registers a streaming response writer.
func (b *Broadcaster) AddClient(w http.ResponseWriter) (*Client, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	b.mu.Lock()
	b.nextID++
	client := &Client{
		ID:      fmt.Sprintf("client-%d", b.nextID),
		Writer:  w,
		Flusher: flusher,
		Done:    make(chan struct{}),
	}
	b.clients[client.ID] = client
	count := len(b.clients)
	b.mu.Unlock()

	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client connected")
	return client, nil
}

// RemoveClient unregisters a client and closes its Done channel.
func (b *Broadcaster) RemoveClient(client *Client) {
	b.mu.Lock()
	delete(b.clients, client.ID)
	count := len(b.clients)
	b.mu.Unlock()

	client.close()
	log.Debug().Str("clientId", client.ID).Int("totalClients", count).Msg("SSE client disconnected")
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Publish sends an event to all clients, stamping it with the current time when unset.
func (b *Broadcaster) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.Broadcast(ev)
}

// Broadcast sends data as a JSON message to all clients. Clients whose writes
// fail or exceed WriteTimeout are dropped.
func (b *Broadcaster) Broadcast(data interface{}) {
	payload, err := json.Marshal(data)
	if err != nil {
		log.Error().Err(err).Msg("Failed to marshal SSE data")
		return
	}
	message := []byte(fmt.Sprintf("data: %s\n\n", payload))

	b.mu.RLock()
	clients := make([]*Client, 0, len(b.clients))
	for _, c := range b.clients {
		clients = append(clients, c)
	}
	b.mu.RUnlock()

	if len(clients) == 0 {
		return
	}

	dead := make(chan *Client, len(clients))
	var wg sync.WaitGroup
	for _, c := range clients {
		select {
		case <-c.Done:
			continue
		default:
		}
		wg.Add(1)
		go func(c *Client) {
			defer wg.Done()
			if !b.write(c, message) {
				dead <- c
			}
		}(c)
	}
	wg.Wait()
	close(dead)

	for c := range dead {
		b.RemoveClient(c)
	}
}

// write delivers one message, reporting false when the client should be dropped.
func (b *Broadcaster) write(c *Client, message []byte) bool {
	result := make(chan error, 1)
	go func() {
		result <- c.send(message)
	}()

	select {
	case err := <-result:
		if errors.Is(err, errClientClosed) {
			return true
		}
		if err != nil {
			log.Debug().Err(err).Str("clientId", c.ID).Msg("SSE write failed, dropping client")
			return false
		}
		return true
	case <-time.After(WriteTimeout):
		log.Warn().Str("clientId", c.ID).Dur("timeout", WriteTimeout).Msg("SSE write timed out, dropping client")
		return false
	case <-c.Done:
		return true
	}
}

// HandleSSE streams events to the requesting client until it disconnects.
func (b *Broadcaster) HandleSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	client, err := b.AddClient(w)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	// The writer belongs to this handler; it must not be touched once we return.
	defer client.wait()
	defer b.RemoveClient(client)

	if err := client.send([]byte(fmt.Sprintf("data: {\"type\":\"connected\",\"clientId\":\"%s\"}\n\n", client.ID))); err != nil {
		return
	}

	select {
	case <-r.Context().Done():
	case <-client.Done:
	}
}
