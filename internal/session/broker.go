package session

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/kingbrown/caesarstudy/internal/study"
)

// Event is the payload pushed on a client's event stream.
type Event struct {
	Type string      `json:"type"`
	User *study.User `json:"user,omitempty"`
	View *ViewState  `json:"view,omitempty"`
}

const (
	EventSession = "session"
	EventView    = "view"
)

// Broker is an in-process pub/sub for stream events, keyed by client key.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[string]map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events for clientKey.
func (b *Broker) Subscribe(clientKey string) chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	if b.subs[clientKey] == nil {
		b.subs[clientKey] = make(map[chan []byte]struct{})
	}
	b.subs[clientKey][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(clientKey string, ch chan []byte) {
	b.mu.Lock()
	delete(b.subs[clientKey], ch)
	if len(b.subs[clientKey]) == 0 {
		delete(b.subs, clientKey)
	}
	b.mu.Unlock()
}

// Publish sends event to every subscriber of clientKey. Slow subscribers
// miss events rather than block the publisher.
func (b *Broker) Publish(clientKey string, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event.Type, err)
	}
	b.mu.RLock()
	for ch := range b.subs[clientKey] {
		select {
		case ch <- data:
		default:
		}
	}
	b.mu.RUnlock()
	return nil
}
