// Package channel defines the pluggable delivery media and their registry.
package channel

import (
	"context"
	"fmt"
	"sync"

	"franchise-notifications/internal/models"
	"franchise-notifications/internal/notification/recipients"
)

const (
	NameEmail  = "email"
	NameSMS    = "sms"
	NameSearch = "search"
)

// Channel renders and transmits a notification over one medium. Send never
// panics on delivery problems; it reports them in the Result.
type Channel interface {
	Name() string
	Send(ctx context.Context, n *models.Notification, cfg models.EmailChannelConfig, actor *models.UserEmailInfo) Result
}

// RecipientResolver is the subset of the recipient resolver channels need.
type RecipientResolver interface {
	Resolve(ctx context.Context, n *models.Notification, actor *models.UserEmailInfo, cfg models.EmailChannelConfig) []recipients.Recipient
}

// Registry is an ordered set of channels keyed by name. It is filled at start
// up and only read afterwards.
type Registry struct {
	mu       sync.RWMutex
	order    []string
	channels map[string]Channel
}

func NewRegistry(channels ...Channel) (*Registry, error) {
	r := &Registry{channels: map[string]Channel{}}
	for _, ch := range channels {
		if err := r.Register(ch); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Registry) Register(ch Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := ch.Name()
	if _, exists := r.channels[name]; exists {
		return fmt.Errorf("channel %q already registered", name)
	}
	r.channels[name] = ch
	r.order = append(r.order, name)
	return nil
}

func (r *Registry) Get(name string) (Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[name]
	return ch, ok
}

// Names returns channel names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Channels returns the channels in registration order.
func (r *Registry) Channels() []Channel {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Channel, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.channels[name])
	}
	return out
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}
