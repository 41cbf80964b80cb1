package monitor

import (
	"context"
	"fmt"

	"github.com/nicholas-fedor/shoutrrr"
	"github.com/nicholas-fedor/shoutrrr/pkg/types"
)

// Notifier delivers a drift notification. Implementations must be safe for
// use from the scheduler goroutine.
type Notifier interface {
	// Notify delivers a message with the given title.
	Notify(ctx context.Context, title, message string) error
}

// ShoutrrrNotifier delivers notifications through a Shoutrrr service URL.
// The URL scheme selects the service (telegram://, slack://, smtp://, ...).
type ShoutrrrNotifier struct {
	url string
}

// NewShoutrrrNotifier creates a notifier for the given service URL.
// The URL is validated eagerly so a malformed URL fails at startup rather
// than on the first drift.
func NewShoutrrrNotifier(url string) (*ShoutrrrNotifier, error) {
	if _, err := shoutrrr.CreateSender(url); err != nil {
		return nil, fmt.Errorf("creating sender: %w", err)
	}
	return &ShoutrrrNotifier{url: url}, nil
}

// Notify delivers the message via Shoutrrr.
func (n *ShoutrrrNotifier) Notify(_ context.Context, title, message string) error {
	sender, err := shoutrrr.CreateSender(n.url)
	if err != nil {
		return fmt.Errorf("creating sender: %w", err)
	}

	params := types.Params{"title": title}
	errs := sender.Send(message, &params)
	for _, e := range errs {
		if e != nil {
			return fmt.Errorf("sending notification: %w", e)
		}
	}

	return nil
}
