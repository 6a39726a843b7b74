package contact

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/rs/zerolog"
)

// TransportError is returned when no delivery mechanism accepted a
// submission. Errs holds each mechanism's failure in order.
type TransportError struct {
	Errs []error
}

func (e *TransportError) Error() string {
	msgs := make([]string, len(e.Errs))
	for i, err := range e.Errs {
		msgs[i] = err.Error()
	}
	return "contact: all submission methods failed: " + strings.Join(msgs, "; ")
}

func (e *TransportError) Unwrap() []error {
	return e.Errs
}

// StatusError reports a non-2xx response from an endpoint.
type StatusError struct {
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("contact: unexpected status %d %s", e.Code, http.StatusText(e.Code))
}

// Chain tries each submitter in order and stops at the first one that
// succeeds.
type Chain struct {
	senders []Submitter
	log     zerolog.Logger
}

// NewChain builds a chain over senders.
func NewChain(log zerolog.Logger, senders ...Submitter) *Chain {
	return &Chain{senders: senders, log: log}
}

// Submit implements Submitter. If every sender fails it returns a
// *TransportError.
func (c *Chain) Submit(ctx context.Context, sub Submission) error {
	var errs []error
	for _, s := range c.senders {
		err := s.Submit(ctx, sub)
		if err == nil {
			c.log.Debug().Str("submission", sub.ID).Str("via", senderName(s)).Msg("contact: submission accepted")
			return nil
		}
		c.log.Warn().Err(err).Str("submission", sub.ID).Str("via", senderName(s)).Msg("contact: delivery failed, trying next")
		errs = append(errs, fmt.Errorf("%s: %w", senderName(s), err))
	}
	if len(errs) == 0 {
		return &TransportError{Errs: []error{fmt.Errorf("no delivery methods configured")}}
	}
	return &TransportError{Errs: errs}
}

// Name reports the senders in order, e.g. "webhook>form>pending".
func (c *Chain) Name() string {
	names := make([]string, len(c.senders))
	for i, s := range c.senders {
		names[i] = senderName(s)
	}
	return strings.Join(names, ">")
}

type named interface {
	Name() string
}

func senderName(s Submitter) string {
	if n, ok := s.(named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", s)
}

// ChainConfig configures NewDefaultChain.
type ChainConfig struct {
	// Endpoint defaults to DefaultEndpoint.
	Endpoint string
	// Origin is sent as the Origin header of the JSON request.
	Origin string
	Client *http.Client
	// Pending is the last-resort store. Nil leaves it out of the chain.
	Pending *PendingStore
	Logger  zerolog.Logger
}

// NewDefaultChain returns the standard delivery order: a JSON POST to the
// webhook, the same endpoint as a form post, then the pending store.
func NewDefaultChain(cfg ChainConfig) *Chain {
	senders := []Submitter{
		&WebhookSender{Endpoint: cfg.Endpoint, Origin: cfg.Origin, Client: cfg.Client},
		&FormPostSender{Endpoint: cfg.Endpoint, Client: cfg.Client},
	}
	if cfg.Pending != nil {
		senders = append(senders, cfg.Pending)
	}
	return NewChain(cfg.Logger, senders...)
}
