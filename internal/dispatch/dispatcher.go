// Package dispatch runs completion calls off the caller's goroutine and
// reports each outcome exactly once.
package dispatch

import (
	"context"
	"fmt"

	"github.com/svgpro/svgpro/internal/logging"
	"github.com/svgpro/svgpro/internal/provider"
)

// Result is the outcome of one completion call. Exactly one of Text or Err
// is meaningful.
type Result struct {
	Text string
	Err  error
}

// Dispatcher performs completion calls asynchronously against a provider.
type Dispatcher struct {
	prov provider.Provider
}

// New creates a dispatcher bound to a provider.
func New(p provider.Provider) *Dispatcher {
	return &Dispatcher{prov: p}
}

// Provider returns the bound provider.
func (d *Dispatcher) Provider() provider.Provider {
	return d.prov
}

// Dispatch starts a completion call and returns a channel that yields the
// single result. The channel is buffered and closed after the send, so a
// caller that walks away does not strand the worker. Cancellation of ctx
// surfaces as an error result.
func (d *Dispatcher) Dispatch(ctx context.Context, req *provider.ChatRequest) <-chan Result {
	out := make(chan Result, 1)

	go func() {
		defer close(out)
		defer func() {
			if r := recover(); r != nil {
				logging.Error().Interface("panic", r).Msg("completion call panicked")
				out <- Result{Err: fmt.Errorf("completion call panicked: %v", r)}
			}
		}()

		text, err := d.prov.ChatCompletion(ctx, req)
		if err != nil {
			out <- Result{Err: err}
			return
		}
		out <- Result{Text: text}
	}()

	return out
}
