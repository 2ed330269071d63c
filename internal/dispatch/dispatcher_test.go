package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/svgpro/svgpro/internal/provider"
)

type fakeProvider struct {
	text  string
	err   error
	panic bool
}

func (f *fakeProvider) ID() string   { return "fake" }
func (f *fakeProvider) Name() string { return "Fake" }

func (f *fakeProvider) Ping(ctx context.Context) error { return nil }

func (f *fakeProvider) ChatCompletion(ctx context.Context, req *provider.ChatRequest) (string, error) {
	if f.panic {
		panic("boom")
	}
	return f.text, f.err
}

func receive(t *testing.T, ch <-chan Result) Result {
	t.Helper()
	select {
	case res := <-ch:
		return res
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for dispatch result")
		return Result{}
	}
}

func TestDispatchSuccess(t *testing.T) {
	d := New(&fakeProvider{text: "response"})

	ch := d.Dispatch(context.Background(), &provider.ChatRequest{})
	res := receive(t, ch)
	assert.NoError(t, res.Err)
	assert.Equal(t, "response", res.Text)

	// Exactly one result, then the channel closes.
	_, open := <-ch
	assert.False(t, open)
}

func TestDispatchFailure(t *testing.T) {
	want := errors.New("connection refused")
	d := New(&fakeProvider{err: want})

	res := receive(t, d.Dispatch(context.Background(), &provider.ChatRequest{}))
	require.Error(t, res.Err)
	assert.ErrorIs(t, res.Err, want)
	assert.Empty(t, res.Text)
}

func TestDispatchRecoversPanic(t *testing.T) {
	d := New(&fakeProvider{panic: true})

	res := receive(t, d.Dispatch(context.Background(), &provider.ChatRequest{}))
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "boom")
}

func TestDispatchDoesNotBlockAbandonedCaller(t *testing.T) {
	d := New(&fakeProvider{text: "ignored"})

	// Nobody reads the result; the buffered channel lets the worker exit.
	_ = d.Dispatch(context.Background(), &provider.ChatRequest{})

	done := make(chan struct{})
	go func() {
		res := receive(t, d.Dispatch(context.Background(), &provider.ChatRequest{}))
		assert.Equal(t, "ignored", res.Text)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("second dispatch blocked")
	}
}
