package provider_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/svgpro/svgpro/internal/provider"
)

var _ = Describe("OllamaProvider", func() {
	var (
		server   *httptest.Server
		received atomic.Pointer[provider.ChatRequest]
		respond  func(w http.ResponseWriter)
	)

	BeforeEach(func() {
		respond = func(w http.ResponseWriter) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message": {"role": "assistant", "content": "hello"}, "done": true}`))
		}

		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.URL.Path {
			case "/api/version":
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{"version": "0.6.0"}`))
			case "/api/chat":
				var req provider.ChatRequest
				Expect(json.NewDecoder(r.Body).Decode(&req)).To(Succeed())
				received.Store(&req)
				respond(w)
			default:
				http.NotFound(w, r)
			}
		}))
	})

	AfterEach(func() {
		server.Close()
	})

	request := func() *provider.ChatRequest {
		return &provider.ChatRequest{
			Model: "qwen3:8b",
			Messages: []provider.ChatMessage{
				{Role: "system", Content: "directive"},
				{Role: "user", Content: "draw a circle"},
			},
			Options: provider.ChatOptions{
				Temperature:      0.7,
				TopP:             0.95,
				NumPredict:       20000,
				FrequencyPenalty: 0,
				PresencePenalty:  0,
			},
		}
	}

	Describe("ChatCompletion", func() {
		It("returns the assistant message content", func() {
			p := provider.NewOllama(server.URL)
			text, err := p.ChatCompletion(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())
			Expect(text).To(Equal("hello"))
		})

		It("sends the native chat payload with stream disabled", func() {
			p := provider.NewOllama(server.URL)
			_, err := p.ChatCompletion(context.Background(), request())
			Expect(err).NotTo(HaveOccurred())

			got := received.Load()
			Expect(got).NotTo(BeNil())
			Expect(got.Model).To(Equal("qwen3:8b"))
			Expect(got.Stream).To(BeFalse())
			Expect(got.Messages).To(HaveLen(2))
			Expect(got.Messages[0].Role).To(Equal("system"))
			Expect(got.Options.Temperature).To(Equal(0.7))
			Expect(got.Options.NumPredict).To(Equal(20000))
		})

		It("surfaces the daemon's error message", func() {
			respond = func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusNotFound)
				_, _ = w.Write([]byte(`{"error": "model 'missing' not found"}`))
			}
			p := provider.NewOllama(server.URL)
			_, err := p.ChatCompletion(context.Background(), request())
			Expect(err).To(MatchError(ContainSubstring("model 'missing' not found")))
		})

		It("reports non-JSON failures by status", func() {
			respond = func(w http.ResponseWriter) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte("upstream broke"))
			}
			p := provider.NewOllama(server.URL)
			_, err := p.ChatCompletion(context.Background(), request())
			Expect(err).To(MatchError(ContainSubstring("502")))
		})

		It("fails when the daemon is unreachable", func() {
			p := provider.NewOllama("http://127.0.0.1:1")
			_, err := p.ChatCompletion(context.Background(), request())
			Expect(err).To(HaveOccurred())
		})

		It("honors context cancellation", func() {
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			p := provider.NewOllama(server.URL)
			_, err := p.ChatCompletion(ctx, request())
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("Ping", func() {
		It("succeeds against a live daemon", func() {
			p := provider.NewOllama(server.URL)
			Expect(p.Ping(context.Background())).To(Succeed())
		})

		It("fails against a dead address", func() {
			p := provider.NewOllama("http://127.0.0.1:1")
			Expect(p.Ping(context.Background())).NotTo(Succeed())
		})
	})

	Describe("Registry", func() {
		It("resolves registered providers by id", func() {
			reg := provider.NewRegistry()
			p := provider.NewOllama(server.URL)
			reg.Register(p)

			got, err := reg.Get("ollama")
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Name()).To(Equal("Ollama"))

			_, err = reg.Get("unknown")
			Expect(err).To(HaveOccurred())
		})
	})
})
