package server_test

import (
	"bufio"
	"context"
	"net/http"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("SSE Event Streaming", func() {
	openStream := func(path string) (*http.Response, context.CancelFunc) {
		streamCtx, cancel := context.WithTimeout(ctx, 10*time.Second)

		req, err := http.NewRequestWithContext(streamCtx, http.MethodGet, testServer.BaseURL+path, nil)
		Expect(err).NotTo(HaveOccurred())
		req.Header.Set("Accept", "text/event-stream")

		resp, err := http.DefaultClient.Do(req)
		Expect(err).NotTo(HaveOccurred())
		return resp, cancel
	}

	Describe("GET /event", func() {
		It("returns SSE headers", func() {
			resp, cancel := openStream("/event")
			defer cancel()
			defer resp.Body.Close()

			Expect(resp.Header.Get("Content-Type")).To(HavePrefix("text/event-stream"))
			Expect(resp.Header.Get("Cache-Control")).To(Equal("no-cache"))
		})

		It("opens with a connected event", func() {
			resp, cancel := openStream("/event")
			defer cancel()
			defer resp.Body.Close()

			scanner := bufio.NewScanner(resp.Body)
			found := false
			for scanner.Scan() {
				if strings.Contains(scanner.Text(), "server.connected") {
					found = true
					break
				}
			}
			Expect(found).To(BeTrue())
		})

		It("delivers generation activity", func() {
			sessionID, err := client.CreateSession(ctx)
			Expect(err).NotTo(HaveOccurred())

			resp, cancel := openStream("/event?sessionID=" + sessionID)
			defer cancel()
			defer resp.Body.Close()

			lines := make(chan string, 64)
			go func() {
				scanner := bufio.NewScanner(resp.Body)
				for scanner.Scan() {
					lines <- scanner.Text()
				}
				close(lines)
			}()

			go func() {
				_, _ = client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw"})
			}()

			seen := map[string]bool{}
			deadline := time.After(8 * time.Second)
			for !(seen["chat.state.changed"] && seen["chat.accepted"]) {
				select {
				case line, ok := <-lines:
					if !ok {
						Fail("stream closed before expected events arrived")
					}
					for _, want := range []string{"chat.state.changed", "chat.accepted", "message.created"} {
						if strings.Contains(line, want) {
							seen[want] = true
						}
					}
				case <-deadline:
					Fail("timed out waiting for generation events")
				}
			}
			Expect(seen["message.created"]).To(BeTrue())
		})
	})
})
