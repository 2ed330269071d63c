package server_test

import (
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/svgpro/svgpro/citest/testutil"
)

var _ = Describe("Session API", func() {
	var sessionID string

	BeforeEach(func() {
		var err error
		sessionID, err = client.CreateSession(ctx)
		Expect(err).NotTo(HaveOccurred())
	})

	Describe("POST /session", func() {
		It("creates a session with the generation directive installed", func() {
			resp, err := client.Get(ctx, "/session/"+sessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var sess struct {
				ID           string `json:"id"`
				SystemPrompt string `json:"systemPrompt"`
			}
			Expect(resp.JSON(&sess)).To(Succeed())
			Expect(sess.ID).To(Equal(sessionID))
			Expect(sess.SystemPrompt).To(ContainSubstring("SVG code generation assistant"))
		})
	})

	Describe("POST /session/{id}/message", func() {
		It("runs a full generation cycle and updates the document", func() {
			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw a circle"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			var result struct {
				Response string `json:"response"`
				Markup   string `json:"markup"`
			}
			Expect(resp.JSON(&result)).To(Succeed())
			Expect(result.Markup).To(ContainSubstring("<circle"))

			content, revision := testServer.Editor.Content()
			Expect(content).To(ContainSubstring("circle"))
			Expect(revision).To(BeNumerically(">", 0))
		})

		It("retries invalid replies before accepting", func() {
			testServer.LLM.Enqueue("no markup in this answer")
			testServer.LLM.Enqueue(testutil.DefaultMockResponse)

			before := testServer.LLM.Calls()
			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(testServer.LLM.Calls() - before).To(Equal(2))
		})

		It("answers 502 with the failure notice after exhausted retries", func() {
			testServer.LLM.Enqueue("")
			testServer.LLM.Enqueue("")
			testServer.LLM.Enqueue("")

			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadGateway))

			var apiErr struct {
				Error struct {
					Message string `json:"message"`
				} `json:"error"`
			}
			Expect(resp.JSON(&apiErr)).To(Succeed())
			Expect(apiErr.Error.Message).To(ContainSubstring("after 3 attempts"))
		})

		It("retries transport failures like validation failures", func() {
			testServer.LLM.EnqueueError(errors.New("connection reset"))
			testServer.LLM.Enqueue(testutil.DefaultMockResponse)

			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
		})

		It("sends the session context window to the model", func() {
			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw a star"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			req := testServer.LLM.LastRequest()
			Expect(req).NotTo(BeNil())
			Expect(req.Messages[0].Role).To(Equal("system"))
			Expect(req.Messages[len(req.Messages)-1].Content).To(Equal("draw a star"))
			Expect(req.Options.NumPredict).To(Equal(20000))
		})
	})

	Describe("session persistence", func() {
		It("round-trips a session through export and import", func() {
			resp, err := client.Post(ctx, "/session/"+sessionID+"/message", map[string]string{"text": "draw"})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			exported, err := client.Get(ctx, "/session/"+sessionID+"/export")
			Expect(err).NotTo(HaveOccurred())
			Expect(exported.StatusCode).To(Equal(http.StatusOK))

			var record map[string]any
			Expect(exported.JSON(&record)).To(Succeed())
			Expect(record).To(HaveKey("session_id"))
			Expect(record).To(HaveKey("messages"))
		})

		It("rejects a structurally invalid import", func() {
			resp, err := client.Post(ctx, "/session/import", map[string]any{"messages": []any{}})
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
		})
	})
})

var _ = Describe("Document API", func() {
	It("serves and replaces the document", func() {
		resp, err := client.Put(ctx, "/document", map[string]string{"content": "<svg><rect/></svg>"})
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		got, err := client.Get(ctx, "/document")
		Expect(err).NotTo(HaveOccurred())

		var doc struct {
			Content  string `json:"content"`
			Revision int    `json:"revision"`
		}
		Expect(got.JSON(&doc)).To(Succeed())
		Expect(doc.Content).To(Equal("<svg><rect/></svg>"))
	})

	It("formats well-formed markup on demand", func() {
		_, err := client.Put(ctx, "/document", map[string]string{"content": "<svg><g><rect/></g></svg>"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Post(ctx, "/document/format", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var doc struct {
			Content string `json:"content"`
		}
		Expect(resp.JSON(&doc)).To(Succeed())
		Expect(doc.Content).To(ContainSubstring("\n    <g>"))
	})

	It("refuses to format malformed markup", func() {
		_, err := client.Put(ctx, "/document", map[string]string{"content": "<svg><rect></svg>"})
		Expect(err).NotTo(HaveOccurred())

		resp, err := client.Post(ctx, "/document/format", nil)
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
	})
})

var _ = Describe("Config API", func() {
	It("reports the effective configuration", func() {
		resp, err := client.Get(ctx, "/config")
		Expect(err).NotTo(HaveOccurred())
		Expect(resp.StatusCode).To(Equal(http.StatusOK))

		var cfg struct {
			Provider string `json:"provider"`
			Model    string `json:"model"`
		}
		Expect(resp.JSON(&cfg)).To(Succeed())
		Expect(cfg.Provider).To(Equal("mockllm"))
		Expect(cfg.Model).To(Equal("qwen3:8b"))
	})
})
