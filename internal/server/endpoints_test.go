package server_test

import (
	"bufio"
	"bytes"
	"encoding/json"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/context-kit/contextkit/internal/domain"
	"github.com/context-kit/contextkit/pkg/types"
)

var _ = Describe("Server endpoints", func() {
	Describe("GET /health", func() {
		It("reports status and backend", func() {
			var health map[string]any
			status, err := getJSON("/health", &health)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(health["status"]).To(Equal("ok"))
			Expect(health["backend"]).To(Equal("memory"))
		})
	})

	Describe("POST /session", func() {
		It("creates a session with a capability profile", func() {
			created := createTestSession("user-1", []string{"context.read"})

			Expect(created.Session.UserID).To(Equal("user-1"))
			Expect(created.Session.SystemPrompt).To(Equal(domain.DefaultSystemPrompt))
			Expect(created.Session.ActiveTools).To(Equal([]string{"context.read"}))
			Expect(created.Capabilities.Tools).NotTo(BeEmpty())

			enabled := map[string]bool{}
			for _, c := range created.Capabilities.Tools {
				enabled[c.ID] = c.Enabled
			}
			Expect(enabled["context.read"]).To(BeTrue())
			Expect(enabled["pipeline.validate"]).To(BeFalse())
		})

		It("rejects a missing user id", func() {
			status, err := postJSON("/session", map[string]any{}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("rejects an invalid provider override", func() {
			status, err := postJSON("/session", map[string]any{
				"userId": "user-1",
				"provider": map[string]any{
					"kind":        "ollama",
					"endpoint":    "http://localhost:11434",
					"model":       "llama3.1",
					"temperature": 9.5,
				},
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("GET /session/{sessionID}", func() {
		It("retrieves a session by id", func() {
			created := createTestSession("user-2", nil)

			var got types.SessionDTO
			status, err := getJSON("/session/"+created.Session.SessionID, &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))
			Expect(got.SessionID).To(Equal(created.Session.SessionID))
			Expect(got.UserID).To(Equal("user-2"))
		})

		It("returns 404 for an unknown id", func() {
			status, err := getJSON("/session/"+domain.NewSessionID().String(), nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("returns 400 for a malformed id", func() {
			status, err := getJSON("/session/not-a-ulid", nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})
	})

	Describe("DELETE /session/{sessionID}", func() {
		It("deletes a session", func() {
			created := createTestSession("user-3", nil)

			status, err := doDelete("/session/" + created.Session.SessionID)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))

			status, err = getJSON("/session/"+created.Session.SessionID, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})

		It("returns 404 for an unknown id", func() {
			status, err := doDelete("/session/" + domain.NewSessionID().String())
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /session/{sessionID}/message", func() {
		It("runs the agent loop and returns the task", func() {
			created := createTestSession("user-4", nil)

			var task types.TaskDTO
			status, err := postJSON("/session/"+created.Session.SessionID+"/message", map[string]any{
				"content": "Hello there",
			}, &task)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusOK))

			Expect(task.Status).To(Equal("succeeded"))
			Expect(task.ActionType).To(Equal("prompt"))
			Expect(task.Timestamps.FirstResponse).NotTo(BeNil())
			Expect(task.Timestamps.Completed).NotTo(BeNil())
			Expect(task.Outputs).To(HaveLen(1))

			var output struct {
				Type    string `json:"type"`
				Content string `json:"content"`
			}
			Expect(json.Unmarshal(task.Outputs[0], &output)).To(Succeed())
			Expect(output.Type).To(Equal("text"))
			Expect(output.Content).To(Equal("Stub response"))

			// The conversation is recorded on the session.
			var got types.SessionDTO
			_, err = getJSON("/session/"+created.Session.SessionID, &got)
			Expect(err).NotTo(HaveOccurred())
			Expect(got.Messages).To(HaveLen(2))
			Expect(got.Messages[0].Role).To(Equal("user"))
			Expect(got.Messages[1].Content).To(Equal("Stub response"))
		})

		It("rejects empty content", func() {
			created := createTestSession("user-5", nil)

			status, err := postJSON("/session/"+created.Session.SessionID+"/message", map[string]any{
				"content": "",
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusBadRequest))
		})

		It("returns 404 for an unknown session", func() {
			status, err := postJSON("/session/"+domain.NewSessionID().String()+"/message", map[string]any{
				"content": "Hello",
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})

	Describe("POST /session/{sessionID}/message/stream", func() {
		It("streams ordered lifecycle events as NDJSON", func() {
			created := createTestSession("user-6", nil)

			payload, err := json.Marshal(map[string]any{"content": "Hello there"})
			Expect(err).NotTo(HaveOccurred())

			resp, err := http.Post(
				testServer.URL+"/session/"+created.Session.SessionID+"/message/stream",
				"application/json",
				bytes.NewReader(payload),
			)
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			Expect(resp.Header.Get("Content-Type")).To(Equal("application/x-ndjson"))

			var events []types.StreamEvent
			scanner := bufio.NewScanner(resp.Body)
			for scanner.Scan() {
				if len(scanner.Bytes()) == 0 {
					continue
				}
				var e types.StreamEvent
				Expect(json.Unmarshal(scanner.Bytes(), &e)).To(Succeed())
				events = append(events, e)
			}
			Expect(scanner.Err()).NotTo(HaveOccurred())

			Expect(len(events)).To(Equal(4))
			Expect(events[0].Type).To(Equal(types.EventTaskStarted))
			Expect(events[1].Type).To(Equal(types.EventToken))
			Expect(events[1].Token).To(Equal("Stub "))
			Expect(events[2].Token).To(Equal("response"))
			Expect(events[3].Type).To(Equal(types.EventTaskCompleted))

			for _, e := range events {
				Expect(e.TaskID).To(Equal(events[0].TaskID))
			}
		})

		It("returns 404 before any event for an unknown session", func() {
			status, err := postJSON("/session/"+domain.NewSessionID().String()+"/message/stream", map[string]any{
				"content": "Hello",
			}, nil)
			Expect(err).NotTo(HaveOccurred())
			Expect(status).To(Equal(http.StatusNotFound))
		})
	})
})
