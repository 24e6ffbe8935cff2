package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"tech-quiz-service/internal/app"
	"tech-quiz-service/internal/domain"
	"tech-quiz-service/internal/infra/memory"
)

func TestWebSocketQuizFlow(t *testing.T) {
	service, sched := newTestService()
	if _, err := service.Intake(context.Background(), "a1", domain.UserProfile{Name: "Ann", Email: "a@x.com", Technology: "React"}); err != nil {
		t.Fatalf("intake: %v", err)
	}
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "a1")
	defer conn.Close()

	first := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })
	view := decodeView(t, first)
	if view.Index != 0 || view.Question.ID != 1 || view.RemainingSeconds != 30 {
		t.Fatalf("unexpected first state %+v", view)
	}

	send(t, conn, "answer", map[string]any{"questionId": 1, "value": "Hooks"})
	readUntil(t, conn, func(m wsMessage) bool {
		return m.Type == "state" && decodeView(t, m).Answer != nil
	})

	send(t, conn, "navigate", map[string]any{"direction": "next"})
	readUntil(t, conn, func(m wsMessage) bool {
		return m.Type == "state" && decodeView(t, m).Index == 1
	})

	sched.tickN(30)
	expired := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "expired" })
	var payload expiredPayload
	_ = json.Unmarshal(expired.Payload, &payload)
	if payload.QuestionID != 2 {
		t.Fatalf("expected question 2 to expire, got %d", payload.QuestionID)
	}

	send(t, conn, "submit", nil)
	resultMsg := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "result" })
	var result domain.ResultRecord
	if err := json.Unmarshal(resultMsg.Payload, &result); err != nil {
		t.Fatalf("decode result: %v", err)
	}
	if result.CorrectAnswers != 1 || result.Percentage != 50 {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestWebSocketRejectsExpiredAnswer(t *testing.T) {
	service, sched := newTestService()
	_, _ = service.Intake(context.Background(), "a1", domain.UserProfile{Name: "Ann", Email: "a@x.com", Technology: "React"})
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "a1")
	defer conn.Close()
	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "state" })

	sched.tickN(30)
	readUntil(t, conn, func(m wsMessage) bool { return m.Type == "expired" })

	send(t, conn, "answer", map[string]any{"questionId": 1, "value": "Hooks"})
	msg := readUntil(t, conn, func(m wsMessage) bool { return m.Type == "error" })
	var payload errorPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.Message != domain.ErrQuestionExpired.Error() {
		t.Fatalf("unexpected error %q", payload.Message)
	}
}

func TestWebSocketRedirectsWithoutProfile(t *testing.T) {
	service, _ := newTestService()
	server := newTestServer(service)
	defer server.Close()

	conn := dial(t, server, "missing")
	defer conn.Close()

	msg := readUntil(t, conn, func(m wsMessage) bool { return true })
	if msg.Type != "redirect" {
		t.Fatalf("expected redirect, got %s", msg.Type)
	}
	var payload redirectPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if payload.To != intakePath {
		t.Fatalf("expected redirect to intake, got %q", payload.To)
	}
}

func TestWebSocketRedirectsSubmittedAttemptToResult(t *testing.T) {
	ctx := context.Background()
	service, _ := newTestService()
	_, _ = service.Intake(ctx, "a1", domain.UserProfile{Name: "Ann", Email: "a@x.com", Technology: "React"})
	if _, err := service.Begin(ctx, "a1"); err != nil {
		t.Fatalf("begin: %v", err)
	}
	_, _ = service.Answer(ctx, "a1", 1, domain.ChoiceAnswer("Hooks"))
	_, _ = service.Answer(ctx, "a1", 2, domain.MultiChoiceAnswer("useState"))
	if _, err := service.Submit(ctx, "a1"); err != nil {
		t.Fatalf("submit: %v", err)
	}

	server := newTestServer(service)
	defer server.Close()
	conn := dial(t, server, "a1")
	defer conn.Close()

	msg := readUntil(t, conn, func(m wsMessage) bool { return true })
	var payload redirectPayload
	_ = json.Unmarshal(msg.Payload, &payload)
	if msg.Type != "redirect" || payload.To != "/result?attemptId=a1" {
		t.Fatalf("expected redirect to result, got %s %q", msg.Type, payload.To)
	}
}

func TestWebSocketRequiresAttemptID(t *testing.T) {
	service, _ := newTestService()
	server := newTestServer(service)
	defer server.Close()

	resp, err := http.Get(server.URL + "/ws")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

type wsMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func dial(t *testing.T, server *httptest.Server, attemptID string) *websocket.Conn {
	t.Helper()
	u := "ws" + server.URL[len("http"):] + "/ws?attemptId=" + attemptID
	conn, _, err := websocket.DefaultDialer.Dial(u, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()
	if err := conn.WriteJSON(map[string]any{"type": typ, "payload": payload}); err != nil {
		t.Fatalf("write %s: %v", typ, err)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func(wsMessage) bool) wsMessage {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		_ = conn.SetReadDeadline(deadline)
		var msg wsMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read json: %v", err)
		}
		if match(msg) {
			return msg
		}
	}
}

func decodeView(t *testing.T, msg wsMessage) domain.QuizView {
	t.Helper()
	var view domain.QuizView
	if err := json.Unmarshal(msg.Payload, &view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	return view
}

func newTestServer(service *app.QuizService) *httptest.Server {
	mux := http.NewServeMux()
	NewAPIHandler(service).Register(mux)
	mux.HandleFunc("/ws", NewWSHandler(service).ServeWS)
	return httptest.NewServer(mux)
}

func newTestService() (*app.QuizService, *manualScheduler) {
	sched := &manualScheduler{jobs: make(map[int]func())}
	catalogRepo := memory.NewCatalogRepository(memory.NewStaticCatalogLoader(sampleCatalog()), time.Minute)
	service := app.NewQuizServiceWithScheduler(memory.NewSessionRepository(), memory.NewSessionStore(), catalogRepo, sched)
	return service, sched
}

func sampleCatalog() domain.Catalog {
	return domain.Catalog{
		Technologies: []string{"React"},
		Questions: []domain.Question{
			{
				ID:               1,
				Technology:       "React",
				Prompt:           "Which feature lets function components hold state?",
				Type:             domain.AnswerSingleChoice,
				Options:          []string{"Hooks", "Mixins"},
				CorrectAnswer:    domain.AnswerKey{"Hooks"},
				TimeLimitSeconds: 30,
			},
			{
				ID:               2,
				Technology:       "React",
				Prompt:           "Which of these are built-in hooks?",
				Type:             domain.AnswerMultiChoice,
				Options:          []string{"useState", "useEffect", "useFetch"},
				CorrectAnswer:    domain.AnswerKey{"useState", "useEffect"},
				TimeLimitSeconds: 30,
			},
		},
	}
}

// manualScheduler only fires jobs when the test ticks it.
type manualScheduler struct {
	mu   sync.Mutex
	next int
	jobs map[int]func()
}

func (m *manualScheduler) Every(_ time.Duration, fn func()) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.next
	m.next++
	m.jobs[id] = fn
	return func() {
		m.mu.Lock()
		delete(m.jobs, id)
		m.mu.Unlock()
	}
}

func (m *manualScheduler) tickN(n int) {
	for i := 0; i < n; i++ {
		m.mu.Lock()
		fns := make([]func(), 0, len(m.jobs))
		for _, fn := range m.jobs {
			fns = append(fns, fn)
		}
		m.mu.Unlock()
		for _, fn := range fns {
			fn()
		}
	}
}
