package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"net/url"

	"github.com/gorilla/websocket"
	"tech-quiz-service/internal/app"
	"tech-quiz-service/internal/domain"
)

type WSHandler struct {
	service  *app.QuizService
	upgrader websocket.Upgrader
}

func NewWSHandler(service *app.QuizService) *WSHandler {
	return &WSHandler{
		service: service,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

type inboundMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type answerPayload struct {
	QuestionID int      `json:"questionId"`
	Value      string   `json:"value"`
	Values     []string `json:"values"`
}

type togglePayload struct {
	QuestionID int    `json:"questionId"`
	Option     string `json:"option"`
}

type navigatePayload struct {
	Direction string `json:"direction"`
	Index     *int   `json:"index"`
}

type expiredPayload struct {
	QuestionID int `json:"questionId"`
}

type redirectPayload struct {
	To string `json:"to"`
}

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

type errorPayload struct {
	Message string `json:"message"`
}

// ServeWS upgrades HTTP requests to websockets and runs the timed quiz for one attempt.
func (h *WSHandler) ServeWS(w http.ResponseWriter, r *http.Request) {
	attemptID := r.URL.Query().Get("attemptId")
	if attemptID == "" {
		http.Error(w, "missing attemptId", http.StatusBadRequest)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	session, err := h.service.Begin(r.Context(), attemptID)
	if err != nil {
		if errors.Is(err, domain.ErrMissingProfile) || errors.Is(err, domain.ErrEmptySubset) {
			_ = conn.WriteJSON(outboundMessage[redirectPayload]{Type: "redirect", Payload: redirectPayload{To: intakePath}})
			return
		}
		if errors.Is(err, domain.ErrAttemptFinished) {
			to := resultPath + "?attemptId=" + url.QueryEscape(attemptID)
			_ = conn.WriteJSON(outboundMessage[redirectPayload]{Type: "redirect", Payload: redirectPayload{To: to}})
			return
		}
		_ = conn.WriteJSON(outboundMessage[errorPayload]{Type: "error", Payload: errorPayload{Message: err.Error()}})
		return
	}

	updates, cancel := session.Subscribe()
	defer cancel()

	send := make(chan outboundMessage[any], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// a single writer goroutine owns conn writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error: %v", err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		expiredSeen := make(map[int]bool)
		for {
			select {
			case view, ok := <-updates:
				if !ok {
					return
				}
				if view.Expired && !expiredSeen[view.Question.ID] {
					expiredSeen[view.Question.ID] = true
					select {
					case send <- outboundMessage[any]{Type: "expired", Payload: expiredPayload{QuestionID: view.Question.ID}}:
					case <-closeSignals:
						return
					}
				}
				select {
				case send <- outboundMessage[any]{Type: "state", Payload: view}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	ctx := r.Context()
	for {
		var inbound inboundMessage
		if err := conn.ReadJSON(&inbound); err != nil {
			break
		}
		switch inbound.Type {
		case "answer":
			var payload answerPayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid answer payload")
				continue
			}
			answer, err := answerFor(session, payload)
			if err == nil {
				_, err = h.service.Answer(ctx, attemptID, payload.QuestionID, answer)
			}
			if err != nil {
				send <- errorMessage(err.Error())
			}
		case "toggle":
			var payload togglePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid toggle payload")
				continue
			}
			if _, err := h.service.Toggle(ctx, attemptID, payload.QuestionID, payload.Option); err != nil {
				send <- errorMessage(err.Error())
			}
		case "navigate":
			var payload navigatePayload
			if err := json.Unmarshal(inbound.Payload, &payload); err != nil {
				send <- errorMessage("invalid navigate payload")
				continue
			}
			var err error
			switch {
			case payload.Index != nil:
				_, err = h.service.Jump(ctx, attemptID, *payload.Index)
			case payload.Direction == "prev" || payload.Direction == "previous":
				_, err = h.service.Navigate(ctx, attemptID, app.Previous)
			case payload.Direction == "next":
				_, err = h.service.Navigate(ctx, attemptID, app.Next)
			default:
				send <- errorMessage("unknown direction")
				continue
			}
			if err != nil {
				send <- errorMessage(err.Error())
			}
		case "submit":
			result, err := h.service.Submit(ctx, attemptID)
			if err != nil {
				send <- errorMessage(err.Error())
				continue
			}
			send <- outboundMessage[any]{Type: "result", Payload: result}
		default:
			send <- errorMessage("unsupported message type")
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}

func errorMessage(msg string) outboundMessage[any] {
	return outboundMessage[any]{Type: "error", Payload: errorPayload{Message: msg}}
}

// answerFor shapes the raw payload into the answer kind the question declares.
func answerFor(session *app.Session, payload answerPayload) (domain.Answer, error) {
	for _, q := range session.Questions() {
		if q.ID != payload.QuestionID {
			continue
		}
		switch q.Type {
		case domain.AnswerMultiChoice:
			return domain.MultiChoiceAnswer(payload.Values...), nil
		case domain.AnswerSingleChoice:
			return domain.ChoiceAnswer(payload.Value), nil
		default:
			return domain.TextAnswer(payload.Value), nil
		}
	}
	return domain.Answer{}, domain.ErrQuestionNotFound
}
