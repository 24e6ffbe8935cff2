package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"tech-quiz-service/internal/domain"
)

// Direction moves the question cursor by one.
type Direction int

const (
	Previous Direction = -1
	Next     Direction = 1
)

// Session is the state machine of one quiz attempt: the technology's questions,
// the cursor, the captured answers and the questions whose time ran out.
// All mutations, including countdown callbacks, are serialised by mu.
type Session struct {
	attemptID string
	profile   domain.UserProfile
	questions []domain.Question
	store     KeyValue
	timer     *Timer
	now       func() time.Time

	mu          sync.Mutex
	index       int
	answers     map[int]domain.Answer
	expired     map[int]struct{}
	countdown   *Countdown
	finished    bool
	subscribers map[chan domain.QuizView]struct{}
}

// LoadSession reads the attempt's profile, selects the matching questions and
// starts the countdown of the first one.
func LoadSession(ctx context.Context, attemptID string, store KeyValue, catalog domain.Catalog, scheduler Scheduler) (*Session, error) {
	return loadSessionWithClock(ctx, attemptID, store, catalog, scheduler, time.Now)
}

func loadSessionWithClock(ctx context.Context, attemptID string, store KeyValue, catalog domain.Catalog, scheduler Scheduler, now func() time.Time) (*Session, error) {
	var profile domain.UserProfile
	ok, err := getJSON(ctx, store, profileKey, &profile)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %w", domain.ErrNoActiveSession, domain.ErrMissingProfile)
	}
	// A stored result is final: the attempt cannot be rebuilt and graded again.
	if _, submitted, err := store.Get(ctx, resultKey); err != nil {
		return nil, err
	} else if submitted {
		return nil, domain.ErrAttemptFinished
	}

	questions := catalog.ForTechnology(profile.Technology)
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmptySubset, profile.Technology)
	}

	s := &Session{
		attemptID:   attemptID,
		profile:     profile,
		questions:   questions,
		store:       store,
		timer:       NewTimer(store, scheduler),
		now:         now,
		answers:     make(map[int]domain.Answer),
		expired:     make(map[int]struct{}),
		subscribers: make(map[chan domain.QuizView]struct{}),
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.startCountdownLocked(ctx)
	return s, nil
}

func (s *Session) AttemptID() string {
	return s.attemptID
}

func (s *Session) Profile() domain.UserProfile {
	return s.profile
}

// Questions returns the attempt's question subset in catalog order.
func (s *Session) Questions() []domain.Question {
	return append([]domain.Question(nil), s.questions...)
}

// RecordAnswer replaces the answer for questionID. Answers to expired questions
// are rejected and leave the state untouched. An empty answer clears the entry.
func (s *Session) RecordAnswer(questionID int, answer domain.Answer) (domain.QuizView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return s.snapshotLocked(), domain.ErrAttemptFinished
	}
	q, ok := s.questionLocked(questionID)
	if !ok {
		return s.snapshotLocked(), domain.ErrQuestionNotFound
	}
	if _, gone := s.expired[questionID]; gone {
		return s.snapshotLocked(), domain.ErrQuestionExpired
	}
	return s.recordLocked(q, answer)
}

// ToggleOption flips option in the multi-choice answer for questionID and
// records the resulting set in one step.
func (s *Session) ToggleOption(questionID int, option string) (domain.QuizView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return s.snapshotLocked(), domain.ErrAttemptFinished
	}
	q, ok := s.questionLocked(questionID)
	if !ok {
		return s.snapshotLocked(), domain.ErrQuestionNotFound
	}
	if _, gone := s.expired[questionID]; gone {
		return s.snapshotLocked(), domain.ErrQuestionExpired
	}
	current, ok := s.answers[questionID]
	if !ok {
		current = domain.MultiChoiceAnswer()
	}
	return s.recordLocked(q, current.Toggle(option))
}

func (s *Session) recordLocked(q domain.Question, answer domain.Answer) (domain.QuizView, error) {
	if err := validateAnswer(q, answer); err != nil {
		return s.snapshotLocked(), err
	}
	if answer.Type == domain.AnswerMultiChoice {
		answer = domain.MultiChoiceAnswer(answer.Values...)
	}

	if answer.IsEmpty() {
		delete(s.answers, q.ID)
	} else {
		s.answers[q.ID] = answer
	}
	return s.broadcastLocked(), nil
}

func validateAnswer(q domain.Question, answer domain.Answer) error {
	if answer.Type != q.Type {
		return fmt.Errorf("%w: question %d expects %s", domain.ErrAnswerTypeMismatch, q.ID, q.Type)
	}
	switch q.Type {
	case domain.AnswerSingleChoice:
		if answer.Value != "" && !q.HasOption(answer.Value) {
			return fmt.Errorf("%w: %q", domain.ErrOptionNotFound, answer.Value)
		}
	case domain.AnswerMultiChoice:
		for _, v := range answer.Values {
			if !q.HasOption(v) {
				return fmt.Errorf("%w: %q", domain.ErrOptionNotFound, v)
			}
		}
	}
	return nil
}

// Answer returns the recorded answer for questionID, if any.
func (s *Session) Answer(questionID int) (domain.Answer, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.answers[questionID]
	return a, ok
}

// Expire freezes questionID. Calling it again is harmless.
func (s *Session) Expire(questionID int) domain.QuizView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(questionID)
	return s.broadcastLocked()
}

func (s *Session) expireLocked(questionID int) {
	if _, ok := s.questionLocked(questionID); !ok {
		return
	}
	s.expired[questionID] = struct{}{}
	if s.countdown != nil && s.countdown.QuestionID() == questionID {
		s.countdown.Stop()
	}
}

// IsExpired reports whether questionID's time ran out.
func (s *Session) IsExpired(questionID int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.expired[questionID]
	return ok
}

// Navigate moves the cursor one step; moves past either end are ignored.
func (s *Session) Navigate(ctx context.Context, dir Direction) domain.QuizView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveLocked(ctx, s.index+int(dir))
	return s.broadcastLocked()
}

// Jump moves the cursor to index, clamped to the question range.
func (s *Session) Jump(ctx context.Context, index int) domain.QuizView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.moveLocked(ctx, index)
	return s.broadcastLocked()
}

func (s *Session) moveLocked(ctx context.Context, index int) {
	if index < 0 {
		index = 0
	}
	if index > len(s.questions)-1 {
		index = len(s.questions) - 1
	}
	if index == s.index || s.finished {
		return
	}
	s.stopCountdownLocked()
	s.index = index
	s.startCountdownLocked(ctx)
}

func (s *Session) stopCountdownLocked() {
	if s.countdown != nil {
		s.countdown.Stop()
		s.countdown = nil
	}
}

// startCountdownLocked runs the countdown for the current question unless it
// already expired. The previous countdown must have been stopped.
func (s *Session) startCountdownLocked(ctx context.Context) {
	q := s.questions[s.index]
	if _, gone := s.expired[q.ID]; gone {
		return
	}
	c := s.timer.Start(ctx, q.ID, q.TimeLimitSeconds, s.onTick, s.onExpire)
	if c.Expired() {
		s.expired[q.ID] = struct{}{}
		return
	}
	s.countdown = c
}

func (s *Session) onTick(questionID, _ int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.countdown == nil || s.countdown.QuestionID() != questionID {
		return
	}
	s.broadcastLocked()
}

func (s *Session) onExpire(questionID int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expireLocked(questionID)
	s.broadcastLocked()
}

// IsComplete reports whether every question is answered or expired.
func (s *Session) IsComplete() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isCompleteLocked()
}

func (s *Session) isCompleteLocked() bool {
	for _, q := range s.questions {
		if _, ok := s.answers[q.ID]; ok {
			continue
		}
		if _, ok := s.expired[q.ID]; ok {
			continue
		}
		return false
	}
	return true
}

// Submit grades the attempt and stores the result. It fails with
// domain.ErrIncompleteSession until IsComplete is true.
func (s *Session) Submit(ctx context.Context) (domain.ResultRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.finished {
		return domain.ResultRecord{}, domain.ErrAttemptFinished
	}
	if !s.isCompleteLocked() {
		return domain.ResultRecord{}, domain.ErrIncompleteSession
	}

	answers := make(map[int]domain.Answer, len(s.answers))
	for id, a := range s.answers {
		answers[id] = a
	}
	correct := domain.Score(s.questions, answers)
	result := domain.ResultRecord{
		UserDetails:    s.profile,
		Answers:        answers,
		TotalQuestions: len(s.questions),
		CorrectAnswers: correct,
		Percentage:     domain.Percentage(correct, len(s.questions)),
		SubmittedAt:    s.now(),
	}
	if err := setJSON(ctx, s.store, resultKey, result); err != nil {
		return domain.ResultRecord{}, fmt.Errorf("save result: %w", err)
	}

	s.stopCountdownLocked()
	s.finished = true
	s.broadcastLocked()
	return result, nil
}

// Close stops the active countdown and closes all subscriptions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopCountdownLocked()
	s.finished = true
	for ch := range s.subscribers {
		delete(s.subscribers, ch)
		close(ch)
	}
}

// View returns the current snapshot.
func (s *Session) View() domain.QuizView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Subscribe returns a channel of snapshots. Slow readers only see the latest one.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *Session) Subscribe() (<-chan domain.QuizView, func()) {
	ch := make(chan domain.QuizView, 1)

	s.mu.Lock()
	s.subscribers[ch] = struct{}{}
	ch <- s.snapshotLocked()
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[ch]; ok {
			delete(s.subscribers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

func (s *Session) broadcastLocked() domain.QuizView {
	view := s.snapshotLocked()
	for ch := range s.subscribers {
		select {
		case ch <- view:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- view
		}
	}
	return view
}

func (s *Session) snapshotLocked() domain.QuizView {
	q := s.questions[s.index]
	view := domain.QuizView{
		AttemptID: s.attemptID,
		Index:     s.index,
		Total:     len(s.questions),
		Question:  q.Public(),
		Statuses:  make([]domain.QuestionStatus, len(s.questions)),
		CanSubmit: !s.finished && s.isCompleteLocked(),
		Finished:  s.finished,
	}
	if a, ok := s.answers[q.ID]; ok {
		answer := a
		view.Answer = &answer
	}
	_, view.Expired = s.expired[q.ID]
	if s.countdown != nil && s.countdown.QuestionID() == q.ID {
		view.RemainingSeconds = s.countdown.Remaining()
	}
	for i, item := range s.questions {
		switch {
		case s.hasAnswerLocked(item.ID):
			view.Statuses[i] = domain.StatusAnswered
		case s.isExpiredLocked(item.ID):
			view.Statuses[i] = domain.StatusExpired
		default:
			view.Statuses[i] = domain.StatusUnanswered
		}
	}
	return view
}

func (s *Session) hasAnswerLocked(questionID int) bool {
	_, ok := s.answers[questionID]
	return ok
}

func (s *Session) isExpiredLocked(questionID int) bool {
	_, ok := s.expired[questionID]
	return ok
}

func (s *Session) questionLocked(questionID int) (domain.Question, bool) {
	for _, q := range s.questions {
		if q.ID == questionID {
			return q, true
		}
	}
	return domain.Question{}, false
}
