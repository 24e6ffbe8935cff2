package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"tech-quiz-service/internal/domain"
)

// SessionRepository keeps the live quiz sessions, one per attempt.
type SessionRepository interface {
	GetOrCreate(attemptID string, create func() (*Session, error)) (*Session, error)
	Get(attemptID string) (*Session, bool)
	Delete(attemptID string) (*Session, bool)
}

// CatalogRepository loads the question catalog (from cache/backing store).
type CatalogRepository interface {
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

// QuizService contains the quiz use cases: intake, the timed quiz and the result.
type QuizService struct {
	sessions  SessionRepository
	store     SessionStore
	catalog   CatalogRepository
	scheduler Scheduler
	validate  *validator.Validate
	newID     func() string
}

func NewQuizService(sessions SessionRepository, store SessionStore, catalog CatalogRepository) *QuizService {
	return NewQuizServiceWithScheduler(sessions, store, catalog, TickerScheduler{})
}

// NewQuizServiceWithScheduler lets tests drive countdowns by hand.
func NewQuizServiceWithScheduler(sessions SessionRepository, store SessionStore, catalog CatalogRepository, scheduler Scheduler) *QuizService {
	return &QuizService{
		sessions:  sessions,
		store:     store,
		catalog:   catalog,
		scheduler: scheduler,
		validate:  validator.New(),
		newID:     uuid.NewString,
	}
}

// Technologies lists the technologies offered at intake.
func (s *QuizService) Technologies(ctx context.Context) ([]string, error) {
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), catalog.Technologies...), nil
}

// Intake validates the profile and starts a fresh attempt. Anything stored for
// attemptID by an earlier attempt is discarded. An empty attemptID gets a new id.
func (s *QuizService) Intake(ctx context.Context, attemptID string, profile domain.UserProfile) (string, error) {
	profile = profile.Normalized()
	if err := s.validate.Struct(profile); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			return "", fmt.Errorf("%w: %s is required", domain.ErrInvalidIntake, fieldErrs[0].Field())
		}
		return "", fmt.Errorf("%w: %v", domain.ErrInvalidIntake, err)
	}

	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return "", err
	}
	if !catalog.OffersTechnology(profile.Technology) {
		return "", fmt.Errorf("%w: %w: %s", domain.ErrInvalidIntake, domain.ErrUnknownTechnology, profile.Technology)
	}
	// Technologies without questions are refused here rather than producing an empty quiz.
	if len(catalog.ForTechnology(profile.Technology)) == 0 {
		return "", fmt.Errorf("%w: %w: %s", domain.ErrInvalidIntake, domain.ErrEmptySubset, profile.Technology)
	}

	if attemptID == "" {
		attemptID = s.newID()
	}
	if session, ok := s.sessions.Delete(attemptID); ok {
		session.Close()
	}
	kv := Scope(s.store, attemptID)
	if err := kv.Clear(ctx); err != nil {
		return "", fmt.Errorf("clear attempt: %w", err)
	}
	if err := setJSON(ctx, kv, profileKey, profile); err != nil {
		return "", fmt.Errorf("save profile: %w", err)
	}
	return attemptID, nil
}

// Begin returns the live session for attemptID, loading it from the stored
// profile on first use. It fails with domain.ErrMissingProfile when intake was skipped
// and with domain.ErrAttemptFinished once a result is stored.
func (s *QuizService) Begin(ctx context.Context, attemptID string) (*Session, error) {
	return s.sessions.GetOrCreate(attemptID, func() (*Session, error) {
		catalog, err := s.catalog.GetCatalog(ctx)
		if err != nil {
			return nil, err
		}
		return LoadSession(context.WithoutCancel(ctx), attemptID, Scope(s.store, attemptID), catalog, s.scheduler)
	})
}

func (s *QuizService) active(attemptID string) (*Session, error) {
	session, ok := s.sessions.Get(attemptID)
	if !ok {
		return nil, domain.ErrNoActiveSession
	}
	return session, nil
}

// Answer records a complete answer for a question.
func (s *QuizService) Answer(_ context.Context, attemptID string, questionID int, answer domain.Answer) (domain.QuizView, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return session.RecordAnswer(questionID, answer)
}

// Toggle flips one option of a multi-choice question and records the resulting set.
func (s *QuizService) Toggle(_ context.Context, attemptID string, questionID int, option string) (domain.QuizView, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return session.ToggleOption(questionID, option)
}

func (s *QuizService) Navigate(ctx context.Context, attemptID string, dir Direction) (domain.QuizView, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return session.Navigate(context.WithoutCancel(ctx), dir), nil
}

func (s *QuizService) Jump(ctx context.Context, attemptID string, index int) (domain.QuizView, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return session.Jump(context.WithoutCancel(ctx), index), nil
}

func (s *QuizService) View(_ context.Context, attemptID string) (domain.QuizView, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.QuizView{}, err
	}
	return session.View(), nil
}

// Subscribe returns a channel that receives snapshots of the attempt.
// The caller must invoke the returned cancel function to avoid leaks.
func (s *QuizService) Subscribe(_ context.Context, attemptID string) (<-chan domain.QuizView, func(), error) {
	session, err := s.active(attemptID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := session.Subscribe()
	return ch, cancel, nil
}

// Submit grades the attempt, stores the result and retires the live session.
func (s *QuizService) Submit(ctx context.Context, attemptID string) (domain.ResultRecord, error) {
	session, err := s.active(attemptID)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	result, err := session.Submit(ctx)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if live, ok := s.sessions.Delete(attemptID); ok {
		live.Close()
	}
	return result, nil
}

// Result returns the stored result, or domain.ErrMissingResult before submission.
func (s *QuizService) Result(ctx context.Context, attemptID string) (domain.ResultRecord, error) {
	var result domain.ResultRecord
	ok, err := getJSON(ctx, Scope(s.store, attemptID), resultKey, &result)
	if err != nil {
		return domain.ResultRecord{}, err
	}
	if !ok {
		return domain.ResultRecord{}, domain.ErrMissingResult
	}
	return result, nil
}

// Review returns the result with every question, the user's answer and the key.
// Correctness uses the same rule as scoring.
func (s *QuizService) Review(ctx context.Context, attemptID string) (domain.ResultReview, error) {
	result, err := s.Result(ctx, attemptID)
	if err != nil {
		return domain.ResultReview{}, err
	}
	catalog, err := s.catalog.GetCatalog(ctx)
	if err != nil {
		return domain.ResultReview{}, err
	}

	questions := catalog.ForTechnology(result.UserDetails.Technology)
	items := make([]domain.ReviewItem, 0, len(questions))
	for _, q := range questions {
		answer, answered := result.Answers[q.ID]
		yours := "Not Answered"
		if answered {
			yours = answer.String()
		}
		items = append(items, domain.ReviewItem{
			QuestionID:    q.ID,
			Prompt:        q.Prompt,
			YourAnswer:    yours,
			CorrectAnswer: q.CorrectAnswer.String(),
			Correct:       domain.IsCorrect(q, answer, answered),
		})
	}
	return domain.ResultReview{
		Result: result,
		Band:   domain.BandFor(result.Percentage),
		Items:  items,
	}, nil
}

// Restart discards the attempt so the user is sent back to intake.
func (s *QuizService) Restart(ctx context.Context, attemptID string) error {
	if session, ok := s.sessions.Delete(attemptID); ok {
		session.Close()
	}
	return s.store.Clear(ctx, attemptID)
}
