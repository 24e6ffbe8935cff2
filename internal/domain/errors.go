package domain

import "errors"

var (
	// ErrMissingProfile is returned when the quiz is reached without a stored profile.
	ErrMissingProfile = errors.New("no profile stored for attempt")
	// ErrMissingResult is returned when the result is requested before submission.
	ErrMissingResult = errors.New("no result stored for attempt")
	// ErrNoActiveSession indicates there is no live quiz for the attempt.
	ErrNoActiveSession = errors.New("no active quiz session")
	// ErrIncompleteSession is returned when submitting before every question is answered or expired.
	ErrIncompleteSession = errors.New("quiz is not complete")
	// ErrInvalidIntake indicates a required intake field is missing or unusable.
	ErrInvalidIntake = errors.New("invalid intake")
	// ErrUnknownTechnology indicates the technology is not offered.
	ErrUnknownTechnology = errors.New("technology not offered")
	// ErrEmptySubset indicates the technology has no questions.
	ErrEmptySubset = errors.New("technology has no questions")
	// ErrQuestionNotFound indicates a submitted question ID is invalid.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrOptionNotFound indicates a submitted option is not one of the question's choices.
	ErrOptionNotFound = errors.New("option not found")
	// ErrQuestionExpired is returned when answering a question whose time is up.
	ErrQuestionExpired = errors.New("time is up for this question")
	// ErrAnswerTypeMismatch indicates the answer shape does not fit the question.
	ErrAnswerTypeMismatch = errors.New("answer type does not match question")
	// ErrAttemptFinished is returned for changes after submission.
	ErrAttemptFinished = errors.New("quiz already submitted")
)
