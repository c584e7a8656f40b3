package service

import (
	"errors"

	"go.uber.org/zap"
)

var (
	ErrActivityNotFound = errors.New("activity not found")
	ErrUserNotFound     = errors.New("user not found")
	ErrNotHost          = errors.New("only the host can do this")
	ErrPersistence      = errors.New("could not save changes")

	// Validation
	ErrTitleRequired      = errors.New("title is required")
	ErrInvalidType        = errors.New(`activity type must be "real" or "visio"`)
	ErrDateRequired       = errors.New("date is required")
	ErrInvalidDate        = errors.New("invalid date format")
	ErrDateInPast         = errors.New("date must be in the future")
	ErrInvalidVisibility  = errors.New("invalid visibility")
	ErrInvalidGender      = errors.New("invalid gender restriction")
	ErrInvalidCapacity    = errors.New("invalid participant limits")
	ErrCapacityBelowCount = errors.New("max participants is below the current participant count")
	ErrInvalidStatus      = errors.New("invalid status change")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	ErrLocationMismatch   = errors.New("real activities take a location, visio activities a link")
	ErrInvalidAction      = errors.New(`action must be "accept" or "reject"`)
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")

	// Participation state
	ErrSelfJoin             = errors.New("you cannot join your own activity")
	ErrActivityClosed       = errors.New("activity is not open for participation")
	ErrActivityFull         = errors.New("activity is full")
	ErrActivityPast         = errors.New("activity has already ended")
	ErrActivityNotPast      = errors.New("activity has not happened yet")
	ErrAlreadyParticipating = errors.New("already participating")
	ErrRequestPending       = errors.New("request already pending")
	ErrRequestRejected      = errors.New("your request was rejected")
	ErrNotParticipating     = errors.New("you are not participating")
	ErrParticipationMissing = errors.New("participation request not found")
	ErrNotPending           = errors.New("participation is not pending")
	ErrNotValidated         = errors.New("participation is not validated")

	// Restrictions
	ErrFriendsOnly          = errors.New("activity is reserved to friends of the host")
	ErrVerificationRequired = errors.New("activity requires a verified account")
	ErrPremiumRequired      = errors.New("activity requires a premium account")
	ErrGenderRestricted     = errors.New("activity is restricted by gender")
	ErrAgeRestricted        = errors.New("activity is restricted by age")
)

// dbError marks a storage failure. It is logged and replaced by
// ErrPersistence before leaving the service.
type dbError struct {
	op  string
	err error
}

func (e *dbError) Error() string { return e.op + ": " + e.err.Error() }
func (e *dbError) Unwrap() error { return e.err }

func dbErr(op string, err error) error {
	return &dbError{op: op, err: err}
}

// surface passes domain errors through and hides storage failures.
func surface(logger *zap.Logger, err error) error {
	var de *dbError
	if errors.As(err, &de) {
		logger.Error("storage failure", zap.String("op", de.op), zap.Error(de.err))
		return ErrPersistence
	}
	return err
}
