package status

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTransition = errors.New("invalid status transition")

// Approval is the review state of a submitted achievement.
type Approval string

const (
	ApprovalPending  Approval = "pending"
	ApprovalApproved Approval = "approved"
	ApprovalRejected Approval = "rejected"
)

// Registration is the status of an event from a student's point of view.
type Registration string

const (
	RegistrationUpcoming   Registration = "upcoming"
	RegistrationRegistered Registration = "registered"
	RegistrationCompleted  Registration = "completed"
)

var approvalTransitions = map[Approval][]Approval{
	ApprovalPending: {ApprovalApproved, ApprovalRejected},
}

var registrationTransitions = map[Registration][]Registration{
	RegistrationUpcoming:   {RegistrationRegistered},
	RegistrationRegistered: {RegistrationUpcoming, RegistrationCompleted},
}

// Terminal reports whether no further review decision can be made.
func (a Approval) Terminal() bool {
	return a == ApprovalApproved || a == ApprovalRejected
}

func (a Approval) Valid() bool {
	switch a {
	case ApprovalPending, ApprovalApproved, ApprovalRejected:
		return true
	}
	return false
}

func (r Registration) Valid() bool {
	switch r {
	case RegistrationUpcoming, RegistrationRegistered, RegistrationCompleted:
		return true
	}
	return false
}

// TransitionApproval checks that an achievement may move from one state to another.
func TransitionApproval(from, to Approval) error {
	for _, next := range approvalTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: achievement %s -> %s", ErrInvalidTransition, from, to)
}

// TransitionRegistration checks that an event registration may move from one state to another.
func TransitionRegistration(from, to Registration) error {
	for _, next := range registrationTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: registration %s -> %s", ErrInvalidTransition, from, to)
}

// ComputeRegistration derives the displayed status for an event.
// A registered event whose scheduled time has passed is completed.
func ComputeRegistration(registered bool, scheduled, now time.Time) Registration {
	if !registered {
		return RegistrationUpcoming
	}
	if !scheduled.IsZero() && scheduled.Before(now) {
		return RegistrationCompleted
	}
	return RegistrationRegistered
}

// ParseAchievementStatus accepts the backend's numeric codes (0 pending,
// 1 approved, 2 rejected) as well as their names.
func ParseAchievementStatus(raw string) (Approval, error) {
	s := strings.ToLower(strings.Trim(strings.TrimSpace(raw), `"`))
	if s == "" {
		return ApprovalPending, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		switch n {
		case 0:
			return ApprovalPending, nil
		case 1:
			return ApprovalApproved, nil
		case 2:
			return ApprovalRejected, nil
		}
		return "", fmt.Errorf("unknown achievement status code %d", n)
	}
	a := Approval(s)
	if !a.Valid() {
		return "", fmt.Errorf("unknown achievement status %q", raw)
	}
	return a, nil
}
