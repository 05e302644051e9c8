package services

import "errors"

// Business outcomes of the access-request workflow. These are expected
// results, not faults; handlers map them to specific user-facing messages so
// the caller can self-correct.
var (
	// ErrInstitutionNotFound is returned when the slug resolves to no active tenant.
	ErrInstitutionNotFound = errors.New("institution not found or inactive")

	// ErrNotRegistered is the trust-boundary rejection: the institution has no
	// registry record matching the claimed identity for the requested role.
	ErrNotRegistered = errors.New("you are not registered for this role at this institution")

	// ErrDuplicatePending enforces the at-most-one-in-flight invariant.
	ErrDuplicatePending = errors.New("an access request for this identity is already pending review")

	// ErrAccountExists is returned when a matching User is already approved.
	ErrAccountExists = errors.New("an account already exists for this identity, log in instead")

	// ErrIdentityConflict is returned when a User exists under a different
	// institution or role than the one claimed.
	ErrIdentityConflict = errors.New("this identity is already bound to a different institution or role")

	// ErrRequestNotPending is the state-machine violation: only PENDING
	// requests can be reviewed. It indicates a stale client view or a lost race.
	ErrRequestNotPending = errors.New("only pending requests can be approved or rejected")
)

// ErrInvalidCredentials is the single opaque outcome for every authentication
// failure. Which precondition failed (existence, password, approval, OTP) is
// never revealed, to prevent account enumeration.
var ErrInvalidCredentials = errors.New("invalid credentials")
