package entity

import "errors"

// Kind is the stable error category surfaced to API callers.
type Kind string

const (
	KindConflict     Kind = "CONFLICT"
	KindUnauthorized Kind = "UNAUTHORIZED"
	KindNotFound     Kind = "NOT_FOUND"
	KindValidation   Kind = "VALIDATION"
	KindRateLimited  Kind = "RATE_LIMITED"
	KindInternal     Kind = "INTERNAL"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrAlreadyExists   = errors.New("already exists")
	ErrVersionConflict = errors.New("version conflict")
	ErrTooManyRequests = errors.New("too many requests")
)

var (
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")
)

var (
	ErrAccountNotFound         = errors.New("account not found")
	ErrEntityNotFound          = errors.New("entity not found")
	ErrEmailInUse              = errors.New("email already in use")
	ErrGovernmentEmailRequired = errors.New("government emails must end with .gov")
	ErrIncompleteRegistration  = errors.New("account registration data incomplete")
)

var (
	ErrUnknownFlowType      = errors.New("unknown onboarding flow type")
	ErrNoStepsInitialized   = errors.New("no onboarding steps initialized")
	ErrInvalidStepReference = errors.New("invalid step reference")
	ErrInvalidStepStatus    = errors.New("invalid step status")
	ErrInvalidStepData      = errors.New("invalid step data")
)

var (
	ErrEmailInvalidLen      = errors.New("email length exceeds 255 characters")
	ErrEmailInvalidFormat   = errors.New("incorrect email format")
	ErrPasswordInvalidLen   = errors.New("password must be from 8 to 72 symbols")
	ErrPasswordNoUpperCase  = errors.New("password must contain at least one upper-case letter")
	ErrPasswordNoDigit      = errors.New("password must contain at least one digit")
	ErrNameInvalidLen       = errors.New("name must be between 1 and 100 characters")
	ErrEntityTypeInvalid    = errors.New("unknown entity type")
	ErrProfileInvalid       = errors.New("invalid entity profile")
	ErrImageEmpty           = errors.New("image is empty")
	ErrImageTooLarge        = errors.New("image is too large")
	ErrImageUnsupportedType = errors.New("unsupported image type")
)

type kindedErr struct {
	err  error
	kind Kind
}

var kinds = []kindedErr{
	{ErrEmailInUse, KindConflict},
	{ErrGovernmentEmailRequired, KindConflict},
	{ErrAlreadyExists, KindConflict},
	{ErrVersionConflict, KindConflict},

	{ErrInvalidOrExpiredCode, KindUnauthorized},
	{ErrInvalidCredentials, KindUnauthorized},
	{ErrInvalidToken, KindUnauthorized},

	{ErrAccountNotFound, KindNotFound},
	{ErrEntityNotFound, KindNotFound},
	{ErrInvalidStepReference, KindNotFound},
	{ErrNotFound, KindNotFound},

	{ErrTooManyRequests, KindRateLimited},

	{ErrIncompleteRegistration, KindValidation},
	{ErrUnknownFlowType, KindValidation},
	{ErrNoStepsInitialized, KindValidation},
	{ErrInvalidStepStatus, KindValidation},
	{ErrInvalidStepData, KindValidation},
	{ErrEmailInvalidLen, KindValidation},
	{ErrEmailInvalidFormat, KindValidation},
	{ErrPasswordInvalidLen, KindValidation},
	{ErrPasswordNoUpperCase, KindValidation},
	{ErrPasswordNoDigit, KindValidation},
	{ErrNameInvalidLen, KindValidation},
	{ErrEntityTypeInvalid, KindValidation},
	{ErrProfileInvalid, KindValidation},
	{ErrImageEmpty, KindValidation},
	{ErrImageTooLarge, KindValidation},
	{ErrImageUnsupportedType, KindValidation},
}

// KindOf classifies err. Anything not raised by the domain is INTERNAL.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	if k, ok := classify(err); ok {
		return k.kind
	}

	return KindInternal
}

// Public returns the domain error that err wraps, or nil when err is
// internal and its text must not reach callers.
func Public(err error) error {
	if err == nil {
		return nil
	}

	k, _ := classify(err)

	return k.err
}

func classify(err error) (kindedErr, bool) {
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k, true
		}
	}

	return kindedErr{}, false
}
