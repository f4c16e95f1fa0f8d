package check

import (
	"time"
	"unicode"

	dErrors "rtw-gateway/pkg/domain-errors"
)

const (
	// ShareCodeLength is the fixed length of a government share code.
	ShareCodeLength = 9

	// minorAgeYears is the age below which a check is flagged for special
	// rules rather than completed normally.
	minorAgeYears = 16
)

// ValidationResult is the outcome of the pre-check gate. A request is either
// valid, valid with a minor-subject warning, or invalid with a domain error.
type ValidationResult struct {
	Err   error // nil unless the request is invalid
	Minor bool  // subject is under 16 under the year-only policy
}

// Valid reports whether the request may proceed to verification.
func (r ValidationResult) Valid() bool { return r.Err == nil }

// Validate enforces structural preconditions on a check request before any
// verification is attempted. Rules run in order and the first failure wins.
// Pure function; now is injected for deterministic testing.
func Validate(req CheckRequest, now time.Time) ValidationResult {
	if len(req.ShareCode) != ShareCodeLength {
		return ValidationResult{Err: dErrors.New(dErrors.CodeInvalidShareCode, MsgInvalidShareCode)}
	}

	var hasLetter, hasDigit bool
	for _, r := range req.ShareCode {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return ValidationResult{Err: dErrors.New(dErrors.CodeInvalidShareCode, MsgInvalidShareCode)}
	}

	dob, err := time.Parse(DateLayout, req.DateOfBirth)
	if err != nil {
		return ValidationResult{Err: dErrors.New(dErrors.CodeInvalidDate, MsgInvalidDate)}
	}
	if dob.After(now) {
		return ValidationResult{Err: dErrors.New(dErrors.CodeFutureDateOfBirth, MsgFutureDOB)}
	}

	// Year-only age policy: month and day are deliberately ignored, so a
	// subject can be classified a year off around their birthday. This
	// matches the established behaviour of the checking service.
	if now.Year()-dob.Year() < minorAgeYears {
		return ValidationResult{Minor: true}
	}

	return ValidationResult{}
}
