package check

import (
	dErrors "rtw-gateway/pkg/domain-errors"
)

const (
	// flatTimeLayout is the fixed pattern for the check timestamp in exports.
	flatTimeLayout = "2006-01-02 15:04:05"

	// NoExpiry is the sentinel exported for records without an expiry date.
	NoExpiry = "N/A"
)

// FlatRecordFields is the stable column order for tabular exports.
var FlatRecordFields = []string{
	"name",
	"date_of_birth",
	"nationality",
	"immigration_status",
	"expiry_date",
	"restrictions",
	"share_code",
	"check_date",
	"check_performed_by",
	"employer_name",
	"organization",
	"start_date",
	"details",
}

// FlatRecord projects a Success or Warning outcome into a field-name to
// value mapping for delimited-text or report export. Pure transform: no
// engine state, no side effects. Every SubjectRecord field is present in the
// result; an absent expiry date becomes the NoExpiry sentinel.
//
// Error outcomes and minor-subject warnings carry no record and cannot be
// exported.
func FlatRecord(outcome *CheckOutcome) (map[string]string, error) {
	if outcome == nil || outcome.Record == nil {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "outcome has no subject record to export")
	}

	rec := outcome.Record

	expiry := NoExpiry
	if rec.ExpiryDate != nil {
		expiry = rec.ExpiryDate.Format(DateLayout)
	}

	return map[string]string{
		"name":               rec.Name,
		"date_of_birth":      rec.DateOfBirth,
		"nationality":        rec.Nationality,
		"immigration_status": rec.ImmigrationStatus,
		"expiry_date":        expiry,
		"restrictions":       rec.Restrictions,
		"share_code":         rec.ShareCode,
		"check_date":         rec.CheckedAt.Format(flatTimeLayout),
		"check_performed_by": rec.CheckedBy,
		"employer_name":      rec.EmployerName,
		"organization":       rec.Organization,
		"start_date":         rec.StartDate,
		"details":            rec.Details,
	}, nil
}
