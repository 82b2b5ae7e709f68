package session

import "github.com/ITACHIDA/Standoutu-WorkSmart/internal/domain"

// Fixed per-field confidence scores reflecting field-extraction certainty.
const (
	confidenceFirstName = 0.95
	confidenceLastName  = 0.95
	confidenceEmail     = 0.98
	confidencePhone     = 0.90
)

// blockedFields are never auto-filled, regardless of profile content.
var blockedFields = []string{"eeo", "veteran_status", "disability"}

// ComputeFillPlan builds the immutable autofill snapshot from profile base
// info. Unset source fields are omitted from the filled set rather than
// filled with empty values. Secondary fields that carry a value but are not
// auto-filled land in the suggestions list for the operator.
func ComputeFillPlan(info domain.BaseInfo) *domain.FillPlan {
	plan := &domain.FillPlan{
		Filled:  make(map[string]domain.FillEntry),
		Blocked: append([]string(nil), blockedFields...),
	}

	if info.FirstName != "" {
		plan.Filled["first_name"] = domain.FillEntry{Value: info.FirstName, Confidence: confidenceFirstName}
	}
	if info.LastName != "" {
		plan.Filled["last_name"] = domain.FillEntry{Value: info.LastName, Confidence: confidenceLastName}
	}
	if info.Email != "" {
		plan.Filled["email"] = domain.FillEntry{Value: info.Email, Confidence: confidenceEmail}
	}
	if info.Phone != "" {
		plan.Filled["phone"] = domain.FillEntry{Value: info.Phone, Confidence: confidencePhone}
	}

	if info.Location != "" {
		plan.Suggestions = append(plan.Suggestions, "location")
	}
	if info.LinkedIn != "" {
		plan.Suggestions = append(plan.Suggestions, "linkedin")
	}
	if info.Website != "" {
		plan.Suggestions = append(plan.Suggestions, "website")
	}

	return plan
}
