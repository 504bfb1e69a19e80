package orchestrator

import "fmt"

// BudgetError aborts a production run before any remote call or item
// mutation. It is distinguishable from an empty run: zero eligible items
// is a successful no-op, not an error.
type BudgetError struct {
	Required int
	Balance  int
}

func (e *BudgetError) Error() string {
	return fmt.Sprintf("insufficient tokens: need %d, have %d", e.Required, e.Balance)
}

// EligibilityError blocks video production for a single item. The check
// fails closed: an unverifiable product is ineligible.
type EligibilityError struct {
	Reason string
}

func (e *EligibilityError) Error() string {
	if e.Reason == "" {
		return "product is not eligible for video production"
	}
	return "product is not eligible for video production: " + e.Reason
}

// PlanFeatureError rejects an operation the active plan does not include.
type PlanFeatureError struct {
	Feature string
}

func (e *PlanFeatureError) Error() string {
	return "active plan does not include " + e.Feature
}
