package domain

// SessionStatus is the coarse lifecycle marker of a checkout session. It is
// stored as a typed field on the cart and set explicitly on every transition.
type SessionStatus string

const (
	StatusCreated          SessionStatus = "CREATED"
	StatusShippingRequired SessionStatus = "SHIPPING_REQUIRED"
	StatusCompleted        SessionStatus = "COMPLETED"
	StatusCancelled        SessionStatus = "CANCELLED"

	// StatusError is a response-only status emitted on failure paths.
	// It is never persisted on a cart.
	StatusError SessionStatus = "ERROR"
)

// transitions is the set of allowed persisted status transitions.
// CREATED and SHIPPING_REQUIRED can each complete or cancel; setting a
// shipping address ratchets CREATED to SHIPPING_REQUIRED with no way back.
var transitions = map[SessionStatus][]SessionStatus{
	StatusCreated:          {StatusShippingRequired, StatusCompleted, StatusCancelled},
	StatusShippingRequired: {StatusCompleted, StatusCancelled},
	StatusCompleted:        {},
	StatusCancelled:        {},
}

// Valid reports whether s is a persistable session status.
func (s SessionStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

// Terminal reports whether the status is final.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether moving from s to the given status is allowed.
// Re-setting the current status is always allowed.
func (s SessionStatus) CanTransition(to SessionStatus) bool {
	if s == to {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}
