package contextkeys

// contextKey is an unexported type to prevent collisions with context keys
// defined in other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "buildmarket context key " + string(c)
}

// ClaimsKey carries the authenticated token claims for the current request.
const ClaimsKey = contextKey("claims")

// UserIDKey is the key for the authenticated user's uid in context.Context.
const UserIDKey = contextKey("userID")

// RequestIDKey is the key for the request correlation id.
const RequestIDKey = contextKey("requestID")

// ComponentKey is the key for the emitting component name.
const ComponentKey = contextKey("component")

// OperationKey is the key for the current gateway operation name.
const OperationKey = contextKey("operation")
