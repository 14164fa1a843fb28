package constant

const (
	SESSION_STARTED    = "Session started successfully"
	SESSION_STOPPED    = "Session stopped successfully"
	SESSION_LOGGED_OUT = "Session logged out successfully"
	SESSION_DELETED    = "Session deleted successfully"
	TRIGGERS_RELOADED  = "Triggers reloaded successfully"

	CONTACT_IGNORED  = "Contact ignored successfully"
	CONTACT_RESTORED = "Contact restored successfully"
	CONTACTS_PURGED  = "Ignored contacts purged successfully"

	SESSION_NOT_FOUND  = "Session not found"
	INVALID_IDENTITY   = "Invalid session identity"
	CONNECTION_FAILED  = "Failed to establish connection"
	CONNECTION_TIMEOUT = "Timed out waiting for connection"
)
