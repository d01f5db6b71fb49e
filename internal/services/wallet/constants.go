package wallet

// Wallet statuses
const (
	StatusActive = "active"
	StatusLocked = "locked"
)

// Default configuration values
const (
	DefaultCurrency = "NGN"

	// saveAttempts bounds the transparent reload-and-retry loop around the
	// repository's version-checked write.
	saveAttempts = 3
)
