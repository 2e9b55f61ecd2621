package services

import "time"

// Cache hash patterns
const (
	IDENTITY_HASH = "identity"
)

// Employee directory
const (
	identityTokenIssuer = "checklist"
	identityTokenTTL    = 5 * time.Minute
)
