package config

import "log"

// MustRequired stops the process when a value the server cannot start without is missing.
func (c Config) MustRequired() {
	MustNonEmpty(c.DatabaseURL, "DATABASE_URL")
	MustNonEmptyBytes(c.JWTKey, "JWT_KEY")
	MustNonEmpty(c.JWTIssuer, "JWT_ISSUER")
	MustNonEmpty(c.JWTAudience, "JWT_AUDIENCE")
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}
