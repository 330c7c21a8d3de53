package avatar

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

const gravatarBaseURL = "https://www.gravatar.com/avatar/"

// GravatarURL returns the Gravatar image URL for an email address.
// Unknown addresses render the identicon fallback.
func GravatarURL(email string) string {
	normalized := strings.ToLower(strings.TrimSpace(email))
	if normalized == "" {
		return ""
	}

	sum := sha256.Sum256([]byte(normalized))
	return gravatarBaseURL + hex.EncodeToString(sum[:]) + "?d=identicon&s=250"
}
