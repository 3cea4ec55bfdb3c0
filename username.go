package govauth

import (
	"net/mail"
	"regexp"
	"strings"
)

var usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

var defaultUsernameBlacklist = []string{
	"admin",
	"administrator",
	"moderator",
	"polkassembly",
	"polkadot",
	"kusama",
	"parity",
	"web3foundation",
	"official",
	"support",
	"superuser",
	"root",
}

// validateUsername checks shape first and the blacklist second, so a
// malformed name is InvalidParams and a reserved one is Forbidden.
func (e *Engine) validateUsername(username string) error {
	cfg := e.config.Username
	if len(username) < cfg.MinLength || len(username) > cfg.MaxLength {
		return invalidParams("username must be between %d and %d characters", cfg.MinLength, cfg.MaxLength)
	}
	if !usernameRegex.MatchString(username) {
		return invalidParams("username may only contain letters, numbers, '_' and '-'")
	}
	if isBlacklisted(username, cfg.Blacklist) {
		e.metricInc(MetricUsernameBlacklisted)
		return ErrUsernameBlacklisted
	}
	return nil
}

func isBlacklisted(username string, blacklist []string) bool {
	lower := strings.ToLower(username)
	for _, word := range blacklist {
		word = strings.ToLower(strings.TrimSpace(word))
		if word != "" && strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

func normalizeEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", invalidParams("invalid email address")
	}
	return email, nil
}
