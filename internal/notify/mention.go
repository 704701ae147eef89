package notify

import (
	"regexp"

	"teamchat-service/internal/models"
)

// mentionPattern compiles a case-insensitive matcher for "@<name>". The name
// comes from user input, so regex metacharacters must be escaped before the
// pattern is built; an unescaped name is a correctness and DoS concern, not
// a stylistic one.
func mentionPattern(name string) (*regexp.Regexp, error) {
	return regexp.Compile(`(?i)@` + regexp.QuoteMeta(name))
}

// MentionsUser reports whether the body @-mentions the user by full display
// name or by first name. Matching is a substring match on the literal name
// token after "@"; no further word-boundary requirement applies.
func MentionsUser(body string, user models.User) bool {
	for _, name := range []string{user.DisplayName, user.FirstName()} {
		if name == "" {
			continue
		}
		pattern, err := mentionPattern(name)
		if err != nil {
			continue
		}
		if pattern.MatchString(body) {
			return true
		}
	}
	return false
}
