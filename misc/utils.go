package misc

import (
	"strings"
)

func TrimEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
