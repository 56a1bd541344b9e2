package whatsapp

import (
	"strings"

	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow/types"
)

const groupSuffix = "@g.us"

// ResolveTarget maps an API receiver onto a wire JID. Group ids pass
// through unchanged; individual numbers are stripped of every non-digit
// character and addressed at the user server.
func ResolveTarget(receiver string, isGroup bool) (types.JID, error) {
	receiver = strings.TrimSpace(receiver)
	if receiver == "" {
		return types.EmptyJID, errors.New("empty receiver")
	}

	if strings.HasSuffix(receiver, groupSuffix) {
		return types.ParseJID(receiver)
	}
	if isGroup {
		return types.NewJID(receiver, types.GroupServer), nil
	}

	digits := stripNonDigits(receiver)
	if digits == "" {
		return types.EmptyJID, errors.New("receiver contains no digits")
	}
	return types.NewJID(digits, types.DefaultUserServer), nil
}

func stripNonDigits(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
