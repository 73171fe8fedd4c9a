package messaging

import (
	"strings"

	"mentorlink/internal/utils"
)

const keySeparator = "_"

// ConversationKey derives the identity of the thread between a and b. The
// pair is sorted first, so either participant computes the same key.
func ConversationKey(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + keySeparator + b
}

// Participants returns the pair of a and b in key order.
func Participants(a, b string) []string {
	if b < a {
		a, b = b, a
	}
	return []string{a, b}
}

// ValidateAccountID rejects ids that cannot be used as a key half or as a
// document field name.
func ValidateAccountID(id, field string) error {
	if strings.TrimSpace(id) == "" {
		return utils.NewValidationError(field + " is required")
	}
	if strings.ContainsAny(id, ".$"+keySeparator) {
		return utils.NewValidationError("invalid " + field)
	}
	return nil
}

func validatePair(self, other, otherField string) error {
	if err := ValidateAccountID(self, "user id"); err != nil {
		return err
	}
	if err := ValidateAccountID(other, otherField); err != nil {
		return err
	}
	if self == other {
		return utils.NewValidationError("You cannot message yourself")
	}
	return nil
}
