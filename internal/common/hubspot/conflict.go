package hubspot

import "regexp"

// The CRM reports a uniqueness conflict on the email property through a
// free-text message carrying the pre-existing record's ID. This coupling to
// the vendor's error string format is brittle, so the extraction is isolated
// here with a not-found result instead of an error.
var existingIDPattern = regexp.MustCompile(`Existing ID: (\d+)`)

// ParseExistingID extracts the existing contact ID from a conflict message.
// Returns false when the message does not match the known format.
func ParseExistingID(message string) (string, bool) {
	match := existingIDPattern.FindStringSubmatch(message)
	if len(match) != 2 {
		return "", false
	}
	return match[1], true
}
