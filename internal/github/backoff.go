package github

import "time"

// backoffStep is the base delay between upload attempts.
const backoffStep = 200 * time.Millisecond

// Backoff returns the delay to wait after a failed attempt (1-based).
// The delay grows linearly: 200ms after the first failure, 400ms after the
// second, and so on. Kept as a pure function so the policy is testable
// without any network or clock machinery.
func Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	return time.Duration(attempt) * backoffStep
}
