package captcha

import "github.com/caasmo/fraudgate/crypto"

// Bypass fabricates a passing Result with a unique ephemeral id, used
// when ALLOW_TESTING_BYPASS is enabled and the request carries a
// matching operator API key (spec §4.7 "Testing bypass").
func Bypass() Result {
	return Result{
		Valid:       true,
		EphemeralID: "bypass_" + crypto.GenerateSecureToken(16),
	}
}
