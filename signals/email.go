package signals

import (
	"github.com/caasmo/fraudgate/crypto"
)

// CollectEmail calls the external reputation service and scales its
// [0,1] risk score to [0,100]. On service failure it fails open: no
// signal, only a warning. The email is never logged in cleartext.
func CollectEmail(client EmailReputationClient, cfg EmailConfig, email string, headers map[string]string) EmailSignal {
	if client == nil {
		return EmailSignal{Present: false}
	}

	resp, err := client.Validate(EmailReputationRequest{
		Email:    email,
		Consumer: cfg.Consumer,
		Flow:     cfg.Flow,
		Headers:  headers,
	})
	if err != nil {
		return EmailSignal{
			Present:  false,
			Warnings: []string{"email reputation lookup failed for " + crypto.HashEmail(email) + ": " + err.Error()},
		}
	}

	return EmailSignal{
		Present:   true,
		RiskScore: resp.RiskScore * 100,
		Decision:  resp.Decision,
		Blocked:   resp.Decision == DecisionBlock,
		Signals:   resp.Signals,
	}
}
