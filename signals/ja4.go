package signals

import (
	"net/netip"

	"github.com/caasmo/fraudgate/db"
)

// ja4Network canonicalizes ip for JA4 Layer A clustering: IPv4 addresses
// compare exact, IPv6 addresses compare on their /64 prefix. Canonicalizes
// first (net/netip normalizes textual forms) so "::1" and
// "0:0:0:0:0:0:0:1" are recognized as the same network.
func ja4Network(ip string) string {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return ip
	}
	if addr.Is4() || addr.Is4In6() {
		return addr.String()
	}
	prefix, err := addr.Prefix(64)
	if err != nil {
		return addr.String()
	}
	return prefix.String()
}

// CollectJA4 runs the three layered session-hopping analyses on ja4 and
// combines them into a raw 0..230 score. Returns a neutral signal when
// ja4 is absent.
func CollectJA4(deps Deps, cfg JA4Config, ja4, ip string, ja4Signals db.JA4Signals) JA4Signal {
	if ja4 == "" {
		return JA4Signal{Present: false}
	}

	layerAKey := ja4 + "|" + ja4Network(ip)
	layerACount := int(deps.JA4LayerA.Observe(layerAKey))
	layerBCount := int(deps.JA4LayerB.Observe(ja4))
	layerCCount := int(deps.JA4LayerC.Observe(ja4))

	type layer struct {
		name      JA4Detection
		count     int
		window    bool // true if within the velocity-threshold window (approximated: layer B/rapid global implies high velocity)
	}
	layers := []layer{
		{JA4IPClustering, layerACount, false},
		{JA4RapidGlobal, layerBCount, true},
		{JA4ExtendedGlobal, layerCCount, false},
	}

	var (
		score        float64
		anyTwoPlus   bool
		triggerLayer JA4Detection
		maxCount     int
	)
	for _, l := range layers {
		if l.count >= 2 {
			anyTwoPlus = true
			if l.count > maxCount {
				maxCount = l.count
				triggerLayer = l.name
			}
		}
	}

	if anyTwoPlus {
		score += 80
	}
	// Layer B (rapid global) firing with count >= 2 stands in for "time
	// span < velocityThresholdMinutes"; no time span is measured. cfg's
	// window and velocity-threshold fields are not read here: each
	// tracker's window is fixed when it is built, and setup builds every
	// tracker with the same one-hour window, so Layers B and C count the
	// same key over the same window.
	if layerBCount >= 2 {
		score += 60
	}
	if ja4Signals.IPsQuantile1h != nil && *ja4Signals.IPsQuantile1h > cfg.IPsQuantileThreshold && maxCount >= 2 {
		score += 50
	}
	if ja4Signals.ReqsQuantile1h != nil && *ja4Signals.ReqsQuantile1h > cfg.ReqsQuantileThreshold && maxCount >= 2 {
		score += 40
	}

	var warnings []string
	if anyTwoPlus {
		warnings = append(warnings, "ja4 fingerprint observed across multiple ephemeral ids")
	}

	if triggerLayer == "" {
		triggerLayer = JA4IPClustering
	}

	return JA4Signal{
		Present:      true,
		RawScore:     score,
		Detection:    triggerLayer,
		TriggerLayer: string(triggerLayer),
		Warnings:     warnings,
	}
}
