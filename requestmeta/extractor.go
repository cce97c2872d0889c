// Package requestmeta extracts the typed request-identity record consumed
// by the signal collectors and persisted alongside every submission.
package requestmeta

import (
	"hash/fnv"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/caasmo/fraudgate/db"
)

var excludedHeaders = map[string]bool{
	"cookie":        true,
	"authorization": true,
}

// clientHintPrefix/fetchMetadataPrefix are the header prefixes trimmed off
// to form the ClientHints/FetchMetadata keys in RequestMetadata.
const (
	clientHintPrefix   = "sec-ch-ua"
	fetchMetadataPrefix = "sec-fetch-"
)

// Extract builds a RequestMetadata record from r. RemoteIP is never empty.
func Extract(r *http.Request) db.RequestMetadata {
	m := db.RequestMetadata{
		RemoteIP:      remoteIP(r),
		ClientHints:   map[string]string{},
		FetchMetadata: map[string]string{},
		Headers:       map[string]string{},
		UserAgent:     r.Header.Get("User-Agent"),
	}

	applyGeo(r, &m)
	applyNetwork(r, &m)
	applyBotManagement(r, &m)

	for name := range r.Header {
		lower := strings.ToLower(name)
		value := r.Header.Get(name)

		switch {
		case lower == clientHintPrefix || strings.HasPrefix(lower, clientHintPrefix+"-"):
			key := strings.TrimPrefix(strings.TrimPrefix(lower, clientHintPrefix), "-")
			if key == "" {
				key = "ua"
			}
			m.ClientHints[key] = value
		case strings.HasPrefix(lower, fetchMetadataPrefix):
			m.FetchMetadata[strings.TrimPrefix(lower, fetchMetadataPrefix)] = value
		}

		if !excludedHeaders[lower] {
			m.Headers[lower] = value
		}
	}

	m.HeaderFingerprint = fingerprint(m.Headers)
	return m
}

func remoteIP(r *http.Request) string {
	if v := r.Header.Get("Cf-Connecting-Ip"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Real-Ip"); v != "" {
		return v
	}
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		parts := strings.Split(v, ",")
		return strings.TrimSpace(parts[0])
	}
	return "0.0.0.0"
}

func applyGeo(r *http.Request, m *db.RequestMetadata) {
	h := r.Header
	m.Country = h.Get("Cf-Ipcountry")
	m.Region = h.Get("X-Geo-Region")
	m.City = h.Get("X-Geo-City")
	m.PostalCode = h.Get("X-Geo-Postal-Code")
	m.Timezone = h.Get("X-Geo-Timezone")
	m.Continent = h.Get("X-Geo-Continent")
	m.IsEUCountry = h.Get("X-Geo-Is-Eu-Country") == "1" || strings.EqualFold(h.Get("X-Geo-Is-Eu-Country"), "true")

	if v, ok := parseFloat(h.Get("X-Geo-Latitude")); ok {
		m.Latitude = &v
	}
	if v, ok := parseFloat(h.Get("X-Geo-Longitude")); ok {
		m.Longitude = &v
	}
}

func applyNetwork(r *http.Request, m *db.RequestMetadata) {
	h := r.Header
	m.ASOrg = h.Get("X-Network-As-Org")
	m.Colo = h.Get("X-Network-Colo")
	m.HTTPProtocol = h.Get("X-Network-Http-Protocol")
	m.TLSVersion = h.Get("X-Network-Tls-Version")
	m.TLSCipher = h.Get("X-Network-Tls-Cipher")
	m.TLSClientExtensionHash = h.Get("X-Network-Tls-Client-Extension-Hash")

	if v, ok := parseInt(h.Get("X-Network-Asn")); ok {
		m.ASN = &v
	}
	if v, ok := parseFloat(h.Get("X-Network-Client-Tcp-Rtt-Ms")); ok {
		m.ClientTCPRTTMs = &v
	}
	if v, ok := parseInt(h.Get("X-Network-Tls-Client-Hello-Length")); ok {
		m.TLSClientHelloLength = &v
	}
}

func applyBotManagement(r *http.Request, m *db.RequestMetadata) {
	h := r.Header
	m.VerifiedBot = strings.EqualFold(h.Get("X-Bot-Verified"), "true")
	m.JSDetectionPassed = strings.EqualFold(h.Get("X-Bot-Js-Detection-Passed"), "true")
	m.JA3Hash = h.Get("X-Bot-Ja3-Hash")
	m.JA4 = h.Get("X-Bot-Ja4")
	m.DeviceType = h.Get("X-Bot-Device-Type")

	if ids := h.Get("X-Bot-Detection-Ids"); ids != "" {
		m.DetectionIDs = strings.Split(ids, ",")
	}
	if v, ok := parseInt(h.Get("X-Bot-Score")); ok {
		vi := int(v)
		m.BotScore = &vi
	}
	if v, ok := parseInt(h.Get("X-Bot-Client-Trust-Score")); ok {
		vi := int(v)
		m.ClientTrustScore = &vi
	}
	if v, ok := parseFloat(h.Get("X-Bot-Ja4-Ips-Quantile-1h")); ok {
		m.JA4Signals.IPsQuantile1h = &v
	}
	if v, ok := parseFloat(h.Get("X-Bot-Ja4-Reqs-Quantile-1h")); ok {
		m.JA4Signals.ReqsQuantile1h = &v
	}
}

func parseFloat(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	return v, err == nil
}

func parseInt(s string) (int64, bool) {
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(s, 10, 64)
	return v, err == nil
}

// fingerprint computes the FNV-1a hash of the sorted, lowercase
// "key:value" header set joined by "|". Invariant under reorder and
// header-name case changes.
func fingerprint(headers map[string]string) string {
	pairs := make([]string, 0, len(headers))
	for k, v := range headers {
		pairs = append(pairs, strings.ToLower(k)+":"+v)
	}
	sort.Strings(pairs)

	h := fnv.New64a()
	h.Write([]byte(strings.Join(pairs, "|")))
	return strconv.FormatUint(h.Sum64(), 16)
}
