package bypass

import (
	"bytes"
	"net/http"
	"strings"
)

// Response carries the parts of an HTTP response that detectors inspect.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// Detector examines a fetched response to determine if a bot protection
// mechanism blocked or challenged the request.
type Detector func(res *Response) (detected bool, source string)

// DefaultDetectors returns the standard list of bot protection detectors.
func DefaultDetectors() []Detector {
	return []Detector{
		detectCloudflare,
		detectAkamai,
		detectDataDome,
		detectPerimeterX,
	}
}

// Analyze runs the response through all provided detectors and returns whether
// any detection triggered along with the protection vendor that matched.
func Analyze(res *Response, detectors []Detector) (bool, string) {
	if res == nil {
		return false, ""
	}
	for _, d := range detectors {
		if detected, source := d(res); detected {
			return true, source
		}
	}
	return false, ""
}

// detectCloudflare looks for common Cloudflare challenge/block signatures.
func detectCloudflare(res *Response) (bool, string) {
	// Status codes 403 or 503 are common for CF challenges
	if res.StatusCode == http.StatusForbidden || res.StatusCode == http.StatusServiceUnavailable {
		// Check headers
		server := strings.ToLower(res.Headers.Get("Server"))
		if strings.Contains(server, "cloudflare") {
			return true, "Cloudflare"
		}

		// Check body signatures
		if bytes.Contains(res.Body, []byte("cf-browser-verification")) ||
			bytes.Contains(res.Body, []byte("cloudflare-nginx")) ||
			bytes.Contains(res.Body, []byte("cf-turnstile")) ||
			bytes.Contains(res.Body, []byte("Attention Required! | Cloudflare")) {
			return true, "Cloudflare"
		}
	}
	return false, ""
}

// detectAkamai looks for Akamai Bot Manager signatures.
func detectAkamai(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		server := strings.ToLower(res.Headers.Get("Server"))
		if strings.Contains(server, "akamai") {
			return true, "Akamai"
		}

		// Akamai often returns a generic "Reference #" block page
		if bytes.Contains(res.Body, []byte("Reference #")) && bytes.Contains(res.Body, []byte("Access Denied")) {
			return true, "Akamai"
		}
	}
	return false, ""
}

// detectDataDome looks for DataDome challenge/block signatures.
func detectDataDome(res *Response) (bool, string) {
	// DataDome often returns 403
	if res.StatusCode == http.StatusForbidden {
		server := strings.ToLower(res.Headers.Get("Server"))
		if strings.Contains(server, "datadome") {
			return true, "DataDome"
		}

		// Look for DataDome specific headers
		if res.Headers.Get("X-DataDome") != "" || res.Headers.Get("X-DataDome-Response") != "" {
			return true, "DataDome"
		}

		// Body signatures
		if bytes.Contains(res.Body, []byte("geo.captcha-delivery.com")) || bytes.Contains(res.Body, []byte("datadome")) {
			return true, "DataDome"
		}
	}
	return false, ""
}

// detectPerimeterX looks for PerimeterX (HUMAN) signatures.
func detectPerimeterX(res *Response) (bool, string) {
	if res.StatusCode == http.StatusForbidden {
		// Look for PX specific cookies or headers
		if res.Headers.Get("X-Px-Captcha") != "" {
			return true, "PerimeterX"
		}

		// Body signatures
		if bytes.Contains(res.Body, []byte("client.perimeterx.net")) ||
			bytes.Contains(res.Body, []byte("px-captcha")) ||
			bytes.Contains(res.Body, []byte("_pxBlock")) {
			return true, "PerimeterX"
		}
	}
	return false, ""
}
