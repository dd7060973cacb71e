package bypass

import (
	"net/http"
	"testing"
)

func headers(kv ...string) http.Header {
	h := http.Header{}
	for i := 0; i+1 < len(kv); i += 2 {
		h.Set(kv[i], kv[i+1])
	}
	return h
}

func TestDetectCloudflare(t *testing.T) {
	// Not blocked
	res := &Response{
		StatusCode: 200,
		Headers:    headers("Server", "nginx"),
		Body:       []byte("OK"),
	}
	if detected, _ := detectCloudflare(res); detected {
		t.Errorf("expected not detected")
	}

	// CF Server Header
	res = &Response{
		StatusCode: 403,
		Headers:    headers("Server", "cloudflare"),
		Body:       []byte("Access Denied"),
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by header")
	}

	// CF Body signature
	res = &Response{
		StatusCode: 503,
		Headers:    headers(),
		Body:       []byte("<html>... cf-turnstile ...</html>"),
	}
	if detected, src := detectCloudflare(res); !detected || src != "Cloudflare" {
		t.Errorf("expected Cloudflare detection by body")
	}
}

func TestDetectAkamai(t *testing.T) {
	res := &Response{
		StatusCode: 403,
		Headers:    headers("Server", "AkamaiGHost"),
		Body:       []byte(""),
	}
	if detected, src := detectAkamai(res); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by header")
	}

	res = &Response{
		StatusCode: 403,
		Headers:    headers(),
		Body:       []byte("Access Denied... Reference #123.456"),
	}
	if detected, src := detectAkamai(res); !detected || src != "Akamai" {
		t.Errorf("expected Akamai detection by body")
	}
}

func TestDetectDataDome(t *testing.T) {
	res := &Response{
		StatusCode: 403,
		Headers:    headers("X-DataDome", "1"),
		Body:       []byte(""),
	}
	if detected, src := detectDataDome(res); !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection by header")
	}

	res = &Response{
		StatusCode: 403,
		Headers:    headers(),
		Body:       []byte("script src='https://geo.captcha-delivery.com/...'"),
	}
	if detected, src := detectDataDome(res); !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection by body")
	}
}

func TestDetectPerimeterX(t *testing.T) {
	res := &Response{
		StatusCode: 403,
		Headers:    headers("X-Px-Captcha", "required"),
		Body:       []byte(""),
	}
	if detected, src := detectPerimeterX(res); !detected || src != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by header")
	}

	res = &Response{
		StatusCode: 403,
		Headers:    headers(),
		Body:       []byte("window._pxBlock = true;"),
	}
	if detected, src := detectPerimeterX(res); !detected || src != "PerimeterX" {
		t.Errorf("expected PerimeterX detection by body")
	}
}

func TestAnalyze(t *testing.T) {
	detectors := DefaultDetectors()

	res := &Response{
		StatusCode: 403,
		Headers:    headers("X-DataDome", "1"),
		Body:       []byte(""),
	}

	detected, src := Analyze(res, detectors)
	if !detected || src != "DataDome" {
		t.Errorf("expected DataDome detection, got %v, %q", detected, src)
	}

	resSafe := &Response{
		StatusCode: 200,
		Headers:    headers(),
		Body:       []byte("hello"),
	}

	detectedSafe, srcSafe := Analyze(resSafe, detectors)
	if detectedSafe || srcSafe != "" {
		t.Errorf("expected no detection for safe result, got %v, %q", detectedSafe, srcSafe)
	}

	if detected, src := Analyze(nil, detectors); detected || src != "" {
		t.Errorf("expected nil response to report no detection")
	}
}
