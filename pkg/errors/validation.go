package errors

import (
	"net/url"
	"strings"
)

// ValidatePrompt validates a page description. The only rule is that it
// cannot be empty or whitespace only; length is bounded by the transport.
func ValidatePrompt(prompt string) error {
	if strings.TrimSpace(prompt) == "" {
		return New(ErrCodeInvalidInput, "prompt cannot be empty")
	}
	return nil
}

// ValidateURL validates a URL string for safety.
// It ensures the URL has a safe scheme (http or https) and a host.
func ValidateURL(rawURL string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}

	if !strings.HasPrefix(rawURL, "http://") && !strings.HasPrefix(rawURL, "https://") {
		return New(ErrCodeInvalidInput, "URL must use http or https scheme")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if u.Host == "" {
		return New(ErrCodeInvalidInput, "URL must include a host")
	}

	return nil
}

// ValidateImageURL checks that rawURL parses as an absolute URL. Any scheme
// is accepted, including data: URLs.
func ValidateImageURL(rawURL string) error {
	if strings.TrimSpace(rawURL) == "" {
		return New(ErrCodeInvalidInput, "URL cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return Wrap(ErrCodeInvalidInput, err, "invalid URL %q", rawURL)
	}
	if !u.IsAbs() {
		return New(ErrCodeInvalidInput, "URL %q is not absolute", rawURL)
	}
	return nil
}

// ValidateImageURLs validates every reference image URL of a request.
func ValidateImageURLs(urls []string) error {
	for i, u := range urls {
		if err := ValidateImageURL(u); err != nil {
			return Wrap(ErrCodeInvalidInput, err, "image %d", i+1)
		}
	}
	return nil
}
