package usecase

import (
	"fmt"
	"net/url"
	"strings"
)

// DefaultRedirect is where a login lands when no usable next target was supplied.
const DefaultRedirect = "/dashboard"

// ParseNextURL accepts only same-site relative paths. An empty value yields an empty
// target without error; anything else that is not a plain path yields ErrUnsafeRedirect.
func ParseNextURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}

	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return "", fmt.Errorf("%w: %q", ErrUnsafeRedirect, raw)
	}
	for _, r := range raw {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: control character in target", ErrUnsafeRedirect)
		}
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnsafeRedirect, err)
	}
	if u.Scheme != "" || u.Host != "" || u.User != nil {
		return "", fmt.Errorf("%w: %q", ErrUnsafeRedirect, raw)
	}

	return u.RequestURI(), nil
}

// resolveRedirect returns the target to use and the reason a supplied target was refused.
func resolveRedirect(next string) (string, error) {
	target, err := ParseNextURL(next)
	if err != nil {
		return DefaultRedirect, err
	}
	if target == "" {
		return DefaultRedirect, nil
	}
	return target, nil
}
