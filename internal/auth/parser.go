package auth

import (
	"net/http"
	"strings"
)

// GetAuthType determines the authentication type from a request.
func GetAuthType(r *http.Request) AuthType {
	header := r.Header.Get(AuthorizationHeader)
	if header == "" {
		return AuthTypeAnonymous
	}
	if _, err := ParseBearer(header); err != nil {
		return AuthTypeUnknown
	}
	return AuthTypeBearer
}

// ParseBearer extracts the token from an "Authorization: Bearer <token>" value.
// The scheme is matched case-insensitively.
func ParseBearer(header string) (string, error) {
	if header == "" {
		return "", ErrMissingAuthorizationHeader
	}

	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, BearerScheme) {
		return "", ErrInvalidAuthorizationHeader
	}

	token = strings.TrimSpace(token)
	if token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrInvalidAuthorizationHeader
	}
	return token, nil
}
