package auth

import (
	"errors"
	"fmt"
	"strings"
	"unicode"
)

// MaxUsernameLength bounds usernames accepted at the handshake.
const MaxUsernameLength = 32

var (
	// ErrTokenRequired is returned when tokens are enabled but none was presented.
	ErrTokenRequired = errors.New("token required")
	// ErrInvalidToken is returned when a presented token does not validate.
	ErrInvalidToken = errors.New("invalid token")
	// ErrInvalidUsername is returned when username doesn't meet constraints.
	ErrInvalidUsername = errors.New("invalid username")
)

// Service resolves the username a connection speaks for.
type Service struct {
	jwtConfig *JWTConfig
	guestName func() string
}

// NewService creates an identity service. A nil or secretless jwtConfig
// accepts self-declared usernames; guestName fills in when none is given.
func NewService(jwtConfig *JWTConfig, guestName func() string) *Service {
	return &Service{
		jwtConfig: jwtConfig,
		guestName: guestName,
	}
}

// TokensRequired reports whether handshakes must carry a token.
func (s *Service) TokensRequired() bool {
	return s.jwtConfig.Enabled()
}

// Identify returns the username for a handshake. With tokens enabled the
// token decides and the declared user is ignored.
func (s *Service) Identify(declared, token string) (string, error) {
	if s.jwtConfig.Enabled() {
		if token == "" {
			return "", ErrTokenRequired
		}
		claims, err := ValidateToken(s.jwtConfig, token)
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrInvalidToken, err)
		}
		return ValidateUsername(claims.Identity())
	}

	declared = strings.TrimSpace(declared)
	if declared == "" && s.guestName != nil {
		return s.guestName(), nil
	}
	return ValidateUsername(declared)
}

// ValidateUsername trims name and checks it is 1 to MaxUsernameLength
// characters without whitespace.
func ValidateUsername(name string) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" || len([]rune(name)) > MaxUsernameLength {
		return "", ErrInvalidUsername
	}
	if strings.IndexFunc(name, unicode.IsSpace) >= 0 {
		return "", ErrInvalidUsername
	}
	return name, nil
}
