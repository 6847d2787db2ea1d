package service

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/jadhavharshh/ConnectX-sub001/internal/access"
	"github.com/jadhavharshh/ConnectX-sub001/internal/models"
	"github.com/jadhavharshh/ConnectX-sub001/pkg/config"
	appErrors "github.com/jadhavharshh/ConnectX-sub001/pkg/errors"
)

// AuthService validates externally issued identity tokens. No credentials
// are stored here: the identity provider mints the tokens, this service only
// verifies the shared-secret signature and normalizes the claims into a
// viewer context.
type AuthService struct {
	config config.JWTConfig
	logger *zap.Logger
}

// NewAuthService constructs an AuthService instance.
func NewAuthService(cfg config.JWTConfig, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{config: cfg, logger: logger}
}

// ValidateToken parses and validates an identity token returning the claims.
func (s *AuthService) ValidateToken(tokenString string) (*models.IdentityClaims, error) {
	options := []jwt.ParserOption{jwt.WithLeeway(s.config.Leeway)}
	if s.config.Issuer != "" {
		options = append(options, jwt.WithIssuer(s.config.Issuer))
	}

	token, err := jwt.ParseWithClaims(tokenString, &models.IdentityClaims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(s.config.Secret), nil
	}, options...)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid token")
	}

	claims, ok := token.Claims.(*models.IdentityClaims)
	if !ok || !token.Valid {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid token claims")
	}
	if claims.Subject == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "token carries no user identity")
	}

	return claims, nil
}

// ViewerFromClaims builds the normalized viewer context. A missing or
// unknown role claim yields the student role; year and division are only
// meaningful for students and are dropped for teachers.
func (s *AuthService) ViewerFromClaims(claims *models.IdentityClaims) models.ViewerContext {
	role := access.NormalizeRole(claims.Role)
	if role == models.RoleTeacher {
		return models.TeacherContext(claims.Subject)
	}
	return models.StudentContext(claims.Subject, claims.Year, claims.Division)
}
