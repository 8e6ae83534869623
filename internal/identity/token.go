package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "ashram/pkg/domain"
	dErrors "ashram/pkg/domain-errors"
)

// Token purposes. Access tokens resolve sessions; verify tokens confirm a
// registered email address. A token minted for one purpose is rejected for
// the other.
const (
	TokenPurposeAccess = "access"
	TokenPurposeVerify = "email_verify"
)

// Claims are the JWT claims carried by gateway-issued tokens.
type Claims struct {
	UserID    string `json:"user_id"`
	SessionID string `json:"session_id,omitempty"`
	Email     string `json:"email"`
	Purpose   string `json:"purpose"`
	jwt.RegisteredClaims
}

// JWTService mints and validates HS256 tokens for the local provider.
type JWTService struct {
	signingKey []byte
	issuer     string
	audience   string
}

func NewJWTService(signingKey, issuer, audience string) *JWTService {
	return &JWTService{
		signingKey: []byte(signingKey),
		issuer:     issuer,
		audience:   audience,
	}
}

// MintAccessToken signs an access token bound to a session.
func (s *JWTService) MintAccessToken(userID id.UserID, sessionID id.SessionID, email string, expiresIn time.Duration) (string, error) {
	return s.mint(Claims{
		UserID:    userID.String(),
		SessionID: sessionID.String(),
		Email:     email,
		Purpose:   TokenPurposeAccess,
	}, expiresIn)
}

// MintVerifyToken signs an email verification token. No session is attached.
func (s *JWTService) MintVerifyToken(userID id.UserID, email string, expiresIn time.Duration) (string, error) {
	return s.mint(Claims{
		UserID:  userID.String(),
		Email:   email,
		Purpose: TokenPurposeVerify,
	}, expiresIn)
}

func (s *JWTService) mint(claims Claims, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
		IssuedAt:  jwt.NewNumericDate(now),
		Issuer:    s.issuer,
		Audience:  []string{s.audience},
		ID:        uuid.NewString(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingKey)
}

// ValidateToken parses and verifies a token for the expected purpose.
// Errors: CodeUnauthorized for expired, malformed, or wrong-purpose tokens.
func (s *JWTService) ValidateToken(tokenString, purpose string) (*Claims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenUnverifiable
		}
		return s.signingKey, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, dErrors.New(dErrors.CodeUnauthorized, "token has expired")
		}
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}
	if !parsed.Valid {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token")
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "invalid token claims")
	}
	if claims.Purpose != purpose {
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token purpose mismatch")
	}
	return claims, nil
}
