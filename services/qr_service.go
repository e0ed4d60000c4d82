package services

import (
	"meetup-server/utils/errors"
	"net/http"

	"github.com/golang-jwt/jwt/v5"
)

const qrPurpose = "meetup-invite"

// QRService issues the opaque token a partner scans to open a meetup. The
// token is an HS256 JWT without time claims, so the same meetup id always
// yields the same token.
type QRService struct {
	secret []byte
}

func NewQRService(secret string) *QRService {
	return &QRService{secret: []byte(secret)}
}

// GenerateQRCode returns the invite token for meetupID.
func (s *QRService) GenerateQRCode(meetupID string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"meetup_id": meetupID,
		"purpose":   qrPurpose,
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "TOKEN_ERROR", "failed to sign meetup token", http.StatusInternalServerError)
	}
	return signed, nil
}

// ResolveQRCode verifies a token produced by GenerateQRCode and returns the
// meetup id it carries.
func (s *QRService) ResolveQRCode(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.NewAPIError("INVALID_TOKEN", "Unexpected signing method", http.StatusUnauthorized)
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || !token.Valid {
		return "", errors.ErrInvalidToken
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", errors.ErrInvalidToken
	}
	if purpose, _ := claims["purpose"].(string); purpose != qrPurpose {
		return "", errors.ErrInvalidToken
	}
	meetupID, ok := claims["meetup_id"].(string)
	if !ok || meetupID == "" {
		return "", errors.ErrInvalidToken
	}
	return meetupID, nil
}
