package claims

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/dukerupert/berrybridge/internal/model"
)

var ErrInvalidToken = errors.New("invalid token")

// DefaultStudent is the identity assumed when a token cannot be read.
func DefaultStudent() model.User {
	return model.User{
		Name: "Student",
		Role: model.RoleStudent,
	}
}

// ExtractUser reads display claims from a bearer token without checking its
// signature. Any decoding failure yields DefaultStudent; it never errors.
// The result is never marked Verified.
func ExtractUser(token string) model.User {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return DefaultStudent()
	}
	return userFromClaims(mc)
}

// ExpiresAt returns the unverified exp claim of a token.
func ExpiresAt(token string) (time.Time, bool) {
	mc := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, mc); err != nil {
		return time.Time{}, false
	}
	exp, err := mc.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// Verifier checks HS256 signatures and expiry before trusting claims.
type Verifier struct {
	secret []byte
	parser *jwt.Parser
}

func NewVerifier(secret string) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

// Verify returns the user named by a token signed with the shared secret.
func (v *Verifier) Verify(token string) (model.User, error) {
	mc := jwt.MapClaims{}
	_, err := v.parser.ParseWithClaims(token, mc, func(*jwt.Token) (any, error) {
		return v.secret, nil
	})
	if err != nil {
		return model.User{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	u := userFromClaims(mc)
	u.Verified = true
	return u, nil
}

func userFromClaims(mc jwt.MapClaims) model.User {
	def := DefaultStudent()

	role := model.Role(stringClaim(mc, "role"))
	if !role.Valid() {
		role = def.Role
	}
	name := stringClaim(mc, "name")
	if name == "" {
		name = def.Name
	}

	return model.User{
		ID:          stringClaim(mc, "id", "sub", "userId"),
		Email:       stringClaim(mc, "email"),
		Name:        name,
		Role:        role,
		Department:  stringClaim(mc, "department"),
		Year:        stringClaim(mc, "year"),
		QRCode:      stringClaim(mc, "qrCode", "qr_code"),
		Subject:     stringClaim(mc, "subject"),
		CollegeName: stringClaim(mc, "collegeName", "college_name"),
	}
}

// stringClaim returns the first present key rendered as a string.
func stringClaim(mc jwt.MapClaims, keys ...string) string {
	for _, k := range keys {
		switch v := mc[k].(type) {
		case string:
			if v != "" {
				return v
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			return strconv.FormatBool(v)
		}
	}
	return ""
}
