package httpapi

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/MarkoPoloResearchLab/savings/pkg/ledger"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	principalContextKey = "principal"
	bearerPrefix        = "Bearer "
)

var errMissingBearer = errors.New("missing bearer token")

// Claims is the token payload issued by the auth service.
type Claims struct {
	UserID      int64  `json:"id"`
	Email       string `json:"email"`
	AccountType string `json:"account_type"`
	jwt.RegisteredClaims
}

type tokenVerifier struct {
	secret []byte
	parser *jwt.Parser
}

func newTokenVerifier(secret string, issuer string) *tokenVerifier {
	options := []jwt.ParserOption{jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()})}
	if issuer != "" {
		options = append(options, jwt.WithIssuer(issuer))
	}
	return &tokenVerifier{secret: []byte(secret), parser: jwt.NewParser(options...)}
}

func (verifier *tokenVerifier) principal(header string) (ledger.Principal, error) {
	if !strings.HasPrefix(header, bearerPrefix) {
		return ledger.Principal{}, errMissingBearer
	}
	raw := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
	if raw == "" {
		return ledger.Principal{}, errMissingBearer
	}
	claims := &Claims{}
	if _, err := verifier.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return verifier.secret, nil
	}); err != nil {
		return ledger.Principal{}, err
	}
	userID, err := ledger.NewUserID(claims.UserID)
	if err != nil {
		return ledger.Principal{}, fmt.Errorf("token subject: %w", err)
	}
	role, err := ledger.ParseRole(claims.AccountType)
	if err != nil {
		return ledger.Principal{}, fmt.Errorf("token account type: %w", err)
	}
	return ledger.Principal{UserID: userID, Email: claims.Email, Role: role}, nil
}

// middleware rejects requests without a valid bearer token and stores the principal.
func (verifier *tokenVerifier) middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		principal, err := verifier.principal(ctx.GetHeader("Authorization"))
		if err != nil {
			ctx.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse(codeUnauthorized, "missing or invalid token"))
			return
		}
		ctx.Set(principalContextKey, principal)
		ctx.Next()
	}
}

func getPrincipal(ctx *gin.Context) ledger.Principal {
	value, ok := ctx.Get(principalContextKey)
	if !ok {
		return ledger.Principal{}
	}
	principal, _ := value.(ledger.Principal)
	return principal
}
