package auth

import (
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"classattend/internal/account"
	"classattend/internal/apperr"
)

const principalKey = "principal"

// Gate validates bearer tokens and enforces per-route role allowlists.
// It keeps no server-side state, so a token stays valid until it expires.
type Gate struct {
	tokens *Tokens
}

// NewGate creates an access gate backed by tokens.
func NewGate(tokens *Tokens) *Gate {
	return &Gate{tokens: tokens}
}

// Authorize checks an Authorization header value against roles.
// An empty roles list admits any authenticated user.
func (g *Gate) Authorize(header string, roles ...account.Role) (Principal, error) {
	if header == "" {
		return Principal{}, apperr.ErrMissingToken
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return Principal{}, apperr.ErrMalformedToken
	}
	claims, err := g.tokens.Parse(parts[1])
	if err != nil {
		return Principal{}, err
	}
	p := claims.Principal()
	if len(roles) > 0 && !slices.Contains(roles, p.Role) {
		return Principal{}, apperr.ErrForbidden
	}
	return p, nil
}

// Require returns gin middleware that admits only the given roles.
func (g *Gate) Require(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := g.Authorize(c.GetHeader("Authorization"), roles...)
		if err != nil {
			c.AbortWithStatusJSON(apperr.Status(err), gin.H{"error": apperr.Message(err)})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// PrincipalFrom returns the principal stored by Require.
func PrincipalFrom(c *gin.Context) (Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return Principal{}, false
	}
	p, ok := v.(Principal)
	return p, ok
}

// AllowRoles restricts a route that already sits behind Require to the given roles.
func AllowRoles(roles ...account.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := PrincipalFrom(c)
		if !ok {
			c.AbortWithStatusJSON(apperr.Status(apperr.ErrMissingToken), gin.H{"error": apperr.Message(apperr.ErrMissingToken)})
			return
		}
		if !slices.Contains(roles, p.Role) {
			c.AbortWithStatusJSON(apperr.Status(apperr.ErrForbidden), gin.H{"error": apperr.Message(apperr.ErrForbidden)})
			return
		}
		c.Next()
	}
}
