package httpapi

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/R3E-Network/cachegrid/infrastructure/cache"
	"github.com/R3E-Network/cachegrid/infrastructure/httputil"
)

// verifyCacheTTL bounds how long a verified token's owner is trusted without
// re-parsing the JWT, short enough that a revoked secret is only honored for
// a brief window after rotation.
const verifyCacheTTL = 30 * time.Second

// ownerClaims is the minimal claim set the control surface trusts: who is
// calling, carried through to provisioning.CreateInstance/DeleteInstance's
// owner checks (spec §4.8's case-insensitive owner match).
type ownerClaims struct {
	Owner string `json:"owner"`
	jwt.RegisteredClaims
}

// authenticator issues and verifies HMAC-signed bearer tokens. It is
// deliberately simpler than the teacher's RSA-based ServiceAuthMiddleware
// (infrastructure/marble service auth): the control surface has one claim
// that matters, the caller's owner id, not a service-to-service identity
// chain, so a single shared HMAC secret is enough (see DESIGN.md).
type authenticator struct {
	secret []byte
	cache  *cache.TokenCache
}

func newAuthenticator(secret string) *authenticator {
	return &authenticator{
		secret: []byte(secret),
		cache:  cache.NewTokenCache(cache.DefaultConfig()),
	}
}

// issue mints a bearer token for owner. Only tests call it; no HTTP route
// issues tokens.
func (a *authenticator) issue(owner string) (string, error) {
	claims := ownerClaims{Owner: owner}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(a.secret)
}

// verify checks raw's signature and returns its owner claim, short-circuiting
// on a cache hit so a busy caller isn't re-parsing the same JWT on every
// request.
func (a *authenticator) verify(raw string) (string, error) {
	if v, ok := a.cache.GetToken(raw); ok {
		return v.(string), nil
	}
	claims := &ownerClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return a.secret, nil
	})
	if err != nil || !token.Valid {
		return "", jwt.ErrTokenSignatureInvalid
	}
	a.cache.SetToken(raw, claims.Owner, verifyCacheTTL)
	return claims.Owner, nil
}

const ownerContextKey = "cachegrid.owner"

// middleware gates a route group behind a valid "Authorization: Bearer
// <token>" header, unless no JWT secret was configured — in which case the
// control surface trusts the caller-supplied owner field outright, matching
// a single-node/dev deployment with no separate identity provider.
func (a *authenticator) middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if len(a.secret) == 0 {
			c.Next()
			return
		}
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token", nil)
			c.Abort()
			return
		}
		owner, err := a.verify(strings.TrimPrefix(header, "Bearer "))
		if err != nil {
			httputil.WriteErrorResponse(c.Writer, c.Request, http.StatusUnauthorized, "UNAUTHORIZED", "invalid bearer token", nil)
			c.Abort()
			return
		}
		c.Set(ownerContextKey, owner)
		c.Next()
	}
}

// callerOwner resolves the authenticated owner, falling back to the
// request body's own Owner field when no JWT secret is configured.
func callerOwner(c *gin.Context, bodyOwner string) string {
	if v, ok := c.Get(ownerContextKey); ok {
		return v.(string)
	}
	return bodyOwner
}
