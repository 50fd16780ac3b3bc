package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thryve/staffing-api/internal/models"
	appErrors "github.com/thryve/staffing-api/pkg/errors"
)

type tokenValidatorStub struct {
	claims *models.JWTClaims
	err    error
	last   string
}

func (s *tokenValidatorStub) ValidateToken(tokenString string) (*models.JWTClaims, error) {
	s.last = tokenString
	if s.err != nil {
		return nil, s.err
	}
	return s.claims, nil
}

func jwtTestRouter(validator TokenValidator, extra ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handlers := append([]gin.HandlerFunc{JWT(validator)}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestJWTMissingHeader(t *testing.T) {
	r := jwtTestRouter(&tokenValidatorStub{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTMalformedHeader(t *testing.T) {
	r := jwtTestRouter(&tokenValidatorStub{})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Token abc")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestJWTInvalidToken(t *testing.T) {
	validator := &tokenValidatorStub{err: appErrors.ErrUnauthorized}
	r := jwtTestRouter(validator)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "bad-token", validator.last)
}

func TestJWTValidToken(t *testing.T) {
	validator := &tokenValidatorStub{
		claims: &models.JWTClaims{UserID: "user-1", Role: models.RoleInstructor, StudioID: "studio-1"},
	}
	r := jwtTestRouter(validator)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestRBACForbidsWrongRole(t *testing.T) {
	validator := &tokenValidatorStub{
		claims: &models.JWTClaims{UserID: "inst-1", Role: models.RoleInstructor, StudioID: "studio-1"},
	}
	r := jwtTestRouter(validator, RBAC(models.RoleMerchant))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestRBACAllowsListedRole(t *testing.T) {
	validator := &tokenValidatorStub{
		claims: &models.JWTClaims{UserID: "owner-1", Role: models.RoleMerchant, StudioID: "studio-1"},
	}
	r := jwtTestRouter(validator, RBAC(models.RoleMerchant))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
}

func TestAuditAttachesClientInfo(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	var captured models.ClientInfo
	r.GET("/audited", Audit(), func(c *gin.Context) {
		captured = models.ClientInfoFromContext(c.Request.Context())
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/audited", nil)
	req.Header.Set("User-Agent", "thryve-studio-app/4.2")
	req.RemoteAddr = "203.0.113.9:52100"
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "thryve-studio-app/4.2", captured.UserAgent)
	assert.Equal(t, "203.0.113.9", captured.IP)
}
