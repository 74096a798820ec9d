package middleware_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"underwriter/internal/domain"
	"underwriter/internal/middleware"
	"underwriter/internal/service"
	"underwriter/mocks"
)

func setupAuthRouter(authService service.AuthService, roles ...domain.UserRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	group := r.Group("/", middleware.AuthMiddleware(authService))
	if len(roles) > 0 {
		group.Use(middleware.RequireRole(roles...))
	}
	group.GET("/protected", func(c *gin.Context) {
		userID, err := middleware.GetUserID(c)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"user_id": userID})
	})
	return r
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	authService := new(mocks.MockAuthService)
	userID := uuid.New()
	authService.On("ValidateToken", "good-token").Return(&service.Claims{
		UserID: userID,
		Email:  "analyst@example.com",
		Role:   domain.RoleAnalyst,
	}, nil)

	r := setupAuthRouter(authService)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer good-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), userID.String())
}

func TestAuthMiddleware_MissingHeader(t *testing.T) {
	r := setupAuthRouter(new(mocks.MockAuthService))
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddleware_InvalidToken(t *testing.T) {
	authService := new(mocks.MockAuthService)
	authService.On("ValidateToken", "bad-token").Return(nil, errors.New("parsing token"))

	r := setupAuthRouter(authService)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRequireRole_Allowed(t *testing.T) {
	authService := new(mocks.MockAuthService)
	authService.On("ValidateToken", "admin-token").Return(&service.Claims{
		UserID: uuid.New(),
		Role:   domain.RoleAdmin,
	}, nil)

	r := setupAuthRouter(authService, domain.RoleAdmin)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireRole_Denied(t *testing.T) {
	authService := new(mocks.MockAuthService)
	authService.On("ValidateToken", "analyst-token").Return(&service.Claims{
		UserID: uuid.New(),
		Role:   domain.RoleAnalyst,
	}, nil)

	r := setupAuthRouter(authService, domain.RoleAdmin)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer analyst-token")
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusForbidden, w.Code)
}
