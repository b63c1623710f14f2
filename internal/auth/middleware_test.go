package auth

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/ratwatch/sighting-api/internal/config"
	"github.com/ratwatch/sighting-api/internal/database"
	"github.com/ratwatch/sighting-api/internal/logger"
	"github.com/ratwatch/sighting-api/internal/models"
	"github.com/ratwatch/sighting-api/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setup(t *testing.T) (*AuthHandler, *gorm.DB) {
	t.Helper()
	cfg := &config.Config{JWTSecret: "test-secret", DatabaseURL: ":memory:"}
	db, err := database.Connect(cfg, logger.Nop())
	if err != nil {
		t.Fatalf("failed to connect database: %v", err)
	}
	return NewAuthHandler(cfg, store.NewUsers(db, logger.Nop()), logger.Nop()), db
}

func signed(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	s, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return s
}

// echoUserID writes the authenticated user id so tests can check it.
var echoUserID = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	id, ok := UserIDFromContext(r.Context())
	if !ok {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("X-User-ID", strconv.FormatUint(uint64(id), 10))
	w.WriteHeader(http.StatusOK)
})

func TestJWTMiddleware_SlidingSession(t *testing.T) {
	handler, _ := setup(t)

	t.Run("TokenRenewed", func(t *testing.T) {
		// Expires in 11 hours, less than TokenDuration/2.
		tokenString := signed(t, jwt.MapClaims{
			"sub": "discord|1",
			"exp": time.Now().Add(11 * time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr := httptest.NewRecorder()
		handler.AuthMiddleware(echoUserID).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)

		found := false
		for _, c := range rr.Result().Cookies() {
			if c.Name == "auth_token" {
				found = true
				assert.NotEqual(t, tokenString, c.Value)
			}
		}
		assert.True(t, found, "expected new auth_token cookie to be set")
	})

	t.Run("TokenNotRenewed", func(t *testing.T) {
		tokenString := signed(t, jwt.MapClaims{
			"sub": "discord|1",
			"exp": time.Now().Add(13 * time.Hour).Unix(),
		})

		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: "auth_token", Value: tokenString})
		rr := httptest.NewRecorder()
		handler.AuthMiddleware(echoUserID).ServeHTTP(rr, req)

		assert.Equal(t, http.StatusOK, rr.Code)
		for _, c := range rr.Result().Cookies() {
			assert.NotEqual(t, "auth_token", c.Name, "did not expect a new auth_token cookie")
		}
	})
}

func TestJWTMiddleware_BearerProvisionsUser(t *testing.T) {
	handler, db := setup(t)

	tokenString := signed(t, jwt.MapClaims{
		"sub":  "discord|42",
		"name": "alice",
		"exp":  time.Now().Add(time.Hour).Unix(),
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", "Bearer "+tokenString)
		rr := httptest.NewRecorder()
		handler.AuthMiddleware(echoUserID).ServeHTTP(rr, req)

		require.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "1", rr.Header().Get("X-User-ID"))
		// Bearer tokens are never refreshed through cookies.
		assert.Empty(t, rr.Result().Cookies())
	}

	var users []models.User
	require.NoError(t, db.Find(&users).Error)
	require.Len(t, users, 1)
	assert.Equal(t, "alice", users[0].Username)
	assert.Equal(t, models.RankNovice, users[0].Rank)
	assert.Zero(t, users[0].Points)
}

func TestJWTMiddleware_Rejects(t *testing.T) {
	handler, _ := setup(t)

	cases := map[string]func(r *http.Request){
		"NoToken": func(*http.Request) {},
		"MalformedHeader": func(r *http.Request) {
			r.Header.Set("Authorization", "Token abc")
		},
		"BadSignature": func(r *http.Request) {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "x"})
			s, _ := token.SignedString([]byte("wrong"))
			r.Header.Set("Authorization", "Bearer "+s)
		},
		"Expired": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{
				"sub": "x",
				"exp": time.Now().Add(-time.Minute).Unix(),
			}))
		},
		"MissingSubject": func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, jwt.MapClaims{"name": "x"}))
		},
	}

	for name, prepare := range cases {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			prepare(req)
			rr := httptest.NewRecorder()
			handler.AuthMiddleware(echoUserID).ServeHTTP(rr, req)
			assert.Equal(t, http.StatusUnauthorized, rr.Code)
		})
	}
}
