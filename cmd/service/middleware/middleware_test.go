package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
	utils.SetupIDWorker(1)
}

func newEngine(user *types.User) *gin.Engine {
	r := gin.New()
	r.Use(I18n(), response.NewResponse())
	r.Use(func(c *gin.Context) {
		if user != nil {
			c.Set(v1.USER_CONTEXT_KEY, user)
		}
	})
	r.GET("/admin", VerifyAdmin, func(c *gin.Context) {
		response.APISuccess(c, "ok")
	})
	return r
}

func TestVerifyAdmin(t *testing.T) {
	cases := []struct {
		name   string
		user   *types.User
		status int
	}{
		{name: "anonymous", status: http.StatusUnauthorized},
		{name: "member", user: &types.User{ID: "1"}, status: http.StatusForbidden},
		{name: "admin", user: &types.User{ID: "2", IsAdmin: true}, status: http.StatusOK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			newEngine(tc.user).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin", nil))
			assert.Equal(t, tc.status, w.Code)

			var res response.Response
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
			assert.Equal(t, tc.status, res.Meta.Code)
			assert.NotEmpty(t, res.Meta.RequestID)
		})
	}
}

func TestCorsPreflight(t *testing.T) {
	r := gin.New()
	r.Use(Cors)
	r.OPTIONS("/api/v1/tables", func(c *gin.Context) {
		c.String(http.StatusOK, "unreachable")
	})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/tables", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestTokenFromRequest(t *testing.T) {
	t.Run("header", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.Header.Set(security.TOKEN_KEY, "Bearer abc")
		c.Request.AddCookie(&http.Cookie{Name: security.COOKIE_KEY, Value: "cookie"})
		assert.Equal(t, "abc", tokenFromRequest(c))
	})

	t.Run("cookie", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		c.Request.AddCookie(&http.Cookie{Name: security.COOKIE_KEY, Value: "cookie"})
		assert.Equal(t, "cookie", tokenFromRequest(c))
	})

	t.Run("missing", func(t *testing.T) {
		c, _ := gin.CreateTestContext(httptest.NewRecorder())
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Empty(t, tokenFromRequest(c))
	})
}

func TestAcceptLanguage(t *testing.T) {
	r := gin.New()
	r.Use(AcceptLanguage())
	var got string
	r.GET("/", func(c *gin.Context) {
		got, _ = v1.InjectLanguage(c)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Language", "zh-CN,zh;q=0.9,en;q=0.8")
	r.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, types.LANGUAGE_CN_KEY, got)

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, types.LANGUAGE_EN_KEY, got)
}
