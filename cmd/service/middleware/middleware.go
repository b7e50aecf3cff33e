package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"github.com/tablehub/tablehub/app/core"
	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

func I18n() gin.HandlerFunc {
	var allowList []string
	for k := range i18n.ALLOW_LANG {
		allowList = append(allowList, k)
	}
	l := i18n.NewLocalizer(allowList...)

	return response.ProvideResponseLocalizer(l)
}

// AcceptLanguage 目前服务端支持 en: English, zh-CN: 简体中文
func AcceptLanguage() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		lang := ctx.Request.Header.Get("Accept-Language")
		if lang == "" {
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		res := utils.ParseAcceptLanguage(lang)
		if len(res) == 0 {
			ctx.Set(v1.LANGUAGE_KEY, types.LANGUAGE_EN_KEY)
			return
		}

		ctx.Set(v1.LANGUAGE_KEY, lo.If(strings.Contains(res[0].Tag, "zh"), types.LANGUAGE_CN_KEY).Else(types.LANGUAGE_EN_KEY))
	}
}

// tokenFromRequest reads the session token from the header first, then the cookie.
func tokenFromRequest(c *gin.Context) string {
	if token := c.GetHeader(security.TOKEN_KEY); token != "" {
		return strings.TrimPrefix(token, "Bearer ")
	}
	token, _ := c.Cookie(security.COOKIE_KEY)
	return token
}

func Authorization(core *core.Core) gin.HandlerFunc {
	tracePrefix := "middleware.Authorization"
	return func(c *gin.Context) {
		tokenValue := tokenFromRequest(c)
		if tokenValue == "" {
			response.APIError(c, errors.New(tracePrefix, i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
			return
		}

		claims, err := v1.NewAuthLogic(c, core).ValidateToken(tokenValue)
		if err != nil {
			response.APIError(c, errors.Trace(tracePrefix, err))
			return
		}

		user, err := v1.LoadUser(c, core, claims.User)
		if err != nil {
			response.APIError(c, errors.Trace(tracePrefix, err))
			return
		}

		c.Set(v1.TOKEN_CONTEXT_KEY, *claims)
		c.Set(v1.USER_CONTEXT_KEY, user)
		c.Set(response.UserIDKey, user.ID)
	}
}

// VerifyAdmin 仅允许管理员访问
func VerifyAdmin(c *gin.Context) {
	user, ok := v1.InjectUser(c)
	if !ok {
		response.APIError(c, errors.New("middleware.VerifyAdmin.InjectUser", i18n.ERROR_UNAUTHORIZED, nil).Code(http.StatusUnauthorized))
		return
	}
	if !user.IsAdmin {
		response.APIError(c, errors.New("middleware.VerifyAdmin", i18n.ERROR_PERMISSION_DENIED, nil).Code(http.StatusForbidden))
	}
}

func Cors(c *gin.Context) {
	method := c.Request.Method
	origin := c.Request.Header.Get("Origin")
	if origin != "" {
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE")
		c.Header("Access-Control-Allow-Headers", "Origin, X-Requested-With, Content-Type, Accept, Authorization, X-Authorization")
		c.Header("Access-Control-Expose-Headers", "Content-Length, Access-Control-Allow-Origin, Access-Control-Allow-Headers, Cache-Control, Content-Language, Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
	}
	if method == "OPTIONS" {
		c.AbortWithStatus(http.StatusNoContent)
	}
	c.Next()
}

type LimiterFunc func(key string, opts ...core.LimitOption) gin.HandlerFunc

func UseLimit(appCore *core.Core, genKeyFunc func(c *gin.Context) string, opts ...core.LimitOption) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !appCore.UseLimiter(genKeyFunc(c), opts...).Allow() {
			response.APIError(c, errors.New("middleware.limiter", i18n.ERROR_TOO_MANY_REQUESTS, nil).Code(http.StatusTooManyRequests))
		}
	}
}

// Metrics 记录接口耗时与错误
func Metrics(core *core.Core) gin.HandlerFunc {
	return func(c *gin.Context) {
		api := c.FullPath()
		if api == "" {
			c.Next()
			return
		}
		timer := core.Metrics().ApiResponseTimer(api)
		c.Next()
		timer.ObserveDuration()
		if status := c.Writer.Status(); status >= http.StatusBadRequest {
			core.Metrics().ApiErrorInc(c.Request.Method, api, status)
		}
	}
}
