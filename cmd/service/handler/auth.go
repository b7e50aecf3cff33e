package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/security"
	"github.com/tablehub/tablehub/pkg/utils"
)

type LoginRequest struct {
	Name     string `json:"name" form:"name" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (s *HttpSrv) Login(c *gin.Context) {
	var (
		err error
		req LoginRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewAuthLogic(c, s.Core).Login(req.Name, req.Password)
	if err != nil {
		response.APIError(c, err)
		return
	}

	maxAge := int(time.Until(time.Unix(res.ExpiresAt, 0)).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(security.COOKIE_KEY, res.Token, maxAge, "/", "", false, true)
	response.APISuccess(c, res)
}

func (s *HttpSrv) Logout(c *gin.Context) {
	claims, _ := v1.InjectTokenClaim(c)
	if err := v1.NewAuthLogic(c, s.Core).Logout(claims); err != nil {
		response.APIError(c, err)
		return
	}

	c.SetCookie(security.COOKIE_KEY, "", -1, "/", "", false, true)
	response.APISuccess(c, nil)
}
