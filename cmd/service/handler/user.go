package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
)

func (s *HttpSrv) GetUser(c *gin.Context) {
	dashboard, err := v1.NewUserLogic(c, s.Core).Info()
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, dashboard)
}
