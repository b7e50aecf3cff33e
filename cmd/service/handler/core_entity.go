package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

func (s *HttpSrv) CreateCoreEntity(c *gin.Context) {
	var (
		err error
		req v1.CreateCoreEntityRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	entity, err := v1.NewCoreEntityLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, entity)
}

func (s *HttpSrv) ListCoreEntities(c *gin.Context) {
	var (
		err error
		req PageRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	page, pageSize := req.Normalize()
	list, total, err := v1.NewCoreEntityLogic(c, s.Core).List(page, pageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.ListResponse[types.CoreEntity]{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) GetCoreEntity(c *gin.Context) {
	entity, err := v1.NewCoreEntityLogic(c, s.Core).Get(c.Param("uuid"))
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, entity)
}

func (s *HttpSrv) DeleteCoreEntity(c *gin.Context) {
	if err := v1.NewCoreEntityLogic(c, s.Core).Delete(c.Param("uuid")); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}
