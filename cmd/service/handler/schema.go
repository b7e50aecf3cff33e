package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/errors"
	"github.com/tablehub/tablehub/pkg/i18n"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

func schemaIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("handler.schemaIDParam", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return id, nil
}

func (s *HttpSrv) CreateSchema(c *gin.Context) {
	var (
		err error
		req v1.SchemaDefinitionRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	schema, err := v1.NewSchemaDefinitionLogic(c, s.Core).Create(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, schema)
}

type ListSchemasRequest struct {
	PageRequest
	Name    string `json:"name" form:"name"`
	OwnerID string `json:"owner_id" form:"owner_id"`
}

func (s *HttpSrv) ListSchemas(c *gin.Context) {
	var (
		err error
		req ListSchemasRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	page, pageSize := req.Normalize()
	list, total, err := v1.NewSchemaDefinitionLogic(c, s.Core).List(types.ListSchemaDefinitionOptions{
		Name:    req.Name,
		OwnerID: req.OwnerID,
	}, page, pageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.ListResponse[types.SchemaDefinition]{
		List:  list,
		Total: total,
	})
}

type SchemaVersionsRequest struct {
	Name string `json:"name" form:"name" binding:"required"`
}

func (s *HttpSrv) ListSchemaVersions(c *gin.Context) {
	var (
		err error
		req SchemaVersionsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	list, err := v1.NewSchemaDefinitionLogic(c, s.Core).Versions(req.Name)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, list)
}

func (s *HttpSrv) GetSchema(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	schema, err := v1.NewSchemaDefinitionLogic(c, s.Core).Get(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, schema)
}

func (s *HttpSrv) UpdateSchema(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req v1.SchemaDefinitionRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	schema, err := v1.NewSchemaDefinitionLogic(c, s.Core).Update(id, req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, schema)
}

func (s *HttpSrv) DeleteSchema(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewSchemaDefinitionLogic(c, s.Core).Delete(id); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

func (s *HttpSrv) CreateSchemaVersion(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	schema, err := v1.NewSchemaDefinitionLogic(c, s.Core).CreateNewVersion(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, schema)
}

func (s *HttpSrv) VisualizeSchema(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	v, err := v1.NewSchemaDefinitionLogic(c, s.Core).Visualize(id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, v)
}

// ExportSchema ?store=s3 时同时上传到对象存储
func (s *HttpSrv) ExportSchema(c *gin.Context) {
	id, err := schemaIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewSchemaDefinitionLogic(c, s.Core).Export(id, c.Query("store") == "s3")
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}

func (s *HttpSrv) ImportSchema(c *gin.Context) {
	var (
		err error
		req v1.ImportRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	res, err := v1.NewSchemaDefinitionLogic(c, s.Core).Import(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, res)
}
