package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/utils"
)

func (s *HttpSrv) DefineTable(c *gin.Context) {
	var (
		err error
		req v1.DefineTableRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	detail, err := v1.NewDynamicTableLogic(c, s.Core).DefineTable(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, detail)
}

func (s *HttpSrv) ListTables(c *gin.Context) {
	list, err := v1.NewDynamicTableLogic(c, s.Core).ListTables()
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, list)
}

func (s *HttpSrv) GetTable(c *gin.Context) {
	detail, err := v1.NewDynamicTableLogic(c, s.Core).GetTable(c.Param("name"))
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, detail)
}

func (s *HttpSrv) AddTableColumns(c *gin.Context) {
	var (
		err error
		req v1.AddColumnsRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	detail, err := v1.NewDynamicTableLogic(c, s.Core).AddColumns(c.Param("name"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, detail)
}

func (s *HttpSrv) RepairTable(c *gin.Context) {
	var (
		err error
		req v1.RepairRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	report, err := v1.NewDynamicTableLogic(c, s.Core).RepairTable(c.Param("name"), req.Reason)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, report)
}
