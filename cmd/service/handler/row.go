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

func rowIDParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errors.New("handler.rowIDParam", i18n.ERROR_INVALIDARGUMENT, err).Code(http.StatusBadRequest)
	}
	return id, nil
}

type ViewTableRequest struct {
	PageRequest
	CoreRef string `json:"core_ref" form:"core_ref"`
}

// ViewTable 支持 filter[column]=value 精确过滤
func (s *HttpSrv) ViewTable(c *gin.Context) {
	var (
		err error
		req ViewTableRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	opts := types.ListDynamicRowOptions{CoreRef: req.CoreRef}
	if filter := c.QueryMap("filter"); len(filter) > 0 {
		opts.Equal = make(map[string]any, len(filter))
		for k, v := range filter {
			opts.Equal[k] = v
		}
	}

	page, pageSize := req.Normalize()
	view, err := v1.NewRowLogic(c, s.Core).ViewTable(c.Param("name"), opts, page, pageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, view)
}

func (s *HttpSrv) GetRow(c *gin.Context) {
	id, err := rowIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	row, err := v1.NewRowLogic(c, s.Core).GetRow(c.Param("name"), id)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, row)
}

func (s *HttpSrv) AddRow(c *gin.Context) {
	var (
		err error
		req v1.AddRowRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	row, err := v1.NewRowLogic(c, s.Core).AddRow(c.Param("name"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, row)
}

func (s *HttpSrv) EditRow(c *gin.Context) {
	id, err := rowIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req v1.EditRowRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	row, err := v1.NewRowLogic(c, s.Core).EditRow(c.Param("name"), id, req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, row)
}

type DeleteRowRequest struct {
	Reason string `json:"reason" form:"reason"`
}

func (s *HttpSrv) DeleteRow(c *gin.Context) {
	id, err := rowIDParam(c)
	if err != nil {
		response.APIError(c, err)
		return
	}

	var req DeleteRowRequest
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewRowLogic(c, s.Core).DeleteRow(c.Param("name"), id, req.Reason); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

type BulkUpdateResponse struct {
	Updated int `json:"updated"`
}

func (s *HttpSrv) BulkUpdateRows(c *gin.Context) {
	var (
		err error
		req v1.BulkUpdateRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	updated, err := v1.NewRowLogic(c, s.Core).BulkUpdate(c.Param("name"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, BulkUpdateResponse{Updated: updated})
}
