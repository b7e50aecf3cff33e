package handler

import (
	"github.com/gin-gonic/gin"

	v1 "github.com/tablehub/tablehub/app/logic/v1"
	"github.com/tablehub/tablehub/app/response"
	"github.com/tablehub/tablehub/pkg/types"
	"github.com/tablehub/tablehub/pkg/utils"
)

func (s *HttpSrv) AdminCreateUser(c *gin.Context) {
	var (
		err error
		req v1.CreateUserRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	user, err := v1.NewAdminUserLogic(c, s.Core).CreateUser(req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, user)
}

type AdminListUsersRequest struct {
	PageRequest
	Name string `json:"name" form:"name"`
}

func (s *HttpSrv) AdminListUsers(c *gin.Context) {
	var (
		err error
		req AdminListUsersRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	page, pageSize := req.Normalize()
	list, total, err := v1.NewAdminUserLogic(c, s.Core).ListUsers(types.ListUserOptions{
		Name: req.Name,
	}, page, pageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.ListResponse[types.User]{
		List:  list,
		Total: total,
	})
}

func (s *HttpSrv) AdminUpdateUserAccess(c *gin.Context) {
	var (
		err error
		req v1.UpdateAccessRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	user, err := v1.NewAdminUserLogic(c, s.Core).UpdateAccess(c.Param("id"), req)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, user)
}

type AdminResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
	Reason   string `json:"reason"`
}

func (s *HttpSrv) AdminResetPassword(c *gin.Context) {
	var (
		err error
		req AdminResetPasswordRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	if err = v1.NewAdminUserLogic(c, s.Core).ResetPassword(c.Param("id"), req.Password, req.Reason); err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, nil)
}

type ListAuditLogRequest struct {
	PageRequest
	Table  string `json:"table" form:"table"`
	UserID string `json:"user_id" form:"user_id"`
	Action string `json:"action" form:"action"`
}

func (s *HttpSrv) AdminListAuditLogs(c *gin.Context) {
	var (
		err error
		req ListAuditLogRequest
	)
	if err = utils.BindArgsWithGin(c, &req); err != nil {
		response.APIError(c, err)
		return
	}

	page, pageSize := req.Normalize()
	list, total, err := v1.NewAuditLogic(c, s.Core).List(types.ListAuditLogOptions{
		TableName: req.Table,
		UserID:    req.UserID,
		Action:    req.Action,
	}, page, pageSize)
	if err != nil {
		response.APIError(c, err)
		return
	}

	response.APISuccess(c, response.ListResponse[types.AuditLog]{
		List:  list,
		Total: total,
	})
}
