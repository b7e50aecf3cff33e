package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/tablehub/tablehub/app/core"
)

// HttpSrv HTTP服务结构
type HttpSrv struct {
	Core   *core.Core
	Engine *gin.Engine
}

const (
	defaultPageSize = 20
	maxPageSize     = 200
)

// PageRequest 分页参数
type PageRequest struct {
	Page     uint64 `json:"page" form:"page"`
	PageSize uint64 `json:"pagesize" form:"pagesize"`
}

func (p PageRequest) Normalize() (uint64, uint64) {
	page, pageSize := p.Page, p.PageSize
	if page == 0 {
		page = 1
	}
	if pageSize == 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	return page, pageSize
}
