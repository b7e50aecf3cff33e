package types

import "fmt"

type TableName string

func (s TableName) Name() string {
	return fmt.Sprintf("%s%s", TABLE_PREFIX, s)
}

// TABLE_PREFIX is reserved for system tables, dynamic tables may not use it.
const TABLE_PREFIX = "th_"

const (
	TABLE_USER              = TableName("user")
	TABLE_CORE_ENTITY       = TableName("core_entity")
	TABLE_DYNAMIC_TABLE     = TableName("dynamic_table")
	TABLE_AUDIT_LOG         = TableName("audit_log")
	TABLE_SCHEMA_DEFINITION = TableName("schema_definition")
)
