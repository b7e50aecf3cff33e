package i18n

var ALLOW_LANG = map[string]bool{
	"en":    true,
	"zh-CN": true,
}

const DEFAULT_LANG = "en"

const (
	ERROR_INTERNAL          = "error.internal"
	ERROR_NOT_FOUND         = "error.notfound"
	ERROR_INVALIDARGUMENT   = "error.invalidargument"
	ERROR_PERMISSION_DENIED = "error.permission.denied"
	ERROR_UNAUTHORIZED      = "error.unauthorized"
	ERROR_EXIST             = "error.exist"
	ERROR_FORBIDDEN         = "error.forbidden"
	ERROR_TOO_MANY_REQUESTS = "error.tooManyRequests"
	ERROR_INVALID_TOKEN     = "error.invalid.token"
	ERROR_INVALID_ACCOUNT   = "error.invalid.account"

	ERROR_REASON_REQUIRED            = "error.reason.required"
	ERROR_INVALID_COLUMN_TYPE        = "error.invalid.column_type"
	ERROR_MATERIALIZATION_INCOMPLETE = "error.materialization.incomplete"
	ERROR_CORE_ENTITY_REFERENCED     = "error.core_entity.referenced"
	ERROR_OBJECT_STORAGE_DISABLED    = "error.object_storage.disabled"
)
