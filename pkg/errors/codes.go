package errors

// 错误码分段：1xxx 请求方错误，2xxx 存储/下游错误
const (
	CodeInvalidArgument  = 1400 // 参数缺失或非法，调用方立即可见，不重试
	CodeForbidden        = 1403 // 操作者无所有权/管理权限
	CodeNotFound         = 1404 // 实体不存在
	CodeStoreUnavailable = 2500 // 存储不可达或超时，由调用方决定是否重试
	CodeFanoutFailure    = 2502 // 推送失败，仅记录，不影响触发它的写入
)

// NotFoundf creates a CodeNotFound error.
func NotFoundf(format string, args ...interface{}) *Error {
	return WithCodef(CodeNotFound, format, args...)
}

// Forbiddenf creates a CodeForbidden error.
func Forbiddenf(format string, args ...interface{}) *Error {
	return WithCodef(CodeForbidden, format, args...)
}

// InvalidArgumentf creates a CodeInvalidArgument error.
func InvalidArgumentf(format string, args ...interface{}) *Error {
	return WithCodef(CodeInvalidArgument, format, args...)
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code int) bool {
	return GetCode(err) == code
}

// IsNotFound reports whether err is a CodeNotFound error.
func IsNotFound(err error) bool { return IsCode(err, CodeNotFound) }

// IsForbidden reports whether err is a CodeForbidden error.
func IsForbidden(err error) bool { return IsCode(err, CodeForbidden) }

// IsInvalidArgument reports whether err is a CodeInvalidArgument error.
func IsInvalidArgument(err error) bool { return IsCode(err, CodeInvalidArgument) }
