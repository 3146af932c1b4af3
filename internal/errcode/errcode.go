package errcode

// 错误码约定：
// - 0：无错误
// - 4xxx：调用方错误（认证缺失、资源不存在、参数不合法）
// - 5xxx：系统或上游错误
const (
	OK              = 0
	Unauthenticated = 4001
	NotFound        = 4004
	InvalidArgument = 4022
	SystemError     = 5000
	UpstreamFailure = 5002
)
