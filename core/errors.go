package core

import "errors"

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）与 errors.Is
//
// 使用场景：
//   - Engine 错误：NOT_READY, INVALID_INPUT
//   - 查询错误：NOT_FOUND（用户 / 故事不存在）
//   - Store 错误：NOT_FOUND（key 不存在，缓存未命中）
//   - Loader 错误：UNAVAILABLE（数据源不可达）、INVALID_INPUT（快照文件格式错误）
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND", "INVALID_INPUT"）
	Message string // 错误消息
	Module  string // 模块名称（如 "engine", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// Is 按 Module + Code 判断是否为同类错误，便于 errors.Is 与包装后的错误配合使用。
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && e.Module == t.Module
}

// IsDomainError 检查错误是否为 DomainError 类型
func IsDomainError(err error) bool {
	return GetDomainError(err) != nil
}

// GetDomainError 获取 DomainError（支持 %w 包装），如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	ErrorCodeNotFound      = "NOT_FOUND"      // 资源不存在
	ErrorCodeNotSupported  = "NOT_SUPPORTED"  // 操作不支持
	ErrorCodeUnavailable   = "UNAVAILABLE"    // 服务不可用
	ErrorCodeInvalidInput  = "INVALID_INPUT"  // 输入无效
	ErrorCodeNotReady      = "NOT_READY"      // 引擎未初始化
	ErrorCodeInternalError = "INTERNAL_ERROR" // 内部错误
)

// 模块名称常量
const (
	ModuleStore  = "store"  // 存储模块
	ModuleEngine = "engine" // 推荐引擎
	ModuleLoader = "loader" // 快照加载
	ModuleServer = "server" // HTTP 接口
)

// 引擎错误
var (
	// ErrNotReady 表示引擎尚未构建成功（输入为空或格式错误）
	ErrNotReady = NewDomainError(ModuleEngine, ErrorCodeNotReady, "engine: not ready")

	// ErrUserNotFound 表示请求的用户不在快照中
	ErrUserNotFound = NewDomainError(ModuleEngine, ErrorCodeNotFound, "engine: user not found")

	// ErrStoryNotFound 表示参考故事不在快照中
	ErrStoryNotFound = NewDomainError(ModuleEngine, ErrorCodeNotFound, "engine: story not found")

	// ErrInvalidN 表示 n 不是正整数
	ErrInvalidN = NewDomainError(ModuleEngine, ErrorCodeInvalidInput, "engine: n must be a positive integer")

	// ErrEmptyStories 表示快照中没有任何有效故事，引擎无法构建
	ErrEmptyStories = NewDomainError(ModuleEngine, ErrorCodeNotReady, "engine: snapshot has no valid stories")
)

// IsNotFound 检查错误是否为 NOT_FOUND
func IsNotFound(err error) bool {
	return hasCode(err, ErrorCodeNotFound)
}

// IsNotSupported 检查错误是否为 NOT_SUPPORTED
func IsNotSupported(err error) bool {
	return hasCode(err, ErrorCodeNotSupported)
}

// IsUnavailable 检查错误是否为 UNAVAILABLE
func IsUnavailable(err error) bool {
	return hasCode(err, ErrorCodeUnavailable)
}

// IsInvalidInput 检查错误是否为 INVALID_INPUT
func IsInvalidInput(err error) bool {
	return hasCode(err, ErrorCodeInvalidInput)
}

// IsNotReady 检查错误是否为 NOT_READY
func IsNotReady(err error) bool {
	return hasCode(err, ErrorCodeNotReady)
}

func hasCode(err error, code string) bool {
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Code == code
	}
	return false
}
