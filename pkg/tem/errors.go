package tem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mooyang-code/tem-client/internal/httpclient"
)

// 错误类别哨兵，可通过errors.Is匹配具体错误类型
var (
	ErrValidation     = errors.New("tem: validation failed")
	ErrInvalidAmount  = errors.New("tem: invalid amount")
	ErrInvalidRequest = errors.New("tem: invalid request")
	ErrTransport      = errors.New("tem: transport failed")
	ErrAggregation    = errors.New("tem: pagination failed")
)

// ValidationError 响应或请求字段不合法
type ValidationError struct {
	Entity   string // 所属对象，例如 "order"
	Field    string // 规范字段名
	Reason   string
	Expected string
	Received string
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("tem: invalid ")
	if e.Entity != "" {
		b.WriteString(e.Entity)
		b.WriteString(".")
	}
	b.WriteString(e.Field)
	b.WriteString(": ")
	b.WriteString(e.Reason)
	if e.Expected != "" {
		fmt.Fprintf(&b, " (expected %s", e.Expected)
		if e.Received != "" {
			fmt.Fprintf(&b, ", got %s", e.Received)
		}
		b.WriteString(")")
	}
	return b.String()
}

// Is 匹配ErrValidation
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// InvalidAmountError 换算输入超出定义域
type InvalidAmountError struct {
	Value  string
	Reason string
}

func (e *InvalidAmountError) Error() string {
	return fmt.Sprintf("tem: invalid amount %q: %s", e.Value, e.Reason)
}

// Is 匹配ErrInvalidAmount
func (e *InvalidAmountError) Is(target error) bool {
	return target == ErrInvalidAmount
}

// InvalidRequestError 请求构建前置条件不满足
type InvalidRequestError struct {
	Operation string // 例如 "create_order"
	Field     string
	Reason    string
}

func (e *InvalidRequestError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("tem: invalid %s request: %s", e.Operation, e.Reason)
	}
	return fmt.Sprintf("tem: invalid %s request: %s: %s", e.Operation, e.Field, e.Reason)
}

// Is 匹配ErrInvalidRequest
func (e *InvalidRequestError) Is(target error) bool {
	return target == ErrInvalidRequest
}

// TransportError 网络调用失败，原始错误通过Unwrap暴露
type TransportError struct {
	Method     string
	Path       string
	StatusCode int    // 0 表示未收到HTTP响应
	Body       []byte // 非2xx响应体
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tem: %s %s: status %d: %v", e.Method, e.Path, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tem: %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is 匹配ErrTransport
func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// newTransportError 包装传输层错误，提取HTTP状态码和响应体
func newTransportError(method, path string, err error) *TransportError {
	var existing *TransportError
	if errors.As(err, &existing) {
		return existing
	}
	te := &TransportError{Method: method, Path: path, Err: err}
	var httpErr *httpclient.HTTPError
	if errors.As(err, &httpErr) {
		te.StatusCode = httpErr.StatusCode
		te.Body = httpErr.Body
	}
	return te
}

// AggregationError 分页聚合中途失败，已获取的部分结果被丢弃
type AggregationError struct {
	Skip  int // 失败页的偏移
	Take  int
	Pages int // 失败前成功获取的页数
	Err   error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("tem: list all failed at skip=%d take=%d after %d pages: %v", e.Skip, e.Take, e.Pages, e.Err)
}

func (e *AggregationError) Unwrap() error {
	return e.Err
}

// Is 匹配ErrAggregation
func (e *AggregationError) Is(target error) bool {
	return target == ErrAggregation
}
