package marketplace

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrCursorStalled 上游返回的游标与请求游标相同，继续翻页会死循环
var ErrCursorStalled = errors.New("上游游标未前进")

// TransportError 拉取一页失败：非 2xx 响应或网络错误
// StatusCode 为 0 表示请求未得到响应
type TransportError struct {
	Entity     EntityType
	StatusCode int
	Body       string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("上游请求失败 [%s]: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("上游 API 错误 [%s][%d]: %s", e.Entity, e.StatusCode, e.Body)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsRetryable 网络错误（含单次请求超时）、429 和 5xx 可重试；其余 4xx 不重试
// 调用方上下文是否已取消由调用方判断
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var te *TransportError
	if !errors.As(err, &te) {
		return false
	}
	switch {
	case te.StatusCode == 0:
		return true
	case te.StatusCode == http.StatusTooManyRequests:
		return true
	case te.StatusCode >= http.StatusInternalServerError:
		return true
	}
	return false
}
