package database

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

// IsDuplicateKeyError 判断错误是否为唯一约束冲突。
// 依赖GORM的TranslateError把各驱动的原生错误翻译为统一错误。
func IsDuplicateKeyError(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey)
}

// IsRetryableError 判断错误是否为短暂的、值得重试的数据库错误。
// SQLite在并发写入时会返回锁忙错误，短暂退避后通常能成功。
func IsRetryableError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "database is locked") ||
		strings.Contains(msg, "database table is locked") ||
		strings.Contains(msg, "SQLITE_BUSY")
}
