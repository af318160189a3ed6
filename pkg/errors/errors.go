package errors

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// ErrConditionFailed 条件更新未命中任何行：记录已被其他请求改变状态
var ErrConditionFailed = errors.New("记录状态已被其他操作修改")

// uniqueViolation PostgreSQL unique_violation
const uniqueViolation = "23505"

// IsUniqueViolation 判断写入是否因唯一约束冲突而失败
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// UniqueConstraint 返回触发唯一约束冲突的约束名，无法判断时为空
func UniqueConstraint(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return pgErr.ConstraintName
	}
	return ""
}
