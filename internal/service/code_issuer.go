package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/easterncc001/shift-logger/internal/model"
	"github.com/easterncc001/shift-logger/internal/repository"
	pkgerrors "github.com/easterncc001/shift-logger/pkg/errors"
)

// CodeLength 工人编码位数
const CodeLength = 6

var codeSpace = big.NewInt(1_000_000)

// ErrCodeSpaceExhausted 多次抽样仍未找到空闲编码
var ErrCodeSpaceExhausted = errors.New("暂时无法分配新的打卡编码，请重试")

// ValidateCodeFormat 编码必须是 6 位 ASCII 数字
func ValidateCodeFormat(code string) error {
	if len(code) != CodeLength {
		return ErrCodeFormat
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return ErrCodeFormat
		}
	}
	return nil
}

// GenerateCode 均匀抽取一个 000000–999999 的编码
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, codeSpace)
	if err != nil {
		return "", fmt.Errorf("生成随机编码失败: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// codeIssuer 编码分配：抽样 + 拒绝已占用编码，插入时再由唯一约束兜底
type codeIssuer struct {
	maxAttempts int
	draw        func() (string, error)
	logger      *zap.Logger
}

func newCodeIssuer(maxAttempts int, logger *zap.Logger) *codeIssuer {
	if maxAttempts <= 0 {
		maxAttempts = 50
	}
	return &codeIssuer{maxAttempts: maxAttempts, draw: GenerateCode, logger: logger}
}

// codeTaken 编码是否已被任何工人或班次使用
func (i *codeIssuer) codeTaken(ctx context.Context, repo *repository.Repository, code string) (bool, error) {
	taken, err := repo.WorkerCode.CodeExists(ctx, code)
	if err != nil || taken {
		return taken, err
	}
	return repo.Shift.CodeExists(ctx, code)
}

// NewShiftCode 为单个班次抽取一个未被占用的编码（按班次编码模式）
func (i *codeIssuer) NewShiftCode(ctx context.Context, repo *repository.Repository) (string, error) {
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		code, err := i.draw()
		if err != nil {
			return "", err
		}
		taken, err := i.codeTaken(ctx, repo, code)
		if err != nil {
			return "", err
		}
		if !taken {
			return code, nil
		}
	}
	i.logger.Error("编码抽样次数耗尽", zap.Int("attempts", i.maxAttempts))
	return "", ErrCodeSpaceExhausted
}

// GetOrCreateCode 返回 (姓名, 分包商) 的固定编码，不存在时分配并写入
// created 表示本次调用新建了编码
func (i *codeIssuer) GetOrCreateCode(ctx context.Context, repo *repository.Repository, workerName, subcontractor string) (code string, created bool, err error) {
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		existing, err := repo.WorkerCode.GetByIdentity(ctx, workerName, subcontractor)
		if err == nil {
			return existing.Code, false, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return "", false, err
		}

		candidate, err := i.NewShiftCode(ctx, repo)
		if err != nil {
			return "", false, err
		}

		wc := &model.WorkerCode{WorkerName: workerName, Subcontractor: subcontractor, Code: candidate}
		err = repo.WorkerCode.Create(ctx, wc)
		if err == nil {
			return candidate, true, nil
		}
		if !pkgerrors.IsUniqueViolation(err) {
			return "", false, err
		}
		// 并发请求抢先写入了同一身份，或编码撞车：回到循环开头重新读取/重抽
		i.logger.Debug("写入工人编码冲突，重试", zap.Int("attempt", attempt+1))
	}
	return "", false, ErrCodeSpaceExhausted
}
