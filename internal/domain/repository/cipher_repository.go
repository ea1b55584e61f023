// Package repository 定义领域仓储接口
package repository

import (
	"context"

	"github.com/turtacn/vaultgate/internal/domain/models"
)

// CipherRepository 定义保险库条目仓储接口
// 实现类：internal/infrastructure/persistence/postgres/cipher_repo_impl.go
type CipherRepository interface {
	// Save 保存新的条目
	// 返回：
	//   - error: 主键冲突时返回 Conflict 错误
	Save(ctx context.Context, cipher *models.Cipher) error

	// Update 覆盖已存在的条目
	Update(ctx context.Context, cipher *models.Cipher) error

	// FindByID 查询属于 userID 且未删除的条目
	// 返回：
	//   - error: 不存在、已删除或属于其他账户时返回 ErrCipherNotFound
	FindByID(ctx context.Context, userID, cipherID string) (*models.Cipher, error)

	// ListByUser 按创建顺序列出账户下未删除的条目
	ListByUser(ctx context.Context, userID string) ([]*models.Cipher, error)

	// SoftDelete 设置 DeletedDate，条目此后不再可见
	SoftDelete(ctx context.Context, userID, cipherID string) error
}
