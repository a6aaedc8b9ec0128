package repository

import (
	"context"
	"fmt"

	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// WorkerRepository 工人联系方式Repository（告警邮件收件人）
type WorkerRepository struct {
	db     *database.ResilientDB
	logger *zap.Logger
}

// NewWorkerRepository 创建工人Repository
func NewWorkerRepository(db *database.ResilientDB, logger *zap.Logger) *WorkerRepository {
	return &WorkerRepository{db: db, logger: logger}
}

// GetContacts 获取所有配置了邮箱的工人
func (r *WorkerRepository) GetContacts(ctx context.Context) ([]models.WorkerContact, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT worker_id, name, email
		FROM workers
		WHERE email IS NOT NULL AND email <> ''
		ORDER BY worker_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query worker contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.WorkerContact
	for rows.Next() {
		var c models.WorkerContact
		if err := rows.Scan(&c.WorkerID, &c.Name, &c.Email); err != nil {
			return nil, fmt.Errorf("failed to scan worker row: %w", err)
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate worker rows: %w", err)
	}

	return contacts, nil
}
