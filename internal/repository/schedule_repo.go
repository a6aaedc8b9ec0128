package repository

import (
	"context"
	"fmt"
	"time"

	"prawncare-monitor/internal/database"
	"prawncare-monitor/internal/models"

	"go.uber.org/zap"
)

// ScheduleRepository 喂食计划Repository
type ScheduleRepository struct {
	db     *database.ResilientDB
	logger *zap.Logger
}

// NewScheduleRepository 创建喂食计划Repository
func NewScheduleRepository(db *database.ResilientDB, logger *zap.Logger) *ScheduleRepository {
	return &ScheduleRepository{db: db, logger: logger}
}

// GetEntriesInWindow 查询喂食时刻落在 [from, to) 窗口内的计划条目
// 只比较一天内的时刻（feed_time 为 TIME 列），窗口跨午夜时拆成 OR 条件
// 返回顺序即分发顺序：按 feed_time、feeding_id 排序
func (r *ScheduleRepository) GetEntriesInWindow(ctx context.Context, from, to time.Time) ([]models.FeedingScheduleEntry, error) {
	fromStr := from.Format("15:04:05")
	toStr := to.Format("15:04:05")

	query := `
		SELECT feeding_id, pond_id, feed_time::text
		FROM feeding_schedule
		WHERE feed_time >= $1 AND feed_time < $2
		ORDER BY feed_time, feeding_id`

	// 窗口跨午夜：例如 23:50 - 00:05
	if toStr < fromStr {
		query = `
		SELECT feeding_id, pond_id, feed_time::text
		FROM feeding_schedule
		WHERE feed_time >= $1 OR feed_time < $2
		ORDER BY feed_time, feeding_id`
	}

	rows, err := r.db.QueryContext(ctx, query, fromStr, toStr)
	if err != nil {
		return nil, fmt.Errorf("failed to query feeding schedule: %w", err)
	}
	defer rows.Close()

	var entries []models.FeedingScheduleEntry
	for rows.Next() {
		var e models.FeedingScheduleEntry
		if err := rows.Scan(&e.FeedingID, &e.PondID, &e.FeedTime); err != nil {
			return nil, fmt.Errorf("failed to scan feeding schedule row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate feeding schedule rows: %w", err)
	}

	r.logger.Debug("Loaded feeding schedule window",
		zap.String("from", fromStr),
		zap.String("to", toStr),
		zap.Int("entry_count", len(entries)),
	)

	return entries, nil
}
