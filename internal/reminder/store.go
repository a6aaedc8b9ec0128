package reminder

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"prawncare-monitor/internal/models"

	"github.com/google/uuid"
)

// Store 喂食提醒去重存储
// 不变式：任意时刻每个 feeding_id 至多一条活跃提醒
// 提醒只能由显式确认移除，不会因二次扫描或超时消失；
// 进程重启丢失属于可接受行为
type Store struct {
	mu        sync.Mutex
	reminders map[string]*models.Reminder // feeding_id -> 活跃提醒
}

// NewStore 创建去重存储
func NewStore() *Store {
	return &Store{
		reminders: make(map[string]*models.Reminder),
	}
}

// TryCreate 尝试为计划条目创建提醒
// 已存在活跃提醒时返回 (nil, false)，不产生重复分发
func (s *Store) TryCreate(entry models.FeedingScheduleEntry, now time.Time) (*models.Reminder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[entry.FeedingID]; exists {
		return nil, false
	}

	r := &models.Reminder{
		ReminderID: uuid.New().String(),
		FeedingID:  entry.FeedingID,
		PondID:     entry.PondID,
		Message:    fmt.Sprintf("Feeding time for pond %s at %s", entry.PondID, entry.FeedTime),
		CreatedAt:  now,
	}
	s.reminders[entry.FeedingID] = r

	out := *r
	return &out, true
}

// Acknowledge 确认并移除提醒
// 返回是否真的移除了；确认不存在的 feeding_id 不算错误
func (s *Store) Acknowledge(feedingID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.reminders[feedingID]; !exists {
		return false
	}
	delete(s.reminders, feedingID)
	return true
}

// ListActive 返回活跃提醒快照（按创建时间、feeding_id 排序的拷贝）
func (s *Store) ListActive() []models.Reminder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reminder, 0, len(s.reminders))
	for _, r := range s.reminders {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].FeedingID < out[j].FeedingID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len 当前活跃提醒数
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reminders)
}
