package service

import (
	"context"
	"math"
	"time"

	"github.com/puzakroman35-sys/ohmatdyt-crm/internal/model"
	"gorm.io/gorm"
)

// StatsService computes the dashboard aggregates (ADMIN only at the HTTP
// boundary).
type StatsService struct {
	db *gorm.DB
}

func NewStatsService(db *gorm.DB) *StatsService {
	return &StatsService{db: db}
}

type Summary struct {
	Total    int64                      `json:"total"`
	ByStatus map[model.CaseStatus]int64 `json:"by_status"`
	DateFrom *time.Time                 `json:"date_from,omitempty"`
	DateTo   *time.Time                 `json:"date_to,omitempty"`
}

type StatusSlice struct {
	Status  model.CaseStatus `json:"status"`
	Count   int64            `json:"count"`
	Percent float64          `json:"percent"`
}

type StatusDistribution struct {
	Total    int64         `json:"total"`
	Items    []StatusSlice `json:"items"`
	DateFrom *time.Time    `json:"date_from,omitempty"`
	DateTo   *time.Time    `json:"date_to,omitempty"`
}

func (s *StatsService) scope(ctx context.Context, from, to *time.Time) *gorm.DB {
	tx := s.db.WithContext(ctx).Model(&model.Case{})
	if from != nil {
		tx = tx.Where("created_at >= ?", *from)
	}
	if to != nil {
		tx = tx.Where("created_at <= ?", *to)
	}
	return tx
}

type statusCount struct {
	Status model.CaseStatus
	Count  int64
}

func (s *StatsService) countByStatus(ctx context.Context, from, to *time.Time) ([]statusCount, int64, error) {
	var rows []statusCount
	err := s.scope(ctx, from, to).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	var total int64
	for _, r := range rows {
		total += r.Count
	}
	return rows, total, nil
}

// Summary returns the total case count and a count per status, zero-filled
// for statuses with no cases.
func (s *StatsService) Summary(ctx context.Context, from, to *time.Time) (*Summary, error) {
	rows, total, err := s.countByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	byStatus := make(map[model.CaseStatus]int64, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		byStatus[st] = 0
	}
	for _, r := range rows {
		byStatus[r.Status] = r.Count
	}
	return &Summary{Total: total, ByStatus: byStatus, DateFrom: from, DateTo: to}, nil
}

// Distribution returns per-status counts with percentages, suitable for a
// pie or bar chart.
func (s *StatsService) Distribution(ctx context.Context, from, to *time.Time) (*StatusDistribution, error) {
	rows, total, err := s.countByStatus(ctx, from, to)
	if err != nil {
		return nil, err
	}
	counts := make(map[model.CaseStatus]int64, len(rows))
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	items := make([]StatusSlice, 0, len(model.AllStatuses))
	for _, st := range model.AllStatuses {
		slice := StatusSlice{Status: st, Count: counts[st]}
		if total > 0 {
			slice.Percent = math.Round(float64(slice.Count)/float64(total)*10000) / 100
		}
		items = append(items, slice)
	}
	return &StatusDistribution{Total: total, Items: items, DateFrom: from, DateTo: to}, nil
}
