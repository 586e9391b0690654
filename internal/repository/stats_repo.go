package repository

import (
	"context"
	"time"

	"github.com/sharthi/stall-marketplace/internal/models"
	"gorm.io/gorm"
)

type MonthlyRevenue struct {
	Month  time.Time
	Amount int64
}

type WeeklyCount struct {
	Week  int
	Count int64
}

type OrganizerTotals struct {
	Revenue     int64
	StallsSold  int64
	TotalStalls int64
}

// StatsRepository aggregates an organizer's active bookings in SQL.
type StatsRepository interface {
	Totals(ctx context.Context, organizerID string) (OrganizerTotals, error)
	RevenueByMonth(ctx context.Context, organizerID string, since time.Time) ([]MonthlyRevenue, error)
	BookingsByWeek(ctx context.Context, organizerID string, monthStart, monthEnd time.Time) ([]WeeklyCount, error)
}

type statsRepository struct {
	db *gorm.DB
}

func NewStatsRepository(db *gorm.DB) StatsRepository {
	return &statsRepository{db: db}
}

func (r *statsRepository) Totals(ctx context.Context, organizerID string) (OrganizerTotals, error) {
	var totals OrganizerTotals
	row := struct {
		Revenue int64
		Sold    int64
	}{}
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("COALESCE(SUM(amount), 0) AS revenue, COUNT(*) AS sold").
		Where("organizer_id = ? AND status <> ?", organizerID, models.StatusCancelled).
		Scan(&row).Error
	if err != nil {
		return totals, err
	}
	totals.Revenue = row.Revenue
	totals.StallsSold = row.Sold

	err = r.db.WithContext(ctx).
		Model(&models.Stall{}).
		Where("organizer_id = ?", organizerID).
		Count(&totals.TotalStalls).Error
	return totals, err
}

func (r *statsRepository) RevenueByMonth(ctx context.Context, organizerID string, since time.Time) ([]MonthlyRevenue, error) {
	var rows []MonthlyRevenue
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("date_trunc('month', created_at AT TIME ZONE 'UTC') AS month, COALESCE(SUM(amount), 0) AS amount").
		Where("organizer_id = ? AND status <> ? AND created_at >= ?", organizerID, models.StatusCancelled, since).
		Group("month").
		Order("month ASC").
		Scan(&rows).Error
	return rows, err
}

// BookingsByWeek buckets bookings of one month by (day-1)/7, so days 29-31 land in week 4.
func (r *statsRepository) BookingsByWeek(ctx context.Context, organizerID string, monthStart, monthEnd time.Time) ([]WeeklyCount, error) {
	var rows []WeeklyCount
	err := r.db.WithContext(ctx).
		Model(&models.Booking{}).
		Select("((EXTRACT(DAY FROM created_at AT TIME ZONE 'UTC')::int - 1) / 7) AS week, COUNT(*) AS count").
		Where("organizer_id = ? AND status <> ? AND created_at >= ? AND created_at < ?",
			organizerID, models.StatusCancelled, monthStart, monthEnd).
		Group("week").
		Order("week ASC").
		Scan(&rows).Error
	return rows, err
}
