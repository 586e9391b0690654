package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sharthi/stall-marketplace/internal/repository"
)

const (
	trendMonths = 5
	weeksShown  = 4
)

type MonthAmount struct {
	Month  string
	Amount int64
}

type Dashboard struct {
	Revenue           int64
	StallsSold        int64
	TotalStalls       int64
	ActiveEvents      int64
	RevenueTrend      []MonthAmount
	BookingsThisMonth []int64
}

type OrganizerStats struct {
	TotalEvents   int64
	TotalBookings int64
	Revenue       int64
}

type DashboardService interface {
	Dashboard(ctx context.Context, organizerID string) (*Dashboard, error)
	Stats(ctx context.Context, organizerID string) (*OrganizerStats, error)
	RecentBookings(ctx context.Context, organizerID string) ([]models.Booking, error)
}

type dashboardService struct {
	eventRepo   repository.EventRepository
	bookingRepo repository.BookingRepository
	statsRepo   repository.StatsRepository
	clock       clock.Clock
}

func NewDashboardService(
	eventRepo repository.EventRepository,
	bookingRepo repository.BookingRepository,
	statsRepo repository.StatsRepository,
	clk clock.Clock,
) DashboardService {
	return &dashboardService{
		eventRepo:   eventRepo,
		bookingRepo: bookingRepo,
		statsRepo:   statsRepo,
		clock:       clk,
	}
}

func (s *dashboardService) Dashboard(ctx context.Context, organizerID string) (*Dashboard, error) {
	totals, err := s.statsRepo.Totals(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer totals: %w", err)
	}
	_, active, err := s.eventRepo.CountByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}

	now := s.clock.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	trendStart := monthStart.AddDate(0, -(trendMonths - 1), 0)

	monthly, err := s.statsRepo.RevenueByMonth(ctx, organizerID, trendStart)
	if err != nil {
		return nil, fmt.Errorf("revenue by month: %w", err)
	}
	weekly, err := s.statsRepo.BookingsByWeek(ctx, organizerID, monthStart, monthStart.AddDate(0, 1, 0))
	if err != nil {
		return nil, fmt.Errorf("bookings by week: %w", err)
	}

	return &Dashboard{
		Revenue:           totals.Revenue,
		StallsSold:        totals.StallsSold,
		TotalStalls:       totals.TotalStalls,
		ActiveEvents:      active,
		RevenueTrend:      fillTrend(trendStart, monthly),
		BookingsThisMonth: fillWeeks(weekly),
	}, nil
}

func (s *dashboardService) Stats(ctx context.Context, organizerID string) (*OrganizerStats, error) {
	total, _, err := s.eventRepo.CountByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("count events: %w", err)
	}
	totals, err := s.statsRepo.Totals(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("organizer totals: %w", err)
	}
	return &OrganizerStats{
		TotalEvents:   total,
		TotalBookings: totals.StallsSold,
		Revenue:       totals.Revenue,
	}, nil
}

func (s *dashboardService) RecentBookings(ctx context.Context, organizerID string) ([]models.Booking, error) {
	bookings, err := s.bookingRepo.ListActiveByOrganizer(ctx, organizerID)
	if err != nil {
		return nil, fmt.Errorf("list organizer bookings: %w", err)
	}
	return bookings, nil
}

// fillTrend returns one entry per month from start, zero where SQL had no row.
func fillTrend(start time.Time, rows []repository.MonthlyRevenue) []MonthAmount {
	byMonth := make(map[string]int64, len(rows))
	for _, r := range rows {
		byMonth[r.Month.UTC().Format("2006-01")] += r.Amount
	}
	trend := make([]MonthAmount, 0, trendMonths)
	for i := 0; i < trendMonths; i++ {
		m := start.AddDate(0, i, 0)
		trend = append(trend, MonthAmount{
			Month:  m.Format("Jan"),
			Amount: byMonth[m.Format("2006-01")],
		})
	}
	return trend
}

// fillWeeks keeps buckets 0..3; bookings on days 29-31 are not shown.
func fillWeeks(rows []repository.WeeklyCount) []int64 {
	weeks := make([]int64, weeksShown)
	for _, r := range rows {
		if r.Week >= 0 && r.Week < weeksShown {
			weeks[r.Week] += r.Count
		}
	}
	return weeks
}
