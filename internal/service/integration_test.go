//go:build integration

package service_test

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sharthi/stall-marketplace/internal/clock"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/sharthi/stall-marketplace/internal/repository"
	"github.com/sharthi/stall-marketplace/internal/service"
	"github.com/sharthi/stall-marketplace/pkg/database"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testDB *gorm.DB

func TestMain(m *testing.M) {
	dsn := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		getEnv("TEST_DB_HOST", "localhost"),
		getEnv("TEST_DB_PORT", "5434"),
		getEnv("TEST_DB_USER", "postgres"),
		getEnv("TEST_DB_PASSWORD", "postgres"),
		getEnv("TEST_DB_NAME", "stall_marketplace_test"),
	)

	var err error
	testDB, err = database.NewPostgresDB(dsn)
	if err != nil {
		log.Fatalf("failed to connect to test database: %v", err)
	}

	// Drop and recreate tables for clean state
	testDB.Exec("DROP TABLE IF EXISTS bookings, stalls, events")
	if err := database.Migrate(testDB); err != nil {
		log.Fatalf("failed to migrate test database: %v", err)
	}

	code := m.Run()

	testDB.Exec("DROP TABLE IF EXISTS bookings, stalls, events")
	os.Exit(code)
}

func cleanTables() {
	testDB.Exec("DELETE FROM bookings")
	testDB.Exec("DELETE FROM stalls")
	testDB.Exec("DELETE FROM events")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newServices() (service.BookingService, service.StallService) {
	tx := repository.NewTransactor(testDB)
	eventRepo := repository.NewEventRepository(testDB)
	clk := clock.NewSystem()
	stallRepo := repository.NewStallRepository(testDB, clk)
	bookingRepo := repository.NewBookingRepository(testDB, clk)
	bookings := service.NewBookingService(tx, eventRepo, stallRepo, bookingRepo, nil, clk, discardLogger(), "https://sharthi.in")
	stalls := service.NewStallService(tx, eventRepo, stallRepo, bookingRepo, nil, clk, discardLogger())
	return bookings, stalls
}

func createTestStall(t *testing.T, qty int) *models.Stall {
	t.Helper()
	start := time.Now().Add(72 * time.Hour)
	event := &models.Event{ID: uuid.New(), OrganizerID: "org-1", Title: "Sunday Flea", CityID: "blr", StartAt: &start, Status: "active"}
	require.NoError(t, repository.NewEventRepository(testDB).Upsert(context.Background(), event))

	_, stalls := newServices()
	stall, err := stalls.CreateStall(context.Background(), "org-1", event.ID.String(), service.StallInput{
		Name: "Row A", Tier: "gold", Price: 2500, QtyTotal: qty,
	})
	require.NoError(t, err)
	return stall
}

func input(creator string, stall *models.Stall) service.CreateBookingInput {
	return service.CreateBookingInput{CreatorID: creator, EventID: stall.EventID.String(), StallID: stall.ID.String()}
}

func reload(t *testing.T, id uuid.UUID) models.Stall {
	t.Helper()
	var s models.Stall
	require.NoError(t, testDB.First(&s, "id = ?", id).Error)
	return s
}

func activeCount(stallID uuid.UUID) int64 {
	var n int64
	testDB.Model(&models.Booking{}).Where("stall_id = ? AND status <> ?", stallID, models.StatusCancelled).Count(&n)
	return n
}

// Test: 30 creators race for 10 units → exactly 10 bookings, qty_left 0
func TestConcurrentBooking(t *testing.T) {
	cleanTables()
	stall := createTestStall(t, 10)
	svc, _ := newServices()

	total := 30
	var wg sync.WaitGroup
	var mu sync.Mutex
	created, soldOut := 0, 0

	wg.Add(total)
	for i := 0; i < total; i++ {
		go func(i int) {
			defer wg.Done()
			_, err := svc.CreateBooking(t.Context(), input(fmt.Sprintf("creator-%03d", i), stall))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				created++
				return
			}
			assert.ErrorIs(t, err, service.ErrSoldOut)
			soldOut++
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 10, created)
	assert.Equal(t, 20, soldOut)
	assert.Equal(t, 0, reload(t, stall.ID).QtyLeft)
	assert.Equal(t, int64(10), activeCount(stall.ID))
}

// Test: same creator books concurrently → only one succeeds, capacity taken once
func TestConcurrentDoubleBooking(t *testing.T) {
	cleanTables()
	stall := createTestStall(t, 5)
	svc, _ := newServices()

	attempts := 10
	var wg sync.WaitGroup
	var mu sync.Mutex
	success := 0

	wg.Add(attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			defer wg.Done()
			if _, err := svc.CreateBooking(t.Context(), input("creator-same", stall)); err == nil {
				mu.Lock()
				success++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, service.ErrAlreadyBooked)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, 4, reload(t, stall.ID).QtyLeft)
	assert.Equal(t, int64(1), activeCount(stall.ID))
}

// Test: cancel gives the unit back and the same creator may book again
func TestCancelRestoresCapacity(t *testing.T) {
	cleanTables()
	stall := createTestStall(t, 1)
	svc, _ := newServices()

	b, err := svc.CreateBooking(t.Context(), input("creator-a", stall))
	require.NoError(t, err)
	_, err = svc.CreateBooking(t.Context(), input("creator-b", stall))
	assert.ErrorIs(t, err, service.ErrSoldOut)

	_, err = svc.CancelBooking(t.Context(), "creator-a", b.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 1, reload(t, stall.ID).QtyLeft)

	_, err = svc.CreateBooking(t.Context(), input("creator-a", stall))
	require.NoError(t, err)
	assert.Equal(t, int64(1), activeCount(stall.ID))
}

// Test: shrinking capacity below what is sold is rejected, the row stays as it was
func TestEditStallCapacity(t *testing.T) {
	cleanTables()
	stall := createTestStall(t, 4)
	svc, stalls := newServices()
	for _, c := range []string{"creator-a", "creator-b"} {
		_, err := svc.CreateBooking(t.Context(), input(c, stall))
		require.NoError(t, err)
	}

	one := 1
	_, err := stalls.EditStall(t.Context(), "org-1", stall.ID.String(), service.StallPatch{QtyTotal: &one})
	assert.ErrorIs(t, err, service.ErrCapacityBelowSold)
	got := reload(t, stall.ID)
	assert.Equal(t, 4, got.QtyTotal)
	assert.Equal(t, 2, got.QtyLeft)

	three := 3
	edited, err := stalls.EditStall(t.Context(), "org-1", stall.ID.String(), service.StallPatch{QtyTotal: &three})
	require.NoError(t, err)
	assert.Equal(t, 1, edited.QtyLeft)
	assert.Equal(t, 1, reload(t, stall.ID).QtyLeft)
}

// Test: the CHECK constraint refuses a qty_left above qty_total
func TestStallCheckConstraint(t *testing.T) {
	cleanTables()
	stall := createTestStall(t, 2)

	err := testDB.Exec("UPDATE stalls SET qty_left = qty_total + 1 WHERE id = ?", stall.ID).Error

	require.Error(t, err)
	assert.True(t, repository.IsCheckViolation(err))
}

// Test: delete only works while nothing was ever booked
func TestDeleteStall(t *testing.T) {
	cleanTables()
	sold := createTestStall(t, 2)
	unsold := createTestStall(t, 2)
	svc, stalls := newServices()
	_, err := svc.CreateBooking(t.Context(), input("creator-a", sold))
	require.NoError(t, err)

	assert.ErrorIs(t, stalls.DeleteStall(t.Context(), "org-1", sold.ID.String()), service.ErrStallHasSales)
	assert.NoError(t, stalls.DeleteStall(t.Context(), "org-1", unsold.ID.String()))

	var n int64
	testDB.Model(&models.Stall{}).Where("id = ?", unsold.ID).Count(&n)
	assert.Equal(t, int64(0), n)
}
