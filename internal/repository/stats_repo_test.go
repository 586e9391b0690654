package repository

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/sharthi/stall-marketplace/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestTotals_CountsStallRecords(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COALESCE(SUM(amount), 0) AS revenue, COUNT(*) AS sold FROM "bookings"`)).
		WithArgs("org-1", models.StatusCancelled).
		WillReturnRows(sqlmock.NewRows([]string{"revenue", "sold"}).AddRow(7500, 3))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "stalls" WHERE organizer_id = $1`)).
		WithArgs("org-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	totals, err := NewStatsRepository(db).Totals(context.Background(), "org-1")

	assert.NoError(t, err)
	assert.Equal(t, OrganizerTotals{Revenue: 7500, StallsSold: 3, TotalStalls: 2}, totals)
	assert.NoError(t, mock.ExpectationsWereMet())
}
