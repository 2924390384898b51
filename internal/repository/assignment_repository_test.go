package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryPersist(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	a := &models.Assignment{
		ID:         "asg-1",
		StudentID:  "stu-1",
		RoomID:     "room-1",
		AssignedAt: time.Now().UTC(),
		Active:     true,
	}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET status = $2, room_id = $3, updated_at = $4 WHERE id = $1")).
		WithArgs("stu-1", models.StudentStatusHoused, "room-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Persist(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryRelease(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	a := &models.Assignment{ID: "asg-1", StudentID: "stu-1", RoomID: "room-1", Active: true}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET active = FALSE WHERE id = $1 AND active = TRUE")).
		WithArgs("asg-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET status = $2, room_id = NULL, updated_at = $3 WHERE id = $1")).
		WithArgs("stu-1", models.StudentStatusAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Release(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryPersistRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	a := &models.Assignment{ID: "asg-1", StudentID: "stu-1", RoomID: "room-1", Active: true}

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO assignments").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	require.Error(t, repo.Persist(context.Background(), a))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"id", "student_id", "room_id", "assigned_at", "active"}).
		AddRow("asg-1", "stu-1", "room-1", time.Now(), true).
		AddRow("asg-2", "stu-2", "room-1", time.Now(), true)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, student_id, room_id, assigned_at, active FROM assignments WHERE active = TRUE ORDER BY assigned_at ASC")).
		WillReturnRows(rows)

	assignments, err := repo.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, assignments, 2)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountActiveByRoom(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{"room_id", "n"}).
		AddRow("room-1", 2).
		AddRow("room-2", 1)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT room_id, COUNT(*) AS n FROM assignments WHERE active = TRUE GROUP BY room_id")).
		WillReturnRows(rows)

	counts, err := repo.CountActiveByRoom(context.Background())
	require.NoError(t, err)
	require.Equal(t, map[string]int{"room-1": 2, "room-2": 1}, counts)
	require.NoError(t, mock.ExpectationsWereMet())
}
