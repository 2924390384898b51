package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
)

func TestStudentRepositoryListFiltersByStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "national_id", "full_name", "gender", "faculty", "level", "governorate",
		"email", "phone", "status", "room_id", "created_at", "updated_at",
		"room_number", "building_id", "building_name",
	}).AddRow("stu-1", "29901011234567", "Sara Adel", models.GenderFemale, "Engineering", "2", "Cairo",
		"sara@example.com", "0100000000", models.StudentStatusAccepted, nil, time.Now(), time.Now(),
		nil, nil, nil)

	mock.ExpectQuery("SELECT .* FROM students s").
		WithArgs(string(models.StudentStatusAccepted)).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs(string(models.StudentStatusAccepted)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	students, total, err := repo.List(context.Background(), models.StudentFilter{Status: string(models.StudentStatusAccepted)})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, students, 1)
	require.Equal(t, "Sara Adel", students[0].FullName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryExistsByNationalID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM students WHERE national_id = $1 LIMIT 1")).
		WithArgs("29901011234567").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByNationalID(context.Background(), "29901011234567", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewStudentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE students SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("stu-1", models.StudentStatusAccepted, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), "stu-1", models.StudentStatusAccepted))
	require.NoError(t, mock.ExpectationsWereMet())
}
