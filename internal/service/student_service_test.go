package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type mockStudentRepo struct {
	students    map[string]models.Student
	nationalIDs map[string]bool
	deleted     []string
}

func (m *mockStudentRepo) List(ctx context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	return nil, 0, nil
}

func (m *mockStudentRepo) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return &models.StudentDetail{Student: s}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockStudentRepo) ExistsByNationalID(ctx context.Context, nationalID, excludeID string) (bool, error) {
	return m.nationalIDs[nationalID], nil
}

func (m *mockStudentRepo) Create(ctx context.Context, student *models.Student) error {
	if m.students == nil {
		m.students = make(map[string]models.Student)
	}
	if student.ID == "" {
		student.ID = "new-student"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *mockStudentRepo) UpdateStatus(ctx context.Context, id string, status models.StudentStatus) error {
	if s, ok := m.students[id]; ok {
		s.Status = status
		m.students[id] = s
	}
	return nil
}

func (m *mockStudentRepo) Delete(ctx context.Context, id string) error {
	delete(m.students, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newStudentFixture() (*mockStudentRepo, *housing.Store, *StudentService) {
	repo := &mockStudentRepo{students: map[string]models.Student{}, nationalIDs: map[string]bool{}}
	store := housing.NewStore()
	svc := NewStudentService(repo, store, validator.New(), zap.NewNop())
	return repo, store, svc
}

func TestStudentServiceCreate(t *testing.T) {
	repo, store, svc := newStudentFixture()

	detail, err := svc.Create(context.Background(), CreateStudentRequest{
		NationalID:  "29805120101234",
		FullName:    "Mona Adel",
		Gender:      "female",
		Faculty:     "Engineering",
		Level:       "2",
		Governorate: "Giza",
	})
	require.NoError(t, err)
	assert.Equal(t, models.StudentStatusPending, detail.Status)
	assert.Len(t, repo.students, 1)

	// Mirrored into the live housing state.
	mirrored, ok := store.GetStudent(detail.ID)
	require.True(t, ok)
	assert.Equal(t, "Mona Adel", mirrored.FullName)
}

func TestStudentServiceCreateDuplicateNationalID(t *testing.T) {
	repo, _, svc := newStudentFixture()
	repo.nationalIDs["29805120101234"] = true

	_, err := svc.Create(context.Background(), CreateStudentRequest{
		NationalID:  "29805120101234",
		FullName:    "Mona Adel",
		Gender:      "female",
		Faculty:     "Engineering",
		Level:       "2",
		Governorate: "Giza",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceUpdateKeepsHousingLink(t *testing.T) {
	repo, store, svc := newStudentFixture()
	roomID := "r101"
	repo.students["s1"] = models.Student{ID: "s1", NationalID: "29805120101234", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusHoused, RoomID: &roomID}
	store.UpsertStudent(repo.students["s1"])

	_, err := svc.Update(context.Background(), "s1", UpdateStudentRequest{
		FullName:    "Mona A. Hassan",
		Faculty:     "Engineering",
		Level:       "3",
		Governorate: "Giza",
	})
	require.NoError(t, err)

	mirrored, ok := store.GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, "Mona A. Hassan", mirrored.FullName)
	assert.Equal(t, models.StudentStatusHoused, mirrored.Status)
	require.NotNil(t, mirrored.RoomID)
	assert.Equal(t, "r101", *mirrored.RoomID)
}

func TestStudentServiceSetStatusRejectsHoused(t *testing.T) {
	repo, _, svc := newStudentFixture()
	repo.students["s1"] = models.Student{ID: "s1", Status: models.StudentStatusHoused}

	_, err := svc.SetStatus(context.Background(), "s1", models.StudentStatusRejected)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.SetStatus(context.Background(), "s1", models.StudentStatusHoused)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestStudentServiceDelete(t *testing.T) {
	repo, store, svc := newStudentFixture()
	repo.students["s1"] = models.Student{ID: "s1", Status: models.StudentStatusAccepted}
	store.UpsertStudent(repo.students["s1"])

	require.NoError(t, svc.Delete(context.Background(), "s1"))
	assert.Contains(t, repo.deleted, "s1")
	_, ok := store.GetStudent("s1")
	assert.False(t, ok)

	repo.students["s2"] = models.Student{ID: "s2", Status: models.StudentStatusHoused}
	err := svc.Delete(context.Background(), "s2")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}
