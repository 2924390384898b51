package service

import (
	"context"
	"errors"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type mockAssignmentRepo struct {
	persisted   []models.Assignment
	released    []models.Assignment
	failPersist bool
	failRelease bool
}

func (m *mockAssignmentRepo) Persist(ctx context.Context, a *models.Assignment) error {
	if m.failPersist {
		return errors.New("db down")
	}
	m.persisted = append(m.persisted, *a)
	return nil
}

func (m *mockAssignmentRepo) Release(ctx context.Context, a *models.Assignment) error {
	if m.failRelease {
		return errors.New("db down")
	}
	m.released = append(m.released, *a)
	return nil
}

func (m *mockAssignmentRepo) FindDetailByID(ctx context.Context, id string) (*models.AssignmentDetail, error) {
	for _, a := range m.persisted {
		if a.ID == id {
			return &models.AssignmentDetail{Assignment: a, StudentName: "Test Student"}, nil
		}
	}
	return nil, errors.New("not persisted")
}

func (m *mockAssignmentRepo) History(ctx context.Context, studentID, roomID string, page, pageSize int) ([]models.AssignmentDetail, int, error) {
	return nil, 0, nil
}

type mockAuditWriter struct {
	logs []models.AuditLog
}

func (m *mockAuditWriter) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	m.logs = append(m.logs, *log)
	return nil
}

func newAssignmentFixture() (*housing.Engine, *mockAssignmentRepo, *mockAuditWriter, *AssignmentService) {
	store := housing.NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "North Hall", Gender: models.GenderFemale, Floors: 3})
	store.UpsertRoom(models.Room{ID: "r101", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 2})
	store.UpsertStudent(models.Student{ID: "s1", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})

	engine := housing.NewEngine(store, zap.NewNop())
	repo := &mockAssignmentRepo{}
	audit := &mockAuditWriter{}
	svc := NewAssignmentService(engine, repo, audit, nil, validator.New(), zap.NewNop())
	return engine, repo, audit, svc
}

func TestAssignmentServiceAssign(t *testing.T) {
	engine, repo, audit, svc := newAssignmentFixture()

	detail, err := svc.Assign(context.Background(), AssignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Equal(t, "s1", detail.StudentID)
	assert.Len(t, repo.persisted, 1)

	student, ok := engine.Store().GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusHoused, student.Status)
	require.NotNil(t, student.RoomID)
	assert.Equal(t, "r101", *student.RoomID)

	require.Len(t, audit.logs, 1)
	assert.Equal(t, models.AuditActionAssign, audit.logs[0].Action)
}

func TestAssignmentServiceAssignRevertsOnPersistFailure(t *testing.T) {
	engine, repo, _, svc := newAssignmentFixture()
	repo.failPersist = true

	_, err := svc.Assign(context.Background(), AssignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	// The in-memory change must be rolled back.
	student, ok := engine.Store().GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusAccepted, student.Status)
	assert.Nil(t, student.RoomID)
	_, assigned := engine.Store().AssignmentFor("s1")
	assert.False(t, assigned)
}

func TestAssignmentServiceAssignRejectsIneligible(t *testing.T) {
	engine, repo, _, svc := newAssignmentFixture()
	engine.Store().UpsertStudent(models.Student{ID: "s2", FullName: "Omar Nabil", Gender: models.GenderMale, Status: models.StudentStatusPending})

	_, err := svc.Assign(context.Background(), AssignRoomRequest{StudentID: "s2", RoomID: "r101"}, "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrStudentNotEligible.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.persisted)
}

func TestAssignmentServiceUnassign(t *testing.T) {
	engine, repo, audit, svc := newAssignmentFixture()

	_, err := svc.Assign(context.Background(), AssignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.NoError(t, err)

	assignment, err := svc.Unassign(context.Background(), UnassignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.NoError(t, err)
	assert.Len(t, repo.released, 1)
	assert.Equal(t, assignment.ID, repo.released[0].ID)

	student, ok := engine.Store().GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusAccepted, student.Status)
	assert.Nil(t, student.RoomID)

	require.Len(t, audit.logs, 2)
	assert.Equal(t, models.AuditActionUnassign, audit.logs[1].Action)
}

func TestAssignmentServiceUnassignRestoresOnReleaseFailure(t *testing.T) {
	engine, repo, _, svc := newAssignmentFixture()

	_, err := svc.Assign(context.Background(), AssignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.NoError(t, err)

	repo.failRelease = true
	_, err = svc.Unassign(context.Background(), UnassignRoomRequest{StudentID: "s1", RoomID: "r101"}, "admin-1")
	require.Error(t, err)

	// The seat must still be held after the failed release.
	student, ok := engine.Store().GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusHoused, student.Status)
	require.NotNil(t, student.RoomID)
	assert.Equal(t, "r101", *student.RoomID)
}

func TestAssignmentServiceEligibleStudents(t *testing.T) {
	engine, _, _, svc := newAssignmentFixture()
	engine.Store().UpsertStudent(models.Student{ID: "s3", FullName: "Hala Samir", Gender: models.GenderFemale, Status: models.StudentStatusPending})

	students, err := svc.EligibleStudents("b1")
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "s1", students[0].ID)

	_, err = svc.EligibleStudents("missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
