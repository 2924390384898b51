package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	appErrors "github.com/ZiadSaad78/student-sorter-hub/pkg/errors"
)

type mockApplicationRepo struct {
	applications map[string]models.Application
	windows      map[string]models.ApplicationWindow
	openWindow   *models.ApplicationWindow
	pendingFor   map[string]bool
	reviewed     map[string]models.ApplicationStatus
}

func (m *mockApplicationRepo) List(ctx context.Context, filter models.ApplicationFilter) ([]models.ApplicationDetail, int, error) {
	return nil, 0, nil
}

func (m *mockApplicationRepo) FindByID(ctx context.Context, id string) (*models.Application, error) {
	if a, ok := m.applications[id]; ok {
		return &a, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindDetailByID(ctx context.Context, id string) (*models.ApplicationDetail, error) {
	if a, ok := m.applications[id]; ok {
		return &models.ApplicationDetail{Application: a, StudentName: "Test Student"}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) ExistsPending(ctx context.Context, studentID string) (bool, error) {
	return m.pendingFor[studentID], nil
}

func (m *mockApplicationRepo) Create(ctx context.Context, application *models.Application) error {
	if m.applications == nil {
		m.applications = make(map[string]models.Application)
	}
	if application.ID == "" {
		application.ID = "new-app"
	}
	m.applications[application.ID] = *application
	return nil
}

func (m *mockApplicationRepo) Review(ctx context.Context, id string, status models.ApplicationStatus, reviewerID string, studentStatus models.StudentStatus) error {
	if m.reviewed == nil {
		m.reviewed = make(map[string]models.ApplicationStatus)
	}
	m.reviewed[id] = status
	if a, ok := m.applications[id]; ok {
		a.Status = status
		a.ReviewedBy = &reviewerID
		m.applications[id] = a
	}
	return nil
}

func (m *mockApplicationRepo) CreateWindow(ctx context.Context, window *models.ApplicationWindow) error {
	if m.windows == nil {
		m.windows = make(map[string]models.ApplicationWindow)
	}
	if window.ID == "" {
		window.ID = "new-window"
	}
	m.windows[window.ID] = *window
	return nil
}

func (m *mockApplicationRepo) UpdateWindow(ctx context.Context, window *models.ApplicationWindow) error {
	m.windows[window.ID] = *window
	return nil
}

func (m *mockApplicationRepo) ListWindows(ctx context.Context) ([]models.ApplicationWindow, error) {
	var list []models.ApplicationWindow
	for _, w := range m.windows {
		list = append(list, w)
	}
	return list, nil
}

func (m *mockApplicationRepo) FindWindowByID(ctx context.Context, id string) (*models.ApplicationWindow, error) {
	if w, ok := m.windows[id]; ok {
		return &w, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockApplicationRepo) FindOpenWindow(ctx context.Context, at time.Time) (*models.ApplicationWindow, error) {
	if m.openWindow == nil {
		return nil, sql.ErrNoRows
	}
	return m.openWindow, nil
}

type mockApplicantReader struct {
	students map[string]*models.StudentDetail
}

func (m *mockApplicantReader) FindByID(ctx context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockNotificationWriter struct {
	created []models.Notification
}

func (m *mockNotificationWriter) Create(ctx context.Context, n *models.Notification) error {
	m.created = append(m.created, *n)
	return nil
}

func newApplicationFixture() (*mockApplicationRepo, *mockNotificationWriter, *housing.Store, *ApplicationService) {
	repo := &mockApplicationRepo{
		openWindow: &models.ApplicationWindow{ID: "w1", Name: "Fall Intake", Active: true},
	}
	students := &mockApplicantReader{students: map[string]*models.StudentDetail{
		"s1": {Student: models.Student{ID: "s1", FullName: "Mona Adel", Status: models.StudentStatusPending}},
	}}
	notifications := &mockNotificationWriter{}
	store := housing.NewStore()
	store.UpsertStudent(models.Student{ID: "s1", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusPending})

	svc := NewApplicationService(repo, students, notifications, &mockAuditWriter{}, store, validator.New(), zap.NewNop())
	return repo, notifications, store, svc
}

func TestApplicationServiceSubmit(t *testing.T) {
	repo, _, _, svc := newApplicationFixture()

	detail, err := svc.Submit(context.Background(), SubmitApplicationRequest{StudentID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusPending, detail.Status)
	require.NotNil(t, detail.WindowID)
	assert.Equal(t, "w1", *detail.WindowID)
	assert.Len(t, repo.applications, 1)
}

func TestApplicationServiceSubmitRequiresOpenWindow(t *testing.T) {
	repo, _, _, svc := newApplicationFixture()
	repo.openWindow = nil

	_, err := svc.Submit(context.Background(), SubmitApplicationRequest{StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceSubmitRejectsDuplicatePending(t *testing.T) {
	repo, _, _, svc := newApplicationFixture()
	repo.pendingFor = map[string]bool{"s1": true}

	_, err := svc.Submit(context.Background(), SubmitApplicationRequest{StudentID: "s1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceAccept(t *testing.T) {
	repo, notifications, store, svc := newApplicationFixture()
	repo.applications = map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusPending},
	}

	detail, err := svc.Accept(context.Background(), "a1", "admin-1")
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusAccepted, detail.Status)
	assert.Equal(t, models.ApplicationStatusAccepted, repo.reviewed["a1"])

	// The student becomes eligible in the live housing state too.
	student, ok := store.GetStudent("s1")
	require.True(t, ok)
	assert.Equal(t, models.StudentStatusAccepted, student.Status)

	require.Len(t, notifications.created, 1)
	assert.Equal(t, "s1", notifications.created[0].StudentID)
}

func TestApplicationServiceRejectAlreadyReviewed(t *testing.T) {
	repo, _, _, svc := newApplicationFixture()
	repo.applications = map[string]models.Application{
		"a1": {ID: "a1", StudentID: "s1", Status: models.ApplicationStatusAccepted},
	}

	_, err := svc.Reject(context.Background(), "a1", "admin-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)
}

func TestApplicationServiceCreateWindowValidatesDates(t *testing.T) {
	_, _, _, svc := newApplicationFixture()

	start := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.CreateWindow(context.Background(), CreateWindowRequest{
		Name:      "Spring Intake",
		StartDate: start,
		EndDate:   start.Add(-24 * time.Hour),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	window, err := svc.CreateWindow(context.Background(), CreateWindowRequest{
		Name:      "Spring Intake",
		StartDate: start,
		EndDate:   start.Add(30 * 24 * time.Hour),
		Active:    true,
	})
	require.NoError(t, err)
	assert.True(t, window.Active)
}
