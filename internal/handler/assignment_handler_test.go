package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	"github.com/ZiadSaad78/student-sorter-hub/internal/service"
)

type fakeAssignmentRepo struct {
	persisted []models.Assignment
	released  []models.Assignment
	history   []models.AssignmentDetail
}

func (f *fakeAssignmentRepo) Persist(_ context.Context, a *models.Assignment) error {
	f.persisted = append(f.persisted, *a)
	return nil
}

func (f *fakeAssignmentRepo) Release(_ context.Context, a *models.Assignment) error {
	f.released = append(f.released, *a)
	return nil
}

func (f *fakeAssignmentRepo) FindDetailByID(_ context.Context, id string) (*models.AssignmentDetail, error) {
	for _, a := range f.persisted {
		if a.ID == id {
			return &models.AssignmentDetail{Assignment: a, StudentName: "Mona Adel", RoomNumber: "101"}, nil
		}
	}
	return nil, nil
}

func (f *fakeAssignmentRepo) History(context.Context, string, string, int, int) ([]models.AssignmentDetail, int, error) {
	return f.history, len(f.history), nil
}

func newAssignmentHandlerFixture(t *testing.T) (*AssignmentHandler, *fakeAssignmentRepo, *housing.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store := housing.NewStore()
	store.UpsertBuilding(models.Building{ID: "b1", Name: "North Hall", Gender: models.GenderFemale, Floors: 3})
	store.UpsertRoom(models.Room{ID: "r101", Number: "101", BuildingID: "b1", Floor: 1, Capacity: 2})
	store.UpsertStudent(models.Student{ID: "s1", FullName: "Mona Adel", Gender: models.GenderFemale, Status: models.StudentStatusAccepted})

	repo := &fakeAssignmentRepo{}
	svc := service.NewAssignmentService(housing.NewEngine(store, nil), repo, nil, nil, nil, nil)
	return NewAssignmentHandler(svc), repo, store
}

func jsonRequest(method, target, body string) *http.Request {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func TestAssignmentHandlerAssign(t *testing.T) {
	handler, repo, store := newAssignmentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/assignments", `{"student_id":"s1","room_id":"r101"}`)

	handler.Assign(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.persisted, 1)

	student, _ := store.GetStudent("s1")
	assert.Equal(t, models.StudentStatusHoused, student.Status)

	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "s1", envelope.Data["student_id"])
	assert.Equal(t, "101", envelope.Data["room_number"])
}

func TestAssignmentHandlerAssignRejectsIneligible(t *testing.T) {
	handler, repo, store := newAssignmentHandlerFixture(t)
	store.UpsertStudent(models.Student{ID: "s2", FullName: "Omar Samir", Gender: models.GenderMale, Status: models.StudentStatusPending})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/assignments", `{"student_id":"s2","room_id":"r101"}`)

	handler.Assign(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Empty(t, repo.persisted)
}

func TestAssignmentHandlerAssignInvalidPayload(t *testing.T) {
	handler, _, _ := newAssignmentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/assignments", `{"student_id":"s1"}`)

	handler.Assign(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssignmentHandlerUnassignNotAssigned(t *testing.T) {
	handler, _, _ := newAssignmentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodDelete, "/assignments", `{"student_id":"s1","room_id":"r101"}`)

	handler.Unassign(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAssignmentHandlerHistory(t *testing.T) {
	handler, repo, _ := newAssignmentHandlerFixture(t)
	repo.history = []models.AssignmentDetail{
		{Assignment: models.Assignment{ID: "a1", StudentID: "s1", RoomID: "r101", Active: true}, StudentName: "Mona Adel", RoomNumber: "101"},
	}

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/assignments?studentId=s1", nil)

	handler.History(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data       []map[string]interface{} `json:"data"`
		Pagination map[string]interface{}   `json:"pagination"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	assert.Equal(t, "a1", envelope.Data[0]["id"])
	assert.EqualValues(t, 1, envelope.Pagination["total_count"])
}
