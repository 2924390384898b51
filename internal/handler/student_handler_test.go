package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZiadSaad78/student-sorter-hub/internal/housing"
	"github.com/ZiadSaad78/student-sorter-hub/internal/models"
	"github.com/ZiadSaad78/student-sorter-hub/internal/service"
)

type fakeStudentRepo struct {
	students map[string]models.StudentDetail
	created  []models.Student
}

func (f *fakeStudentRepo) List(_ context.Context, filter models.StudentFilter) ([]models.StudentDetail, int, error) {
	out := make([]models.StudentDetail, 0, len(f.students))
	for _, s := range f.students {
		if filter.Status != "" && string(s.Status) != filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (f *fakeStudentRepo) FindByID(_ context.Context, id string) (*models.StudentDetail, error) {
	if s, ok := f.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeStudentRepo) ExistsByNationalID(context.Context, string, string) (bool, error) {
	return false, nil
}

func (f *fakeStudentRepo) Create(_ context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "s-new"
	}
	f.created = append(f.created, *student)
	f.students[student.ID] = models.StudentDetail{Student: *student}
	return nil
}

func (f *fakeStudentRepo) Update(context.Context, *models.Student) error { return nil }

func (f *fakeStudentRepo) UpdateStatus(context.Context, string, models.StudentStatus) error {
	return nil
}

func (f *fakeStudentRepo) Delete(context.Context, string) error { return nil }

func newStudentHandlerFixture(t *testing.T) (*StudentHandler, *fakeStudentRepo) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := &fakeStudentRepo{students: map[string]models.StudentDetail{
		"s1": {Student: models.Student{
			ID: "s1", NationalID: "29805120102345", FullName: "Mona Adel",
			Gender: models.GenderFemale, Faculty: "Engineering", Level: "2",
			Governorate: "Giza", Status: models.StudentStatusAccepted,
		}},
	}}
	svc := service.NewStudentService(repo, housing.NewStore(), nil, nil)
	return NewStudentHandler(svc), repo
}

func TestStudentHandlerGet(t *testing.T) {
	handler, _ := newStudentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/s1", nil)
	c.Params = gin.Params{{Key: "id", Value: "s1"}}

	handler.Get(c)

	require.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data map[string]interface{} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Mona Adel", envelope.Data["full_name"])
}

func TestStudentHandlerGetNotFound(t *testing.T) {
	handler, _ := newStudentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, "/students/missing", nil)
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.Get(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStudentHandlerCreate(t *testing.T) {
	handler, repo := newStudentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/students", `{
		"national_id": "30011220104567",
		"full_name": "Omar Samir",
		"gender": "male",
		"faculty": "Science",
		"level": "1",
		"governorate": "Cairo"
	}`)

	handler.Create(c)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.Len(t, repo.created, 1)
	assert.Equal(t, models.StudentStatusPending, repo.created[0].Status)
}

func TestStudentHandlerCreateRejectsShortNationalID(t *testing.T) {
	handler, repo := newStudentHandlerFixture(t)

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = jsonRequest(http.MethodPost, "/students", `{
		"national_id": "123",
		"full_name": "Omar Samir",
		"gender": "male",
		"faculty": "Science",
		"level": "1",
		"governorate": "Cairo"
	}`)

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, repo.created)
}
