package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnhub/backend/assets"
	"learnhub/backend/config"
	"learnhub/backend/utils"
)

var (
	app     *fiber.App
	cfg     *config.Config
	cleanup func()
)

func TestMain(m *testing.M) {
	setup()
	code := m.Run()
	cleanup()
	os.Exit(code)
}

func setup() {
	cfg = &config.Config{
		DBDriver:         "sqlite",
		SQLitePath:       "file::memory:?cache=shared",
		JWTSecret:        "testsecret",
		JWTTTL:           time.Hour,
		LogMode:          "prod",
		LedgerMaxRetries: 3,
	}

	log := utils.NopLogger()
	s, closeStore, err := utils.OpenStore(context.Background(), cfg, log)
	if err != nil {
		panic(err)
	}
	cleanup = closeStore

	app = fiber.New()
	svc := NewServices(s, nil, assets.NewMemoryUploader("https://cdn.test"), cfg, log)
	SetupRoutes(app, svc, cfg)
}

type envelope struct {
	Success bool              `json:"success"`
	Data    json.RawMessage   `json:"data"`
	Code    string            `json:"code"`
	Details map[string]string `json:"details"`
	Total   int64             `json:"total"`
}

func call(t *testing.T, method, path, token string, body interface{}) (int, envelope) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)

	var env envelope
	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	if len(raw) > 0 {
		require.NoError(t, json.Unmarshal(raw, &env), string(raw))
	}
	return resp.StatusCode, env
}

func decode(t *testing.T, env envelope, out interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(env.Data, out))
}

func register(t *testing.T, name, email, role string) string {
	t.Helper()
	status, env := call(t, "POST", "/api/auth/register", "", map[string]string{
		"name": name, "email": email, "password": "password123", "role": role,
	})
	require.Equal(t, fiber.StatusCreated, status)
	var out struct {
		Token string `json:"token"`
	}
	decode(t, env, &out)
	require.NotEmpty(t, out.Token)
	return out.Token
}

func TestAuth(t *testing.T) {
	register(t, "Login User", "login@example.com", "")

	status, env := call(t, "POST", "/api/auth/login", "", map[string]string{"email": "login@example.com", "password": "password123"})
	assert.Equal(t, fiber.StatusOK, status)
	var out struct {
		Token string                 `json:"token"`
		User  map[string]interface{} `json:"user"`
	}
	decode(t, env, &out)
	assert.NotEmpty(t, out.Token)
	assert.Equal(t, "learner", out.User["role"])

	status, _ = call(t, "POST", "/api/auth/login", "", map[string]string{"email": "login@example.com", "password": "nope-nope"})
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, _ = call(t, "POST", "/api/auth/register", "", map[string]string{
		"name": "Root", "email": "root@example.com", "password": "password123", "role": "admin",
	})
	assert.Equal(t, fiber.StatusForbidden, status)

	status, _ = call(t, "GET", "/api/user/profile", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, status)

	status, env = call(t, "PUT", "/api/user/profile", out.Token, map[string]string{"name": "Renamed"})
	assert.Equal(t, fiber.StatusOK, status)
	status, env = call(t, "GET", "/api/user/profile", out.Token, nil)
	assert.Equal(t, fiber.StatusOK, status)
	var profile map[string]interface{}
	decode(t, env, &profile)
	assert.Equal(t, "Renamed", profile["name"])
	assert.Equal(t, "learner", profile["role"])
}

func TestLearnerJourney(t *testing.T) {
	instructor := register(t, "Rob Pike", "rob@example.com", "instructor")
	learner := register(t, "Ann", "ann@example.com", "learner")

	var courseID string
	t.Run("CreateCourse", func(t *testing.T) {
		status, _ := call(t, "POST", "/api/admin/courses", learner, map[string]interface{}{"title": "Nope", "instructor": "Ann"})
		assert.Equal(t, fiber.StatusForbidden, status)

		status, env := call(t, "POST", "/api/admin/courses", instructor, map[string]interface{}{
			"title":    "Concurrency in Go",
			"level":    "Advanced",
			"category": "Programming",
			"price":    49,
			"lectures": []map[string]string{{"title": "Goroutines"}, {"title": "Channels"}},
		})
		require.Equal(t, fiber.StatusCreated, status)
		var course map[string]interface{}
		decode(t, env, &course)
		courseID = course["id"].(string)
		assert.Equal(t, "Rob Pike", course["instructor"])
	})

	t.Run("Browse", func(t *testing.T) {
		status, env := call(t, "GET", "/api/courses?search=CONCURRENCY&level=advanced", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, env.Total)

		status, _ = call(t, "GET", "/api/courses?page=0", "", nil)
		assert.Equal(t, fiber.StatusBadRequest, status)

		status, env = call(t, "GET", "/api/courses?page=3&page_size=9223372036854775807", "", nil)
		assert.Equal(t, fiber.StatusOK, status)
		assert.EqualValues(t, 1, env.Total)
		assert.JSONEq(t, "[]", string(env.Data))

		status, _ = call(t, "GET", "/api/courses/missing", "", nil)
		assert.Equal(t, fiber.StatusNotFound, status)
	})

	t.Run("EnrollAndProgress", func(t *testing.T) {
		status, _ := call(t, "POST", "/api/courses/"+courseID+"/enroll", learner, nil)
		assert.Equal(t, fiber.StatusCreated, status)
		status, env := call(t, "POST", "/api/courses/"+courseID+"/enroll", learner, nil)
		assert.Equal(t, fiber.StatusConflict, status)
		assert.Equal(t, "already_enrolled", env.Code)

		var update struct {
			Percent       int  `json:"percent"`
			JustCompleted bool `json:"justCompleted"`
		}
		status, env = call(t, "PUT", "/api/courses/"+courseID+"/lectures/0", learner, map[string]bool{"completed": true})
		require.Equal(t, fiber.StatusOK, status)
		decode(t, env, &update)
		assert.Equal(t, 50, update.Percent)
		assert.False(t, update.JustCompleted)

		status, env = call(t, "PUT", "/api/courses/"+courseID+"/lectures/1", learner, map[string]bool{"completed": true})
		require.Equal(t, fiber.StatusOK, status)
		decode(t, env, &update)
		assert.Equal(t, 100, update.Percent)
		assert.True(t, update.JustCompleted)

		status, _ = call(t, "PUT", "/api/courses/"+courseID+"/lectures/5", learner, map[string]bool{"completed": true})
		assert.Equal(t, fiber.StatusBadRequest, status)
	})

	var assignmentID string
	t.Run("Assignments", func(t *testing.T) {
		bad := map[string]interface{}{
			"title": "Quiz",
			"questions": []map[string]interface{}{
				{"text": "Q1", "options": []map[string]interface{}{{"text": "a", "isCorrect": true}, {"text": "b", "isCorrect": true}}},
			},
		}
		status, env := call(t, "POST", "/api/admin/assignments", instructor, bad)
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Contains(t, env.Details, "questions[0]")

		good := map[string]interface{}{
			"title":    "Quiz",
			"courseId": courseID,
			"questions": []map[string]interface{}{
				{"text": "Q1", "options": []map[string]interface{}{{"text": "a", "isCorrect": true}, {"text": "b"}}},
				{"text": "Q2", "options": []map[string]interface{}{{"text": "a"}, {"text": "b", "isCorrect": true}}},
			},
		}
		status, env = call(t, "POST", "/api/admin/assignments", instructor, good)
		require.Equal(t, fiber.StatusCreated, status)
		var created map[string]interface{}
		decode(t, env, &created)
		assignmentID = created["id"].(string)

		status, env = call(t, "GET", "/api/assignments/"+assignmentID, learner, nil)
		require.Equal(t, fiber.StatusOK, status)
		assert.NotContains(t, string(env.Data), "isCorrect")
		assert.Contains(t, string(env.Data), `"status":"pending"`)

		status, _ = call(t, "POST", "/api/assignments/"+assignmentID+"/submit", learner, map[string]interface{}{"selections": []interface{}{0, nil}})
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)

		status, env = call(t, "POST", "/api/assignments/"+assignmentID+"/submit", learner, map[string]interface{}{"selections": []int{0, 0}})
		require.Equal(t, fiber.StatusCreated, status)
		var sub struct {
			Score  float64 `json:"score"`
			Status string  `json:"status"`
		}
		decode(t, env, &sub)
		assert.Equal(t, 50.0, sub.Score)
		assert.Equal(t, "submitted", sub.Status)
	})

	t.Run("Dashboards", func(t *testing.T) {
		status, env := call(t, "GET", "/api/dashboard", learner, nil)
		require.Equal(t, fiber.StatusOK, status)
		var ld struct {
			Learner struct {
				TotalEnrolled         int     `json:"totalEnrolled"`
				TotalCoursesCompleted int     `json:"totalCoursesCompleted"`
				AverageScore          float64 `json:"averageScore"`
			} `json:"learner"`
		}
		decode(t, env, &ld)
		assert.Equal(t, 1, ld.Learner.TotalEnrolled)
		assert.Equal(t, 1, ld.Learner.TotalCoursesCompleted)
		assert.Equal(t, 50.0, ld.Learner.AverageScore)

		status, env = call(t, "GET", "/api/dashboard", instructor, nil)
		require.Equal(t, fiber.StatusOK, status)
		var id struct {
			Instructor struct {
				Courses []struct {
					Enrollments int `json:"enrollments"`
					Completed   int `json:"completed"`
				} `json:"courses"`
			} `json:"instructor"`
		}
		decode(t, env, &id)
		require.Len(t, id.Instructor.Courses, 1)
		assert.Equal(t, 1, id.Instructor.Courses[0].Enrollments)
		assert.Equal(t, 1, id.Instructor.Courses[0].Completed)
	})

	t.Run("Assets", func(t *testing.T) {
		status, _ := call(t, "POST", "/api/assets", learner, map[string]string{"url": "https://example.com/a.png"})
		assert.Equal(t, fiber.StatusForbidden, status)
		status, env := call(t, "POST", "/api/assets", instructor, map[string]string{"url": "not a url"})
		assert.Equal(t, fiber.StatusUnprocessableEntity, status)
		assert.Contains(t, env.Details, "url")
	})

	t.Run("DeletedCourseIsPruned", func(t *testing.T) {
		status, _ := call(t, "DELETE", "/api/admin/courses/"+courseID, instructor, nil)
		require.Equal(t, fiber.StatusNoContent, status)

		status, env := call(t, "GET", "/api/enrollments", learner, nil)
		require.Equal(t, fiber.StatusOK, status)
		var ledger struct {
			EnrolledCourseIDs []string       `json:"enrolledCourseIds"`
			ProgressPercent   map[string]int `json:"progressPercent"`
		}
		decode(t, env, &ledger)
		assert.Empty(t, ledger.EnrolledCourseIDs)
		assert.Empty(t, ledger.ProgressPercent)

		status, _ = call(t, "DELETE", "/api/courses/"+courseID+"/enroll", learner, nil)
		assert.Equal(t, fiber.StatusConflict, status)
	})
}
