package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/medtracker/config"
	"github.com/oksasatya/medtracker/internal/container"
	"github.com/oksasatya/medtracker/internal/domain/repository/repotest"
	"github.com/oksasatya/medtracker/internal/interface/middleware"
	"github.com/oksasatya/medtracker/internal/router"
	"github.com/oksasatya/medtracker/pkg/helpers"
	"github.com/oksasatya/medtracker/pkg/validation"
)

const strongPwd = "Secret123!"

type api struct {
	t       *testing.T
	engine  *gin.Engine
	users   *repotest.Users
	records *repotest.Records
}

type envelope struct {
	Status  int             `json:"status"`
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   map[string]any  `json:"error"`
}

func newAPI(t *testing.T) *api {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	container.Reset()
	t.Cleanup(container.Reset)
	container.SetConfig(&config.Config{AppName: "medtracker", Timezone: "UTC", JWTTTL: time.Hour})
	container.SetJWT(helpers.NewJWTManager("test-secret", time.Hour))
	container.SetRedis(rdb)

	a := &api{t: t, users: repotest.NewUsers(), records: repotest.NewRecords()}
	a.engine = gin.New()
	a.engine.Use(middleware.RequestIDMiddleware())
	reg := router.NewRegistry(a.engine, "/api", nil)
	router.Mount(reg, router.BuildServices(a.users, a.records))
	reg.RegisterAll()
	return a
}

func (a *api) do(method, path, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(a.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, into any) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	if into != nil {
		require.NoError(t, json.Unmarshal(env.Data, into))
	}
	return env
}

func (a *api) register(email string) {
	a.t.Helper()
	w := a.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"first_name":    "Jane",
		"last_name":     "Doe",
		"email":         email,
		"password":      strongPwd,
		"gender":        "Female",
		"date_of_birth": "1990-05-20",
	})
	require.Equal(a.t, http.StatusCreated, w.Code, w.Body.String())
}

func (a *api) login(path, email, password string) (string, *httptest.ResponseRecorder) {
	a.t.Helper()
	w := a.do(http.MethodPost, path, "", map[string]any{"email": email, "password": password})
	if w.Code != http.StatusOK {
		return "", w
	}
	var sess struct {
		Token string `json:"token"`
	}
	decode(a.t, w, &sess)
	return sess.Token, w
}

func (a *api) userToken(email string) string {
	a.t.Helper()
	a.register(email)
	tok, w := a.login("/api/users/login", email, strongPwd)
	require.NotEmpty(a.t, tok, w.Body.String())
	return tok
}

func measurement() map[string]any {
	return map[string]any{
		"height":                   "170",
		"weight":                   65,
		"blood_pressure_systolic":  118,
		"blood_pressure_diastolic": 76,
		"blood_sugar":              "90",
		"heart_rate":               70,
		"cholesterol":              180,
		"hemoglobin":               14,
	}
}

func TestRegisterValidation(t *testing.T) {
	a := newAPI(t)
	a.register("jane@example.com")

	w := a.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"first_name": "Jane", "last_name": "Doe", "email": "JANE@example.com", "password": strongPwd,
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = a.do(http.MethodPost, "/api/users/register", "", map[string]any{
		"first_name": "Bo", "last_name": "Li", "email": "bo@example.com", "password": "weakpass", "gender": "Robot",
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env := decode(t, w, nil)
	assert.Contains(t, env.Error, "password")
	assert.Contains(t, env.Error, "gender")

	w = a.do(http.MethodPost, "/api/users/register", "", map[string]any{"email": "x@example.com"})
	require.Equal(t, http.StatusBadRequest, w.Code)
	env = decode(t, w, nil)
	assert.Contains(t, env.Error, "first_name")
}

func TestLoginAndProfile(t *testing.T) {
	a := newAPI(t)
	a.register("jane@example.com")

	_, w := a.login("/api/users/login", "jane@example.com", "Wrong123!")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	tok, _ := a.login("/api/users/login", "Jane@Example.com", strongPwd)
	require.NotEmpty(t, tok)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/users/profile", "", nil).Code)

	var profile struct {
		Email       string  `json:"email"`
		Name        string  `json:"name"`
		DateOfBirth *string `json:"date_of_birth"`
		Age         *int    `json:"age"`
	}
	w = a.do(http.MethodGet, "/api/users/profile", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &profile)
	assert.Equal(t, "jane@example.com", profile.Email)
	assert.Equal(t, "Jane Doe", profile.Name)
	require.NotNil(t, profile.DateOfBirth)
	assert.Equal(t, "1990-05-20", *profile.DateOfBirth)
	assert.NotNil(t, profile.Age)

	w = a.do(http.MethodPut, "/api/users/profile", tok, map[string]any{"first_name": "Janet", "address": "1 Main St"})
	require.Equal(t, http.StatusOK, w.Code)
	w = a.do(http.MethodGet, "/api/users/details", tok, nil)
	decode(t, w, &profile)
	assert.Equal(t, "Janet Doe", profile.Name)

	w = a.do(http.MethodPut, "/api/users/profile", tok, map[string]any{"date_of_birth": "20-05-1990"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPasswordChangeAndLogout(t *testing.T) {
	a := newAPI(t)
	tok := a.userToken("jane@example.com")

	w := a.do(http.MethodPut, "/api/users/password", tok, map[string]any{"current_password": "Nope123!", "new_password": "Another1!"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = a.do(http.MethodPut, "/api/users/password", tok, map[string]any{"current_password": strongPwd, "new_password": "short"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = a.do(http.MethodPut, "/api/users/password", tok, map[string]any{"current_password": strongPwd, "new_password": "Another1!"})
	require.Equal(t, http.StatusOK, w.Code)

	_, w = a.login("/api/users/login", "jane@example.com", strongPwd)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	tok, _ = a.login("/api/users/login", "jane@example.com", "Another1!")
	require.NotEmpty(t, tok)

	require.Equal(t, http.StatusOK, a.do(http.MethodPost, "/api/users/logout", tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/users/profile", tok, nil).Code)
}

func TestNewLoginReplacesSession(t *testing.T) {
	a := newAPI(t)
	first := a.userToken("jane@example.com")
	second, _ := a.login("/api/users/login", "jane@example.com", strongPwd)
	require.NotEmpty(t, second)

	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/users/profile", first, nil).Code)
	assert.Equal(t, http.StatusOK, a.do(http.MethodGet, "/api/users/profile", second, nil).Code)
}

func TestSelfDeactivate(t *testing.T) {
	a := newAPI(t)
	tok := a.userToken("jane@example.com")

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/users/delete", tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/health", tok, nil).Code)

	_, w := a.login("/api/users/login", "jane@example.com", strongPwd)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, decode(t, w, nil).Message, "deactivated")
}

type recordJSON struct {
	ID              string   `json:"id"`
	RecordDate      string   `json:"record_date"`
	Height          float64  `json:"height"`
	BMI             float64  `json:"bmi"`
	Hemoglobin      *float64 `json:"hemoglobin"`
	RBCCount        *float64 `json:"rbc_count"`
	Classifications []struct {
		Metric string `json:"metric"`
		Label  string `json:"label"`
		Color  string `json:"color"`
	} `json:"classifications"`
}

func TestHealthRecordLifecycle(t *testing.T) {
	a := newAPI(t)
	tok := a.userToken("jane@example.com")

	var first recordJSON
	w := a.do(http.MethodPost, "/api/health", tok, measurement())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	decode(t, w, &first)
	assert.Equal(t, 22.49, first.BMI)
	assert.Equal(t, time.Now().UTC().Format("2006-01-02"), first.RecordDate)
	require.NotNil(t, first.Hemoglobin)
	assert.Nil(t, first.RBCCount)
	labels := map[string]string{}
	for _, c := range first.Classifications {
		labels[c.Metric] = c.Label
	}
	assert.Equal(t, "Normal", labels["bmi"])
	assert.Equal(t, "Normal", labels["hemoglobin"])
	assert.NotContains(t, labels, "rbc_count")

	m := measurement()
	m["weight"] = 80
	var second recordJSON
	w = a.do(http.MethodPost, "/api/health", tok, m)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &second)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 27.68, second.BMI)

	var list []recordJSON
	w = a.do(http.MethodGet, "/api/health", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &list)
	require.Len(t, list, 1)
	assert.Equal(t, 1, a.records.Live())

	w = a.do(http.MethodGet, "/api/health/trend", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "null", string(decode(t, w, nil).Data))

	w = a.do(http.MethodGet, "/api/health/"+first.ID+"/report", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "medical-record-")
	assert.True(t, bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")))

	w = a.do(http.MethodGet, "/api/health/trend/chart", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "text/html")

	assert.Equal(t, http.StatusServiceUnavailable, a.do(http.MethodPost, "/api/health/"+first.ID+"/report/archive", tok, nil).Code)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/health/"+first.ID, tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/health/"+first.ID, tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/health/"+first.ID+"/report", tok, nil).Code)
}

func TestHealthRecordValidation(t *testing.T) {
	a := newAPI(t)
	tok := a.userToken("jane@example.com")

	m := measurement()
	m["height"] = "tall"
	w := a.do(http.MethodPost, "/api/health", tok, m)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "must be a number", decode(t, w, nil).Error["height"])

	m = measurement()
	delete(m, "cholesterol")
	w = a.do(http.MethodPost, "/api/health", tok, m)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode(t, w, nil).Error, "cholesterol")

	m = measurement()
	m["height"] = 0
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodPost, "/api/health", tok, m).Code)
	assert.Equal(t, 0, a.records.Live())
}

func TestRecordsAreScopedToOwner(t *testing.T) {
	a := newAPI(t)
	jane := a.userToken("jane@example.com")
	bob := a.userToken("bob@example.com")

	var rec recordJSON
	w := a.do(http.MethodPost, "/api/health", jane, measurement())
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &rec)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/health/"+rec.ID, bob, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/health/"+rec.ID+"/report", bob, nil).Code)
	assert.Equal(t, 1, a.records.Live())
}

func TestAdminRoutes(t *testing.T) {
	a := newAPI(t)
	jane := a.userToken("jane@example.com")
	a.register("admin@example.com")

	assert.Equal(t, http.StatusForbidden, a.do(http.MethodGet, "/api/admin/users", jane, nil).Code)

	_, w := a.login("/api/admin/auth/login", "admin@example.com", strongPwd)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin, err := a.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, a.users.SetAdmin(context.Background(), admin.ID, true))

	tok, w := a.login("/api/admin/auth/login", "admin@example.com", strongPwd)
	require.NotEmpty(t, tok, w.Body.String())

	var users []struct {
		ID      string `json:"id"`
		Email   string `json:"email"`
		IsAdmin bool   `json:"is_admin"`
	}
	w = a.do(http.MethodGet, "/api/admin/users", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &users)
	require.Len(t, users, 2)

	janeUser, err := a.users.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)

	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"health_data":[]`)

	var rec recordJSON
	w = a.do(http.MethodPost, "/api/health", jane, measurement())
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &rec)

	var view struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		HealthData []recordJSON `json:"health_data"`
	}
	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &view)
	assert.Equal(t, "jane@example.com", view.User.Email)
	require.Len(t, view.HealthData, 1)

	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health/export", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "spreadsheetml")

	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health/"+rec.ID+"/report", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, http.StatusNotFound, a.do(http.MethodGet, "/api/admin/users/nobody/health", tok, nil).Code)

	w = a.do(http.MethodGet, "/api/admin/users/search?q=jane", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "[]", string(decode(t, w, nil).Data))
	assert.Equal(t, http.StatusBadRequest, a.do(http.MethodGet, "/api/admin/users/search", tok, nil).Code)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/admin/users/"+janeUser.ID+"/health/"+rec.ID, tok, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(http.MethodDelete, "/api/admin/users/"+janeUser.ID+"/health/"+rec.ID, tok, nil).Code)

	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/admin/users/"+janeUser.ID, tok, nil).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(http.MethodGet, "/api/users/profile", jane, nil).Code)
}

func TestMalformedIDsAreNotFound(t *testing.T) {
	a := newAPI(t)
	jane := a.userToken("jane@example.com")
	a.register("admin@example.com")
	admin, err := a.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, a.users.SetAdmin(context.Background(), admin.ID, true))
	tok, w := a.login("/api/admin/auth/login", "admin@example.com", strongPwd)
	require.NotEmpty(t, tok, w.Body.String())
	janeUser, err := a.users.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)

	for _, tc := range []struct {
		method, path, token string
	}{
		{http.MethodDelete, "/api/health/abc", jane},
		{http.MethodGet, "/api/health/abc/report", jane},
		{http.MethodGet, "/api/admin/users/xyz/health", tok},
		{http.MethodGet, "/api/admin/users/xyz/health/export", tok},
		{http.MethodDelete, "/api/admin/users/" + janeUser.ID + "/health/abc", tok},
		{http.MethodGet, "/api/admin/users/" + janeUser.ID + "/health/abc/report", tok},
		{http.MethodDelete, "/api/admin/users/xyz", tok},
	} {
		w := a.do(tc.method, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusNotFound, w.Code, "%s %s: %s", tc.method, tc.path, w.Body.String())
	}
}

func TestAdminSeesDeactivatedUser(t *testing.T) {
	a := newAPI(t)
	jane := a.userToken("jane@example.com")
	a.register("admin@example.com")
	admin, err := a.users.GetByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	require.NoError(t, a.users.SetAdmin(context.Background(), admin.ID, true))
	tok, w := a.login("/api/admin/auth/login", "admin@example.com", strongPwd)
	require.NotEmpty(t, tok, w.Body.String())

	var rec recordJSON
	w = a.do(http.MethodPost, "/api/health", jane, measurement())
	require.Equal(t, http.StatusCreated, w.Code)
	decode(t, w, &rec)
	janeUser, err := a.users.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	require.NoError(t, a.users.Deactivate(context.Background(), janeUser.ID))

	var view struct {
		HealthData []recordJSON `json:"health_data"`
	}
	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health", tok, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &view)
	require.Len(t, view.HealthData, 1)

	w = a.do(http.MethodGet, "/api/admin/users/"+janeUser.ID+"/health/"+rec.ID+"/report", tok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, http.StatusOK, a.do(http.MethodDelete, "/api/admin/users/"+janeUser.ID+"/health/"+rec.ID, tok, nil).Code)
	assert.Equal(t, 0, a.records.Live())
}
