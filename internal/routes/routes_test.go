package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"patient-intake-server/internal/analysis"
	"patient-intake-server/internal/auth"
	"patient-intake-server/internal/checkins"
	"patient-intake-server/internal/config"
	"patient-intake-server/internal/models"
	"patient-intake-server/internal/patients"
	"patient-intake-server/internal/reports"
	"patient-intake-server/internal/speech"
	"patient-intake-server/internal/storage"
	"patient-intake-server/internal/testutil"
	"patient-intake-server/internal/workflow"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Fields  []string        `json:"fields"`
}

type server struct {
	t      *testing.T
	router *gin.Engine
	auth   *auth.Service
}

func newServer(t *testing.T) *server {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zap.NewNop()
	db := testutil.NewSeededDB(t)
	cfg := &config.Config{
		Environment:               "development",
		JWTSecret:                 "access",
		JWTRefreshSecret:          "refresh",
		JWTExpirationMinutes:      15,
		JWTRefreshExpirationHours: 1,
	}
	store, err := storage.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	directory := patients.NewDirectory(db, logger)
	analyzer := analysis.NewMockAnalyzer()
	generator := reports.NewGenerator(store, logger)
	recorder := checkins.NewRecorder(db, nil, logger)

	authService := auth.NewService(db, auth.NewTokens(cfg), logger)

	router := gin.New()
	SetupRoutes(router, Dependencies{
		Config:   cfg,
		DB:       db,
		Auth:     authService,
		Patients: directory,
		Analyzer: analyzer,
		Reports:  generator,
		CheckIns: recorder,
		Sessions: workflow.NewManager(workflow.Dependencies{
			Patients: directory,
			Analyzer: analyzer,
			Reports:  generator,
			CheckIns: recorder,
			Logger:   logger,
		}),
		Speech: speech.NewAdapter(nil, "en-US", logger),
	})
	return &server{t: t, router: router, auth: authService}
}

func (s *server) do(method, path string, body interface{}, token string) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w.Code, env
}

func (s *server) staffToken() string {
	s.t.Helper()
	code, _ := s.do(http.MethodPost, "/api/v1/auth/sign-up", gin.H{
		"firstName": "Front", "lastName": "Desk", "email": "desk@clinic.test", "password": "password123",
	}, "")
	require.Equal(s.t, http.StatusCreated, code)
	return s.signIn("desk@clinic.test", "password123")
}

func (s *server) signIn(email, password string) string {
	s.t.Helper()
	code, env := s.do(http.MethodPost, "/api/v1/auth/sign-in", gin.H{"email": email, "password": password}, "")
	require.Equal(s.t, http.StatusOK, code)
	var session auth.Session
	require.NoError(s.t, json.Unmarshal(env.Data, &session))
	return session.AccessToken
}

func decodeSnapshot(t *testing.T, env envelope) workflow.Snapshot {
	t.Helper()
	var snap workflow.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	return snap
}

func TestNewPatientCheckInOverHTTP(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/checkins/sessions", gin.H{"journey": "new"}, "")
	require.Equal(t, http.StatusCreated, code)
	snap := decodeSnapshot(t, env)
	assert.Equal(t, workflow.StateIdle, snap.State)
	base := "/api/v1/checkins/sessions/" + snap.ID

	code, env = s.do(http.MethodPost, base+"/register", gin.H{"firstName": "Ada"}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, env.Fields, "phone")
	assert.Equal(t, workflow.StateIdle, decodeSnapshot(t, env).State)

	code, env = s.do(http.MethodPost, base+"/register", gin.H{
		"firstName":       "Ada",
		"lastName":        "Lovelace",
		"dateOfBirth":     "garbage",
		"phone":           "555-000-1111",
		"email":           "garbage",
		"description":     "Sore throat and a fever since yesterday",
		"appointmentType": "general",
	}, "")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.ElementsMatch(t, []string{"dateOfBirth", "email"}, env.Fields)
	assert.Equal(t, workflow.StateIdle, decodeSnapshot(t, env).State)

	code, env = s.do(http.MethodPost, base+"/register", gin.H{
		"firstName":          "Ada",
		"lastName":           "Lovelace",
		"dateOfBirth":        "1985-12-10",
		"phone":              "555-000-1111",
		"existingConditions": []string{"Asthma"},
		"description":        "Sore throat and a fever since yesterday",
		"appointmentType":    "general",
	}, "")
	require.Equal(t, http.StatusOK, code, env.Error)
	snap = decodeSnapshot(t, env)
	assert.Equal(t, workflow.StateAnalyzed, snap.State)
	require.NotNil(t, snap.Patient)

	code, env = s.do(http.MethodPost, base+"/report", nil, "")
	require.Equal(t, http.StatusOK, code)
	snap = decodeSnapshot(t, env)
	assert.Equal(t, workflow.StateReportReady, snap.State)
	assert.True(t, reports.ValidKey(snap.ReportKey))

	code, _ = s.do(http.MethodPost, base+"/report", nil, "")
	assert.Equal(t, http.StatusConflict, code)

	token := s.staffToken()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reports/"+snap.ReportKey, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Name: Ada Lovelace")
	assert.Contains(t, w.Header().Get("Content-Disposition"), snap.ReportKey)

	code, env = s.do(http.MethodGet, "/api/v1/visits", nil, token)
	require.Equal(t, http.StatusOK, code)
	var visits []struct {
		ID        string `json:"id"`
		PatientID string `json:"patientId"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &visits))
	require.Len(t, visits, 1)
	assert.Equal(t, snap.Patient.ID, visits[0].PatientID)

	code, env = s.do(http.MethodGet, "/api/v1/visits/"+visits[0].ID+"/analysis", nil, token)
	require.Equal(t, http.StatusOK, code)
	var stored models.Analysis
	require.NoError(t, json.Unmarshal(env.Data, &stored))
	assert.Equal(t, models.SpecialtyGeneralMedicine, stored.Specialty)

	code, _ = s.do(http.MethodGet, "/api/v1/visits/missing/analysis", nil, token)
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodPost, base+"/reset", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.StateIdle, decodeSnapshot(t, env).State)

	code, _ = s.do(http.MethodDelete, base, nil, "")
	assert.Equal(t, http.StatusOK, code)
	code, _ = s.do(http.MethodGet, base, nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestReturningPatientOverHTTP(t *testing.T) {
	s := newServer(t)

	_, env := s.do(http.MethodPost, "/api/v1/checkins/sessions", gin.H{"journey": "returning"}, "")
	snap := decodeSnapshot(t, env)
	assert.Equal(t, workflow.StateIdentityPending, snap.State)
	base := "/api/v1/checkins/sessions/" + snap.ID

	code, _ := s.do(http.MethodPost, base+"/verify", gin.H{"patientId": "0000"}, "")
	assert.Equal(t, http.StatusNotFound, code)

	code, env = s.do(http.MethodPost, base+"/verify", gin.H{"patientId": "5678"}, "")
	require.Equal(t, http.StatusOK, code)
	snap = decodeSnapshot(t, env)
	assert.Equal(t, "Jane", snap.Patient.FirstName)

	code, _ = s.do(http.MethodPost, base+"/symptoms", gin.H{"description": "ouch"}, "")
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodPost, base+"/symptoms", gin.H{"description": "Blurred vision and headache", "urgency": "soon"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, workflow.StateAnalyzed, decodeSnapshot(t, env).State)
}

func TestStaffRoutesRequireAuth(t *testing.T) {
	s := newServer(t)

	code, _ := s.do(http.MethodGet, "/api/v1/patients/1234", nil, "")
	assert.Equal(t, http.StatusUnauthorized, code)

	token := s.staffToken()
	code, env := s.do(http.MethodGet, "/api/v1/patients/1234", nil, token)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"existingConditions":["Hypertension"]`)

	code, _ = s.do(http.MethodGet, "/api/v1/patients/0000", nil, token)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/v1/reports/secrets.txt", nil, token)
	assert.Equal(t, http.StatusBadRequest, code)
	code, _ = s.do(http.MethodGet, "/api/v1/reports/patient-report-1234-1.txt", nil, token)
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = s.do(http.MethodGet, "/api/v1/users", nil, token)
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = s.do(http.MethodGet, "/api/v1/auth/me", nil, token)
	assert.Equal(t, http.StatusOK, code)
}

func TestAnalysisAndSpeech(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/analysis", gin.H{"description": "itchy rash on both arms"}, "")
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Data), `"triageRecommendation":"standard"`)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("target", "symptoms"))
	part, err := mw.CreateFormFile("audio", "clip.wav")
	require.NoError(t, err)
	_, _ = part.Write([]byte("RIFF"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/speech/transcribe", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestHealth(t *testing.T) {
	s := newServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"UP"`)
}

func TestSignUpCannotGrantAdmin(t *testing.T) {
	s := newServer(t)

	code, env := s.do(http.MethodPost, "/api/v1/auth/sign-up", gin.H{
		"firstName": "Mallory", "lastName": "Doe", "email": "mallory@clinic.test",
		"password": "password123", "role": "admin",
	}, "")
	require.Equal(t, http.StatusCreated, code)
	var user models.UserSanitized
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, models.RoleStaff, user.Role)

	token := s.signIn("mallory@clinic.test", "password123")
	code, _ = s.do(http.MethodGet, "/api/v1/users", nil, token)
	assert.Equal(t, http.StatusForbidden, code)
	code, _ = s.do(http.MethodPost, "/api/v1/users", gin.H{
		"firstName": "Eve", "lastName": "Doe", "email": "eve@clinic.test",
		"password": "password123", "role": "admin",
	}, token)
	assert.Equal(t, http.StatusForbidden, code)
}

func TestAdminCreatesUsersWithRole(t *testing.T) {
	s := newServer(t)

	_, err := s.auth.CreateUser(context.Background(), auth.CreateUserInput{
		SignUpInput: auth.SignUpInput{FirstName: "Ada", LastName: "Admin", Email: "admin@clinic.test", Password: "password123"},
		Role:        models.RoleAdmin,
	})
	require.NoError(t, err)
	token := s.signIn("admin@clinic.test", "password123")

	code, env := s.do(http.MethodPost, "/api/v1/users", gin.H{
		"firstName": "Second", "lastName": "Admin", "email": "second@clinic.test",
		"password": "password123", "role": "admin",
	}, token)
	require.Equal(t, http.StatusCreated, code, env.Error)
	var user models.UserSanitized
	require.NoError(t, json.Unmarshal(env.Data, &user))
	assert.Equal(t, models.RoleAdmin, user.Role)

	code, _ = s.do(http.MethodPost, "/api/v1/users", gin.H{
		"firstName": "Bad", "lastName": "Role", "email": "bad@clinic.test",
		"password": "password123", "role": "owner",
	}, token)
	assert.Equal(t, http.StatusBadRequest, code)

	code, env = s.do(http.MethodGet, "/api/v1/users", nil, token)
	require.Equal(t, http.StatusOK, code)
	var users []models.UserSanitized
	require.NoError(t, json.Unmarshal(env.Data, &users))
	assert.Len(t, users, 2)
}
