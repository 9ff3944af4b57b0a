package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"gitlab.com/timkado/api/clinic-case-service/internal/auth"
	"gitlab.com/timkado/api/clinic-case-service/internal/cache"
	"gitlab.com/timkado/api/clinic-case-service/internal/config"
	ingestionmock "gitlab.com/timkado/api/clinic-case-service/internal/ingestion/mock"
	"gitlab.com/timkado/api/clinic-case-service/internal/mediastore"
	"gitlab.com/timkado/api/clinic-case-service/internal/model"
	storagemock "gitlab.com/timkado/api/clinic-case-service/internal/storage/mock"
	"gitlab.com/timkado/api/clinic-case-service/internal/usecase"
)

const (
	testVerifyToken = "verify-me"
	testCaseID      = "0b8f5c1e-2d3a-4f6b-9c7d-8e9f0a1b2c3d"
)

type apiFixture struct {
	router   *gin.Engine
	tokens   *auth.TokenManager
	cases    *storagemock.CaseRepoMock
	medias   *storagemock.MediaRepoMock
	webhooks *ingestionmock.RouterMock
}

func init() {
	gin.SetMode(gin.TestMode)
}

func newAPIFixture(t *testing.T, limiter *cache.RateLimiter) *apiFixture {
	t.Helper()

	tokens := auth.NewTokenManager(config.JWTConfig{
		AccessTokenSecret:    "0123456789abcdef0123456789abcdef",
		AccessTokenDuration:  60,
		RefreshTokenDuration: 1,
		RefreshTokenUnit:     "days",
	})

	store, err := mediastore.NewLocalStore(t.TempDir(), "http://localhost:8080/uploads")
	require.NoError(t, err)

	f := &apiFixture{
		tokens:   tokens,
		cases:    new(storagemock.CaseRepoMock),
		medias:   new(storagemock.MediaRepoMock),
		webhooks: new(ingestionmock.RouterMock),
	}
	qrcodes := new(storagemock.QRCodeRepoMock)
	doctors := new(storagemock.DoctorRepoMock)
	users := new(storagemock.UserRepoMock)

	svc := Services{
		Users:      usecase.NewUserService(users),
		Auth:       usecase.NewAuthService(users, new(storagemock.TokenRepoMock), tokens, nil),
		Cases:      usecase.NewCaseService(f.cases, qrcodes, doctors, nil, nil, usecase.CaseNotifyConfig{}),
		Media:      usecase.NewMediaService(f.medias, store, 1),
		Franchises: usecase.NewFranchiseService(new(storagemock.FranchiseRepoMock), nil),
		Webhooks:   f.webhooks,
	}
	f.router = NewRouter(svc, RouterOptions{
		Tokens:      tokens,
		Limiter:     limiter,
		CORSOrigins: []string{"https://dashboard.example.com"},
		VerifyToken: testVerifyToken,
	})

	t.Cleanup(func() {
		f.cases.AssertExpectations(t)
		f.medias.AssertExpectations(t)
		f.webhooks.AssertExpectations(t)
	})
	return f
}

func (f *apiFixture) bearer(t *testing.T, userID, role string) string {
	t.Helper()
	token, _, err := f.tokens.IssueAccessToken(userID, role)
	require.NoError(t, err)
	return "Bearer " + token
}

func (f *apiFixture) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestStatus(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))
}

func TestRequestIDIsEchoed(t *testing.T) {
	f := newAPIFixture(t, nil)
	req := httptest.NewRequest(http.MethodGet, "/api/v1/status", nil)
	req.Header.Set(requestIDHeader, "req-42")

	rec := f.do(req)

	assert.Equal(t, "req-42", rec.Header().Get(requestIDHeader))
}

func TestUnknownRoute(t *testing.T) {
	f := newAPIFixture(t, nil)

	rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/nope", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, http.StatusNotFound, body.StatusCode)
	assert.Equal(t, "Not Found", body.StatusText)
}

func TestReportViolation(t *testing.T) {
	f := newAPIFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/report-violation", bytes.NewBufferString(`{"csp-report":{}}`))

	rec := f.do(req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestAuthentication(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("missing token", func(t *testing.T) {
		rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, "Unauthorized", body.StatusText)
		assert.NotEmpty(t, body.Errors)
	})

	t.Run("garbage token", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/cases", nil)
		req.Header.Set("Authorization", "Bearer not-a-jwt")
		rec := f.do(req)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("wrong role", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/franchises", nil)
		req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleDoctor))
		rec := f.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("doctor cannot reach media", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/medias", nil)
		req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleDoctor))
		rec := f.do(req)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestCORSPreflight(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("allowed origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/cases", nil)
		req.Header.Set("Origin", "https://dashboard.example.com")
		rec := f.do(req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Equal(t, "https://dashboard.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("foreign origin", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/v1/cases", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		rec := f.do(req)
		assert.Equal(t, http.StatusNoContent, rec.Code)
		assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	})
}

func TestRecoveryWritesEnvelope(t *testing.T) {
	engine := gin.New()
	engine.Use(RequestID(), Recovery())
	engine.GET("/boom", func(c *gin.Context) { panic("kaboom") })

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, []string{"Internal Server Error"}, body.Errors)
}

func TestValidationErrorsListEachField(t *testing.T) {
	f := newAPIFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/franchises", bytes.NewBufferString(`{"email":"nope"}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.bearer(t, "admin-1", model.RoleAdmin))

	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Len(t, body.Errors, 2)
}

func TestMalformedJSON(t *testing.T) {
	f := newAPIFixture(t, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cases", bytes.NewBufferString(`{"qrCodeId":`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))

	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCaseTransitions(t *testing.T) {
	f := newAPIFixture(t, nil)
	patientID := "5d1c2b3a-0000-4000-8000-000000000001"

	newCase := model.NewCase("qr-1", "franchise-1", &patientID)
	newCase.ID = testCaseID
	f.cases.On("FindCaseByID", mock.Anything, testCaseID).Return(newCase, nil).Once()

	req := httptest.NewRequest(http.MethodPut, "/api/v1/cases/"+testCaseID+"/approve-cost", nil)
	req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleAdmin))
	rec := f.do(req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Conflict", decodeError(t, rec).StatusText)
}

func TestCaseTreatmentPlanRequiresCost(t *testing.T) {
	f := newAPIFixture(t, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/cases/"+testCaseID+"/treatment-plan", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleAdmin))

	rec := f.do(req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, []string{"medicationCost is required"}, decodeError(t, rec).Errors)
}

func TestListCasesEmpty(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.cases.On("ListCases", mock.Anything, "NEW").Return(nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/cases?status=new", nil)
	req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))
	rec := f.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestWebhookVerification(t *testing.T) {
	f := newAPIFixture(t, nil)

	tests := []struct {
		name     string
		query    string
		wantCode int
		wantBody string
	}{
		{"valid", "?hub.mode=subscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusOK, "12345"},
		{"wrong token", "?hub.mode=subscribe&hub.verify_token=nope&hub.challenge=12345", http.StatusForbidden, ""},
		{"wrong mode", "?hub.mode=unsubscribe&hub.verify_token=verify-me&hub.challenge=12345", http.StatusForbidden, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(httptest.NewRequest(http.MethodGet, "/api/v1/webhooks"+tt.query, nil))
			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestWebhookAlwaysAnswers200(t *testing.T) {
	f := newAPIFixture(t, nil)
	payload := `{"channel":"whatsapp","events":{"eventType":"message"}}`
	f.webhooks.On("Route", mock.Anything, []byte(payload)).Return(nil).Once()
	f.webhooks.On("Route", mock.Anything, []byte("not json")).Return(errors.New("bad request")).Once()

	rec := f.do(httptest.NewRequest(http.MethodPost, "/api/v1/webhooks", bytes.NewBufferString(payload)))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(httptest.NewRequest(http.MethodPost, "/api/v1/webhooks", bytes.NewBufferString("not json")))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAuthRoutesAreRateLimited(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	limiter := cache.NewRateLimiter(db, config.RateLimitConfig{Limit: 1, Window: time.Minute})
	f := newAPIFixture(t, limiter)

	key := cache.RateLimitKey("/api/v1/auth/request-password", "192.0.2.1")
	rmock.ExpectIncr(key).SetVal(2)
	rmock.ExpectExpire(key, time.Minute).SetVal(true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/request-password", bytes.NewBufferString(`{}`))
	req.RemoteAddr = "192.0.2.1:5555"
	rec := f.do(req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.NoError(t, rmock.ExpectationsWereMet())
}

func TestRateLimiterFailsOpen(t *testing.T) {
	db, rmock := redismock.NewClientMock()
	limiter := cache.NewRateLimiter(db, config.RateLimitConfig{Limit: 1, Window: time.Minute})
	f := newAPIFixture(t, limiter)

	key := cache.RateLimitKey("/api/v1/auth/refresh-token", "192.0.2.1")
	rmock.ExpectIncr(key).SetErr(errors.New("connection refused"))
	rmock.ExpectExpire(key, time.Minute).SetVal(true)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/refresh-token", bytes.NewBufferString(`{}`))
	req.RemoteAddr = "192.0.2.1:5555"
	rec := f.do(req)

	// The request reached the handler, which rejects the empty token.
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func multipartUpload(t *testing.T, contentType string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	w := multipart.NewWriter(body)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="scan.png"`)
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = io.Copy(part, bytes.NewReader(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func TestUploadMedia(t *testing.T) {
	f := newAPIFixture(t, nil)
	f.medias.On("CreateMedia", mock.Anything, mock.MatchedBy(func(m *model.Media) bool {
		return m.OwnerID == "user-1" && m.Filename == "scan.png" && m.Title == "X-ray" &&
			m.CaseID != nil && *m.CaseID == testCaseID && m.Size == 4
	})).Return(nil)

	body, ct := multipartUpload(t, "image/png", []byte("\x89PNG"), map[string]string{"title": "X-ray", "caseId": testCaseID})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/medias", body)
	req.Header.Set("Content-Type", ct)
	req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))
	rec := f.do(req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var media model.Media
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &media))
	assert.Contains(t, media.URL, "http://localhost:8080/uploads/")
}

func TestUploadMediaRejections(t *testing.T) {
	f := newAPIFixture(t, nil)

	t.Run("unsupported type", func(t *testing.T) {
		body, ct := multipartUpload(t, "application/zip", []byte("PK"), nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medias", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))
		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("missing file", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medias", bytes.NewBufferString(""))
		req.Header.Set("Content-Type", "multipart/form-data; boundary=x")
		req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))
		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []string{"file is required"}, decodeError(t, rec).Errors)
	})

	t.Run("too large", func(t *testing.T) {
		big := bytes.Repeat([]byte("a"), 3<<20)
		body, ct := multipartUpload(t, "image/png", big, nil)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/medias", body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", f.bearer(t, "user-1", model.RoleUser))
		rec := f.do(req)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestServerStartStop(t *testing.T) {
	s := NewServer(0, gin.New(), time.Second, time.Second, zap.NewNop())
	s.Start(nil)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Stop(ctx))
}
