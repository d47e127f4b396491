package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/samandr77/microservices/onboarding/internal/api"
	"github.com/samandr77/microservices/onboarding/internal/entity"
	"github.com/samandr77/microservices/onboarding/internal/mocks"
	"github.com/samandr77/microservices/onboarding/internal/onboarding"
)

const testToken = "dev"

type Tester struct {
	server   *httptest.Server
	svcMock  *mocks.MockService
	authMock *mocks.MockAuthService
}

func NewTester(t *testing.T) Tester {
	t.Helper()

	ctrl := gomock.NewController(t)
	svcMock := mocks.NewMockService(ctrl)
	authMock := mocks.NewMockAuthService(ctrl)

	router := api.NewRouter(api.NewHandler(svcMock), api.NewMiddleware(authMock))

	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return Tester{server: server, svcMock: svcMock, authMock: authMock}
}

// authenticated makes the test token resolve to a fresh account id.
func (c Tester) authenticated() uuid.UUID {
	accountID := uuid.Must(uuid.NewV4())
	c.authMock.EXPECT().Authenticate(gomock.Any(), testToken).Return(accountID, nil)

	return accountID
}

func (c Tester) do(t *testing.T, method, path string, body any, token string) (*http.Response, []byte) {
	t.Helper()

	var r io.Reader

	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)

		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, c.server.URL+path, r)
	require.NoError(t, err)

	req.Header.Set("Content-Type", "application/json")

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return send(t, req)
}

func send(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)

	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func decodeErr(t *testing.T, body []byte) api.ErrorResponse {
	t.Helper()

	var e api.ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e))

	return e
}

func TestHandler_Health(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	resp, body := c.do(t, http.MethodGet, "/api/health", nil, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "OK\n", string(body))
	require.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestHandler_Cors(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodOptions, c.server.URL+"/api/v1/auth/login", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://app.example.org")

	resp, _ := send(t, req)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "https://app.example.org", resp.Header.Get("Access-Control-Allow-Origin"))
}

func TestHandler_Register(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	account := entity.Account{
		ID:         uuid.Must(uuid.NewV4()),
		Name:       "Ana",
		Email:      "ana@health.gov",
		EntityName: "Dept. of Health",
		EntityType: entity.EntityTypeGovernment,
	}

	c.svcMock.EXPECT().
		Register(gomock.Any(), entity.Registration{
			Name:       "Ana",
			EntityName: "Dept. of Health",
			EntityType: entity.EntityTypeGovernment,
			Email:      "ana@health.gov",
			Password:   "Secret123",
		}).
		Return(account, "verify-token", nil)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/register", api.RegisterRequest{
		Name:       "Ana",
		EntityName: "Dept. of Health",
		EntityType: entity.EntityTypeGovernment,
		Email:      "ana@health.gov",
		Password:   "Secret123",
	}, "")
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got api.RegisterResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, account.ID, got.Account.ID)
	require.Equal(t, "verify-token", got.VerifyToken)
	require.NotContains(t, string(body), "passwordHash")
}

func TestHandler_RegisterErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
		wantKind entity.Kind
	}{
		{"duplicate email", entity.ErrEmailInUse, http.StatusConflict, entity.KindConflict},
		{"government email", entity.ErrGovernmentEmailRequired, http.StatusConflict, entity.KindConflict},
		{"weak password", entity.ErrPasswordNoDigit, http.StatusUnprocessableEntity, entity.KindValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewTester(t)

			c.svcMock.EXPECT().Register(gomock.Any(), gomock.Any()).Return(entity.Account{}, "", tt.err)

			resp, body := c.do(t, http.MethodPost, "/api/v1/auth/register", api.RegisterRequest{Email: "ana@acme.com"}, "")
			require.Equal(t, tt.wantCode, resp.StatusCode)
			require.Equal(t, tt.wantKind, decodeErr(t, body).Kind)
		})
	}
}

func TestHandler_MalformedBody(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/login", "{", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, entity.KindValidation, decodeErr(t, body).Kind)
}

func TestHandler_Login(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	expiresAt := time.Date(2025, 6, 1, 13, 0, 0, 0, time.UTC)

	c.svcMock.EXPECT().Login(gomock.Any(), "ana@acme.com", "Secret123").
		Return(entity.AccessToken{Token: "access", ExpiresAt: expiresAt}, nil)
	c.svcMock.EXPECT().Login(gomock.Any(), "ana@acme.com", "wrong").
		Return(entity.AccessToken{}, entity.ErrInvalidCredentials)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{Email: "ana@acme.com", Password: "Secret123"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.LoginResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "access", got.AccessToken)
	require.True(t, expiresAt.Equal(got.ExpiresAt))

	resp, body = c.do(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{Email: "ana@acme.com", Password: "wrong"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, api.ErrorResponse{Kind: entity.KindUnauthorized, Message: "Invalid email or password"}, decodeErr(t, body))
}

func TestHandler_Session(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	resp, _ := c.do(t, http.MethodGet, "/api/v1/auth/session", nil, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	c.authMock.EXPECT().Authenticate(gomock.Any(), "expired").Return(uuid.Nil, entity.ErrInvalidToken)

	resp, body := c.do(t, http.MethodGet, "/api/v1/auth/session", nil, "expired")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, entity.KindUnauthorized, decodeErr(t, body).Kind)

	accountID := c.authenticated()
	c.svcMock.EXPECT().Session(gomock.Any(), accountID).
		Return(entity.Session{Authenticated: true, Verified: true, Account: &entity.Account{ID: accountID}}, nil)

	resp, body = c.do(t, http.MethodGet, "/api/v1/auth/session", nil, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got entity.Session
	require.NoError(t, json.Unmarshal(body, &got))
	require.True(t, got.Verified)
	require.Equal(t, accountID, got.Account.ID)
}

func TestHandler_VerifyEmail(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	c.svcMock.EXPECT().VerifyEmailToken(gomock.Any(), "tok").Return(nil)
	c.svcMock.EXPECT().VerifyEmailCode(gomock.Any(), "ana@acme.com", "000000").Return(entity.ErrInvalidOrExpiredCode)

	resp, _ := c.do(t, http.MethodPost, "/api/v1/auth/verify-email", api.VerifyEmailRequest{Token: "tok"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/verify-email/code",
		api.VerifyEmailCodeRequest{Email: "ana@acme.com", Code: "000000"}, "")
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	require.Equal(t, api.ErrorResponse{Kind: entity.KindUnauthorized, Message: "Invalid or expired code"}, decodeErr(t, body))
}

func TestHandler_PasswordReset(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	c.svcMock.EXPECT().ForgotPassword(gomock.Any(), "nobody@acme.com").Return(nil)
	c.svcMock.EXPECT().ResetPassword(gomock.Any(), "ana@acme.com", "123456", "NewSecret1").Return(nil)
	c.svcMock.EXPECT().ResendVerificationCode(gomock.Any(), "ana@acme.com").Return(entity.ErrTooManyRequests)

	resp, _ := c.do(t, http.MethodPost, "/api/v1/auth/forgot-password", api.EmailRequest{Email: "nobody@acme.com"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = c.do(t, http.MethodPost, "/api/v1/auth/reset-password",
		api.ResetPasswordRequest{Email: "ana@acme.com", Code: "123456", Password: "NewSecret1"}, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/resend-code", api.EmailRequest{Email: "ana@acme.com"}, "")
	require.Equal(t, http.StatusTooManyRequests, resp.StatusCode)
	require.Equal(t, entity.KindRateLimited, decodeErr(t, body).Kind)
}

func TestHandler_InternalErrorIsHidden(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	c.svcMock.EXPECT().ForgotPassword(gomock.Any(), gomock.Any()).
		Return(errors.New("get account: dial tcp 10.0.0.5:5432: connection refused"))

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/forgot-password", api.EmailRequest{Email: "ana@acme.com"}, "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, entity.KindInternal, decodeErr(t, body).Kind)
	require.NotContains(t, string(body), "10.0.0.5")
}

func TestHandler_RecoversFromPanic(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	c.svcMock.EXPECT().Login(gomock.Any(), gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, string, string) (entity.AccessToken, error) {
			panic("boom")
		})

	resp, body := c.do(t, http.MethodPost, "/api/v1/auth/login", api.LoginRequest{}, "")
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	require.Equal(t, entity.KindInternal, decodeErr(t, body).Kind)
}

func TestHandler_AssignEntity(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	accountID := c.authenticated()
	e := entity.Entity{ID: uuid.Must(uuid.NewV4()), Name: "Acme", Type: entity.EntityTypeBusiness}

	c.svcMock.EXPECT().AssignAccountToEntity(gomock.Any(), accountID).Return(e, nil)

	resp, body := c.do(t, http.MethodPost, "/api/v1/entity/assign", nil, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got entity.Entity
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, e.ID, got.ID)

	accountID = c.authenticated()
	c.svcMock.EXPECT().AssignAccountToEntity(gomock.Any(), accountID).Return(entity.Entity{}, entity.ErrIncompleteRegistration)

	resp, body = c.do(t, http.MethodPost, "/api/v1/entity/assign", nil, testToken)
	require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	require.Equal(t, entity.KindValidation, decodeErr(t, body).Kind)
}

func TestHandler_ListEntities(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	gov := entity.EntityTypeGovernment
	completed := entity.StepStatusCompleted

	c.authenticated()
	c.svcMock.EXPECT().
		ListEntities(gomock.Any(), entity.EntityFilter{Type: &gov, Status: &completed, Name: "health", Limit: 100, Offset: 20}).
		Return([]entity.Entity{{Name: "Dept. of Health"}}, 21, nil)

	resp, body := c.do(t, http.MethodGet, "/api/v1/entity?type=government&status=completed&name=health&limit=500&offset=20", nil, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got api.EntitiesResponse
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 21, got.Total)
	require.Len(t, got.Items, 1)

	c.authenticated()

	resp, _ = c.do(t, http.MethodGet, "/api/v1/entity?type=club", nil, testToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_Onboarding(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	entityID := uuid.Must(uuid.NewV4())

	c.authenticated()
	c.svcMock.EXPECT().Onboarding(gomock.Any(), entityID).Return(entity.OnboardingState{}, entity.ErrEntityNotFound)

	resp, body := c.do(t, http.MethodGet, "/api/v1/entity/"+entityID.String()+"/onboarding", nil, testToken)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	require.Equal(t, api.ErrorResponse{Kind: entity.KindNotFound, Message: "Entity not found"}, decodeErr(t, body))

	c.authenticated()

	resp, _ = c.do(t, http.MethodGet, "/api/v1/entity/not-a-uuid/onboarding", nil, testToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_UpdateOnboarding(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	entityID := uuid.Must(uuid.NewV4())
	accountID := c.authenticated()

	state := entity.OnboardingState{
		FlowType:         entity.FlowTypeGovernment,
		CurrentStepIndex: 1,
		ProgressPercent:  33,
		OnboardingStatus: entity.StepStatusInProgress,
	}

	var update onboarding.StepUpdate

	c.svcMock.EXPECT().UpdateOnboarding(gomock.Any(), entityID, gomock.Any()).
		DoAndReturn(func(_ context.Context, _ uuid.UUID, u onboarding.StepUpdate) (entity.OnboardingState, error) {
			update = u
			return state, nil
		})

	resp, body := c.do(t, http.MethodPatch, "/api/v1/entity/"+entityID.String()+"/onboarding",
		`{"stepKey":"basic_information","currentStepIndex":1,"status":"completed","data":{"website":"https://health.gov","employees":120}}`,
		testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Equal(t, "basic_information", update.StepKey)
	require.Equal(t, 1, update.CurrentStepIndex)
	require.Equal(t, accountID, update.ActorID)
	require.Equal(t, entity.StepStatusCompleted, *update.Status)
	require.Equal(t, "https://health.gov", update.Data["website"])
	require.Equal(t, json.Number("120"), update.Data["employees"])

	var got entity.OnboardingState
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, 33, got.ProgressPercent)
	require.Equal(t, entity.StepStatusInProgress, got.OnboardingStatus)
}

func TestHandler_UpdateOnboardingErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unknown step", entity.ErrInvalidStepReference, http.StatusNotFound},
		{"no steps", entity.ErrNoStepsInitialized, http.StatusUnprocessableEntity},
		{"concurrent update", entity.ErrVersionConflict, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := NewTester(t)

			c.authenticated()
			c.svcMock.EXPECT().UpdateOnboarding(gomock.Any(), gomock.Any(), gomock.Any()).Return(entity.OnboardingState{}, tt.err)

			resp, _ := c.do(t, http.MethodPatch, "/api/v1/entity/"+uuid.Must(uuid.NewV4()).String()+"/onboarding",
				`{"stepKey":"missing","currentStepIndex":9}`, testToken)
			require.Equal(t, tt.wantCode, resp.StatusCode)
		})
	}
}

func TestHandler_UpdateProfile(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	entityID := uuid.Must(uuid.NewV4())

	c.authenticated()
	var profile entity.Profile

	c.svcMock.EXPECT().UpdateProfile(gomock.Any(), entityID, gomock.Any()).
		DoAndReturn(func(_ context.Context, id uuid.UUID, p entity.Profile) (entity.Entity, error) {
			profile = p
			return entity.Entity{ID: id, Profile: p}, nil
		})

	resp, _ := c.do(t, http.MethodPut, "/api/v1/entity/"+entityID.String()+"/profile",
		`{"financials":{"operatingBudget":"1250000.50"},"government":{"program":"Vaccines"}}`, testToken)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "1250000.5", profile.Financials.OperatingBudget.String())
	require.Equal(t, "Vaccines", profile.Government.Program)
}

func TestHandler_UploadImage(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	entityID := uuid.Must(uuid.NewV4())
	image := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	part, err := mw.CreateFormFile("file", "logo.png")
	require.NoError(t, err)
	_, err = part.Write(image)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	c.authenticated()
	c.svcMock.EXPECT().UploadEntityImage(gomock.Any(), entityID, image, "logo.png").
		Return(entity.UploadedFile{URL: "https://cdn.example.org/logo.png", ID: "logo"}, nil)

	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost,
		c.server.URL+"/api/v1/entity/"+entityID.String()+"/image", &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testToken)

	resp, body := send(t, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var got entity.UploadedFile
	require.NoError(t, json.Unmarshal(body, &got))
	require.Equal(t, "https://cdn.example.org/logo.png", got.URL)
}

func TestHandler_UploadImageWithoutFile(t *testing.T) {
	t.Parallel()

	c := NewTester(t)

	c.authenticated()

	resp, _ := c.do(t, http.MethodPost, "/api/v1/entity/"+uuid.Must(uuid.NewV4()).String()+"/image", `{}`, testToken)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
