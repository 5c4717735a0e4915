package identity_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/campuspay/identity"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testApp struct {
	app      *fiber.App
	repo     *memoryManager
	tokens   identity.TokenService
	notifier *capturingNotifier
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	repo := newMemoryManager()
	tokens := identity.NewTokenService(newTestConfig(), nil)
	auther := identity.NewAuthenticator(repo, tokens)
	notifier := newCapturingNotifier()

	controller := identity.NewAuthController(
		identity.WithRepositoryManager(repo),
		identity.WithAuther(auther),
		identity.WithLifecycleHandlers(
			identity.NewRegisterUserHandler(repo, tokens, notifier, testLinks),
			identity.NewVerifyEmailHandler(repo, tokens),
			identity.NewInitializePasswordResetHandler(repo, tokens, notifier, testLinks),
			identity.NewFinalizePasswordResetHandler(repo, tokens),
		),
	)

	app := fiber.New()
	controller.RegisterRoutes(app)

	return &testApp{app: app, repo: repo, tokens: tokens, notifier: notifier}
}

func (ta *testApp) request(t *testing.T, method, target string, payload any, headers map[string]string) (*http.Response, map[string]any) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, body)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := ta.app.Test(req, 10000)
	require.NoError(t, err)

	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	res.Body.Close()

	decoded := map[string]any{}
	if len(raw) > 0 && raw[0] == '{' {
		require.NoError(t, json.Unmarshal(raw, &decoded))
	}

	return res, decoded
}

func registerPayload(email, studentID string) map[string]any {
	return map[string]any{
		"first_name":       "Pepe",
		"last_name":        "Rone",
		"email":            email,
		"institution":      "Test University",
		"student_id":       studentID,
		"password":         "correctHorse1!",
		"confirm_password": "correctHorse1!",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	ta := newTestApp(t)

	res, body := ta.request(t, fiber.MethodPost, "/auth/register", registerPayload("pepe.rone@example.com", "STU-001"), nil)
	assert.Equal(t, fiber.StatusCreated, res.StatusCode)
	assert.Contains(t, body["message"], "check your email")

	user, ok := body["user"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "pepe.rone@example.com", user["email"])
	assert.Equal(t, false, user["is_active"])
	assert.NotContains(t, user, "password_hash")

	// Duplicate registration fails.
	res, _ = ta.request(t, fiber.MethodPost, "/auth/register", registerPayload("pepe.rone@example.com", "STU-002"), nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
}

func TestRegisterEndpointValidation(t *testing.T) {
	ta := newTestApp(t)

	tests := []struct {
		name  string
		patch func(map[string]any)
	}{
		{name: "Missing email", patch: func(p map[string]any) { delete(p, "email") }},
		{name: "Invalid email", patch: func(p map[string]any) { p["email"] = "not-an-email" }},
		{name: "Short password", patch: func(p map[string]any) { p["password"] = "short"; p["confirm_password"] = "short" }},
		{name: "Password mismatch", patch: func(p map[string]any) { p["confirm_password"] = "different1!" }},
		{name: "Missing student id", patch: func(p map[string]any) { delete(p, "student_id") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := registerPayload("pepe.rone@example.com", "STU-001")
			tt.patch(payload)

			res, _ := ta.request(t, fiber.MethodPost, "/auth/register", payload, nil)
			assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
			assert.Equal(t, 0, ta.repo.users.count())
		})
	}
}

func TestFullAccountLifecycle(t *testing.T) {
	ta := newTestApp(t)

	// Register.
	res, _ := ta.request(t, fiber.MethodPost, "/auth/register", registerPayload("pepe.rone@example.com", "STU-001"), nil)
	require.Equal(t, fiber.StatusCreated, res.StatusCode)

	email, ok := ta.notifier.waitForEmail(2 * time.Second)
	require.True(t, ok)
	require.Equal(t, "verification", email.Kind)

	verifyURL, err := url.Parse(email.Link)
	require.NoError(t, err)
	token := verifyURL.Query().Get("token")
	require.NotEmpty(t, token)

	// Login before verification is refused.
	login := map[string]any{"email": "pepe.rone@example.com", "password": "correctHorse1!"}
	res, body := ta.request(t, fiber.MethodPost, "/auth/token", login, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	assert.Contains(t, body["detail"], "not active")

	// Verify via the emailed link.
	res, body = ta.request(t, fiber.MethodGet, "/auth/verify-email?token="+url.QueryEscape(token), nil, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "Email verified successfully! You can now log in.", body["message"])

	// Re-using the link is a 400.
	res, _ = ta.request(t, fiber.MethodGet, "/auth/verify-email?token="+url.QueryEscape(token), nil, nil)
	assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)

	// Login now succeeds.
	res, body = ta.request(t, fiber.MethodPost, "/auth/token", login, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "bearer", body["token_type"])
	access, _ := body["access_token"].(string)
	require.NotEmpty(t, access)

	// The session resolves on /auth/me.
	res, body = ta.request(t, fiber.MethodGet, "/auth/me", nil, map[string]string{
		"Authorization": "Bearer " + access,
	})
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, "pepe.rone@example.com", body["email"])
	assert.Equal(t, true, body["is_active"])
}

func TestTokenEndpointInvalidCredentials(t *testing.T) {
	ta := newTestApp(t)
	seedUser(t, ta.repo, "active@example.com", "correctHorse1!", true)

	tests := []struct {
		name    string
		payload map[string]any
	}{
		{
			name:    "Unknown email",
			payload: map[string]any{"email": "nobody@example.com", "password": "correctHorse1!"},
		},
		{
			name:    "Wrong password",
			payload: map[string]any{"email": "active@example.com", "password": "wrong"},
		},
	}

	var bodies []string
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, body := ta.request(t, fiber.MethodPost, "/auth/token", tt.payload, nil)
			assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
			assert.Equal(t, "incorrect email or password", body["detail"])
			bodies = append(bodies, body["detail"].(string))
		})
	}

	require.Len(t, bodies, 2)
	assert.Equal(t, bodies[0], bodies[1])
}

func TestForgotPasswordAntiEnumeration(t *testing.T) {
	ta := newTestApp(t)
	seedUser(t, ta.repo, "active@example.com", "correctHorse1!", true)

	known, knownBody := ta.request(t, fiber.MethodPost, "/auth/forgot-password", map[string]any{"email": "active@example.com"}, nil)
	unknown, unknownBody := ta.request(t, fiber.MethodPost, "/auth/forgot-password", map[string]any{"email": "nobody@example.com"}, nil)

	// Known and unknown addresses get the exact same response.
	assert.Equal(t, fiber.StatusOK, known.StatusCode)
	assert.Equal(t, fiber.StatusOK, unknown.StatusCode)
	assert.Equal(t, knownBody, unknownBody)
	assert.Equal(t, identity.MsgResetRequested, knownBody["message"])

	// Only the known address got an email.
	email, ok := ta.notifier.waitForEmail(2 * time.Second)
	require.True(t, ok)
	assert.Equal(t, "active@example.com", email.To)

	_, ok = ta.notifier.waitForEmail(100 * time.Millisecond)
	assert.False(t, ok)
}

func TestResetPasswordEndpoint(t *testing.T) {
	ta := newTestApp(t)
	seedUser(t, ta.repo, "active@example.com", "oldPassword1!", true)

	res, _ := ta.request(t, fiber.MethodPost, "/auth/forgot-password", map[string]any{"email": "active@example.com"}, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)

	email, ok := ta.notifier.waitForEmail(2 * time.Second)
	require.True(t, ok)

	resetURL, err := url.Parse(email.Link)
	require.NoError(t, err)
	token := resetURL.Query().Get("token")
	require.NotEmpty(t, token)

	res, body := ta.request(t, fiber.MethodPost, "/auth/reset-password", map[string]any{
		"token":            token,
		"password":         "newPassword1!",
		"confirm_password": "newPassword1!",
	}, nil)
	require.Equal(t, fiber.StatusOK, res.StatusCode)
	assert.Equal(t, identity.MsgPasswordReset, body["message"])

	// Old password no longer works, new one does.
	res, _ = ta.request(t, fiber.MethodPost, "/auth/token", map[string]any{"email": "active@example.com", "password": "oldPassword1!"}, nil)
	assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)

	res, _ = ta.request(t, fiber.MethodPost, "/auth/token", map[string]any{"email": "active@example.com", "password": "newPassword1!"}, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestResetPasswordEndpointRejectsBadTokens(t *testing.T) {
	ta := newTestApp(t)
	seedUser(t, ta.repo, "active@example.com", "oldPassword1!", true)

	verification, _, err := ta.tokens.IssuePurposeToken("active@example.com", identity.PurposeEmailVerification, 0)
	require.NoError(t, err)

	for _, token := range []string{"garbage", verification} {
		res, _ := ta.request(t, fiber.MethodPost, "/auth/reset-password", map[string]any{
			"token":            token,
			"password":         "newPassword1!",
			"confirm_password": "newPassword1!",
		}, nil)
		assert.Equal(t, fiber.StatusBadRequest, res.StatusCode)
	}

	// Password unchanged throughout.
	res, _ := ta.request(t, fiber.MethodPost, "/auth/token", map[string]any{"email": "active@example.com", "password": "oldPassword1!"}, nil)
	assert.Equal(t, fiber.StatusOK, res.StatusCode)
}

func TestProtectedEndpointsRequireAuth(t *testing.T) {
	ta := newTestApp(t)
	seedUser(t, ta.repo, "active@example.com", "correctHorse1!", true)

	verification, _, err := ta.tokens.IssuePurposeToken("active@example.com", identity.PurposeEmailVerification, 0)
	require.NoError(t, err)

	tests := []struct {
		name    string
		headers map[string]string
	}{
		{name: "No header", headers: nil},
		{name: "Wrong scheme", headers: map[string]string{"Authorization": "Basic abc"}},
		{name: "Garbage token", headers: map[string]string{"Authorization": "Bearer nope"}},
		{name: "Purpose token", headers: map[string]string{"Authorization": "Bearer " + verification}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for _, target := range []string{"/auth/me", "/admin/users"} {
				res, _ := ta.request(t, fiber.MethodGet, target, nil, tt.headers)
				assert.Equal(t, fiber.StatusUnauthorized, res.StatusCode)
			}
		})
	}
}

func TestAdminUsersEndpoint(t *testing.T) {
	ta := newTestApp(t)

	seedUser(t, ta.repo, "member@example.com", "correctHorse1!", true)
	admin := seedUser(t, ta.repo, "admin@example.com", "correctHorse1!", true)

	// Promote via direct store access; there is no admin-creation endpoint.
	ta.repo.users.setAdmin(admin.ID)

	memberToken, _, err := ta.tokens.IssueAccess("member@example.com", 0)
	require.NoError(t, err)

	adminToken, _, err := ta.tokens.IssueAccess("admin@example.com", 0)
	require.NoError(t, err)

	res, _ := ta.request(t, fiber.MethodGet, "/admin/users", nil, map[string]string{
		"Authorization": "Bearer " + memberToken,
	})
	assert.Equal(t, fiber.StatusForbidden, res.StatusCode)

	req := httptest.NewRequest(fiber.MethodGet, "/admin/users", nil)
	req.Header.Set("Authorization", "Bearer "+adminToken)
	raw, err := ta.app.Test(req, 10000)
	require.NoError(t, err)
	defer raw.Body.Close()
	require.Equal(t, fiber.StatusOK, raw.StatusCode)

	var listing []map[string]any
	require.NoError(t, json.NewDecoder(raw.Body).Decode(&listing))
	assert.Len(t, listing, 2)
	for _, entry := range listing {
		assert.NotContains(t, entry, "password_hash")
	}
}
