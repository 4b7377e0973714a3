package auth

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"backend-gpstracker/internal/shared/apperr"
	"backend-gpstracker/pkg/response"

	"github.com/gofiber/fiber/v2"
	"github.com/pashagolub/pgxmock/v3"
	"golang.org/x/crypto/bcrypt"
)

func postJSON(t *testing.T, app *fiber.App, path string, body any) *http.Response {
	t.Helper()
	payload, _ := json.Marshal(body)
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("request %s: %v", path, err)
	}
	return resp
}

func TestAuthHandlersRegisterLoginVerify(t *testing.T) {
	mock := newMock(t)

	expectNotTaken(mock, "email", "user@example.com")
	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(pgxmock.AnyArg(), "user@example.com", "User", "", pgxmock.AnyArg()).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(time.Now()))

	svc := NewService("test-secret", 0, mock)
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), svc)

	resp := postJSON(t, app, "/auth/register", RegisterRequest{Email: "user@example.com", FullName: "User", Password: "pass"})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register status: %d", resp.StatusCode)
	}

	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, email, full_name`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "phone", "password_hash", "created_at"}).
			AddRow("user-1", "user@example.com", "User", "", string(hash), time.Now()))

	resp = postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com", Password: "pass"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status: %d", resp.StatusCode)
	}

	token, _ := svc.signToken("user-1")
	req := httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	verify, err := app.Test(req)
	if err != nil || verify.StatusCode != http.StatusOK {
		t.Fatalf("verify status: %v", err)
	}
}

func TestAuthRegisterBadPayload(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, nil))

	req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	resp, _ := app.Test(req)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestAuthRegisterServiceError(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE email=\$1\)`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, mock))

	resp := postJSON(t, app, "/auth/register", RegisterRequest{Email: "user@example.com", FullName: "User", Password: "pass"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected register error")
	}
}

func TestAuthLoginBadRequest(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, nil))

	resp := postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com"})
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected bad request")
	}
}

func TestAuthLoginUnauthorized(t *testing.T) {
	mock := newMock(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, email, full_name`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "phone", "password_hash", "created_at"}).
			AddRow("user-1", "user@example.com", "User", "", string(hash), time.Now()))

	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, mock))

	resp := postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com", Password: "wrong"})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}

func TestAuthVerifyMissingBearer(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, nil))

	resp, _ := app.Test(httptest.NewRequest(http.MethodGet, "/auth/jwt/verify", nil))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected unauthorized")
	}
}

func TestParseBearer(t *testing.T) {
	if parseBearer("bad") != "" {
		t.Fatalf("expected empty token")
	}
	if parseBearer("Bearer token") != "token" {
		t.Fatalf("expected token")
	}
}

func decodeBody(t *testing.T, resp *http.Response) response.Response {
	t.Helper()
	var body response.Response
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return body
}

func TestCheckEmailAvailability(t *testing.T) {
	mock := newMock(t)
	expectNotTaken(mock, "email", "free@example.com")
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE email=\$1\)`).
		WithArgs("used@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, mock))

	cases := []struct {
		email     string
		available bool
		message   string
	}{
		{"free@example.com", true, "Email is available"},
		{"used@example.com", false, "Email is already taken"},
	}
	for _, tc := range cases {
		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/check-email?email="+tc.email, nil))
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: unexpected status: %v", tc.email, err)
		}
		body := decodeBody(t, resp)
		data, _ := body.Data.(map[string]any)
		if body.Message != tc.message || data["available"] != tc.available {
			t.Fatalf("%s: unexpected body %+v", tc.email, body)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestCheckPhoneAvailability(t *testing.T) {
	mock := newMock(t)
	mock.ExpectQuery(`SELECT EXISTS \(SELECT 1 FROM users WHERE phone=\$1\)`).
		WithArgs("+628123").
		WillReturnRows(pgxmock.NewRows([]string{"exists"}).AddRow(true))

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, mock))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/auth/check-phone?phone=%2B628123", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v", err)
	}
	body := decodeBody(t, resp)
	data, _ := body.Data.(map[string]any)
	if body.Message != "Phone number is already taken" || data["available"] != false {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestCheckAvailabilityRequiresParam(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, nil))

	for _, path := range []string{"/auth/check-email", "/auth/check-phone"} {
		resp, _ := app.Test(httptest.NewRequest(http.MethodGet, path, nil))
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected bad request, got %d", path, resp.StatusCode)
		}
	}
}

func TestLogout(t *testing.T) {
	app := fiber.New()
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, nil))

	resp, err := app.Test(httptest.NewRequest(http.MethodPost, "/auth/logout", nil))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status: %v", err)
	}
	if body := decodeBody(t, resp); !body.Success || body.Message != "Logout successful" {
		t.Fatalf("unexpected body %+v", body)
	}
}

func TestAuthLoginSignFailureHidden(t *testing.T) {
	oldSign := signTokenFn
	signTokenFn = func(_ *Service, _ string) (string, error) {
		return "", errors.New("key material unavailable at /etc/keys")
	}
	defer func() { signTokenFn = oldSign }()

	mock := newMock(t)
	hash, _ := bcrypt.GenerateFromPassword([]byte("pass"), bcrypt.MinCost)
	mock.ExpectQuery(`SELECT id, email, full_name`).
		WithArgs("user@example.com").
		WillReturnRows(pgxmock.NewRows([]string{"id", "email", "full_name", "phone", "password_hash", "created_at"}).
			AddRow("user-1", "user@example.com", "User", "", string(hash), time.Now()))

	app := fiber.New(fiber.Config{ErrorHandler: response.ErrorHandler})
	RegisterRoutes(app.Group("/auth"), NewService("secret", 0, mock))

	resp := postJSON(t, app, "/auth/login", LoginRequest{Email: "user@example.com", Password: "pass"})
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected internal error, got %d", resp.StatusCode)
	}
	if body := decodeBody(t, resp); body.Message != apperr.InternalMessage {
		t.Fatalf("cause leaked: %+v", body)
	}
}
