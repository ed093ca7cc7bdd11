package serverutils

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"lucide-core/pkg/document"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{&document.UnsupportedTypeError{Filename: "a.exe", Extension: "exe"}, 415},
		{&document.FileTooLargeError{Size: 10, MaxSize: 5, MaxLabel: "5MB"}, 413},
		{&document.InvalidFileError{Filename: "a.pdf", Reasons: []string{"bad"}}, 422},
		{fmt.Errorf("upload: %w", &document.ExtractionError{Format: "pdf", Cause: errors.New("x")}), 422},
		{&document.UnavailableCodecError{Format: "png", Codec: "tesseract"}, 503},
		{&ValidationError{Fields: map[string]string{"Text": "required"}}, 400},
		{fiber.NewError(404, "nope"), 404},
		{errors.New("boom"), 500},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.code, StatusFor(tt.err), tt.err.Error())
	}
}

func TestValidateRequest(t *testing.T) {
	type req struct {
		Text string `validate:"required"`
	}
	assert.NoError(t, ValidateRequest(req{Text: "hi"}))

	err := ValidateRequest(req{})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "required", verr.Fields["Text"])
}

func TestJwtMiddleware(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandlerMiddleware})
	app.Get("/me", JwtMiddleware("s3cret"), func(c *fiber.Ctx) error {
		return c.JSON(SuccessResponse("me", c.Locals("user_id")))
	})

	token, err := IssueUserToken("s3cret", "user-1", time.Minute)
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var body BaseResponse[string]
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "user-1", body.Data)

	bad, _ := IssueUserToken("other", "user-1", time.Minute)
	req = httptest.NewRequest("GET", "/me", nil)
	req.Header.Set("Authorization", "Bearer "+bad)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/me", nil))
	require.NoError(t, err)
	assert.Equal(t, 401, resp.StatusCode)
}

func TestParseUserToken_Expired(t *testing.T) {
	token, err := IssueUserToken("k", "u", -time.Minute)
	require.NoError(t, err)
	_, err = ParseUserToken("k", token)
	assert.Error(t, err)
}
