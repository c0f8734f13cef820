package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"cv-evaluator-be/internal/pkg/logger"
	"cv-evaluator-be/internal/pkg/serverutils"
	"cv-evaluator-be/internal/repository/memory"
	"cv-evaluator-be/internal/service"
	"cv-evaluator-be/pkg/cvparser/cvparsertest"
	"cv-evaluator-be/pkg/evaluator"
	"cv-evaluator-be/pkg/events"
	"cv-evaluator-be/pkg/llm"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubProvider struct{}

func (stubProvider) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (*llm.Completion, error) {
	return &llm.Completion{
		Content: "CV tốt",
		Usage:   llm.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}, nil
}

func (p stubProvider) Generate(ctx context.Context, prompt string, options ...llm.Option) (*llm.Completion, error) {
	return p.Chat(ctx, nil, options...)
}

func newTestApp(t *testing.T, jwtSecret string) *fiber.App {
	t.Helper()
	log := logger.NewNopLogger()
	repo := memory.NewCvSessionRepository()
	eval := evaluator.New(repo, stubProvider{}, evaluator.DefaultConfig(), log)
	svc := service.NewEvaluationService(repo, eval, events.NopPublisher(), t.TempDir(), log)

	app := fiber.New(fiber.Config{ErrorHandler: serverutils.NewErrorHandler(log)})
	app.Use(serverutils.ErrorHandlerMiddleware(log))
	NewInfoController(0).RegisterRoutes(app)
	NewEvaluateController(svc, jwtSecret).RegisterRoutes(app)
	return app
}

type jsonBody map[string]interface{}

func send(t *testing.T, app *fiber.App, req *http.Request) (int, jsonBody) {
	t.Helper()
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	var body jsonBody
	require.NoError(t, json.Unmarshal(raw, &body), string(raw))
	return resp.StatusCode, body
}

func jsonRequest(t *testing.T, method, path string, payload interface{}) *http.Request {
	t.Helper()
	var reader io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	return req
}

func uploadRequest(t *testing.T, userId string, filename string, content []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if userId != "" {
		require.NoError(t, w.WriteField("userId", userId))
	}
	if content != nil {
		part, err := w.CreateFormFile("cv", filename)
		require.NoError(t, err)
		_, err = part.Write(content)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/ai/evaluate/upload", &body)
	req.Header.Set(fiber.HeaderContentType, w.FormDataContentType())
	return req
}

func samplePDF() []byte {
	return cvparsertest.BuildPDF(
		[]string{"John Doe", "Experience", "Engineer at Acme"},
		[]string{"Skills", "Java, SQL"},
	)
}

func uploadCV(t *testing.T, app *fiber.App, userId string) string {
	t.Helper()
	status, body := send(t, app, uploadRequest(t, userId, "john.pdf", samplePDF()))
	require.Equal(t, http.StatusOK, status, body)
	data := body["data"].(map[string]interface{})
	return data["sessionId"].(string)
}

func TestUpload_RoundTrip(t *testing.T) {
	app := newTestApp(t, "")

	status, body := send(t, app, uploadRequest(t, "user-1", "john.pdf", samplePDF()))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, true, body["success"])

	data := body["data"].(map[string]interface{})
	sessionId := data["sessionId"].(string)
	assert.Equal(t, "john.pdf", data["filename"])
	assert.Equal(t, float64(2), data["numPages"])
	assert.Equal(t, map[string]interface{}{
		"hasContact": false, "hasSummary": false, "hasExperience": true, "hasEducation": false, "hasSkills": true,
	}, data["sections"])
	assert.Equal(t, map[string]interface{}{"used": float64(0), "remaining": float64(10), "max": float64(10)}, data["promptInfo"])

	status, body = send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate/"+sessionId+"?userId=user-1", nil))
	require.Equal(t, http.StatusOK, status)
	detail := body["data"].(map[string]interface{})
	sections := detail["sections"].(map[string]interface{})
	assert.Equal(t, "Java, SQL", sections["skills"])
	assert.Nil(t, sections["education"])
	assert.Equal(t, float64(0), detail["messageCount"])
	assert.Empty(t, detail["messages"])
	assert.NotEmpty(t, detail["createdAt"])
}

func TestUpload_Validation(t *testing.T) {
	app := newTestApp(t, "")

	status, body := send(t, app, uploadRequest(t, "", "john.pdf", samplePDF()))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "userId: userId is required", body["error"])

	status, body = send(t, app, uploadRequest(t, "user-1", "", nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "No PDF file uploaded. Use field name 'cv'", body["error"])

	status, body = send(t, app, uploadRequest(t, "user-1", "notes.txt", []byte("just some text")))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "INVALID_FILE_TYPE", body["code"])
	assert.Equal(t, "Only PDF files are allowed", body["error"])
}

func TestChat_QuotaExhaustedAfterTenPrompts(t *testing.T) {
	app := newTestApp(t, "")
	sessionId := uploadCV(t, app, "user-1")
	payload := jsonBody{"userId": "user-1", "sessionId": sessionId, "message": "Đánh giá giúp tôi"}

	for i := 1; i <= 10; i++ {
		status, body := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", payload))
		require.Equal(t, http.StatusOK, status, "prompt %d", i)
		data := body["data"].(map[string]interface{})
		assert.Equal(t, "CV tốt", data["response"])
		info := data["promptInfo"].(map[string]interface{})
		assert.Equal(t, float64(i), info["used"])
		assert.Equal(t, float64(10-i), info["remaining"])
	}

	status, body := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", payload))
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Prompt limit reached", body["error"])
	assert.Equal(t, "PROMPT_LIMIT_REACHED", body["code"])
	assert.Equal(t, map[string]interface{}{"used": float64(10), "remaining": float64(0), "max": float64(10)}, body["promptInfo"])
}

func TestChat_Validation(t *testing.T) {
	app := newTestApp(t, "")

	status, body := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", jsonBody{
		"userId": "user-1", "sessionId": "not-a-uuid", "message": "hi",
	}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
	assert.Equal(t, "sessionId: sessionId must be a valid UUID", body["error"])

	status, body = send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", jsonBody{
		"userId": "   ", "sessionId": "11111111-1111-4111-8111-111111111111", "message": "hi",
	}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "userId: userId is required", body["error"])

	status, _ = send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", jsonBody{
		"userId": "user-1", "sessionId": "11111111-1111-4111-8111-111111111111", "message": "hi",
	}))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestDelete_WrongOwnerLeavesSession(t *testing.T) {
	app := newTestApp(t, "")
	sessionId := uploadCV(t, app, "user-1")

	status, body := send(t, app, jsonRequest(t, http.MethodDelete, "/ai/evaluate/"+sessionId+"?userId=user-2", nil))
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "SESSION_NOT_FOUND", body["code"])
	assert.Equal(t, "Session not found or access denied", body["error"])

	status, _ = send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate/"+sessionId+"?userId=user-1", nil))
	assert.Equal(t, http.StatusOK, status)

	status, body = send(t, app, jsonRequest(t, http.MethodDelete, "/ai/evaluate/"+sessionId+"?userId=user-1", nil))
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Session deleted successfully", body["message"])
	assert.NotContains(t, body, "data")

	status, _ = send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate/"+sessionId+"?userId=user-1", nil))
	assert.Equal(t, http.StatusNotFound, status)
}

func TestGetSession_RequiresUserIdQuery(t *testing.T) {
	app := newTestApp(t, "")
	sessionId := uploadCV(t, app, "user-1")

	status, body := send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate/"+sessionId, nil))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_ERROR", body["code"])
}

func TestClear_UnblocksChat(t *testing.T) {
	app := newTestApp(t, "")
	sessionId := uploadCV(t, app, "user-1")
	chat := jsonBody{"userId": "user-1", "sessionId": sessionId, "message": "next"}

	for i := 0; i < 10; i++ {
		status, _ := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", chat))
		require.Equal(t, http.StatusOK, status)
	}
	status, _ := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", chat))
	require.Equal(t, http.StatusTooManyRequests, status)

	status, body := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/"+sessionId+"/clear", jsonBody{"userId": "user-1"}))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Chat history cleared and prompts reset", body["message"])
	assert.Equal(t, map[string]interface{}{"used": float64(0), "remaining": float64(10), "max": float64(10)}, body["promptInfo"])

	status, _ = send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/chat", chat))
	assert.Equal(t, http.StatusOK, status)
}

func TestJobAndInitialEvaluation(t *testing.T) {
	app := newTestApp(t, "")
	sessionId := uploadCV(t, app, "user-1")

	status, body := send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/job", jsonBody{
		"userId": "user-1", "sessionId": sessionId, "jobDescription": "short",
	}))
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "jobDescription: jobDescription must be at least 10 characters", body["error"])

	status, _ = send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/job", jsonBody{
		"userId": "user-1", "sessionId": sessionId, "jobDescription": "Senior Go developer with PostgreSQL",
	}))
	assert.Equal(t, http.StatusOK, status)

	status, body = send(t, app, jsonRequest(t, http.MethodPost, "/ai/evaluate/"+sessionId+"/evaluate", jsonBody{"userId": "user-1"}))
	require.Equal(t, http.StatusOK, status)
	info := body["data"].(map[string]interface{})["promptInfo"].(map[string]interface{})
	assert.Equal(t, float64(2), info["used"])
}

func TestListSessions(t *testing.T) {
	app := newTestApp(t, "")
	uploadCV(t, app, "user-1")
	uploadCV(t, app, "user-1")

	status, body := send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=user-1", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, body["data"], 2)

	status, body = send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=someone-else", nil))
	require.Equal(t, http.StatusOK, status)
	require.Contains(t, body, "data")
	assert.Equal(t, []interface{}{}, body["data"])
}

func TestListSessions_EmptyKeepsDataKey(t *testing.T) {
	app := newTestApp(t, "")

	status, body := send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=nobody", nil))
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, jsonBody{"success": true, "data": []interface{}{}}, body)
}

func TestJwt_RejectsMismatchedIdentity(t *testing.T) {
	const secret = "test-secret"
	app := newTestApp(t, secret)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": "user-1"}).SignedString([]byte(secret))
	require.NoError(t, err)

	req := jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=user-2", nil)
	req.Header.Set(fiber.HeaderAuthorization, fmt.Sprintf("Bearer %s", token))
	status, body := send(t, app, req)
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", body["code"])

	req = jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=user-1", nil)
	req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	status, _ = send(t, app, req)
	assert.Equal(t, http.StatusOK, status)

	status, _ = send(t, app, jsonRequest(t, http.MethodGet, "/ai/evaluate?userId=user-1", nil))
	assert.Equal(t, http.StatusUnauthorized, status)
}
