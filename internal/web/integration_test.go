package web_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/nutriscan/internal/analysis"
	"github.com/vbonduro/nutriscan/internal/chat"
	"github.com/vbonduro/nutriscan/internal/db"
	"github.com/vbonduro/nutriscan/internal/domain"
	"github.com/vbonduro/nutriscan/internal/nutrition"
	"github.com/vbonduro/nutriscan/internal/service"
	"github.com/vbonduro/nutriscan/internal/store"
	"github.com/vbonduro/nutriscan/internal/upload/local"
	"github.com/vbonduro/nutriscan/internal/vision"
	"github.com/vbonduro/nutriscan/internal/web"
)

// minimalJPEG is 512 bytes with the JPEG magic bytes header followed by zeros.
// http.DetectContentType identifies JPEG from the leading 0xFF 0xD8 bytes.
var minimalJPEG = func() []byte {
	b := make([]byte, 512)
	b[0] = 0xFF
	b[1] = 0xD8
	b[2] = 0xFF
	b[3] = 0xE0
	return b
}()

type fixedDetector struct {
	labels []domain.Label
	err    error
}

func (d *fixedDetector) DetectLabels(_ context.Context, _ vision.Image) ([]domain.Label, error) {
	return d.labels, d.err
}

type fixedCompleter struct {
	reply string
	err   error
}

func (c *fixedCompleter) Complete(_ context.Context, _ []chat.Turn) (string, error) {
	return c.reply, c.err
}

// fdcServer fakes the FoodData Central search and detail endpoints for one
// food, "Banana".
func fdcServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/fdc/v1/foods/search":
			if r.URL.Query().Get("query") != "Banana" {
				_, _ = w.Write([]byte(`{"foods":[]}`))
				return
			}
			_, _ = w.Write([]byte(`{"foods":[{"fdcId":42,"description":"Bananas, raw"}]}`))
		case "/fdc/v1/food/42":
			_, _ = w.Write([]byte(`{"fdcId":42,"description":"Bananas, raw","foodNutrients":[
				{"amount":1.09,"nutrient":{"name":"Protein","unitName":"g"}},
				{"amount":89,"nutrient":{"name":"Energy","unitName":"kcal"}},
				{"nutrient":{"name":"Iron, Fe","unitName":"mg"}}
			]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type testEnv struct {
	srv      *httptest.Server
	db       *sql.DB
	detector *fixedDetector
	bot      *fixedCompleter
}

// newTestServer sets up a real web.Server backed by in-memory SQLite, the
// local uploader, and a fake FDC API.
func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	database, err := db.OpenForTesting()
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	photos, err := local.NewUploader(t.TempDir(), "http://photos.test")
	require.NoError(t, err)

	env := &testEnv{
		db: database,
		detector: &fixedDetector{labels: []domain.Label{
			{Description: "Fruit", Confidence: 0.7},
			{Description: "Banana", Confidence: 0.95},
		}},
		bot: &fixedCompleter{reply: "Bananas are a good source of potassium."},
	}
	lookup := nutrition.NewClient("key", 5*time.Second).WithBaseURL(fdcServer(t).URL)

	food := service.NewFoodService(photos, env.detector, lookup, store.NewHistoryStore(database), logger).WithInlineImages()
	chats := service.NewChatService(store.NewChatStore(database), env.bot, logger)

	env.srv = httptest.NewServer(web.NewServer(food, chats, photos, logger))
	t.Cleanup(env.srv.Close)
	return env
}

// buildMultipartBody creates a multipart/form-data body with an "image" field.
func buildMultipartBody(t *testing.T, imageData []byte) (body *bytes.Buffer, contentType string) {
	t.Helper()
	body = &bytes.Buffer{}
	w := multipart.NewWriter(body)
	fw, err := w.CreateFormFile("image", "photo.jpg")
	require.NoError(t, err)
	_, err = fw.Write(imageData)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return body, w.FormDataContentType()
}

func postImage(t *testing.T, srv *httptest.Server, data []byte) *http.Response {
	t.Helper()
	body, ct := buildMultipartBody(t, data)
	resp, err := http.Post(srv.URL+"/api/analyze", ct, body)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func decode(t *testing.T, resp *http.Response, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func do(t *testing.T, method, url string, body io.Reader) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, body)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

type analyzeBody struct {
	Success            bool              `json:"success"`
	Description        string            `json:"description"`
	Confidence         float64           `json:"confidence"`
	ImageURL           string            `json:"imageUrl"`
	ImagePublicID      string            `json:"imagePublicId"`
	Nutrients          []domain.Nutrient `json:"nutrients"`
	EssentialNutrients []domain.Nutrient `json:"essentialNutrients"`
	AllLabels          []domain.Label    `json:"allLabels"`
	EntryID            string            `json:"entryId"`
	SaveError          string            `json:"saveError"`
}

func TestIntegration_AnalyzeSavesHistory(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp := postImage(t, env.srv, minimalJPEG)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got analyzeBody
	decode(t, resp, &got)
	assert.True(t, got.Success)
	assert.Equal(t, "Banana", got.Description)
	assert.InDelta(t, 0.95, got.Confidence, 1e-9)
	assert.True(t, strings.HasPrefix(got.ImageURL, "http://photos.test/photos/nutriscan_"))
	assert.Len(t, got.Nutrients, 3)
	require.Len(t, got.EssentialNutrients, 1)
	assert.Equal(t, "Protein", got.EssentialNutrients[0].Name)
	require.Len(t, got.AllLabels, 2)
	assert.Equal(t, "Banana", got.AllLabels[0].Description)
	require.NotEmpty(t, got.EntryID)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/history", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entries []struct {
		ID                 string            `json:"id"`
		FoodLabel          string            `json:"foodLabel"`
		ImagePath          string            `json:"imagePath"`
		EssentialNutrients []domain.Nutrient `json:"essentialNutrients"`
	}
	decode(t, resp, &entries)
	require.Len(t, entries, 1)
	assert.Equal(t, got.EntryID, entries[0].ID)
	assert.Equal(t, "Banana", entries[0].FoodLabel)
	assert.Equal(t, got.ImageURL, entries[0].ImagePath)
	assert.Len(t, entries[0].EssentialNutrients, 1)

	resp = do(t, http.MethodGet, env.srv.URL+"/photos/"+got.ImagePublicID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/jpeg", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, minimalJPEG, data)
}

func TestIntegration_AnalyzeFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	t.Run("no labels", func(t *testing.T) {
		env := newTestServer(t)
		env.detector.labels = nil

		resp := postImage(t, env.srv, minimalJPEG)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var got analysis.Outcome
		decode(t, resp, &got)
		assert.False(t, got.Success)
		assert.Equal(t, analysis.KindNoLabels, got.Error)
		assert.Equal(t, analysis.MsgNoLabels, got.Message)
		assert.NotEmpty(t, got.ImageURL)
	})

	t.Run("food not found", func(t *testing.T) {
		env := newTestServer(t)
		env.detector.labels = []domain.Label{{Description: "Granite countertop", Confidence: 0.9}}

		resp := postImage(t, env.srv, minimalJPEG)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var got analysis.Outcome
		decode(t, resp, &got)
		assert.Equal(t, analysis.KindFoodNotFound, got.Error)
		assert.Equal(t, analysis.MsgFoodNotFound("Granite countertop"), got.Message)

		resp = do(t, http.MethodGet, env.srv.URL+"/api/history", nil)
		var entries []json.RawMessage
		decode(t, resp, &entries)
		assert.Empty(t, entries)
	})

	t.Run("vision error", func(t *testing.T) {
		env := newTestServer(t)
		env.detector.err = &vision.APIError{StatusCode: http.StatusForbidden, Message: "denied"}

		resp := postImage(t, env.srv, minimalJPEG)
		require.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)

		var got analysis.Outcome
		decode(t, resp, &got)
		assert.Equal(t, analysis.KindVisionAPIError, got.Error)
	})
}

func TestIntegration_AnalyzeRejectsBadInput(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp := postImage(t, env.srv, []byte("%PDF-1.7\n1 0 obj\n<< /Type /Catalog >>\nendobj\n"))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var body struct {
		Error string `json:"error"`
	}
	decode(t, resp, &body)
	assert.Equal(t, "unsupported image format: application/pdf", body.Error)

	resp = postImage(t, env.srv, []byte("definitely not an image"))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Post(env.srv.URL+"/api/analyze", "application/json", strings.NewReader(`{}`))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_AnalyzeSaveFailureKeepsResult(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	require.NoError(t, env.db.Close())

	resp := postImage(t, env.srv, minimalJPEG)
	require.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var got analyzeBody
	decode(t, resp, &got)
	assert.True(t, got.Success)
	assert.Equal(t, "Banana", got.Description)
	assert.Len(t, got.EssentialNutrients, 1)
	assert.Empty(t, got.EntryID)
	assert.Equal(t, "failed to save nutrition entry", got.SaveError)
}

func TestIntegration_HistoryEntry(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	var got analyzeBody
	decode(t, postImage(t, env.srv, minimalJPEG), &got)
	require.NotEmpty(t, got.EntryID)

	resp := do(t, http.MethodGet, env.srv.URL+"/api/history/"+got.EntryID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = do(t, http.MethodDelete, env.srv.URL+"/api/history/"+got.EntryID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/history/"+got.EntryID, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestIntegration_Chat(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)

	resp := do(t, http.MethodPost, env.srv.URL+"/api/chats/messages",
		strings.NewReader(`{"text":"Are bananas healthy for breakfast"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var reply service.Reply
	decode(t, resp, &reply)
	require.NotEmpty(t, reply.ChatID)
	assert.False(t, reply.Failed)
	assert.Equal(t, env.bot.reply, reply.Bot.Text)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/chats?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var chats []domain.Chat
	decode(t, resp, &chats)
	require.Len(t, chats, 1)
	assert.Equal(t, "Bananas are a good", chats[0].Title)
	assert.Equal(t, env.bot.reply, chats[0].LastMessage)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/chats?limit=0", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var none []domain.Chat
	decode(t, resp, &none)
	assert.Empty(t, none)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/chats/"+reply.ChatID+"/messages", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var messages []domain.Message
	decode(t, resp, &messages)
	require.Len(t, messages, 2)
	assert.Equal(t, domain.RoleUser, messages[0].Role)
	assert.Equal(t, domain.RoleBot, messages[1].Role)

	resp = do(t, http.MethodDelete, env.srv.URL+"/api/chats/"+reply.ChatID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/chats", nil)
	decode(t, resp, &chats)
	assert.Empty(t, chats)
}

func TestIntegration_ChatFallbackAndValidation(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	env := newTestServer(t)
	env.bot.err = errors.New("model unavailable")

	resp := do(t, http.MethodPost, env.srv.URL+"/api/chats/messages", strings.NewReader(`{"text":"hi"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reply service.Reply
	decode(t, resp, &reply)
	assert.True(t, reply.Failed)
	assert.Equal(t, chat.FallbackMessage, reply.Bot.Text)

	resp = do(t, http.MethodPost, env.srv.URL+"/api/chats/messages", strings.NewReader(`{"text":"   "}`))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = do(t, http.MethodGet, env.srv.URL+"/api/chats?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestIntegration_SecurityHeaders(t *testing.T) {
	env := newTestServer(t)

	resp := do(t, http.MethodGet, env.srv.URL+"/healthz", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))

	resp = do(t, http.MethodGet, env.srv.URL+"/photos/missing.jpg", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
