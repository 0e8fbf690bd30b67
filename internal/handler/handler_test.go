package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/novelhub/internal/config"
	"github.com/novelhub/internal/middleware"
	"github.com/novelhub/internal/repository"
	"github.com/novelhub/internal/service"
	"github.com/novelhub/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := RegisterValidators(); err != nil {
		panic(err)
	}
}

type memoryUploader struct{}

func (memoryUploader) Upload(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	return "https://img.example.com/" + key, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	feed   *service.ViewFeed
}

func newTestServer(t *testing.T) *testServer {
	db := testutil.NewDB(t)

	userRepo := repository.NewUserRepository(db)
	novelRepo := repository.NewNovelRepository(db)
	chapterRepo := repository.NewChapterRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)

	authService := service.NewAuthService(userRepo, config.JWTConfig{Secret: "handler-secret", ExpireHours: 1})
	uploadService := service.NewUploadService(memoryUploader{}, config.UploadConfig{MaxImageMB: 5, MaxQRImageMB: 2})
	novelService := service.NewNovelService(novelRepo, chapterRepo, uploadService, config.ContentConfig{})
	chapterService := service.NewChapterService(novelRepo, chapterRepo, uploadService)
	paymentService := service.NewPaymentService(paymentRepo, uploadService)
	feed := service.NewViewFeed(nil)

	router := gin.New()
	v1 := router.Group("/api/v1")
	authMiddleware := middleware.AuthMiddleware(authService)
	NewAuthHandler(authService).RegisterRoutes(v1, authMiddleware)
	NewNovelHandler(novelService, uploadService).RegisterRoutes(v1, authMiddleware)
	NewChapterHandler(chapterService, uploadService).RegisterRoutes(v1, authMiddleware)
	NewPaymentHandler(paymentService, uploadService).RegisterRoutes(v1, authMiddleware)
	NewUploadHandler(uploadService).RegisterRoutes(v1, authMiddleware)
	NewLiveHandler(feed, novelRepo).RegisterRoutes(v1)

	return &testServer{t: t, router: router, feed: feed}
}

func (s *testServer) do(req *http.Request, token string) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)

	var env envelope
	_ = json.Unmarshal(w.Body.Bytes(), &env)
	return w, env
}

func (s *testServer) json(method, path, token string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	return s.do(req, token)
}

type part struct {
	field    string
	filename string
	data     []byte
}

func (s *testServer) multipart(method, path, token string, values map[string][]string, files []part) (*httptest.ResponseRecorder, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, vs := range values {
		for _, v := range vs {
			require.NoError(s.t, mw.WriteField(k, v))
		}
	}
	for _, f := range files {
		fw, err := mw.CreateFormFile(f.field, f.filename)
		require.NoError(s.t, err)
		_, err = fw.Write(f.data)
		require.NoError(s.t, err)
	}
	require.NoError(s.t, mw.Close())

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return s.do(req, token)
}

// signup registers and logs in a user, returning its token
func (s *testServer) signup(name string) string {
	s.t.Helper()
	w, _ := s.json("POST", "/api/v1/auth/register", "", map[string]string{
		"name": name, "email": name + "@example.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	w, env := s.json("POST", "/api/v1/auth/login", "", map[string]string{
		"email": name + "@example.com", "password": "secret1",
	})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var token service.TokenResponse
	require.NoError(s.t, json.Unmarshal(env.Data, &token))
	return token.AccessToken
}

func (s *testServer) createNovel(token, title string) string {
	s.t.Helper()
	w, env := s.json("POST", "/api/v1/novels", token, map[string]interface{}{
		"title": title, "description": "A story", "genres": []string{"Fantasy"},
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())

	var novel struct {
		ID string `json:"id"`
	}
	require.NoError(s.t, json.Unmarshal(env.Data, &novel))
	return novel.ID
}

func jpeg(n int) []byte {
	data := make([]byte, n)
	copy(data, []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10, 'J', 'F', 'I', 'F', 0x00})
	return data
}

func TestRegisterConflict(t *testing.T) {
	s := newTestServer(t)
	body := map[string]string{"name": "Ada", "email": "ada@example.com", "password": "secret1"}

	w, _ := s.json("POST", "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.NotContains(t, w.Body.String(), "password")

	w, env := s.json("POST", "/api/v1/auth/register", "", body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User with this email already exists", env.Message)

	w, _ = s.json("POST", "/api/v1/auth/register", "", map[string]string{"name": "B", "email": "b@example.com", "password": "123"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeRequiresToken(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("ada")

	w, _ := s.json("GET", "/api/v1/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w, env := s.json("GET", "/api/v1/auth/me", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "ada@example.com")
}

func TestNovelLifecycle(t *testing.T) {
	s := newTestServer(t)
	author := s.signup("author")
	reader := s.signup("reader")

	w, _ := s.json("POST", "/api/v1/novels", "", map[string]string{"title": "x", "description": "y"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	id := s.createNovel(author, "First")

	for i := 1; i <= 3; i++ {
		w, env := s.json("GET", "/api/v1/novels/"+id, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		var detail struct {
			Novel struct {
				Views int64 `json:"views"`
			} `json:"novel"`
			Chapters []interface{} `json:"chapters"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &detail))
		assert.Equal(t, int64(i), detail.Novel.Views)
		assert.NotNil(t, detail.Chapters)
	}

	w, _ = s.json("PUT", "/api/v1/novels/"+id, reader, map[string]string{"title": "Mine now", "description": "x"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.json("DELETE", "/api/v1/novels/"+id, reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env := s.json("PUT", "/api/v1/novels/"+id, author, map[string]string{"title": "Renamed", "description": "New"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Renamed")

	w, _ = s.json("PUT", "/api/v1/novels/"+id, author, map[string]string{"title": "", "description": "New"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = s.json("PATCH", "/api/v1/novels/"+id+"/details", author, map[string]interface{}{"genres": []string{"Drama"}})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "Drama")

	w, _ = s.json("DELETE", "/api/v1/novels/"+id, author, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, _ = s.json("GET", "/api/v1/novels/"+id, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w, _ = s.json("GET", "/api/v1/novels/not-a-uuid", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListNovelsPagination(t *testing.T) {
	s := newTestServer(t)
	author := s.signup("author")
	for i := 0; i < 25; i++ {
		s.createNovel(author, fmt.Sprintf("Novel %d", i))
	}

	w, env := s.json("GET", "/api/v1/novels?page=3&limit=10", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page service.NovelPage
	require.NoError(t, json.Unmarshal(env.Data, &page))
	assert.Len(t, page.Novels, 5)
	assert.Equal(t, service.Pagination{Total: 25, Page: 3, Limit: 10, Pages: 3}, page.Pagination)

	w, _ = s.json("GET", "/api/v1/novels?authorId=bogus", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestChapterMultipartFlow(t *testing.T) {
	s := newTestServer(t)
	author := s.signup("author")
	reader := s.signup("reader")
	novelID := s.createNovel(author, "Illustrated")
	base := "/api/v1/novels/" + novelID + "/chapters"

	w, env := s.multipart("POST", base, author,
		map[string][]string{"title": {"One"}, "content": {"text"}, "chapterNumber": {"1"}},
		[]part{{field: "images", filename: "map.jpg", data: jpeg(256)}})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var chapter struct {
		ID     string   `json:"id"`
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &chapter))
	require.Len(t, chapter.Images, 1)

	w, _ = s.multipart("POST", base, author,
		map[string][]string{"title": {"Bad"}, "content": {"text"}, "chapterNumber": {"0"}}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.multipart("POST", base, reader,
		map[string][]string{"title": {"Two"}, "content": {"text"}, "chapterNumber": {"2"}}, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, env = s.multipart("PUT", base+"/"+chapter.ID, author,
		map[string][]string{
			"title": {"One, revised"}, "content": {"more"}, "chapterNumber": {"1"},
			"keepImages[]": {chapter.Images[0]},
		},
		[]part{{field: "newImages[0]", filename: "extra.jpg", data: jpeg(128)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var updated struct {
		Images []string `json:"images"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &updated))
	require.Len(t, updated.Images, 2)
	assert.Equal(t, chapter.Images[0], updated.Images[0])
	assert.True(t, strings.HasSuffix(updated.Images[1], "-extra.jpg"))

	w, env = s.json("GET", base+"/"+chapter.ID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), `"navigation"`)

	w, _ = s.json("DELETE", base+"/"+chapter.ID, reader, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.json("DELETE", base+"/"+chapter.ID, author, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = s.json("GET", base+"/"+chapter.ID, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPaymentUpsertStatusCodes(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("payee")

	w, _ := s.json("POST", "/api/v1/payments/upi", token, map[string]string{"upiId": "alice"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = s.json("POST", "/api/v1/payments/upi", token, map[string]string{"upiId": "alice@upi"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env := s.json("POST", "/api/v1/payments/upi", token, map[string]string{"upiId": "alice@okbank"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, string(env.Data), "alice@okbank")

	w, env = s.json("GET", "/api/v1/payments", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var profiles []map[string]interface{}
	require.NoError(t, json.Unmarshal(env.Data, &profiles))
	assert.Len(t, profiles, 1)

	w, _ = s.json("POST", "/api/v1/payments", token, map[string]string{"paymentType": "paypal", "paypalEmail": "ada@example.com"})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, env = s.json("GET", "/api/v1/payments/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var settings struct {
		UPI    *struct{ UPIID string `json:"upiId"` }       `json:"upiPayment"`
		PayPal *struct{ Email string `json:"paypalEmail"` } `json:"paypalPayment"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &settings))
	require.NotNil(t, settings.UPI)
	assert.Equal(t, "alice@okbank", settings.UPI.UPIID)
	require.NotNil(t, settings.PayPal)

	w, _ = s.json("DELETE", "/api/v1/payments", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w, env = s.json("GET", "/api/v1/payments/settings", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"upiPayment":null,"paypalPayment":null}`, string(env.Data))

	w, _ = s.json("GET", "/api/v1/payments", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestQRUploadCeiling(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("payee")

	w, _ := s.multipart("POST", "/api/v1/payments/upload", token, nil,
		[]part{{field: "file", filename: "qr.jpg", data: jpeg(3 << 20)}})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env := s.multipart("POST", "/api/v1/payments/upload", token, nil,
		[]part{{field: "file", filename: "qr.jpg", data: jpeg(19 << 20 / 10)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var body struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &body))
	assert.True(t, strings.HasPrefix(body.URL, "https://img.example.com/payments/"))

	w, env = s.multipart("POST", "/api/v1/payments/upload", token, nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "No file uploaded", env.Message)
}

func TestGeneralUploadAndCover(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("author")
	novelID := s.createNovel(token, "Covered")

	w, _ := s.multipart("POST", "/api/v1/uploads", token, nil,
		[]part{{field: "file", filename: "big.jpg", data: jpeg(3 << 20)}})
	assert.Equal(t, http.StatusOK, w.Code)

	w, env := s.multipart("POST", "/api/v1/novels/"+novelID+"/cover", token, nil,
		[]part{{field: "file", filename: "cover.jpg", data: jpeg(1024)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, string(env.Data), "novels/"+novelID)

	w, _ = s.multipart("POST", "/api/v1/uploads", token, nil,
		[]part{{field: "file", filename: "notes.txt", data: []byte("plain text")}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAnalytics(t *testing.T) {
	s := newTestServer(t)
	token := s.signup("author")
	id := s.createNovel(token, "Read me")
	s.json("GET", "/api/v1/novels/"+id, "", nil)

	w, env := s.json("GET", "/api/v1/analytics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats service.AuthorAnalytics
	require.NoError(t, json.Unmarshal(env.Data, &stats))
	assert.Equal(t, int64(1), stats.TotalViews)
	assert.Equal(t, 100, stats.Novels[0].SharePct)
}
