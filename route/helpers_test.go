package route

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"cafefinder/auth"
	"cafefinder/controller"
	"cafefinder/model"
	"cafefinder/repository"
	"cafefinder/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type memoryCafes struct {
	mu     sync.Mutex
	rows   map[uint]model.Cafe
	nextID uint
}

func newMemoryCafes() *memoryCafes {
	return &memoryCafes{rows: map[uint]model.Cafe{}}
}

// nameTaken mirrors the case-sensitive unique index on cafes.name.
func (m *memoryCafes) nameTaken(name string, except uint) bool {
	for id, c := range m.rows {
		if id != except && c.Name == name {
			return true
		}
	}
	return false
}

func (m *memoryCafes) List(context.Context) ([]model.Cafe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Cafe, 0, len(m.rows))
	for _, c := range m.rows {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memoryCafes) FindByID(_ context.Context, id uint) (*model.Cafe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &c, nil
}

func (m *memoryCafes) Create(_ context.Context, cafe *model.Cafe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cafe.Prepare()
	if m.nameTaken(cafe.Name, 0) {
		return repository.ErrDuplicate
	}
	m.nextID++
	cafe.ID = m.nextID
	m.rows[cafe.ID] = *cafe
	return nil
}

func (m *memoryCafes) CreateBatch(ctx context.Context, cafes []model.Cafe) error {
	m.mu.Lock()
	for _, c := range cafes {
		if m.nameTaken(c.Name, 0) {
			m.mu.Unlock()
			return repository.ErrDuplicate
		}
	}
	m.mu.Unlock()
	for i := range cafes {
		if err := m.Create(ctx, &cafes[i]); err != nil {
			return err
		}
	}
	return nil
}

func (m *memoryCafes) Update(_ context.Context, cafe *model.Cafe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[cafe.ID]; !ok {
		return repository.ErrNotFound
	}
	cafe.Prepare()
	if m.nameTaken(cafe.Name, cafe.ID) {
		return repository.ErrDuplicate
	}
	m.rows[cafe.ID] = *cafe
	return nil
}

func (m *memoryCafes) Delete(_ context.Context, id uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.rows[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memoryCafes) ImageInUse(_ context.Context, imgURL string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.rows {
		if c.ImgURL == imgURL {
			return true, nil
		}
	}
	return false, nil
}

func (m *memoryCafes) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.rows)
}

type memoryUsers struct {
	mu      sync.Mutex
	byEmail map[string]model.User
	nextID  uint
}

func (m *memoryUsers) Create(_ context.Context, user *model.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Prepare()
	if _, ok := m.byEmail[user.Email]; ok {
		return repository.ErrDuplicate
	}
	m.nextID++
	user.ID = m.nextID
	m.byEmail[user.Email] = *user
	return nil
}

func (m *memoryUsers) FindByEmail(_ context.Context, email string) (*model.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byEmail[strings.ToLower(strings.TrimSpace(email))]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

type testApp struct {
	router    http.Handler
	cafes     *memoryCafes
	users     *memoryUsers
	uploadDir string
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	return newTestAppWithLimiter(t, utils.NewRateLimiter(1000, 1000))
}

func newTestAppWithLimiter(t *testing.T, limiter *utils.RateLimiter) *testApp {
	t.Helper()

	app := &testApp{
		cafes:     newMemoryCafes(),
		users:     &memoryUsers{byEmail: map[string]model.User{}},
		uploadDir: t.TempDir(),
	}
	sessions := utils.NewSessionManager("test-secret-key-0123456789", time.Hour, false)

	router, err := NewRouter(Options{
		Cafes: controller.NewCafeController(app.cafes, &controller.Uploader{Dir: app.uploadDir}),
		Auth: controller.NewAuthController(
			auth.NewService(app.users, auth.WithCost(bcrypt.MinCost)),
			sessions,
		),
		Sessions:       sessions,
		AuthLimiter:    limiter,
		AllowedOrigins: []string{"http://localhost:3000"},
		UploadDir:      app.uploadDir,
	})
	require.NoError(t, err)
	app.router = router
	return app
}

// client is a tiny cookie-keeping browser.
type client struct {
	app     *testApp
	cookies map[string]*http.Cookie
}

func (a *testApp) client() *client {
	return &client{app: a, cookies: map[string]*http.Cookie{}}
}

func (cl *client) do(req *http.Request) *httptest.ResponseRecorder {
	for _, ck := range cl.cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	cl.app.router.ServeHTTP(rec, req)

	for _, ck := range rec.Result().Cookies() {
		if ck.MaxAge < 0 || ck.Value == "" {
			delete(cl.cookies, ck.Name)
			continue
		}
		cl.cookies[ck.Name] = ck
	}
	return rec
}

func (cl *client) get(path string) *httptest.ResponseRecorder {
	return cl.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func (cl *client) post(path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return cl.do(req)
}

// postMultipart sends form plus one file the way a browser submits the cafe form.
func (cl *client) postMultipart(t *testing.T, path string, form url.Values, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, vs := range form {
		for _, v := range vs {
			require.NoError(t, mw.WriteField(k, v))
		}
	}
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return cl.do(req)
}

func (cl *client) register(t *testing.T, email, password string) {
	t.Helper()
	rec := cl.post("/register", url.Values{"email": {email}, "password": {password}})
	require.Equal(t, http.StatusFound, rec.Code)
	require.Equal(t, "/", rec.Header().Get("Location"))
	require.Contains(t, cl.cookies, utils.SessionCookieName)
}

// uploadedFiles lists the file names currently in the upload directory.
func (a *testApp) uploadedFiles(t *testing.T) []string {
	t.Helper()
	entries, err := os.ReadDir(a.uploadDir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func cafeForm(name string) url.Values {
	return url.Values{
		"name":           {name},
		"location":       {"Shoreditch, London"},
		"img_url":        {"https://images.example.com/" + strings.ReplaceAll(name, " ", "-") + ".jpg"},
		"map_url":        {"https://goo.gl/maps/abc123"},
		"seats":          {"20-30"},
		"coffee_price":   {"£2.40"},
		"has_toilet":     {"true"},
		"has_wifi":       {"true"},
		"can_take_calls": {"true"},
	}
}
