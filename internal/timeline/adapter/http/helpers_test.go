package http_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"regexp"
	"strings"
	"testing"

	"timeline/internal/auth"
	authconfig "timeline/internal/auth/config"
	authtestutil "timeline/internal/auth/testutil"
	"timeline/internal/session"
	"timeline/internal/session/adapter/persistence/memory"
	sessionconfig "timeline/internal/session/config"
	"timeline/internal/shared/eventbus"
	"timeline/internal/shared/i18n"
	"timeline/internal/timeline"
	"timeline/internal/timeline/config"
	"timeline/internal/timeline/domain/model"
	"timeline/internal/timeline/testutil"
	"timeline/internal/web"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cookieName = "timeline_session"

var csrfFieldRe = regexp.MustCompile(`name="csrf_token" value="([0-9a-f]{64})"`)

type testEnv struct {
	t      *testing.T
	app    *fiber.App
	users  *authtestutil.InMemoryUserRepository
	posts  *testutil.InMemoryPostRepository
	images *testutil.MemoryImageStore
	module *timeline.TimelineModule
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	authCfg := authconfig.DefaultConfig()
	authCfg.BcryptCost = bcrypt.MinCost
	authCfg.FailureDelayMin = 0
	authCfg.FailureDelayMax = 0
	authCfg.RateLimit = 1000

	cfg := config.DefaultConfig()
	cfg.DisplayTimezone = "UTC"

	env := &testEnv{
		t:      t,
		users:  authtestutil.NewInMemoryUserRepository(),
		posts:  testutil.NewInMemoryPostRepository(),
		images: testutil.NewMemoryImageStore(),
	}

	bus := eventbus.NewEventBus(nil)
	sessions := session.NewSessionModuleWithStore(memory.NewStore(), sessionconfig.DefaultConfig(), nil, nil)
	sessions.PublishTo(bus)
	renderer := web.MustNewRenderer()
	authModule := auth.NewAuthModuleWithRepositories(env.users, env.users, authCfg, auth.Dependencies{
		Sessions: sessions.GetMiddleware(),
		Renderer: renderer,
	})
	env.module = timeline.NewTimelineModuleWithRepositories(env.posts, env.images, cfg, timeline.Dependencies{
		Sessions: sessions.GetMiddleware(),
		Auth:     authModule.GetMiddleware(),
		Renderer: renderer,
		Bus:      bus,
	})
	t.Cleanup(func() { _ = env.module.Stop() })

	env.app = fiber.New(fiber.Config{ErrorHandler: web.ErrorHandler(nil)})
	env.app.Use(web.Localize(i18n.MustNew()))
	env.app.Use(sessions.GetMiddleware().Load(), sessions.GetMiddleware().RequireValidCSRF())
	authModule.RegisterRoutes(env.app)
	env.module.RegisterRoutes(env.app)
	return env
}

func (e *testEnv) seedUser(name, email string) string {
	user := authtestutil.NewUserFixture().UserWithEmail(email)
	user.Name = name
	require.NoError(e.t, e.users.CreateUser(context.Background(), user))
	e.posts.AddAuthor(model.Author{ID: user.ID, Name: user.Name, IconFilename: user.IconFilename})
	return user.ID
}

func (e *testEnv) do(req *http.Request) (*http.Response, string) {
	resp, err := e.app.Test(req, -1)
	require.NoError(e.t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	return resp, string(body)
}

func (e *testEnv) get(path, sid string) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	return e.do(req)
}

func (e *testEnv) post(path, sid string, form url.Values) (*http.Response, string) {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if sid != "" {
		req.AddCookie(&http.Cookie{Name: cookieName, Value: sid})
	}
	return e.do(req)
}

func sessionCookie(resp *http.Response) *http.Cookie {
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	return nil
}

func csrfToken(t *testing.T, body string) string {
	t.Helper()
	m := csrfFieldRe.FindStringSubmatch(body)
	require.Len(t, m, 2, "form must embed the CSRF token")
	return m[1]
}

// login signs email in and returns the authenticated session id with its CSRF token.
func (e *testEnv) login(email string) (string, string) {
	resp, body := e.get("/login", "")
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	sid := sessionCookie(resp).Value

	resp, _ = e.post("/login", sid, url.Values{
		"csrf_token": {csrfToken(e.t, body)},
		"email":      {email},
		"password":   {authtestutil.DefaultPassword},
	})
	require.Equal(e.t, http.StatusSeeOther, resp.StatusCode)
	sid = sessionCookie(resp).Value

	resp, body = e.get("/timeline", sid)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	return sid, csrfToken(e.t, body)
}
