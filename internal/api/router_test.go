package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/isdelr/guildvault/internal/auth"
	"github.com/isdelr/guildvault/internal/models"
	"github.com/isdelr/guildvault/internal/services"
	"github.com/isdelr/guildvault/internal/websocket"
)

type fakeBackups struct {
	services.BackupServiceProvider
	files     map[string][]models.BackupFile
	lastLabel string
	restored  []string
	busy      bool
}

func (f *fakeBackups) CreateBackup(_ context.Context, guildID, label string) (models.BackupSummary, error) {
	if f.busy {
		return models.BackupSummary{}, services.ErrOperationInProgress
	}
	f.lastLabel = label
	return models.BackupSummary{Filename: label + "_x.json", GuildID: guildID}, nil
}

func (f *fakeBackups) ListBackups(guildID string) ([]models.BackupFile, error) {
	return f.files[guildID], nil
}

func (f *fakeBackups) RestoreBackup(_ context.Context, guildID, filename string) (models.RestoreReport, error) {
	if f.busy {
		return models.RestoreReport{}, services.ErrOperationInProgress
	}
	for _, file := range f.files[guildID] {
		if file.Filename == filename {
			f.restored = append(f.restored, filename)
			report := models.NewRestoreReport()
			report.Add(models.ItemResult{Kind: models.ItemRole, Name: "Mod", Outcome: models.OutcomeCreated})
			return report, nil
		}
	}
	return models.RestoreReport{}, fmt.Errorf("%w: %s", services.ErrNotFound, filename)
}

func (f *fakeBackups) DeleteBackup(guildID, filename string) error {
	files := f.files[guildID]
	for i, file := range files {
		if file.Filename == filename {
			f.files[guildID] = append(files[:i], files[i+1:]...)
			return nil
		}
	}
	return services.ErrNotFound
}

func (f *fakeBackups) DeleteAllBackups(guildID string) (int, error) {
	n := len(f.files[guildID])
	delete(f.files, guildID)
	return n, nil
}

type fakeEvents struct {
	limits []int
	guilds []string
}

func (f *fakeEvents) CreateEvent(string, string, string, *string) error { return nil }

func (f *fakeEvents) GetRecentEvents(limit int) ([]models.Event, error) {
	f.limits = append(f.limits, limit)
	return []models.Event{{ID: "1", Type: "bot.ready"}}, nil
}

func (f *fakeEvents) GetEventsForGuild(guildID string, limit int) ([]models.Event, error) {
	f.limits = append(f.limits, limit)
	f.guilds = append(f.guilds, guildID)
	return []models.Event{}, nil
}

type fakeSchedules struct {
	services.ScheduleServiceProvider
	byID map[string]models.Schedule
}

func (f *fakeSchedules) CreateSchedule(s models.Schedule) (models.Schedule, error) {
	if s.CronExpression == "" {
		return models.Schedule{}, services.ErrBadRequest
	}
	s.ID = fmt.Sprintf("s%d", len(f.byID)+1)
	f.byID[s.ID] = s
	return s, nil
}

func (f *fakeSchedules) GetSchedulesForGuild(guildID string) ([]models.Schedule, error) {
	out := []models.Schedule{}
	for _, s := range f.byID {
		if s.GuildID == guildID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSchedules) GetScheduleByID(id string) (models.Schedule, error) {
	s, ok := f.byID[id]
	if !ok {
		return models.Schedule{}, services.ErrNotFound
	}
	return s, nil
}

func (f *fakeSchedules) UpdateSchedule(id string, s models.Schedule) (models.Schedule, error) {
	existing := f.byID[id]
	existing.CronExpression = s.CronExpression
	f.byID[id] = existing
	return existing, nil
}

func (f *fakeSchedules) DeleteSchedule(id string) error {
	delete(f.byID, id)
	return nil
}

type fakeDashboard struct{}

func (fakeDashboard) GetBotData() models.BotData {
	icon := "https://cdn.example/icon.png"
	return models.BotData{
		BotOnline:    true,
		Servers:      []models.ServerOverview{{ID: "100", Name: "Café <Guild>", MemberCount: 1234, OwnerName: "owner", BackupCount: 2, IconURL: &icon}},
		TotalServers: 1,
		TotalMembers: 1234,
		Uptime:       "1h 2m 3s",
	}
}

func (fakeDashboard) GetServerDetails(guildID string) (models.ServerDetails, error) {
	if guildID != "100" {
		return models.ServerDetails{}, fmt.Errorf("%w: guild %s", services.ErrNotFound, guildID)
	}
	return models.ServerDetails{ID: "100", Name: "Café <Guild>", Backups: []models.BackupFile{}}, nil
}

type routerFixture struct {
	router    http.Handler
	backups   *fakeBackups
	events    *fakeEvents
	schedules *fakeSchedules
	tokens    *auth.TokenIssuer
}

func newRouterFixture(c *qt.C) *routerFixture {
	return newRouterFixtureWithSecret(c, "test-secret")
}

func newRouterFixtureWithSecret(c *qt.C, secret string) *routerFixture {
	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	c.Assert(err, qt.IsNil)
	if secret == "" {
		hash = nil
	}

	f := &routerFixture{
		backups: &fakeBackups{files: map[string][]models.BackupFile{
			"100": {{Filename: "daily_Café Guild_20261019_120000.json", Size: 2048}},
		}},
		events:    &fakeEvents{},
		schedules: &fakeSchedules{byID: map[string]models.Schedule{}},
		tokens:    auth.NewTokenIssuer(secret, time.Hour),
	}
	f.router = NewRouter(Dependencies{
		Hub:            websocket.NewHub(),
		Backups:        f.backups,
		Events:         f.events,
		Schedules:      f.schedules,
		Dashboard:      fakeDashboard{},
		Auth:           services.NewAuthService("admin", string(hash)),
		Tokens:         f.tokens,
		LoginLimiter:   auth.NewLoginLimiter(time.Minute, 2),
		AllowedOrigins: []string{"http://localhost:3000"},
	})
	return f
}

func (f *routerFixture) token(c *qt.C, admin bool) string {
	token, err := f.tokens.GenerateJWT(models.User{Username: "admin", Admin: admin})
	c.Assert(err, qt.IsNil)
	return token
}

func (f *routerFixture) do(method, target, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	return rec
}

func TestDashboardRoutes(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)

	legacy := f.do("GET", "/api/bot-stats", "", "")
	c.Assert(legacy.Code, qt.Equals, http.StatusOK)
	current := f.do("GET", "/api/v1/bot-stats", "", "")
	c.Assert(current.Body.String(), qt.Equals, legacy.Body.String())

	var data map[string]interface{}
	c.Assert(json.Unmarshal(legacy.Body.Bytes(), &data), qt.IsNil)
	c.Assert(data["bot_online"], qt.Equals, true)
	c.Assert(data["uptime"], qt.Equals, "1h 2m 3s")

	c.Assert(f.do("GET", "/api/server/100", "", "").Code, qt.Equals, http.StatusOK)
	c.Assert(f.do("GET", "/api/v1/servers/100", "", "").Code, qt.Equals, http.StatusOK)
	c.Assert(f.do("GET", "/api/server/999", "", "").Code, qt.Equals, http.StatusNotFound)

	backups := f.do("GET", "/api/v1/servers/100/backups", "", "")
	c.Assert(backups.Code, qt.Equals, http.StatusOK)
	c.Assert(backups.Body.String(), qt.Contains, "daily_Café Guild_20261019_120000.json")
}

func TestDashboardPage(t *testing.T) {
	c := qt.New(t)
	rec := newRouterFixture(c).do("GET", "/", "", "")
	c.Assert(rec.Code, qt.Equals, http.StatusOK)
	c.Assert(rec.Header().Get("Content-Type"), qt.Equals, "text/html; charset=utf-8")
	body := rec.Body.String()
	c.Assert(body, qt.Contains, "Online")
	c.Assert(body, qt.Contains, "1,234")
	c.Assert(body, qt.Contains, "Café &lt;Guild&gt;")
	c.Assert(body, qt.Contains, `src="https://cdn.example/icon.png"`)
}

func TestAdminRoutesRequireAdminToken(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)

	c.Assert(f.do("POST", "/api/v1/servers/100/backups", "", "").Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(f.do("POST", "/api/v1/servers/100/backups", "", "garbage").Code, qt.Equals, http.StatusUnauthorized)
	c.Assert(f.do("POST", "/api/v1/servers/100/backups", "", f.token(c, false)).Code, qt.Equals, http.StatusForbidden)
	c.Assert(f.do("GET", "/api/v1/servers/100/schedules", "", "").Code, qt.Equals, http.StatusUnauthorized)

	created := f.do("POST", "/api/v1/servers/100/backups", `{"label":"manual"}`, f.token(c, true))
	c.Assert(created.Code, qt.Equals, http.StatusCreated)
	c.Assert(f.backups.lastLabel, qt.Equals, "manual")

	// The body is optional.
	c.Assert(f.do("POST", "/api/v1/servers/100/backups", "", f.token(c, true)).Code, qt.Equals, http.StatusCreated)
	c.Assert(f.backups.lastLabel, qt.Equals, "")
	c.Assert(f.do("POST", "/api/v1/servers/100/backups", "{", f.token(c, true)).Code, qt.Equals, http.StatusBadRequest)
}

func TestBackupRestoreAndDelete(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)
	admin := f.token(c, true)

	restored := f.do("POST", "/api/v1/servers/100/backups/daily_Caf%C3%A9%20Guild_20261019_120000.json/restore", "", admin)
	c.Assert(restored.Code, qt.Equals, http.StatusOK)
	c.Assert(f.backups.restored, qt.DeepEquals, []string{"daily_Café Guild_20261019_120000.json"})
	var report models.RestoreReport
	c.Assert(json.Unmarshal(restored.Body.Bytes(), &report), qt.IsNil)
	c.Assert(report.Restored.Roles, qt.Equals, 1)

	c.Assert(f.do("POST", "/api/v1/servers/100/backups/missing.json/restore", "", admin).Code, qt.Equals, http.StatusNotFound)

	f.backups.busy = true
	c.Assert(f.do("POST", "/api/v1/servers/100/backups/missing.json/restore", "", admin).Code, qt.Equals, http.StatusConflict)
	f.backups.busy = false

	c.Assert(f.do("DELETE", "/api/v1/servers/100/backups/daily_Caf%C3%A9%20Guild_20261019_120000.json", "", admin).Code, qt.Equals, http.StatusNoContent)
	c.Assert(f.backups.files["100"], qt.HasLen, 0)

	purged := f.do("DELETE", "/api/v1/servers/100/backups", "", admin)
	c.Assert(purged.Code, qt.Equals, http.StatusOK)
	c.Assert(strings.TrimSpace(purged.Body.String()), qt.Equals, `{"deleted":0}`)
}

func TestScheduleRoutes(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)
	admin := f.token(c, true)

	created := f.do("POST", "/api/v1/servers/100/schedules", `{"id":"forged","label":"nightly","cronExpression":"0 4 * * *","isActive":true}`, admin)
	c.Assert(created.Code, qt.Equals, http.StatusCreated)
	var schedule models.Schedule
	c.Assert(json.Unmarshal(created.Body.Bytes(), &schedule), qt.IsNil)
	c.Assert(schedule.ID, qt.Equals, "s1")
	c.Assert(schedule.GuildID, qt.Equals, "100")

	c.Assert(f.do("POST", "/api/v1/servers/100/schedules", `{"label":"bad"}`, admin).Code, qt.Equals, http.StatusBadRequest)

	// A schedule is only reachable under its own guild.
	c.Assert(f.do("PUT", "/api/v1/servers/200/schedules/s1", `{"cronExpression":"0 5 * * *"}`, admin).Code, qt.Equals, http.StatusNotFound)
	c.Assert(f.do("DELETE", "/api/v1/servers/200/schedules/s1", "", admin).Code, qt.Equals, http.StatusNotFound)

	updated := f.do("PUT", "/api/v1/servers/100/schedules/s1", `{"cronExpression":"0 5 * * *"}`, admin)
	c.Assert(updated.Code, qt.Equals, http.StatusOK)
	c.Assert(f.schedules.byID["s1"].CronExpression, qt.Equals, "0 5 * * *")

	c.Assert(f.do("DELETE", "/api/v1/servers/100/schedules/s1", "", admin).Code, qt.Equals, http.StatusNoContent)
	c.Assert(f.schedules.byID, qt.HasLen, 0)
}

func TestEventRoutes(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)

	c.Assert(f.do("GET", "/api/v1/events", "", "").Code, qt.Equals, http.StatusOK)
	c.Assert(f.do("GET", "/api/v1/events?limit=5000&guild=100", "", "").Code, qt.Equals, http.StatusOK)
	c.Assert(f.do("GET", "/api/v1/events?limit=abc", "", "").Code, qt.Equals, http.StatusOK)
	c.Assert(f.events.limits, qt.DeepEquals, []int{20, 200, 20})
	c.Assert(f.events.guilds, qt.DeepEquals, []string{"100"})
}

func TestLogin(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)

	c.Assert(f.do("POST", "/api/v1/auth/login", `{"username":"admin","password":"wrong"}`, "").Code, qt.Equals, http.StatusUnauthorized)

	ok := f.do("POST", "/api/v1/auth/login", `{"username":"admin","password":"hunter2"}`, "")
	c.Assert(ok.Code, qt.Equals, http.StatusOK)
	var body struct {
		Token string      `json:"token"`
		User  models.User `json:"user"`
	}
	c.Assert(json.Unmarshal(ok.Body.Bytes(), &body), qt.IsNil)
	c.Assert(body.User.Admin, qt.IsTrue)
	c.Assert(ok.Body.String(), qt.Not(qt.Contains), "$2a$")

	cookies := ok.Result().Cookies()
	c.Assert(cookies, qt.HasLen, 1)
	c.Assert(cookies[0].Name, qt.Equals, auth.CookieName)
	c.Assert(cookies[0].HttpOnly, qt.IsTrue)

	// The cookie alone authenticates.
	req := httptest.NewRequest("GET", "/api/v1/auth/me", nil)
	req.AddCookie(cookies[0])
	me := httptest.NewRecorder()
	f.router.ServeHTTP(me, req)
	c.Assert(me.Code, qt.Equals, http.StatusOK)
	c.Assert(me.Body.String(), qt.Contains, `"admin":true`)

	// Two attempts per minute are allowed per address.
	c.Assert(f.do("POST", "/api/v1/auth/login", `{"username":"admin","password":"hunter2"}`, "").Code, qt.Equals, http.StatusTooManyRequests)
}

func TestAdminRoutesClosedWithoutSecret(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixtureWithSecret(c, "")

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, &auth.Claims{Username: "intruder", Admin: true}).SignedString([]byte(""))
	c.Assert(err, qt.IsNil)

	for _, tt := range []struct{ method, target string }{
		{"DELETE", "/api/v1/servers/100/backups"},
		{"POST", "/api/v1/servers/100/backups/daily_Caf%C3%A9%20Guild_20261019_120000.json/restore"},
		{"POST", "/api/v1/servers/100/schedules"},
		{"GET", "/api/v1/auth/me"},
	} {
		rec := f.do(tt.method, tt.target, `{"cronExpression":"* * * * *"}`, forged)
		c.Assert(rec.Code, qt.Equals, http.StatusUnauthorized, qt.Commentf("%s %s", tt.method, tt.target))
	}
	c.Assert(f.backups.files["100"], qt.HasLen, 1)
	c.Assert(f.backups.restored, qt.HasLen, 0)
	c.Assert(f.schedules.byID, qt.HasLen, 0)

	// Login is disabled too.
	c.Assert(f.do("POST", "/api/v1/auth/login", `{"username":"admin","password":""}`, "").Code, qt.Equals, http.StatusForbidden)
}

func TestBackupFilenameDecoding(t *testing.T) {
	c := qt.New(t)
	f := newRouterFixture(c)
	admin := f.token(c, true)
	f.backups.files["100"] = []models.BackupFile{{Filename: "50%41off.json"}, {Filename: "caféA.json"}}

	// A literal percent sign is decoded once only.
	c.Assert(f.do("DELETE", "/api/v1/servers/100/backups/50%2541off.json", "", admin).Code, qt.Equals, http.StatusNoContent)
	// Non-canonical escapes make the router use the raw path.
	c.Assert(f.do("DELETE", "/api/v1/servers/100/backups/caf%C3%A9%41.json", "", admin).Code, qt.Equals, http.StatusNoContent)
	c.Assert(f.backups.files["100"], qt.HasLen, 0)
}
