package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/leaguegen/internal/export"
	"github.com/derekprior/leaguegen/internal/schedule"
)

func newTestServer(t *testing.T) (http.Handler, *schedule.Season, *test.Hook) {
	t.Helper()
	s, err := schedule.New(schedule.Size{Teams: 4, SlotsPerDate: 2, Dates: 3})
	require.NoError(t, err)
	logger, hook := test.NewNullLogger()
	return New(s, 1, logger).Routes(), s, hook
}

func do(t *testing.T, h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	return v
}

func TestRegenerate(t *testing.T) {
	h, s, hook := newTestServer(t)

	rec := do(t, h, http.MethodPost, "/schedule?seed=7", "")
	require.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody[scheduleJSON](t, rec)

	assert.Equal(t, int64(7), body.Seed)
	assert.Len(t, body.Games, 6)
	_, err := uuid.Parse(body.RunID)
	assert.NoError(t, err)
	require.NoError(t, s.Check())

	var found bool
	for _, e := range hook.AllEntries() {
		if e.Message == "schedule regenerated" {
			found = true
			assert.Equal(t, body.RunID, e.Data["run_id"])
			assert.Equal(t, int64(7), e.Data["seed"])
		}
	}
	assert.True(t, found, "regeneration not logged")

	t.Run("same seed gives the same games", func(t *testing.T) {
		again := decodeBody[scheduleJSON](t, do(t, h, http.MethodPost, "/schedule?seed=7", ""))
		assert.Equal(t, body.Games, again.Games)
		assert.NotEqual(t, body.RunID, again.RunID)
	})

	t.Run("default seed advances", func(t *testing.T) {
		next := decodeBody[scheduleJSON](t, do(t, h, http.MethodPost, "/schedule", ""))
		assert.Equal(t, int64(8), next.Seed)
	})

	t.Run("bad seed", func(t *testing.T) {
		rec := do(t, h, http.MethodPost, "/schedule?seed=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestFirstRegenerationUsesStartingSeed(t *testing.T) {
	h, _, _ := newTestServer(t)
	body := decodeBody[scheduleJSON](t, do(t, h, http.MethodPost, "/schedule", ""))
	assert.Equal(t, int64(1), body.Seed)
}

func TestGetSchedule(t *testing.T) {
	h, s, _ := newTestServer(t)

	empty := decodeBody[scheduleJSON](t, do(t, h, http.MethodGet, "/schedule", ""))
	assert.Empty(t, empty.Games)

	do(t, h, http.MethodPost, "/schedule?seed=3", "")
	rec := do(t, h, http.MethodGet, "/schedule", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decodeBody[scheduleJSON](t, rec)
	require.Len(t, body.Games, len(s.Games))
	for i, g := range s.Games {
		assert.Equal(t, s.Team(g.Home).Name, body.Games[i].Home)
		assert.Equal(t, int(g.DateID), body.Games[i].Round)
	}
}

func TestGetScheduleCSV(t *testing.T) {
	h, _, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/schedule?seed=3", "")

	rec := do(t, h, http.MethodGet, "/schedule.csv", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))

	rows, err := export.Read(rec.Body)
	require.NoError(t, err)
	assert.Len(t, rows, 6)
}

func TestGetTeams(t *testing.T) {
	h, _, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/schedule?seed=3", "")

	body := decodeBody[teamsJSON](t, do(t, h, http.MethodGet, "/teams", ""))
	require.Len(t, body.Teams, 4)

	total := 0
	for _, team := range body.Teams {
		assert.Equal(t, 3, team.Games)
		assert.Equal(t, schedule.Forbidden, team.Matchups[team.Name])
		assert.Len(t, team.Matchups, 4)
		total += team.HomeGames
	}
	assert.Equal(t, 6, total)
	assert.Equal(t, []int{3, 3}, body.Balance.SlotUsage)
}

func TestGetTeamsShowsForbiddenPairsAndSlotCounts(t *testing.T) {
	h, s, _ := newTestServer(t)
	require.NoError(t, s.LabelSlot(1, "North", "18:00"))
	require.NoError(t, s.LabelSlot(2, "South", "20:00"))
	require.NoError(t, s.SetRestriction(1, 1, true))
	require.NoError(t, s.SetRestriction(2, 2, true))
	do(t, h, http.MethodPost, "/schedule?seed=4", "")

	body := decodeBody[teamsJSON](t, do(t, h, http.MethodGet, "/teams", ""))
	require.Len(t, body.Teams, 4)

	first := body.Teams[0]
	assert.Equal(t, schedule.Forbidden, first.Matchups["Team 1"])
	assert.Equal(t, schedule.Forbidden, first.Matchups["Team 2"])
	assert.Equal(t, schedule.Forbidden, body.Teams[1].Matchups["Team 1"])
	assert.Equal(t, map[string]int{"North": 0, "South": first.Games}, first.Fields)
	assert.Equal(t, map[string]int{"18:00": 0, "20:00": first.Games}, first.Times)

	for _, team := range body.Teams {
		fields, times := 0, 0
		for _, n := range team.Fields {
			fields += n
		}
		for _, n := range team.Times {
			times += n
		}
		assert.Equal(t, team.Games, fields, team.Name)
		assert.Equal(t, team.Games, times, team.Name)
	}
}

func TestUpdateTeam(t *testing.T) {
	h, s, _ := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/teams/2", `{"name":"Cubs","restricted_slots":[1]}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	team := decodeBody[teamJSON](t, rec)
	assert.Equal(t, "Cubs", team.Name)
	assert.Equal(t, []int{1}, team.RestrictedSlots)
	assert.Equal(t, "Cubs", s.Team(2).Name)

	do(t, h, http.MethodPost, "/schedule?seed=5", "")
	for _, gid := range s.Team(2).Games {
		assert.NotEqual(t, schedule.SlotID(1), s.Game(gid).Slot)
	}

	t.Run("clearing restrictions", func(t *testing.T) {
		rec := do(t, h, http.MethodPut, "/teams/2", `{"restricted_slots":[]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, s.Team(2).RestrictedSlots())
		assert.Equal(t, "Cubs", s.Team(2).Name)
	})

	tests := []struct {
		name   string
		target string
		body   string
		status int
	}{
		{"non-numeric id", "/teams/abc", `{"name":"x"}`, http.StatusBadRequest},
		{"unknown team", "/teams/9", `{"name":"x"}`, http.StatusNotFound},
		{"bad json", "/teams/1", `{"name":`, http.StatusBadRequest},
		{"empty name", "/teams/1", `{"name":""}`, http.StatusBadRequest},
		{"slot zero", "/teams/1", `{"restricted_slots":[0]}`, http.StatusBadRequest},
		{"slot out of range", "/teams/1", `{"restricted_slots":[3]}`, http.StatusBadRequest},
		{"duplicate name", "/teams/1", `{"name":"Cubs"}`, http.StatusConflict},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, h, http.MethodPut, tt.target, tt.body)
			assert.Equal(t, tt.status, rec.Code)
		})
	}
}

func TestUpdateSlotAndDate(t *testing.T) {
	h, s, _ := newTestServer(t)

	rec := do(t, h, http.MethodPut, "/slots/2", `{"field":"Symonds Field","time":"17:45"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Symonds Field", s.Slot(2).Field)
	assert.Equal(t, "17:45", s.Slot(2).Time)

	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/slots/1", `{"field":"x"}`).Code)
	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/slots/3", `{"field":"x","time":"y"}`).Code)

	do(t, h, http.MethodPost, "/schedule?seed=2", "")
	rec = do(t, h, http.MethodPut, "/dates/1", `{"label":"Opening Day"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Opening Day", s.Date(1).Label)

	body := decodeBody[scheduleJSON](t, do(t, h, http.MethodGet, "/schedule", ""))
	for _, g := range body.Games {
		if g.Round == 1 {
			assert.Equal(t, "1", g.Date)
		}
	}

	assert.Equal(t, http.StatusNotFound, do(t, h, http.MethodPut, "/dates/0", `{"label":"x"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(t, h, http.MethodPut, "/dates/1", `{}`).Code)
}

func TestRequestLogging(t *testing.T) {
	h, _, hook := newTestServer(t)

	do(t, h, http.MethodGet, "/teams", "")
	do(t, h, http.MethodPut, "/teams/9", `{"name":"x"}`)

	var levels []logrus.Level
	for _, e := range hook.AllEntries() {
		if _, ok := e.Data["status"]; ok {
			levels = append(levels, e.Level)
			assert.NotEmpty(t, e.Data["request_id"])
		}
	}
	assert.Equal(t, []logrus.Level{logrus.InfoLevel, logrus.WarnLevel}, levels)
}
