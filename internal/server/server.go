// Package server exposes one season over HTTP: regenerate it, read the
// schedule and report, and edit names, labels and restrictions.
package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/derekprior/leaguegen/internal/export"
	"github.com/derekprior/leaguegen/internal/schedule"
)

// Server guards a single season. Regeneration mutates the whole entity graph,
// so every handler holds the lock.
type Server struct {
	mu     sync.Mutex
	season *schedule.Season
	seed   int64
	runID  string
	log    logrus.FieldLogger
}

// New returns a server for s. The first POST /schedule without a seed uses seed.
func New(s *schedule.Season, seed int64, log logrus.FieldLogger) *Server {
	return &Server{season: s, seed: seed - 1, log: log}
}

var validate = validator.New()

// Routes builds the HTTP handler.
func (srv *Server) Routes() http.Handler {
	router := chi.NewRouter()

	router.Use(chiMiddleware.RequestID)
	router.Use(requestLogger(srv.log))
	router.Use(chiMiddleware.Recoverer)

	router.Post("/schedule", srv.Regenerate)
	router.Get("/schedule", srv.GetSchedule)
	router.Get("/schedule.csv", srv.GetScheduleCSV)
	router.Get("/teams", srv.GetTeams)
	router.Put("/teams/{id}", srv.UpdateTeam)
	router.Put("/slots/{id}", srv.UpdateSlot)
	router.Put("/dates/{id}", srv.UpdateDate)

	return router
}

type gameJSON struct {
	ID    int    `json:"id"`
	Round int    `json:"round"`
	Date  string `json:"date"`
	Slot  int    `json:"slot"`
	Time  string `json:"time"`
	Field string `json:"field"`
	Home  string `json:"home"`
	Away  string `json:"away"`
}

type scheduleJSON struct {
	RunID string     `json:"run_id,omitempty"`
	Seed  int64      `json:"seed"`
	Score float64    `json:"score"`
	Games []gameJSON `json:"games"`
}

type teamJSON struct {
	ID              int            `json:"id"`
	Name            string         `json:"name"`
	Games           int            `json:"games"`
	HomeGames       int            `json:"home_games"`
	RestrictedSlots []int          `json:"restricted_slots"`
	Matchups        map[string]int `json:"matchups"` // schedule.Forbidden for pairs that cannot meet
	Fields          map[string]int `json:"fields"`
	Times           map[string]int `json:"times"`
}

type teamsJSON struct {
	Teams   []teamJSON       `json:"teams"`
	Balance schedule.Balance `json:"balance"`
}

type teamUpdate struct {
	Name            *string `json:"name" validate:"omitnil,min=1,max=64"`
	RestrictedSlots *[]int  `json:"restricted_slots" validate:"omitnil,dive,min=1"`
}

type slotUpdate struct {
	Field string `json:"field" validate:"required"`
	Time  string `json:"time" validate:"required"`
}

type dateUpdate struct {
	Label string `json:"label" validate:"required"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	defer r.Body.Close()
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	if err := validate.Struct(v); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func urlID(w http.ResponseWriter, r *http.Request, what string, limit int) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid "+what+" ID", http.StatusBadRequest)
		return 0, false
	}
	if id < 1 || id > limit {
		http.Error(w, what+" not found", http.StatusNotFound)
		return 0, false
	}
	return id, true
}

// Regenerate rebuilds the schedule. The seed query parameter is optional;
// without it the previous seed plus one is used.
func (srv *Server) Regenerate(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	seed := srv.seed + 1
	if raw := r.URL.Query().Get("seed"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid seed", http.StatusBadRequest)
			return
		}
		seed = n
	}

	srv.runID = uuid.NewString()
	srv.seed = seed
	srv.season.Generate(seed)
	if err := srv.season.Check(); err != nil {
		srv.log.WithField("run_id", srv.runID).WithError(err).Error("generated schedule is inconsistent")
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	body := srv.scheduleBody()
	srv.log.WithFields(logrus.Fields{
		"run_id": srv.runID,
		"seed":   seed,
		"games":  len(body.Games),
		"score":  body.Score,
	}).Info("schedule regenerated")
	writeJSON(w, http.StatusCreated, body)
}

func (srv *Server) scheduleBody() scheduleJSON {
	s := srv.season
	body := scheduleJSON{
		RunID: srv.runID,
		Seed:  srv.seed,
		Score: s.Report().Balance.Score(),
		Games: make([]gameJSON, 0, len(s.Games)),
	}
	for _, g := range s.Games {
		slot := s.Slot(g.Slot)
		body.Games = append(body.Games, gameJSON{
			ID:    int(g.ID),
			Round: int(g.DateID),
			Date:  g.Date,
			Slot:  int(g.Slot),
			Time:  slot.Time,
			Field: slot.Field,
			Home:  s.Team(g.Home).Name,
			Away:  s.Team(g.Away).Name,
		})
	}
	return body
}

// GetSchedule returns every game of the current schedule.
func (srv *Server) GetSchedule(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	writeJSON(w, http.StatusOK, srv.scheduleBody())
}

// GetScheduleCSV streams the current schedule as CSV.
func (srv *Server) GetScheduleCSV(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="schedule.csv"`)
	if err := export.Write(w, srv.season); err != nil {
		srv.log.WithError(err).Error("writing csv")
	}
}

// GetTeams returns the per-team report and season balance.
func (srv *Server) GetTeams(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()
	writeJSON(w, http.StatusOK, srv.teamsBody())
}

func (srv *Server) teamsBody() teamsJSON {
	s := srv.season
	report := s.Report()
	body := teamsJSON{Teams: make([]teamJSON, 0, len(report.Teams)), Balance: report.Balance}
	for _, t := range report.Teams {
		body.Teams = append(body.Teams, srv.teamBody(t))
	}
	return body
}

func (srv *Server) teamBody(t schedule.TeamReport) teamJSON {
	s := srv.season
	tj := teamJSON{
		ID:              int(t.ID),
		Name:            t.Name,
		Games:           t.Games,
		HomeGames:       t.HomeGames,
		RestrictedSlots: []int{},
		Matchups:        make(map[string]int, len(t.Matchups)),
		Fields:          make(map[string]int, len(t.Fields)),
		Times:           make(map[string]int, len(t.Times)),
	}
	for _, slot := range s.Team(t.ID).RestrictedSlots() {
		tj.RestrictedSlots = append(tj.RestrictedSlots, int(slot))
	}
	for i, c := range t.Matchups {
		tj.Matchups[s.Teams[i].Name] = c
	}
	for _, lc := range t.Fields {
		tj.Fields[lc.Label] = lc.Count
	}
	for _, lc := range t.Times {
		tj.Times[lc.Label] = lc.Count
	}
	return tj
}

// UpdateTeam renames a team and/or replaces its restricted slots. New
// restrictions apply from the next regeneration.
func (srv *Server) UpdateTeam(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id, ok := urlID(w, r, "team", len(srv.season.Teams))
	if !ok {
		return
	}
	var req teamUpdate
	if !decode(w, r, &req) {
		return
	}

	team := schedule.TeamID(id)
	if req.Name != nil {
		for _, t := range srv.season.Teams {
			if t.ID != team && t.Name == *req.Name {
				http.Error(w, "team name already in use", http.StatusConflict)
				return
			}
		}
	}
	if req.RestrictedSlots != nil {
		slots := make([]schedule.SlotID, len(*req.RestrictedSlots))
		for i, n := range *req.RestrictedSlots {
			slots[i] = schedule.SlotID(n)
		}
		if err := srv.season.SetRestrictions(team, slots); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}
	if req.Name != nil {
		if err := srv.season.RenameTeam(team, *req.Name); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
	}

	report := srv.season.Report()
	writeJSON(w, http.StatusOK, srv.teamBody(report.Teams[id-1]))
}

// UpdateSlot relabels a time slot.
func (srv *Server) UpdateSlot(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id, ok := urlID(w, r, "slot", len(srv.season.Slots))
	if !ok {
		return
	}
	var req slotUpdate
	if !decode(w, r, &req) {
		return
	}
	if err := srv.season.LabelSlot(schedule.SlotID(id), req.Field, req.Time); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}

// UpdateDate relabels a date. Existing games keep their label until the next
// regeneration.
func (srv *Server) UpdateDate(w http.ResponseWriter, r *http.Request) {
	srv.mu.Lock()
	defer srv.mu.Unlock()

	id, ok := urlID(w, r, "date", len(srv.season.Dates))
	if !ok {
		return
	}
	var req dateUpdate
	if !decode(w, r, &req) {
		return
	}
	if err := srv.season.LabelDate(schedule.DateID(id), req.Label); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, req)
}
