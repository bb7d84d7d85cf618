// Package server exposes every calculator operation over a JSON HTTP API.
// Engines are constructed per request around the shared record store; a
// delete arriving over HTTP is explicit intent, so no extra confirmation hook
// is wired.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jmreiser/dealcalc/internal/maxoffer"
	"github.com/jmreiser/dealcalc/internal/profit"
	"github.com/jmreiser/dealcalc/internal/rehab"
	"github.com/jmreiser/dealcalc/internal/store"
	"github.com/jmreiser/dealcalc/pkg/format"
	"go.uber.org/zap"
)

type handler struct {
	logger         *zap.Logger
	store          *store.Store
	profitDefaults profit.Defaults
}

// NewHandler constructs the HTTP handler serving the calculator API.
func NewHandler(logger *zap.Logger, st *store.Store, profitDefaults profit.Defaults, allowedOrigins []string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{logger: logger, store: st, profitDefaults: profitDefaults}

	r := chi.NewRouter()
	r.Use(middleware.RealIP, requestLogger(logger), middleware.Recoverer)
	if len(allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type"},
			MaxAge:         300,
		}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/rehab", func(r chi.Router) {
			r.Get("/", h.rehabList)
			r.Post("/compute", h.rehabCompute)
			r.Get("/{address}", h.rehabGet)
			r.Put("/{address}", h.rehabSave)
			r.Delete("/{address}", h.rehabDelete)
		})
		r.Route("/maxoffer", func(r chi.Router) {
			r.Get("/", h.maxOfferList)
			r.Post("/", h.maxOfferSave)
			r.Get("/tiers", h.maxOfferTiers)
			r.Post("/pull-rehab", h.maxOfferPullRehab)
			r.Get("/{id}", h.maxOfferGet)
			r.Delete("/{id}", h.maxOfferDelete)
		})
		r.Route("/profit", func(r chi.Router) {
			r.Get("/", h.profitList)
			r.Post("/", h.profitSave)
			r.Post("/compute", h.profitCompute)
			r.Post("/pull-arv", h.profitPullARV)
			r.Post("/pull-rehab", h.profitPullRehab)
			r.Get("/{id}", h.profitGet)
			r.Delete("/{id}", h.profitDelete)
		})
	})

	return r
}

// rehabForm is the wire form of the rehab calculator state.
type rehabForm struct {
	SF    float64          `json:"sf"`
	Scope string           `json:"scope"`
	Items []rehab.LineItem `json:"items"`
}

type rehabView struct {
	Address      string               `json:"address"`
	SF           float64              `json:"sf"`
	Scope        string               `json:"scope"`
	Items        []rehab.LineItem     `json:"items"`
	BaseRehab    float64              `json:"baseRehab"`
	TogglesTotal float64              `json:"togglesTotal"`
	Total        float64              `json:"total"`
	TotalDisplay string               `json:"totalDisplay"`
	Breakdown    []rehab.BreakdownRow `json:"breakdown"`
}

func (h *handler) rehabEngine() *rehab.Engine {
	return rehab.NewEngine(h.store, h.logger)
}

func (h *handler) rehabList(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.rehabEngine().Addresses())
}

func (h *handler) rehabGet(w http.ResponseWriter, r *http.Request) {
	e := h.rehabEngine()
	if err := e.Load(pathAddress(r)); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rehabViewOf(e))
}

func (h *handler) rehabSave(w http.ResponseWriter, r *http.Request) {
	var form rehabForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.rehabEngine()
	applyRehabForm(e, form)
	if err := e.Save(pathAddress(r)); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, rehabViewOf(e))
}

func (h *handler) rehabDelete(w http.ResponseWriter, r *http.Request) {
	if err := h.rehabEngine().Delete(pathAddress(r)); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *handler) rehabCompute(w http.ResponseWriter, r *http.Request) {
	var rec rehab.Record
	if err := json.NewDecoder(r.Body).Decode(&rec); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, map[string]float64{"total": rehab.ComputeTotalFromRecord(rec)})
}

func applyRehabForm(e *rehab.Engine, form rehabForm) {
	e.SF = form.SF
	if form.Scope != "" {
		e.Scope = form.Scope
	}
	// The submitted items replace the engine's wholesale: applying them by id
	// onto the stock catalog would drop items migrated from older saves.
	if len(form.Items) > 0 {
		e.SetItems(form.Items)
	}
}

func rehabViewOf(e *rehab.Engine) rehabView {
	return rehabView{
		Address:      e.Address,
		SF:           e.SF,
		Scope:        e.Scope,
		Items:        e.Items(),
		BaseRehab:    e.BaseRehab(),
		TogglesTotal: e.TogglesTotal(),
		Total:        e.Total(),
		TotalDisplay: format.Amount(e.Total()),
		Breakdown:    e.Breakdown(),
	}
}

// maxOfferForm is the wire form of the max-offer calculator state.
type maxOfferForm struct {
	Address   string `json:"address"`
	ARV       string `json:"arv"`
	Rehab     string `json:"rehab"`
	RehabFrom string `json:"rehabFrom"`
}

type maxOfferView struct {
	Record maxoffer.Record `json:"record"`
	Tiers  []tierView      `json:"tiers"`
}

// tierView augments a tier with display strings so clients render amounts the
// same way everywhere.
type tierView struct {
	LTV             float64 `json:"ltv"`
	Amount          float64 `json:"amount"`
	OfferAfterRehab float64 `json:"offerAfterRehab"`
	LTVDisplay      string  `json:"ltvDisplay"`
	AmountDisplay   string  `json:"amountDisplay"`
	OfferDisplay    string  `json:"offerDisplay"`
}

func tierViewsOf(tiers []maxoffer.Tier) []tierView {
	views := make([]tierView, 0, len(tiers))
	for _, t := range tiers {
		views = append(views, tierView{
			LTV:             t.LTV,
			Amount:          t.Amount,
			OfferAfterRehab: t.OfferAfterRehab,
			LTVDisplay:      format.Percent(t.LTV),
			AmountDisplay:   format.Currency(t.Amount),
			OfferDisplay:    format.Currency(t.OfferAfterRehab),
		})
	}
	return views
}

func (h *handler) maxOfferEngine() *maxoffer.Engine {
	return maxoffer.NewEngine(h.store, h.logger)
}

func (h *handler) maxOfferList(w http.ResponseWriter, r *http.Request) {
	projects := h.maxOfferEngine().Projects()
	if projects == nil {
		projects = []maxoffer.Record{}
	}
	respondJSON(w, http.StatusOK, projects)
}

func (h *handler) maxOfferSave(w http.ResponseWriter, r *http.Request) {
	var form maxOfferForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.maxOfferEngine()
	e.Address = form.Address
	e.ARV = form.ARV
	e.Rehab = form.Rehab
	e.RehabFrom = form.RehabFrom
	if err := e.Save(); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": e.SelectedID})
}

func (h *handler) maxOfferGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	e := h.maxOfferEngine()
	if err := e.Load(id); err != nil {
		h.respondErr(w, err)
		return
	}
	rec := maxoffer.Record{
		ID:        e.SelectedID,
		Address:   e.Address,
		ARV:       e.ARV,
		Rehab:     e.Rehab,
		RehabFrom: e.RehabFrom,
	}
	respondJSON(w, http.StatusOK, maxOfferView{Record: rec, Tiers: tierViewsOf(e.Tiers())})
}

func (h *handler) maxOfferDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.maxOfferEngine().Delete(id); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *handler) maxOfferTiers(w http.ResponseWriter, r *http.Request) {
	e := h.maxOfferEngine()
	e.ARV = r.URL.Query().Get("arv")
	e.Rehab = r.URL.Query().Get("rehab")
	respondJSON(w, http.StatusOK, tierViewsOf(e.Tiers()))
}

type pullRequest struct {
	Address string `json:"address"`
	Pick    string `json:"pick"`
}

func (h *handler) maxOfferPullRehab(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.maxOfferEngine()
	e.Address = req.Address
	if err := e.PullRehab(req.Pick); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"rehab":     e.Rehab,
		"rehabFrom": e.RehabFrom,
	})
}

// profitForm is the wire form of the profit calculator state.
type profitForm struct {
	ID      int64         `json:"id"`
	Address string        `json:"address"`
	Inputs  profit.Inputs `json:"inputs"`
}

type profitView struct {
	ID        int64            `json:"id"`
	Address   string           `json:"address"`
	Inputs    profit.Inputs    `json:"inputs"`
	Breakdown profit.Breakdown `json:"breakdown"`
}

func (h *handler) profitEngine() *profit.Engine {
	return profit.NewEngine(h.store, h.profitDefaults, h.logger)
}

func (h *handler) profitList(w http.ResponseWriter, r *http.Request) {
	projects := h.profitEngine().Projects()
	if projects == nil {
		projects = []profit.Record{}
	}
	respondJSON(w, http.StatusOK, projects)
}

func (h *handler) profitSave(w http.ResponseWriter, r *http.Request) {
	var form profitForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.profitEngine()
	e.SelectedID = form.ID
	e.Address = form.Address
	e.Inputs = form.Inputs
	if err := e.Save(); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]int64{"id": e.SelectedID})
}

func (h *handler) profitGet(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	e := h.profitEngine()
	if err := e.Load(id); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, profitView{
		ID:        e.SelectedID,
		Address:   e.Address,
		Inputs:    e.Inputs,
		Breakdown: e.Compute(),
	})
}

func (h *handler) profitDelete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid id")
		return
	}
	if err := h.profitEngine().Delete(id); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *handler) profitCompute(w http.ResponseWriter, r *http.Request) {
	var in profit.Inputs
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	respondJSON(w, http.StatusOK, profit.Compute(in))
}

func (h *handler) profitPullARV(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.profitEngine()
	e.Address = req.Address
	if err := e.PullARV(req.Pick); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"arv": e.Inputs.ARV})
}

func (h *handler) profitPullRehab(w http.ResponseWriter, r *http.Request) {
	var req pullRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	e := h.profitEngine()
	e.Address = req.Address
	if err := e.PullRehab(req.Pick); err != nil {
		h.respondErr(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"rehab": e.Inputs.Rehab})
}

func pathAddress(r *http.Request) string {
	raw := chi.URLParam(r, "address")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}

func pathID(r *http.Request) (int64, error) {
	return strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
}

// respondErr maps engine errors onto HTTP statuses.
func (h *handler) respondErr(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, rehab.ErrNotFound),
		errors.Is(err, maxoffer.ErrNotFound),
		errors.Is(err, profit.ErrNotFound),
		errors.Is(err, maxoffer.ErrNoMatch),
		errors.Is(err, profit.ErrNoMatch):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, rehab.ErrEmptyAddress),
		errors.Is(err, maxoffer.ErrEmptyAddress),
		errors.Is(err, profit.ErrEmptyAddress):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("request failed",
			zap.String("op", "server.respondErr"),
			zap.Error(err),
		)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func respondJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		http.Error(w, "failed to marshal JSON response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, map[string]string{"error": message})
}
