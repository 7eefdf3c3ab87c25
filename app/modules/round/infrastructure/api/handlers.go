// Package roundapi serves the round engine to the local UI shell over HTTP
// and streams round events over a websocket.
package roundapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	roundservice "github.com/Black-And-White-Club/scorecard/app/modules/round/application"
	roundtypes "github.com/Black-And-White-Club/scorecard/app/modules/round/domain/types"
	roundremote "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/remote"
	rounddb "github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/repositories"
	"github.com/Black-And-White-Club/scorecard/app/modules/round/infrastructure/scorecard"
	"github.com/Black-And-White-Club/scorecard/app/modules/scoring"
	"github.com/Black-And-White-Club/scorecard/pkg/attr"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// ReconcileScheduler queues a bulk reconcile pass instead of running it inline.
type ReconcileScheduler interface {
	EnqueueReconcile(ctx context.Context, trigger string) error
}

// HTTPHandlers exposes the round service.
type HTTPHandlers struct {
	service roundservice.Service
	jobs    ReconcileScheduler
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewHTTPHandlers creates the handlers. jobs may be nil, in which case bulk
// reconcile runs in the request.
func NewHTTPHandlers(service roundservice.Service, jobs ReconcileScheduler, logger *slog.Logger, tracer trace.Tracer) *HTTPHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	if tracer == nil {
		tracer = noop.NewTracerProvider().Tracer("roundapi")
	}
	return &HTTPHandlers{service: service, jobs: jobs, logger: logger, tracer: tracer}
}

// Routes registers every round endpoint on r.
func (h *HTTPHandlers) Routes(r chi.Router) {
	r.Get("/", h.HandleListRounds)
	r.Post("/", h.HandleStartRound)
	r.Get("/count", h.HandleRoundCount)
	r.Post("/reconcile", h.HandleReconcileUnsynced)
	r.Get("/history/{golfLinkNo}", h.HandleRoundHistory)

	r.Get("/active", h.HandleGetActiveRound)
	r.Post("/active/reconcile", h.HandleReconcileActive)

	r.Route("/{roundID}", func(r chi.Router) {
		r.Get("/", h.HandleGetRound)
		r.Delete("/", h.HandleDeleteRound)
		r.Post("/sync", h.HandleSyncRound)
		r.Post("/submit", h.HandleSubmitRound)
		r.Get("/scorecard.xlsx", h.HandleExportWorkbook)
		r.Get("/points.png", h.HandleExportChart)

		r.Put("/holes/{hole}/score", h.HandleUpdateHoleScore)
		r.Post("/holes/{hole}/pickup", h.HandleRecordPickup)
		r.Post("/holes/{hole}/not-played", h.HandleMarkHoleNotPlayed)
	})
}

type scoreRequest struct {
	Strokes *int   `json:"strokes"`
	Target  string `json:"target"`
}

type pickupRequest struct {
	Target       string `json:"target"`
	ExtraStrokes *int   `json:"extraStrokes"`
}

type targetRequest struct {
	Target string `json:"target"`
}

type submitRequest struct {
	GolferSignature  string `json:"golferSignature"`
	PartnerSignature string `json:"partnerSignature"`
}

type mutationResponse struct {
	Round        *roundtypes.Round    `json:"round"`
	Hole         roundtypes.HoleScore `json:"hole"`
	RemoteSynced bool                 `json:"remoteSynced"`
}

type reconcileResponse struct {
	Trigger string `json:"trigger"`
	Synced  int    `json:"synced"`
	Queued  bool   `json:"queued,omitempty"`
}

func (h *HTTPHandlers) HandleListRounds(w http.ResponseWriter, r *http.Request) {
	rounds, err := h.service.ListRounds(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rounds == nil {
		rounds = []*roundtypes.Round{}
	}
	writeJSON(w, http.StatusOK, rounds)
}

func (h *HTTPHandlers) HandleStartRound(w http.ResponseWriter, r *http.Request) {
	var round roundtypes.Round
	if err := json.NewDecoder(r.Body).Decode(&round); err != nil {
		http.Error(w, "invalid round body", http.StatusBadRequest)
		return
	}
	started, err := h.service.StartRound(r.Context(), &round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, started)
}

func (h *HTTPHandlers) HandleRoundCount(w http.ResponseWriter, r *http.Request) {
	n, err := h.service.RoundCount(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": n})
}

func (h *HTTPHandlers) HandleGetActiveRound(w http.ResponseWriter, r *http.Request) {
	round, err := h.service.GetActiveRound(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, round)
}

// HandleReconcileActive runs the startup reconcile on demand. It always answers 200.
func (h *HTTPHandlers) HandleReconcileActive(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleReconcileActive")
	defer span.End()

	synced := 0
	if h.service.ReconcileActiveRound(ctx, roundservice.TriggerManual) {
		synced = 1
	}
	writeJSON(w, http.StatusOK, reconcileResponse{Trigger: roundservice.TriggerManual, Synced: synced})
}

func (h *HTTPHandlers) HandleReconcileUnsynced(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "HTTPHandlers.HandleReconcileUnsynced")
	defer span.End()

	if h.jobs != nil {
		if err := h.jobs.EnqueueReconcile(ctx, roundservice.TriggerManual); err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusAccepted, reconcileResponse{Trigger: roundservice.TriggerManual, Queued: true})
		return
	}

	synced := h.service.ReconcileUnsynced(ctx, roundservice.TriggerManual)
	writeJSON(w, http.StatusOK, reconcileResponse{Trigger: roundservice.TriggerManual, Synced: synced})
}

func (h *HTTPHandlers) HandleGetRound(w http.ResponseWriter, r *http.Request) {
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, round)
}

func (h *HTTPHandlers) HandleDeleteRound(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteRound(r.Context(), chi.URLParam(r, "roundID")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *HTTPHandlers) HandleSyncRound(w http.ResponseWriter, r *http.Request) {
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}
	synced, err := h.service.SyncToRemote(r.Context(), round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"synced": synced})
}

func (h *HTTPHandlers) HandleSubmitRound(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid submit body", http.StatusBadRequest)
		return
	}
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}
	submitted, err := h.service.SubmitRound(r.Context(), round, roundservice.Signatures{
		Golfer:  req.GolferSignature,
		Partner: req.PartnerSignature,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, submitted)
}

func (h *HTTPHandlers) HandleUpdateHoleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Strokes == nil {
		http.Error(w, "strokes is required", http.StatusBadRequest)
		return
	}
	hole, target, ok := holeAndTarget(w, r, req.Target)
	if !ok {
		return
	}
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}

	res, err := h.service.UpdateHoleScore(r.Context(), round, roundservice.HoleScoreRequest{
		HoleNumber: hole,
		Strokes:    *req.Strokes,
		Target:     target,
	})
	h.writeMutation(w, r, res, err)
}

func (h *HTTPHandlers) HandleRecordPickup(w http.ResponseWriter, r *http.Request) {
	var req pickupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid pickup body", http.StatusBadRequest)
		return
	}
	hole, target, ok := holeAndTarget(w, r, req.Target)
	if !ok {
		return
	}
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}

	res, err := h.service.RecordPickup(r.Context(), round, roundservice.PickupRequest{
		HoleNumber:   hole,
		Target:       target,
		ExtraStrokes: req.ExtraStrokes,
	})
	h.writeMutation(w, r, res, err)
}

func (h *HTTPHandlers) HandleMarkHoleNotPlayed(w http.ResponseWriter, r *http.Request) {
	var req targetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid body", http.StatusBadRequest)
		return
	}
	hole, target, ok := holeAndTarget(w, r, req.Target)
	if !ok {
		return
	}
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}

	res, err := h.service.MarkHoleNotPlayed(r.Context(), round, hole, target)
	h.writeMutation(w, r, res, err)
}

func (h *HTTPHandlers) HandleExportWorkbook(w http.ResponseWriter, r *http.Request) {
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}
	data, err := scorecard.BuildWorkbook(round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="scorecard-`+round.RoundDate+`.xlsx"`)
	w.Write(data)
}

func (h *HTTPHandlers) HandleExportChart(w http.ResponseWriter, r *http.Request) {
	round, ok := h.loadRound(w, r)
	if !ok {
		return
	}
	data, err := scorecard.PointsChart(round)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(data)
}

// HandleRoundHistory lists the golfer's rounds held by the club.
func (h *HTTPHandlers) HandleRoundHistory(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.service.RoundHistory(r.Context(), chi.URLParam(r, "golfLinkNo"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if summaries == nil {
		summaries = []roundremote.RoundSummary{}
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (h *HTTPHandlers) loadRound(w http.ResponseWriter, r *http.Request) (*roundtypes.Round, bool) {
	round, err := h.service.GetRound(r.Context(), chi.URLParam(r, "roundID"))
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	return round, true
}

func (h *HTTPHandlers) writeMutation(w http.ResponseWriter, r *http.Request, res *roundservice.MutationResult, err error) {
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mutationResponse{Round: res.Round, Hole: res.Hole, RemoteSynced: res.RemoteSynced})
}

func holeAndTarget(w http.ResponseWriter, r *http.Request, rawTarget string) (int, roundtypes.Target, bool) {
	hole, err := strconv.Atoi(chi.URLParam(r, "hole"))
	if err != nil || hole < 1 {
		http.Error(w, "invalid hole number", http.StatusBadRequest)
		return 0, 0, false
	}
	target, err := parseTarget(rawTarget)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, 0, false
	}
	return hole, target, true
}

var errUnknownTarget = errors.New(`target must be "golfer" or "partner"`)

func parseTarget(s string) (roundtypes.Target, error) {
	switch s {
	case "", "golfer":
		return roundtypes.TargetGolfer, nil
	case "partner":
		return roundtypes.TargetPartner, nil
	default:
		return 0, errUnknownTarget
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, rounddb.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, roundservice.ErrActiveRoundExists),
		errors.Is(err, roundservice.ErrAlreadySubmitted):
		return http.StatusConflict
	case errors.Is(err, roundservice.ErrInvalidStrokes),
		errors.Is(err, roundservice.ErrMalformedHoles),
		errors.Is(err, roundservice.ErrNothingToSubmit),
		errors.Is(err, roundservice.ErrRoundRequired),
		errors.Is(err, scoring.ErrExtraStrokesRequired),
		errors.Is(err, roundtypes.ErrHoleNotFound),
		errors.Is(err, roundtypes.ErrNoPartner):
		return http.StatusUnprocessableEntity
	case errors.Is(err, roundremote.ErrNoSession):
		return http.StatusUnauthorized
	}
	var remoteErr *roundremote.Error
	if errors.As(err, &remoteErr) {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (h *HTTPHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "Round request failed",
			attr.String("path", r.URL.Path),
			attr.Error(err),
		)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
