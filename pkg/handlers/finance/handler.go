package finance

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Copanies/copany-finance/pkg/adapters"
	"github.com/Copanies/copany-finance/pkg/models/api"
	"github.com/Copanies/copany-finance/pkg/models/domain"
	"github.com/Copanies/copany-finance/pkg/services/appstore"
	"github.com/Copanies/copany-finance/pkg/store/postgres/runs"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PipelineRunner runs the full report pipeline for one vendor.
type PipelineRunner interface {
	Run(ctx context.Context, creds domain.Credentials, vendorID, productIdentifiers string) (domain.RunResult, error)
}

type Handler struct {
	pipeline PipelineRunner
	store    runs.Store
}

func NewHandler(pipeline PipelineRunner, store runs.Store) *Handler {
	return &Handler{pipeline: pipeline, store: store}
}

// RunReports handles POST /api/v1/finance/reports. The HTTP status reflects
// only request validity and credential health; individual fetch failures are
// reported inside a 200 envelope.
func (h *Handler) RunReports(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	var req api.ReportRunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: "invalid JSON body"})
		return
	}

	if missing := missingFields(req); len(missing) > 0 {
		writeJSON(w, http.StatusBadRequest, api.ErrorResponse{
			Error:   "missing required fields",
			Missing: missing,
		})
		return
	}

	creds := domain.Credentials{
		PrivateKeyPEM: req.PrivateKey,
		KeyID:         req.KeyID,
		IssuerID:      req.IssuerID,
	}

	result, err := h.pipeline.Run(ctx, creds, req.VendorID, req.ProductIdentifiers)
	if err != nil {
		if errors.Is(err, appstore.ErrCredential) {
			writeJSON(w, http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
			return
		}
		logger.Error().Err(err).Msg("finance report run failed")
		writeJSON(w, http.StatusInternalServerError, api.ErrorResponse{Error: "internal error"})
		return
	}

	h.persist(r, req.VendorID, result)

	writeJSON(w, http.StatusOK, adapters.MapRunResultDomainToApi(result))
}

// persist hands the settled envelope to the runs store. Storage failures
// must not prevent returning the computed result.
func (h *Handler) persist(r *http.Request, vendorID string, result domain.RunResult) {
	ctx := r.Context()
	logger := zerolog.Ctx(ctx)

	run, totals, failures := adapters.MapRunResultDomainToStore(uuid.NewString(), vendorID, result)
	if err := h.store.SaveRun(ctx, run, totals, failures); err != nil {
		logger.Error().Err(err).Str("run_id", run.ID).Msg("failed to persist finance run")
	}
}

func missingFields(req api.ReportRunRequest) []string {
	var missing []string
	if req.VendorID == "" {
		missing = append(missing, "vendorId")
	}
	if req.PrivateKey == "" {
		missing = append(missing, "privateKey")
	}
	if req.KeyID == "" {
		missing = append(missing, "keyId")
	}
	if req.IssuerID == "" {
		missing = append(missing, "issuerId")
	}
	if req.ProductIdentifiers == "" {
		missing = append(missing, "productIdentifiers")
	}
	return missing
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
