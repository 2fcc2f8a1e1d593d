package service

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/chainsafe/account-factory/pkg/account"
	apperrors "github.com/chainsafe/account-factory/pkg/app/errors"
	apphttp "github.com/chainsafe/account-factory/pkg/app/http"
	"github.com/chainsafe/account-factory/pkg/auth"
	"github.com/chainsafe/account-factory/pkg/factory"
)

// HTTP wraps the Service to provide HTTP endpoints
type HTTP struct {
	service Service
	logger  *zap.Logger
}

// RegisterRoutes registers the factory endpoints on the given chi router.
// The router is expected to run behind the caller authentication
// middleware; handlers read the caller address from the request context.
func RegisterRoutes(r chi.Router, service Service, logger *zap.Logger) {
	h := &HTTP{
		service: service,
		logger:  logger,
	}

	r.Post("/accounts", apphttp.HandleError(h.createAccount))
	r.Get("/accounts/{accountID}", apphttp.HandleError(h.getAccount))
	r.Get("/config", apphttp.HandleError(h.getConfig))
	r.Patch("/config", apphttp.HandleError(h.updateConfig))
	r.Get("/sequence", apphttp.HandleError(h.nextSequence))
}

// createAccount handles POST /accounts
func (h *HTTP) createAccount(w http.ResponseWriter, r *http.Request) error {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "caller identity required")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var req factory.CreateAccountRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}
	req.Caller = caller

	conf, err := h.service.CreateAccount(r.Context(), &req)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusCreated, conf)
	return nil
}

// getAccount handles GET /accounts/{accountID}
func (h *HTTP) getAccount(w http.ResponseWriter, r *http.Request) error {
	id, err := account.ParseID(chi.URLParam(r, "accountID"))
	if err != nil {
		return apperrors.BadRequestError(err, err.Error())
	}

	reg, err := h.service.Account(r.Context(), id)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, reg)
	return nil
}

// getConfig handles GET /config
func (h *HTTP) getConfig(w http.ResponseWriter, r *http.Request) error {
	cfg, err := h.service.Config(r.Context())
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, cfg)
	return nil
}

// updateConfig handles PATCH /config
func (h *HTTP) updateConfig(w http.ResponseWriter, r *http.Request) error {
	caller, ok := auth.CallerFromContext(r.Context())
	if !ok {
		return apperrors.UnAuthorizedError(nil, "caller identity required")
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20)) // 1MB limit
	if err != nil {
		return apperrors.BadRequestError(err, "failed to read request")
	}

	var patch factory.ConfigPatch
	if err := json.Unmarshal(body, &patch); err != nil {
		return apperrors.BadRequestError(err, "invalid JSON")
	}

	cfg, err := h.service.UpdateConfig(r.Context(), caller, patch)
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, cfg)
	return nil
}

type sequenceResponse struct {
	NextSequence uint32 `json:"next_sequence"`
}

// nextSequence handles GET /sequence
func (h *HTTP) nextSequence(w http.ResponseWriter, r *http.Request) error {
	next, err := h.service.NextSequence(r.Context())
	if err != nil {
		return err
	}

	h.writeJSON(w, http.StatusOK, &sequenceResponse{NextSequence: next})
	return nil
}

func (h *HTTP) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", zap.Error(err))
	}
}
