// Package handler exposes the identity protocol over HTTP.
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"facegate/internal/identity/models"
	"facegate/internal/platform/middleware"
	jsonResponse "facegate/internal/transport/http/json"
	"facegate/internal/transport/http/shared"
	dErrors "facegate/pkg/domain-errors"
	s "facegate/pkg/string"
	"facegate/pkg/validation"
)

// Service defines the interface for identity protocol operations.
type Service interface {
	Submit(ctx context.Context, req *models.RegisterRequest) (*models.RegisterResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.LoginResult, error)
	Enroll(ctx context.Context, req *models.SaveFaceRequest) (*models.EnrollmentResult, error)
	GetFace(ctx context.Context, phoneNumber string) (*models.FaceStatus, error)
	Verify(ctx context.Context, req *models.VerifyRequest) (*models.VerificationResult, error)
	SearchUser(ctx context.Context, req *models.SearchUserRequest) (*models.SearchResult, error)
}

// Handler handles registration, enrollment, verification, and directory
// endpoints.
type Handler struct {
	identity Service
	logger   *slog.Logger
}

// New creates a new identity Handler with the given service and logger.
func New(identity Service, logger *slog.Logger) *Handler {
	return &Handler{
		identity: identity,
		logger:   logger,
	}
}

// Register registers the identity routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/registration/register", h.HandleRegister)
	r.Post("/registration/login", h.HandleLogin)
	r.Post("/registration/face", h.HandleSaveFace)
	r.Get("/registration/face", h.HandleGetFace)
	r.Get("/registration/users/search", h.HandleSearchUser)
	r.Post("/verification/verify", h.HandleVerify)
}

// HandleRegister implements POST /registration/register.
// Registers a new identity by phone number. An already-registered phone
// number is a 409 conflict regardless of the username supplied.
//
// Input: { "phone_number": "13800138000", "username": "zhangwei" }
// Output: { "success": true, "identity_id": "...", "username": "...", ... }
func (h *Handler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "register", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	s.TrimStrings(&req.PhoneNumber, &req.Username)
	if err := validation.Validate(req); err != nil {
		h.warnInvalid(ctx, "register", err)
		shared.WriteError(w, err)
		return
	}

	res, err := h.identity.Submit(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "register failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}

	jsonResponse.WriteJSON(w, http.StatusCreated, res)
}

// HandleLogin implements POST /registration/login.
// Resolves an existing identity by phone number only.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "login", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	s.TrimStrings(&req.PhoneNumber)
	if err := validation.Validate(req); err != nil {
		h.warnInvalid(ctx, "login", err)
		shared.WriteError(w, err)
		return
	}

	res, err := h.identity.Login(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "login failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleSaveFace implements POST /registration/face.
// Stores a face reference for an existing identity. Re-enrollment replaces
// the previous reference.
func (h *Handler) HandleSaveFace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.SaveFaceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "save face", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	s.TrimStrings(&req.PhoneNumber, &req.Username)
	if err := validation.Validate(req); err != nil {
		h.warnInvalid(ctx, "save face", err)
		shared.WriteError(w, err)
		return
	}

	res, err := h.identity.Enroll(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "face enrollment failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleGetFace implements GET /registration/face?phone_number=...
// Reports enrollment status. A missing identity is reported as
// registered=false with a 200, never as an error.
func (h *Handler) HandleGetFace(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	phoneNumber := r.URL.Query().Get("phone_number")
	s.TrimStrings(&phoneNumber)
	if !validation.ValidPhoneNumber(phoneNumber) {
		shared.WriteError(w, dErrors.New(dErrors.CodeValidation, "phone_number must be a valid mobile number"))
		return
	}

	res, err := h.identity.GetFace(ctx, phoneNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "face status lookup failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleSearchUser implements GET /registration/users/search?username=...
// Looks up a verification target by username. An unknown username is a
// found=false result with a 200.
func (h *Handler) HandleSearchUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	req := &models.SearchUserRequest{Username: r.URL.Query().Get("username")}
	s.TrimStrings(&req.Username)
	if err := validation.Validate(req); err != nil {
		h.warnInvalid(ctx, "user search", err)
		shared.WriteError(w, err)
		return
	}

	res, err := h.identity.SearchUser(ctx, req)
	if err != nil {
		h.logger.ErrorContext(ctx, "user search failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

// HandleVerify implements POST /verification/verify.
// Scores a live capture against a stored reference. A rejected comparison is
// a 200 with accepted=false; errors are reserved for unresolvable targets
// and pipeline failures.
func (h *Handler) HandleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req *models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.warnDecode(ctx, "verify", err)
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "Invalid JSON in request body"))
		return
	}

	s.TrimStrings(&req.Mode, &req.PhoneNumber, &req.Username)
	if err := validation.Validate(req); err != nil {
		h.warnInvalid(ctx, "verify", err)
		shared.WriteError(w, err)
		return
	}

	res, err := h.identity.Verify(ctx, req)
	if err != nil {
		h.logger.WarnContext(ctx, "verification failed",
			"error", err,
			"request_id", middleware.GetRequestID(ctx),
			"mode", req.Mode,
		)
		shared.WriteError(w, err)
		return
	}
	jsonResponse.WriteJSON(w, http.StatusOK, res)
}

func (h *Handler) warnDecode(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "failed to decode "+op+" request",
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
}

func (h *Handler) warnInvalid(ctx context.Context, op string, err error) {
	h.logger.WarnContext(ctx, "invalid "+op+" request",
		"error", err,
		"request_id", middleware.GetRequestID(ctx),
	)
}
