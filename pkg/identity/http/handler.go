package http

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/chainlaunch/asset-gateway/pkg/config"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	"github.com/chainlaunch/asset-gateway/pkg/identity"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

type Handler struct {
	cfg       *config.Config
	authority *identity.Authority
	validate  *validator.Validate
	wrapper   *response.Wrapper
}

func NewHandler(cfg *config.Config, authority *identity.Authority, wrapper *response.Wrapper) *Handler {
	if wrapper == nil {
		wrapper = response.NewWrapper(nil, nil)
	}
	return &Handler{
		cfg:       cfg,
		authority: authority,
		validate:  validator.New(),
		wrapper:   wrapper,
	}
}

// RegisterRoutes registers the identity routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/enrollAdmin", h.wrapper.Wrap(h.EnrollAdmin))
	r.Post("/registerUser", h.wrapper.Wrap(h.RegisterUser))
}

// EnrollAdmin godoc
// @Summary Enroll an organization's admin identity
// @Description Enrolls the bootstrap admin against the organization's CA unless it is already in the wallet
// @Tags identities
// @Accept json
// @Produce json
// @Param request body EnrollAdminRequest true "Organization"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /enrollAdmin [post]
func (h *Handler) EnrollAdmin(w http.ResponseWriter, r *http.Request) error {
	var req EnrollAdminRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := h.checkOrg(req.Org); err != nil {
		return err
	}
	if _, err := h.authority.EnsureAdminIdentity(r.Context(), req.Org); err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Enrolled admin for %s successfully", req.Org),
	})
}

// RegisterUser godoc
// @Summary Register and enroll a user identity
// @Description Registers the user under the organization's default affiliation and stores its enrollment
// @Tags identities
// @Accept json
// @Produce json
// @Param request body RegisterUserRequest true "Organization and user"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /registerUser [post]
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) error {
	var req RegisterUserRequest
	if err := decode(r, &req); err != nil {
		return err
	}
	if err := h.checkOrg(req.Org); err != nil {
		return err
	}
	if err := h.validate.Struct(req); err != nil {
		return errors.NewValidationError("Missing userId", map[string]interface{}{"code": "VALIDATION_ERROR"})
	}
	if _, err := h.authority.EnsureUserIdentity(r.Context(), req.Org, req.UserID); err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, MessageResponse{
		Message: fmt.Sprintf("Registered user %s in %s successfully", req.UserID, req.Org),
	})
}

// checkOrg rejects organizations outside the configured set as a client
// error, unlike the asset endpoints where the broker reports them.
func (h *Handler) checkOrg(org string) error {
	if _, ok := h.cfg.Organization(org); ok {
		return nil
	}
	return errors.NewValidationError(
		"Org must be one of: "+strings.Join(h.cfg.OrgIDs(), ", "),
		map[string]interface{}{"org": org},
	)
}

func decode(r *http.Request, v interface{}) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errors.NewValidationError("Invalid or missing JSON body", map[string]interface{}{
			"detail": err.Error(),
			"code":   "INVALID_REQUEST_BODY",
		})
	}
	return nil
}
