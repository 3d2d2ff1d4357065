package http

import (
	"net/http"

	"github.com/chainlaunch/asset-gateway/pkg/assets"
	"github.com/chainlaunch/asset-gateway/pkg/errors"
	"github.com/chainlaunch/asset-gateway/pkg/http/response"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/go-playground/validator/v10"
)

const (
	msgMissingUser     = "Missing org or userId"
	msgMissingUserOrID = "Missing org, userId or id"
	msgMissingAsset    = "Missing parameters: org, userId, id, color, size, owner, appraisedValue"
	msgMissingTransfer = "Missing parameters: org, userId, id, newOwner"
	msgInvalidBody     = "Invalid or missing JSON body"
)

type Handler struct {
	service  *assets.Service
	validate *validator.Validate
	wrapper  *response.Wrapper
}

// NewHandler builds the asset endpoints. A nil wrapper falls back to
// response.Middleware.
func NewHandler(service *assets.Service, wrapper *response.Wrapper) *Handler {
	if wrapper == nil {
		wrapper = response.NewWrapper(nil, nil)
	}
	return &Handler{
		service:  service,
		validate: validator.New(),
		wrapper:  wrapper,
	}
}

// RegisterRoutes registers the asset routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/init", h.wrapper.Wrap(h.InitLedger))
	r.Post("/createAsset", h.wrapper.Wrap(h.CreateAsset))
	r.Get("/asset/{id}", h.wrapper.Wrap(h.ReadAsset))
	r.Put("/updateAsset", h.wrapper.Wrap(h.UpdateAsset))
	r.Delete("/asset/{id}", h.wrapper.Wrap(h.DeleteAsset))
	r.Post("/transferAsset", h.wrapper.Wrap(h.TransferAsset))
	r.Get("/asset/exists/{id}", h.wrapper.Wrap(h.AssetExists))
	r.Get("/getAllAssets", h.wrapper.Wrap(h.GetAllAssets))
}

// InitLedger godoc
// @Summary Populate the ledger with the sample assets
// @Tags assets
// @Accept json
// @Produce json
// @Param request body UserRequest true "Caller identity"
// @Success 200 {object} MessageResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /init [post]
func (h *Handler) InitLedger(w http.ResponseWriter, r *http.Request) error {
	var req UserRequest
	if err := h.decode(r, &req, msgMissingUser); err != nil {
		return err
	}
	if err := h.service.InitLedger(r.Context(), req.Org, req.UserID); err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, MessageResponse{Message: "Ledger initialized successfully"})
}

// CreateAsset godoc
// @Summary Create an asset
// @Tags assets
// @Accept json
// @Produce json
// @Param request body AssetRequest true "Asset"
// @Success 200 {object} AssetIDResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /createAsset [post]
func (h *Handler) CreateAsset(w http.ResponseWriter, r *http.Request) error {
	var req AssetRequest
	if err := h.decode(r, &req, msgMissingAsset); err != nil {
		return err
	}
	id, err := h.service.CreateAsset(r.Context(), req.Org, req.UserID, req.asset())
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, AssetIDResponse{Message: "Asset created successfully", ID: id})
}

// ReadAsset godoc
// @Summary Read an asset
// @Tags assets
// @Produce json
// @Param id path string true "Asset ID"
// @Param org query string true "Organization"
// @Param userId query string true "Wallet identity"
// @Success 200 {object} AssetResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /asset/{id} [get]
func (h *Handler) ReadAsset(w http.ResponseWriter, r *http.Request) error {
	req, err := h.assetIDFromQuery(r)
	if err != nil {
		return err
	}
	asset, err := h.service.ReadAsset(r.Context(), req.Org, req.UserID, req.ID)
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, AssetResponse{Message: "Asset read successfully", Asset: asset})
}

// UpdateAsset godoc
// @Summary Replace an asset's fields
// @Tags assets
// @Accept json
// @Produce json
// @Param request body AssetRequest true "Asset"
// @Success 200 {object} AssetIDResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /updateAsset [put]
func (h *Handler) UpdateAsset(w http.ResponseWriter, r *http.Request) error {
	var req AssetRequest
	if err := h.decode(r, &req, msgMissingAsset); err != nil {
		return err
	}
	id, err := h.service.UpdateAsset(r.Context(), req.Org, req.UserID, req.asset())
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, AssetIDResponse{Message: "Asset updated successfully", ID: id})
}

// DeleteAsset godoc
// @Summary Delete an asset
// @Tags assets
// @Produce json
// @Param id path string true "Asset ID"
// @Param org query string true "Organization"
// @Param userId query string true "Wallet identity"
// @Success 200 {object} AssetIDResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /asset/{id} [delete]
func (h *Handler) DeleteAsset(w http.ResponseWriter, r *http.Request) error {
	req, err := h.assetIDFromQuery(r)
	if err != nil {
		return err
	}
	id, err := h.service.DeleteAsset(r.Context(), req.Org, req.UserID, req.ID)
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, AssetIDResponse{Message: "Asset deleted successfully", ID: id})
}

// TransferAsset godoc
// @Summary Transfer an asset to a new owner
// @Tags assets
// @Accept json
// @Produce json
// @Param request body TransferRequest true "Transfer"
// @Success 200 {object} TransferResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /transferAsset [post]
func (h *Handler) TransferAsset(w http.ResponseWriter, r *http.Request) error {
	var req TransferRequest
	if err := h.decode(r, &req, msgMissingTransfer); err != nil {
		return err
	}
	oldOwner, err := h.service.TransferAsset(r.Context(), req.Org, req.UserID, req.ID, req.NewOwner)
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, TransferResponse{
		Message:  "Asset transferred successfully",
		ID:       req.ID,
		OldOwner: oldOwner,
		NewOwner: req.NewOwner,
	})
}

// AssetExists godoc
// @Summary Check whether an asset exists
// @Tags assets
// @Produce json
// @Param id path string true "Asset ID"
// @Param org query string true "Organization"
// @Param userId query string true "Wallet identity"
// @Success 200 {object} ExistsResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /asset/exists/{id} [get]
func (h *Handler) AssetExists(w http.ResponseWriter, r *http.Request) error {
	req, err := h.assetIDFromQuery(r)
	if err != nil {
		return err
	}
	exists, err := h.service.AssetExists(r.Context(), req.Org, req.UserID, req.ID)
	if err != nil {
		return err
	}
	message := "Asset does not exist"
	if exists {
		message = "Asset exists"
	}
	return response.WriteJSON(w, http.StatusOK, ExistsResponse{Message: message, ID: req.ID, Exists: exists})
}

// GetAllAssets godoc
// @Summary List every asset on the ledger
// @Tags assets
// @Produce json
// @Param org query string true "Organization"
// @Param userId query string true "Wallet identity"
// @Success 200 {object} AssetListResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /getAllAssets [get]
func (h *Handler) GetAllAssets(w http.ResponseWriter, r *http.Request) error {
	req := UserRequest{
		Org:    r.URL.Query().Get("org"),
		UserID: r.URL.Query().Get("userId"),
	}
	if err := h.check(req, msgMissingUser); err != nil {
		return err
	}
	all, err := h.service.GetAllAssets(r.Context(), req.Org, req.UserID)
	if err != nil {
		return err
	}
	return response.WriteJSON(w, http.StatusOK, AssetListResponse{
		Message: "All assets retrieved successfully",
		Count:   len(all),
		Assets:  all,
	})
}

func (h *Handler) assetIDFromQuery(r *http.Request) (AssetIDRequest, error) {
	req := AssetIDRequest{
		UserRequest: UserRequest{
			Org:    r.URL.Query().Get("org"),
			UserID: r.URL.Query().Get("userId"),
		},
		ID: chi.URLParam(r, "id"),
	}
	return req, h.check(req, msgMissingUserOrID)
}

func (h *Handler) decode(r *http.Request, v interface{}, message string) error {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		return errors.NewValidationError(msgInvalidBody, map[string]interface{}{
			"detail": err.Error(),
			"code":   "INVALID_REQUEST_BODY",
		})
	}
	return h.check(v, message)
}

// check reports a failed struct validation under the endpoint's message,
// keeping the failing fields as details.
func (h *Handler) check(v interface{}, message string) error {
	err := h.validate.Struct(v)
	if err == nil {
		return nil
	}
	fields := make(map[string]string)
	if verrs, ok := err.(validator.ValidationErrors); ok {
		for _, fe := range verrs {
			fields[fe.Field()] = fe.Tag()
		}
	}
	return errors.NewValidationError(message, map[string]interface{}{
		"code":   "VALIDATION_ERROR",
		"errors": fields,
	})
}
