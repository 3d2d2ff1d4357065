package http

import "github.com/chainlaunch/asset-gateway/pkg/assets"

// UserRequest identifies the organization and wallet identity a call runs as.
// It is read from the body on POST and from the query string on GET/DELETE.
type UserRequest struct {
	Org    string `json:"org" validate:"required"`
	UserID string `json:"userId" validate:"required"`
}

// AssetIDRequest addresses a single asset by path id.
type AssetIDRequest struct {
	UserRequest
	ID string `json:"id" validate:"required"`
}

// AssetRequest is the body of createAsset and updateAsset. Size and
// AppraisedValue accept JSON numbers or strings.
type AssetRequest struct {
	UserRequest
	ID             string         `json:"id" validate:"required"`
	Color          string         `json:"color" validate:"required"`
	Size           assets.Decimal `json:"size" validate:"required"`
	Owner          string         `json:"owner" validate:"required"`
	AppraisedValue assets.Decimal `json:"appraisedValue" validate:"required"`
}

func (r AssetRequest) asset() assets.Asset {
	return assets.Asset{
		ID:             r.ID,
		Color:          r.Color,
		Size:           r.Size,
		Owner:          r.Owner,
		AppraisedValue: r.AppraisedValue,
	}
}

type TransferRequest struct {
	UserRequest
	ID       string `json:"id" validate:"required"`
	NewOwner string `json:"newOwner" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type AssetIDResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type AssetResponse struct {
	Message string      `json:"message"`
	Asset   interface{} `json:"asset"`
}

type TransferResponse struct {
	Message  string `json:"message"`
	ID       string `json:"id"`
	OldOwner string `json:"oldOwner"`
	NewOwner string `json:"newOwner"`
}

type ExistsResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
	Exists  bool   `json:"exists"`
}

type AssetListResponse struct {
	Message string        `json:"message"`
	Count   int           `json:"count"`
	Assets  []interface{} `json:"assets"`
}
