package http

type EnrollAdminRequest struct {
	Org string `json:"org"`
}

type RegisterUserRequest struct {
	Org    string `json:"org"`
	UserID string `json:"userId" validate:"required"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
