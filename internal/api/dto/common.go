package dto

// SuccessResponse is returned by endpoints without a body of their own
type SuccessResponse struct {
	Message string `json:"message"`
}
