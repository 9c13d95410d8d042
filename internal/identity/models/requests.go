package models

// RegisterRequest creates a new identity. The phone number must not be
// registered yet; existing callers log in with LoginRequest instead.
type RegisterRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,cnphone"`
	Username    string `json:"username" validate:"required,min=2,max=20"`
}

// LoginRequest resolves an existing identity by phone number only.
type LoginRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,cnphone"`
}

// SaveFaceRequest enrolls a face reference. Clients that run detection locally
// submit the bounding box; clients that upload the raw capture set Image
// (base64) and the server runs detection instead.
type SaveFaceRequest struct {
	PhoneNumber string       `json:"phone_number" validate:"required,cnphone"`
	Username    string       `json:"username" validate:"required,min=2,max=20"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
	Image       string       `json:"image,omitempty" validate:"omitempty,base64"`
}

// VerifyRequest scores a live capture against a stored reference.
// Mode self requires PhoneNumber; mode other requires Username.
type VerifyRequest struct {
	Mode        string `json:"mode" validate:"required,oneof=self other"`
	PhoneNumber string `json:"phone_number,omitempty" validate:"omitempty,cnphone"`
	Username    string `json:"username,omitempty" validate:"omitempty,min=2,max=20"`
	Image       string `json:"image" validate:"required,base64"`
}

// SearchUserRequest looks up a verification target by username.
type SearchUserRequest struct {
	Username string `json:"username" validate:"required,min=2,max=20"`
}
