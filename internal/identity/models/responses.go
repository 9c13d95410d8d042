package models

// RegisterResult confirms a fresh registration. Duplicate phone numbers and
// usernames surface as conflict errors, never as an alternate result shape.
type RegisterResult struct {
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	IdentityID string `json:"identity_id"`
	Username   string `json:"username"`
}

// LoginResult is returned by the bare login operation.
type LoginResult struct {
	Success    bool   `json:"success"`
	Username   string `json:"username"`
	IdentityID string `json:"identity_id"`
}

// EnrollmentResult confirms which observation was persisted.
type EnrollmentResult struct {
	Success     bool        `json:"success"`
	IdentityID  string      `json:"identity_id"`
	BoundingBox BoundingBox `json:"bounding_box"`
	Confidence  float64     `json:"confidence"`
	Replaced    bool        `json:"replaced"`
}

// FaceStatus answers getFace. A missing identity is reported as
// registered=false, never as an error.
type FaceStatus struct {
	Registered  bool         `json:"registered"`
	BoundingBox *BoundingBox `json:"bounding_box,omitempty"`
}

// SearchResult is the three-valued directory outcome: not found, found but
// not enrolled, or found and enrolled. Callers branch on Found and
// FaceRegistered independently.
type SearchResult struct {
	Found          bool   `json:"found"`
	FaceRegistered bool   `json:"face_registered"`
	Username       string `json:"username,omitempty"`
}
