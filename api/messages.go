package api

import "time"

// LoginRequest accepts the secret as either "password" or "secret"
type LoginRequest struct {
	ID       string `json:"id"`
	Password string `json:"password"`
	Secret   string `json:"secret"`
}

// Credential returns whichever secret field was supplied
func (r LoginRequest) Credential() string {
	if r.Password != "" {
		return r.Password
	}
	return r.Secret
}

type MessageResponse struct {
	Message string `json:"message"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

type UploadResponse struct {
	URL string `json:"url"`
}

type ImageResponse struct {
	Name        string    `json:"name"`
	URL         string    `json:"url"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
	Hash        string    `json:"hash"`
	CreatedAt   time.Time `json:"createdAt"`
}

type HealthResponse struct {
	Status string `json:"status"`
}
