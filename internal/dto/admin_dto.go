package dto

type CreateUserRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	DisplayName string `json:"display_name" validate:"max=100"`
	Role        string `json:"role" validate:"required,oneof=admin moderator editor viewer"`
}

type UpdateUserRequest struct {
	Role   *string `json:"role" validate:"omitempty,oneof=admin moderator editor viewer"`
	Active *bool   `json:"active"`
}

type CreateReviewRequest struct {
	AuthorName string `json:"author_name" validate:"required,max=120"`
	Rating     int    `json:"rating" validate:"required,min=1,max=5"`
	Body       string `json:"body" validate:"max=4000"`
}

type ImportRequest struct {
	Records []map[string]any `json:"records" validate:"required,min=1"`
}

type UploadResponse struct {
	URL         string `json:"url"`
	StoragePath string `json:"storage_path"`
}
