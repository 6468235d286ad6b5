package contact

import "time"

// Submission rows are append-only: created once, never updated.
type Submission struct {
	ID        int       `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Comments  string    `json:"comments"`
	CreatedAt time.Time `json:"createdAt"`
}

type CreateSubmissionRequest struct {
	FirstName    string `json:"firstName" binding:"required,max=100"`
	LastName     string `json:"lastName" binding:"required,max=100"`
	Email        string `json:"email" binding:"required,email"`
	Comments     string `json:"comments" binding:"required,max=500"`
	CaptchaToken string `json:"captchaToken"`
}
