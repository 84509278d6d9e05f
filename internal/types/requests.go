package types

// RegisterRequest is the payload for user registration
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

// LoginRequest is the payload for user login
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// IngestRequest is the payload for logging food items. Text may contain
// several items separated by commas or newlines; Date is the calendar-day
// key (YYYY-MM-DD) the entries belong to.
type IngestRequest struct {
	Text string `json:"text" binding:"required"`
	Date string `json:"date" binding:"required"`
}
