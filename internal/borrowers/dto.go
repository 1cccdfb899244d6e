package borrowers

// ===== Requests =====

type CreateBorrowerRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Email        string  `json:"email" binding:"required,email,max=100"`
	MembershipID *string `json:"membership_id,omitempty" binding:"omitempty,max=50"`
}

type UpdateBorrowerRequest struct {
	Name         string  `json:"name" binding:"required,max=100"`
	Email        string  `json:"email" binding:"required,email,max=100"`
	MembershipID *string `json:"membership_id,omitempty" binding:"omitempty,max=50"`
}

// ===== Responses =====

type BorrowerResponse struct {
	BorrowerID   int64   `json:"borrower_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	MembershipID *string `json:"membership_id,omitempty"`
}
