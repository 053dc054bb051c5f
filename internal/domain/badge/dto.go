package badge

// CreateBadgeRequest is the body of POST /admin/badges
type CreateBadgeRequest struct {
	Name           string `json:"name" validate:"required,notblank,max=100"`
	Description    string `json:"description" validate:"max=500"`
	PointsRequired int    `json:"points_required" validate:"gte=0"`
}

// UpdateBadgeRequest is the body of PUT /admin/badges/{id}; nil fields are left unchanged
type UpdateBadgeRequest struct {
	Name           *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description    *string `json:"description" validate:"omitempty,max=500"`
	PointsRequired *int    `json:"points_required" validate:"omitempty,gte=0"`
}
