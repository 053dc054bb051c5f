package moderation

// CreateReportRequest for POST /reports
type CreateReportRequest struct {
	MessageID int64  `json:"message_id" validate:"required,gt=0"`
	Reason    string `json:"reason" validate:"required,notblank,max=500"`
}

// ResolveReportRequest for POST /admin/reports/{id}/resolve
type ResolveReportRequest struct {
	Action string `json:"action" validate:"required,report_action"`
}
