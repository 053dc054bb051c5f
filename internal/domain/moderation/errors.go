package moderation

import "errors"

var (
	ErrReportNotFound   = errors.New("report not found")
	ErrMessageNotFound  = errors.New("message not found")
	ErrAlreadyReported  = errors.New("you already reported this message")
	ErrAlreadyResolved  = errors.New("report is already resolved")
	ErrInvalidAction    = errors.New("invalid action")
	ErrEmptyReason      = errors.New("reason is required")
	ErrInvalidStatus    = errors.New("invalid report status")
	ErrEvidenceNotFound = errors.New("evidence not archived")
)
