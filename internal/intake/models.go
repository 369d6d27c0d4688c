package intake

import "lead-intake/internal/common/logger"

// Submission is the request-scoped form payload. Repeatable form fields
// arrive as JSON arrays.
type Submission struct {
	ContactName      string   `json:"contactName"`
	Email            string   `json:"email"`
	Phone            string   `json:"phone"`
	ServiceName      string   `json:"serviceName"`
	Position         string   `json:"position"`
	ServiceType      string   `json:"serviceType"`
	StudentCount     string   `json:"studentCount"`
	IndicativeBudget string   `json:"indicativeBudget"`
	AgeGroup         string   `json:"ageGroup"`
	Phase            []string `json:"phase"`
	AdditionalInfo   string   `json:"additionalInfo"`
	Photos           []string `json:"photos"`
}

// Result is the caller-visible outcome of one submission.
type Result struct {
	Success   bool   `json:"success"`
	ContactID string `json:"contactId,omitempty"`
	Message   string `json:"message"`
}

type ServiceDependencies struct {
	Logger   logger.Logger
	CRM      CRMClient
	Deduper  Deduper
	Audit    AuditRecorder
	Notifier LeadNotifier
}
