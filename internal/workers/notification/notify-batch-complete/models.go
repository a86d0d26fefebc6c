// internal/workers/notification/notify-batch-complete/models.go
package notifybatchcomplete

const (
	StatusSent     = "sent"
	StatusDisabled = "disabled"
)

// Input carries the batch summary produced upstream plus the recipients.
type Input struct {
	BatchID          string `json:"batchId"`
	ResultCount      int    `json:"resultCount"`
	LoansSavingMoney int    `json:"loansSavingMoney"`
	FileName         string `json:"fileName,omitempty"`
	RecipientEmail   string `json:"recipientEmail,omitempty"`
	RecipientPhone   string `json:"recipientPhone,omitempty"`
}

type Output struct {
	NotificationID string   `json:"notificationId"`
	BatchID        string   `json:"batchId"`
	Status         string   `json:"status"`
	Channels       []string `json:"channels,omitempty"`
	SentAt         string   `json:"sentAt"`
}
