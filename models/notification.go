package models

import "time"

// NotificationType, bildirim tür etiketi — client hangi ekrana yönlendireceğini
// bu alandan bilir.
type NotificationType string

const (
	NotificationRideStatus     NotificationType = "ride_status"
	NotificationPanic          NotificationType = "panic"
	NotificationSupportMessage NotificationType = "support_message"
)

// Notification, kalıcı bildirim kaydı.
//
// Her (event, alıcı) çifti için tam olarak bir satır oluşturulur (fan-out).
// Yalnızca IsRead alanı mutate edilir; silme bu çekirdeğin sorumluluğunda
// değildir (retention harici concern).
type Notification struct {
	ID          string           `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	// Payload, event'e özgü JSON gövdesi (ride id, chat id vb.).
	// DB'de TEXT olarak saklanır, API'de olduğu gibi geçirilir.
	Payload   string    `json:"payload"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}
