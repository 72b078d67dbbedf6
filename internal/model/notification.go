package model

import "time"

// Notification kinds.  Currently only the tenant-left event produces
// notifications; the kind column leaves room for more.
const NotificationTenantLeft = "TENANT_LEFT"

// Notification is an inbox entry for a user.  Payload carries the
// originating event serialized as JSON so the UI can render details
// without joining back to the source tables.
type Notification struct {
    ID        uint64    // notifications.id
    UserID    uint64    // notifications.user_id
    Kind      string    // notifications.kind
    Payload   string    // notifications.payload (JSON text)
    IsRead    bool      // notifications.is_read
    CreatedAt time.Time // notifications.created_at
}
