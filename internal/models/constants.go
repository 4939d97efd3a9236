package models

const (
	StatusInProgress = "in_progress"
	StatusDelivered  = "delivered"
	StatusReturned   = "returned"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

const (
	// QueueStorageKey is the well-known key the serialized scan queue lives
	// under in the local store.
	QueueStorageKey = "offline_scans"

	// DefaultHistorySize is how many recent scans the console feed keeps.
	DefaultHistorySize = 10

	// DefaultProbeInterval (seconds) between connectivity health probes.
	DefaultProbeInterval = 5

	// DefaultDeviceCacheTTL время жизни кэша устройств в Redis (секунды)
	DefaultDeviceCacheTTL = 5 * 60
)
