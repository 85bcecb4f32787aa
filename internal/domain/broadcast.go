package domain

import "time"

// StatusUpdate is the real-time notification pushed to a connected user
// when one of their email jobs changes state.
type StatusUpdate struct {
	EmailJobID   string         `json:"emailJobId"`
	Status       EmailJobStatus `json:"status"`
	EmployeeName string         `json:"employeeName,omitempty"`
	Timestamp    time.Time      `json:"timestamp"`
}

// Broadcaster fans status updates out to a user's live connections.
// Delivery is at-most-once: a slow or absent subscriber drops updates
// rather than blocking the webhook path.
type Broadcaster interface {
	// Subscribe registers a connection for userID and returns the update
	// channel plus an unsubscribe function.
	Subscribe(userID string) (<-chan StatusUpdate, func())
	// Publish delivers update to every live connection of userID.
	Publish(userID string, update StatusUpdate)
	// SubscriberCount reports live connections for userID.
	SubscriberCount(userID string) int
	// Shutdown closes all subscriber channels.
	Shutdown()
}
