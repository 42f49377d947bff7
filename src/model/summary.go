package model

// Summary is the per-exception view over error logs: how many events reference the
// exception and the level of its most recent event.
type Summary struct {
	Exception AppException `json:"exception"`
	Events    int64        `json:"events"`
	Level     Level        `json:"level"`
}
