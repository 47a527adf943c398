package instance

import "os"

const defaultID = "worker-0"

// GetID identifies this process in log fields. Deployments set WORKER_ID;
// local runs fall back to a stable default.
func GetID() string {
	id := os.Getenv("WORKER_ID")
	if id == "" {
		return defaultID
	}
	return id
}
