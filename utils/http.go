// utils/http.go
package utils

import (
	"net/http"
	"time"
)

// Shared client for one-off fetches (avatar downloads).
var HTTPClient = &http.Client{
	Timeout: 30 * time.Second,
}
