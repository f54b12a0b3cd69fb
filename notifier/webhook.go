// Package notifier pushes denial alerts to an optional webhook so operators
// see penalty blocks and high-risk hits without tailing logs.
package notifier

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"edgegate/logger"
)

type WebhookMessage struct {
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
	Severity  string    `json:"severity"`
}

// SendAlert posts msg to the webhook configured via EDGEGATE_WEBHOOK_URL.
// With no URL configured it is a no-op. Delivery is asynchronous so a slow
// webhook never stalls request handling.
func SendAlert(msg string, severity string) {
	webhookURL := os.Getenv("EDGEGATE_WEBHOOK_URL")
	if webhookURL == "" {
		return
	}

	payload := WebhookMessage{
		Text:      fmt.Sprintf("[EdgeGate] %s", msg),
		Timestamp: time.Now(),
		Severity:  severity,
	}

	data, _ := json.Marshal(payload)

	go func() {
		resp, err := http.Post(webhookURL, "application/json", bytes.NewBuffer(data))
		if err != nil {
			logger.Error("failed to send webhook alert", "err", err)
			return
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
			logger.Warn("webhook returned non-OK status", "status", resp.Status)
		}
	}()
}
