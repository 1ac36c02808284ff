package alerts

import (
	"fmt"
	"strings"
	"time"

	"github.com/certward/certward/core/inventory"
	"github.com/certward/certward/core/status"
)

// Alert is one certificate that crossed an alerting threshold.
type Alert struct {
	CertName string        `json:"cert_name"`
	Domains  []string      `json:"domains"`
	Status   status.Status `json:"status"`
	DaysLeft int           `json:"days_left"`
	NotAfter time.Time     `json:"not_after"`
}

// Evaluate selects the certificates from a snapshot that warrant a
// notification: everything at warning severity or worse. The returned slice
// preserves the snapshot's ordering (soonest expiry first).
func Evaluate(snap *inventory.Snapshot) []Alert {
	if snap == nil {
		return nil
	}
	var out []Alert
	for _, cert := range snap.Certificates {
		if !cert.Status.AtLeast(status.StatusWarning) {
			continue
		}
		out = append(out, Alert{
			CertName: cert.Name,
			Domains:  cert.Domains,
			Status:   cert.Status,
			DaysLeft: cert.DaysLeft,
			NotAfter: cert.NotAfter,
		})
	}
	return out
}

// Payload is the JSON document delivered to a webhook channel.
type Payload struct {
	GeneratedAt time.Time `json:"generated_at"`
	Alerts      []Alert   `json:"alerts"`
}

// Subject builds the email subject line for a batch of alerts.
func Subject(alerts []Alert) string {
	worst := status.StatusNotice
	for _, a := range alerts {
		if a.Status.Severity() > worst.Severity() {
			worst = a.Status
		}
	}
	return fmt.Sprintf("[certward] %d certificate(s) need attention (worst: %s)", len(alerts), worst)
}

// RenderHTML builds the email body for a batch of alerts.
func RenderHTML(alerts []Alert) string {
	var b strings.Builder
	b.WriteString("<h2>Certificate expiry alerts</h2>\n<ul>\n")
	for _, a := range alerts {
		b.WriteString(fmt.Sprintf(
			"<li><strong>%s</strong> (%s): %s, %s</li>\n",
			a.CertName,
			strings.Join(a.Domains, ", "),
			a.Status,
			expiryPhrase(a),
		))
	}
	b.WriteString("</ul>\n")
	return b.String()
}

func expiryPhrase(a Alert) string {
	switch {
	case a.Status == status.StatusExpired:
		return fmt.Sprintf("expired on %s", a.NotAfter.Format("2006-01-02"))
	case a.DaysLeft == 1:
		return "expires in 1 day"
	default:
		return fmt.Sprintf("expires in %d days", a.DaysLeft)
	}
}
