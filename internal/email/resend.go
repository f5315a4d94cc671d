package email

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// DefaultResendURL is the Resend API base URL.
const DefaultResendURL = "https://api.resend.com"

// resendClient is the concrete Sender backed by the Resend API.
type resendClient struct {
	http     *resty.Client
	fromAddr string // e.g. "reports@example.org"
	fromName string
	baseURL  string // public base URL of this service, used in report links
}

// NewResendClient returns a Sender that delivers email via Resend. apiURL is
// normally DefaultResendURL.
func NewResendClient(apiKey, apiURL, fromAddr, fromName, baseURL string) Sender {
	client := resty.New().
		SetBaseURL(apiURL).
		SetTimeout(15*time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(3*time.Second).
		SetAuthToken(apiKey).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &resendClient{
		http:     client,
		fromAddr: fromAddr,
		fromName: fromName,
		baseURL:  baseURL,
	}
}

// ─── RESEND API SHAPES ────────────────────────────────────────────────────────

type resendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

type resendResponse struct {
	ID string `json:"id"`
}

type resendError struct {
	Name       string `json:"name"`
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// ─── SENDER IMPLEMENTATION ────────────────────────────────────────────────────

// SendReportReady sends the "report is ready" email.
func (c *resendClient) SendReportReady(ctx context.Context, p ReportReadyParams) error {
	subject := fmt.Sprintf("Service recommendation report ready (patient %s)", p.PatientID)
	reportURL := ReportDocumentURL(c.baseURL, p.ReportID)
	return c.send(ctx, p.To, subject, reportReadyHTML(p, reportURL))
}

// ReportDocumentURL is the public link to a report's Markdown document.
func ReportDocumentURL(baseURL, reportID string) string {
	return fmt.Sprintf("%s/api/reports/%s/document.md", strings.TrimRight(baseURL, "/"), reportID)
}

// ─── HTTP SEND ────────────────────────────────────────────────────────────────

func (c *resendClient) send(ctx context.Context, to, subject, html string) error {
	var (
		ok     resendResponse
		failed resendError
	)
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(resendRequest{
			From:    fmt.Sprintf("%s <%s>", c.fromName, c.fromAddr),
			To:      []string{to},
			Subject: subject,
			HTML:    html,
		}).
		SetResult(&ok).
		SetError(&failed).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("email: http request: %w", err)
	}

	if resp.IsError() {
		if failed.Message != "" {
			return fmt.Errorf("email: Resend error %s: %s", failed.Name, failed.Message)
		}
		return fmt.Errorf("email: unexpected status %d: %.200s", resp.StatusCode(), resp.String())
	}
	if ok.ID == "" {
		return fmt.Errorf("email: Resend response without id (status %d)", resp.StatusCode())
	}
	return nil
}

// ─── HTML TEMPLATES ───────────────────────────────────────────────────────────

func reportReadyHTML(p ReportReadyParams, reportURL string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: sans-serif; color: #1a1a1a; max-width: 560px; margin: 0 auto; padding: 24px;">
  <h2 style="margin-bottom: 8px;">Service Recommendation Report</h2>
  <p>The report for patient <strong>%s</strong> has been generated.</p>
  <p>It lists %d selected services across %d service categories.</p>
  <p style="margin: 32px 0;">
    <a href="%s"
       style="background: #0f172a; color: #ffffff; padding: 12px 24px;
              border-radius: 6px; text-decoration: none; font-weight: 600;">
      View Report
    </a>
  </p>
  <p style="color: #6b7280; font-size: 14px;">
    If the button above does not work, copy this URL:<br>
    <a href="%s" style="color: #6b7280;">%s</a>
  </p>
</body>
</html>`, p.PatientID, p.Services, p.Categories, reportURL, reportURL, reportURL)
}
