package channel

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"franchise-notifications/internal/models"
)

const htmlLayout = `<!DOCTYPE html>
<html>
<body style="margin:0;padding:24px;background:#f4f5f7;font-family:Arial,Helvetica,sans-serif;color:#1f2933;">
<table role="presentation" width="100%" cellpadding="0" cellspacing="0" style="max-width:600px;margin:0 auto;background:#ffffff;border-radius:8px;">
<tr><td style="background:{{.HeaderColor}};color:#ffffff;padding:20px 24px;font-size:20px;font-weight:bold;border-radius:8px 8px 0 0;">{{.Brand}}</td></tr>
<tr><td style="padding:24px;">
<p>{{.Greeting}}</p>
<h2 style="margin:0 0 12px 0;font-size:18px;">{{.Title}}</h2>
<p style="white-space:pre-line;line-height:1.5;">{{.Message}}</p>
{{- if .FranchiseName}}
<p style="color:#52606d;">Franchise: {{.FranchiseName}}</p>
{{- end}}
{{- if .ActionURL}}
<p style="margin:24px 0;"><a href="{{.ActionURL}}" style="background:{{.HeaderColor}};color:#ffffff;padding:12px 20px;border-radius:4px;text-decoration:none;display:inline-block;">{{.ActionText}}</a></p>
<p style="font-size:12px;color:#7b8794;">If the button does not work, copy this link into your browser: {{.ActionURL}}</p>
{{- end}}
</td></tr>
<tr><td style="padding:16px 24px;font-size:12px;color:#9aa5b1;">This message was sent automatically by {{.Brand}}.</td></tr>
</table>
</body>
</html>
`

const textLayout = `{{.Greeting}}

{{.Title}}

{{.Message}}
{{- if .FranchiseName}}

Franchise: {{.FranchiseName}}
{{- end}}
{{- if .ActionURL}}

{{.ActionText}}: {{.ActionURL}}
{{- end}}

-- 
{{.Brand}}
`

// Renderer turns a notification into the subject and bodies of one email.
type Renderer struct {
	brand  string
	appURL string
	html   *htmltemplate.Template
	text   *texttemplate.Template
}

func NewRenderer(brand, appURL string) (*Renderer, error) {
	html, err := htmltemplate.New("email.html").Parse(htmlLayout)
	if err != nil {
		return nil, fmt.Errorf("parse html layout: %w", err)
	}
	text, err := texttemplate.New("email.txt").Parse(textLayout)
	if err != nil {
		return nil, fmt.Errorf("parse text layout: %w", err)
	}
	return &Renderer{
		brand:  brand,
		appURL: strings.TrimRight(appURL, "/"),
		html:   html,
		text:   text,
	}, nil
}

type emailView struct {
	Brand         string
	HeaderColor   string
	Greeting      string
	Title         string
	Message       string
	FranchiseName string
	ActionURL     string
	ActionText    string
}

// Subject renders "{prefix}{title} - {brand}".
func (r *Renderer) Subject(n *models.Notification) string {
	return fmt.Sprintf("%s%s - %s", subjectPrefix(n.Priority), n.Title, r.brand)
}

// Render builds the message for one recipient; recipientName personalises the
// greeting when known.
func (r *Renderer) Render(n *models.Notification, to, recipientName string) (EmailMessage, error) {
	view := emailView{
		Brand:       r.brand,
		HeaderColor: headerColor(n.Priority),
		Greeting:    greeting(recipientName),
		Title:       n.Title,
		Message:     n.Message,
		ActionURL:   r.actionURL(n),
		ActionText:  actionText(n),
	}
	view.FranchiseName, _ = n.DataString(models.DataKeyFranchiseName)

	var html, text bytes.Buffer
	if err := r.html.Execute(&html, view); err != nil {
		return EmailMessage{}, fmt.Errorf("render html: %w", err)
	}
	if err := r.text.Execute(&text, view); err != nil {
		return EmailMessage{}, fmt.Errorf("render text: %w", err)
	}

	return EmailMessage{
		To:       []string{to},
		Subject:  r.Subject(n),
		HTML:     html.String(),
		Text:     text.String(),
		Priority: n.Priority,
	}, nil
}

func (r *Renderer) actionURL(n *models.Notification) string {
	if n.ActionURL == nil || *n.ActionURL == "" {
		return ""
	}
	link := *n.ActionURL
	if strings.HasPrefix(link, "/") && r.appURL != "" {
		return r.appURL + link
	}
	return link
}

func subjectPrefix(p models.NotificationPriority) string {
	switch p {
	case models.PriorityUrgent:
		return "[URGENT] "
	case models.PriorityHigh:
		return "[IMPORTANT] "
	}
	return ""
}

func headerColor(p models.NotificationPriority) string {
	switch p {
	case models.PriorityUrgent:
		return "#c0392b"
	case models.PriorityHigh:
		return "#d35400"
	}
	return "#243b53"
}

func greeting(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return fmt.Sprintf("Hello %s,", name)
	}
	return "Hello,"
}

// actionText labels the call-to-action button.
func actionText(n *models.Notification) string {
	switch n.Type {
	case models.TypeOrderCreated, models.TypeOrderConfirmed, models.TypeOrderShipped,
		models.TypeOrderDelivered, models.TypeOrderCancelled:
		return "View order"
	case models.TypeVehicleAssigned, models.TypeVehicleBreakdown, models.TypeVehicleReturned:
		return "View vehicle"
	case models.TypeVehicleMaintenanceDue:
		return "Schedule maintenance"
	case models.TypeInvoiceCreated, models.TypeInvoiceOverdue, models.TypeInvoicePaid:
		return "View invoice"
	case models.TypePaymentReceived:
		if paymentType, _ := n.DataString(models.DataKeyPaymentType); paymentType == models.PaymentTypeEntryFee {
			return "View entry fee receipt"
		}
		return "View payment"
	case models.TypePaymentFailed:
		return "Update payment"
	case models.TypeRoyaltyDue, models.TypeRoyaltyOverdue:
		return "View royalties"
	case models.TypeFranchiseApplicationSubmitted:
		return "Review application"
	case models.TypeFranchiseApproved, models.TypeFranchiseRejected,
		models.TypeFranchiseSuspended, models.TypeFranchiseActivated:
		return "View franchise"
	case models.TypeStockLow, models.TypeStockOut, models.TypeStockReceived:
		return "View inventory"
	case models.TypeUserCreated, models.TypeProfileUpdated:
		return "View account"
	case models.TypePasswordReset:
		return "Reset password"
	case models.TypeReportGenerated, models.TypeMonthlyReportAvailable:
		return "View report"
	case models.TypeSystemAnnouncement:
		return "Open dashboard"
	}
	return "View details"
}
