package mailer

import (
	"fmt"
	"html/template"
	"strings"
)

var (
	ticketCreatedTmpl = template.Must(template.New("ticket_created").Parse(`
<h2>Your ticket has been received</h2>
<p>Hi {{.Name}},</p>
<p>We created ticket <strong>{{.Title}}</strong> and our team will look at it shortly.</p>
{{if .MagicLink}}<p>You can follow the progress here: <a href="{{.MagicLink}}">{{.MagicLink}}</a></p>{{end}}
<p>Status: {{.Status}} | Priority: {{.Priority}}</p>
`))

	ticketNotifyAdminTmpl = template.Must(template.New("ticket_notify_admin").Parse(`
<h2>New ticket submitted</h2>
<p><strong>{{.Title}}</strong> ({{.Priority}})</p>
<p>{{.Description}}</p>
<p>Submitted by {{.SubmitterName}} &lt;{{.SubmitterEmail}}&gt;</p>
`))

	statusUpdateTmpl = template.Must(template.New("status_update").Parse(`
<h2>Ticket status changed</h2>
<p>Hi {{.Name}},</p>
<p>Ticket <strong>{{.Title}}</strong> moved from {{.OldStatus}} to <strong>{{.NewStatus}}</strong>.</p>
`))

	assignedTmpl = template.Must(template.New("assigned").Parse(`
<h2>Ticket assigned to you</h2>
<p>Hi {{.Name}},</p>
<p>Ticket <strong>{{.Title}}</strong> ({{.Priority}}) is now assigned to you.</p>
`))
)

// TicketCreatedData fills the requester confirmation mail.
type TicketCreatedData struct {
	Name      string
	Title     string
	Status    string
	Priority  string
	MagicLink string
}

// AdminNotifyData fills the new-ticket alert sent to administrators.
type AdminNotifyData struct {
	Title          string
	Description    string
	Priority       string
	SubmitterName  string
	SubmitterEmail string
}

// StatusUpdateData fills the status change mail.
type StatusUpdateData struct {
	Name      string
	Title     string
	OldStatus string
	NewStatus string
}

// AssignedData fills the assignment mail.
type AssignedData struct {
	Name     string
	Title    string
	Priority string
}

func render(tmpl *template.Template, data interface{}) (string, error) {
	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}

// RenderTicketCreated builds the requester confirmation body.
func RenderTicketCreated(data TicketCreatedData) (string, error) {
	return render(ticketCreatedTmpl, data)
}

// RenderAdminNotify builds the new-ticket alert body.
func RenderAdminNotify(data AdminNotifyData) (string, error) {
	return render(ticketNotifyAdminTmpl, data)
}

// RenderStatusUpdate builds the status change body.
func RenderStatusUpdate(data StatusUpdateData) (string, error) {
	return render(statusUpdateTmpl, data)
}

// RenderAssigned builds the assignment body.
func RenderAssigned(data AssignedData) (string, error) {
	return render(assignedTmpl, data)
}
