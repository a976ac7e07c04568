// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package mailer

import (
	"bytes"
	htmltemplate "html/template"
	texttemplate "text/template"
)

// RSVPNotice is what the invitation owner learns about a new response.
type RSVPNotice struct {
	OwnerName string
	Couple    string
	GuestName string
	Status    string
	Pax       int
	Message   string
	ManageURL string
}

var rsvpText = texttemplate.Must(texttemplate.New("rsvp").Parse(
	`Hi {{.OwnerName}},

{{.GuestName}} responded "{{.Status}}" ({{.Pax}} pax) to {{.Couple}}.
{{if .Message}}
Message: {{.Message}}
{{end}}
Manage your guest list: {{.ManageURL}}
`))

var rsvpHTML = htmltemplate.Must(htmltemplate.New("rsvp").Parse(
	`<p>Hi {{.OwnerName}},</p>
<p><strong>{{.GuestName}}</strong> responded <strong>{{.Status}}</strong> ({{.Pax}} pax) to {{.Couple}}.</p>
{{if .Message}}<blockquote>{{.Message}}</blockquote>{{end}}
<p><a href="{{.ManageURL}}">Manage your guest list</a></p>
`))

// Render returns the subject and the HTML and plain text bodies.
func (n RSVPNotice) Render() (subject, html, text string, err error) {
	var hb, tb bytes.Buffer
	if err := rsvpHTML.Execute(&hb, n); err != nil {
		return "", "", "", err
	}
	if err := rsvpText.Execute(&tb, n); err != nil {
		return "", "", "", err
	}
	return "New RSVP from " + n.GuestName, hb.String(), tb.String(), nil
}
