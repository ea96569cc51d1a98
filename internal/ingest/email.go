package ingest

import (
	"bytes"
	"strings"

	"github.com/jhillyerd/enmime"

	"omnigrade/internal"
)

type Attachment struct {
	Name        string
	ContentType string
	Content     []byte
}

type Envelope struct {
	Subject string
	From    string
	Text    string
	HTML    string
	Parts   []Attachment
}

// Kind trusts the file name first, then the declared content type.
func (a Attachment) Kind() (internal.SourceKind, error) {
	if kind, err := DetectKind(a.Name, a.Content); err == nil {
		return kind, nil
	}
	return kindFromContentType(a.ContentType)
}

// ReadEmail parses a raw message and lists its attachments and inline parts
// in message order.
func ReadEmail(raw []byte) (Envelope, error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return Envelope{}, err
	}

	out := Envelope{
		Subject: env.GetHeader("Subject"),
		From:    env.GetHeader("From"),
		Text:    env.Text,
		HTML:    env.HTML,
	}
	for _, group := range [][]*enmime.Part{env.Inlines, env.Attachments} {
		for _, part := range group {
			name := strings.TrimSpace(part.FileName)
			if name == "" {
				name = "attachment"
			}
			out.Parts = append(out.Parts, Attachment{Name: name, ContentType: part.ContentType, Content: part.Content})
		}
	}
	return out, nil
}

// Sources returns the parts of a message worth parsing: every attachment of a
// supported kind, and the body when no attachment qualifies.
func (e Envelope) Sources() []Attachment {
	var out []Attachment
	for _, part := range e.Parts {
		if _, err := part.Kind(); err != nil {
			continue
		}
		out = append(out, part)
	}
	if len(out) > 0 {
		return out
	}
	if strings.TrimSpace(e.HTML) != "" {
		return []Attachment{{Name: "body.html", ContentType: "text/html", Content: []byte(e.HTML)}}
	}
	if strings.TrimSpace(e.Text) != "" {
		return []Attachment{{Name: "body.txt", ContentType: "text/plain", Content: []byte(e.Text)}}
	}
	return nil
}
