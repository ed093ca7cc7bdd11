package actions

import "strings"

type Kind string

const (
	KindEmail         Kind = "EMAIL"
	KindTask          Kind = "TASK"
	KindProfileSwitch Kind = "PROFILE_SWITCH"
	KindUploadRequest Kind = "UPLOAD_REQUEST"
	KindQuery         Kind = "QUERY"
)

// Action is one directive found in model output. The set of
// implementations is closed.
type Action interface {
	Kind() Kind
	sealed()
}

type Email struct {
	To      []string
	Cc      []string
	Subject string
	Body    string
}

type Task struct {
	Title    string
	Due      string
	Priority string
	Notes    string
}

type ProfileSwitch struct {
	Profile string
	Reason  string
}

type UploadRequest struct {
	Reason    string
	FileTypes []string
}

type Query struct {
	Text string
}

func (Email) Kind() Kind         { return KindEmail }
func (Task) Kind() Kind          { return KindTask }
func (ProfileSwitch) Kind() Kind { return KindProfileSwitch }
func (UploadRequest) Kind() Kind { return KindUploadRequest }
func (Query) Kind() Kind         { return KindQuery }

func (Email) sealed()         {}
func (Task) sealed()          {}
func (ProfileSwitch) sealed() {}
func (UploadRequest) sealed() {}
func (Query) sealed()         {}

// fieldAliases maps accepted keys (lowercase, French or English) to the
// canonical field name of each directive.
var fieldAliases = map[Kind]map[string]string{
	KindEmail: {
		"to": "to", "à": "to", "a": "to", "destinataire": "to", "destinataires": "to",
		"cc": "cc",
		"subject": "subject", "objet": "subject", "sujet": "subject",
		"body": "body", "corps": "body", "message": "body", "contenu": "body",
	},
	KindTask: {
		"title": "title", "titre": "title", "task": "title", "tâche": "title",
		"due": "due", "deadline": "due", "échéance": "due", "date": "due",
		"priority": "priority", "priorité": "priority",
		"notes": "notes", "note": "notes", "description": "notes",
	},
	KindProfileSwitch: {
		"profile": "profile", "profil": "profile", "agent": "profile",
		"reason": "reason", "raison": "reason",
	},
	KindUploadRequest: {
		"reason": "reason", "raison": "reason",
		"types": "types", "formats": "types", "file_types": "types",
	},
	KindQuery: {
		"query": "text", "text": "text", "requête": "text", "question": "text",
	},
}

// defaultField receives body lines that appear before any key.
var defaultField = map[Kind]string{
	KindEmail:         "body",
	KindTask:          "title",
	KindProfileSwitch: "profile",
	KindUploadRequest: "reason",
	KindQuery:         "text",
}

func build(kind Kind, fields map[string]string) (Action, bool) {
	switch kind {
	case KindEmail:
		e := Email{
			To:      splitList(fields["to"]),
			Cc:      splitList(fields["cc"]),
			Subject: fields["subject"],
			Body:    fields["body"],
		}
		return e, e.Subject != "" || e.Body != ""
	case KindTask:
		t := Task{Title: fields["title"], Due: fields["due"], Priority: fields["priority"], Notes: fields["notes"]}
		return t, t.Title != ""
	case KindProfileSwitch:
		p := ProfileSwitch{Profile: fields["profile"], Reason: fields["reason"]}
		return p, p.Profile != ""
	case KindUploadRequest:
		return UploadRequest{Reason: fields["reason"], FileTypes: splitList(fields["types"])}, true
	case KindQuery:
		q := Query{Text: fields["text"]}
		return q, q.Text != ""
	}
	return nil, false
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ';' })
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
