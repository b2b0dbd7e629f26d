package model

// Record is one synthesized flat record. A map (rather than per-domain
// structs) because caller-supplied override fields can add arbitrary keys,
// and because the record shape is data, not behaviour; the generators own
// the shapes.
type Record map[string]any

// DomainSource tags how a requested domain was resolved. The fallback path
// (unknown domain → generic shape or default template) is a deliberate,
// named policy, and the tag is carried into batch metadata so callers and
// tests can see which branch produced the data.
type DomainSource string

const (
	DomainKnown    DomainSource = "known"
	DomainFallback DomainSource = "fallback"
)

// BatchMeta describes one generation batch.
type BatchMeta struct {
	Domain       string       `json:"domain"`
	Topic        string       `json:"topic,omitempty"`
	NumSamples   int          `json:"numSamples"`
	GeneratedAt  string       `json:"generatedAt"`
	ModelType    string       `json:"modelType"` // always "placeholder" / "template"
	DomainSource DomainSource `json:"domainSource"`
}

// TabularBatch is the output of one tabular generation call. Columns lists
// the domain's natural field order (override-only keys appended) so the CSV
// encoder can emit a stable column set.
type TabularBatch struct {
	Meta    BatchMeta `json:"meta"`
	Columns []string  `json:"-"`
	Records []Record  `json:"records"`
}

// Message is one turn of a synthesized conversation. Turn is 1-based and
// timestamps increase strictly across a conversation.
type Message struct {
	Role      string `json:"role"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	Turn      int    `json:"turn"`
}

// Conversation is one synthesized chat transcript. NumTurns is the count
// the caller asked for; Messages may be shorter when the domain template
// runs out of scripted turns.
type Conversation struct {
	ConversationID string       `json:"conversation_id"`
	Domain         string       `json:"domain"`
	Topic          string       `json:"topic"`
	NumTurns       int          `json:"num_turns"`
	Messages       []Message    `json:"messages"`
	GeneratedAt    string       `json:"generated_at"`
	ModelType      string       `json:"model_type"`
	DomainSource   DomainSource `json:"domain_source"`
}

// EmailRecord is one synthesized email. There is no turn concept: an email
// domain has a single fixed template, so N requested samples produce N
// structurally identical records differing only by ID and timestamp.
type EmailRecord struct {
	EmailID      string       `json:"email_id"`
	Domain       string       `json:"domain"`
	Topic        string       `json:"topic"`
	EmailType    string       `json:"email_type"`
	Subject      string       `json:"subject"`
	From         string       `json:"from"`
	To           string       `json:"to"`
	Body         string       `json:"body"`
	GeneratedAt  string       `json:"generated_at"`
	ModelType    string       `json:"model_type"`
	DomainSource DomainSource `json:"domain_source"`
}

// EmailColumns is the canonical CSV column order for flattened emails. The
// flatten carries every field, including the fallback tag, so a CSV
// artifact is as self-describing as its JSON counterpart.
var EmailColumns = []string{
	"email_id", "domain", "topic", "email_type",
	"subject", "from", "to", "body", "generated_at",
	"model_type", "domain_source",
}

// ToRecord flattens the email into a Record for CSV encoding.
func (e EmailRecord) ToRecord() Record {
	return Record{
		"email_id":      e.EmailID,
		"domain":        e.Domain,
		"topic":         e.Topic,
		"email_type":    e.EmailType,
		"subject":       e.Subject,
		"from":          e.From,
		"to":            e.To,
		"body":          e.Body,
		"generated_at":  e.GeneratedAt,
		"model_type":    e.ModelType,
		"domain_source": string(e.DomainSource),
	}
}
