package synth

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/catalog"
	"github.com/sakif/smartsynth/internal/model"
)

// DefaultTurns is used when a conversation request doesn't say how many
// turns it wants.
const DefaultTurns = 5

// templateTurn is one scripted role/text pair in a conversation template.
type templateTurn struct {
	role string
	text string
}

// Conversation templates per chat domain. A conversation NEVER exceeds its
// template's natural length: requesting more turns than the template has
// silently truncates to the template length. That is a documented
// limitation of template replay, not a bug: there is no model to invent
// additional turns.
var conversationTemplates = map[string][]templateTurn{
	"customer_support": {
		{"customer", "Hi, I'm having trouble with my order #12345"},
		{"agent", "Hello! I'd be happy to help you with your order. Can you provide more details about the issue?"},
		{"customer", "I ordered a laptop but received a different model than what I ordered"},
		{"agent", "I apologize for the inconvenience. Let me check your order details and help you resolve this."},
		{"customer", "Thank you, I appreciate your help"},
		{"agent", "You're welcome! I'll process a replacement order for you right away."},
	},
	"chatbot_training": {
		{"user", "What's the weather like today?"},
		{"bot", "I can help you check the weather. What city are you in?"},
		{"user", "I'm in New York"},
		{"bot", "The weather in New York is currently 72°F with partly cloudy skies."},
		{"user", "Will it rain later?"},
		{"bot", "There's a 30% chance of rain this afternoon in New York."},
	},
	"spam_detection": {
		{"sender", "URGENT: You've won $1,000,000! Click here to claim now!"},
		{"recipient", "This looks like spam"},
		{"sender", "Limited time offer! Don't miss out on this amazing opportunity!"},
		{"recipient", "I'm not interested, please stop contacting me"},
		{"sender", "Last chance! Claim your prize before it expires!"},
		{"recipient", "This is definitely spam, I'm blocking this sender"},
	},
	"business_communication": {
		{"sender", "Hi John, I wanted to discuss the Q4 project timeline"},
		{"recipient", "Hi Sarah, sure! What specific aspects would you like to review?"},
		{"sender", "I'm concerned about meeting the December deadline"},
		{"recipient", "I understand your concern. Let's schedule a meeting to review the current progress"},
		{"sender", "That would be great. How about tomorrow at 2 PM?"},
		{"recipient", "Perfect! I'll send you a calendar invite for tomorrow at 2 PM"},
	},
}

// fallbackConversation is the default template replayed for unknown chat
// domains.
const fallbackConversation = "customer_support"

// emailTemplate is the single fixed email shape for a domain.
type emailTemplate struct {
	subject string
	from    string
	to      string
	body    string
}

var emailTemplates = map[string]emailTemplate{
	"spam_detection": {
		subject: "URGENT: You've won $1,000,000!",
		from:    "winner@lottery.com",
		to:      "user@example.com",
		body:    "Congratulations! You have been selected to receive $1,000,000. Click here to claim your prize now! Limited time offer!",
	},
	"business_communication": {
		subject: "Q4 Project Update",
		from:    "sarah.manager@company.com",
		to:      "john.employee@company.com",
		body:    "Hi John,\n\nI wanted to discuss the Q4 project timeline and address some concerns about meeting our December deadline.\n\nBest regards,\nSarah",
	},
}

const fallbackEmail = "business_communication"

// ChatGenerator synthesizes conversations and emails by template replay.
// It holds no mutable state, so it is safe for concurrent use as-is.
type ChatGenerator struct {
	maxSamples int
	now        func() time.Time
}

// NewChatGenerator creates a generator with the given per-request sample
// ceiling.
func NewChatGenerator(maxSamples int) *ChatGenerator {
	return &ChatGenerator{maxSamples: maxSamples, now: time.Now}
}

// Conversations generates numSamples transcripts for the domain.
//
// Each transcript replays the domain's template, truncated to
// min(numTurns, template length). NumTurns on the output records the
// REQUESTED count even when the template caps the messages; truncation
// shows as len(Messages) < NumTurns. Message turn indices are 1-based and
// timestamps increase strictly within a conversation. Unknown domains take
// the fallback branch (customer_support template, tagged in the output).
func (g *ChatGenerator) Conversations(domain, topic string, numSamples, numTurns int) ([]model.Conversation, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, apperror.ValidationFailed("domain", "domain is required")
	}
	if err := g.checkSamples(numSamples); err != nil {
		return nil, err
	}
	if numTurns < 1 {
		numTurns = DefaultTurns
	}

	source := catalog.Resolve(catalog.CategoryChat, domain)
	template := conversationTemplates[domain]
	if source == model.DomainFallback {
		template = conversationTemplates[fallbackConversation]
	}

	turns := numTurns
	if turns > len(template) {
		turns = len(template)
	}

	convs := make([]model.Conversation, 0, numSamples)
	for s := 0; s < numSamples; s++ {
		now := g.now()
		messages := make([]model.Message, 0, turns)
		for i := 0; i < turns; i++ {
			messages = append(messages, model.Message{
				Role:    template[i].role,
				Message: template[i].text,
				// One synthetic minute per turn, counting up to "now".
				Timestamp: now.Add(-time.Duration(turns-i) * time.Minute).Format(time.RFC3339),
				Turn:      i + 1,
			})
		}

		convs = append(convs, model.Conversation{
			ConversationID: fmt.Sprintf("conv_%s_%s", domain, xid.New().String()),
			Domain:         domain,
			Topic:          defaultTopic(topic),
			NumTurns:       numTurns,
			Messages:       messages,
			GeneratedAt:    now.Format(time.RFC3339),
			ModelType:      "template",
			DomainSource:   source,
		})
	}
	return convs, nil
}

// Emails generates numSamples email records for the domain.
//
// An email domain has exactly one fixed template and no turn concept, so N
// samples are N structurally identical records differing only by ID and
// timestamp. That is the intended behaviour and callers rely on it.
func (g *ChatGenerator) Emails(domain, topic, emailType string, numSamples int) ([]model.EmailRecord, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, apperror.ValidationFailed("domain", "domain is required")
	}
	if err := g.checkSamples(numSamples); err != nil {
		return nil, err
	}
	if emailType == "" {
		emailType = "business"
	}

	source := catalog.Resolve(catalog.CategoryEmail, domain)
	template, ok := emailTemplates[domain]
	if !ok {
		template = emailTemplates[fallbackEmail]
	}

	emails := make([]model.EmailRecord, 0, numSamples)
	for s := 0; s < numSamples; s++ {
		emails = append(emails, model.EmailRecord{
			EmailID:      fmt.Sprintf("email_%s_%s", domain, xid.New().String()),
			Domain:       domain,
			Topic:        defaultTopic(topic),
			EmailType:    emailType,
			Subject:      template.subject,
			From:         template.from,
			To:           template.to,
			Body:         template.body,
			GeneratedAt:  g.now().Format(time.RFC3339),
			ModelType:    "template",
			DomainSource: source,
		})
	}
	return emails, nil
}

func (g *ChatGenerator) checkSamples(n int) error {
	if n < 1 {
		return apperror.ValidationFailed("num_samples", "num_samples must be at least 1")
	}
	if n > g.maxSamples {
		return apperror.ValidationFailed("num_samples",
			fmt.Sprintf("maximum number of samples allowed is %d", g.maxSamples))
	}
	return nil
}

func defaultTopic(topic string) string {
	if strings.TrimSpace(topic) == "" {
		return "general"
	}
	return topic
}
