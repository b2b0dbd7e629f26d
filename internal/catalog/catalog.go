// Package catalog is the static registry of generation domains.
//
// Domains are enumerated at compile time, NOT discovered from trained model
// artifacts on disk. This decouples "is a domain nameable" from "is a
// trained model present": a request for a nameable domain with no backing
// model degrades gracefully to synthesized placeholder data instead of
// failing. Registrations are read-only at runtime, so the catalog is safe
// to share across concurrent requests without locking.
package catalog

import (
	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/model"
)

// Domain categories.
const (
	CategoryTabular = "tabular"
	CategoryChat    = "chat"
	CategoryEmail   = "email"
)

// Info is the descriptive metadata registered for one domain.
type Info struct {
	Key           string   `json:"key"`
	Category      string   `json:"category"`
	Description   string   `json:"description"`
	ExampleTopics []string `json:"exampleTopics"`
}

// registration order matters: ListDomains returns keys in this order.
var domains = []Info{
	{
		Key:         "ecommerce",
		Category:    CategoryTabular,
		Description: "Product data, customer transactions, inventory",
		ExampleTopics: []string{
			"Order histories", "Product catalogs", "Payment records",
		},
	},
	{
		Key:         "education",
		Category:    CategoryTabular,
		Description: "Student records, course data, academic performance",
		ExampleTopics: []string{
			"Grade reports", "Attendance records", "Class rosters",
		},
	},
	{
		Key:         "finance",
		Category:    CategoryTabular,
		Description: "Financial transactions, market data, customer profiles",
		ExampleTopics: []string{
			"Account transactions", "Balance histories", "Merchant payments",
		},
	},
	{
		Key:         "medical",
		Category:    CategoryTabular,
		Description: "Patient records, medical procedures, healthcare data",
		ExampleTopics: []string{
			"Patient visits", "Vital signs", "Prescriptions",
		},
	},
	{
		Key:         "customer_support",
		Category:    CategoryChat,
		Description: "Customer support conversations between customers and support agents",
		ExampleTopics: []string{
			"Product inquiry and troubleshooting",
			"Order status and tracking",
			"Refund and return requests",
			"Technical support issues",
			"Account management questions",
		},
	},
	{
		Key:         "chatbot_training",
		Category:    CategoryChat,
		Description: "Conversations for training AI chatbots",
		ExampleTopics: []string{
			"FAQ interactions",
			"Intent recognition scenarios",
			"Multi-turn conversations",
			"Error handling dialogues",
			"Task completion flows",
		},
	},
	{
		Key:         "spam_detection",
		Category:    CategoryEmail,
		Description: "Email samples for spam detection training",
		ExampleTopics: []string{
			"Phishing attempts",
			"Marketing spam",
			"Scam emails",
			"Legitimate business emails",
			"Newsletter subscriptions",
		},
	},
	{
		Key:         "business_communication",
		Category:    CategoryEmail,
		Description: "Professional business email communications",
		ExampleTopics: []string{
			"Client proposals",
			"Internal team communications",
			"Meeting scheduling",
			"Project updates",
			"Contract negotiations",
		},
	},
}

// byKey is built once at init from the registration list.
var byKey = func() map[string]Info {
	m := make(map[string]Info, len(domains))
	for _, d := range domains {
		m[d.Key] = d
	}
	return m
}()

// ListDomains returns the registered domain keys for a category, in
// registration order. Unknown categories return an empty slice.
func ListDomains(category string) []string {
	keys := make([]string, 0, len(domains))
	for _, d := range domains {
		if d.Category == category {
			keys = append(keys, d.Key)
		}
	}
	return keys
}

// Describe returns the metadata for a domain key, or a validation error
// when the key is not registered in any category.
func Describe(key string) (Info, error) {
	info, ok := byKey[key]
	if !ok {
		return Info{}, apperror.ValidationFailed("domain", "unknown domain: "+key)
	}
	return info, nil
}

// Resolve reports whether a domain is registered under the given category.
// A miss is NOT an error here: the generators treat it as the explicit
// fallback branch (generic record shape / default template) and tag the
// output with model.DomainFallback so the policy stays visible downstream.
func Resolve(category, key string) model.DomainSource {
	info, ok := byKey[key]
	if !ok || info.Category != category {
		return model.DomainFallback
	}
	return model.DomainKnown
}
