// Package synth contains the two record-synthesis strategies: tabular
// (per-field random sampling from fixed, domain-specific distributions) and
// conversational (bounded template replay, see chat.go).
//
// Both strategies are PURE with respect to external state: no ledger, no
// filesystem, no network, no model inference. Every batch is placeholder
// data and says so in its metadata (ModelType). Side effects (writing
// files, recording events) belong to the service layer.
//
// CONCURRENCY:
// Generators are constructed once at startup and shared across request
// goroutines (no lazy singletons, no reinitialization races). math/rand's
// *rand.Rand is not safe for concurrent use, so a mutex guards the source.
// Generation is short, CPU-bound, and capped by MaxSamples, so the lock is
// never held long.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/catalog"
	"github.com/sakif/smartsynth/internal/model"
)

// TabularGenerator synthesizes flat records for the tabular domains.
type TabularGenerator struct {
	maxSamples int

	mu  sync.Mutex
	rng *rand.Rand
	now func() time.Time // injectable for tests
}

// NewTabularGenerator creates a generator with a time-seeded random source.
// maxSamples is the per-request ceiling (config, default 1000).
func NewTabularGenerator(maxSamples int) *TabularGenerator {
	return &TabularGenerator{
		maxSamples: maxSamples,
		rng:        rand.New(rand.NewSource(time.Now().UnixNano())),
		now:        time.Now,
	}
}

// NewTabularGeneratorWithSeed creates a deterministic generator for tests.
func NewTabularGeneratorWithSeed(maxSamples int, seed int64) *TabularGenerator {
	g := NewTabularGenerator(maxSamples)
	g.rng = rand.New(rand.NewSource(seed))
	return g
}

// Fixed choice sets, matching the placeholder distributions the platform
// ships with. Changing these changes observable output distributions, so
// they are package-level data, not config.
var (
	ecommerceProducts = []string{"Laptop", "Smartphone", "Headphones", "Tablet", "Camera", "Watch", "Speaker", "Keyboard"}
	ecommerceCats     = []string{"Electronics", "Computers", "Mobile", "Accessories", "Gaming"}
	paymentMethods    = []string{"Credit Card", "PayPal", "Bank Transfer", "Cash on Delivery"}
	orderStatuses     = []string{"Pending", "Shipped", "Delivered", "Cancelled"}

	subjects  = []string{"Mathematics", "Science", "English", "History", "Geography", "Art", "Music", "Physical Education"}
	grades    = []string{"A", "B", "C", "D", "F"}
	semesters = []string{"Fall", "Spring", "Summer"}

	transactionTypes    = []string{"Deposit", "Withdrawal", "Transfer", "Payment", "Investment"}
	accountTypes        = []string{"Savings", "Checking", "Investment", "Credit"}
	transactionStatuses = []string{"Completed", "Pending", "Failed"}

	conditions  = []string{"Hypertension", "Diabetes", "Asthma", "Arthritis", "Heart Disease", "Depression"}
	medications = []string{"Aspirin", "Ibuprofen", "Metformin", "Lisinopril", "Atorvastatin", "Omeprazole"}
	genders     = []string{"Male", "Female"}

	genericStatuses = []string{"Active", "Inactive", "Pending"}
)

// Canonical CSV column order per domain shape.
var (
	ecommerceColumns = []string{"order_id", "customer_id", "product_name", "category", "price", "quantity", "total_amount", "payment_method", "order_date", "shipping_address", "order_status"}
	educationColumns = []string{"student_id", "student_name", "subject", "grade", "score", "attendance_percentage", "semester", "year", "teacher_id", "class_size"}
	financeColumns   = []string{"transaction_id", "account_id", "account_type", "transaction_type", "amount", "balance", "transaction_date", "merchant", "location", "status"}
	medicalColumns   = []string{"patient_id", "patient_name", "age", "gender", "weight_kg", "height_cm", "bmi", "condition", "medication", "visit_date", "doctor_id", "blood_pressure"}
	genericColumns   = []string{"id", "name", "value", "category", "status", "created_date", "description"}
)

// Generate produces n records for the domain.
//
// Validation is a hard gate: a bad count or missing domain fails with a
// validation error BEFORE any record is built, so an oversized request can
// never reach the writer or the ledger. An unregistered domain is NOT an
// error: it takes the explicit fallback branch (generic record shape) and
// the batch metadata says so.
//
// Overrides: caller-supplied key/value pairs are merged into every record
// and win over generated values for the same key. Override-only keys are
// appended to the column set (sorted, for a stable CSV layout).
func (g *TabularGenerator) Generate(domain string, n int, topic string, overrides map[string]any) (*model.TabularBatch, error) {
	domain = strings.ToLower(strings.TrimSpace(domain))
	if domain == "" {
		return nil, apperror.ValidationFailed("domain", "domain is required")
	}
	if n < 1 {
		return nil, apperror.ValidationFailed("num_samples", "num_samples must be at least 1")
	}
	if n > g.maxSamples {
		return nil, apperror.ValidationFailed("num_samples",
			fmt.Sprintf("maximum number of samples allowed is %d", g.maxSamples))
	}

	source := catalog.Resolve(catalog.CategoryTabular, domain)

	g.mu.Lock()
	defer g.mu.Unlock()

	var (
		records []model.Record
		columns []string
	)
	switch domain {
	case "ecommerce":
		records, columns = g.ecommerce(n), ecommerceColumns
	case "education":
		records, columns = g.education(n), educationColumns
	case "finance":
		records, columns = g.finance(n), financeColumns
	case "medical":
		records, columns = g.medical(n), medicalColumns
	default:
		records, columns = g.generic(domain, n), genericColumns
	}

	columns = mergeOverrides(records, columns, overrides)

	return &model.TabularBatch{
		Meta: model.BatchMeta{
			Domain:       domain,
			Topic:        topic,
			NumSamples:   n,
			GeneratedAt:  g.now().Format(time.RFC3339),
			ModelType:    "placeholder",
			DomainSource: source,
		},
		Columns: columns,
		Records: records,
	}, nil
}

// mergeOverrides applies caller overrides to every record (caller wins) and
// extends the column set with any keys the natural shape doesn't have.
func mergeOverrides(records []model.Record, columns []string, overrides map[string]any) []string {
	if len(overrides) == 0 {
		return columns
	}

	known := make(map[string]bool, len(columns))
	for _, c := range columns {
		known[c] = true
	}
	extra := make([]string, 0, len(overrides))
	for k := range overrides {
		if !known[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)

	for _, rec := range records {
		for k, v := range overrides {
			rec[k] = v
		}
	}
	return append(append([]string{}, columns...), extra...)
}

func (g *TabularGenerator) ecommerce(n int) []model.Record {
	records := make([]model.Record, 0, n)
	datePrefix := g.now().Format("20060102")

	for i := 0; i < n; i++ {
		price := g.uniform(50, 2000, 2)
		quantity := 1 + g.rng.Intn(9)

		records = append(records, model.Record{
			// Sequence-based: unique within one generation call.
			"order_id": fmt.Sprintf("ORD-%s-%04d", datePrefix, i+1),
			// Random-int based: cosmetic, NOT guaranteed unique.
			"customer_id":      fmt.Sprintf("CUST-%d", 1000+g.rng.Intn(9000)),
			"product_name":     g.choice(ecommerceProducts),
			"category":         g.choice(ecommerceCats),
			"price":            price,
			"quantity":         quantity,
			"total_amount":     round(price*float64(quantity), 2),
			"payment_method":   g.choice(paymentMethods),
			"order_date":       g.pastDate(),
			"shipping_address": fmt.Sprintf("Address %d", 1+g.rng.Intn(999)),
			"order_status":     g.choice(orderStatuses),
		})
	}
	return records
}

func (g *TabularGenerator) education(n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			"student_id":            fmt.Sprintf("STU-%d", 1000+g.rng.Intn(9000)),
			"student_name":          fmt.Sprintf("Student %d", i+1),
			"subject":               g.choice(subjects),
			"grade":                 g.choice(grades),
			"score":                 g.rng.Intn(101),
			"attendance_percentage": 60 + g.rng.Intn(41),
			"semester":              g.choice(semesters),
			"year":                  2020 + g.rng.Intn(5),
			"teacher_id":            fmt.Sprintf("TCH-%d", 100+g.rng.Intn(900)),
			"class_size":            15 + g.rng.Intn(20),
		})
	}
	return records
}

func (g *TabularGenerator) finance(n int) []model.Record {
	records := make([]model.Record, 0, n)
	datePrefix := g.now().Format("20060102")

	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			"transaction_id":   fmt.Sprintf("TXN-%s-%04d", datePrefix, i+1),
			"account_id":       fmt.Sprintf("ACC-%d", 10000+g.rng.Intn(90000)),
			"account_type":     g.choice(accountTypes),
			"transaction_type": g.choice(transactionTypes),
			"amount":           g.uniform(10, 10000, 2),
			"balance":          g.uniform(1000, 50000, 2),
			"transaction_date": g.pastDate(),
			"merchant":         fmt.Sprintf("Merchant %d", 1+g.rng.Intn(99)),
			"location":         fmt.Sprintf("City %d", 1+g.rng.Intn(49)),
			"status":           g.choice(transactionStatuses),
		})
	}
	return records
}

func (g *TabularGenerator) medical(n int) []model.Record {
	records := make([]model.Record, 0, n)
	for i := 0; i < n; i++ {
		weight := g.uniform(50, 120, 1)
		height := g.uniform(150, 200, 1)

		records = append(records, model.Record{
			"patient_id":   fmt.Sprintf("PAT-%d", 10000+g.rng.Intn(90000)),
			"patient_name": fmt.Sprintf("Patient %d", i+1),
			"age":          18 + g.rng.Intn(67),
			"gender":       g.choice(genders),
			"weight_kg":    weight,
			"height_cm":    height,
			// Derived field: BMI from the drawn weight and height.
			"bmi":            round(weight/math.Pow(height/100, 2), 1),
			"condition":      g.choice(conditions),
			"medication":     g.choice(medications),
			"visit_date":     g.pastDate(),
			"doctor_id":      fmt.Sprintf("DOC-%d", 100+g.rng.Intn(900)),
			"blood_pressure": fmt.Sprintf("%d/%d", 110+g.rng.Intn(30), 70+g.rng.Intn(20)),
		})
	}
	return records
}

// generic is the fallback shape for domains with no registered model.
func (g *TabularGenerator) generic(domain string, n int) []model.Record {
	records := make([]model.Record, 0, n)
	title := strings.ToUpper(domain[:1]) + domain[1:]

	for i := 0; i < n; i++ {
		records = append(records, model.Record{
			"id":           fmt.Sprintf("%s-%04d", strings.ToUpper(domain), i+1),
			"name":         fmt.Sprintf("%s Item %d", title, i+1),
			"value":        g.uniform(1, 1000, 2),
			"category":     fmt.Sprintf("Category %d", 1+g.rng.Intn(9)),
			"status":       g.choice(genericStatuses),
			"created_date": g.pastDate(),
			"description":  fmt.Sprintf("Description for %s item %d", domain, i+1),
		})
	}
	return records
}

// --- sampling helpers ---

func (g *TabularGenerator) choice(options []string) string {
	return options[g.rng.Intn(len(options))]
}

// uniform draws from [lo, hi) and rounds to dp decimal places
// (2 for currency-like fields, 1 for measurements).
func (g *TabularGenerator) uniform(lo, hi float64, dp int) float64 {
	return round(lo+g.rng.Float64()*(hi-lo), dp)
}

// pastDate returns a date within the last year, formatted YYYY-MM-DD.
func (g *TabularGenerator) pastDate() string {
	days := g.rng.Intn(365)
	return g.now().AddDate(0, 0, -days).Format("2006-01-02")
}

func round(x float64, dp int) float64 {
	scale := math.Pow10(dp)
	return math.Round(x*scale) / scale
}
