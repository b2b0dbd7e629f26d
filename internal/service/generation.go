package service

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/sakif/smartsynth/internal/apperror"
	"github.com/sakif/smartsynth/internal/catalog"
	"github.com/sakif/smartsynth/internal/middleware"
	"github.com/sakif/smartsynth/internal/model"
	"github.com/sakif/smartsynth/internal/repository"
	"github.com/sakif/smartsynth/internal/storage"
	"github.com/sakif/smartsynth/internal/synth"
)

// GenerationService orchestrates one generation request end to end:
// synthesize records, persist the artifact, record the ledger entry, and
// append the audit event. Synthesis is pure; everything with a side effect
// runs only after the generators have accepted the parameters.
type GenerationService struct {
	tabular *synth.TabularGenerator
	chat    *synth.ChatGenerator
	writer  *storage.Writer
	files   repository.FileRepository
	events  repository.GenerationRepository
	logger  *slog.Logger
}

func NewGenerationService(
	tabular *synth.TabularGenerator,
	chat *synth.ChatGenerator,
	writer *storage.Writer,
	files repository.FileRepository,
	events repository.GenerationRepository,
	logger *slog.Logger,
) *GenerationService {
	return &GenerationService{
		tabular: tabular,
		chat:    chat,
		writer:  writer,
		files:   files,
		events:  events,
		logger:  logger,
	}
}

// TabularParams are the caller-supplied knobs for a tabular generation.
type TabularParams struct {
	Domain     string         `json:"domain"`
	Topic      string         `json:"topic"`
	NumSamples int            `json:"num_samples"`
	Format     string         `json:"format"`
	Overrides  map[string]any `json:"custom_fields"`
}

// ChatParams are the knobs for a conversation generation. NumTurns 0 means
// the default turn count.
type ChatParams struct {
	Domain     string `json:"domain"`
	Topic      string `json:"topic"`
	NumSamples int    `json:"num_samples"`
	NumTurns   int    `json:"num_turns"`
	Format     string `json:"format"`
}

// EmailParams are the knobs for an email generation.
type EmailParams struct {
	Domain     string `json:"domain"`
	Topic      string `json:"topic"`
	EmailType  string `json:"email_type"`
	NumSamples int    `json:"num_samples"`
	Format     string `json:"format"`
}

// Domains lists the known domain keys per category. Unknown domains are
// still accepted by the generators (they fall back and say so in the batch
// metadata); this listing is what clients show in pickers.
func (s *GenerationService) Domains() map[string][]string {
	return map[string][]string{
		model.DataTypeTabular: catalog.ListDomains(catalog.CategoryTabular),
		model.DataTypeChat:    catalog.ListDomains(catalog.CategoryChat),
		model.DataTypeEmail:   catalog.ListDomains(catalog.CategoryEmail),
	}
}

// DescribeDomain returns the catalog entry for one domain key.
func (s *GenerationService) DescribeDomain(key string) (catalog.Info, error) {
	return catalog.Describe(key)
}

// Tabular generates a tabular dataset and persists it for userID.
func (s *GenerationService) Tabular(ctx context.Context, userID string, p TabularParams) (*model.GeneratedFile, error) {
	format, err := normalizeFormat(p.Format)
	if err != nil {
		return nil, err
	}

	batch, err := s.tabular.Generate(p.Domain, p.NumSamples, p.Topic, p.Overrides)
	if err != nil {
		return nil, err
	}

	logical := fmt.Sprintf("tabular_%s_%dsamples", batch.Meta.Domain, p.NumSamples)
	path, size, err := s.writer.WriteTabular(batch, logical, format, userID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, userID, path, format, model.DataTypeTabular, batch.Meta.ModelType,
		batch.Meta.Domain, batch.Meta.Topic, p.NumSamples, size, len(batch.Records))
}

// Chat generates conversation transcripts and persists them for userID.
func (s *GenerationService) Chat(ctx context.Context, userID string, p ChatParams) (*model.GeneratedFile, error) {
	format, err := normalizeFormat(p.Format)
	if err != nil {
		return nil, err
	}

	convs, err := s.chat.Conversations(p.Domain, p.Topic, p.NumSamples, p.NumTurns)
	if err != nil {
		return nil, err
	}
	domain := convs[0].Domain
	topic := convs[0].Topic

	logical := fmt.Sprintf("chat_%s_%s_%dsamples", domain, slugify(topic), p.NumSamples)
	path, size, err := s.writer.WriteConversations(convs, logical, format, userID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, userID, path, format, model.DataTypeChat, convs[0].ModelType,
		domain, topic, p.NumSamples, size, len(convs))
}

// Email generates email records and persists them for userID.
func (s *GenerationService) Email(ctx context.Context, userID string, p EmailParams) (*model.GeneratedFile, error) {
	format, err := normalizeFormat(p.Format)
	if err != nil {
		return nil, err
	}

	emails, err := s.chat.Emails(p.Domain, p.Topic, p.EmailType, p.NumSamples)
	if err != nil {
		return nil, err
	}
	domain := emails[0].Domain
	topic := emails[0].Topic

	logical := fmt.Sprintf("email_%s_%s_%dsamples", domain, slugify(topic), p.NumSamples)
	path, size, err := s.writer.WriteEmails(emails, logical, format, userID)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, userID, path, format, model.DataTypeEmail, emails[0].ModelType,
		domain, topic, p.NumSamples, size, len(emails))
}

// record writes the ledger entry and the audit event for a persisted
// artifact. The backing file already exists at path; from here on a failure
// surfaces to the caller rather than being rolled back, since the audit log
// is append-only and the file is harmless without a ledger row.
func (s *GenerationService) record(
	ctx context.Context, userID, path, format, dataType, modelType, domain, topic string,
	numSamples int, size int64, produced int,
) (*model.GeneratedFile, error) {
	file := &model.GeneratedFile{
		UserID:     userID,
		Filename:   artifactName(path),
		FilePath:   path,
		FileType:   format,
		DataType:   dataType,
		ModelType:  modelType,
		NumSamples: numSamples,
		FileSize:   size,
	}
	if err := s.files.CreateFile(ctx, file); err != nil {
		return nil, err
	}

	event := &model.GenerationEvent{
		UserID:         userID,
		GenerationType: dataType,
		Domain:         domain,
		Topic:          topic,
		NumSamples:     numSamples,
		Status:         model.StatusCompleted,
	}
	if err := s.events.CreateEvent(ctx, event); err != nil {
		return nil, err
	}

	middleware.GenerationsTotal.WithLabelValues(dataType, domain).Inc()
	middleware.RecordsGenerated.WithLabelValues(dataType).Add(float64(produced))

	s.logger.Info("generation completed",
		slog.String("user_id", userID),
		slog.String("data_type", dataType),
		slog.String("domain", domain),
		slog.Int("num_samples", numSamples),
		slog.String("file_id", file.ID),
		slog.Int64("file_size", size),
	)
	return file, nil
}

// normalizeFormat defaults to JSON and rejects anything but the two
// supported encodings before any record is synthesized.
func normalizeFormat(format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return model.EncodingJSON, nil
	}
	if format != model.EncodingJSON && format != model.EncodingCSV {
		return "", apperror.ValidationFailed("format", "format must be 'json' or 'csv'")
	}
	return format, nil
}

// artifactName is the ledger-visible filename: the physical base name
// without its extension (DownloadName adds it back).
func artifactName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// slugify makes a topic safe for use inside a filename.
func slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			return r
		default:
			return '_'
		}
	}, s)
}
