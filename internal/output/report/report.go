// Package report assembles outage notifications and decides whether they
// still need to be dispatched.
//
// Three paths share the message history ledger as their dedup oracle:
//
//   - the aggregated emergency report, reposted fresh whenever its grouped
//     content changes within the report date
//   - one-shot planned-outage chunks, each published at most once ever
//   - translated feed announcements, published once per source item
package report

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/hovq/outage-informer/internal/fingerprint"
	"github.com/hovq/outage-informer/internal/platform/clock"
	"github.com/hovq/outage-informer/internal/platform/observability"
	"github.com/hovq/outage-informer/internal/process/reconcile"
	db "github.com/hovq/outage-informer/internal/storage"
)

const (
	emergencyHeader = "Аварийные отключения электричества"
	updatedPrefix   = "Обновлено"

	dateLayout    = "02.01.2006"
	timeLayout    = "15:04"
	groupLayout   = "2006-01-02"
	updatedLayout = "15:04 02.01.2006"

	kindEmergency  = "emergency"
	kindPlanned    = "planned"
	kindTranslated = "translated"
)

// Repository is the durable state the synthesizer reads and writes.
type Repository interface {
	HasMessage(ctx context.Context, source, hash string) (bool, error)
	InsertMessage(ctx context.Context, entry db.MessageEntry) error
	LatestGroupMessage(ctx context.Context, source, group string) (*db.MessageEntry, error)
	ListEmergencies(ctx context.Context, source string, since time.Time) ([]db.EmergencyRecord, error)
	MarkEmergencyNotified(ctx context.Context, id string, msgID int64, phase db.NotifyPhase) error
}

// Dispatcher sends a notification, or edits an existing one when
// existingID is non-zero, returning the message id.
type Dispatcher interface {
	Dispatch(ctx context.Context, html string, existingID int64) (int64, error)
}

// Translator converts text into the target language.
type Translator interface {
	Translate(ctx context.Context, text, targetLang string) (string, error)
}

// Announcement is one feed item of the translated-outage path.
type Announcement struct {
	Hash  string
	Title string
	Body  string
}

type Reporter struct {
	repo       Repository
	dispatcher Dispatcher
	translator Translator
	lookback   time.Duration
	targetLang string
	loc        *time.Location
	logger     *zerolog.Logger
}

// New builds a Reporter. loc is the source's timezone: report times, the
// header date and the daily message group all follow it, not the host zone.
func New(repo Repository, dispatcher Dispatcher, translator Translator, lookback time.Duration, targetLang string, loc *time.Location, logger *zerolog.Logger) *Reporter {
	if loc == nil {
		loc = time.Local
	}

	return &Reporter{
		repo:       repo,
		dispatcher: dispatcher,
		translator: translator,
		lookback:   lookback,
		targetLang: targetLang,
		loc:        loc,
		logger:     logger,
	}
}

// ReportEmergencies builds the aggregated emergency report for the lookback
// window and dispatches it when its content changed since the last report of
// the day. The summary is always reposted as a new message, never edited;
// individual records track their own started/finished notification ids.
func (r *Reporter) ReportEmergencies(ctx context.Context, source string) error {
	now := clock.Now().In(r.loc)

	records, err := r.repo.ListEmergencies(ctx, source, now.Add(-r.lookback))
	if err != nil {
		return fmt.Errorf("list emergencies: %w", err)
	}

	if len(records) == 0 {
		return nil
	}

	body := renderReport(records, now, r.loc)
	hash := fingerprint.New(body)
	group := now.Format(groupLayout)

	last, err := r.repo.LatestGroupMessage(ctx, source, group)
	if err != nil {
		return fmt.Errorf("load last report: %w", err)
	}

	if last != nil && last.Hash == hash {
		r.logger.Debug().Str("source", source).Str("hash", hash).Msg("emergency report unchanged, skipping")
		observability.MessagesSkipped.WithLabelValues(source, kindEmergency).Inc()

		// A mark that failed on the publishing pass is retried here; the
		// NULL guard makes the repeat a no-op for records already stamped.
		r.markNotified(ctx, records, last.TGMessageID)

		return nil
	}

	full := body + "\n\n" + updatedPrefix + " " + now.Format(updatedLayout)

	msgID, err := r.dispatcher.Dispatch(ctx, full, 0)
	if err != nil {
		return fmt.Errorf("dispatch emergency report: %w", err)
	}

	if err := r.repo.InsertMessage(ctx, db.MessageEntry{
		Source:       source,
		Hash:         hash,
		Body:         full,
		MessageGroup: group,
		TGMessageID:  msgID,
	}); err != nil {
		return fmt.Errorf("record emergency report: %w", err)
	}

	observability.MessagesDispatched.WithLabelValues(source, kindEmergency).Inc()
	r.logger.Info().Str("source", source).Str("hash", hash).Int64("msg_id", msgID).Msg("emergency report published")

	r.markNotified(ctx, records, msgID)

	return nil
}

// markNotified stamps the dispatched message id onto every included record
// whose corresponding phase id is still unset. Failures are logged, not
// fatal: the mark is idempotent and retried with the next report.
func (r *Reporter) markNotified(ctx context.Context, records []db.EmergencyRecord, msgID int64) {
	for _, rec := range records {
		if rec.StartedMsgID == 0 {
			if err := r.repo.MarkEmergencyNotified(ctx, rec.ID, msgID, db.PhaseStarted); err != nil {
				r.logger.Error().Err(err).Str("id", rec.ID).Msg("mark started notification failed")
			}
		}

		if rec.FinishedTime != nil && rec.FinishedMsgID == 0 {
			if err := r.repo.MarkEmergencyNotified(ctx, rec.ID, msgID, db.PhaseFinished); err != nil {
				r.logger.Error().Err(err).Str("id", rec.ID).Msg("mark finished notification failed")
			}
		}
	}
}

// renderReport formats the header and the grouped emergency lines. The
// trailing "updated at" stamp is excluded on purpose: it changes every pass
// and must not defeat the content fingerprint.
func renderReport(records []db.EmergencyRecord, now time.Time, loc *time.Location) string {
	lines := make([]reconcile.Line, len(records))
	for i, rec := range records {
		lines[i] = formatLine(rec, loc)
	}

	groups := reconcile.GroupLines(lines)

	var sb strings.Builder

	sb.WriteString(emergencyHeader)
	sb.WriteString(" <b>")
	sb.WriteString(now.Format(dateLayout))
	sb.WriteString("</b>\n\n")
	sb.WriteString(strings.Join(reconcile.RenderGroups(groups), "\n"))

	return sb.String()
}

// formatLine renders one record as "HH:MM[..HH:MM] <title>"; the range form
// marks a resolved outage. The title is scraped plain text and is escaped
// here, where the line becomes HTML.
func formatLine(rec db.EmergencyRecord, loc *time.Location) reconcile.Line {
	var sb strings.Builder

	sb.WriteString(rec.StartedTime.In(loc).Format(timeLayout))

	if rec.FinishedTime != nil {
		sb.WriteString("..")
		sb.WriteString(rec.FinishedTime.In(loc).Format(timeLayout))
	}

	sb.WriteString(" ")
	sb.WriteString(html.EscapeString(rec.Title))

	return reconcile.Line{Text: sb.String(), Resolved: rec.FinishedTime != nil}
}

// ReportPlanned publishes each planned-outage chunk at most once, keyed by
// content fingerprint.
func (r *Reporter) ReportPlanned(ctx context.Context, source string, chunks []string) error {
	for _, chunk := range chunks {
		hash := fingerprint.New(chunk)

		seen, err := r.repo.HasMessage(ctx, source, hash)
		if err != nil {
			return fmt.Errorf("check planned outage: %w", err)
		}

		if seen {
			r.logger.Debug().Str("source", source).Str("hash", hash).Msg("planned outage already published")
			observability.MessagesSkipped.WithLabelValues(source, kindPlanned).Inc()

			continue
		}

		msgID, err := r.dispatcher.Dispatch(ctx, chunk, 0)
		if err != nil {
			return fmt.Errorf("dispatch planned outage %s: %w", hash, err)
		}

		if err := r.repo.InsertMessage(ctx, db.MessageEntry{
			Source:      source,
			Hash:        hash,
			Body:        chunk,
			TGMessageID: msgID,
		}); err != nil {
			return fmt.Errorf("record planned outage %s: %w", hash, err)
		}

		observability.MessagesDispatched.WithLabelValues(source, kindPlanned).Inc()
		r.logger.Info().Str("source", source).Str("hash", hash).Int64("msg_id", msgID).Msg("planned outage published")
	}

	return nil
}

// ReportTranslated publishes unseen feed announcements in the order given
// (callers pass them oldest first so the channel follows publication order).
// A failed translation skips only the affected item; with no ledger row
// written it is retried on the next pass.
func (r *Reporter) ReportTranslated(ctx context.Context, source string, items []Announcement) error {
	for _, item := range items {
		seen, err := r.repo.HasMessage(ctx, source, item.Hash)
		if err != nil {
			return fmt.Errorf("check announcement: %w", err)
		}

		if seen {
			r.logger.Debug().Str("source", source).Str("hash", item.Hash).Msg("announcement already published")
			observability.MessagesSkipped.WithLabelValues(source, kindTranslated).Inc()

			continue
		}

		title, body, err := r.translateItem(ctx, item)
		if err != nil {
			r.logger.Error().Err(err).Str("source", source).Str("hash", item.Hash).Msg("translation failed, will retry next pass")
			observability.TranslationFailures.Inc()

			continue
		}

		msgID, err := r.dispatcher.Dispatch(ctx, "<b>"+html.EscapeString(title)+"</b>\n\n"+body, 0)
		if err != nil {
			return fmt.Errorf("dispatch announcement %s: %w", item.Hash, err)
		}

		if err := r.repo.InsertMessage(ctx, db.MessageEntry{
			Source:          source,
			Hash:            item.Hash,
			Body:            item.Body,
			Title:           item.Title,
			TitleTranslated: title,
			BodyTranslated:  body,
			TGMessageID:     msgID,
		}); err != nil {
			return fmt.Errorf("record announcement %s: %w", item.Hash, err)
		}

		observability.MessagesDispatched.WithLabelValues(source, kindTranslated).Inc()
		r.logger.Info().Str("source", source).Str("hash", item.Hash).Int64("msg_id", msgID).Msg("announcement published")
	}

	return nil
}

func (r *Reporter) translateItem(ctx context.Context, item Announcement) (title, body string, err error) {
	title, err = r.translator.Translate(ctx, item.Title, r.targetLang)
	if err != nil {
		return "", "", fmt.Errorf("translate title: %w", err)
	}

	body, err = r.translator.Translate(ctx, item.Body, r.targetLang)
	if err != nil {
		return "", "", fmt.Errorf("translate body: %w", err)
	}

	return title, body, nil
}
