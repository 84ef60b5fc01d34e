// Package importer implements the backup import reconciler. Given a batch
// of conversation payloads (the export format, possibly carrying an
// externally assigned id and a legacy createdAt/timestamp pair), it decides
// per item whether to import as new, skip, or overwrite an existing
// conversation, executes that decision against the store, and reports a
// per-item outcome.
//
// Processing is strictly sequential in input order. A batch is cancellable
// between items (the in-flight item always completes), and the reconciler
// is not re-entrant: a second StartImport while one runs fails with
// ErrImportInProgress.
package importer

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/jdmnt1999/line-claude-viewer/internal/domain"
	"github.com/jdmnt1999/line-claude-viewer/internal/repo"
	"github.com/jdmnt1999/line-claude-viewer/internal/services"
)

// ErrImportInProgress is returned when StartImport is called while another
// batch is still running.
var ErrImportInProgress = errors.New("import already in progress")

// Item statuses reported in BatchResult details.
const (
	StatusImported    = "imported"
	StatusSkipped     = "skipped"
	StatusOverwritten = "overwritten"
	StatusFailed      = "failed"
)

// Options controls how the reconciler treats payloads that match a stored
// conversation. SkipExisting and OverwriteExisting are mutually exclusive;
// setting OverwriteExisting clears SkipExisting (last writer wins, matching
// the original UI toggles).
type Options struct {
	// SkipExisting leaves a matched conversation untouched and records the
	// item as skipped.
	SkipExisting bool `json:"skipExisting"`

	// OverwriteExisting replaces a matched conversation's title, timestamp,
	// and messages with the payload's.
	OverwriteExisting bool `json:"overwriteExisting"`

	// PreserveIDs creates new conversations under the payload's original id
	// when possible, falling back to a generated id if it is occupied.
	PreserveIDs bool `json:"preserveIds"`
}

// DefaultOptions returns the reconciler defaults: skip matches, keep ids
// store-assigned.
func DefaultOptions() Options {
	return Options{SkipExisting: true}
}

func (o Options) normalized() Options {
	if o.OverwriteExisting {
		o.SkipExisting = false
	}
	return o
}

// Payload is one externally supplied conversation: the export shape plus an
// optional original id and either of the two legacy timestamp fields.
type Payload struct {
	ID        string                   `json:"id,omitempty"`
	Title     string                   `json:"title"`
	CreatedAt time.Time                `json:"createdAt,omitempty"`
	Timestamp time.Time                `json:"timestamp,omitempty"`
	Messages  []services.MessageExport `json:"messages"`
}

// effectiveTimestamp resolves the dual-field timestamp shim: createdAt wins,
// then timestamp, then zero (meaning "assign now" downstream).
func (p Payload) effectiveTimestamp() time.Time {
	if !p.CreatedAt.IsZero() {
		return p.CreatedAt
	}
	return p.Timestamp
}

func (p Payload) export() *services.ConversationExport {
	return &services.ConversationExport{
		Title:     p.Title,
		Timestamp: p.effectiveTimestamp(),
		Messages:  p.Messages,
	}
}

// ItemResult is the per-payload outcome.
type ItemResult struct {
	Status         string `json:"status"`
	Title          string `json:"title"`
	ConversationID string `json:"conversationId,omitempty"`
	Reason         string `json:"reason,omitempty"`
	Error          string `json:"error,omitempty"`
}

// BatchResult aggregates a whole import run. Overwritten items count toward
// Imported, mirroring the original report.
type BatchResult struct {
	Total    int          `json:"total"`
	Imported int          `json:"imported"`
	Skipped  int          `json:"skipped"`
	Failed   int          `json:"failed"`
	Details  []ItemResult `json:"details"`
}

// Progress is invoked after each processed item with the number of items
// done and the batch size. Optional; used by UIs for progress display.
type Progress func(done, total int)

// Reconciler executes import batches against the store.
type Reconciler struct {
	db   *gorm.DB
	msgs *services.MessageService
	xfer *services.TransferService
	log  zerolog.Logger

	// Pace, when set, bounds the item processing rate. It has no ordering
	// or correctness significance; it keeps the store responsive for
	// concurrent readers during large restores.
	Pace *rate.Limiter

	// OnProgress, when set, receives per-item progress.
	OnProgress Progress

	running   atomic.Bool
	cancelled atomic.Bool
	mu        sync.Mutex
}

// NewReconciler constructs a Reconciler over the given store services.
func NewReconciler(db *gorm.DB, msgs *services.MessageService, xfer *services.TransferService, log zerolog.Logger) *Reconciler {
	return &Reconciler{db: db, msgs: msgs, xfer: xfer, log: log}
}

// InProgress reports whether a batch is currently running.
func (r *Reconciler) InProgress() bool { return r.running.Load() }

// Cancel requests cooperative cancellation of the running batch. It takes
// effect before the next item starts; the in-flight item completes. Calling
// Cancel with no batch running is a no-op.
func (r *Reconciler) Cancel() { r.cancelled.Store(true) }

// StartImport processes payloads strictly in order, one at a time. A failure
// on one item is recorded as failed and does not abort the rest. Returns
// ErrImportInProgress when a batch is already running.
func (r *Reconciler) StartImport(ctx context.Context, payloads []Payload, opts Options) (*BatchResult, error) {
	if !r.mu.TryLock() {
		return nil, ErrImportInProgress
	}
	defer r.mu.Unlock()

	r.running.Store(true)
	r.cancelled.Store(false)
	defer r.running.Store(false)

	opts = opts.normalized()
	result := &BatchResult{Total: len(payloads), Details: make([]ItemResult, 0, len(payloads))}

	for i, p := range payloads {
		if r.cancelled.Load() || ctx.Err() != nil {
			r.log.Info().Int("processed", i).Int("total", len(payloads)).Msg("import cancelled")
			break
		}
		if r.Pace != nil {
			if err := r.Pace.Wait(ctx); err != nil {
				break
			}
		}

		item := r.processItem(ctx, p, opts)
		result.Details = append(result.Details, item)
		switch item.Status {
		case StatusImported, StatusOverwritten:
			result.Imported++
		case StatusSkipped:
			result.Skipped++
		case StatusFailed:
			result.Failed++
		}

		if r.OnProgress != nil {
			r.OnProgress(i+1, len(payloads))
		}
	}

	r.log.Info().
		Int("total", result.Total).
		Int("imported", result.Imported).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("import batch finished")
	return result, nil
}

// processItem applies the skip/overwrite/create decision for one payload.
func (r *Reconciler) processItem(ctx context.Context, p Payload, opts Options) ItemResult {
	if p.Messages == nil {
		return ItemResult{Status: StatusFailed, Title: p.Title, Error: services.ErrMalformedPayload.Error()}
	}

	existing, err := r.matchExisting(ctx, p)
	if err != nil {
		return ItemResult{Status: StatusFailed, Title: p.Title, Error: err.Error()}
	}

	switch {
	case existing != nil && opts.SkipExisting:
		return ItemResult{
			Status:         StatusSkipped,
			Title:          p.Title,
			ConversationID: existing.ID,
			Reason:         "conversation already exists",
		}

	case existing != nil && opts.OverwriteExisting:
		if err := r.overwrite(ctx, existing.ID, p); err != nil {
			return ItemResult{Status: StatusFailed, Title: p.Title, Error: err.Error()}
		}
		return ItemResult{Status: StatusOverwritten, Title: p.Title, ConversationID: existing.ID}

	default:
		id, err := r.importNew(ctx, p, opts)
		if err != nil {
			return ItemResult{Status: StatusFailed, Title: p.Title, Error: err.Error()}
		}
		return ItemResult{Status: StatusImported, Title: p.Title, ConversationID: id}
	}
}

// matchExisting runs the duplicate checks in order; the first hit wins.
//
//  1. id match: the payload carries an id that resolves to a stored
//     conversation.
//  2. title+timestamp match: exact title and an exact match on either of
//     the payload's timestamp fields.
//  3. content fingerprint: equal message count and first/last message equal
//     on role and content. Two distinct conversations with identical length
//     and identical first/last messages will collide.
func (r *Reconciler) matchExisting(ctx context.Context, p Payload) (*domain.Conversation, error) {
	if p.ID != "" {
		c, err := repo.GetConversation(ctx, r.db, p.ID)
		if err == nil {
			return c, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	var all []domain.Conversation
	loadAll := func() error {
		if all != nil {
			return nil
		}
		var err error
		all, err = repo.ListConversations(ctx, r.db)
		return err
	}

	if p.Title != "" && (!p.CreatedAt.IsZero() || !p.Timestamp.IsZero()) {
		if err := loadAll(); err != nil {
			return nil, err
		}
		for i, c := range all {
			if c.Title != p.Title {
				continue
			}
			if (!p.CreatedAt.IsZero() && c.CreatedAt.Equal(p.CreatedAt)) ||
				(!p.Timestamp.IsZero() && c.CreatedAt.Equal(p.Timestamp)) {
				return &all[i], nil
			}
		}
	}

	if len(p.Messages) > 0 {
		if err := loadAll(); err != nil {
			return nil, err
		}
		first, last := p.Messages[0], p.Messages[len(p.Messages)-1]
		for i, c := range all {
			if c.MessageCount != int64(len(p.Messages)) {
				continue
			}
			msgs, err := repo.ListMessages(r.db.WithContext(ctx), c.ID)
			if err != nil {
				return nil, err
			}
			if len(msgs) != len(p.Messages) {
				continue
			}
			if msgs[0].Role == first.Role && msgs[0].Content == first.Content &&
				msgs[len(msgs)-1].Role == last.Role && msgs[len(msgs)-1].Content == last.Content {
				return &all[i], nil
			}
		}
	}

	return nil, nil
}

// importNew creates a fresh conversation from the payload. In preserve-ids
// mode an occupied id falls back to a store-assigned one without failing
// the item.
func (r *Reconciler) importNew(ctx context.Context, p Payload, opts Options) (string, error) {
	if opts.PreserveIDs && p.ID != "" {
		id, err := r.xfer.ImportConversationWithID(ctx, p.ID, p.export())
		if err == nil {
			return id, nil
		}
		r.log.Warn().Err(err).Str("payload_id", p.ID).Msg("import: original id unavailable, assigning new id")
	}
	return r.xfer.ImportConversation(ctx, p.export())
}

// overwrite clears the matched conversation's messages and replays the
// payload's title, timestamp, and messages. The steps span multiple
// transactions; a crash mid-overwrite can leave the conversation emptied
// with stale metadata. POST /repair restores the count invariant.
func (r *Reconciler) overwrite(ctx context.Context, conversationID string, p Payload) error {
	if err := repo.ClearMessages(r.db.WithContext(ctx), conversationID); err != nil {
		return err
	}
	if err := repo.SetMessageCount(ctx, r.db, conversationID, 0); err != nil {
		return err
	}

	title := p.Title
	if title == "" {
		title = services.DefaultImportTitle
	}
	at := p.effectiveTimestamp()
	if at.IsZero() {
		at = time.Now().UTC()
	}
	if err := repo.UpdateConversationMeta(ctx, r.db, conversationID, title, at); err != nil {
		return err
	}

	for _, m := range p.Messages {
		if _, err := r.msgs.Append(ctx, conversationID, m.Role, m.Content, m.Timestamp); err != nil {
			return err
		}
	}
	// Appending may have re-derived the title from the first user message;
	// the payload's title is authoritative here too.
	if len(p.Messages) > 0 {
		if err := repo.UpdateConversationMeta(ctx, r.db, conversationID, title, at); err != nil {
			return err
		}
	}
	return nil
}
