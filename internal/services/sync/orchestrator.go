// Package sync contains the synchronization orchestrator: the saga
// coordinator implementing save/delete as multi-step remote transactions,
// falling back to the local durable queue when no identity is available,
// and draining that queue on demand.
package sync

import (
	"context"
	"sort"
	stdsync "sync"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/client"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/codec"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/logging"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/repositories/queue"
)

// User-facing failure messages, keyed by error class. Raw errors never
// escape a public operation.
const (
	msgPermissionDenied = "The server rejected the request: missing permissions. Sign in again or check the app's API key configuration."
	msgTimeout          = "The server took too long to respond. Your data is kept on this device and will sync later."
	msgTransport        = "Could not reach the server. Your data is kept on this device and will sync later."
	msgLocalStorage     = "Could not write to local storage on this device."
)

// Resolver yields a best-effort identity; nil means anonymous.
type Resolver interface {
	Resolve(ctx context.Context, hint *models.Identity) *models.Identity
}

// RetryPolicy parameterizes the drain's handling of transient failures.
// Zero MaxRetries disables in-pass retries; entries then simply wait for
// the next sync pass.
type RetryPolicy struct {
	MaxRetries uint64
	BaseDelay  time.Duration
}

// Orchestrator coordinates the record codec, the session resolver, the
// remote store, and the local durable queue. One instance serves one
// identity session; all mutable coordination state lives on the instance.
type Orchestrator struct {
	resolver Resolver
	store    client.Store
	queue    queue.Queue

	saveTimeout time.Duration
	retry       RetryPolicy
	log         logging.Logger

	hintMu stdsync.Mutex
	hint   *models.Identity

	recMu   stdsync.Mutex
	records []models.MeasurementRecord

	// single-flight guard for Sync
	syncMu  stdsync.Mutex
	syncing bool
}

func NewOrchestrator(resolver Resolver, store client.Store, q queue.Queue, saveTimeout time.Duration, retry RetryPolicy, log logging.Logger) *Orchestrator {
	if log == nil {
		log = logging.Nop()
	}
	return &Orchestrator{
		resolver:    resolver,
		store:       store,
		queue:       q,
		saveTimeout: saveTimeout,
		retry:       retry,
		log:         log.With("component", "sync_orchestrator"),
	}
}

// SetIdentityHint records an identity supplied opportunistically by the
// auth collaborator. It is only a hint: resolution still validates it.
func (o *Orchestrator) SetIdentityHint(id *models.Identity) {
	o.hintMu.Lock()
	o.hint = id
	o.hintMu.Unlock()
}

func (o *Orchestrator) identityHint() *models.Identity {
	o.hintMu.Lock()
	defer o.hintMu.Unlock()
	return o.hint
}

// SaveRecord persists rec. With no resolvable identity the record is
// admitted to the durable queue and the call returns synchronously with
// target "local"; no network is attempted. With an identity the record is
// written remotely as an ordered saga; any failure keeps the record queued
// so data loss is excluded by construction.
func (o *Orchestrator) SaveRecord(ctx context.Context, rec *models.MeasurementRecord) models.SaveResult {
	rec.State = models.StatePendingSync

	id := o.resolver.Resolve(ctx, o.identityHint())
	if id == nil {
		if err := o.queue.Put(ctx, rec); err != nil {
			o.log.Error(ctx, "queue admission failed", "record", rec.ID, "error", err)
			return models.Failed(msgLocalStorage, err)
		}
		o.upsertInMemory(*rec)
		o.log.Info(ctx, "record queued locally", "record", rec.ID)
		return models.LocalSave()
	}

	if err := o.saveToCloud(ctx, id, rec); err != nil {
		// retain locally regardless of class: remote never confirmed
		if qerr := o.queue.Put(ctx, rec); qerr != nil {
			o.log.Error(ctx, "queue retention failed after remote failure",
				"record", rec.ID, "error", qerr)
		}
		return models.Failed(userMessage(err), err)
	}

	if err := o.queue.Remove(ctx, rec.ID); err != nil {
		o.log.Warn(ctx, "failed to drop confirmed record from queue", "record", rec.ID, "error", err)
	}
	rec.State = models.StateSynced
	o.upsertInMemory(*rec)
	return models.CloudSave()
}

// saveToCloud runs the five-step save saga against the remote store. The
// whole saga shares one deadline and one operation (one dual-transport
// state).
func (o *Orchestrator) saveToCloud(ctx context.Context, id *models.Identity, rec *models.MeasurementRecord) error {
	ctx, cancel := context.WithTimeout(ctx, o.saveTimeout)
	defer cancel()

	rec.UserID = id.UserID
	parent, mrows, prows, err := codec.Encode(rec)
	if err != nil {
		return err
	}

	op := o.store.Begin(id)
	return o.runSaga(ctx, "save", rec.ID, []sagaStep{
		{"upsert parent row", func(ctx context.Context) error {
			return op.UpsertParent(ctx, parent)
		}},
		{"delete stale measurement rows", func(ctx context.Context) error {
			return op.DeleteMeasurements(ctx, rec.ID)
		}},
		{"delete stale photo rows", func(ctx context.Context) error {
			return op.DeletePhotos(ctx, rec.ID)
		}},
		{"insert measurement rows", func(ctx context.Context) error {
			return op.InsertMeasurements(ctx, mrows)
		}},
		{"insert photo rows", func(ctx context.Context) error {
			return op.InsertPhotos(ctx, prows)
		}},
	})
}

// DeleteRecord removes a record. Anonymous deletes only touch the queue and
// the in-memory list. Identified deletes remove child rows before the
// parent; on remote failure the record stays visibly present and the error
// is surfaced. There is no optimistic removal.
func (o *Orchestrator) DeleteRecord(ctx context.Context, recordID string) models.SaveResult {
	id := o.resolver.Resolve(ctx, o.identityHint())
	if id == nil {
		if err := o.queue.Remove(ctx, recordID); err != nil {
			return models.Failed(msgLocalStorage, err)
		}
		o.removeFromMemory(recordID)
		return models.LocalSave()
	}

	ctx, cancel := context.WithTimeout(ctx, o.saveTimeout)
	defer cancel()

	op := o.store.Begin(id)
	err := o.runSaga(ctx, "delete", recordID, []sagaStep{
		{"delete measurement rows", func(ctx context.Context) error {
			return op.DeleteMeasurements(ctx, recordID)
		}},
		{"delete photo rows", func(ctx context.Context) error {
			return op.DeletePhotos(ctx, recordID)
		}},
		{"delete parent row", func(ctx context.Context) error {
			return op.DeleteParent(ctx, recordID)
		}},
	})
	if err != nil {
		return models.Failed(userMessage(err), err)
	}

	if err := o.queue.Remove(ctx, recordID); err != nil {
		o.log.Warn(ctx, "failed to drop deleted record from queue", "record", recordID, "error", err)
	}
	o.removeFromMemory(recordID)
	return models.CloudSave()
}

// Sync drains the durable queue through the same remote write path saves
// use. It is single-flight: a call overlapping an in-flight drain is a
// no-op. Each entry is dropped from the queue individually, right after the
// remote confirms it; entries that do not land stay queued. Records admitted
// by concurrent saves while a drain is in flight are never touched, only
// the drained ids are.
func (o *Orchestrator) Sync(ctx context.Context) error {
	o.syncMu.Lock()
	if o.syncing {
		o.syncMu.Unlock()
		o.log.Debug(ctx, "sync already in flight, skipping")
		return nil
	}
	o.syncing = true
	o.syncMu.Unlock()

	defer func() {
		o.syncMu.Lock()
		o.syncing = false
		o.syncMu.Unlock()
	}()

	entries, err := o.queue.Load(ctx)
	if err != nil {
		return localError(err)
	}
	if len(entries) == 0 {
		return nil
	}

	id := o.resolver.Resolve(ctx, o.identityHint())
	if id == nil {
		o.log.Info(ctx, "sync skipped: no identity", "queued", len(entries))
		return nil
	}

	drained := 0
	for i := range entries {
		rec := entries[i]
		if err := o.drainOne(ctx, id, &rec); err != nil {
			o.log.Warn(ctx, "entry stays queued", "record", rec.ID,
				"class", client.KindOf(err).String(), "error", err)
			continue
		}
		// remote confirmed; on a removal failure the entry stays queued and
		// the idempotent upsert re-lands it next pass
		if err := o.queue.Remove(ctx, rec.ID); err != nil {
			o.log.Warn(ctx, "failed to drop drained record from queue", "record", rec.ID, "error", err)
			continue
		}
		drained++
		rec.State = models.StateSynced
		o.upsertInMemory(rec)
	}

	o.log.Info(ctx, "sync pass finished", "drained", drained, "remaining", len(entries)-drained)
	return nil
}

// drainOne attempts one queued entry, retrying transient classes per the
// policy. PermissionDenied is fatal for the attempt and is never retried.
func (o *Orchestrator) drainOne(ctx context.Context, id *models.Identity, rec *models.MeasurementRecord) error {
	base := o.retry.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	backoff := retry.WithMaxRetries(o.retry.MaxRetries, retry.NewFibonacci(base))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := o.saveToCloud(ctx, id, rec)
		if err == nil {
			return nil
		}
		if client.KindOf(err) == client.PermissionDenied {
			return err
		}
		return retry.RetryableError(err)
	})
}

// Fetch repopulates and returns the canonical record list, newest first.
// Identified: decoded from the remote row sets, with still-queued entries
// kept visible as pending. Anonymous: the queue itself is the canonical
// set. A completed Sync should precede Fetch or queued duplicates of
// just-drained entries may appear pending for one refresh.
func (o *Orchestrator) Fetch(ctx context.Context) ([]models.MeasurementRecord, error) {
	queued, err := o.queue.Load(ctx)
	if err != nil {
		return nil, localError(err)
	}
	for i := range queued {
		queued[i].State = models.StatePendingSync
	}

	id := o.resolver.Resolve(ctx, o.identityHint())
	if id == nil {
		list := sortNewestFirst(queued)
		o.replaceInMemory(list)
		return list, nil
	}

	parents, mrows, prows, err := o.store.Begin(id).ListRecords(ctx, id.UserID)
	if err != nil {
		return nil, remoteError(err)
	}

	mByRec := make(map[string][]models.MeasurementRow, len(parents))
	for _, row := range mrows {
		mByRec[row.RecordID] = append(mByRec[row.RecordID], row)
	}
	pByRec := make(map[string][]models.PhotoRow, len(parents))
	for _, row := range prows {
		pByRec[row.RecordID] = append(pByRec[row.RecordID], row)
	}

	list := make([]models.MeasurementRecord, 0, len(parents)+len(queued))
	seen := make(map[string]struct{}, len(parents))
	for _, parent := range parents {
		list = append(list, *codec.Decode(parent, mByRec[parent.ID], pByRec[parent.ID]))
		seen[parent.ID] = struct{}{}
	}
	for _, rec := range queued {
		if _, ok := seen[rec.ID]; !ok {
			list = append(list, rec)
		}
	}

	list = sortNewestFirst(list)
	o.replaceInMemory(list)
	return list, nil
}

// Records returns a copy of the current in-memory canonical list.
func (o *Orchestrator) Records() []models.MeasurementRecord {
	o.recMu.Lock()
	defer o.recMu.Unlock()
	out := make([]models.MeasurementRecord, len(o.records))
	copy(out, o.records)
	return out
}

// Pending reports the number of queued, not-yet-durable records.
func (o *Orchestrator) Pending(ctx context.Context) (int, error) {
	return o.queue.Len(ctx)
}

func (o *Orchestrator) upsertInMemory(rec models.MeasurementRecord) {
	o.recMu.Lock()
	defer o.recMu.Unlock()

	replaced := false
	for i := range o.records {
		if o.records[i].ID == rec.ID {
			o.records[i] = rec
			replaced = true
			break
		}
	}
	if !replaced {
		o.records = append(o.records, rec)
	}
	o.records = sortNewestFirst(o.records)
}

func (o *Orchestrator) removeFromMemory(recordID string) {
	o.recMu.Lock()
	defer o.recMu.Unlock()

	kept := o.records[:0]
	for _, r := range o.records {
		if r.ID != recordID {
			kept = append(kept, r)
		}
	}
	o.records = kept
}

func (o *Orchestrator) replaceInMemory(list []models.MeasurementRecord) {
	o.recMu.Lock()
	o.records = list
	o.recMu.Unlock()
}

// sortNewestFirst orders by calendar date descending. Dates are ISO
// strings, so plain string comparison is chronological. Stable: same-day
// records keep their relative order.
func sortNewestFirst(list []models.MeasurementRecord) []models.MeasurementRecord {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Date > list[j].Date
	})
	return list
}

// opError is what Sync and Fetch return on failure: Error() is the
// user-facing message, the cause stays reachable for errors.As and
// client.KindOf.
type opError struct {
	msg   string
	cause error
}

func (e *opError) Error() string { return e.msg }
func (e *opError) Unwrap() error { return e.cause }

func localError(err error) error {
	return &opError{msg: msgLocalStorage, cause: err}
}

func remoteError(err error) error {
	return &opError{msg: userMessage(err), cause: err}
}

func userMessage(err error) string {
	switch client.KindOf(err) {
	case client.PermissionDenied:
		return msgPermissionDenied
	case client.Timeout:
		return msgTimeout
	default:
		return msgTransport
	}
}
