// Package session resolves a best-effort user identity. Resolution never
// fails: every tier either produces an identity or falls through, and an
// anonymous result is nil.
//
// Three tiers, cheapest first:
//  1. a hint carrying an unexpired token is returned as-is;
//  2. the live session source is queried under a hard bound; a source that
//     hangs is treated as absent;
//  3. durably stored auth artifacts are scanned and their refresh material
//     redeemed against the auth endpoint. This tier exists because live
//     session init is observed to fail silently on cold start even when
//     valid credentials sit on disk.
package session

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/client"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/logging"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/repositories/kv"
)

// AuthKeyPrefix is the storage key pattern recovered auth artifacts live
// under, e.g. "auth:default".
const AuthKeyPrefix = "auth:"

// expirySkew guards against clock drift when judging token expiry.
const expirySkew = 30 * time.Second

// LiveSource is the live session query (tier 2).
type LiveSource interface {
	CurrentSession(ctx context.Context) (*models.Identity, error)
}

type Resolver struct {
	live   LiveSource
	tokens client.TokenClient
	store  kv.Repository
	bound  time.Duration
	log    logging.Logger
	now    func() time.Time
}

func NewResolver(live LiveSource, tokens client.TokenClient, store kv.Repository, bound time.Duration, log logging.Logger) *Resolver {
	if log == nil {
		log = logging.Nop()
	}
	return &Resolver{
		live:   live,
		tokens: tokens,
		store:  store,
		bound:  bound,
		log:    log.With("component", "session_resolver"),
		now:    time.Now,
	}
}

// Resolve returns the best identity it can find, or nil. It never returns
// an error.
func (r *Resolver) Resolve(ctx context.Context, hint *models.Identity) *models.Identity {
	if id := r.fromHint(hint); id != nil {
		return id
	}
	if id := r.fromLive(ctx); id != nil {
		return id
	}
	return r.fromStorage(ctx)
}

func (r *Resolver) fromHint(hint *models.Identity) *models.Identity {
	if hint == nil || hint.AccessToken == "" || hint.UserID == "" {
		return nil
	}

	id := *hint
	if id.ExpiresAt.IsZero() {
		if exp, ok := tokenExpiresAt(id.AccessToken); ok {
			id.ExpiresAt = exp
		}
	}
	if !id.Valid(r.now().Add(expirySkew)) {
		return nil
	}
	return &id
}

// fromLive races the live query against the resolve bound. A query that
// does not win within the bound is abandoned.
func (r *Resolver) fromLive(ctx context.Context) *models.Identity {
	if r.live == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.bound)
	defer cancel()

	type result struct {
		id  *models.Identity
		err error
	}
	ch := make(chan result, 1)
	go func() {
		id, err := r.live.CurrentSession(ctx)
		ch <- result{id, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			r.log.Warn(ctx, "live session query failed", "error", res.err)
			return nil
		}
		if !res.id.Valid(r.now()) {
			return nil
		}
		return res.id
	case <-ctx.Done():
		r.log.Warn(ctx, "live session query did not answer in time", "bound", r.bound)
		return nil
	}
}

// fromStorage scans durable storage for persisted auth artifacts and tries
// to redeem their refresh material. The first artifact that restores wins;
// the restored identity is persisted back so the next cold start takes the
// fast path.
func (r *Resolver) fromStorage(ctx context.Context) *models.Identity {
	if r.store == nil || r.tokens == nil {
		return nil
	}

	artifacts, err := r.store.ListByPrefix(ctx, AuthKeyPrefix)
	if err != nil {
		r.log.Warn(ctx, "auth artifact scan failed", "error", err)
		return nil
	}

	keys := make([]string, 0, len(artifacts))
	for k := range artifacts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		var stored models.Identity
		if err := json.Unmarshal(artifacts[key], &stored); err != nil {
			r.log.Warn(ctx, "skipping unparseable auth artifact", "key", key, "error", err)
			continue
		}
		if stored.RefreshToken == "" {
			continue
		}

		rctx, cancel := context.WithTimeout(ctx, r.bound)
		id, err := r.tokens.RefreshSession(rctx, stored.RefreshToken)
		cancel()
		if err != nil {
			r.log.Warn(ctx, "session restore failed", "key", key, "error", err)
			continue
		}

		r.persist(ctx, key, id)
		r.log.Info(ctx, "session restored from storage", "key", key, "user", id.UserID)
		return id
	}

	return nil
}

func (r *Resolver) persist(ctx context.Context, key string, id *models.Identity) {
	raw, err := json.Marshal(id)
	if err != nil {
		return
	}
	if !strings.HasPrefix(key, AuthKeyPrefix) {
		key = AuthKeyPrefix + key
	}
	if err := r.store.Set(ctx, key, raw); err != nil {
		r.log.Warn(ctx, "failed to persist refreshed auth artifact", "key", key, "error", err)
	}
}

func tokenExpiresAt(token string) (time.Time, bool) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}
