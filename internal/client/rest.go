package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/logging"
	"github.com/a-martyniuk/hypertrophy-tracker-sub000/internal/models"
)

// Remote collections.
const (
	collectionRecords      = "body_records"
	collectionMeasurements = "body_measurements"
	collectionPhotos       = "record_photos"
)

const preferMergeDuplicates = "resolution=merge-duplicates"

// DefaultListLimit caps a list page when no limit is configured.
const DefaultListLimit = 500

// RESTClient implements Store against the HTTP collection API: header-based
// api key plus per-identity bearer token, merge-duplicates upsert,
// equality-filter deletes, batch JSON inserts.
type RESTClient struct {
	baseURL string
	apiKey  string

	fallbackThreshold time.Duration
	callTimeout       time.Duration
	listLimit         int

	http *transports
	log  logging.Logger
}

func NewRESTClient(baseURL, apiKey string, fallbackThreshold, callTimeout time.Duration, listLimit int, log logging.Logger) *RESTClient {
	if log == nil {
		log = logging.Nop()
	}
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &RESTClient{
		baseURL:           baseURL,
		apiKey:            apiKey,
		fallbackThreshold: fallbackThreshold,
		callTimeout:       callTimeout,
		listLimit:         listLimit,
		http:              newTransports(),
		log:               log.With("component", "remote_store"),
	}
}

func (c *RESTClient) Begin(id *models.Identity) Operation {
	return &restOperation{c: c, identity: id, state: &opState{}}
}

// restOperation is one logical operation against the store. It owns the
// operation-scoped fallback flag via its opState.
type restOperation struct {
	c        *RESTClient
	identity *models.Identity
	state    *opState
}

func (o *restOperation) build(method, collection, rawQuery string, body []byte, prefer string) func() (*http.Request, error) {
	return func() (*http.Request, error) {
		u := o.c.baseURL + "/rest/v1/" + collection
		if rawQuery != "" {
			u += "?" + rawQuery
		}

		var rd io.Reader
		if body != nil {
			rd = bytes.NewReader(body)
		}
		req, err := http.NewRequest(method, u, rd)
		if err != nil {
			return nil, err
		}

		req.Header.Set("apikey", o.c.apiKey)
		if o.identity != nil {
			req.Header.Set("Authorization", "Bearer "+o.identity.AccessToken)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if prefer != "" {
			req.Header.Set("Prefer", prefer)
		}
		return req, nil
	}
}

func eq(field, value string) string {
	return url.Values{field: {"eq." + value}}.Encode()
}

func (o *restOperation) UpsertParent(ctx context.Context, row models.ParentRow) error {
	body, err := json.Marshal(row)
	if err != nil {
		return &Error{Kind: TransportFailure, cause: err}
	}
	_, err = o.c.send(ctx, o.state,
		o.build(http.MethodPost, collectionRecords, "on_conflict=id", body, preferMergeDuplicates))
	return err
}

func (o *restOperation) DeleteMeasurements(ctx context.Context, recordID string) error {
	_, err := o.c.send(ctx, o.state,
		o.build(http.MethodDelete, collectionMeasurements, eq("record_id", recordID), nil, ""))
	return err
}

func (o *restOperation) DeletePhotos(ctx context.Context, recordID string) error {
	_, err := o.c.send(ctx, o.state,
		o.build(http.MethodDelete, collectionPhotos, eq("record_id", recordID), nil, ""))
	return err
}

func (o *restOperation) InsertMeasurements(ctx context.Context, rows []models.MeasurementRow) error {
	if len(rows) == 0 {
		return nil
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return &Error{Kind: TransportFailure, cause: err}
	}
	_, err = o.c.send(ctx, o.state,
		o.build(http.MethodPost, collectionMeasurements, "", body, ""))
	return err
}

func (o *restOperation) InsertPhotos(ctx context.Context, rows []models.PhotoRow) error {
	if len(rows) == 0 {
		return nil
	}
	body, err := json.Marshal(rows)
	if err != nil {
		return &Error{Kind: TransportFailure, cause: err}
	}
	_, err = o.c.send(ctx, o.state,
		o.build(http.MethodPost, collectionPhotos, "", body, ""))
	return err
}

func (o *restOperation) DeleteParent(ctx context.Context, recordID string) error {
	_, err := o.c.send(ctx, o.state,
		o.build(http.MethodDelete, collectionRecords, eq("id", recordID), nil, ""))
	return err
}

func (o *restOperation) ListRecords(ctx context.Context, userID string) ([]models.ParentRow, []models.MeasurementRow, []models.PhotoRow, error) {
	var parents []models.ParentRow
	q := url.Values{
		"user_id": {"eq." + userID},
		"order":   {"date.desc"},
		"limit":   {strconv.Itoa(o.c.listLimit)},
	}.Encode()
	if err := o.get(ctx, collectionRecords, q, &parents); err != nil {
		return nil, nil, nil, err
	}

	var mrows []models.MeasurementRow
	if err := o.get(ctx, collectionMeasurements, eq("user_id", userID), &mrows); err != nil {
		return nil, nil, nil, err
	}

	var prows []models.PhotoRow
	if err := o.get(ctx, collectionPhotos, eq("user_id", userID), &prows); err != nil {
		return nil, nil, nil, err
	}

	return parents, mrows, prows, nil
}

func (o *restOperation) get(ctx context.Context, collection, rawQuery string, out any) error {
	res, err := o.c.send(ctx, o.state,
		o.build(http.MethodGet, collection, rawQuery, nil, ""))
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return &Error{Kind: TransportFailure, cause: err}
	}
	return nil
}

// refreshResponse is the auth endpoint's token grant payload.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresAt    int64  `json:"expires_at"`
	User         struct {
		ID string `json:"id"`
	} `json:"user"`
}

// RefreshSession redeems a refresh token for a fresh identity. It runs
// outside any save operation, so it gets its own transport state.
func (c *RESTClient) RefreshSession(ctx context.Context, refreshToken string) (*models.Identity, error) {
	body, err := json.Marshal(map[string]string{"refresh_token": refreshToken})
	if err != nil {
		return nil, &Error{Kind: TransportFailure, cause: err}
	}

	state := &opState{}
	res, err := c.send(ctx, state, func() (*http.Request, error) {
		req, err := http.NewRequest(http.MethodPost,
			c.baseURL+"/auth/v1/token?grant_type=refresh_token", bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("apikey", c.apiKey)
		req.Header.Set("Content-Type", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, err
	}

	var rr refreshResponse
	if err := json.Unmarshal(res.Body, &rr); err != nil {
		return nil, &Error{Kind: TransportFailure, cause: err}
	}
	if rr.AccessToken == "" || rr.User.ID == "" {
		return nil, &Error{Kind: TransportFailure, cause: errMissingToken}
	}

	id := &models.Identity{
		UserID:       rr.User.ID,
		AccessToken:  rr.AccessToken,
		RefreshToken: rr.RefreshToken,
	}
	if rr.ExpiresAt > 0 {
		id.ExpiresAt = time.Unix(rr.ExpiresAt, 0)
	}
	return id, nil
}
