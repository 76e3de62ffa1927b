package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/nmarques/backend-compras/internal/common"
	dbgen "github.com/nmarques/backend-compras/internal/db/gen"
	"github.com/nmarques/backend-compras/internal/money"
	"github.com/nmarques/backend-compras/internal/obs"
)

const uniqueViolation = "23505"

// Service implements the purchase pipeline: normalize, resolve idempotency,
// aggregate totals, persist atomically.
type Service struct {
	Store           Store
	DefaultCurrency string
	DefaultLimit    int
	MaxLimit        int
}

// ItemView is one persisted line item as rendered to clients.
type ItemView struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UnitPrice string    `json:"unit_price"`
	Quantity  int32     `json:"quantity"`
	LineTotal string    `json:"line_total"`
	CreatedAt time.Time `json:"created_at"`
}

// View is a purchase snapshot as rendered to clients.
type View struct {
	ID             string     `json:"id"`
	CartName       string     `json:"cart_name"`
	StoreName      string     `json:"store_name"`
	Currency       string     `json:"currency"`
	Notes          string     `json:"notes"`
	Tags           []string   `json:"tags"`
	ItemsCount     int32      `json:"items_count"`
	TotalAmount    string     `json:"total_amount"`
	IdempotencyKey string     `json:"idempotency_key,omitempty"`
	CompletedAt    time.Time  `json:"completed_at"`
	Items          []ItemView `json:"items,omitempty"`
}

// CreateResult reports whether Create persisted a new snapshot or returned
// a previously stored one (idempotent replay or a lost creation race).
type CreateResult struct {
	Purchase View
	Created  bool
}

// Create runs the full pipeline for one submission. headerKey is the
// transport-level Idempotency-Key value; it is used only when the body
// omits idempotency_key. A stored purchase under the same (owner, key) is
// returned untouched without re-validating the new payload.
func (s *Service) Create(ctx context.Context, userID string, in CreateInput, headerKey string) (CreateResult, error) {
	if s == nil || s.Store == nil {
		return CreateResult{}, errors.New("purchase service not configured")
	}
	if strings.TrimSpace(in.IdempotencyKey) == "" {
		in.IdempotencyKey = headerKey
	}

	owner, err := ownerUUID(userID)
	if err != nil {
		return CreateResult{}, &common.AppError{Code: "UNAUTHORIZED", Message: "invalid user", HTTPStatus: http.StatusUnauthorized, Err: err}
	}

	if key := strings.TrimSpace(in.IdempotencyKey); key != "" && len(key) <= maxIdemKeyLen {
		if stored, found, err := s.resolve(ctx, owner, key); err != nil {
			countCreate("error")
			return CreateResult{}, internalError(err)
		} else if found {
			countCreate("replayed")
			return CreateResult{Purchase: stored, Created: false}, nil
		}
	}

	norm, err := Normalize(in, s.DefaultCurrency)
	if err != nil {
		countCreate("invalid")
		return CreateResult{}, err
	}

	totals := Aggregate(norm.Items)
	params, err := createParams(owner, norm, totals)
	if err != nil {
		countCreate("error")
		return CreateResult{}, internalError(err)
	}
	items := make([]dbgen.CreatePurchaseItemParams, 0, len(norm.Items))
	for _, it := range norm.Items {
		items = append(items, dbgen.CreatePurchaseItemParams{
			Name:      it.Name,
			UnitPrice: money.NumericFromDecimal(it.StoredUnitPrice()),
			Quantity:  int32(it.Quantity),
		})
	}

	row, itemRows, err := s.Store.CreatePurchaseWithItems(ctx, params, items)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation && norm.IdempotencyKey != "" {
			// Lost the creation race for this key; the committed row wins.
			stored, found, rerr := s.resolve(ctx, owner, norm.IdempotencyKey)
			if rerr != nil || !found {
				countCreate("error")
				return CreateResult{}, internalError(err)
			}
			countCreate("race_resolved")
			return CreateResult{Purchase: stored, Created: false}, nil
		}
		countCreate("error")
		return CreateResult{}, internalError(err)
	}

	countCreate("created")
	if obs.PurchaseItemsPerPurchase != nil {
		obs.PurchaseItemsPerPurchase.Observe(float64(len(itemRows)))
	}
	view, err := toView(row, itemRows)
	if err != nil {
		return CreateResult{}, internalError(err)
	}
	return CreateResult{Purchase: view, Created: true}, nil
}

// resolve looks up a stored purchase for (owner, key) and loads its items.
func (s *Service) resolve(ctx context.Context, owner pgtype.UUID, key string) (View, bool, error) {
	row, err := s.Store.FindByOwnerAndKey(ctx, owner, key)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, false, nil
		}
		return View{}, false, err
	}
	itemRows, err := s.Store.ListItems(ctx, row.ID)
	if err != nil {
		return View{}, false, err
	}
	view, err := toView(row, itemRows)
	if err != nil {
		return View{}, false, err
	}
	return view, true, nil
}

// Get returns one owner-scoped purchase with its items.
func (s *Service) Get(ctx context.Context, userID, purchaseID string) (View, error) {
	if s == nil || s.Store == nil {
		return View{}, errors.New("purchase service not configured")
	}
	owner, err := ownerUUID(userID)
	if err != nil {
		return View{}, notFound()
	}
	id, err := common.ToUUID(purchaseID)
	if err != nil {
		return View{}, notFound()
	}
	row, err := s.Store.GetForUser(ctx, id, owner)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return View{}, notFound()
		}
		return View{}, internalError(err)
	}
	itemRows, err := s.Store.ListItems(ctx, row.ID)
	if err != nil {
		return View{}, internalError(err)
	}
	return toView(row, itemRows)
}

// ListParams are the parsed query parameters of the list endpoint.
type ListParams struct {
	Page            int
	Limit           int
	Store           string
	Currency        string
	MinTotal        *pgtype.Numeric
	MaxTotal        *pgtype.Numeric
	CompletedAfter  *time.Time
	CompletedBefore *time.Time
	Tag             string
}

// ListResult is one page of purchases plus the unpaged total.
type ListResult struct {
	Items []View
	Page  int
	Limit int
	Total int64
}

// ParseListParams validates the list query string.
func (s *Service) ParseListParams(values url.Values) (ListParams, error) {
	defaultLimit := s.DefaultLimit
	if defaultLimit <= 0 {
		defaultLimit = 20
	}
	maxLimit := s.MaxLimit
	if maxLimit <= 0 {
		maxLimit = 100
	}
	params := ListParams{Page: 1, Limit: defaultLimit}

	if v := strings.TrimSpace(values.Get("page")); v != "" {
		page, err := strconv.Atoi(v)
		if err != nil || page < 1 {
			return params, badQuery("page", "page must be a positive integer")
		}
		params.Page = page
	}
	if v := strings.TrimSpace(values.Get("limit")); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil || limit < 1 {
			return params, badQuery("limit", "limit must be a positive integer")
		}
		params.Limit = limit
	}
	if params.Limit > maxLimit {
		params.Limit = maxLimit
	}

	params.Store = strings.TrimSpace(values.Get("store"))
	params.Currency = strings.ToUpper(strings.TrimSpace(values.Get("currency")))
	params.Tag = strings.TrimSpace(values.Get("tag"))

	if v := strings.TrimSpace(values.Get("min_total")); v != "" {
		d, err := money.ParseAmount(v)
		if err != nil {
			return params, badQuery("min_total", "min_total must be a non-negative decimal")
		}
		n := money.NumericFromDecimal(d)
		params.MinTotal = &n
	}
	if v := strings.TrimSpace(values.Get("max_total")); v != "" {
		d, err := money.ParseAmount(v)
		if err != nil {
			return params, badQuery("max_total", "max_total must be a non-negative decimal")
		}
		n := money.NumericFromDecimal(d)
		params.MaxTotal = &n
	}
	if v := strings.TrimSpace(values.Get("completed_after")); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return params, badQuery("completed_after", "completed_after must be an RFC 3339 timestamp or a date")
		}
		params.CompletedAfter = &t
	}
	if v := strings.TrimSpace(values.Get("completed_before")); v != "" {
		t, err := parseTimestamp(v)
		if err != nil {
			return params, badQuery("completed_before", "completed_before must be an RFC 3339 timestamp or a date")
		}
		params.CompletedBefore = &t
	}
	return params, nil
}

// List returns the owner's purchases newest first.
func (s *Service) List(ctx context.Context, userID string, params ListParams) (ListResult, error) {
	if s == nil || s.Store == nil {
		return ListResult{}, errors.New("purchase service not configured")
	}
	owner, err := ownerUUID(userID)
	if err != nil {
		return ListResult{}, &common.AppError{Code: "UNAUTHORIZED", Message: "invalid user", HTTPStatus: http.StatusUnauthorized, Err: err}
	}

	filter := dbgen.ListPurchasesForUserParams{
		UserID:      owner,
		LimitValue:  int32(params.Limit),
		OffsetValue: int32((params.Page - 1) * params.Limit),
	}
	if params.Store != "" {
		filter.Store = pgtype.Text{String: params.Store, Valid: true}
	}
	if params.Currency != "" {
		filter.Currency = pgtype.Text{String: params.Currency, Valid: true}
	}
	if params.MinTotal != nil {
		filter.MinTotal = *params.MinTotal
	}
	if params.MaxTotal != nil {
		filter.MaxTotal = *params.MaxTotal
	}
	if params.CompletedAfter != nil {
		filter.CompletedAfter = pgtype.Timestamptz{Time: *params.CompletedAfter, Valid: true}
	}
	if params.CompletedBefore != nil {
		filter.CompletedBefore = pgtype.Timestamptz{Time: *params.CompletedBefore, Valid: true}
	}
	if params.Tag != "" {
		filter.Tag = pgtype.Text{String: params.Tag, Valid: true}
	}

	rows, err := s.Store.List(ctx, filter)
	if err != nil {
		return ListResult{}, internalError(err)
	}
	total, err := s.Store.Count(ctx, dbgen.CountPurchasesForUserParams{
		UserID:          filter.UserID,
		Store:           filter.Store,
		Currency:        filter.Currency,
		MinTotal:        filter.MinTotal,
		MaxTotal:        filter.MaxTotal,
		CompletedAfter:  filter.CompletedAfter,
		CompletedBefore: filter.CompletedBefore,
		Tag:             filter.Tag,
	})
	if err != nil {
		return ListResult{}, internalError(err)
	}

	views := make([]View, 0, len(rows))
	for _, row := range rows {
		view, err := toView(row, nil)
		if err != nil {
			return ListResult{}, internalError(err)
		}
		views = append(views, view)
	}
	return ListResult{Items: views, Page: params.Page, Limit: params.Limit, Total: total}, nil
}

func createParams(owner pgtype.UUID, norm Normalized, totals Totals) (dbgen.CreatePurchaseParams, error) {
	params := dbgen.CreatePurchaseParams{
		UserID:      owner,
		CartName:    norm.CartName,
		StoreName:   norm.StoreName,
		Currency:    norm.Currency,
		Notes:       norm.Notes,
		ItemsCount:  int32(totals.ItemsCount),
		TotalAmount: money.NumericFromDecimal(money.Round2(totals.TotalAmount)),
	}
	if len(norm.Tags) > 0 {
		b, err := json.Marshal(norm.Tags)
		if err != nil {
			return dbgen.CreatePurchaseParams{}, err
		}
		params.Tags = b
	}
	if norm.IdempotencyKey != "" {
		params.IdempotencyKey = pgtype.Text{String: norm.IdempotencyKey, Valid: true}
	}
	return params, nil
}

func toView(row dbgen.Purchase, itemRows []dbgen.PurchaseItem) (View, error) {
	total := money.DecimalFromNumeric(row.TotalAmount)
	view := View{
		ID:          common.UUIDString(row.ID),
		CartName:    row.CartName,
		StoreName:   row.StoreName,
		Currency:    row.Currency,
		Notes:       row.Notes,
		Tags:        []string{},
		ItemsCount:  row.ItemsCount,
		TotalAmount: total.StringFixed(2),
		CompletedAt: row.CompletedAt.Time,
	}
	if row.IdempotencyKey.Valid {
		view.IdempotencyKey = row.IdempotencyKey.String
	}
	if len(row.Tags) > 0 {
		if err := json.Unmarshal(row.Tags, &view.Tags); err != nil {
			return View{}, err
		}
	}
	for _, it := range itemRows {
		unitPrice := money.DecimalFromNumeric(it.UnitPrice)
		view.Items = append(view.Items, ItemView{
			ID:        common.UUIDString(it.ID),
			Name:      it.Name,
			UnitPrice: unitPrice.StringFixed(2),
			Quantity:  it.Quantity,
			LineTotal: money.LineTotal(unitPrice, int(it.Quantity)).StringFixed(2),
			CreatedAt: it.CreatedAt.Time,
		})
	}
	return view, nil
}

func ownerUUID(userID string) (pgtype.UUID, error) {
	if strings.TrimSpace(userID) == "" {
		return pgtype.UUID{}, nil
	}
	return common.ToUUID(userID)
}

func parseTimestamp(v string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func countCreate(result string) {
	if obs.PurchaseCreatedTotal != nil {
		obs.PurchaseCreatedTotal.WithLabelValues(result).Inc()
	}
}

func badQuery(field, message string) *common.AppError {
	return &common.AppError{
		Code:       "VALIDATION_ERROR",
		Message:    "invalid query parameters",
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]string{field: message},
	}
}

func notFound() *common.AppError {
	return &common.AppError{Code: "NOT_FOUND", Message: "purchase not found", HTTPStatus: http.StatusNotFound}
}

func internalError(err error) *common.AppError {
	return &common.AppError{Code: "INTERNAL", Message: "internal error", HTTPStatus: http.StatusInternalServerError, Err: err}
}
