package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/abasta/internal/domain"
)

const (
	opTimeout = 5 * time.Second
)

// sessionState: JSONB-документ состояния черновика. Идентификаторы, владелец и версия лежат в колонках.
type sessionState struct {
	SourceOrderID string                  `json:"source_order_id,omitempty"`
	Draft         draftState              `json:"draft"`
	Guard         domain.SupplierGuard    `json:"guard"`
	Supplier      *domain.SupplierProfile `json:"supplier,omitempty"`
	Dispatch      domain.DispatchState    `json:"dispatch"`
	Catalog       domain.CatalogQuery     `json:"catalog"`
	Finalized     bool                    `json:"finalized,omitempty"`
}

type draftState struct {
	OrderID    string             `json:"order_id,omitempty"`
	Name       string             `json:"name"`
	SupplierID string             `json:"supplier_id,omitempty"`
	Items      []lineItemState    `json:"items"`
	Notes      string             `json:"notes,omitempty"`
	Status     domain.OrderStatus `json:"status"`
}

type lineItemState struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	Notes       string          `json:"notes,omitempty"`
}

type draftRepository struct {
	db *sql.DB
}

// NewDraftRepository создаёт PostgreSQL-реализацию DraftRepository.
func NewDraftRepository(store *Store) domain.DraftRepository {
	return &draftRepository{db: store.DB()}
}

func (r *draftRepository) Create(session domain.ComposeSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	state, err := encodeState(session)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO compose_sessions (
			id, owner_id, order_id, mode, state, version, created_at, updated_at
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`,
		session.ID, session.OwnerID, nullableString(session.Draft.OrderID), string(session.Mode),
		state, session.Version, session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionVersionConflict
		}
		return fmt.Errorf("insert compose session: %w", err)
	}
	return nil
}

func (r *draftRepository) Get(id string) (domain.ComposeSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	row := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, mode, state, version, created_at, updated_at
		FROM compose_sessions
		WHERE id = $1
	`, id)
	session, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ComposeSession{}, domain.ErrSessionNotFound
		}
		return domain.ComposeSession{}, err
	}
	return session, nil
}

// Save обновляет строку только при совпадении версии и увеличивает её.
func (r *draftRepository) Save(session domain.ComposeSession) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	state, err := encodeState(session)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE compose_sessions
		SET owner_id = $1,
		    order_id = $2,
		    mode = $3,
		    state = $4,
		    version = version + 1,
		    updated_at = $5
		WHERE id = $6
		  AND version = $7
	`,
		session.OwnerID, nullableString(session.Draft.OrderID), string(session.Mode), state,
		session.UpdatedAt, session.ID, session.Version,
	)
	if err != nil {
		return fmt.Errorf("update compose session: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.exists(ctx, session.ID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrSessionNotFound
		}
		return domain.ErrSessionVersionConflict
	}
	return nil
}

func (r *draftRepository) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	res, err := r.db.ExecContext(ctx, `DELETE FROM compose_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete compose session: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

func (r *draftRepository) ListByOwner(ownerID string) ([]domain.ComposeSession, error) {
	return r.list(`
		SELECT id, owner_id, mode, state, version, created_at, updated_at
		FROM compose_sessions
		WHERE owner_id = $1
		ORDER BY created_at DESC, id DESC
	`, ownerID)
}

func (r *draftRepository) FindByOrderID(orderID string) ([]domain.ComposeSession, error) {
	if orderID == "" {
		return nil, nil
	}
	return r.list(`
		SELECT id, owner_id, mode, state, version, created_at, updated_at
		FROM compose_sessions
		WHERE order_id = $1
		ORDER BY created_at DESC, id DESC
	`, orderID)
}

func (r *draftRepository) list(query string, arg string) ([]domain.ComposeSession, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rows, err := r.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("list compose sessions: %w", err)
	}
	defer rows.Close()

	sessions := make([]domain.ComposeSession, 0)
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate compose sessions: %w", err)
	}
	return sessions, nil
}

func (r *draftRepository) exists(ctx context.Context, id string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT id FROM compose_sessions WHERE id = $1`, id).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check compose session exists: %w", err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (domain.ComposeSession, error) {
	var (
		session domain.ComposeSession
		mode    string
		raw     []byte
	)
	if err := row.Scan(&session.ID, &session.OwnerID, &mode, &raw, &session.Version, &session.CreatedAt, &session.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ComposeSession{}, err
		}
		return domain.ComposeSession{}, fmt.Errorf("scan compose session: %w", err)
	}
	session.Mode = domain.ComposeMode(mode)
	session.CreatedAt = session.CreatedAt.UTC()
	session.UpdatedAt = session.UpdatedAt.UTC()

	if err := decodeState(raw, &session); err != nil {
		return domain.ComposeSession{}, fmt.Errorf("decode compose session %s: %w", session.ID, err)
	}
	return session, nil
}

func encodeState(session domain.ComposeSession) ([]byte, error) {
	items := make([]lineItemState, 0, len(session.Draft.Items))
	for _, item := range session.Draft.Items {
		items = append(items, lineItemState{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			Notes:       item.Notes,
		})
	}
	state := sessionState{
		SourceOrderID: session.SourceOrderID,
		Draft: draftState{
			OrderID:    session.Draft.OrderID,
			Name:       session.Draft.Name,
			SupplierID: session.Draft.SupplierID,
			Items:      items,
			Notes:      session.Draft.Notes,
			Status:     session.Draft.Status,
		},
		Guard:     session.Guard,
		Supplier:  session.Supplier,
		Dispatch:  session.Dispatch,
		Catalog:   session.Catalog,
		Finalized: session.Finalized,
	}
	raw, err := json.Marshal(state)
	if err != nil {
		return nil, fmt.Errorf("encode compose session %s: %w", session.ID, err)
	}
	return raw, nil
}

func decodeState(raw []byte, session *domain.ComposeSession) error {
	var state sessionState
	if err := json.Unmarshal(raw, &state); err != nil {
		return err
	}

	items := make([]domain.LineItem, 0, len(state.Draft.Items))
	for _, item := range state.Draft.Items {
		items = append(items, domain.LineItem{
			ProductID:   item.ProductID,
			ProductName: item.ProductName,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Subtotal:    item.Subtotal,
			Notes:       item.Notes,
		})
	}
	session.SourceOrderID = state.SourceOrderID
	session.Draft = domain.Draft{
		OrderID:    state.Draft.OrderID,
		Name:       state.Draft.Name,
		SupplierID: state.Draft.SupplierID,
		Items:      items,
		Notes:      state.Draft.Notes,
		Status:     state.Draft.Status,
	}
	session.Guard = state.Guard
	session.Supplier = state.Supplier
	session.Dispatch = state.Dispatch
	session.Catalog = state.Catalog
	session.Finalized = state.Finalized
	return nil
}

func nullableString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

var _ domain.DraftRepository = (*draftRepository)(nil)
