package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type shopService struct {
	pool  *pgxpool.Pool
	audit AuditService
}

// NewShopService constructs a ShopService backed by PostgreSQL.
func NewShopService(pool *pgxpool.Pool, audit AuditService) ShopService {
	return &shopService{pool: pool, audit: audit}
}

const shopColumns = `id, name, owner_name, mobile, email, address, gstin, state, state_code, bank_details, created_at`

const userColumns = `id, shop_id, username, full_name, password_hash, role, is_active, created_at`

func scanShop(row pgx.Row) (*Shop, error) {
	sh := &Shop{}
	err := row.Scan(&sh.ID, &sh.Name, &sh.OwnerName, &sh.Mobile, &sh.Email, &sh.Address,
		&sh.GSTIN, &sh.State, &sh.StateCode, &sh.BankDetails, &sh.CreatedAt)
	return sh, err
}

func scanUser(row pgx.Row) (*User, error) {
	u := &User{}
	err := row.Scan(&u.ID, &u.ShopID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role, &u.IsActive, &u.CreatedAt)
	return u, err
}

func validateShopInput(in ShopInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return fmt.Errorf("shop name is required: %w", ErrInvalidInput)
	}
	return nil
}

func validateUserInput(in UserInput) error {
	if strings.TrimSpace(in.Username) == "" {
		return fmt.Errorf("username is required: %w", ErrInvalidInput)
	}
	if in.PasswordHash == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidInput)
	}
	if in.Role != RoleAdmin && in.Role != RoleStaff {
		return fmt.Errorf("role %q must be ADMIN or STAFF: %w", in.Role, ErrInvalidInput)
	}
	return nil
}

func (s *shopService) RegisterShop(ctx context.Context, in ShopInput, admin UserInput) (*Shop, *User, error) {
	admin.Role = RoleAdmin
	if err := validateShopInput(in); err != nil {
		return nil, nil, err
	}
	if err := validateUserInput(admin); err != nil {
		return nil, nil, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	shop, err := scanShop(tx.QueryRow(ctx, `
		INSERT INTO shops (name, owner_name, mobile, email, address, gstin, state, state_code, bank_details)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+shopColumns,
		strings.TrimSpace(in.Name), in.OwnerName, in.Mobile, in.Email, in.Address, in.GSTIN, in.State, in.StateCode, in.BankDetails,
	))
	if err != nil {
		return nil, nil, wrapDBError(err, "shop")
	}

	user, err := insertUser(ctx, tx, shop.ID, admin)
	if err != nil {
		return nil, nil, err
	}

	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shop.ID, Username: user.Username, Action: "REGISTER_SHOP",
		EntityType: "SHOP", EntityID: intPtr(shop.ID),
	}); err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return shop, user, nil
}

func insertUser(ctx context.Context, tx pgx.Tx, shopID int, in UserInput) (*User, error) {
	u, err := scanUser(tx.QueryRow(ctx, `
		INSERT INTO users (shop_id, username, full_name, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING `+userColumns,
		shopID, strings.TrimSpace(in.Username), in.FullName, in.PasswordHash, string(in.Role),
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("username %q", in.Username))
	}
	return u, nil
}

func (s *shopService) GetShop(ctx context.Context, shopID int) (*Shop, error) {
	sh, err := scanShop(s.pool.QueryRow(ctx, `SELECT `+shopColumns+` FROM shops WHERE id = $1`, shopID))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("shop id=%d", shopID))
	}
	return sh, nil
}

func (s *shopService) UpdateShop(ctx context.Context, shopID int, in ShopInput) (*Shop, error) {
	if err := validateShopInput(in); err != nil {
		return nil, err
	}
	sh, err := scanShop(s.pool.QueryRow(ctx, `
		UPDATE shops
		SET name = $2, owner_name = $3, mobile = $4, email = $5, address = $6,
		    gstin = $7, state = $8, state_code = $9, bank_details = $10
		WHERE id = $1
		RETURNING `+shopColumns,
		shopID, strings.TrimSpace(in.Name), in.OwnerName, in.Mobile, in.Email, in.Address,
		in.GSTIN, in.State, in.StateCode, in.BankDetails,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("shop id=%d", shopID))
	}
	return sh, nil
}

func (s *shopService) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE username = $1 AND is_active = true LIMIT 1`,
		username,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("user %q", username))
	}
	return u, nil
}

func (s *shopService) GetUser(ctx context.Context, shopID, userID int) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx,
		`SELECT `+userColumns+` FROM users WHERE id = $1 AND shop_id = $2`,
		userID, shopID,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("user id=%d", userID))
	}
	return u, nil
}

func (s *shopService) CreateUser(ctx context.Context, shopID int, in UserInput) (*User, error) {
	if err := validateUserInput(in); err != nil {
		return nil, err
	}
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	u, err := insertUser(ctx, tx, shopID, in)
	if err != nil {
		return nil, err
	}
	if err := s.audit.RecordTx(ctx, tx, AuditEntry{
		ShopID: shopID, Action: "CREATE_USER", EntityType: "USER", EntityID: intPtr(u.ID),
		Details: map[string]any{"username": u.Username, "role": u.Role},
	}); err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return u, nil
}

func (s *shopService) ListUsers(ctx context.Context, shopID int) ([]User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE shop_id = $1 ORDER BY username`, shopID)
	if err != nil {
		return nil, fmt.Errorf("failed to query users: %w", err)
	}
	defer rows.Close()

	users := []User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *shopService) SetUserActive(ctx context.Context, shopID, userID int, active bool) (*User, error) {
	u, err := scanUser(s.pool.QueryRow(ctx, `
		UPDATE users SET is_active = $3
		WHERE id = $1 AND shop_id = $2
		RETURNING `+userColumns,
		userID, shopID, active,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("user id=%d", userID))
	}
	return u, nil
}

func (s *shopService) UpdatePasswordHash(ctx context.Context, userID int, hash string) error {
	if hash == "" {
		return fmt.Errorf("password is required: %w", ErrInvalidInput)
	}
	tag, err := s.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, userID, hash)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user id=%d: %w", userID, ErrNotFound)
	}
	return nil
}
