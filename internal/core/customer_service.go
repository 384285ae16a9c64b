package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type customerService struct {
	pool *pgxpool.Pool
}

func NewCustomerService(pool *pgxpool.Pool) CustomerService {
	return &customerService{pool: pool}
}

const customerColumns = `id, shop_id, name, mobile, email, address, gstin, state, created_at, updated_at`

const siteColumns = `id, shop_id, customer_id, name, address, contact_person, mobile, created_at`

func scanCustomer(row pgx.Row) (*Customer, error) {
	c := &Customer{}
	err := row.Scan(&c.ID, &c.ShopID, &c.Name, &c.Mobile, &c.Email, &c.Address, &c.GSTIN, &c.State, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

func scanSite(row pgx.Row) (*Site, error) {
	st := &Site{}
	err := row.Scan(&st.ID, &st.ShopID, &st.CustomerID, &st.Name, &st.Address, &st.ContactPerson, &st.Mobile, &st.CreatedAt)
	return st, err
}

func (s *customerService) CreateCustomer(ctx context.Context, shopID int, in CustomerInput) (*Customer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("customer name is required: %w", ErrInvalidInput)
	}
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		INSERT INTO customers (shop_id, name, mobile, email, address, gstin, state)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+customerColumns,
		shopID, strings.TrimSpace(in.Name), in.Mobile, in.Email, in.Address, in.GSTIN, in.State,
	))
	if err != nil {
		return nil, wrapDBError(err, "customer")
	}
	return c, nil
}

// getCustomer is shop scoped; a customer of another shop reads as not found.
func getCustomer(ctx context.Context, q querier, shopID, id int) (*Customer, error) {
	c, err := scanCustomer(q.QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1 AND shop_id = $2`, id, shopID))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("customer id=%d", id))
	}
	return c, nil
}

func (s *customerService) GetCustomer(ctx context.Context, shopID, id int) (*Customer, error) {
	return getCustomer(ctx, s.pool, shopID, id)
}

func (s *customerService) ListCustomers(ctx context.Context, shopID int, search string) ([]Customer, error) {
	pattern := ""
	if q := strings.TrimSpace(search); q != "" {
		pattern = "%" + q + "%"
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+customerColumns+`
		FROM customers
		WHERE shop_id = $1 AND ($2 = '' OR name ILIKE $2 OR mobile ILIKE $2)
		ORDER BY name, id`,
		shopID, pattern,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query customers: %w", err)
	}
	defer rows.Close()

	out := []Customer{}
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan customer: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *customerService) UpdateCustomer(ctx context.Context, shopID, id int, in CustomerInput) (*Customer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("customer name is required: %w", ErrInvalidInput)
	}
	c, err := scanCustomer(s.pool.QueryRow(ctx, `
		UPDATE customers
		SET name = $3, mobile = $4, email = $5, address = $6, gstin = $7, state = $8, updated_at = NOW()
		WHERE id = $1 AND shop_id = $2
		RETURNING `+customerColumns,
		id, shopID, strings.TrimSpace(in.Name), in.Mobile, in.Email, in.Address, in.GSTIN, in.State,
	))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("customer id=%d", id))
	}
	return c, nil
}

func (s *customerService) DeleteCustomer(ctx context.Context, shopID, id int) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM customers WHERE id = $1 AND shop_id = $2`, id, shopID)
	if err != nil {
		return wrapDBError(err, fmt.Sprintf("customer id=%d", id))
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("customer id=%d: %w", id, ErrNotFound)
	}
	return nil
}

func (s *customerService) CreateSite(ctx context.Context, shopID int, in SiteInput) (*Site, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, fmt.Errorf("site name is required: %w", ErrInvalidInput)
	}
	if in.CustomerID != nil {
		if _, err := getCustomer(ctx, s.pool, shopID, *in.CustomerID); err != nil {
			return nil, err
		}
	}
	st, err := scanSite(s.pool.QueryRow(ctx, `
		INSERT INTO sites (shop_id, customer_id, name, address, contact_person, mobile)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+siteColumns,
		shopID, in.CustomerID, strings.TrimSpace(in.Name), in.Address, in.ContactPerson, in.Mobile,
	))
	if err != nil {
		return nil, wrapDBError(err, "site")
	}
	return st, nil
}

func getSite(ctx context.Context, q querier, shopID, id int) (*Site, error) {
	st, err := scanSite(q.QueryRow(ctx, `SELECT `+siteColumns+` FROM sites WHERE id = $1 AND shop_id = $2`, id, shopID))
	if err != nil {
		return nil, wrapDBError(err, fmt.Sprintf("site id=%d", id))
	}
	return st, nil
}

func (s *customerService) GetSite(ctx context.Context, shopID, id int) (*Site, error) {
	return getSite(ctx, s.pool, shopID, id)
}

func (s *customerService) ListSites(ctx context.Context, shopID int, customerID *int) ([]Site, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+siteColumns+`
		FROM sites
		WHERE shop_id = $1 AND ($2::int IS NULL OR customer_id = $2)
		ORDER BY name, id`,
		shopID, customerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sites: %w", err)
	}
	defer rows.Close()

	out := []Site{}
	for rows.Next() {
		st, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan site: %w", err)
		}
		out = append(out, *st)
	}
	return out, rows.Err()
}
