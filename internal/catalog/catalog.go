package catalog

import (
	"database/sql"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"

	"ruralbites/m/domain"
)

// Catalog is a read-only view over the seeded menu and dining tables.
type Catalog struct {
	db *sqlx.DB
}

// New constructs a Catalog over an already migrated and seeded database.
func New(db *sqlx.DB) *Catalog {
	return &Catalog{db: db}
}

// Item looks up a single menu item by id.
func (c *Catalog) Item(id string) (domain.MenuItem, bool) {
	var item domain.MenuItem
	err := c.db.Get(&item, `SELECT id, name, category, price, description FROM menu_items WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.MenuItem{}, false
	}
	if err != nil {
		return domain.MenuItem{}, false
	}
	return item, true
}

// Items lists menu items, optionally narrowed by category and a
// case-insensitive name/description search.
func (c *Catalog) Items(category, search string) []domain.MenuItem {
	query := `SELECT id, name, category, price, description FROM menu_items`
	clauses := []string{}
	args := []any{}
	if category != "" && category != "all" {
		clauses = append(clauses, "category = ?")
		args = append(args, category)
	}
	if trimmed := strings.TrimSpace(search); trimmed != "" {
		like := "%" + strings.ToLower(trimmed) + "%"
		clauses = append(clauses, "(LOWER(name) LIKE ? OR LOWER(description) LIKE ?)")
		args = append(args, like, like)
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY category, name"

	var items []domain.MenuItem
	if err := c.db.Select(&items, query, args...); err != nil {
		return nil
	}
	return items
}

// Table looks up a dining table by id.
func (c *Catalog) Table(id int64) (domain.Table, bool) {
	var table domain.Table
	err := c.db.Get(&table, `SELECT id, name, seats, zone FROM dining_tables WHERE id = ?`, id)
	if err != nil {
		return domain.Table{}, false
	}
	return table, true
}

// Tables lists every dining table.
func (c *Catalog) Tables() []domain.Table {
	var tables []domain.Table
	if err := c.db.Select(&tables, `SELECT id, name, seats, zone FROM dining_tables ORDER BY id`); err != nil {
		return nil
	}
	return tables
}
