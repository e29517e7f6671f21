package domain

type MenuItem struct {
	ID          string `db:"id" json:"id"`
	Name        string `db:"name" json:"name"`
	Category    string `db:"category" json:"category"`
	Price       int64  `db:"price" json:"price"`
	Description string `db:"description" json:"description"`
}
