package domain

type Table struct {
	ID    int64  `db:"id" json:"id"`
	Name  string `db:"name" json:"name"`
	Seats int64  `db:"seats" json:"seats"`
	Zone  string `db:"zone" json:"zone"`
}
