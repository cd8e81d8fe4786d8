package models

import (
	"strings"
	"time"
)

// CampusLabel is the reserved batch label and department name meaning "the whole institution".
const CampusLabel = "campus"

// IsCampusName compares a label with the Campus sentinel ignoring case and surrounding spaces.
func IsCampusName(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), CampusLabel)
}

// Batch is a student cohort.
type Batch struct {
	ID        int64     `db:"id" json:"id"`
	Label     string    `db:"label" json:"label"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsCampus reports whether the batch stands for every cohort.
func (b Batch) IsCampus() bool { return IsCampusName(b.Label) }

// Department groups academic staff and programmes.
type Department struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// IsCampus reports whether the department stands for the whole institution.
func (d Department) IsCampus() bool { return IsCampusName(d.Name) }

// Building contains venues.
type Building struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Student is read only here; rosters are managed elsewhere.
type Student struct {
	ID       int64  `db:"id" json:"id"`
	FullName string `db:"full_name" json:"full_name"`
	BatchID  *int64 `db:"batch_id" json:"batch_id,omitempty"`
}
