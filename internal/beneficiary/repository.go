package beneficiary

import (
	"time"

	"recibi/internal/logging"
)

// Repository is a read-only view over loaded records.
type Repository struct {
	source        string
	records       []Record
	byID          map[string]int
	professionals []string
}

// NewRepository indexes records. On duplicate identifiers the first row wins.
func NewRepository(source string, records []Record, professionals []string) *Repository {
	r := &Repository{
		source:        source,
		records:       records,
		byID:          make(map[string]int, len(records)),
		professionals: professionals,
	}
	for i, rec := range records {
		id := NormalizeID(rec.ID)
		if id == "" {
			continue
		}
		if _, dup := r.byID[id]; dup {
			logging.DataWarn("duplicate identifier %s at row %d ignored", id, rec.Row)
			continue
		}
		r.byID[id] = i
	}
	return r
}

// Source is the path the records came from.
func (r *Repository) Source() string {
	return r.source
}

// Len returns the number of addressable records.
func (r *Repository) Len() int {
	return len(r.byID)
}

// Professionals returns the names offered in the professional selector.
func (r *Repository) Professionals() []string {
	out := make([]string, len(r.professionals))
	copy(out, r.professionals)
	return out
}

// FindByID looks up a record. Spaces in id are ignored.
func (r *Repository) FindByID(id string) (Record, bool) {
	i, ok := r.byID[NormalizeID(id)]
	if !ok {
		return Record{}, false
	}
	return r.records[i], true
}

// ResolveMinorAndGuardian reports whether id belongs to a minor at now, along
// with the birth date and the holder id found in the data. An absent record
// or unknown birth date yields IsMinor=false; missing data is not an error.
func (r *Repository) ResolveMinorAndGuardian(id string, now time.Time) MinorStatus {
	rec, ok := r.FindByID(id)
	if !ok || !rec.HasBirthDate() {
		return MinorStatus{}
	}
	return MinorStatus{
		IsMinor:   AgeAt(rec.BirthDate, now) < AdultAge,
		BirthDate: rec.BirthDate,
		HolderID:  NormalizeID(rec.HolderID),
	}
}
