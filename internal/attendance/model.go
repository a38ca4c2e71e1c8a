// Package attendance implements the daily attendance ledger: one document per
// calendar day with a present list and an absent list, the reconciler that
// mutates them, and the read-only reporting views derived from them.
package attendance

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Status is the resolved attendance state of a barcode on a day.
type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
)

// ValidStatus reports whether s is a recognized status.
func ValidStatus(s Status) bool {
	return s == StatusPresent || s == StatusAbsent
}

// Entry is one (barcode, timestamp) record inside a day's list. Bulk-marked
// absent entries also carry the class so double bulk-marking can be detected;
// entries moved by a correction keep only barcode and timestamp.
type Entry struct {
	Barcode   string    `bson:"barcode" json:"barcode"`
	Class     int       `bson:"class,omitempty" json:"class,omitempty"`
	Timestamp time.Time `bson:"timestamp" json:"timestamp"`
}

// Day is the per-calendar-day ledger document. Invariant: a barcode appears in
// at most one of PresentList/AbsentList.
type Day struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	Date        time.Time          `bson:"date" json:"date"`
	PresentList []Entry            `bson:"presentList" json:"presentList"`
	AbsentList  []Entry            `bson:"absentList" json:"absentList"`
}

// HasPresent reports whether barcode is in the present list.
func (d *Day) HasPresent(barcode string) bool {
	return findEntry(d.PresentList, barcode) != nil
}

// HasAbsent reports whether barcode is in the absent list.
func (d *Day) HasAbsent(barcode string) bool {
	return findEntry(d.AbsentList, barcode) != nil
}

func findEntry(list []Entry, barcode string) *Entry {
	for i := range list {
		if list[i].Barcode == barcode {
			return &list[i]
		}
	}
	return nil
}

// DayOf buckets an absolute instant into the school's local calendar day,
// stored as midnight UTC of that date.
func DayOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DateKey truncates an already-resolved calendar date to its canonical key.
// Unlike DayOf it does not shift time zones: the caller is naming a day, not
// an instant.
func DateKey(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
