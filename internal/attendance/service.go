package attendance

import (
	"context"
	"errors"
	"time"

	"attendanceportal/internal/apperr"
	"attendanceportal/internal/student"
)

// Directory is the slice of the student directory the ledger logic needs.
// student.Repository satisfies it.
type Directory interface {
	GetByBarcode(ctx context.Context, barcode string) (*student.Student, error)
	ByBarcodes(ctx context.Context, barcodes []string) ([]student.Student, error)
	RosterByClasses(ctx context.Context, classes []int) ([]student.Student, error)
	CountAll(ctx context.Context) (int64, error)
}

// Service is the attendance reconciler. All mutations go through it; the
// ledger's conditional updates back up its duplicate checks so concurrent
// requests cannot violate the one-list-per-barcode invariant.
type Service struct {
	ledger Ledger
	dir    Directory
	loc    *time.Location
	now    func() time.Time
}

// NewService creates a reconciler bucketing instants into loc's calendar days.
func NewService(ledger Ledger, dir Directory, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{ledger: ledger, dir: dir, loc: loc, now: time.Now}
}

// MarkPresent records a scan: barcode must be a known student, and the barcode
// must not yet appear in either of today's lists.
func (s *Service) MarkPresent(ctx context.Context, barcode string, ts time.Time) (Entry, error) {
	if barcode == "" {
		return Entry{}, apperr.Invalid("barcode is required")
	}
	if ts.IsZero() {
		return Entry{}, apperr.Invalid("timestamp is required")
	}

	st, err := s.dir.GetByBarcode(ctx, barcode)
	if err != nil {
		return Entry{}, err
	}
	if st == nil {
		return Entry{}, apperr.NotFound("invalid barcode, student not found")
	}

	date := DayOf(ts, s.loc)
	day, err := s.ledger.Day(ctx, date)
	if err != nil {
		return Entry{}, err
	}
	if day != nil {
		if day.HasAbsent(barcode) {
			return Entry{}, apperr.Conflict("student is marked as absent, cannot mark as present")
		}
		if day.HasPresent(barcode) {
			return Entry{}, apperr.Conflict("attendance already marked for this student today")
		}
	}

	e := Entry{Barcode: barcode, Timestamp: ts}
	if err := s.ledger.AppendPresent(ctx, date, e); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return Entry{}, apperr.Conflict("attendance already marked for this student today")
		}
		return Entry{}, err
	}
	return e, nil
}

// BulkResult reports the outcome of a bulk-absent call. An empty Marked slice
// with a non-zero RosterSize means every student was already present.
type BulkResult struct {
	Marked     []Entry
	RosterSize int
}

// MarkAbsentees marks every student of the given classes who is not in
// today's present list as absent, in one guarded append. A second call for
// the same classes on the same day is a conflict.
func (s *Service) MarkAbsentees(ctx context.Context, classes []int) (BulkResult, error) {
	if len(classes) == 0 {
		return BulkResult{}, apperr.Invalid("please provide a valid class to mark absentees")
	}
	for _, c := range classes {
		if !student.ValidClass(c) {
			return BulkResult{}, apperr.Invalid("invalid class")
		}
	}

	roster, err := s.dir.RosterByClasses(ctx, classes)
	if err != nil {
		return BulkResult{}, err
	}
	if len(roster) == 0 {
		return BulkResult{}, nil
	}

	now := s.now()
	date := DayOf(now, s.loc)
	day, err := s.ledger.Day(ctx, date)
	if err != nil {
		return BulkResult{}, err
	}

	present := make(map[string]bool)
	if day != nil {
		for _, a := range day.AbsentList {
			for _, c := range classes {
				if a.Class == c {
					return BulkResult{}, apperr.Conflict("absentees for the selected class have already been marked today")
				}
			}
		}
		for _, p := range day.PresentList {
			present[p.Barcode] = true
		}
	}

	var entries []Entry
	for _, st := range roster {
		if !present[st.Barcode] {
			entries = append(entries, Entry{Barcode: st.Barcode, Class: st.Class, Timestamp: now})
		}
	}
	if len(entries) == 0 {
		return BulkResult{RosterSize: len(roster)}, nil
	}

	if err := s.ledger.AppendAbsent(ctx, date, entries, classes); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return BulkResult{}, apperr.Conflict("absentees for the selected class have already been marked today")
		}
		return BulkResult{}, err
	}
	return BulkResult{Marked: entries, RosterSize: len(roster)}, nil
}

// UpdateStatus corrects a historical record by moving the barcode between the
// two lists of an existing day, preserving its original timestamp. It is the
// only transition path and never produces a second entry for the barcode.
func (s *Service) UpdateStatus(ctx context.Context, barcode string, date time.Time, status Status) error {
	if barcode == "" || date.IsZero() {
		return apperr.Invalid("barcode, date, and status are required")
	}
	if !ValidStatus(status) {
		return apperr.Invalid("invalid status, use PRESENT or ABSENT")
	}

	key := DateKey(date)
	day, err := s.ledger.Day(ctx, key)
	if err != nil {
		return err
	}
	if day == nil {
		return apperr.NotFound("attendance record not found for the given date")
	}

	var src []Entry
	switch status {
	case StatusPresent:
		if day.HasPresent(barcode) {
			return apperr.AlreadyInState("attendance already marked as PRESENT")
		}
		src = day.AbsentList
	case StatusAbsent:
		if day.HasAbsent(barcode) {
			return apperr.AlreadyInState("attendance already marked as ABSENT")
		}
		src = day.PresentList
	}

	entry := findEntry(src, barcode)
	if entry == nil {
		if status == StatusPresent {
			return apperr.NotFound("barcode not found in absent list")
		}
		return apperr.NotFound("student not found on given date")
	}

	if err := s.ledger.Move(ctx, key, *entry, status); err != nil {
		if errors.Is(err, ErrConditionFailed) {
			return apperr.Conflict("attendance record changed, retry the update")
		}
		return err
	}
	return nil
}

// RemoveBarcodes cascades a directory deletion into the ledger.
func (s *Service) RemoveBarcodes(ctx context.Context, barcodes []string) error {
	return s.ledger.RemoveBarcodes(ctx, barcodes)
}
