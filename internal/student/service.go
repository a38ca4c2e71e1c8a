package student

import (
	"context"
	"fmt"

	"attendanceportal/internal/apperr"
)

// LedgerCleaner removes barcodes from every attendance day. The attendance
// repository implements it; the directory uses it to cascade deletions.
type LedgerCleaner interface {
	RemoveBarcodes(ctx context.Context, barcodes []string) error
}

// Service coordinates directory mutations and their ledger cascades.
type Service struct {
	repo   Repository
	ledger LedgerCleaner
}

// NewService creates a directory service.
func NewService(repo Repository, ledger LedgerCleaner) *Service {
	return &Service{repo: repo, ledger: ledger}
}

// Add registers a new student. Duplicate barcodes are rejected.
func (s *Service) Add(ctx context.Context, st Student) (Student, error) {
	if err := validate(st); err != nil {
		return Student{}, err
	}
	created, err := s.repo.Insert(ctx, st)
	if err != nil {
		if err == ErrDuplicateBarcode {
			return Student{}, apperr.Conflict("student with this barcode already exists")
		}
		return Student{}, err
	}
	return created, nil
}

// Edit updates a student record by id.
func (s *Service) Edit(ctx context.Context, id string, st Student) (Student, error) {
	if err := validate(st); err != nil {
		return Student{}, err
	}
	updated, err := s.repo.Update(ctx, id, st)
	if err != nil {
		if err == ErrDuplicateBarcode {
			return Student{}, apperr.Conflict("student with this barcode already exists")
		}
		return Student{}, err
	}
	if updated == nil {
		return Student{}, apperr.NotFound("student not found")
	}
	return *updated, nil
}

// Delete removes a student and every occurrence of its barcode in the ledger.
func (s *Service) Delete(ctx context.Context, id string) error {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if st == nil {
		return apperr.NotFound("student not found")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	return s.ledger.RemoveBarcodes(ctx, []string{st.Barcode})
}

// Get returns a single student by id.
func (s *Service) Get(ctx context.Context, id string) (Student, error) {
	st, err := s.repo.Get(ctx, id)
	if err != nil {
		return Student{}, err
	}
	if st == nil {
		return Student{}, apperr.NotFound("student not found")
	}
	return *st, nil
}

// List returns students of a class filtered by gender and a name/city search.
// gender may be "All" or empty to skip the filter.
func (s *Service) List(ctx context.Context, class int, gender, search string) ([]Student, error) {
	if class < 1 {
		return nil, apperr.Invalid("invalid or missing class specified")
	}
	if gender == "All" || gender == "ALL" {
		gender = ""
	}
	if gender != "" && !ValidGender(gender) {
		return nil, apperr.Invalid("invalid gender specified")
	}
	return s.repo.List(ctx, class, gender, search)
}

// PurgeClass deletes every student of a class together with their ledger
// entries and returns the number of students removed.
func (s *Service) PurgeClass(ctx context.Context, class int) (int64, error) {
	if !ValidClass(class) {
		return 0, apperr.Invalid("invalid class")
	}
	deleted, barcodes, err := s.repo.DeleteByClass(ctx, class)
	if err != nil {
		return 0, err
	}
	if deleted == 0 {
		return 0, apperr.NotFound(fmt.Sprintf("no students found in class %d", class))
	}
	if err := s.ledger.RemoveBarcodes(ctx, barcodes); err != nil {
		return deleted, err
	}
	return deleted, nil
}

func validate(st Student) error {
	if st.Barcode == "" {
		return apperr.Invalid("barcode is required")
	}
	if st.Name == "" {
		return apperr.Invalid("name is required")
	}
	if !ValidClass(st.Class) {
		return apperr.Invalid("invalid class value")
	}
	if !ValidGender(st.Gender) {
		return apperr.Invalid("invalid gender specified")
	}
	return nil
}
