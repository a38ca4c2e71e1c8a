package student

import (
	"context"
	"strings"
	"sync"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// MemoryRepository is a map-backed directory for dev and tests.
type MemoryRepository struct {
	mu       sync.Mutex
	students map[string]Student // keyed by hex id
}

// NewMemoryRepository creates an empty in-memory directory.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{students: make(map[string]Student)}
}

func (r *MemoryRepository) Insert(_ context.Context, s Student) (Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.students {
		if existing.Barcode == s.Barcode {
			return Student{}, ErrDuplicateBarcode
		}
	}
	s.ID = primitive.NewObjectID()
	r.students[s.ID.Hex()] = s
	return s, nil
}

func (r *MemoryRepository) Update(_ context.Context, id string, s Student) (*Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	for otherID, other := range r.students {
		if otherID != id && other.Barcode == s.Barcode {
			return nil, ErrDuplicateBarcode
		}
	}
	s.ID = existing.ID
	r.students[id] = s
	return &s, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.students[id]; !ok {
		return mongo.ErrNoDocuments
	}
	delete(r.students, id)
	return nil
}

func (r *MemoryRepository) Get(_ context.Context, id string) (*Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.students[id]
	if !ok {
		return nil, nil
	}
	return &s, nil
}

func (r *MemoryRepository) GetByBarcode(_ context.Context, barcode string) (*Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.students {
		if s.Barcode == barcode {
			out := s
			return &out, nil
		}
	}
	return nil, nil
}

func (r *MemoryRepository) List(_ context.Context, class int, gender, search string) ([]Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Student
	needle := strings.ToLower(search)
	for _, s := range r.students {
		if s.Class != class {
			continue
		}
		if gender != "" && s.Gender != gender {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(s.Name), needle) &&
			!strings.Contains(strings.ToLower(s.City), needle) {
			continue
		}
		out = append(out, s)
	}
	return out, nil
}

func (r *MemoryRepository) ByBarcodes(_ context.Context, barcodes []string) ([]Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[string]bool, len(barcodes))
	for _, b := range barcodes {
		want[b] = true
	}
	var out []Student
	for _, s := range r.students {
		if want[s.Barcode] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepository) RosterByClasses(_ context.Context, classes []int) ([]Student, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	want := make(map[int]bool, len(classes))
	for _, c := range classes {
		want[c] = true
	}
	var out []Student
	for _, s := range r.students {
		if want[s.Class] {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *MemoryRepository) CountAll(_ context.Context) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.students)), nil
}

func (r *MemoryRepository) DeleteByClass(_ context.Context, class int) (int64, []string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var barcodes []string
	var deleted int64
	for id, s := range r.students {
		if s.Class == class {
			barcodes = append(barcodes, s.Barcode)
			delete(r.students, id)
			deleted++
		}
	}
	return deleted, barcodes, nil
}
