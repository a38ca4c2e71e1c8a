package student

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Repository is the directory storage contract.
type Repository interface {
	Insert(ctx context.Context, s Student) (Student, error)
	Update(ctx context.Context, id string, s Student) (*Student, error)
	Delete(ctx context.Context, id string) error
	Get(ctx context.Context, id string) (*Student, error)
	GetByBarcode(ctx context.Context, barcode string) (*Student, error)
	List(ctx context.Context, class int, gender, search string) ([]Student, error)
	ByBarcodes(ctx context.Context, barcodes []string) ([]Student, error)
	RosterByClasses(ctx context.Context, classes []int) ([]Student, error)
	CountAll(ctx context.Context) (int64, error)
	DeleteByClass(ctx context.Context, class int) (int64, []string, error)
}

// ErrDuplicateBarcode is returned when inserting a barcode that already exists.
var ErrDuplicateBarcode = errors.New("barcode already exists")

// MongoRepository persists students in the students collection.
type MongoRepository struct {
	col *mongo.Collection
}

// NewMongoRepository creates a repo over db's students collection.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{col: db.Collection("students")}
}

// Insert adds a student; the unique barcode index rejects duplicates.
func (r *MongoRepository) Insert(ctx context.Context, s Student) (Student, error) {
	s.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return Student{}, ErrDuplicateBarcode
		}
		return Student{}, err
	}
	return s, nil
}

// Update replaces the mutable fields of a student by id. Returns nil when missing.
func (r *MongoRepository) Update(ctx context.Context, id string, s Student) (*Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	update := bson.M{"$set": bson.M{
		"name":                   s.Name,
		"contactNumber":          s.ContactNumber,
		"alternateContactNumber": s.AlternateContactNumber,
		"city":                   s.City,
		"grNumber":               s.GRNumber,
		"barcode":                s.Barcode,
		"class":                  s.Class,
		"dateOfBirth":            s.DateOfBirth,
		"gender":                 s.Gender,
		"note":                   s.Note,
	}}
	res := r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update)
	var out Student
	if err := res.Decode(&out); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateBarcode
		}
		return nil, err
	}
	s.ID = oid
	return &s, nil
}

// Delete removes a student by id.
func (r *MongoRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return mongo.ErrNoDocuments
	}
	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Get returns a student by id, nil when missing.
func (r *MongoRepository) Get(ctx context.Context, id string) (*Student, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var s Student
	if err := r.col.FindOne(ctx, bson.M{"_id": oid}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// GetByBarcode returns a student by barcode, nil when missing.
func (r *MongoRepository) GetByBarcode(ctx context.Context, barcode string) (*Student, error) {
	var s Student
	if err := r.col.FindOne(ctx, bson.M{"barcode": barcode}).Decode(&s); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

// List returns students of a class, optionally filtered by gender and a
// case-insensitive name/city search.
func (r *MongoRepository) List(ctx context.Context, class int, gender, search string) ([]Student, error) {
	filter := bson.M{"class": class}
	if gender != "" {
		filter["gender"] = gender
	}
	if search != "" {
		pattern := primitive.Regex{Pattern: regexEscape(search), Options: "i"}
		filter["$or"] = bson.A{
			bson.M{"name": pattern},
			bson.M{"city": pattern},
		}
	}
	return r.find(ctx, filter)
}

// ByBarcodes returns the students whose barcode is in the given set.
func (r *MongoRepository) ByBarcodes(ctx context.Context, barcodes []string) ([]Student, error) {
	if len(barcodes) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"barcode": bson.M{"$in": barcodes}})
}

// RosterByClasses returns all students in any of the given classes.
func (r *MongoRepository) RosterByClasses(ctx context.Context, classes []int) ([]Student, error) {
	if len(classes) == 0 {
		return nil, nil
	}
	return r.find(ctx, bson.M{"class": bson.M{"$in": classes}})
}

// CountAll returns the total number of students.
func (r *MongoRepository) CountAll(ctx context.Context) (int64, error) {
	return r.col.CountDocuments(ctx, bson.M{})
}

// DeleteByClass removes all students of a class and returns their barcodes
// so the caller can cascade into the ledger.
func (r *MongoRepository) DeleteByClass(ctx context.Context, class int) (int64, []string, error) {
	students, err := r.find(ctx, bson.M{"class": class})
	if err != nil {
		return 0, nil, err
	}
	if len(students) == 0 {
		return 0, nil, nil
	}
	barcodes := make([]string, 0, len(students))
	for _, s := range students {
		barcodes = append(barcodes, s.Barcode)
	}
	res, err := r.col.DeleteMany(ctx, bson.M{"class": class})
	if err != nil {
		return 0, nil, err
	}
	return res.DeletedCount, barcodes, nil
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]Student, error) {
	cur, err := r.col.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []Student
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// regexEscape quotes regex metacharacters so search terms match literally.
func regexEscape(s string) string {
	specials := `\.+*?()|[]{}^$`
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(specials, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
