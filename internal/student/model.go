// Package student implements the student directory: records keyed by a unique
// barcode with add/edit/delete and filtered listing.
package student

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Genders accepted by the directory.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
	GenderOther  = "Other"
)

// Classes tracked by the portal.
var Classes = []int{9, 10}

// Student is a directory record. Barcode is the primary attendance key.
type Student struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name                   string             `bson:"name" json:"name"`
	ContactNumber          string             `bson:"contactNumber" json:"contactNumber"`
	AlternateContactNumber string             `bson:"alternateContactNumber" json:"alternateContactNumber"`
	City                   string             `bson:"city" json:"city"`
	GRNumber               string             `bson:"grNumber" json:"grNumber"`
	Barcode                string             `bson:"barcode" json:"barcode"`
	Class                  int                `bson:"class" json:"class"`
	DateOfBirth            time.Time          `bson:"dateOfBirth" json:"dateOfBirth"`
	Gender                 string             `bson:"gender" json:"gender"`
	Note                   string             `bson:"note,omitempty" json:"note,omitempty"`
}

// ValidGender reports whether g is one of the accepted genders.
func ValidGender(g string) bool {
	return g == GenderMale || g == GenderFemale || g == GenderOther
}

// ValidClass reports whether c is a tracked class.
func ValidClass(c int) bool {
	for _, v := range Classes {
		if c == v {
			return true
		}
	}
	return false
}
