// Package admin implements administrator identity: login, registration and
// credential rotation. Passwords and verification passwords are stored as
// bcrypt hashes; token issuing lives in internal/auth.
package admin

import "go.mongodb.org/mongo-driver/bson/primitive"

// Admin is a portal administrator. The verification password is a second
// credential gating sensitive operations.
type Admin struct {
	ID                       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username                 string             `bson:"username" json:"username"`
	Contact                  string             `bson:"contact" json:"contact"`
	EmailID                  string             `bson:"emailId" json:"emailId"`
	PasswordHash             string             `bson:"password" json:"-"`
	VerificationPasswordHash string             `bson:"verificationPassword" json:"-"`
}
