package admin

import (
	"context"
	"errors"
	"regexp"

	"golang.org/x/crypto/bcrypt"

	"attendanceportal/internal/apperr"
)

var contactPattern = regexp.MustCompile(`^\d{10}$`)

// Service implements admin credential management.
type Service struct {
	repo Repository
}

// NewService creates an admin service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Register creates an admin with bcrypt-hashed credentials.
func (s *Service) Register(ctx context.Context, username, contact, emailID, password, verificationPassword string) (Admin, error) {
	if username == "" || contact == "" || emailID == "" || password == "" || verificationPassword == "" {
		return Admin{}, apperr.Invalid("all admin fields are required")
	}
	if !contactPattern.MatchString(contact) {
		return Admin{}, apperr.Invalid("contact must be a 10-digit number")
	}
	existing, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return Admin{}, err
	}
	if existing != nil {
		return Admin{}, apperr.Conflict("admin already exists")
	}

	passHash, err := hash(password)
	if err != nil {
		return Admin{}, err
	}
	verifHash, err := hash(verificationPassword)
	if err != nil {
		return Admin{}, err
	}
	created, err := s.repo.Insert(ctx, Admin{
		Username:                 username,
		Contact:                  contact,
		EmailID:                  emailID,
		PasswordHash:             passHash,
		VerificationPasswordHash: verifHash,
	})
	if err != nil {
		if errors.Is(err, ErrDuplicateUsername) {
			return Admin{}, apperr.Conflict("admin already exists")
		}
		return Admin{}, err
	}
	return created, nil
}

// Login checks a username/password pair.
func (s *Service) Login(ctx context.Context, username, password string) (Admin, error) {
	a, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return Admin{}, err
	}
	if a == nil || !compare(a.PasswordHash, password) {
		return Admin{}, apperr.Unauthorized("invalid credentials, please try again")
	}
	return *a, nil
}

// ChangePassword rotates the login password after a username+contact check.
// It is reachable without a session so a locked-out admin can recover.
func (s *Service) ChangePassword(ctx context.Context, username, contact, newPassword string) error {
	if newPassword == "" {
		return apperr.Invalid("new password is required")
	}
	a, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("user not found")
	}
	if a.Contact != contact {
		return apperr.Invalid("invalid username or contact")
	}
	h, err := hash(newPassword)
	if err != nil {
		return err
	}
	a.PasswordHash = h
	return s.repo.Save(ctx, *a)
}

// ChangeVerificationPassword rotates the verification password of the
// logged-in admin after a username+contact check.
func (s *Service) ChangeVerificationPassword(ctx context.Context, adminID, username, contact, newPassword string) error {
	if newPassword == "" {
		return apperr.Invalid("new password is required")
	}
	a, err := s.repo.ByID(ctx, adminID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("logged-in admin not found")
	}
	if a.Username != username || a.Contact != contact {
		return apperr.Invalid("invalid username or contact")
	}
	h, err := hash(newPassword)
	if err != nil {
		return err
	}
	a.VerificationPasswordHash = h
	return s.repo.Save(ctx, *a)
}

// ChangeUsername renames an admin identified by current username and contact.
func (s *Service) ChangeUsername(ctx context.Context, currentUsername, contact, newUsername string) error {
	if newUsername == "" {
		return apperr.Invalid("new username is required")
	}
	a, err := s.repo.ByUsername(ctx, currentUsername)
	if err != nil {
		return err
	}
	if a == nil || a.Contact != contact {
		return apperr.NotFound("failed to update username, invalid current details")
	}
	a.Username = newUsername
	return s.repo.Save(ctx, *a)
}

// ChangeContact replaces the contact number after validating both numbers.
func (s *Service) ChangeContact(ctx context.Context, username, currentContact, newContact string) error {
	if username == "" || currentContact == "" || newContact == "" {
		return apperr.Invalid("username, current contact, and new contact number are required")
	}
	if !contactPattern.MatchString(currentContact) || !contactPattern.MatchString(newContact) {
		return apperr.Invalid("both contact numbers must be 10-digit numbers")
	}
	if currentContact == newContact {
		return apperr.Invalid("the new contact number cannot be the same as the current contact number")
	}
	a, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("admin not found")
	}
	if a.Contact != currentContact {
		return apperr.Invalid("the current contact number provided does not match the existing contact number")
	}
	a.Contact = newContact
	return s.repo.Save(ctx, *a)
}

// VerifyPassword checks the login password of an admin by id.
func (s *Service) VerifyPassword(ctx context.Context, adminID, password string) error {
	a, err := s.repo.ByID(ctx, adminID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("admin not found")
	}
	if !compare(a.PasswordHash, password) {
		return apperr.Unauthorized("incorrect password")
	}
	return nil
}

// VerifyVerificationPassword checks the secondary credential of an admin.
func (s *Service) VerifyVerificationPassword(ctx context.Context, adminID, verificationPassword string) error {
	a, err := s.repo.ByID(ctx, adminID)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("admin not found")
	}
	if !compare(a.VerificationPasswordHash, verificationPassword) {
		return apperr.Unauthorized("incorrect verification password")
	}
	return nil
}

// Validate checks that a username/contact pair names an existing admin.
func (s *Service) Validate(ctx context.Context, username, contact string) error {
	a, err := s.repo.ByUsername(ctx, username)
	if err != nil {
		return err
	}
	if a == nil || a.Contact != contact {
		return apperr.Invalid("invalid credentials")
	}
	return nil
}

// ValidateByContactAndPassword authenticates by contact number.
func (s *Service) ValidateByContactAndPassword(ctx context.Context, contact, password string) error {
	if contact == "" || password == "" {
		return apperr.Invalid("contact number and password are required")
	}
	a, err := s.repo.ByContact(ctx, contact)
	if err != nil {
		return err
	}
	if a == nil {
		return apperr.NotFound("admin with this contact number not found")
	}
	if !compare(a.PasswordHash, password) {
		return apperr.Unauthorized("invalid password")
	}
	return nil
}

// UsernameByContact resolves the username registered for a contact number.
func (s *Service) UsernameByContact(ctx context.Context, contact string) (string, error) {
	if contact == "" {
		return "", apperr.Invalid("contact number is required")
	}
	a, err := s.repo.ByContact(ctx, contact)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", apperr.NotFound("admin with this contact number not found")
	}
	return a.Username, nil
}

// ContactOf returns the contact number of an admin by id.
func (s *Service) ContactOf(ctx context.Context, adminID string) (string, error) {
	a, err := s.repo.ByID(ctx, adminID)
	if err != nil {
		return "", err
	}
	if a == nil {
		return "", apperr.NotFound("admin not found")
	}
	return a.Contact, nil
}

func hash(plain string) (string, error) {
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

func compare(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}
