package core

import (
	"errors"
	"net/mail"
	"sort"
	"strings"
)

const MinPasswordLength = 8

var (
	ErrInvalidEmail     = errors.New("invalid email address")
	ErrPasswordTooShort = errors.New("password must be at least 8 characters")
	ErrPasswordMismatch = errors.New("passwords do not match")
)

// ValidationErrors maps a form field to the message shown next to it.
type ValidationErrors map[string]string

func (v ValidationErrors) Error() string {
	fields := make([]string, 0, len(v))
	for f := range v {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+v[f])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records msg for field unless the field already has a message.
func (v ValidationErrors) Add(field, msg string) {
	if _, ok := v[field]; !ok {
		v[field] = msg
	}
}

// AddErr records err's message for field when err is not nil.
func (v ValidationErrors) AddErr(field string, err error) {
	if err != nil {
		v.Add(field, err.Error())
	}
}

// Err returns v as an error, or nil when empty.
func (v ValidationErrors) Err() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// SignUpInput is the sign-up form.
type SignUpInput struct {
	Email           string
	Password        string
	ConfirmPassword string
}

// Validate returns ValidationErrors keyed by email, password and confirm_password.
func (in SignUpInput) Validate() error {
	v := ValidationErrors{}
	v.AddErr("email", ValidateEmail(in.Email))
	if len(in.Password) < MinPasswordLength {
		v.AddErr("password", ErrPasswordTooShort)
	}
	if in.Password != in.ConfirmPassword {
		v.AddErr("confirm_password", ErrPasswordMismatch)
	}
	return v.Err()
}

// NormalizeEmail trims and lower-cases an address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func ValidateEmail(s string) error {
	s = strings.TrimSpace(s)
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s || !strings.Contains(s[strings.LastIndex(s, "@"):], ".") {
		return ErrInvalidEmail
	}
	return nil
}
