package services

import (
	"crypto/rand"
	"math/big"
	"strings"

	"github.com/ttacon/libphonenumber"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ReferenceAlphabet omits characters that are easy to confuse when read
// aloud or copied by hand (0/O, 1/I/L).
const ReferenceAlphabet = "ABCDEFGHJKMNPQRSTUVWXYZ23456789"

// ReferenceLength is the length of a booking reference.
const ReferenceLength = 8

// NewReference returns a random booking reference.
func NewReference() (string, error) {
	size := big.NewInt(int64(len(ReferenceAlphabet)))
	var b strings.Builder
	b.Grow(ReferenceLength)
	for i := 0; i < ReferenceLength; i++ {
		n, err := rand.Int(rand.Reader, size)
		if err != nil {
			return "", err
		}
		b.WriteByte(ReferenceAlphabet[n.Int64()])
	}
	return b.String(), nil
}

// contact is a normalized patient identity.
type contact struct {
	Phone string
	Email string
	Key   string
}

// normalizeContact resolves the patient identity: the E.164 phone when one is
// given, otherwise the lower-cased email.
func normalizeContact(phone, email, region string) (contact, error) {
	var c contact
	email = strings.ToLower(strings.TrimSpace(email))
	if email != "" {
		at := strings.LastIndex(email, "@")
		if at <= 0 || at == len(email)-1 {
			return c, ErrInvalidContact
		}
		c.Email = email
	}

	if phone = strings.TrimSpace(phone); phone != "" {
		if region == "" {
			region = "AR"
		}
		num, err := libphonenumber.Parse(phone, strings.ToUpper(region))
		if err != nil || !libphonenumber.IsValidNumber(num) {
			return c, ErrInvalidContact
		}
		c.Phone = libphonenumber.Format(num, libphonenumber.E164)
	}

	switch {
	case c.Phone != "":
		c.Key = c.Phone
	case c.Email != "":
		c.Key = "email:" + c.Email
	default:
		return c, ErrInvalidContact
	}
	return c, nil
}

// titleName normalizes a person name for display ("ana  PAZ" -> "Ana Paz").
func titleName(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	if s == "" {
		return ""
	}
	return cases.Title(language.Und).String(s)
}
