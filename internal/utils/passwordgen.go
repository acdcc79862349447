package utils

import (
	"crypto/rand"
	"encoding/base64"
	"math/big"
	"unicode"
)

const (
	tempPasswordLen = 16
	minPasswordLen  = 8

	lowerChars = "abcdefghijkmnopqrstuvwxyz"
	upperChars = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	digitChars = "23456789"
	otherChars = "!@#$%^&*-_"
)

// StrengthResult reports the outcome of a password-strength check.
// Score counts the satisfied criteria; Feedback lists what is missing.
type StrengthResult struct {
	IsValid  bool
	Score    int
	Feedback []string
}

// Generator produces temporary passwords and reset tokens. It exists
// as a type so services can depend on a small interface and tests can
// substitute deterministic fakes.
type Generator struct{}

// GenerateTemporaryPassword returns a 16-char random password that is
// guaranteed to contain at least one upper, one lower and one digit,
// so it always passes the strength policy it will later be checked
// against. Ambiguous characters (l/1, O/0) are excluded.
func (Generator) GenerateTemporaryPassword() (string, error) {
	classes := []string{lowerChars, upperChars, digitChars}
	all := lowerChars + upperChars + digitChars + otherChars

	buf := make([]byte, 0, tempPasswordLen)
	for _, class := range classes {
		c, err := randomChar(class)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	for len(buf) < tempPasswordLen {
		c, err := randomChar(all)
		if err != nil {
			return "", err
		}
		buf = append(buf, c)
	}
	if err := shuffle(buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

// GenerateResetToken mints a password-reset secret: the raw base64url
// form goes into the email, the SHA-256 hex digest into storage.
func (Generator) GenerateResetToken() (raw, hash string, err error) {
	buf := make([]byte, 32)
	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}
	raw = base64.RawURLEncoding.EncodeToString(buf)
	return raw, HashToken(raw), nil
}

// ValidatePasswordStrength enforces the minimum policy: at least 8
// characters with upper case, lower case and a digit.
func (Generator) ValidatePasswordStrength(password string) StrengthResult {
	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	res := StrengthResult{}
	if len(password) >= minPasswordLen {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, "must be at least 8 characters")
	}
	if hasUpper {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, "must contain an upper-case letter")
	}
	if hasLower {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, "must contain a lower-case letter")
	}
	if hasDigit {
		res.Score++
	} else {
		res.Feedback = append(res.Feedback, "must contain a digit")
	}
	res.IsValid = len(res.Feedback) == 0
	return res
}

func randomChar(set string) (byte, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[n.Int64()], nil
}

func shuffle(buf []byte) error {
	for i := len(buf) - 1; i > 0; i-- {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return err
		}
		j := n.Int64()
		buf[i], buf[j] = buf[j], buf[i]
	}
	return nil
}
