package validator

import (
	"fmt"
	"net/mail"
	"strings"
	"unicode"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

func ValidateRegister(username, email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	// Email
	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	// Username
	username = strings.TrimSpace(username)
	if username == "" {
		errs.Add("username", "Username is required")
	} else if len(username) < 2 {
		errs.Add("username", "Username must be at least 2 characters")
	} else if len(username) > 50 {
		errs.Add("username", "Username is too long")
	}

	// Password
	validatePassword(password, errs)

	return errs
}

func ValidateLogin(email, password string) ValidationErrors {
	errs := make(ValidationErrors)

	email = strings.TrimSpace(email)
	if email == "" {
		errs.Add("email", "Email is required")
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs.Add("email", "Invalid email address")
	}

	if password == "" {
		errs.Add("password", "Password is required")
	}

	return errs
}

// ValidateCharacterForm checks a generation request. Name, class, personality
// and appearance describe the character; special features are optional.
func ValidateCharacterForm(name, characterClass, personality, appearance string, imageCount int) ValidationErrors {
	errs := make(ValidationErrors)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > 100 {
		errs.Add("name", "Name must be between 1 and 100 characters")
	}

	if strings.TrimSpace(characterClass) == "" {
		errs.Add("characterClass", "Character class is required")
	} else if len(characterClass) > 100 {
		errs.Add("characterClass", "Character class is too long")
	}

	if strings.TrimSpace(personality) == "" {
		errs.Add("personality", "Personality is required")
	} else if len(personality) > 500 {
		errs.Add("personality", "Personality is too long")
	}

	if strings.TrimSpace(appearance) == "" {
		errs.Add("appearance", "Appearance is required")
	} else if len(appearance) > 500 {
		errs.Add("appearance", "Appearance is too long")
	}

	if imageCount != 1 && imageCount != 4 && imageCount != 8 {
		errs.Add("imageCount", "Image count must be 1, 4 or 8")
	}

	return errs
}

func validatePassword(password string, errs ValidationErrors) {
	if len(password) < 8 {
		errs.Add("password", "Password must be at least 8 characters")
		return
	}

	var hasUpper, hasLower, hasDigit bool
	for _, ch := range password {
		switch {
		case unicode.IsUpper(ch):
			hasUpper = true
		case unicode.IsLower(ch):
			hasLower = true
		case unicode.IsDigit(ch):
			hasDigit = true
		}
	}

	missing := []string{}
	if !hasUpper {
		missing = append(missing, "one uppercase letter")
	}
	if !hasLower {
		missing = append(missing, "one lowercase letter")
	}
	if !hasDigit {
		missing = append(missing, "one number")
	}

	if len(missing) > 0 {
		errs.Add("password", fmt.Sprintf("Password must contain at least %s", strings.Join(missing, ", ")))
	}
}
