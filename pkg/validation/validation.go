package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinAge = 1
	MaxAge = 120
)

var (
	// EmailRegex validates email format
	EmailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

	// MeetingIDRegex validates meeting identifier format
	MeetingIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

	// UserIDRegex validates user identifier format
	UserIDRegex = regexp.MustCompile(`^[a-zA-Z0-9:_-]+$`)
)

// ValidateEmail validates email address
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("email is required")
	}
	if len(email) > 254 {
		return fmt.Errorf("email is too long (max 254 characters)")
	}
	if !EmailRegex.MatchString(email) {
		return fmt.Errorf("invalid email format")
	}
	return nil
}

// ValidatePassword validates password strength
func ValidatePassword(password string) error {
	if password == "" {
		return fmt.Errorf("password is required")
	}
	if len(password) < 6 {
		return fmt.Errorf("password must be at least 6 characters")
	}
	if len(password) > 128 {
		return fmt.Errorf("password is too long (max 128 characters)")
	}
	return nil
}

// ValidateName validates a display-name component (name or last name)
func ValidateName(name, fieldName string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("%s is too long (max 100 characters)", fieldName)
	}
	if !utf8.ValidString(name) {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateAge validates the optional user age
func ValidateAge(age int) error {
	if age < MinAge || age > MaxAge {
		return fmt.Errorf("age must be between %d and %d", MinAge, MaxAge)
	}
	return nil
}

// ValidateMeetingID validates meeting identifier format
func ValidateMeetingID(meetingID string) error {
	if meetingID == "" {
		return fmt.Errorf("meeting ID is required")
	}
	if len(meetingID) > 100 {
		return fmt.Errorf("meeting ID is too long (max 100 characters)")
	}
	if !MeetingIDRegex.MatchString(meetingID) {
		return fmt.Errorf("invalid meeting ID format")
	}
	return nil
}

// ValidateUserID validates user identifier format
func ValidateUserID(userID string) error {
	if userID == "" {
		return fmt.Errorf("user ID is required")
	}
	if len(userID) > 128 {
		return fmt.Errorf("user ID is too long (max 128 characters)")
	}
	if !UserIDRegex.MatchString(userID) {
		return fmt.Errorf("invalid user ID format")
	}
	return nil
}

// ValidateMeetingTitle validates meeting title
func ValidateMeetingTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Errorf("meeting title is required")
	}
	if utf8.RuneCountInString(title) > 200 {
		return fmt.Errorf("meeting title is too long (max 200 characters)")
	}
	if !utf8.ValidString(title) {
		return fmt.Errorf("meeting title contains invalid characters")
	}
	return nil
}

// ValidateChatMessage validates a chat message body
func ValidateChatMessage(message string) error {
	if message == "" {
		return fmt.Errorf("message is required")
	}
	if utf8.RuneCountInString(message) > 4000 {
		return fmt.Errorf("message is too long (max 4000 characters)")
	}
	return nil
}
