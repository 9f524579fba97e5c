package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/iudanet/gophsync/internal/models"
)

// EmailPattern определяет допустимый формат email: local@domain.tld
var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PhonePattern определяет допустимый формат телефона
// Цифры, пробелы, точки, дефисы и скобки, необязательный + в начале
var PhonePattern = regexp.MustCompile(`^\+?[0-9 .()\-]+$`)

const (
	// MinPhoneDigits минимальное количество цифр в номере
	MinPhoneDigits = 6
	// MaxPhoneDigits максимальное количество цифр в номере (E.164)
	MaxPhoneDigits = 15
	// MaxNameLen максимальная длина имени клиента
	MaxNameLen = 128
	// MaxTagLen максимальная длина тега миссии
	MaxTagLen = 32
)

// ValidateEmail проверяет формат email; пустое значение допустимо
func ValidateEmail(email string) error {
	if email == "" {
		return nil
	}
	if !EmailPattern.MatchString(email) {
		return fmt.Errorf("invalid email %q", email)
	}
	return nil
}

// ValidatePhone проверяет формат телефона; nil допустим
func ValidatePhone(phone *string) error {
	if phone == nil {
		return nil
	}
	if !PhonePattern.MatchString(*phone) {
		return fmt.Errorf("invalid phone %q: only digits, spaces and + . - ( ) are allowed", *phone)
	}

	digits := 0
	for _, r := range *phone {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("invalid phone %q: must contain %d to %d digits", *phone, MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

// ValidateClient проверяет бизнес-поля клиента перед сохранением
func ValidateClient(client *models.Client) error {
	switch client.Type {
	case models.ClientTypeIndividual, models.ClientTypeProfessional:
	default:
		return fmt.Errorf("unknown client type %q", client.Type)
	}

	name := strings.TrimSpace(client.LastName)
	if name == "" {
		return fmt.Errorf("last name cannot be empty")
	}
	if len(name) > MaxNameLen {
		return fmt.Errorf("last name must not exceed %d characters", MaxNameLen)
	}

	if err := ValidateEmail(client.Email); err != nil {
		return err
	}
	if err := ValidatePhone(client.Phone); err != nil {
		return err
	}
	return ValidatePhone(client.MobilePhone)
}

// ValidateMission проверяет бизнес-поля миссии перед сохранением
func ValidateMission(mission *models.Mission) error {
	switch mission.Status {
	case models.MissionStatusCreated, models.MissionStatusScheduled, models.MissionStatusInProgress,
		models.MissionStatusCompleted, models.MissionStatusCancelled, models.MissionStatusOnHold:
	default:
		return fmt.Errorf("unknown mission status %q", mission.Status)
	}

	if strings.TrimSpace(mission.Title) == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if mission.Status == models.MissionStatusScheduled && mission.ScheduledAt == nil {
		return fmt.Errorf("scheduled mission needs a date")
	}

	for _, tag := range mission.Tags {
		if tag == "" || len(tag) > MaxTagLen || strings.ContainsAny(tag, " \t,") {
			return fmt.Errorf("invalid tag %q", tag)
		}
	}
	return nil
}
