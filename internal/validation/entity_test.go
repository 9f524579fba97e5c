package validation

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iudanet/gophsync/internal/models"
)

func ptr(s string) *string { return &s }

func TestValidateEmail(t *testing.T) {
	tests := []struct {
		name    string
		email   string
		wantErr bool
	}{
		{name: "empty is allowed", email: ""},
		{name: "valid", email: "jean@example.com"},
		{name: "valid with subdomain", email: "a.b+c@mail.example.fr"},
		{name: "missing at", email: "jean.example.com", wantErr: true},
		{name: "missing tld", email: "jean@example", wantErr: true},
		{name: "with space", email: "jean @example.com", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateEmail(tt.email)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidatePhone(t *testing.T) {
	tests := []struct {
		name    string
		phone   *string
		wantErr bool
		errMsg  string
	}{
		{name: "nil is allowed", phone: nil},
		{name: "plain digits", phone: ptr("0102030405")},
		{name: "international with spaces", phone: ptr("+33 1 02 03 04 05")},
		{name: "with dots and dashes", phone: ptr("01.02-03.04.05")},
		{name: "with letters", phone: ptr("01 02 AB"), wantErr: true, errMsg: "only digits"},
		{name: "too short", phone: ptr("12345"), wantErr: true, errMsg: "6 to 15 digits"},
		{name: "too long", phone: ptr("+1234567890123456"), wantErr: true, errMsg: "6 to 15 digits"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePhone(tt.phone)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestValidateClient(t *testing.T) {
	valid := func() *models.Client {
		return &models.Client{
			Type:     models.ClientTypeIndividual,
			LastName: "Dupont",
			Email:    "dupont@example.com",
			Phone:    ptr("0102030405"),
		}
	}

	tests := []struct {
		name    string
		modify  func(c *models.Client)
		wantErr string
	}{
		{name: "valid", modify: func(*models.Client) {}},
		{name: "unknown type", modify: func(c *models.Client) { c.Type = "robot" }, wantErr: "unknown client type"},
		{name: "blank last name", modify: func(c *models.Client) { c.LastName = "  " }, wantErr: "last name cannot be empty"},
		{name: "bad email", modify: func(c *models.Client) { c.Email = "nope" }, wantErr: "invalid email"},
		{name: "bad mobile", modify: func(c *models.Client) { c.MobilePhone = ptr("call me") }, wantErr: "invalid phone"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := valid()
			tt.modify(client)

			err := ValidateClient(client)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateMission(t *testing.T) {
	at := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	valid := func() *models.Mission {
		return &models.Mission{
			Status:      models.MissionStatusScheduled,
			Title:       "Inspection",
			ScheduledAt: &at,
			Tags:        []string{"roof", "urgent"},
		}
	}

	tests := []struct {
		name    string
		modify  func(m *models.Mission)
		wantErr string
	}{
		{name: "valid", modify: func(*models.Mission) {}},
		{name: "unknown status", modify: func(m *models.Mission) { m.Status = "done" }, wantErr: "unknown mission status"},
		{name: "empty title", modify: func(m *models.Mission) { m.Title = "" }, wantErr: "title cannot be empty"},
		{name: "scheduled without date", modify: func(m *models.Mission) { m.ScheduledAt = nil }, wantErr: "needs a date"},
		{name: "tag with space", modify: func(m *models.Mission) { m.Tags = []string{"two words"} }, wantErr: "invalid tag"},
		{name: "empty tag", modify: func(m *models.Mission) { m.Tags = []string{""} }, wantErr: "invalid tag"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mission := valid()
			tt.modify(mission)

			err := ValidateMission(mission)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
