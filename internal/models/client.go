package models

import "strings"

// ClientType тип клиента
type ClientType string

const (
	ClientTypeIndividual   ClientType = "individual"   // частное лицо
	ClientTypeProfessional ClientType = "professional" // юридическое лицо
)

// CollectionClients коллекция клиентов в удаленном хранилище
const CollectionClients = "clients"

// Client представляет клиента, для которого выполняются диагностики.
type Client struct {
	FirstName   *string    `json:"first_name,omitempty"`   // FirstName имя (только для частных лиц)
	Phone       *string    `json:"phone,omitempty"`        // Phone основной телефон
	MobilePhone *string    `json:"mobile_phone,omitempty"` // MobilePhone мобильный телефон
	Type        ClientType `json:"client_type"`            // Type тип клиента
	LastName    string     `json:"last_name"`              // LastName фамилия или название организации
	Email       string     `json:"email"`                  // Email основной email
	Address     string     `json:"address"`                // Address почтовый адрес
	Notes       string     `json:"notes"`                  // Notes заметки
	SyncMetadata
}

// FullName returns "First Last" for individuals and the company name otherwise.
func (c *Client) FullName() string {
	if c.Type == ClientTypeIndividual && c.FirstName != nil && *c.FirstName != "" {
		return strings.TrimSpace(*c.FirstName + " " + c.LastName)
	}
	return c.LastName
}

// ClientSchema describes the business fields of Client.
var ClientSchema = Schema[*Client]{
	Kind: CollectionClients,
	New:  func() *Client { return &Client{} },
	Fields: []Field[*Client]{
		Scalar("client_type",
			func(c *Client) ClientType { return c.Type },
			func(c *Client, v ClientType) { c.Type = v }),
		Scalar("last_name",
			func(c *Client) string { return c.LastName },
			func(c *Client, v string) { c.LastName = v }),
		Optional("first_name",
			func(c *Client) *string { return c.FirstName },
			func(c *Client, v *string) { c.FirstName = v }),
		Scalar("email",
			func(c *Client) string { return c.Email },
			func(c *Client, v string) { c.Email = v }),
		Optional("phone",
			func(c *Client) *string { return c.Phone },
			func(c *Client, v *string) { c.Phone = v }),
		Optional("mobile_phone",
			func(c *Client) *string { return c.MobilePhone },
			func(c *Client, v *string) { c.MobilePhone = v }),
		Scalar("address",
			func(c *Client) string { return c.Address },
			func(c *Client, v string) { c.Address = v }),
		Scalar("notes",
			func(c *Client) string { return c.Notes },
			func(c *Client, v string) { c.Notes = v }),
	},
}
