// internal/model/contact.go
package model

type Contact struct {
	ID          string `db:"id" json:"id"`
	EmailListID string `db:"email_list_id" json:"email_list_id"`
	Email       string `db:"email" json:"email"`
	FirstName   string `db:"first_name" json:"first_name"`
	LastName    string `db:"last_name" json:"last_name"`
	Company     string `db:"company" json:"company,omitempty"`
	Status      string `db:"status" json:"status"`
	OptIn       bool   `db:"opt_in" json:"opt_in"`
}

// Fields returns the placeholder values this contact exposes to campaign
// templates. Missing attributes render as empty strings.
func (c *Contact) Fields() map[string]string {
	return map[string]string{
		"email":      c.Email,
		"first_name": c.FirstName,
		"last_name":  c.LastName,
		"company":    c.Company,
	}
}
