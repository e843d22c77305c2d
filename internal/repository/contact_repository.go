package repository

import (
	"database/sql"

	"github.com/mailramp/mailramp-backend/internal/model"
)

// ContactRepositoryInterface defines the contact reads the dispatch loop needs
type ContactRepositoryInterface interface {
	ListActiveOptedIn(emailListID string) ([]model.Contact, error)
}

// ContactRepository is the concrete implementation
type ContactRepository struct {
	DB *sql.DB
}

// ListActiveOptedIn fetches the sendable contacts of a list: active and
// opted in. The ordering is fixed so a resumed campaign walks the same
// sequence it walked before the interruption.
func (r *ContactRepository) ListActiveOptedIn(emailListID string) ([]model.Contact, error) {
	query := `
        SELECT id, email_list_id, email,
               COALESCE(first_name, ''), COALESCE(last_name, ''),
               COALESCE(company, ''), status, opt_in
        FROM email_contacts
        WHERE email_list_id = $1 AND status = 'active' AND opt_in = TRUE
        ORDER BY created_at, id
    `
	rows, err := r.DB.Query(query, emailListID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	contacts := []model.Contact{}
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(&c.ID, &c.EmailListID, &c.Email, &c.FirstName,
			&c.LastName, &c.Company, &c.Status, &c.OptIn); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	return contacts, rows.Err()
}

var _ ContactRepositoryInterface = (*ContactRepository)(nil)
