package queries

import "database/sql"

type User struct {
	ID        string
	Email     string
	Name      string
	Password  sql.NullString
	Role      string
	CreatedAt int64
	UpdatedAt int64
}

type Account struct {
	ID                string
	UserID            string
	Type              string
	Provider          string
	ProviderAccountID string
	RefreshToken      sql.NullString
	AccessToken       sql.NullString
	ExpiresAt         sql.NullInt64
	TokenType         sql.NullString
	Scope             sql.NullString
	IDToken           sql.NullString
	SessionState      sql.NullString
	CreatedAt         int64
}

type Session struct {
	ID           string
	SessionToken string
	UserID       string
	Expires      int64
	CreatedAt    int64
}

type VerificationToken struct {
	Identifier string
	Token      string
	Expires    int64
}

type scanner interface {
	Scan(dest ...any) error
}

const userColumns = `id, email, name, password, role, created_at, updated_at`

func scanUser(row scanner) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.Password, &u.Role, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}
