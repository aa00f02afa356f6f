// Package storage defines the Storage interface: the contract that any
// database backend must satisfy to work with this application.
//
// Handlers and services depend only on these interfaces, so the SQLite
// and PostgreSQL backends are interchangeable and tests can pass fakes.
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-records-api/internal/types"
)

var (
	// ErrNotFound is returned when the addressed row does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateKey is returned when an insert collides with an
	// existing primary key.
	ErrDuplicateKey = errors.New("record already exists")
)

// StudentStore is the student roster.
type StudentStore interface {
	// CreateStudent inserts a new student. Returns ErrDuplicateKey when
	// the reg is already taken.
	CreateStudent(ctx context.Context, student types.Student) error

	// GetStudentByReg fetches a single student. Returns ErrNotFound if
	// there is none.
	GetStudentByReg(ctx context.Context, reg int64) (types.Student, error)

	// GetStudents returns every student ordered by reg.
	// Returns an empty slice (not nil) if there are no students.
	GetStudents(ctx context.Context) ([]types.Student, error)

	// UpdateStudentByReg overwrites the mutable fields of an existing
	// student in a single statement. Returns ErrNotFound if no row matched.
	UpdateStudentByReg(ctx context.Context, reg int64, student types.Student) error

	// DeleteStudentByReg removes a student permanently in a single
	// statement. Returns ErrNotFound if no row matched.
	DeleteStudentByReg(ctx context.Context, reg int64) error
}

// AdminStore holds login accounts and password reset tokens.
type AdminStore interface {
	GetAdminByEmail(ctx context.Context, email string) (types.Admin, error)

	// CreateAdmin returns ErrDuplicateKey if the email already exists.
	CreateAdmin(ctx context.Context, admin types.Admin) error

	// UpdateAdminPassword returns ErrNotFound if the email is unknown.
	UpdateAdminPassword(ctx context.Context, email, passwordHash string) error

	CreateResetToken(ctx context.Context, token types.ResetToken) error

	// ConsumeResetToken marks the token used if it belongs to email, is
	// unused and expires after now (unix seconds). Anything else is
	// ErrNotFound.
	ConsumeResetToken(ctx context.Context, id, email string, now int64) error
}

// Storage is everything the application needs from a database.
type Storage interface {
	StudentStore
	AdminStore
	Close() error
}
