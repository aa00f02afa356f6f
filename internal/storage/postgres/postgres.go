// Package postgres implements storage.Storage on PostgreSQL through
// database/sql and the lib/pq driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/migrations"
	"github.com/aanand-mishra/student-records-api/internal/types"
)

// uniqueViolation is the SQLSTATE for a unique or primary key collision.
const uniqueViolation = "23505"

// Postgres is the PostgreSQL implementation of storage.Storage.
type Postgres struct {
	db *sql.DB
}

// Open creates the connection pool without touching the network.
// sql.Open never dials; use New to verify connectivity and migrate.
func Open(cfg config.Storage) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres.Open: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

// New opens the pool, checks the server is reachable and applies pending
// migrations.
func New(ctx context.Context, cfg config.Storage) (*Postgres, error) {
	db, err := Open(cfg)
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	if err := migrations.Up(ctx, db, migrations.Postgres); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres.New: %w", err)
	}

	return &Postgres{db: db}, nil
}

// NewWithDB wraps an existing, already migrated pool.
func NewWithDB(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

func (p *Postgres) Close() error {
	return p.db.Close()
}

func isDuplicateKey(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

func rowsAffected(result sql.Result, notFound error) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return notFound
	}
	return nil
}

func (p *Postgres) CreateStudent(ctx context.Context, student types.Student) error {
	query := `
		INSERT INTO students (reg, name, degree, specialization, address, phone_no)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := p.db.ExecContext(ctx, query,
		student.Reg, student.Name, student.Degree,
		student.Specialization, student.Address, student.PhoneNo,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create student %d: %w", student.Reg, storage.ErrDuplicateKey)
		}
		return fmt.Errorf("create student: %w", err)
	}

	return nil
}

func (p *Postgres) GetStudentByReg(ctx context.Context, reg int64) (types.Student, error) {
	query := `
		SELECT reg, name, degree, specialization, address, phone_no
		FROM students
		WHERE reg = $1
	`

	var s types.Student
	err := p.db.QueryRowContext(ctx, query, reg).Scan(
		&s.Reg, &s.Name, &s.Degree, &s.Specialization, &s.Address, &s.PhoneNo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with reg %d: %w", reg, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("get student: %w", err)
	}

	return s, nil
}

func (p *Postgres) GetStudents(ctx context.Context) ([]types.Student, error) {
	query := `
		SELECT reg, name, degree, specialization, address, phone_no
		FROM students
		ORDER BY reg
	`

	rows, err := p.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)
	for rows.Next() {
		var s types.Student
		if err := rows.Scan(&s.Reg, &s.Name, &s.Degree, &s.Specialization, &s.Address, &s.PhoneNo); err != nil {
			return nil, fmt.Errorf("scan student: %w", err)
		}
		students = append(students, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate students: %w", err)
	}

	return students, nil
}

func (p *Postgres) UpdateStudentByReg(ctx context.Context, reg int64, student types.Student) error {
	query := `
		UPDATE students
		SET name = $1, degree = $2, specialization = $3, address = $4, phone_no = $5
		WHERE reg = $6
	`

	result, err := p.db.ExecContext(ctx, query,
		student.Name, student.Degree, student.Specialization,
		student.Address, student.PhoneNo, reg,
	)
	if err != nil {
		return fmt.Errorf("update student: %w", err)
	}

	return rowsAffected(result, fmt.Errorf("no student found with reg %d: %w", reg, storage.ErrNotFound))
}

func (p *Postgres) DeleteStudentByReg(ctx context.Context, reg int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM students WHERE reg = $1`, reg)
	if err != nil {
		return fmt.Errorf("delete student: %w", err)
	}

	return rowsAffected(result, fmt.Errorf("no student found with reg %d: %w", reg, storage.ErrNotFound))
}

func (p *Postgres) GetAdminByEmail(ctx context.Context, email string) (types.Admin, error) {
	var a types.Admin
	err := p.db.QueryRowContext(ctx,
		`SELECT email, password_hash FROM admins WHERE email = $1`, email,
	).Scan(&a.Email, &a.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, fmt.Errorf("no admin with email %q: %w", email, storage.ErrNotFound)
		}
		return types.Admin{}, fmt.Errorf("get admin: %w", err)
	}

	return a, nil
}

func (p *Postgres) CreateAdmin(ctx context.Context, admin types.Admin) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO admins (email, password_hash) VALUES ($1, $2)`,
		admin.Email, admin.PasswordHash,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("create admin %q: %w", admin.Email, storage.ErrDuplicateKey)
		}
		return fmt.Errorf("create admin: %w", err)
	}

	return nil
}

func (p *Postgres) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = $1 WHERE email = $2`,
		passwordHash, email,
	)
	if err != nil {
		return fmt.Errorf("update admin password: %w", err)
	}

	return rowsAffected(result, fmt.Errorf("no admin with email %q: %w", email, storage.ErrNotFound))
}

func (p *Postgres) CreateResetToken(ctx context.Context, token types.ResetToken) error {
	_, err := p.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (id, email, expires_at) VALUES ($1, $2, $3)`,
		token.ID, token.Email, token.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create reset token: %w", err)
	}

	return nil
}

func (p *Postgres) ConsumeResetToken(ctx context.Context, id, email string, now int64) error {
	query := `
		UPDATE password_reset_tokens
		SET used = TRUE
		WHERE id = $1 AND email = $2 AND NOT used AND expires_at > $3
	`

	result, err := p.db.ExecContext(ctx, query, id, email, now)
	if err != nil {
		// A malformed UUID is just an unusable token.
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "22P02" {
			return fmt.Errorf("reset token not usable: %w", storage.ErrNotFound)
		}
		return fmt.Errorf("consume reset token: %w", err)
	}

	return rowsAffected(result, fmt.Errorf("reset token not usable: %w", storage.ErrNotFound))
}
