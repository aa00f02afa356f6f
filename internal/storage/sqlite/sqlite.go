// Package sqlite provides a SQLite-backed implementation of the
// storage.Storage interface using Go's standard database/sql package.
//
// SQLite stores everything in a single file on disk: no network, no
// separate server process, nothing to install beyond the driver. It is the
// default backend for local development and tests.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/aanand-mishra/student-records-api/internal/config"
	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/storage/migrations"
	"github.com/aanand-mishra/student-records-api/internal/types"

	// Registers the "sqlite3" driver with database/sql.
	"github.com/mattn/go-sqlite3"
)

// SQLite is the concrete implementation of storage.Storage.
// It holds a *sql.DB which is a connection pool managed by database/sql.
type SQLite struct {
	Db *sql.DB
}

// New opens the SQLite database at cfg.DSN, brings the schema up to date
// and returns a ready-to-use *SQLite.
//
// The pool is pinned to one connection. SQLite serialises writers anyway,
// and a ":memory:" database only exists on the connection that created it.
func New(cfg config.Storage) (*SQLite, error) {
	db, err := sql.Open("sqlite3", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if err := migrations.Up(context.Background(), db, migrations.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite.New: %w", err)
	}

	return &SQLite{Db: db}, nil
}

// Close releases the underlying pool.
func (s *SQLite) Close() error {
	return s.Db.Close()
}

// isDuplicateKey reports whether err is a primary key or unique constraint
// violation.
func isDuplicateKey(err error) bool {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	return sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
		sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ─────────────────────────────────────────────────────────────────────────────
// CreateStudent inserts a new row into the students table.
//
// Prepared statements keep user input out of the SQL text: the driver sends
// the query and the values separately, so values are never parsed as SQL.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) CreateStudent(ctx context.Context, student types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx,
		`INSERT INTO students (reg, name, degree, specialization, address, phone_no)
		 VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("CreateStudent: prepare: %w", err)
	}
	defer stmt.Close()

	_, err = stmt.ExecContext(ctx,
		student.Reg,
		student.Name,
		student.Degree,
		student.Specialization,
		student.Address,
		student.PhoneNo,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("CreateStudent: reg %d: %w", student.Reg, storage.ErrDuplicateKey)
		}
		return fmt.Errorf("CreateStudent: exec: %w", err)
	}

	return nil
}

// GetStudentByReg fetches exactly one student row matched by reg.
func (s *SQLite) GetStudentByReg(ctx context.Context, reg int64) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		`SELECT reg, name, degree, specialization, address, phone_no
		 FROM students WHERE reg = ? LIMIT 1`,
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("GetStudentByReg: prepare: %w", err)
	}
	defer stmt.Close()

	var student types.Student

	// QueryRow never returns nil; a missing row surfaces from Scan as
	// sql.ErrNoRows.
	err = stmt.QueryRowContext(ctx, reg).Scan(
		&student.Reg,
		&student.Name,
		&student.Degree,
		&student.Specialization,
		&student.Address,
		&student.PhoneNo,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Student{}, fmt.Errorf("no student found with reg %d: %w", reg, storage.ErrNotFound)
		}
		return types.Student{}, fmt.Errorf("GetStudentByReg: scan: %w", err)
	}

	return student, nil
}

// ─────────────────────────────────────────────────────────────────────────────
// GetStudents returns all student rows as a slice.
//
// Query returns a cursor over the result set; rows.Next advances it and
// rows.Close hands the connection back to the pool.
// ─────────────────────────────────────────────────────────────────────────────
func (s *SQLite) GetStudents(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		`SELECT reg, name, degree, specialization, address, phone_no
		 FROM students ORDER BY reg`,
	)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetStudents: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.Reg,
			&student.Name,
			&student.Degree,
			&student.Specialization,
			&student.Address,
			&student.PhoneNo,
		); err != nil {
			return nil, fmt.Errorf("GetStudents: scan row: %w", err)
		}

		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("GetStudents: rows iteration: %w", err)
	}

	return students, nil
}

// UpdateStudentByReg overwrites the mutable fields of a student. The
// existence check and the write are the same statement: zero affected rows
// means there was nothing to update.
func (s *SQLite) UpdateStudentByReg(ctx context.Context, reg int64, student types.Student) error {
	stmt, err := s.Db.PrepareContext(ctx,
		`UPDATE students
		 SET name = ?, degree = ?, specialization = ?, address = ?, phone_no = ?
		 WHERE reg = ?`,
	)
	if err != nil {
		return fmt.Errorf("UpdateStudentByReg: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx,
		student.Name,
		student.Degree,
		student.Specialization,
		student.Address,
		student.PhoneNo,
		reg,
	)
	if err != nil {
		return fmt.Errorf("UpdateStudentByReg: exec: %w", err)
	}

	return expectOneRow(result, "UpdateStudentByReg", reg)
}

// DeleteStudentByReg removes a student row by reg.
func (s *SQLite) DeleteStudentByReg(ctx context.Context, reg int64) error {
	stmt, err := s.Db.PrepareContext(ctx, "DELETE FROM students WHERE reg = ?")
	if err != nil {
		return fmt.Errorf("DeleteStudentByReg: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, reg)
	if err != nil {
		return fmt.Errorf("DeleteStudentByReg: exec: %w", err)
	}

	return expectOneRow(result, "DeleteStudentByReg", reg)
}

func expectOneRow(result sql.Result, op string, reg int64) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: rows affected: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("no student found with reg %d: %w", reg, storage.ErrNotFound)
	}
	return nil
}

// GetAdminByEmail looks up a login account.
func (s *SQLite) GetAdminByEmail(ctx context.Context, email string) (types.Admin, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT email, password_hash FROM admins WHERE email = ? LIMIT 1",
	)
	if err != nil {
		return types.Admin{}, fmt.Errorf("GetAdminByEmail: prepare: %w", err)
	}
	defer stmt.Close()

	var admin types.Admin
	err = stmt.QueryRowContext(ctx, email).Scan(&admin.Email, &admin.PasswordHash)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.Admin{}, fmt.Errorf("no admin with email %q: %w", email, storage.ErrNotFound)
		}
		return types.Admin{}, fmt.Errorf("GetAdminByEmail: scan: %w", err)
	}

	return admin, nil
}

// CreateAdmin inserts a login account.
func (s *SQLite) CreateAdmin(ctx context.Context, admin types.Admin) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO admins (email, password_hash) VALUES (?, ?)",
	)
	if err != nil {
		return fmt.Errorf("CreateAdmin: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, admin.Email, admin.PasswordHash); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("CreateAdmin: %q: %w", admin.Email, storage.ErrDuplicateKey)
		}
		return fmt.Errorf("CreateAdmin: exec: %w", err)
	}

	return nil
}

// UpdateAdminPassword replaces the stored hash for email.
func (s *SQLite) UpdateAdminPassword(ctx context.Context, email, passwordHash string) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"UPDATE admins SET password_hash = ? WHERE email = ?",
	)
	if err != nil {
		return fmt.Errorf("UpdateAdminPassword: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, passwordHash, email)
	if err != nil {
		return fmt.Errorf("UpdateAdminPassword: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("UpdateAdminPassword: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("no admin with email %q: %w", email, storage.ErrNotFound)
	}

	return nil
}

// CreateResetToken stores a pending password reset token.
func (s *SQLite) CreateResetToken(ctx context.Context, token types.ResetToken) error {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO password_reset_tokens (id, email, expires_at) VALUES (?, ?, ?)",
	)
	if err != nil {
		return fmt.Errorf("CreateResetToken: prepare: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, token.ID, token.Email, token.ExpiresAt); err != nil {
		return fmt.Errorf("CreateResetToken: exec: %w", err)
	}

	return nil
}

// ConsumeResetToken flips the used flag in one conditional statement, so a
// token can only ever be spent once.
func (s *SQLite) ConsumeResetToken(ctx context.Context, id, email string, now int64) error {
	stmt, err := s.Db.PrepareContext(ctx,
		`UPDATE password_reset_tokens SET used = 1
		 WHERE id = ? AND email = ? AND used = 0 AND expires_at > ?`,
	)
	if err != nil {
		return fmt.Errorf("ConsumeResetToken: prepare: %w", err)
	}
	defer stmt.Close()

	result, err := stmt.ExecContext(ctx, id, email, now)
	if err != nil {
		return fmt.Errorf("ConsumeResetToken: exec: %w", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("ConsumeResetToken: rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("reset token not usable: %w", storage.ErrNotFound)
	}

	return nil
}
