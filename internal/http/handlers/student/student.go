// Package student contains all HTTP handlers related to the Student resource.
//
// HANDLER PATTERN USED HERE: THE CLOSURE / FACTORY PATTERN
// ────────────────────────────────────────────────────────────
// Go's router expects handler functions with the signature:
//
//	func(http.ResponseWriter, *http.Request)
//
// That signature has no room for extra parameters like a database.
// To inject dependencies we use a factory function that:
//  1. Accepts dependencies (the student store)
//  2. Returns a function with the exact signature the router needs
//
// Example:
//
//	router.Handle("POST /insert_data", protect(student.New(store)))
//	//                                         ^^^^^^^^^^^^^^^^^
//	//                         New(store) is called ONCE at startup.
//	//                         It returns a handler func which is called
//	//                         on EVERY incoming request.
//
// Every handler here sits behind the bearer token middleware, so by the time
// it runs the caller is already authenticated.
package student

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/aanand-mishra/student-records-api/internal/storage"
	"github.com/aanand-mishra/student-records-api/internal/types"
	"github.com/aanand-mishra/student-records-api/internal/utils/response"
)

// Messages returned to clients.
const (
	msgCreated  = "User registered successfully"
	msgUpdated  = "User updated successfully"
	msgNotFound = "User not found"
	msgExists   = "User with this reg already exists"
	msgInternal = "internal server error"
	msgBadReg   = "invalid reg: must be an integer"
)

// statusMessage is the success body of create and update.
type statusMessage struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// pathReg parses the {reg} path segment. On failure it writes the 400
// response itself and returns false.
func pathReg(w http.ResponseWriter, r *http.Request) (int64, bool) {
	reg, err := strconv.ParseInt(r.PathValue("reg"), 10, 64)
	if err != nil {
		response.WriteJSON(w, http.StatusBadRequest, response.Error(msgBadReg))
		return 0, false
	}
	return reg, true
}

// writeStoreError maps a storage error to its HTTP response. Unexpected
// errors are logged with detail and answered with a generic message.
func writeStoreError(w http.ResponseWriter, op string, reg int64, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		response.WriteJSON(w, http.StatusNotFound, response.Error(msgNotFound))
	case errors.Is(err, storage.ErrDuplicateKey):
		response.WriteJSON(w, http.StatusConflict, response.Error(msgExists))
	default:
		slog.Error("student store failure",
			slog.String("op", op),
			slog.Int64("reg", reg),
			slog.String("error", err.Error()))
		response.WriteJSON(w, http.StatusInternalServerError, response.Error(msgInternal))
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// New handles POST /insert_data
// Registers a new student. The caller chooses the reg.
//
// Request body (JSON):
//
//	{ "reg": 101, "name": "Asha", "degree": "BTech",
//	  "specialization": "CSE", "address": "Pune", "phone_no": "98xxxxxx" }
//
// Success response (201 Created):
//
//	{ "status": "success", "message": "User registered successfully" }
//
// Error responses:
//
//	400 Bad Request  — empty body, malformed JSON, or failed validation
//	409 Conflict     — a student with this reg already exists
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func New(storage storage.StudentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var student types.Student
		if !response.DecodeJSON(w, r, &student) {
			return
		}

		slog.Info("creating a student", slog.Int64("reg", student.Reg))

		if err := storage.CreateStudent(r.Context(), student); err != nil {
			writeStoreError(w, "create", student.Reg, err)
			return
		}

		slog.Info("student created", slog.Int64("reg", student.Reg))

		response.WriteJSON(w, http.StatusCreated, statusMessage{
			Status:  response.StatusSuccess,
			Message: msgCreated,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetByReg handles GET /stud_data/{reg}
//
// Success response (200 OK): the student object.
//
// Error responses:
//
//	400 Bad Request  — reg is not a valid integer
//	404 Not Found    — no student with this reg
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func GetByReg(storage storage.StudentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := pathReg(w, r)
		if !ok {
			return
		}

		slog.Info("getting a student", slog.Int64("reg", reg))

		student, err := storage.GetStudentByReg(r.Context(), reg)
		if err != nil {
			writeStoreError(w, "get", reg, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, student)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// GetList handles GET /stud_data
// Returns a JSON array of all students, ordered by reg.
//
// Returns an empty array [] (not null) when there are no students.
// ─────────────────────────────────────────────────────────────────────────────
func GetList(storage storage.StudentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		slog.Info("getting all students")

		students, err := storage.GetStudents(r.Context())
		if err != nil {
			writeStoreError(w, "list", 0, err)
			return
		}

		response.WriteJSON(w, http.StatusOK, students)
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Update handles PUT /update/{reg}
// Replaces every mutable field of an existing student.
//
// The reg in the path wins: any reg in the body is ignored, so a record can
// never be moved to a different key.
//
// Success response (200 OK):
//
//	{ "status": "success", "message": "User updated successfully" }
//
// Error responses:
//
//	400 Bad Request  — invalid reg, empty body, or validation failure
//	404 Not Found    — no student with this reg
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Update(storage storage.StudentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := pathReg(w, r)
		if !ok {
			return
		}

		slog.Info("updating a student", slog.Int64("reg", reg))

		var student types.Student
		if !response.DecodeBody(w, r, &student) {
			return
		}
		student.Reg = reg
		if !response.Validate(w, student) {
			return
		}

		if err := storage.UpdateStudentByReg(r.Context(), reg, student); err != nil {
			writeStoreError(w, "update", reg, err)
			return
		}

		slog.Info("student updated", slog.Int64("reg", reg))

		response.WriteJSON(w, http.StatusOK, statusMessage{
			Status:  response.StatusSuccess,
			Message: msgUpdated,
		})
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Delete handles DELETE /del/{reg}
// Permanently removes a student record.
//
// Success response (200 OK):
//
//	{ "message": "User with reg 101 deleted successfully" }
//
// Error responses:
//
//	400 Bad Request  — invalid reg
//	404 Not Found    — no student with this reg
//	500 Internal     — database error
//
// ─────────────────────────────────────────────────────────────────────────────
func Delete(storage storage.StudentStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reg, ok := pathReg(w, r)
		if !ok {
			return
		}

		slog.Info("deleting a student", slog.Int64("reg", reg))

		if err := storage.DeleteStudentByReg(r.Context(), reg); err != nil {
			writeStoreError(w, "delete", reg, err)
			return
		}

		slog.Info("student deleted", slog.Int64("reg", reg))

		response.WriteJSON(w, http.StatusOK, map[string]string{
			"message": fmt.Sprintf("User with reg %d deleted successfully", reg),
		})
	}
}
