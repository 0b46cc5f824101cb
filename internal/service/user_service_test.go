package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/teamdesk/teamdesk/internal/apperr"
	"github.com/teamdesk/teamdesk/internal/model"
)

func TestAddUserQuotaReached(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, NewAuditService(db))
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE id =`).
		WithArgs(tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_users"}).AddRow(tenantID.String(), 2))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE tenant_id =`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	_, err := svc.AddUser(context.Background(), tenantID, AddUserInput{
		Email:    "new@example.com",
		FullName: "New User",
		Password: "Sup3rSecret",
	})
	if apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if e := apperr.As(err); e.Code != "TENANT_USER_LIMIT_EXCEEDED" {
		t.Fatalf("unexpected code %q", e.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddUserDuplicateEmail(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, NewAuditService(db))
	tenantID := uuid.New()
	otherID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE id =`).
		WithArgs(tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_users"}).AddRow(tenantID.String(), 10))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE tenant_id =`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	// The email is taken by a user in another tenant; uniqueness is global.
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WithArgs("taken@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "email"}).AddRow(otherID.String(), "taken@example.com"))

	_, err := svc.AddUser(context.Background(), tenantID, AddUserInput{
		Email:    "taken@example.com",
		FullName: "Dup",
		Password: "Sup3rSecret",
	})
	if apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if e := apperr.As(err); e.Code != "EMAIL_EXISTS" {
		t.Fatalf("unexpected code %q", e.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestAddUserRejectsWeakPassword(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, NewAuditService(db))
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE id =`).
		WithArgs(tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_users"}).AddRow(tenantID.String(), 10))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE tenant_id =`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE email =`).
		WithArgs("weak@example.com", 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.AddUser(context.Background(), tenantID, AddUserInput{
		Email:    "weak@example.com",
		FullName: "Weak",
		Password: "short",
	})
	if apperr.KindOf(err) != apperr.Invalid {
		t.Fatalf("expected Invalid, got %v", err)
	}
	if e := apperr.As(err); len(e.Fields) == 0 {
		t.Fatalf("expected field errors, got none")
	}
}

func TestDeleteUserLastAdmin(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, NewAuditService(db))
	tenantID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+ AND tenant_id =`).
		WithArgs(userID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "role"}).
			AddRow(userID.String(), tenantID.String(), "tenant_admin"))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "users" WHERE tenant_id = .+ AND role =`).
		WithArgs(tenantID, model.RoleTenantAdmin).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	err := svc.DeleteUser(context.Background(), tenantID, userID, uuid.New(), "127.0.0.1")
	if apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if e := apperr.As(err); e.Code != "CANNOT_DELETE_LAST_ADMIN" {
		t.Fatalf("unexpected code %q", e.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteUserNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewUserService(db, NewAuditService(db))
	tenantID := uuid.New()
	userID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+ AND tenant_id =`).
		WithArgs(userID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	err := svc.DeleteUser(context.Background(), tenantID, userID, uuid.New(), "127.0.0.1")
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
