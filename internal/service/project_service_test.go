package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/teamdesk/teamdesk/internal/apperr"
)

func TestCreateProjectQuotaReached(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewProjectService(db, NewAuditService(db))
	tenantID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tenants" WHERE id =`).
		WithArgs(tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "max_projects"}).AddRow(tenantID.String(), 5))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "projects" WHERE tenant_id =`).
		WithArgs(tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(5))

	_, err := svc.CreateProject(context.Background(), tenantID, CreateProjectInput{
		Name:    "one too many",
		ActorID: uuid.New(),
	})
	if apperr.KindOf(err) != apperr.Conflict {
		t.Fatalf("expected Conflict, got %v", err)
	}
	if e := apperr.As(err); e.Code != "TENANT_PROJECT_LIMIT_EXCEEDED" {
		t.Fatalf("unexpected code %q", e.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDeleteProjectRemovesTasksInSameTransaction(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewProjectService(db, NewAuditService(db))
	tenantID := uuid.New()
	projectID := uuid.New()
	actorID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ AND tenant_id =`).
		WithArgs(projectID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).
			AddRow(projectID.String(), tenantID.String()))

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM "tasks" WHERE project_id =`).
		WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(`DELETE FROM "projects" WHERE id =`).
		WithArgs(projectID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	// Audit record lands outside the delete transaction.
	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "audit_logs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	if err := svc.DeleteProject(context.Background(), tenantID, projectID, actorID, "127.0.0.1"); err != nil {
		t.Fatalf("DeleteProject: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpdateProjectNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewProjectService(db, NewAuditService(db))
	tenantID := uuid.New()
	projectID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ AND tenant_id =`).
		WithArgs(projectID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	name := "renamed"
	_, err := svc.UpdateProject(context.Background(), tenantID, projectID, UpdateProjectInput{Name: &name})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
}
