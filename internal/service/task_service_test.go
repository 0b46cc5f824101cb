package service

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/teamdesk/teamdesk/internal/apperr"
)

func TestListTasksOrdersByPriorityRankThenDueDate(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewTaskService(db, NewAuditService(db))
	tenantID := uuid.New()
	projectID := uuid.New()
	firstID := uuid.New()
	secondID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ AND tenant_id =`).
		WithArgs(projectID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).
			AddRow(projectID.String(), tenantID.String()))
	mock.ExpectQuery(`SELECT count\(\*\) FROM "tasks"`).
		WithArgs(projectID, tenantID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	// Priority is a text column; listing must sort by its rank, not
	// alphabetically, then by due date with open-ended tasks last.
	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE .+ ORDER BY CASE priority WHEN 'high' THEN 3 WHEN 'medium' THEN 2 WHEN 'low' THEN 1 ELSE 0 END DESC, due_date ASC NULLS LAST`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "title", "priority"}).
			AddRow(firstID.String(), "urgent", "high").
			AddRow(secondID.String(), "later", "low"))

	tasks, pagination, total, err := svc.ListTasks(context.Background(), tenantID, projectID, ListTasksInput{})
	if err != nil {
		t.Fatalf("ListTasks: %v", err)
	}
	if total != 2 || len(tasks) != 2 {
		t.Fatalf("expected 2 tasks, got total=%d len=%d", total, len(tasks))
	}
	if tasks[0].ID != firstID {
		t.Fatalf("row order not preserved: %v", tasks[0].ID)
	}
	if pagination.CurrentPage != 1 || pagination.TotalPages != 1 {
		t.Fatalf("unexpected pagination: %+v", pagination)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTaskAssigneeOutsideTenant(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewTaskService(db, NewAuditService(db))
	tenantID := uuid.New()
	projectID := uuid.New()
	assigneeID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ AND tenant_id =`).
		WithArgs(projectID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id"}).
			AddRow(projectID.String(), tenantID.String()))
	// The assignee exists in another tenant; scoped lookup finds nothing.
	mock.ExpectQuery(`SELECT \* FROM "users" WHERE id = .+ AND tenant_id =`).
		WithArgs(assigneeID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.CreateTask(context.Background(), tenantID, projectID, CreateTaskInput{
		Title:      "cross-tenant",
		AssignedTo: &assigneeID,
		ActorID:    uuid.New(),
	})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if e := apperr.As(err); e.Code != "USER_NOT_FOUND" {
		t.Fatalf("unexpected code %q", e.Code)
	}
}

func TestUpdateTaskClearsAssigneeOnExplicitNull(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewTaskService(db, NewAuditService(db))
	tenantID := uuid.New()
	taskID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "tasks" WHERE id = .+ AND tenant_id =`).
		WithArgs(taskID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "assigned_to"}).
			AddRow(taskID.String(), tenantID.String(), uuid.New().String()))

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE "tasks" SET "assigned_to"=`).
		WithArgs(nil, sqlmock.AnyArg(), taskID).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO "audit_logs"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	task, err := svc.UpdateTask(context.Background(), tenantID, taskID, UpdateTaskInput{
		AssignedToSet: true,
		AssignedTo:    nil,
		ActorID:       uuid.New(),
	})
	if err != nil {
		t.Fatalf("UpdateTask: %v", err)
	}
	if task.ID != taskID {
		t.Fatalf("unexpected task: %v", task.ID)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCreateTaskProjectNotFound(t *testing.T) {
	db, mock := newTestDB(t)
	svc := NewTaskService(db, NewAuditService(db))
	tenantID := uuid.New()
	projectID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "projects" WHERE id = .+ AND tenant_id =`).
		WithArgs(projectID, tenantID, 1).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := svc.CreateTask(context.Background(), tenantID, projectID, CreateTaskInput{Title: "orphan"})
	if apperr.KindOf(err) != apperr.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	if e := apperr.As(err); e.Code != "PROJECT_NOT_FOUND" {
		t.Fatalf("unexpected code %q", e.Code)
	}
}
