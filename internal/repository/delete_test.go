package repository

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type execCall struct {
	sql  string
	args []any
}

// recordingConn stands in for the pool on the pgx delete paths. Only Begin
// and Exec are implemented.
type recordingConn struct {
	pgxConn

	calls      []execCall
	failOn     string
	committed  bool
	rolledBack bool
}

func (c *recordingConn) Begin(ctx context.Context) (pgx.Tx, error) {
	return &recordingTx{conn: c}, nil
}

func (c *recordingConn) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	sql = strings.Join(strings.Fields(sql), " ")
	c.calls = append(c.calls, execCall{sql: sql, args: args})
	if c.failOn != "" && strings.Contains(sql, c.failOn) {
		return pgconn.CommandTag{}, errors.New("connection reset")
	}
	return pgconn.NewCommandTag("DELETE 1"), nil
}

type recordingTx struct {
	pgx.Tx
	conn *recordingConn
}

func (t *recordingTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.conn.Exec(ctx, sql, args...)
}

func (t *recordingTx) Commit(ctx context.Context) error {
	t.conn.committed = true
	return nil
}

func (t *recordingTx) Rollback(ctx context.Context) error {
	if !t.conn.committed {
		t.conn.rolledBack = true
	}
	return nil
}

func TestOrganizationRepository_DeleteClearsQuizResponsesFirst(t *testing.T) {
	conn := &recordingConn{}
	repo := &pgOrganizationRepository{pool: conn}

	require.NoError(t, repo.Delete(context.Background(), "org-1"))

	require.Len(t, conn.calls, 2)
	assert.Contains(t, conn.calls[0].sql, "DELETE FROM quiz_responses")
	assert.Contains(t, conn.calls[0].sql, "WHERE c.organization_id = $1")
	assert.Equal(t, []any{"org-1"}, conn.calls[0].args)
	assert.Equal(t, "DELETE FROM organizations WHERE id = $1", conn.calls[1].sql)
	assert.Equal(t, []any{"org-1"}, conn.calls[1].args)
	assert.True(t, conn.committed)
}

func TestOrganizationRepository_DeleteFailureKeepsOrganization(t *testing.T) {
	conn := &recordingConn{failOn: "quiz_responses"}
	repo := &pgOrganizationRepository{pool: conn}

	err := repo.Delete(context.Background(), "org-1")
	require.Error(t, err)

	assert.Len(t, conn.calls, 1)
	assert.False(t, conn.committed)
	assert.True(t, conn.rolledBack)
}

func TestUserRepository_DeleteClearsQuizResponsesFirst(t *testing.T) {
	conn := &recordingConn{}
	repo := &pgUserRepository{pool: conn}

	require.NoError(t, repo.Delete(context.Background(), "user-1"))

	require.Len(t, conn.calls, 2)
	assert.Equal(t,
		"DELETE FROM quiz_responses WHERE enrollment_id IN (SELECT id FROM enrollments WHERE user_id = $1)",
		conn.calls[0].sql)
	assert.Equal(t, []any{"user-1"}, conn.calls[0].args)
	assert.Equal(t, "DELETE FROM users WHERE id = $1", conn.calls[1].sql)
	assert.True(t, conn.committed)
}

func TestUserRepository_DeleteFailureKeepsUser(t *testing.T) {
	conn := &recordingConn{failOn: "DELETE FROM users"}
	repo := &pgUserRepository{pool: conn}

	err := repo.Delete(context.Background(), "user-1")
	require.Error(t, err)

	assert.Len(t, conn.calls, 2)
	assert.False(t, conn.committed)
	assert.True(t, conn.rolledBack)
}

func TestCourseRepository_DeleteClearsQuizResponsesFirst(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM quiz_responses\s+WHERE enrollment_id IN \(SELECT id FROM enrollments WHERE course_id = \$1\)`).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(`DELETE FROM courses WHERE id = \$1`).
		WithArgs("course-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.Delete(context.Background(), "course-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCourseRepository_DeleteFailureRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCourseRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM quiz_responses`).
		WithArgs("course-1").
		WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	require.Error(t, repo.Delete(context.Background(), "course-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
