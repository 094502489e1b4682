package assignment_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/trezcool/nodue/core"
	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/policy"
	"github.com/trezcool/nodue/core/user"
)

func TestService_StatsForStudent(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	teacher := env.addUser(t, "teacher", user.RoleTeacher, "")
	alice := env.addUser(t, "alice", user.RoleStudent, "2023")

	_, rows1 := env.addTask(t, teacher, "Return library books", false, alice)
	_, rows2 := env.addTask(t, teacher, "Clear hostel dues", false, alice)
	env.addTask(t, teacher, "Sports kit return", false, alice)

	_, err := env.svc.Approve(ctx, asCaller(teacher), rows1[0].ID)
	assert.NoError(t, err)
	_, err = env.svc.RequestCompletion(ctx, asCaller(alice), rows2[0].ID, "")
	assert.NoError(t, err)

	stats, err := env.svc.StatsForStudent(ctx, asCaller(alice), alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StudentStats{
		Total:          3,
		Completed:      1,
		Pending:        1,
		NotStarted:     1,
		CompletionRate: 33, // 1/3 rounded
		Cleared:        false,
	}, stats)

	// a student cannot read another student's stats
	bob := env.addUser(t, "bob", user.RoleStudent, "2023")
	_, err = env.svc.StatsForStudent(ctx, asCaller(bob), alice.ID)
	assert.Equal(t, policy.ErrForbidden, errors.Cause(err))
}

func TestService_StatsForStudent_cleared(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	teacher := env.addUser(t, "teacher", user.RoleTeacher, "")
	alice := env.addUser(t, "alice", user.RoleStudent, "2023")

	_, rows1 := env.addTask(t, teacher, "Return library books", false, alice)
	_, rows2 := env.addTask(t, teacher, "Clear hostel dues", false, alice)

	_, err := env.svc.Approve(ctx, asCaller(teacher), rows1[0].ID)
	assert.NoError(t, err)
	_, err = env.svc.Approve(ctx, asCaller(teacher), rows2[0].ID)
	assert.NoError(t, err)

	stats, err := env.svc.StatsForStudent(ctx, asCaller(alice), alice.ID)
	assert.NoError(t, err)
	assert.True(t, stats.Cleared)
	assert.Equal(t, 100, stats.CompletionRate)

	cleared, err := env.svc.AllCleared(ctx, alice.ID)
	assert.NoError(t, err)
	assert.True(t, cleared)
}

func TestService_StatsForStudent_noTasks(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	alice := env.addUser(t, "alice", user.RoleStudent, "2023")

	stats, err := env.svc.StatsForStudent(ctx, asCaller(alice), alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, assignment.StudentStats{}, stats)

	// no tasks at all does not count as cleared
	cleared, err := env.svc.AllCleared(ctx, alice.ID)
	assert.NoError(t, err)
	assert.False(t, cleared)
}

func TestService_StatsForStudent_rateRounding(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	teacher := env.addUser(t, "teacher", user.RoleTeacher, "")
	alice := env.addUser(t, "alice", user.RoleStudent, "2023")

	var rows []assignment.StudentTask
	for _, title := range []string{"t1", "t2", "t3"} {
		_, r := env.addTask(t, teacher, title, false, alice)
		rows = append(rows, r[0])
	}

	_, err := env.svc.Approve(ctx, asCaller(teacher), rows[0].ID)
	assert.NoError(t, err)
	_, err = env.svc.Approve(ctx, asCaller(teacher), rows[1].ID)
	assert.NoError(t, err)

	stats, err := env.svc.StatsForStudent(ctx, asCaller(alice), alice.ID)
	assert.NoError(t, err)
	assert.Equal(t, 67, stats.CompletionRate) // 2/3 rounded up
}

func TestService_BatchStats(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	admin := env.addUser(t, "root", user.RoleAdmin, "")
	teacher := env.addUser(t, "teacher", user.RoleTeacher, "")
	alice := env.addUser(t, "alice", user.RoleStudent, "2023")
	bob := env.addUser(t, "bob", user.RoleStudent, "2023")
	carol := env.addUser(t, "carol", user.RoleStudent, "2024")
	dave := env.addUser(t, "dave", user.RoleStudent, "") // no batch

	_, rows := env.addTask(t, teacher, "Return library books", false, alice, bob, carol, dave)
	env.addTask(t, teacher, "Clear hostel dues", false, alice)

	_, err := env.svc.Approve(ctx, asCaller(teacher), rows[0].ID) // alice's row
	assert.NoError(t, err)

	stats, err := env.svc.BatchStats(ctx, asCaller(admin))
	assert.NoError(t, err)

	assert.Equal(t, map[string]assignment.BatchStudents{
		"2023": {TotalStudents: 2},
		"2024": {TotalStudents: 1},
		core.Conf.Clearance.DefaultBatch: {TotalStudents: 1},
	}, stats.StudentsByBatch)

	assert.Equal(t, map[string]assignment.BatchTasks{
		"2023": {TotalTasks: 3, Completed: 1, Pending: 2},
		"2024": {TotalTasks: 1, Pending: 1},
		core.Conf.Clearance.DefaultBatch: {TotalTasks: 1, Pending: 1},
	}, stats.TaskStatsByBatch)

	// only the admin may see batch stats
	_, err = env.svc.BatchStats(ctx, asCaller(teacher))
	assert.Equal(t, policy.ErrForbidden, errors.Cause(err))
}

func TestService_BatchStats_skipsOrphanedRows(t *testing.T) {
	ctx := context.Background()
	env := setup(t)

	admin := env.addUser(t, "root", user.RoleAdmin, "")
	teacher := env.addUser(t, "teacher", user.RoleTeacher, "")
	alice := env.addUser(t, "alice", user.RoleStudent, "2023")

	env.addTask(t, teacher, "Return library books", false, alice)

	// a row whose student was since deleted
	_, err := env.stRepo.CreateStudentTasks(ctx, "sometask", []string{"ghost-student"})
	assert.NoError(t, err)

	stats, err := env.svc.BatchStats(ctx, asCaller(admin))
	assert.NoError(t, err)
	assert.Equal(t, 1, stats.TaskStatsByBatch["2023"].TotalTasks)
	assert.Len(t, stats.TaskStatsByBatch, 1)
}
