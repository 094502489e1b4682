// Package inmemdb provides mutex-guarded in-memory repositories backing the
// test suites and local development without a Postgres instance.
package inmemdb

import (
	"sync"

	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/task"
	"github.com/trezcool/nodue/core/user"
)

type DB struct {
	mutex        sync.RWMutex
	users        map[string]*user.User
	tasks        map[string]*task.Task
	studentTasks map[string]*assignment.StudentTask
}

func NewDB() *DB {
	return &DB{
		users:        make(map[string]*user.User),
		tasks:        make(map[string]*task.Task),
		studentTasks: make(map[string]*assignment.StudentTask),
	}
}
