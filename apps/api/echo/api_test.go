package echoapi_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	. "github.com/trezcool/nodue/apps/api/echo"
	"github.com/trezcool/nodue/core/assignment"
	"github.com/trezcool/nodue/core/task"
	"github.com/trezcool/nodue/core/user"
	emailsvc "github.com/trezcool/nodue/services/email"
	inmemdb "github.com/trezcool/nodue/storage/database/inmem"
)

type testApp struct {
	server   Server
	usrRepo  user.Repository
	taskRepo task.Repository
	stRepo   assignment.Repository
	mailSvc  *emailsvc.DummyService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()

	db := inmemdb.NewDB()
	app := &testApp{
		usrRepo:  inmemdb.NewUserRepository(db),
		taskRepo: inmemdb.NewTaskRepository(db),
		stRepo:   inmemdb.NewStudentTaskRepository(db),
		mailSvc:  emailsvc.NewDummyService(),
	}

	usrSvc := user.NewService(app.usrRepo)
	taskSvc := task.NewService(app.taskRepo, app.usrRepo, app.stRepo)
	assignmentSvc := assignment.NewService(app.stRepo, app.taskRepo, app.usrRepo, app.mailSvc)

	app.server = NewServer(&Options{
		DisableReqLogs: true,
		UserSvc:        usrSvc,
		TaskSvc:        taskSvc,
		AssignmentSvc:  assignmentSvc,
		Logger:         nopLogger{},
	})
	return app
}

func (app *testApp) addUser(t *testing.T, name, role, batch string) user.User {
	t.Helper()
	usr := user.User{
		Name:     name,
		Username: name,
		Email:    name + "@nodue.test",
		Role:     role,
		Batch:    batch,
	}
	usr.SetActive(true)
	if err := usr.SetPassword("LePassword"); err != nil {
		t.Fatalf("SetPassword(): %v", err)
	}
	usr, err := app.usrRepo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser(): %v", err)
	}
	return usr
}

func (app *testApp) addTask(t *testing.T, owner user.User, title string, proofRequired bool, students ...user.User) (task.Task, []assignment.StudentTask) {
	t.Helper()
	ctx := context.Background()

	tsk, err := app.taskRepo.CreateTask(ctx, task.Task{Title: title, OwnerID: owner.ID, ProofRequired: proofRequired})
	if err != nil {
		t.Fatalf("CreateTask(): %v", err)
	}
	ids := make([]string, 0, len(students))
	for _, s := range students {
		ids = append(ids, s.ID)
	}
	if _, err = app.stRepo.CreateStudentTasks(ctx, tsk.ID, ids); err != nil {
		t.Fatalf("CreateStudentTasks(): %v", err)
	}

	rows := make([]assignment.StudentTask, 0, len(students))
	for _, s := range students {
		all, err := app.stRepo.QueryStudentTasksByStudent(ctx, s.ID)
		if err != nil {
			t.Fatalf("QueryStudentTasksByStudent(): %v", err)
		}
		for _, st := range all {
			if st.TaskID == tsk.ID {
				rows = append(rows, st)
				break
			}
		}
	}
	return tsk, rows
}

type echoMap = map[string]interface{}

type nopLogger struct{}

func (nopLogger) Enable(bool)                  {}
func (nopLogger) Debug(string, ...interface{}) {}
func (nopLogger) Info(string, ...interface{})  {}
func (nopLogger) Warn(string, ...interface{})  {}
func (nopLogger) Error(string, ...interface{}) {}
func (nopLogger) Fatal(string, ...interface{}) {}

func newAuthRequest(method, path, token string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	var body bytes.Buffer
	if len(data) > 0 {
		body.Write(data[0])
	}
	req := httptest.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return req, rec
}

func newRequest(method, path string, data ...[]byte) (*http.Request, *httptest.ResponseRecorder) {
	return newAuthRequest(method, path, "", data...)
}

func getToken(t *testing.T, usr user.User) string {
	t.Helper()
	claims := GetUserClaims(usr)
	token, err := GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken(): %v", err)
	}
	return token
}

func marshallObj(t *testing.T, obj interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marshallObj(): %v", err)
	}
	return data
}

func jsonBytesEqual(b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	return reflect.DeepEqual(j1, j2), nil
}

func checkCode(t *testing.T, wantCode int, rec *httptest.ResponseRecorder) {
	t.Helper()
	if rec.Code != wantCode {
		t.Errorf("failed! code = %v; wantCode %v; body %s", rec.Code, wantCode, rec.Body.String())
	}
}

func checkCodeAndData(t *testing.T, wantCode int, wantData []byte, rec *httptest.ResponseRecorder) {
	t.Helper()
	checkCode(t, wantCode, rec)
	ok, err := jsonBytesEqual(rec.Body.Bytes(), wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(wantData))
	}
}
