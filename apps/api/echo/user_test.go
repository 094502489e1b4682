package echoapi_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/nodue/core/user"
)

func Test_userAPI_register(t *testing.T) {
	app := newTestApp(t)

	body := marshallObj(t, echoMap{
		"name":             "Alice W",
		"username":         "alice",
		"email":            "alice@nodue.test",
		"role":             user.RoleStudent,
		"batch":            "2023",
		"password":         "LePassword",
		"password_confirm": "LePassword",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusCreated, rec)

	var usr user.User
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &usr))
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, "alice", usr.Username)
	assert.Equal(t, user.RoleStudent, usr.Role)

	// duplicate username is rejected
	req, rec = newRequest(http.MethodPost, "/v1/users/register", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusBadRequest, rec)
}

func Test_userAPI_register_staffWithBatch(t *testing.T) {
	app := newTestApp(t)

	body := marshallObj(t, echoMap{
		"name":             "Prof X",
		"username":         "profx",
		"email":            "profx@nodue.test",
		"role":             user.RoleTeacher,
		"batch":            "2023",
		"password":         "LePassword",
		"password_confirm": "LePassword",
	})
	req, rec := newRequest(http.MethodPost, "/v1/users/register", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusBadRequest, rec)
}

func Test_userAPI_login(t *testing.T) {
	app := newTestApp(t)
	usr := app.addUser(t, "alice", user.RoleStudent, "2023")

	body := marshallObj(t, echoMap{"username": usr.Username, "password": "LePassword"})
	req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// the token works
	req, rec = newAuthRequest(http.MethodGet, "/v1/students/"+usr.ID+"/tasks", resp.Token)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)
}

func Test_userAPI_login_badCredentials(t *testing.T) {
	app := newTestApp(t)
	usr := app.addUser(t, "alice", user.RoleStudent, "2023")

	body := marshallObj(t, echoMap{"username": usr.Username, "password": "nope"})
	req, rec := newRequest(http.MethodPost, "/v1/users/login", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusBadRequest, rec)

	body = marshallObj(t, echoMap{"username": "ghost", "password": "LePassword"})
	req, rec = newRequest(http.MethodPost, "/v1/users/login", body)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusBadRequest, rec)
}

func Test_userAPI_tokenRefresh(t *testing.T) {
	app := newTestApp(t)
	usr := app.addUser(t, "alice", user.RoleStudent, "2023")
	token := getToken(t, usr)

	req, rec := newAuthRequest(http.MethodPost, "/v1/users/token-refresh", token)
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusOK, rec)

	var resp struct {
		Token string `json:"token"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.Token)

	// no token, no refresh
	req, rec = newRequest(http.MethodPost, "/v1/users/token-refresh")
	app.server.ServeHTTP(rec, req)
	checkCode(t, http.StatusUnauthorized, rec)
}
