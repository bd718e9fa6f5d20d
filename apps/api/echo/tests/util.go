package tests

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"

	. "github.com/edumanage/edumanage/apps/api/echo"
	"github.com/edumanage/edumanage/core"
	"github.com/edumanage/edumanage/core/menu"
	"github.com/edumanage/edumanage/core/user"
	inmemdb "github.com/edumanage/edumanage/storage/database/inmem"
)

var errMissingToken = httpErr{Error: "missing or malformed jwt"}

type testApp struct {
	*Server
	conf     *core.Config
	issuer   *TokenIssuer
	usrRepo  user.Repository
	menuRepo menu.Repository
}

func testConfig() *core.Config {
	return &core.Config{
		AppName:   "EduManage",
		Env:       "TEST",
		TestMode:  true,
		SecretKey: "secret",
		Server: core.ServerConfig{
			JWTExpirationDelta:        10 * time.Minute,
			JWTRefreshExpirationDelta: 4 * time.Hour,
		},
	}
}

func setup(t *testing.T) testApp {
	t.Helper()

	conf := testConfig()

	// set up DB & repos
	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	menuRepo := inmemdb.NewMenuRepository(db)

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	menu.InitValidators(validate, translator)

	// set up server
	srv := NewServer(
		ServerDeps{
			Conf:           conf,
			Logger:         core.NopLogger,
			UserSvc:        user.NewService(usrRepo),
			MenuSvc:        menu.NewService(menuRepo),
			Validate:       validate,
			Translator:     translator,
			DisableReqLogs: true,
		},
	)
	t.Cleanup(func() { _ = srv.Close() })

	return testApp{
		Server:   srv,
		conf:     conf,
		issuer:   NewTokenIssuer(conf),
		usrRepo:  usrRepo,
		menuRepo: menuRepo,
	}
}

func (app testApp) tokens(t *testing.T, usr user.User, origIat ...int64) TokenPair {
	t.Helper()
	tokens, err := app.issuer.Issue(usr, origIat...)
	if err != nil {
		t.Fatalf("tokens() failed: %v", err)
	}
	return tokens
}

func (app testApp) getToken(t *testing.T, usr user.User) string {
	return app.tokens(t, usr).AccessToken
}

type httpErr struct {
	Error string `json:"error"`
}

type httpTest struct {
	name     string
	method   string
	path     string
	body     []byte
	token    string
	wantCode int
	wantData []byte
}

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

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func jsonBytesEqual(t *testing.T, b1, b2 []byte) (bool, error) {
	var j1, j2 interface{}
	if err := json.Unmarshal(b1, &j1); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b2, &j2); err != nil {
		return false, err
	}
	if reflect.DeepEqual(j1, j2) {
		return true, nil
	}
	if j1 == nil || j2 == nil {
		return false, nil
	}
	return assert.ElementsMatch(t, j1, j2), nil
}

func checkCodeAndData(t *testing.T, tt httpTest, rec *httptest.ResponseRecorder) {
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	if tt.wantData == nil {
		return
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
