package tests

import (
	"bytes"
	"encoding/json"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	echoapi "github.com/hazwanihanafi-commits/PPBMS-sub000/apps/api/echo"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
	emailsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/email"
	logsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/logger"
	dummydb "github.com/hazwanihanafi-commits/PPBMS-sub000/storage/database/dummy"
)

var (
	testDB  *dummydb.DB
	usrRepo user.Repository
	stuRepo student.Repository
	assRepo assessment.Repository

	errMissingToken = httpErr{Error: "missing or malformed jwt"}
)

func testConf() *core.Config {
	return &core.Config{
		TestMode:         true,
		AppName:          "PPBMS",
		SecretKey:        []byte("secret"),
		FrontendBaseURL:  "http://localhost:3000",
		DefaultFromEmail: mail.Address{Name: "PPBMS", Address: "noreply@test.test"},
		Server: core.ServerConfig{
			JWTExpirationDelta:        7 * 24 * time.Hour,
			JWTRefreshExpirationDelta: 4 * time.Hour,
			PasswordResetTimeoutDelta: 3 * 24 * time.Hour,
		},
		Detection: core.DetectionConfig{DueSoonWindowDays: 14, ReadCacheTTL: 10 * time.Second},
		CQI:       core.CQIConfig{AchievedPct: 70, BorderlinePct: 50, CohortDenominator: true},
	}
}

func setup(t *testing.T) echoapi.Server {
	t.Helper()
	emailsvc.ClearSentMessages()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	testDB = db
	usrRepo = dummydb.NewUserRepository(db)
	stuRepo = dummydb.NewStudentRepository(db)
	assRepo = dummydb.NewAssessmentRepository(db)

	conf := testConf()
	mailSvc := emailsvc.NewConsoleServiceMock(conf)
	logger := logsvc.NewTestLogger(stdlog.New(os.Stdout, "TEST : ", stdlog.LstdFlags))
	stuSvc := student.NewServiceMock(stuRepo, mailSvc, logger, conf, time.Now)

	return echoapi.NewServer(
		&echoapi.Options{
			DisableReqLogs: true,
			Conf:           conf,
			Logger:         logger,
			UserSvc:        user.NewServiceMock(usrRepo, mailSvc, conf),
			StudentSvc:     stuSvc,
			AssessmentSvc:  assessment.NewServiceMock(assRepo, stuSvc, mailSvc, logger, conf, time.Now),
		},
	)
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
	extra    interface{}
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

func getToken(t *testing.T, usr user.User) string {
	claims := echoapi.GetUserClaims(usr)
	token, err := echoapi.GenerateToken(claims)
	if err != nil {
		t.Fatalf("getToken() failed: %v", err)
	}
	return token
}

func marchallObj(t *testing.T, obj interface{}) []byte {
	data, err := json.Marshal(obj)
	if err != nil {
		t.Fatalf("marchallObj() failed: %v", err)
	}
	return data
}

func marchallList(t *testing.T, objs ...interface{}) []byte {
	data, err := json.Marshal(objs)
	if err != nil {
		t.Fatalf("marchallList() failed: %v", err)
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
	t.Helper()
	if rec.Code != tt.wantCode {
		t.Errorf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
	}
	ok, err := jsonBytesEqual(t, rec.Body.Bytes(), tt.wantData)
	if err != nil {
		t.Errorf("jsonBytesEqual() failed to compare; err %v", err)
	}
	if !ok {
		t.Errorf("failed! data = %v; wantData %v", rec.Body.String(), string(tt.wantData))
	}
}
