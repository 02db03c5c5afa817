package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	echoapi "github.com/hazwanihanafi-commits/PPBMS-sub000/apps/api/echo"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/student"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
	emailsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/email"
	testutil "github.com/hazwanihanafi-commits/PPBMS-sub000/tests"
)

func Test_studentApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	supervisor := testutil.CreateUser(t, usrRepo, "Supervisor", "sup", "sup@test.test", "", []string{user.RoleSupervisor}, true)
	studentUsr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.test", "", []string{user.RoleStudent}, true)

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	phd := testutil.CreateStudent(t, testDB, "P123", "Aisha", "aisha@test.test", "sup@test.test", "PhD Computer Science", start)
	msc := testutil.CreateStudent(t, testDB, "M456", "Budi", "budi@test.test", "sup@test.test", "MSc Data Science", start)

	tests := []httpTest{
		{name: "Auth required", path: "/v1/students", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", path: "/v1/students", token: getToken(t, studentUsr), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "Get all (admin)", path: "/v1/students", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallList(t, msc, phd),
		},
		{
			name: "Get all (supervisor)", path: "/v1/students", token: getToken(t, supervisor), wantCode: http.StatusOK,
			wantData: marchallList(t, msc, phd),
		},
		{
			name: "Filter by programme", path: "/v1/students?programme=PhD%20Computer%20Science", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, phd),
		},
		{
			name: "Filter by unknown programme", path: "/v1/students?programme=lol", token: getToken(t, admin),
			wantCode: http.StatusOK, wantData: marchallList(t, []interface{}{}...),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_studentApi_retrieve(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	selfUsr := testutil.CreateUser(t, usrRepo, "Aisha", "aisha", "aisha@test.test", "", []string{user.RoleStudent}, true)
	selfUsr.Matric = "P123" // claims carry the matric
	otherUsr := testutil.CreateUser(t, usrRepo, "Budi", "budi", "budi@test.test", "", []string{user.RoleStudent}, true)
	otherUsr.Matric = "M456"

	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	phd := testutil.CreateStudent(t, testDB, "P123", "Aisha", "aisha@test.test", "sup@test.test", "PhD Computer Science", start)

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Other students hidden", token: getToken(t, otherUsr), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Self allowed", token: getToken(t, selfUsr), wantCode: http.StatusOK, wantData: marchallObj(t, phd)},
		{name: "Staff allowed", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallObj(t, phd)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/students/P123"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	// unknown matric is a plain 404 for staff
	tt := httpTest{
		name: "Unknown matric", method: http.MethodGet, path: "/v1/students/NOPE", token: getToken(t, admin),
		wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_studentApi_timeline(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateStudent(t, testDB, "P123", "Aisha", "aisha@test.test", "sup@test.test", "PhD Computer Science", start)

	req, rec := newAuthRequest(http.MethodGet, "/v1/students/P123/timeline", getToken(t, admin))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var entries []student.TimelineEntry
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if len(entries) != len(student.DoctoralPlan.Milestones) {
		t.Fatalf("entries = %d; want %d", len(entries), len(student.DoctoralPlan.Milestones))
	}
	for i, def := range student.DoctoralPlan.Milestones {
		if entries[i].Key != def.Key {
			t.Errorf("entries[%d].Key = %s; want %s", i, entries[i].Key, def.Key)
		}
		if !entries[i].Expected.Valid {
			t.Errorf("entries[%d].Expected is null; want derived from start date", i)
		}
	}
}

func Test_studentApi_recordMilestone(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	supervisor := testutil.CreateUser(t, usrRepo, "Supervisor", "sup", "sup@test.test", "", []string{user.RoleSupervisor}, true)
	start := time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC)
	testutil.CreateStudent(t, testDB, "P123", "Aisha", "aisha@test.test", "sup@test.test", "PhD Computer Science", start)

	adminToken := getToken(t, admin)
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, supervisor), body: marchallObj(t, echoapi.MilestoneRequest{Actual: "2025-06-15"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"actual": "this field is required"}),
		},
		{
			name: "unrecognized date", token: adminToken, body: marchallObj(t, echoapi.MilestoneRequest{Actual: "lol"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"actual": "unrecognized date"}),
		},
		{
			name: "recorded (ISO date)", token: adminToken, body: marchallObj(t, echoapi.MilestoneRequest{Actual: "2025-06-15"}),
			wantCode: http.StatusNoContent,
		},
		{
			name: "recorded (sheet date)", token: adminToken, body: marchallObj(t, echoapi.MilestoneRequest{Actual: "15/06/2025"}),
			wantCode: http.StatusNoContent,
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPut
		tt.path = "/v1/students/P123/milestones/PROPOSAL_DEFENSE"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusNoContent {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				rec, err := stuRepo.GetStudentByMatric(context.Background(), "p123")
				if err != nil {
					t.Fatalf("GetStudentByMatric() failed, %v", err)
				}
				actual := rec.Dates(student.MilestoneProposalDefense).Actual
				if !actual.Valid {
					t.Fatal("milestone actual date not recorded")
				}
				want := core.Midnight(time.Date(2025, time.June, 15, 0, 0, 0, 0, time.UTC))
				if !actual.Time.Equal(want) {
					t.Errorf("actual = %v; want %v", actual.Time, want)
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}

	// unknown milestone key
	tt := httpTest{
		name: "Unknown milestone", method: http.MethodPut, path: "/v1/students/P123/milestones/LOL", token: adminToken,
		body:     marchallObj(t, echoapi.MilestoneRequest{Actual: "2025-06-15"}),
		wantCode: http.StatusBadRequest,
		wantData: marchallObj(t, map[string]string{"milestone": `unknown milestone "LOL" for plan Doctoral (42-month)`}),
	}
	t.Run(tt.name, func(t *testing.T) {
		req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, tt, rec)
	})
}

func Test_studentApi_runDelayDetection(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	supervisor := testutil.CreateUser(t, usrRepo, "Supervisor", "sup", "sup@test.test", "", []string{user.RoleSupervisor}, true)

	// one year in, the doctoral proposal defense (6mo) and ethics approval (10mo) are overdue
	testutil.CreateStudent(t, testDB, "P123", "Aisha", "aisha@test.test", "sup@test.test",
		"PhD Computer Science", time.Now().UTC().AddDate(-1, 0, 0))

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, supervisor), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "First pass notifies", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, core.RunSummary{Processed: 1, Notified: 1}),
		},
		{
			name: "Second pass skips", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, core.RunSummary{Processed: 1, Skipped: 1}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/students/run-delays"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	if got := len(emailsvc.SentMessages); got != 1 {
		t.Errorf("sent messages = %d; want 1", got)
	}
}
