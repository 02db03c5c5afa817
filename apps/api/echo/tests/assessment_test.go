package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/hazwanihanafi-commits/PPBMS-sub000/core"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/assessment"
	"github.com/hazwanihanafi-commits/PPBMS-sub000/core/user"
	emailsvc "github.com/hazwanihanafi-commits/PPBMS-sub000/services/email"
	testutil "github.com/hazwanihanafi-commits/PPBMS-sub000/tests"
)

func Test_assessmentApi_create(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	supervisor := testutil.CreateUser(t, usrRepo, "Supervisor", "sup", "sup@test.test", "", []string{user.RoleSupervisor}, true)

	adminToken := getToken(t, admin)
	reqMsg := "this field is required"
	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, supervisor), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "required fields", token: adminToken, wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"matric": reqMsg, "assessment_type": reqMsg, "scoring_type": reqMsg, "scores": reqMsg}),
		},
		{
			name: "unknown assessment type", token: adminToken, wantCode: http.StatusBadRequest,
			body:     []byte(`{"matric":"p123","assessment_type":"lol","scoring_type":"Percent","scores":[80]}`),
			wantData: marchallObj(t, map[string]string{"assessment_type": "invalid assessment type"}),
		},
		{
			name: "unknown scoring type", token: adminToken, wantCode: http.StatusBadRequest,
			body:     []byte(`{"matric":"p123","assessment_type":"Viva","scoring_type":"lol","scores":[80]}`),
			wantData: marchallObj(t, map[string]string{"scoring_type": "scoring type must be Percent or Scale"}),
		},
		{
			name: "score out of scale range", token: adminToken, wantCode: http.StatusBadRequest,
			body:     []byte(`{"matric":"p123","assessment_type":"Viva","scoring_type":"Scale","scores":[5.5]}`),
			wantData: marchallObj(t, map[string]string{"scores": "score out of range for the scoring type"}),
		},
		{
			name: "created", token: adminToken, wantCode: http.StatusCreated,
			body: []byte(`{"matric":"P123","assessment_type":"Viva","scoring_type":"Percent","scores":[80,null,65]}`),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/assessments"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)

			if tt.wantCode == http.StatusCreated {
				if rec.Code != tt.wantCode {
					t.Fatalf("failed! code = %v; wantCode %v", rec.Code, tt.wantCode)
				}
				var created assessment.Record
				if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
					t.Fatalf("json.Unmarshal() failed! err %v", err)
				}
				if created.ID == "" {
					t.Error("failed! empty record ID")
				}
				if created.Matric != "p123" { // lowered on the way in
					t.Errorf("Matric = %s; want p123", created.Matric)
				}
				if !created.Score(1).Valid || created.Score(1).Float64 != 80 {
					t.Errorf("Score(1) = %v; want 80", created.Score(1))
				}
				if created.Score(2).Valid {
					t.Errorf("Score(2) = %v; want null", created.Score(2))
				}
				return
			}
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assessmentApi_query(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	selfUsr := testutil.CreateUser(t, usrRepo, "Aisha", "aisha", "aisha@test.test", "", []string{user.RoleStudent}, true)
	selfUsr.Matric = "P123"
	otherUsr := testutil.CreateUser(t, usrRepo, "Budi", "budi", "budi@test.test", "", []string{user.RoleStudent}, true)
	otherUsr.Matric = "M456"

	rec1 := testutil.CreateAssessment(t, assRepo, "p123", assessment.TypeTRX500, assessment.ScoringPercent, map[int]float64{1: 80, 2: 60})
	rec2 := testutil.CreateAssessment(t, assRepo, "p123", assessment.TypeViva, assessment.ScoringScale, map[int]float64{1: 4})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Other students hidden", token: getToken(t, otherUsr), wantCode: http.StatusNotFound,
			wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{name: "Self allowed", token: getToken(t, selfUsr), wantCode: http.StatusOK, wantData: marchallList(t, rec1, rec2)},
		{name: "Staff allowed", token: getToken(t, admin), wantCode: http.StatusOK, wantData: marchallList(t, rec1, rec2)},
	}
	for _, tt := range tests {
		tt.method = http.MethodGet
		tt.path = "/v1/assessments/P123"

		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_assessmentApi_cqi(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)

	// PLO1 averages (90 + 80)/2 = 85 -> achieved; PLO2 at 60 misses the 70 bound
	testutil.CreateAssessment(t, assRepo, "p123", assessment.TypeTRX500, assessment.ScoringPercent, map[int]float64{1: 90, 2: 60})
	testutil.CreateAssessment(t, assRepo, "p123", assessment.TypeViva, assessment.ScoringScale, map[int]float64{1: 4})

	req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/P123/cqi", getToken(t, admin))
	app.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var cqi assessment.StudentCQI
	if err := json.Unmarshal(rec.Body.Bytes(), &cqi); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if cqi.Matric != "p123" {
		t.Errorf("Matric = %s; want p123", cqi.Matric)
	}
	if len(cqi.Results) != assessment.NumPLOs {
		t.Fatalf("results = %d; want %d", len(cqi.Results), assessment.NumPLOs)
	}
	if !cqi.Results[0].Achieved {
		t.Error("PLO1 should be achieved")
	}
	if len(cqi.Issues) != 1 || cqi.Issues[0].PLO != 2 {
		t.Errorf("issues = %+v; want exactly PLO2", cqi.Issues)
	}
}

func Test_assessmentApi_programmeSummary(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	studentUsr := testutil.CreateUser(t, usrRepo, "Hero", "hero", "hero@test.test", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	tests := []httpTest{
		{name: "Auth required", path: "/v1/assessments/programme-summary", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Staff required", path: "/v1/assessments/programme-summary", token: getToken(t, studentUsr),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "programme required", path: "/v1/assessments/programme-summary", token: adminToken,
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, map[string]string{"programme": "programme is required"}),
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

	// empty programme aggregates to zero graduates
	req, rec := newAuthRequest(http.MethodGet, "/v1/assessments/programme-summary?programme=MSc%20Data%20Science", adminToken)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("failed! code = %v; wantCode %v", rec.Code, http.StatusOK)
	}
	var sum assessment.ProgrammeCQISummary
	if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
		t.Fatalf("json.Unmarshal() failed! err %v", err)
	}
	if sum.Graduates != 0 {
		t.Errorf("Graduates = %d; want 0", sum.Graduates)
	}
}

func Test_assessmentApi_runCQIDetection(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.test", "", []string{user.RoleAdmin}, true)
	supervisor := testutil.CreateUser(t, usrRepo, "Supervisor", "sup", "sup@test.test", "", []string{user.RoleSupervisor}, true)

	testutil.CreateStudent(t, testDB, "p123", "Aisha", "aisha@test.test", "sup@test.test",
		"PhD Computer Science", time.Date(2025, time.January, 1, 0, 0, 0, 0, time.UTC))
	// Scale 3/5 normalizes to 60%, below the 70% bound
	testutil.CreateAssessment(t, assRepo, "p123", assessment.TypeAnnualReview, assessment.ScoringScale, map[int]float64{2: 3})

	tests := []httpTest{
		{name: "Auth required", wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{
			name: "Admin required", token: getToken(t, supervisor), wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "permission denied"}),
		},
		{
			name: "First pass alerts", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, core.RunSummary{Processed: 1, Notified: 1}),
		},
		{
			name: "Second pass skips", token: getToken(t, admin), wantCode: http.StatusOK,
			wantData: marchallObj(t, core.RunSummary{Processed: 1, Skipped: 1}),
		},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/assessments/run-cqi"

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
