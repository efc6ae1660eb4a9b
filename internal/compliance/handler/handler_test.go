package handler

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"staywatch/internal/audit"
	"staywatch/internal/compliance/models"
	"staywatch/internal/compliance/service"
	"staywatch/internal/compliance/store/interval"
	"staywatch/internal/compliance/store/zone"
	"staywatch/internal/engine"
	"staywatch/pkg/domain"
	"staywatch/pkg/testutil"
)

// HandlerSuite exercises the HTTP layer against real in-memory stores.
// Handler tests validate HTTP concerns: parsing, routing, response mapping.
type HandlerSuite struct {
	suite.Suite
	router http.Handler
	sink   *audit.MemorySink
}

func (s *HandlerSuite) SetupTest() {
	intervals := interval.NewInMemoryStore()
	zones := zone.NewInMemoryStore()
	s.sink = audit.NewMemorySink()

	// Fixed clock so "today"-relative behavior is stable in assertions.
	clock := func() time.Time {
		return time.Date(2024, time.December, 21, 12, 0, 0, 0, time.UTC)
	}
	svc, err := service.New(intervals, zones, engine.DefaultPolicy(),
		service.WithClock(clock),
		service.WithAuditPublisher(s.sink))
	require.NoError(s.T(), err)

	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	h := New(svc, logger)

	r := chi.NewRouter()
	h.Register(r)
	s.router = r
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	req := testutil.NewJSONRequest(s.T(), method, path, body)
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) addInterval(subjectID string, req models.IntervalRequest) models.IntervalRecord {
	rec := s.do(http.MethodPost, "/subjects/"+subjectID+"/intervals", req)
	testutil.AssertStatus(s.T(), rec, http.StatusCreated)
	return *testutil.UnmarshalResponse[models.IntervalRecord](s.T(), rec)
}

func strPtr(s string) *string { return &s }

func (s *HandlerSuite) TestAddInterval_Created() {
	record := s.addInterval("traveler-1", models.IntervalRequest{
		Zone:      "de",
		StartDate: "2024-03-01",
		EndDate:   strPtr("2024-03-10"),
	})

	assert.False(s.T(), record.ID.IsNil())
	assert.Equal(s.T(), "DE", record.Zone.String(), "zone is normalized to upper case")
	assert.Equal(s.T(), "2024-03-01", record.StartDate.String())
	require.NotNil(s.T(), record.EndDate)
	assert.Equal(s.T(), "2024-03-10", record.EndDate.String())
}

func (s *HandlerSuite) TestAddInterval_InvalidJSON() {
	req := httptest.NewRequest(http.MethodPost, "/subjects/traveler-1/intervals",
		bytes.NewReader([]byte("not valid json")))
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestAddInterval_MissingStartDate() {
	rec := s.do(http.MethodPost, "/subjects/traveler-1/intervals", models.IntervalRequest{
		Zone:    "DE",
		EndDate: strPtr("2024-03-10"),
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestAddInterval_EndBeforeStart() {
	rec := s.do(http.MethodPost, "/subjects/traveler-1/intervals", models.IntervalRequest{
		Zone:      "DE",
		StartDate: "2024-03-10",
		EndDate:   strPtr("2024-03-01"),
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code, rec.Body.String())
}

func (s *HandlerSuite) TestListIntervals() {
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-10"),
	})
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "FR", StartDate: "2024-05-01", EndDate: strPtr("2024-05-05"),
	})

	rec := s.do(http.MethodGet, "/subjects/traveler-1/intervals", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	var records []models.IntervalRecord
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &records))
	assert.Len(s.T(), records, 2)
}

func (s *HandlerSuite) TestUpdateInterval() {
	record := s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-10"),
	})

	rec := s.do(http.MethodPut,
		fmt.Sprintf("/subjects/traveler-1/intervals/%s", record.ID),
		models.IntervalRequest{Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-15")})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	var updated models.IntervalRecord
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.Equal(s.T(), record.ID, updated.ID)
	require.NotNil(s.T(), updated.EndDate)
	assert.Equal(s.T(), "2024-03-15", updated.EndDate.String())
}

func (s *HandlerSuite) TestUpdateInterval_NotFound() {
	rec := s.do(http.MethodPut,
		"/subjects/traveler-1/intervals/4f3a2a1d-0000-4000-8000-000000000001",
		models.IntervalRequest{Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-15")})
	assert.Equal(s.T(), http.StatusNotFound, rec.Code)
}

func (s *HandlerSuite) TestUpdateInterval_MalformedID() {
	rec := s.do(http.MethodPut, "/subjects/traveler-1/intervals/not-a-uuid",
		models.IntervalRequest{Zone: "DE", StartDate: "2024-03-01"})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestExcludeInterval() {
	record := s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-10"),
	})

	rec := s.do(http.MethodDelete,
		fmt.Sprintf("/subjects/traveler-1/intervals/%s", record.ID), nil)
	require.Equal(s.T(), http.StatusNoContent, rec.Code)

	// Excluded intervals stay listed but no longer count toward status.
	list := s.do(http.MethodGet, "/subjects/traveler-1/intervals", nil)
	var records []models.IntervalRecord
	require.NoError(s.T(), json.Unmarshal(list.Body.Bytes(), &records))
	require.Len(s.T(), records, 1)
	assert.True(s.T(), records[0].Excluded)

	status := s.do(http.MethodGet, "/subjects/traveler-1/status?date=2024-03-20", nil)
	require.Equal(s.T(), http.StatusOK, status.Code)
	var res models.StatusResponse
	require.NoError(s.T(), json.Unmarshal(status.Body.Bytes(), &res))
	assert.Equal(s.T(), 0, res.DaysUsed)
}

func (s *HandlerSuite) TestPurgeSubject() {
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-10"),
	})
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "FR", StartDate: "2024-05-01", EndDate: strPtr("2024-05-05"),
	})

	rec := s.do(http.MethodDelete, "/subjects/traveler-1/intervals", nil)
	require.Equal(s.T(), http.StatusNoContent, rec.Code)

	list := s.do(http.MethodGet, "/subjects/traveler-1/intervals", nil)
	require.Equal(s.T(), http.StatusOK, list.Code)
	var records []models.IntervalRecord
	require.NoError(s.T(), json.Unmarshal(list.Body.Bytes(), &records))
	assert.Empty(s.T(), records)

	events := s.sink.ByAction(audit.ActionSubjectPurged)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), domain.SubjectID("traveler-1"), events[0].SubjectID)
}

func (s *HandlerSuite) TestStatus_Explicit_Date() {
	// 70 counted days within the 180-day window ending 2024-12-21.
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-07-01", EndDate: strPtr("2024-08-09"),
	})
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "FR", StartDate: "2024-10-01", EndDate: strPtr("2024-10-30"),
	})

	rec := s.do(http.MethodGet, "/subjects/traveler-1/status?date=2024-12-21", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	var res models.StatusResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(s.T(), 70, res.DaysUsed)
	assert.Equal(s.T(), 20, res.DaysRemaining)
	assert.Equal(s.T(), engine.TierCaution, res.Risk)
	assert.Equal(s.T(), "2024-12-21", res.ReferenceDate.String())
}

func (s *HandlerSuite) TestStatus_DefaultsToToday() {
	rec := s.do(http.MethodGet, "/subjects/traveler-1/status", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	var res models.StatusResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(s.T(), "2024-12-21", res.ReferenceDate.String(), "fixed test clock")
	assert.Equal(s.T(), 0, res.DaysUsed)
	assert.Equal(s.T(), engine.TierSafe, res.Risk)
}

func (s *HandlerSuite) TestStatus_BadDate() {
	rec := s.do(http.MethodGet, "/subjects/traveler-1/status?date=21-12-2024", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestForecast() {
	rec := s.do(http.MethodGet, "/subjects/traveler-1/forecast?stay_days=14&from=2025-01-01", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	var res models.ForecastResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &res))
	assert.True(s.T(), res.Found)
	assert.Equal(s.T(), "2025-01-01", res.Start.String(), "empty history admits immediate entry")
	assert.Equal(s.T(), 14, res.StayDays)
}

func (s *HandlerSuite) TestForecast_MissingStayDays() {
	rec := s.do(http.MethodGet, "/subjects/traveler-1/forecast", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestForecast_StayLongerThanLimit() {
	rec := s.do(http.MethodGet, "/subjects/traveler-1/forecast?stay_days=91", nil)
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code,
		"a stay longer than the limit can never be compliant")
}

func (s *HandlerSuite) TestOverview() {
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-07-01", EndDate: strPtr("2024-08-09"),
	})

	rec := s.do(http.MethodPost, "/overview", models.OverviewRequest{
		SubjectIDs: []string{"traveler-1", "traveler-2"},
		Date:       "2024-12-21",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	var res models.OverviewResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(s.T(), res.Subjects, 2)
	assert.Equal(s.T(), "traveler-1", res.Subjects[0].SubjectID.String())
	assert.Equal(s.T(), 40, res.Subjects[0].Result.DaysUsed)
	assert.Equal(s.T(), "traveler-2", res.Subjects[1].SubjectID.String())
	assert.Equal(s.T(), 0, res.Subjects[1].Result.DaysUsed)
}

func (s *HandlerSuite) TestOverview_EmptySubjectID() {
	rec := s.do(http.MethodPost, "/overview", models.OverviewRequest{
		SubjectIDs: []string{""},
	})
	assert.Equal(s.T(), http.StatusBadRequest, rec.Code)
}

func (s *HandlerSuite) TestZoneRules_CRUD() {
	rec := s.do(http.MethodPut, "/zones/ch", models.ZoneRuleRequest{
		Counted: false,
		Note:    "bilateral agreement, tracked separately",
	})
	require.Equal(s.T(), http.StatusOK, rec.Code, rec.Body.String())

	get := s.do(http.MethodGet, "/zones/CH", nil)
	require.Equal(s.T(), http.StatusOK, get.Code)
	var rule models.ZoneRule
	require.NoError(s.T(), json.Unmarshal(get.Body.Bytes(), &rule))
	assert.Equal(s.T(), "CH", rule.Zone.String())
	assert.False(s.T(), rule.Counted)

	list := s.do(http.MethodGet, "/zones/", nil)
	require.Equal(s.T(), http.StatusOK, list.Code)
	var rules []models.ZoneRule
	require.NoError(s.T(), json.Unmarshal(list.Body.Bytes(), &rules))
	assert.Len(s.T(), rules, 1)

	del := s.do(http.MethodDelete, "/zones/CH", nil)
	require.Equal(s.T(), http.StatusNoContent, del.Code)

	missing := s.do(http.MethodGet, "/zones/CH", nil)
	assert.Equal(s.T(), http.StatusNotFound, missing.Code)
}

func (s *HandlerSuite) TestAddInterval_AuditCarriesActor() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/subjects/traveler-1/intervals",
		models.IntervalRequest{Zone: "DE", StartDate: "2024-03-01", EndDate: strPtr("2024-03-10")})
	req = testutil.WithActor(req, "ops@example.com")

	rec := testutil.DoRequest(s.router, req)
	testutil.AssertStatus(s.T(), rec, http.StatusCreated)

	events := s.sink.ByAction(audit.ActionIntervalCreated)
	require.Len(s.T(), events, 1)
	assert.Equal(s.T(), "ops@example.com", events[0].Actor)
}

func (s *HandlerSuite) TestZoneRule_NonCountedZoneExcludedFromStatus() {
	s.do(http.MethodPut, "/zones/CH", models.ZoneRuleRequest{Counted: false})
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "CH", StartDate: "2024-10-01", EndDate: strPtr("2024-10-30"),
	})
	s.addInterval("traveler-1", models.IntervalRequest{
		Zone: "DE", StartDate: "2024-11-01", EndDate: strPtr("2024-11-10"),
	})

	rec := s.do(http.MethodGet, "/subjects/traveler-1/status?date=2024-12-21", nil)
	require.Equal(s.T(), http.StatusOK, rec.Code)

	var res models.StatusResponse
	require.NoError(s.T(), json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(s.T(), 10, res.DaysUsed, "only the DE stay counts")
}
