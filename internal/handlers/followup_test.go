package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"github.com/yutasato/campus-crm-api/internal/repository"
	"github.com/yutasato/campus-crm-api/internal/services"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// FollowupHandlerTestSuite defines the test suite for FollowupHandler
type FollowupHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *FollowupHandler
}

// SetupTest runs before each test
func (suite *FollowupHandlerTestSuite) SetupTest() {
	var err error

	suite.db, err = gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	suite.Require().NoError(err)

	err = suite.db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.MemberGroupAccess{},
		&models.Group{},
		&models.Student{},
		&models.CallList{},
		&models.Question{},
		&models.CallListItem{},
		&models.CallLog{},
		&models.Answer{},
		&models.Followup{},
	)
	suite.Require().NoError(err)

	database.SetDB(suite.db)

	followupRepo := repository.NewFollowupRepository(suite.db)
	workspaceRepo := repository.NewWorkspaceRepository(suite.db)
	followupService := services.NewFollowupService(followupRepo, constants.DefaultFollowupOffsetDays)
	workspaceService := services.NewWorkspaceService(workspaceRepo)
	suite.handler = NewFollowupHandler(followupService, workspaceService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *FollowupHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *FollowupHandlerTestSuite) createFixtures() (*models.User, *models.Workspace, *models.Student, *models.CallLog) {
	user := &models.User{Email: "caller@example.com", Name: "Caller", PasswordHash: "hashedpassword"}
	suite.db.Create(user)

	ws := &models.Workspace{Name: "WS", InviteCode: "WS-CODE"}
	suite.db.Create(ws)
	suite.db.Create(&models.WorkspaceMember{WorkspaceID: ws.ID, UserID: user.ID, Role: models.RoleCaller})

	student := &models.Student{WorkspaceID: ws.ID, Name: "Alice", Status: models.StudentActive}
	suite.db.Create(student)

	list := &models.CallList{WorkspaceID: ws.ID, Name: "Spring Campaign", Source: models.SourceManual}
	suite.db.Create(list)
	item := &models.CallListItem{CallListID: list.ID, StudentID: student.ID, State: models.ItemDone}
	suite.db.Create(item)
	log := &models.CallLog{
		CallListItemID: item.ID,
		CallListID:     list.ID,
		StudentID:      student.ID,
		CallerID:       user.ID,
		Status:         models.CallNoAnswer,
		CalledAt:       time.Now(),
	}
	suite.db.Create(log)

	return user, ws, student, log
}

func (suite *FollowupHandlerTestSuite) createTestFollowup(ws *models.Workspace, student *models.Student, log *models.CallLog, dueAt time.Time, status models.FollowupStatus) *models.Followup {
	followup := &models.Followup{
		WorkspaceID: ws.ID,
		StudentID:   student.ID,
		CallLogID:   log.ID,
		DueAt:       dueAt,
		Status:      status,
	}
	suite.db.Create(followup)
	return followup
}

func (suite *FollowupHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, url, bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, url, nil)
	}

	c, _ := gin.CreateTestContext(w)
	c.Request = req
	c.Set(constants.ContextKeyUserID, userID)

	return c, w
}

func formatID(v uint64) string {
	return strconv.FormatUint(v, 10)
}

// TestListFollowups_DueAscending tests the default ordering and filters
func (suite *FollowupHandlerTestSuite) TestListFollowups_DueAscending() {
	user, ws, student, log := suite.createFixtures()
	later := suite.createTestFollowup(ws, student, log, time.Now().Add(72*time.Hour), models.FollowupPending)
	sooner := suite.createTestFollowup(ws, student, log, time.Now().Add(24*time.Hour), models.FollowupPending)

	c, w := suite.createAuthContext("GET", "/api/followups", nil, user.ID)
	c.Request.URL.RawQuery = "workspace_id=" + formatID(ws.ID)

	suite.handler.ListFollowups(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	followups := response["followups"].([]interface{})
	suite.Require().Len(followups, 2)
	first := followups[0].(map[string]interface{})
	second := followups[1].(map[string]interface{})
	assert.Equal(suite.T(), float64(sooner.ID), first["id"])
	assert.Equal(suite.T(), float64(later.ID), second["id"])
}

// TestListFollowups_OverdueDerivedAtQueryTime tests that is_overdue reflects
// the clock, not a stored flag
func (suite *FollowupHandlerTestSuite) TestListFollowups_OverdueDerivedAtQueryTime() {
	user, ws, student, log := suite.createFixtures()
	suite.createTestFollowup(ws, student, log, time.Now().Add(-time.Hour), models.FollowupPending)
	suite.createTestFollowup(ws, student, log, time.Now().Add(time.Hour), models.FollowupPending)
	suite.createTestFollowup(ws, student, log, time.Now().Add(-time.Hour), models.FollowupDone)

	c, w := suite.createAuthContext("GET", "/api/followups", nil, user.ID)
	c.Request.URL.RawQuery = "workspace_id=" + formatID(ws.ID)

	suite.handler.ListFollowups(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	overdueByID := map[float64]bool{}
	for _, raw := range response["followups"].([]interface{}) {
		f := raw.(map[string]interface{})
		overdueByID[f["id"].(float64)] = f["is_overdue"].(bool)
	}

	// Past-due pending is overdue; future pending and closed past-due are not
	assert.True(suite.T(), overdueByID[1])
	assert.False(suite.T(), overdueByID[2])
	assert.False(suite.T(), overdueByID[3])
}

// TestListFollowups_StatusFilter tests the status filter
func (suite *FollowupHandlerTestSuite) TestListFollowups_StatusFilter() {
	user, ws, student, log := suite.createFixtures()
	suite.createTestFollowup(ws, student, log, time.Now(), models.FollowupPending)
	suite.createTestFollowup(ws, student, log, time.Now(), models.FollowupDone)

	c, w := suite.createAuthContext("GET", "/api/followups", nil, user.ID)
	c.Request.URL.RawQuery = "workspace_id=" + formatID(ws.ID) + "&status=DONE"

	suite.handler.ListFollowups(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	followups := response["followups"].([]interface{})
	assert.Len(suite.T(), followups, 1)
}

// TestUpdateFollowup_Done tests closing a pending followup
func (suite *FollowupHandlerTestSuite) TestUpdateFollowup_Done() {
	user, ws, student, log := suite.createFixtures()
	followup := suite.createTestFollowup(ws, student, log, time.Now(), models.FollowupPending)

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"status":       "DONE",
	})

	c, w := suite.createAuthContext("PATCH", "/api/followups/1", body, user.ID)
	c.Params = gin.Params{{Key: "id", Value: formatID(followup.ID)}}

	suite.handler.UpdateFollowup(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var stored models.Followup
	suite.db.First(&stored, followup.ID)
	assert.Equal(suite.T(), models.FollowupDone, stored.Status)
}

// TestUpdateFollowup_AlreadyClosed_Conflict tests the one-way transition
func (suite *FollowupHandlerTestSuite) TestUpdateFollowup_AlreadyClosed_Conflict() {
	user, ws, student, log := suite.createFixtures()
	followup := suite.createTestFollowup(ws, student, log, time.Now(), models.FollowupDone)

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"status":       "SKIPPED",
	})

	c, w := suite.createAuthContext("PATCH", "/api/followups/1", body, user.ID)
	c.Params = gin.Params{{Key: "id", Value: formatID(followup.ID)}}

	suite.handler.UpdateFollowup(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)
}

// TestUpdateFollowup_PendingRejected tests that PENDING is not a valid target
func (suite *FollowupHandlerTestSuite) TestUpdateFollowup_PendingRejected() {
	user, ws, student, log := suite.createFixtures()
	followup := suite.createTestFollowup(ws, student, log, time.Now(), models.FollowupPending)

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"status":       "PENDING",
	})

	c, w := suite.createAuthContext("PATCH", "/api/followups/1", body, user.ID)
	c.Params = gin.Params{{Key: "id", Value: formatID(followup.ID)}}

	suite.handler.UpdateFollowup(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestFollowupHandlerTestSuite runs the test suite
func TestFollowupHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(FollowupHandlerTestSuite))
}
