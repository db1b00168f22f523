package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
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

// CallListHandlerTestSuite defines the test suite for CallListHandler
type CallListHandlerTestSuite struct {
	suite.Suite
	db      *gorm.DB
	handler *CallListHandler
}

// SetupTest runs before each test
func (suite *CallListHandlerTestSuite) SetupTest() {
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

	callListRepo := repository.NewCallListRepository(suite.db)
	studentRepo := repository.NewStudentRepository(suite.db)
	workspaceRepo := repository.NewWorkspaceRepository(suite.db)
	callListService := services.NewCallListService(callListRepo, studentRepo)
	workspaceService := services.NewWorkspaceService(workspaceRepo)
	suite.handler = NewCallListHandler(callListService, workspaceService)

	gin.SetMode(gin.TestMode)
}

// TearDownTest runs after each test
func (suite *CallListHandlerTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	suite.Require().NoError(err)
	sqlDB.Close()
}

// Helper functions to create test data

func (suite *CallListHandlerTestSuite) createTestUser(email string) *models.User {
	user := &models.User{
		Email:        email,
		Name:         "Test User",
		PasswordHash: "hashedpassword",
	}
	suite.db.Create(user)
	return user
}

func (suite *CallListHandlerTestSuite) createTestWorkspace(name string) *models.Workspace {
	ws := &models.Workspace{
		Name:       name,
		InviteCode: name + "-CODE",
	}
	suite.db.Create(ws)
	return ws
}

func (suite *CallListHandlerTestSuite) createTestMember(wsID, userID uint64, role models.WorkspaceRole) *models.WorkspaceMember {
	member := &models.WorkspaceMember{
		WorkspaceID: wsID,
		UserID:      userID,
		Role:        role,
	}
	suite.db.Create(member)
	return member
}

func (suite *CallListHandlerTestSuite) createTestStudent(wsID uint64, name string) *models.Student {
	student := &models.Student{
		WorkspaceID: wsID,
		Name:        name,
		Status:      models.StudentActive,
	}
	suite.db.Create(student)
	return student
}

func (suite *CallListHandlerTestSuite) createTestCallList(wsID uint64, name string) *models.CallList {
	list := &models.CallList{
		WorkspaceID: wsID,
		Name:        name,
		Source:      models.SourceManual,
	}
	suite.db.Create(list)
	return list
}

func (suite *CallListHandlerTestSuite) createAuthContext(method, url string, body []byte, userID uint64) (*gin.Context, *httptest.ResponseRecorder) {
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

// setListContext simulates RequireCallListAccess
func (suite *CallListHandlerTestSuite) setListContext(c *gin.Context, list models.CallList, member models.WorkspaceMember) {
	c.Set(constants.ContextKeyCallList, list)
	c.Set(constants.ContextKeyMember, member)
}

// TestCreateCallList_Manual tests creating a manual list with a schema
func (suite *CallListHandlerTestSuite) TestCreateCallList_Manual() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	alice := suite.createTestStudent(ws.ID, "Alice")
	bob := suite.createTestStudent(ws.ID, "Bob")

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"name":         "Spring Campaign",
		"source":       "MANUAL",
		"student_ids":  []uint64{alice.ID, bob.ID},
		"questions": []map[string]interface{}{
			{"prompt": "Will you attend?", "type": "yes_no", "required": true},
			{"prompt": "Preferred campus", "type": "multiple_choice", "options": []string{"North", "South"}},
		},
	})

	c, w := suite.createAuthContext("POST", "/api/call-lists", body, admin.ID)

	suite.handler.CreateCallList(c)

	assert.Equal(suite.T(), http.StatusCreated, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	enqueue := response["enqueue"].(map[string]interface{})
	assert.Equal(suite.T(), float64(2), enqueue["requested"])
	assert.Equal(suite.T(), float64(2), enqueue["added"])
	assert.Equal(suite.T(), float64(0), enqueue["skipped_duplicate"])

	callList := response["call_list"].(map[string]interface{})
	questions := callList["questions"].([]interface{})
	assert.Len(suite.T(), questions, 2)

	// Every question gets a stable uid at creation
	first := questions[0].(map[string]interface{})
	assert.NotEmpty(suite.T(), first["id"])

	var itemCount int64
	suite.db.Model(&models.CallListItem{}).Count(&itemCount)
	assert.Equal(suite.T(), int64(2), itemCount)
}

// TestCreateCallList_NonAdmin_Forbidden tests the admin gate
func (suite *CallListHandlerTestSuite) TestCreateCallList_NonAdmin_Forbidden() {
	caller := suite.createTestUser("caller@example.com")
	ws := suite.createTestWorkspace("WS")
	suite.createTestMember(ws.ID, caller.ID, models.RoleCaller)
	student := suite.createTestStudent(ws.ID, "Alice")

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"name":         "Spring Campaign",
		"source":       "MANUAL",
		"student_ids":  []uint64{student.ID},
	})

	c, w := suite.createAuthContext("POST", "/api/call-lists", body, caller.ID)

	suite.handler.CreateCallList(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestCreateCallList_UnknownStudent_BadRequest tests id verification
func (suite *CallListHandlerTestSuite) TestCreateCallList_UnknownStudent_BadRequest() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)

	body, _ := json.Marshal(map[string]interface{}{
		"workspace_id": ws.ID,
		"name":         "Spring Campaign",
		"source":       "MANUAL",
		"student_ids":  []uint64{999},
	})

	c, w := suite.createAuthContext("POST", "/api/call-lists", body, admin.ID)

	suite.handler.CreateCallList(c)

	assert.Equal(suite.T(), http.StatusBadRequest, w.Code)
}

// TestAddItems_Idempotent tests that re-adding the same students is a no-op
// with honest counts
func (suite *CallListHandlerTestSuite) TestAddItems_Idempotent() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	alice := suite.createTestStudent(ws.ID, "Alice")
	bob := suite.createTestStudent(ws.ID, "Bob")
	list := suite.createTestCallList(ws.ID, "Spring Campaign")

	body, _ := json.Marshal(map[string]interface{}{
		"student_ids": []uint64{alice.ID, bob.ID},
	})

	c, w := suite.createAuthContext("POST", "/api/call-lists/1/items", body, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.AddItems(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var first services.BulkAddResult
	err := json.Unmarshal(w.Body.Bytes(), &first)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, first.Requested)
	assert.Equal(suite.T(), int64(2), first.Added)
	assert.Equal(suite.T(), int64(0), first.SkippedDuplicate)

	// Same request again: nothing added, duplicates reported
	c, w = suite.createAuthContext("POST", "/api/call-lists/1/items", body, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.AddItems(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var second services.BulkAddResult
	err = json.Unmarshal(w.Body.Bytes(), &second)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), 2, second.Requested)
	assert.Equal(suite.T(), int64(0), second.Added)
	assert.Equal(suite.T(), int64(2), second.SkippedDuplicate)

	var itemCount int64
	suite.db.Model(&models.CallListItem{}).Count(&itemCount)
	assert.Equal(suite.T(), int64(2), itemCount)
}

// TestGetCallList_ProgressCounts tests that every state appears in progress,
// zero-filled
func (suite *CallListHandlerTestSuite) TestGetCallList_ProgressCounts() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	alice := suite.createTestStudent(ws.ID, "Alice")
	bob := suite.createTestStudent(ws.ID, "Bob")
	list := suite.createTestCallList(ws.ID, "Spring Campaign")
	suite.db.Create(&models.CallListItem{CallListID: list.ID, StudentID: alice.ID, State: models.ItemQueued})
	suite.db.Create(&models.CallListItem{CallListID: list.ID, StudentID: bob.ID, State: models.ItemDone})

	c, w := suite.createAuthContext("GET", "/api/call-lists/1", nil, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.GetCallList(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)

	progress := response["progress"].(map[string]interface{})
	assert.Equal(suite.T(), float64(1), progress["QUEUED"])
	assert.Equal(suite.T(), float64(0), progress["CALLING"])
	assert.Equal(suite.T(), float64(1), progress["DONE"])
	assert.Equal(suite.T(), float64(0), progress["SKIPPED"])
}

// TestUpdateQuestions_ReplacesSchema tests schema replacement before any
// answers exist
func (suite *CallListHandlerTestSuite) TestUpdateQuestions_ReplacesSchema() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	list := suite.createTestCallList(ws.ID, "Spring Campaign")
	suite.db.Create(&models.Question{CallListID: list.ID, UID: "old-q", Prompt: "Old", Type: models.QuestionText})

	body, _ := json.Marshal(map[string]interface{}{
		"questions": []map[string]interface{}{
			{"prompt": "New question", "type": "number"},
		},
	})

	c, w := suite.createAuthContext("PUT", "/api/call-lists/1/questions", body, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.UpdateQuestions(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var questions []models.Question
	suite.db.Where("call_list_id = ?", list.ID).Find(&questions)
	suite.Require().Len(questions, 1)
	assert.Equal(suite.T(), "New question", questions[0].Prompt)
	assert.NotEqual(suite.T(), "old-q", questions[0].UID)
}

// TestUpdateQuestions_ImmutableAfterAnswers tests the schema freeze
func (suite *CallListHandlerTestSuite) TestUpdateQuestions_ImmutableAfterAnswers() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	student := suite.createTestStudent(ws.ID, "Alice")
	list := suite.createTestCallList(ws.ID, "Spring Campaign")
	suite.db.Create(&models.Question{CallListID: list.ID, UID: "q-attend", Prompt: "Attend?", Type: models.QuestionYesNo})

	item := &models.CallListItem{CallListID: list.ID, StudentID: student.ID, State: models.ItemDone}
	suite.db.Create(item)
	log := &models.CallLog{
		CallListItemID: item.ID,
		CallListID:     list.ID,
		StudentID:      student.ID,
		CallerID:       admin.ID,
		Status:         models.CallCompleted,
		CalledAt:       time.Now(),
	}
	suite.db.Create(log)
	suite.db.Create(&models.Answer{CallLogID: log.ID, QuestionUID: "q-attend", QuestionType: models.QuestionYesNo})

	body, _ := json.Marshal(map[string]interface{}{
		"questions": []map[string]interface{}{
			{"prompt": "New question", "type": "text"},
		},
	})

	c, w := suite.createAuthContext("PUT", "/api/call-lists/1/questions", body, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.UpdateQuestions(c)

	assert.Equal(suite.T(), http.StatusConflict, w.Code)

	var response map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &response)
	assert.NoError(suite.T(), err)
	assert.Equal(suite.T(), "IMMUTABLE_SCHEMA", response["code"])

	// Old schema survives
	var questions []models.Question
	suite.db.Where("call_list_id = ?", list.ID).Find(&questions)
	suite.Require().Len(questions, 1)
	assert.Equal(suite.T(), "q-attend", questions[0].UID)
}

// TestDeleteCallList_HardWhenUnworked tests hard deletion of a list with no
// call logs
func (suite *CallListHandlerTestSuite) TestDeleteCallList_HardWhenUnworked() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	student := suite.createTestStudent(ws.ID, "Alice")
	list := suite.createTestCallList(ws.ID, "Spring Campaign")
	suite.db.Create(&models.CallListItem{CallListID: list.ID, StudentID: student.ID, State: models.ItemQueued})

	c, w := suite.createAuthContext("DELETE", "/api/call-lists/1", nil, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.DeleteCallList(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	var listCount int64
	suite.db.Unscoped().Model(&models.CallList{}).Count(&listCount)
	assert.Equal(suite.T(), int64(0), listCount)

	var itemCount int64
	suite.db.Model(&models.CallListItem{}).Count(&itemCount)
	assert.Equal(suite.T(), int64(0), itemCount)
}

// TestDeleteCallList_SoftWhenLogged tests that history keeps the row around
func (suite *CallListHandlerTestSuite) TestDeleteCallList_SoftWhenLogged() {
	admin := suite.createTestUser("admin@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, admin.ID, models.RoleAdmin)
	student := suite.createTestStudent(ws.ID, "Alice")
	list := suite.createTestCallList(ws.ID, "Spring Campaign")
	item := &models.CallListItem{CallListID: list.ID, StudentID: student.ID, State: models.ItemDone}
	suite.db.Create(item)
	suite.db.Create(&models.CallLog{
		CallListItemID: item.ID,
		CallListID:     list.ID,
		StudentID:      student.ID,
		CallerID:       admin.ID,
		Status:         models.CallCompleted,
		CalledAt:       time.Now(),
	})

	c, w := suite.createAuthContext("DELETE", "/api/call-lists/1", nil, admin.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.DeleteCallList(c)

	assert.Equal(suite.T(), http.StatusOK, w.Code)

	// Gone from normal queries, still reachable for history
	var visible int64
	suite.db.Model(&models.CallList{}).Count(&visible)
	assert.Equal(suite.T(), int64(0), visible)

	var total int64
	suite.db.Unscoped().Model(&models.CallList{}).Count(&total)
	assert.Equal(suite.T(), int64(1), total)

	var logCount int64
	suite.db.Model(&models.CallLog{}).Count(&logCount)
	assert.Equal(suite.T(), int64(1), logCount)
}

// TestDeleteCallList_NonAdmin_Forbidden tests the admin gate on deletion
func (suite *CallListHandlerTestSuite) TestDeleteCallList_NonAdmin_Forbidden() {
	caller := suite.createTestUser("caller@example.com")
	ws := suite.createTestWorkspace("WS")
	member := suite.createTestMember(ws.ID, caller.ID, models.RoleCaller)
	list := suite.createTestCallList(ws.ID, "Spring Campaign")

	c, w := suite.createAuthContext("DELETE", "/api/call-lists/1", nil, caller.ID)
	suite.setListContext(c, *list, *member)

	suite.handler.DeleteCallList(c)

	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

// TestCallListHandlerTestSuite runs the test suite
func TestCallListHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(CallListHandlerTestSuite))
}
