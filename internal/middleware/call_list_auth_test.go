package middleware

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/yutasato/campus-crm-api/internal/constants"
	"github.com/yutasato/campus-crm-api/internal/database"
	"github.com/yutasato/campus-crm-api/internal/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type CallListAuthTestSuite struct {
	suite.Suite
	db        *gorm.DB
	workspace models.Workspace
	group     models.Group
	list      models.CallList
}

func (suite *CallListAuthTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(suite.T(), err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Workspace{},
		&models.WorkspaceMember{},
		&models.Group{},
		&models.MemberGroupAccess{},
		&models.CallList{},
	)
	require.NoError(suite.T(), err)

	suite.db = db
	database.SetDB(db)

	suite.workspace = models.Workspace{Name: "Test Workspace", InviteCode: "abcde-fghij"}
	require.NoError(suite.T(), db.Create(&suite.workspace).Error)

	suite.group = models.Group{WorkspaceID: suite.workspace.ID, Name: "North Campus"}
	require.NoError(suite.T(), db.Create(&suite.group).Error)

	suite.list = models.CallList{
		WorkspaceID: suite.workspace.ID,
		GroupID:     &suite.group.ID,
		Name:        "Group List",
		Source:      models.SourceManual,
	}
	require.NoError(suite.T(), db.Create(&suite.list).Error)
}

func (suite *CallListAuthTestSuite) TearDownTest() {
	sqlDB, err := suite.db.DB()
	require.NoError(suite.T(), err)
	sqlDB.Close()
}

func (suite *CallListAuthTestSuite) createMember(role models.WorkspaceRole) models.WorkspaceMember {
	user := models.User{Email: "member@example.com", Name: "Member", PasswordHash: "x"}
	require.NoError(suite.T(), suite.db.Create(&user).Error)

	member := models.WorkspaceMember{
		WorkspaceID: suite.workspace.ID,
		UserID:      user.ID,
		Role:        role,
	}
	require.NoError(suite.T(), suite.db.Create(&member).Error)
	return member
}

func (suite *CallListAuthTestSuite) runMiddleware(userID uint64) (*httptest.ResponseRecorder, bool) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Params = gin.Params{{Key: "id", Value: strconv.FormatUint(suite.list.ID, 10)}}
	c.Set(constants.ContextKeyUserID, userID)

	passed := false
	RequireCallListAccess()(c)
	if !c.IsAborted() {
		passed = true
	}
	return w, passed
}

func (suite *CallListAuthTestSuite) TestGroupScopedList_CallerWithoutAccess() {
	member := suite.createMember(models.RoleCaller)

	w, passed := suite.runMiddleware(member.UserID)

	assert.False(suite.T(), passed)
	assert.Equal(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *CallListAuthTestSuite) TestGroupScopedList_CallerWithGrantedAccess() {
	member := suite.createMember(models.RoleCaller)
	require.NoError(suite.T(), suite.db.Create(&models.MemberGroupAccess{
		WorkspaceID: suite.workspace.ID,
		UserID:      member.UserID,
		GroupID:     suite.group.ID,
	}).Error)

	w, passed := suite.runMiddleware(member.UserID)

	assert.True(suite.T(), passed)
	assert.NotEqual(suite.T(), http.StatusForbidden, w.Code)
}

func (suite *CallListAuthTestSuite) TestGroupScopedList_AdminImplicitAccess() {
	member := suite.createMember(models.RoleAdmin)

	_, passed := suite.runMiddleware(member.UserID)

	assert.True(suite.T(), passed)
}

func (suite *CallListAuthTestSuite) TestNonMember_SeesNotFound() {
	outsider := models.User{Email: "outsider@example.com", Name: "Outsider", PasswordHash: "x"}
	require.NoError(suite.T(), suite.db.Create(&outsider).Error)

	w, passed := suite.runMiddleware(outsider.ID)

	assert.False(suite.T(), passed)
	assert.Equal(suite.T(), http.StatusNotFound, w.Code)
}

func TestCallListAuthTestSuite(t *testing.T) {
	suite.Run(t, new(CallListAuthTestSuite))
}
