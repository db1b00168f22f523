package repository

import (
	"time"

	"github.com/yutasato/campus-crm-api/internal/models"
)

// CallListRepository defines the interface for call list data access
type CallListRepository interface {
	// CreateWithQuestions creates a call list and its question schema atomically
	CreateWithQuestions(list *models.CallList, questions []models.Question) error

	// FindByID finds a call list by ID with optional preloading
	FindByID(id uint64, preload ...string) (*models.CallList, error)

	// ListByWorkspace retrieves call lists for a workspace, newest first
	ListByWorkspace(workspaceID uint64, page, pageSize int) ([]models.CallList, int64, error)

	// FindQuestions returns the list's question schema in ask order
	FindQuestions(callListID uint64) ([]models.Question, error)

	// ReplaceQuestions swaps the question schema. The no-answers condition is
	// re-checked inside the transaction; ErrAnsweredSchema is returned when an
	// answer reached the schema meanwhile.
	ReplaceQuestions(callListID uint64, questions []models.Question) error

	// AnswerCount counts answers referencing the list's schema
	AnswerCount(callListID uint64) (int64, error)

	// LogCount counts call logs recorded against the list
	LogCount(callListID uint64) (int64, error)

	// AddItems enqueues items for the given student ids, skipping ids already
	// on the list. Returns how many rows were actually inserted.
	AddItems(callListID uint64, studentIDs []uint64) (int64, error)

	// ItemStateCounts returns per-state item counts for progress display
	ItemStateCounts(callListID uint64) (map[models.ItemState]int64, error)

	// Delete removes a call list. Hard deletion cascades to questions and
	// items; soft deletion hides the list only.
	Delete(list *models.CallList, hard bool) error
}

// ItemFilter holds filtering options for listing call list items
type ItemFilter struct {
	CallListID uint64
	State      *models.ItemState
	AssigneeID *uint64
	Page       int
	PageSize   int
}

// CallItemRepository defines the interface for call list item data access.
// Claim, Release and the terminal transition inside CompleteTx are conditional
// updates: the WHERE clause carries the expected state (and assignee) so that
// racing callers are decided by the database, not by a prior read.
type CallItemRepository interface {
	// FindByID finds an item scoped to its call list
	FindByID(callListID, itemID uint64, preload ...string) (*models.CallListItem, error)

	// List retrieves items with filtering and pagination
	List(filter ItemFilter) ([]models.CallListItem, int64, error)

	// FirstQueued returns the oldest QUEUED item on the list
	FirstQueued(callListID uint64) (*models.CallListItem, error)

	// Claim moves QUEUED→CALLING for the caller. Returns false when the item
	// was not QUEUED anymore (race lost or terminal).
	Claim(itemID, callerID uint64, now time.Time) (bool, error)

	// Release moves CALLING→QUEUED and clears the assignee. A non-nil
	// assigneeID conditions the update on the current assignee; nil is the
	// admin override. Returns false when the condition did not hold.
	Release(itemID uint64, assigneeID *uint64, now time.Time) (bool, error)

	// CompleteTx performs the terminal transition, the call log insert and the
	// optional followup insert in one transaction. Returns ErrStaleItem when
	// the item is no longer CALLING under the given caller.
	CompleteTx(itemID, callerID uint64, terminal models.ItemState, log *models.CallLog, followup *models.Followup, now time.Time) error
}

// FollowupFilter holds filtering options for listing followups
type FollowupFilter struct {
	WorkspaceID uint64
	CallListID  *uint64
	Status      *models.FollowupStatus
	AssigneeID  *uint64
	DueFrom     *time.Time
	DueTo       *time.Time
	Page        int
	PageSize    int
}

// FollowupRepository defines the interface for followup data access
type FollowupRepository interface {
	// Create creates a followup
	Create(followup *models.Followup) error

	// FindByID finds a followup by ID
	FindByID(id uint64, preload ...string) (*models.Followup, error)

	// List retrieves followups with filtering and pagination, due-date order
	List(filter FollowupFilter) ([]models.Followup, int64, error)

	// Transition conditionally moves a PENDING followup to a terminal status.
	// Returns false when the followup was not PENDING.
	Transition(id uint64, to models.FollowupStatus, now time.Time) (bool, error)
}

// StudentFilter describes a saved-filter query against the student directory
type StudentFilter struct {
	WorkspaceID uint64
	GroupID     *uint64
	Status      *models.StudentStatus
	NameQuery   string
	Page        int
	PageSize    int
}

// StudentRepository is the read-only student directory consumed when building
// call lists. The engine never writes through it.
type StudentRepository interface {
	// FindByFilter resolves a filter page by page
	FindByFilter(filter StudentFilter) ([]models.Student, int64, error)

	// CountByIDs counts how many of the given student IDs exist in the workspace
	CountByIDs(studentIDs []uint64, workspaceID uint64) (int64, error)
}

// WorkspaceRepository defines the interface for workspace data access
type WorkspaceRepository interface {
	// Create creates a new workspace
	Create(ws *models.Workspace) error

	// FindByInviteCode finds a workspace by invite code
	FindByInviteCode(code string) (*models.Workspace, error)

	// AddMember adds a member to a workspace
	AddMember(member *models.WorkspaceMember) error

	// FindMember finds a specific workspace member
	FindMember(workspaceID, userID uint64) (*models.WorkspaceMember, error)

	// ListMembersByUserID lists all workspaces a user is a member of
	ListMembersByUserID(userID uint64) ([]models.WorkspaceMember, error)

	// ListMembers lists all members of a workspace
	ListMembers(workspaceID uint64) ([]models.WorkspaceMember, error)

	// GrantGroupAccess gives a caller access to a group's call lists
	GrantGroupAccess(access *models.MemberGroupAccess) error

	// HasGroupAccess reports whether the member may work group-scoped lists
	HasGroupAccess(workspaceID, userID, groupID uint64) (bool, error)
}

// UserRepository defines the interface for user data access
type UserRepository interface {
	// CreateWithPersonalWorkspace creates a user, their personal workspace,
	// and the admin membership within a single transaction.
	CreateWithPersonalWorkspace(user *models.User, ws *models.Workspace, member *models.WorkspaceMember) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)
}
