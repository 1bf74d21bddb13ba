package models

// Group status constants
const (
	StatusOpen   = 0
	StatusLocked = 1
)

// Vote type constants
const (
	VoteLike    = 1
	VoteDislike = -1
)

// Push channel event names
const (
	// Server → client: a group's vote stats changed.
	EventVoteUpdated = "vote_updated"
	// Client → server: subscribe to a group's updates.
	EventJoinGroup = "join_group"
	// Client → server: broadcast hint after a successful vote.
	EventVoteUpdate = "vote_update"
)

// Domain types

// Stats is the aggregate vote tally for a group. The headline score is never
// transmitted by the server; every renderer derives it via Score.
type Stats struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}

// Score is the single ranking number: likes minus dislikes.
// Integer subtraction, negative results allowed, no clamping.
func (s Stats) Score() int {
	return s.Likes - s.Dislikes
}

type Group struct {
	ID        int      `json:"id"`
	Name      string   `json:"name"`
	Logo      string   `json:"logo,omitempty"`
	Status    int      `json:"status"`
	Photos    []string `json:"photos"`
	VoteStats Stats    `json:"vote_stats"`
	CreatedAt string   `json:"created_at,omitempty"`
}

// Locked reports whether voting on the group has been closed by an admin.
func (g Group) Locked() bool {
	return g.Status == StatusLocked
}

type Role struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Member struct {
	ID        int    `json:"id"`
	GroupID   int    `json:"group_id"`
	Name      string `json:"name"`
	Company   string `json:"company,omitempty"`
	RoleID    int    `json:"role_id"`
	RoleName  string `json:"role_name,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Voter struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Phone     string `json:"phone"`
	Weight    int    `json:"weight"`
	CreatedAt string `json:"created_at,omitempty"`
}

type Vote struct {
	ID         int    `json:"id"`
	GroupID    int    `json:"group_id"`
	VoterID    int    `json:"voter_id"`
	VoterName  string `json:"voter_name,omitempty"`
	VoteType   int    `json:"vote_type"`
	VoteWeight int    `json:"vote_weight"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Request types

type VerifyVoterRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	GroupID int    `json:"group_id"`
}

type VoteRequest struct {
	VoterID  int `json:"voter_id"`
	GroupID  int `json:"group_id"`
	VoteType int `json:"vote_type"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type CreateGroupRequest struct {
	Name   string   `json:"name"`
	Logo   string   `json:"logo,omitempty"`
	Photos []string `json:"photos,omitempty"`
}

type LockGroupRequest struct {
	Lock bool `json:"lock"`
}

type CreateVoterRequest struct {
	Name   string `json:"name"`
	Phone  string `json:"phone"`
	Weight int    `json:"weight"`
}

type CreateRoleRequest struct {
	Name string `json:"name"`
}

type AddMemberRequest struct {
	Name    string `json:"name"`
	Company string `json:"company,omitempty"`
	RoleID  int    `json:"role_id"`
}

type UpdateVoteRequest struct {
	VoteType   int `json:"vote_type"`
	VoteWeight int `json:"vote_weight"`
}

// Response types

type VerifyVoterResponse struct {
	VoterID int    `json:"voter_id"`
	Name    string `json:"name"`
	Weight  int    `json:"weight"`
}

type VoteResponse struct {
	Message string `json:"message"`
	Stats   Stats  `json:"stats"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

type ImportResult struct {
	Message      string   `json:"message"`
	SuccessCount int      `json:"success_count"`
	ErrorCount   int      `json:"error_count"`
	Errors       []string `json:"errors,omitempty"`
}

type RankingEntry struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Logo       string `json:"logo,omitempty"`
	Likes      int    `json:"likes"`
	Dislikes   int    `json:"dislikes"`
	TotalScore int    `json:"total_score"`
	Rank       int    `json:"rank"`
}

// Push channel envelope

// PushEnvelope is the JSON frame exchanged on the live update channel.
// Stats is a pointer so join messages omit the field entirely.
type PushEnvelope struct {
	Event    string `json:"event"`
	GroupID  int    `json:"group_id,omitempty"`
	Stats    *Stats `json:"stats,omitempty"`
	ClientID string `json:"client_id,omitempty"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
