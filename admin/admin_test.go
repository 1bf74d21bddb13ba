package admin

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/crowdjudge/crowdjudge/api"
	"github.com/crowdjudge/crowdjudge/models"
	"github.com/crowdjudge/crowdjudge/testutil"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestConsole(t *testing.T, fs *testutil.FakeServer) *Console {
	t.Helper()
	fs.IssueToken("admin-token")
	client := api.NewClient(fs.URL)
	client.SetTokenSource(staticToken("admin-token"))
	return NewConsole(client)
}

func TestLoadAllRequiresAuth(t *testing.T) {
	fs := testutil.NewFakeServer(t, models.Group{ID: 1, Name: "第一组"})
	client := api.NewClient(fs.URL) // no token

	unauthorized := 0
	client.SetUnauthorizedHandler(func() { unauthorized++ })

	err := NewConsole(client).LoadAll(context.Background())
	if !api.IsUnauthorized(err) {
		t.Fatalf("LoadAll without token = %v, want unauthorized", err)
	}
	if unauthorized != 1 {
		t.Fatalf("unauthorized handler fired %d times, want 1", unauthorized)
	}
}

func TestLoadAllAndLookups(t *testing.T) {
	fs := testutil.NewFakeServer(t, models.Group{ID: 1, Name: "第一组"}, models.Group{ID: 2, Name: "第二组"})
	fs.Voters = []models.Voter{{ID: 7, Name: "张三", Phone: "13800000000", Weight: 2}}
	fs.Roles = []models.Role{{ID: 3, Name: "组长"}}
	console := newTestConsole(t, fs)

	if err := console.LoadAll(context.Background()); err != nil {
		t.Fatalf("LoadAll: %v", err)
	}
	if got := len(console.Groups()); got != 2 {
		t.Fatalf("cached %d groups, want 2", got)
	}
	if got := len(console.Voters()); got != 1 {
		t.Fatalf("cached %d voters, want 1", got)
	}
	if got := len(console.Roles()); got != 1 {
		t.Fatalf("cached %d roles, want 1", got)
	}

	g, err := console.GroupByID(2)
	if err != nil || g.Name != "第二组" {
		t.Fatalf("GroupByID(2) = %+v, %v", g, err)
	}
	if _, err := console.GroupByID(99); err == nil {
		t.Fatal("GroupByID(99) found a phantom group")
	}
	v, err := console.VoterByID(7)
	if err != nil || v.Weight != 2 {
		t.Fatalf("VoterByID(7) = %+v, %v", v, err)
	}
	if _, err := console.VoterByID(99); err == nil {
		t.Fatal("VoterByID(99) found a phantom voter")
	}
}

func TestGroupLifecycle(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	console := newTestConsole(t, fs)

	g, err := console.CreateGroup(context.Background(), models.CreateGroupRequest{
		Name: "新小组", Photos: []string{"a.jpg"},
	})
	if err != nil {
		t.Fatalf("CreateGroup: %v", err)
	}
	if g.ID == 0 || g.Name != "新小组" {
		t.Fatalf("created group = %+v", g)
	}

	g, err = console.UpdateGroup(context.Background(), g.ID, models.CreateGroupRequest{Name: "改名"})
	if err != nil || g.Name != "改名" {
		t.Fatalf("UpdateGroup = %+v, %v", g, err)
	}

	g, err = console.SetGroupLock(context.Background(), g.ID, true)
	if err != nil {
		t.Fatalf("SetGroupLock: %v", err)
	}
	if !g.Locked() {
		t.Fatal("group not locked")
	}
	cached, err := console.GroupByID(g.ID)
	if err != nil || !cached.Locked() {
		t.Fatalf("cache did not follow lock: %+v, %v", cached, err)
	}

	g, err = console.SetGroupLock(context.Background(), g.ID, false)
	if err != nil || g.Locked() {
		t.Fatalf("unlock = %+v, %v", g, err)
	}

	if err := console.DeleteGroup(context.Background(), g.ID); err != nil {
		t.Fatalf("DeleteGroup: %v", err)
	}
	if _, err := console.GroupByID(g.ID); err == nil {
		t.Fatal("deleted group still cached")
	}
}

func TestMembers(t *testing.T) {
	fs := testutil.NewFakeServer(t, models.Group{ID: 1, Name: "第一组"})
	fs.Roles = []models.Role{{ID: 3, Name: "组长"}}
	console := newTestConsole(t, fs)

	m, err := console.AddMember(context.Background(), 1, models.AddMemberRequest{
		Name: "李四", Company: "示例公司", RoleID: 3,
	})
	if err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if m.RoleName != "组长" || m.Company != "示例公司" {
		t.Fatalf("member = %+v", m)
	}

	members, err := console.Members(context.Background(), 1)
	if err != nil || len(members) != 1 {
		t.Fatalf("Members = %v, %v", members, err)
	}

	if err := console.DeleteMember(context.Background(), m.ID); err != nil {
		t.Fatalf("DeleteMember: %v", err)
	}
	members, err = console.Members(context.Background(), 1)
	if err != nil || len(members) != 0 {
		t.Fatalf("Members after delete = %v, %v", members, err)
	}
}

func TestVoterImportPipeline(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	console := newTestConsole(t, fs)

	template, err := console.DownloadVoterTemplate(context.Background())
	if err != nil {
		t.Fatalf("DownloadVoterTemplate: %v", err)
	}
	if len(template) == 0 {
		t.Fatal("empty template")
	}

	result, err := console.ImportVoters(context.Background(), "voters.xlsx", strings.NewReader("rows"))
	if err != nil {
		t.Fatalf("ImportVoters: %v", err)
	}
	if result.SuccessCount != 2 || result.ErrorCount != 1 {
		t.Fatalf("result = %+v", result)
	}
	if len(result.Errors) != 1 || !strings.Contains(result.Errors[0], "第3行") {
		t.Fatalf("row errors = %v", result.Errors)
	}
}

func TestVoterCRUD(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	console := newTestConsole(t, fs)

	v, err := console.CreateVoter(context.Background(), models.CreateVoterRequest{
		Name: "张三", Phone: "13800000000", Weight: 3,
	})
	if err != nil || v.Weight != 3 {
		t.Fatalf("CreateVoter = %+v, %v", v, err)
	}

	v, err = console.UpdateVoter(context.Background(), v.ID, models.CreateVoterRequest{
		Name: "张三", Phone: "13800000000", Weight: 5,
	})
	if err != nil || v.Weight != 5 {
		t.Fatalf("UpdateVoter = %+v, %v", v, err)
	}
	cached, err := console.VoterByID(v.ID)
	if err != nil || cached.Weight != 5 {
		t.Fatalf("cache did not follow update: %+v, %v", cached, err)
	}

	if err := console.DeleteVoter(context.Background(), v.ID); err != nil {
		t.Fatalf("DeleteVoter: %v", err)
	}
	if _, err := console.VoterByID(v.ID); err == nil {
		t.Fatal("deleted voter still cached")
	}
}

func TestListVotes(t *testing.T) {
	fs := testutil.NewFakeServer(t, models.Group{ID: 1}, models.Group{ID: 2})
	recent := time.Now().Add(-5 * time.Minute).UTC().Format(time.RFC3339)
	fs.Votes = []models.Vote{
		{ID: 10, GroupID: 1, VoterID: 7, VoterName: "张三", VoteType: models.VoteLike, VoteWeight: 2, CreatedAt: recent},
		{ID: 11, GroupID: 2, VoterID: 8, VoterName: "李四", VoteType: models.VoteDislike, VoteWeight: 1, CreatedAt: "not-a-timestamp"},
	}
	console := newTestConsole(t, fs)

	rows, err := console.ListVotes(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListVotes(0): %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !strings.Contains(rows[0].When, "ago") {
		t.Fatalf("When = %q, want humanized time", rows[0].When)
	}
	// Unknown layouts pass through untouched.
	if rows[1].When != "not-a-timestamp" {
		t.Fatalf("When fallback = %q", rows[1].When)
	}

	rows, err = console.ListVotes(context.Background(), 2)
	if err != nil || len(rows) != 1 || rows[0].GroupID != 2 {
		t.Fatalf("ListVotes(2) = %v, %v", rows, err)
	}
}

func TestVoteEditAndDelete(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	fs.Votes = []models.Vote{{ID: 10, GroupID: 1, VoterID: 7, VoteType: models.VoteLike, VoteWeight: 1}}
	console := newTestConsole(t, fs)

	v, err := console.UpdateVote(context.Background(), 10, models.UpdateVoteRequest{
		VoteType: models.VoteDislike, VoteWeight: 4,
	})
	if err != nil || v.VoteType != models.VoteDislike || v.VoteWeight != 4 {
		t.Fatalf("UpdateVote = %+v, %v", v, err)
	}

	if err := console.DeleteVote(context.Background(), 10); err != nil {
		t.Fatalf("DeleteVote: %v", err)
	}
	rows, err := console.ListVotes(context.Background(), 0)
	if err != nil || len(rows) != 0 {
		t.Fatalf("votes after delete = %v, %v", rows, err)
	}
}

func TestRoleCRUD(t *testing.T) {
	fs := testutil.NewFakeServer(t)
	console := newTestConsole(t, fs)

	role, err := console.CreateRole(context.Background(), "评委")
	if err != nil || role.Name != "评委" {
		t.Fatalf("CreateRole = %+v, %v", role, err)
	}
	if got := len(console.Roles()); got != 1 {
		t.Fatalf("cached %d roles, want 1", got)
	}
	if err := console.DeleteRole(context.Background(), role.ID); err != nil {
		t.Fatalf("DeleteRole: %v", err)
	}
	if got := len(console.Roles()); got != 0 {
		t.Fatalf("cached %d roles after delete, want 0", got)
	}
}

func TestGroupQRAndInitData(t *testing.T) {
	fs := testutil.NewFakeServer(t, models.Group{ID: 1})
	console := newTestConsole(t, fs)

	qr, err := console.GroupQR(context.Background(), 1)
	if err != nil || len(qr) == 0 {
		t.Fatalf("GroupQR = %q, %v", qr, err)
	}
	if err := console.InitData(context.Background()); err != nil {
		t.Fatalf("InitData: %v", err)
	}
}
