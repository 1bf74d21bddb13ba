// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

// Package testutil provides an in-memory fake of the evaluation server's
// REST contract for client tests.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/crowdjudge/crowdjudge/models"
)

// Default admin credentials for the fake server.
const (
	AdminUser = "admin"
	AdminPass = "secret"
)

// FakeServer implements the evaluation API over in-memory state. All fields
// are guarded by Mu; tests may mutate them between requests.
type FakeServer struct {
	*httptest.Server

	Mu      sync.Mutex
	Groups  []models.Group
	Voters  []models.Voter
	Roles   []models.Role
	Members map[int][]models.Member
	Votes   []models.Vote

	// Valid bearer tokens. Login adds one; logout and ExpireTokens remove.
	Tokens map[string]bool

	// Request counters for assertions.
	VerifyCalls int
	VoteCalls   int
	LogoutCalls int

	nextID int
	voted  map[string]bool // "voterID/groupID"
}

// NewFakeServer starts a fake evaluation server pre-seeded with the given
// groups. It is shut down automatically when the test ends.
func NewFakeServer(t *testing.T, groups ...models.Group) *FakeServer {
	t.Helper()

	fs := &FakeServer{
		Groups:  groups,
		Members: make(map[int][]models.Member),
		Tokens:  make(map[string]bool),
		nextID:  1000,
		voted:   make(map[string]bool),
	}

	mux := http.NewServeMux()

	// Public views
	mux.HandleFunc("GET /groups", fs.listGroups)
	mux.HandleFunc("GET /groups/{id}/members", fs.listMembers)
	mux.HandleFunc("GET /groups/{id}/stats", fs.groupStats)
	mux.HandleFunc("GET /groups/{id}/qrcode", fs.groupQR)
	mux.HandleFunc("GET /ranking", fs.ranking)

	// Voting flow
	mux.HandleFunc("POST /verify-voter", fs.verifyVoter)
	mux.HandleFunc("POST /vote", fs.castVote)

	// Admin auth
	mux.HandleFunc("POST /admin/login", fs.login)
	mux.HandleFunc("POST /admin/logout", fs.logout)

	// Admin CRUD
	mux.HandleFunc("GET /voters", fs.authed(fs.listVoters))
	mux.HandleFunc("POST /voters", fs.authed(fs.createVoter))
	mux.HandleFunc("PUT /voters/{id}", fs.authed(fs.updateVoter))
	mux.HandleFunc("DELETE /voters/{id}", fs.authed(fs.deleteVoter))
	mux.HandleFunc("GET /voters/template", fs.authed(fs.votersTemplate))
	mux.HandleFunc("POST /voters/import", fs.authed(fs.importVoters))

	mux.HandleFunc("POST /groups", fs.authed(fs.createGroup))
	mux.HandleFunc("PUT /groups/{id}", fs.authed(fs.updateGroup))
	mux.HandleFunc("DELETE /groups/{id}", fs.authed(fs.deleteGroup))
	mux.HandleFunc("POST /groups/{id}/lock", fs.authed(fs.lockGroup))
	mux.HandleFunc("POST /groups/{id}/members", fs.authed(fs.addMember))
	mux.HandleFunc("DELETE /members/{id}", fs.authed(fs.deleteMember))

	mux.HandleFunc("GET /roles", fs.listRoles)
	mux.HandleFunc("POST /roles", fs.authed(fs.createRole))
	mux.HandleFunc("DELETE /roles/{id}", fs.authed(fs.deleteRole))

	mux.HandleFunc("GET /votes", fs.authed(fs.listVotes))
	mux.HandleFunc("PUT /votes/{id}", fs.authed(fs.updateVote))
	mux.HandleFunc("DELETE /votes/{id}", fs.authed(fs.deleteVote))

	mux.HandleFunc("POST /init-data", fs.authed(fs.initData))

	fs.Server = httptest.NewServer(mux)
	t.Cleanup(fs.Server.Close)
	return fs
}

// IssueToken registers a valid bearer token directly, bypassing login.
func (fs *FakeServer) IssueToken(token string) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.Tokens[token] = true
}

// ExpireTokens invalidates every issued token, so the next admin call 401s.
func (fs *FakeServer) ExpireTokens() {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.Tokens = make(map[string]bool)
}

// MarkVoted records an existing voter/group vote so verify-voter rejects.
func (fs *FakeServer) MarkVoted(voterID, groupID int) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.voted[voteKey(voterID, groupID)] = true
}

func voteKey(voterID, groupID int) string {
	return fmt.Sprintf("%d/%d", voterID, groupID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, models.ErrorResponse{Error: msg})
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(r.PathValue("id"))
	return id
}

// authed rejects requests without a valid bearer token.
func (fs *FakeServer) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token := strings.TrimPrefix(header, "Bearer ")
		fs.Mu.Lock()
		ok := header != "" && fs.Tokens[token]
		fs.Mu.Unlock()
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (fs *FakeServer) listGroups(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	writeJSON(w, http.StatusOK, fs.Groups)
}

func (fs *FakeServer) groupStats(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for _, g := range fs.Groups {
		if g.ID == pathID(r) {
			writeJSON(w, http.StatusOK, g.VoteStats)
			return
		}
	}
	writeError(w, http.StatusNotFound, "小组不存在")
}

func (fs *FakeServer) groupQR(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	fmt.Fprintf(w, "png:%d", pathID(r))
}

func (fs *FakeServer) listMembers(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	members := fs.Members[pathID(r)]
	if members == nil {
		members = []models.Member{}
	}
	writeJSON(w, http.StatusOK, members)
}

func (fs *FakeServer) ranking(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	entries := make([]models.RankingEntry, 0, len(fs.Groups))
	for _, g := range fs.Groups {
		entries = append(entries, models.RankingEntry{
			ID: g.ID, Name: g.Name, Logo: g.Logo,
			Likes: g.VoteStats.Likes, Dislikes: g.VoteStats.Dislikes,
			TotalScore: g.VoteStats.Score(),
		})
	}
	for i := range entries {
		for j := i + 1; j < len(entries); j++ {
			if entries[j].TotalScore > entries[i].TotalScore {
				entries[i], entries[j] = entries[j], entries[i]
			}
		}
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	writeJSON(w, http.StatusOK, entries)
}

func (fs *FakeServer) verifyVoter(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.VerifyCalls++

	var voter *models.Voter
	for i := range fs.Voters {
		if fs.Voters[i].Name == req.Name && fs.Voters[i].Phone == req.Phone {
			voter = &fs.Voters[i]
			break
		}
	}
	if voter == nil {
		writeError(w, http.StatusBadRequest, "用户信息验证失败")
		return
	}

	for _, g := range fs.Groups {
		if g.ID == req.GroupID {
			if g.Locked() {
				writeError(w, http.StatusBadRequest, "该小组评价已结束")
				return
			}
			if fs.voted[voteKey(voter.ID, req.GroupID)] {
				writeError(w, http.StatusBadRequest, "您已经为该小组投过票了")
				return
			}
			writeJSON(w, http.StatusOK, models.VerifyVoterResponse{
				VoterID: voter.ID,
				Name:    voter.Name,
				Weight:  voter.Weight,
			})
			return
		}
	}
	writeError(w, http.StatusNotFound, "小组不存在")
}

func (fs *FakeServer) castVote(w http.ResponseWriter, r *http.Request) {
	var req models.VoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.VoteCalls++

	var voter *models.Voter
	for i := range fs.Voters {
		if fs.Voters[i].ID == req.VoterID {
			voter = &fs.Voters[i]
			break
		}
	}
	if voter == nil {
		writeError(w, http.StatusNotFound, "数据不存在")
		return
	}

	for i := range fs.Groups {
		g := &fs.Groups[i]
		if g.ID != req.GroupID {
			continue
		}
		if g.Locked() {
			writeError(w, http.StatusBadRequest, "该小组评价已结束")
			return
		}
		if fs.voted[voteKey(voter.ID, g.ID)] {
			writeError(w, http.StatusBadRequest, "您已经投过票了")
			return
		}
		fs.voted[voteKey(voter.ID, g.ID)] = true

		if req.VoteType == models.VoteLike {
			g.VoteStats.Likes += voter.Weight
		} else {
			g.VoteStats.Dislikes += voter.Weight
		}
		fs.nextID++
		fs.Votes = append(fs.Votes, models.Vote{
			ID: fs.nextID, GroupID: g.ID, VoterID: voter.ID, VoterName: voter.Name,
			VoteType: req.VoteType, VoteWeight: voter.Weight,
			CreatedAt: time.Now().UTC().Format(time.RFC3339),
		})
		writeJSON(w, http.StatusOK, models.VoteResponse{Message: "投票成功", Stats: g.VoteStats})
		return
	}
	writeError(w, http.StatusNotFound, "数据不存在")
}

func (fs *FakeServer) login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Username != AdminUser || req.Password != AdminPass {
		writeError(w, http.StatusUnauthorized, "用户名或密码错误")
		return
	}

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.nextID++
	token := fmt.Sprintf("token-%d", fs.nextID)
	fs.Tokens[token] = true
	writeJSON(w, http.StatusOK, models.LoginResponse{Token: token})
}

func (fs *FakeServer) logout(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.LogoutCalls++
	if !fs.Tokens[token] {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	delete(fs.Tokens, token)
	w.WriteHeader(http.StatusNoContent)
}

func (fs *FakeServer) listVoters(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	writeJSON(w, http.StatusOK, fs.Voters)
}

func (fs *FakeServer) createVoter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.nextID++
	v := models.Voter{ID: fs.nextID, Name: req.Name, Phone: req.Phone, Weight: req.Weight}
	fs.Voters = append(fs.Voters, v)
	writeJSON(w, http.StatusCreated, v)
}

func (fs *FakeServer) updateVoter(w http.ResponseWriter, r *http.Request) {
	var req models.CreateVoterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Voters {
		if fs.Voters[i].ID == pathID(r) {
			fs.Voters[i].Name = req.Name
			fs.Voters[i].Phone = req.Phone
			fs.Voters[i].Weight = req.Weight
			writeJSON(w, http.StatusOK, fs.Voters[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "评价人不存在")
}

func (fs *FakeServer) deleteVoter(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Voters {
		if fs.Voters[i].ID == pathID(r) {
			fs.Voters = append(fs.Voters[:i], fs.Voters[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "评价人不存在")
}

func (fs *FakeServer) votersTemplate(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Write([]byte("xlsx-template"))
}

func (fs *FakeServer) importVoters(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "没有文件")
		return
	}
	file.Close()
	writeJSON(w, http.StatusOK, models.ImportResult{
		Message:      "导入完成",
		SuccessCount: 2,
		ErrorCount:   1,
		Errors:       []string{"第3行: 手机号重复"},
	})
}

func (fs *FakeServer) createGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.nextID++
	g := models.Group{ID: fs.nextID, Name: req.Name, Logo: req.Logo, Photos: req.Photos}
	if g.Photos == nil {
		g.Photos = []string{}
	}
	fs.Groups = append(fs.Groups, g)
	writeJSON(w, http.StatusCreated, g)
}

func (fs *FakeServer) updateGroup(w http.ResponseWriter, r *http.Request) {
	var req models.CreateGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Groups {
		if fs.Groups[i].ID == pathID(r) {
			fs.Groups[i].Name = req.Name
			fs.Groups[i].Logo = req.Logo
			if req.Photos != nil {
				fs.Groups[i].Photos = req.Photos
			}
			writeJSON(w, http.StatusOK, fs.Groups[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "小组不存在")
}

func (fs *FakeServer) deleteGroup(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Groups {
		if fs.Groups[i].ID == pathID(r) {
			fs.Groups = append(fs.Groups[:i], fs.Groups[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "小组不存在")
}

func (fs *FakeServer) lockGroup(w http.ResponseWriter, r *http.Request) {
	var req models.LockGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Groups {
		if fs.Groups[i].ID == pathID(r) {
			if req.Lock {
				fs.Groups[i].Status = models.StatusLocked
			} else {
				fs.Groups[i].Status = models.StatusOpen
			}
			writeJSON(w, http.StatusOK, fs.Groups[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "小组不存在")
}

func (fs *FakeServer) addMember(w http.ResponseWriter, r *http.Request) {
	var req models.AddMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	groupID := pathID(r)

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	roleName := ""
	for _, role := range fs.Roles {
		if role.ID == req.RoleID {
			roleName = role.Name
		}
	}
	fs.nextID++
	m := models.Member{
		ID: fs.nextID, GroupID: groupID, Name: req.Name,
		Company: req.Company, RoleID: req.RoleID, RoleName: roleName,
	}
	fs.Members[groupID] = append(fs.Members[groupID], m)
	writeJSON(w, http.StatusCreated, m)
}

func (fs *FakeServer) deleteMember(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for gid, members := range fs.Members {
		for i := range members {
			if members[i].ID == pathID(r) {
				fs.Members[gid] = append(members[:i], members[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
	}
	writeError(w, http.StatusNotFound, "成员不存在")
}

func (fs *FakeServer) listRoles(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	roles := fs.Roles
	if roles == nil {
		roles = []models.Role{}
	}
	writeJSON(w, http.StatusOK, roles)
}

func (fs *FakeServer) createRole(w http.ResponseWriter, r *http.Request) {
	var req models.CreateRoleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	fs.nextID++
	role := models.Role{ID: fs.nextID, Name: req.Name}
	fs.Roles = append(fs.Roles, role)
	writeJSON(w, http.StatusCreated, role)
}

func (fs *FakeServer) deleteRole(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Roles {
		if fs.Roles[i].ID == pathID(r) {
			fs.Roles = append(fs.Roles[:i], fs.Roles[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "职务不存在")
}

func (fs *FakeServer) listVotes(w http.ResponseWriter, r *http.Request) {
	groupFilter, _ := strconv.Atoi(r.URL.Query().Get("group_id"))

	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	votes := []models.Vote{}
	for _, v := range fs.Votes {
		if groupFilter == 0 || v.GroupID == groupFilter {
			votes = append(votes, v)
		}
	}
	writeJSON(w, http.StatusOK, votes)
}

func (fs *FakeServer) updateVote(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Votes {
		if fs.Votes[i].ID == pathID(r) {
			fs.Votes[i].VoteType = req.VoteType
			fs.Votes[i].VoteWeight = req.VoteWeight
			writeJSON(w, http.StatusOK, fs.Votes[i])
			return
		}
	}
	writeError(w, http.StatusNotFound, "投票数据不存在")
}

func (fs *FakeServer) deleteVote(w http.ResponseWriter, r *http.Request) {
	fs.Mu.Lock()
	defer fs.Mu.Unlock()
	for i := range fs.Votes {
		if fs.Votes[i].ID == pathID(r) {
			fs.Votes = append(fs.Votes[:i], fs.Votes[i+1:]...)
			w.WriteHeader(http.StatusNoContent)
			return
		}
	}
	writeError(w, http.StatusNotFound, "投票数据不存在")
}

func (fs *FakeServer) initData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "初始化数据成功"})
}
