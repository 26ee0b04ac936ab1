package moderation

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"moderation-bot/model"
	"moderation-bot/utils/database"
	"moderation-bot/utils/database/modlogdb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	members    map[string]*discordgo.Member
	roles      []*discordgo.Role
	banned     []string
	kicked     []string
	timeouts   map[string]*time.Time
	unbanned   []string
	enforceErr error
	dmFail     bool
	embeds     map[string]int
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{
		members:  make(map[string]*discordgo.Member),
		timeouts: make(map[string]*time.Time),
		embeds:   make(map[string]int),
	}
}

func restError(status int) error {
	return &discordgo.RESTError{Response: &http.Response{StatusCode: status}}
}

func (f *fakeGateway) Guild(guildID string, options ...discordgo.RequestOption) (*discordgo.Guild, error) {
	return &discordgo.Guild{ID: guildID, Name: "Test Guild"}, nil
}

func (f *fakeGateway) GuildMember(guildID, userID string, options ...discordgo.RequestOption) (*discordgo.Member, error) {
	member, ok := f.members[userID]
	if !ok {
		return nil, restError(http.StatusNotFound)
	}
	return member, nil
}

func (f *fakeGateway) GuildRoles(guildID string, options ...discordgo.RequestOption) ([]*discordgo.Role, error) {
	return f.roles, nil
}

func (f *fakeGateway) GuildBanCreateWithReason(guildID, userID, reason string, days int, options ...discordgo.RequestOption) error {
	if f.enforceErr != nil {
		return f.enforceErr
	}
	f.banned = append(f.banned, userID)
	return nil
}

func (f *fakeGateway) GuildBanDelete(guildID, userID string, options ...discordgo.RequestOption) error {
	if f.enforceErr != nil {
		return f.enforceErr
	}
	f.unbanned = append(f.unbanned, userID)
	return nil
}

func (f *fakeGateway) GuildMemberDeleteWithReason(guildID, userID, reason string, options ...discordgo.RequestOption) error {
	if f.enforceErr != nil {
		return f.enforceErr
	}
	f.kicked = append(f.kicked, userID)
	return nil
}

func (f *fakeGateway) GuildMemberTimeout(guildID, userID string, until *time.Time, options ...discordgo.RequestOption) error {
	if f.enforceErr != nil {
		return f.enforceErr
	}
	f.timeouts[userID] = until
	return nil
}

func (f *fakeGateway) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	if f.dmFail {
		return nil, restError(http.StatusForbidden)
	}
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func (f *fakeGateway) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.embeds[channelID]++
	return &discordgo.Message{ID: "msg", ChannelID: channelID}, nil
}

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func banRequest() Request {
	return Request{
		GuildID:    "g1",
		ExecutorID: "mod",
		TargetID:   "target",
		Action:     model.ActionBan,
		ReasonCode: "spam",
	}
}

func TestApplyBanRecordsModLog(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target"}}

	c := NewCoordinator(gw, db)
	record, err := c.Apply(banRequest())
	require.NoError(t, err)
	require.NotNil(t, record)
	assert.Equal(t, model.ActionBan, record.Action)
	assert.Equal(t, "spam", record.Reason)
	assert.NotZero(t, record.LogID)
	assert.Equal(t, []string{"target"}, gw.banned)

	counts, err := modlogdb.CountsByAction(db, "g1", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, counts[model.ActionBan])
}

func TestApplyValidatesBeforeSideEffects(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target"}}
	c := NewCoordinator(gw, db)

	req := banRequest()
	req.ReasonCode = model.ReasonOther // no detail
	_, err := c.Apply(req)
	assert.ErrorIs(t, err, ErrValidation)

	req = banRequest()
	req.TargetID = req.ExecutorID
	_, err = c.Apply(req)
	assert.ErrorIs(t, err, ErrValidation)

	assert.Empty(t, gw.banned)
	counts, err := modlogdb.CountsByAction(db, "g1", nil)
	require.NoError(t, err)
	assert.Zero(t, counts[model.ActionBan])
}

func TestApplyTimeoutDurationBounds(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target"}}
	c := NewCoordinator(gw, db)

	req := banRequest()
	req.Action = model.ActionTimeout

	for _, minutes := range []int{0, -1, model.TimeoutMaxMinutes + 1} {
		req.DurationMinutes = minutes
		_, err := c.Apply(req)
		assert.ErrorIs(t, err, ErrValidation, "minutes=%d", minutes)
	}

	req.DurationMinutes = 60
	record, err := c.Apply(req)
	require.NoError(t, err)
	assert.Equal(t, int64(60), record.DurationMinutes)
	require.NotNil(t, gw.timeouts["target"])
}

func TestApplyUnknownTarget(t *testing.T) {
	db := testDB(t)
	c := NewCoordinator(newFakeGateway(), db)

	_, err := c.Apply(banRequest())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestApplyAdminTargetNeedsAdminExecutor(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.roles = []*discordgo.Role{{ID: "r-admin", Permissions: discordgo.PermissionAdministrator}}
	gw.members["target"] = &discordgo.Member{
		User:  &discordgo.User{ID: "target"},
		Roles: []string{"r-admin"},
	}
	c := NewCoordinator(gw, db)

	_, err := c.Apply(banRequest())
	assert.ErrorIs(t, err, ErrValidation)
	assert.Empty(t, gw.banned)

	req := banRequest()
	req.ExecutorIsAdmin = true
	_, err = c.Apply(req)
	assert.NoError(t, err)
	assert.Equal(t, []string{"target"}, gw.banned)
}

func TestApplyBotTargetRejected(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target", Bot: true}}
	c := NewCoordinator(gw, db)

	_, err := c.Apply(banRequest())
	assert.ErrorIs(t, err, ErrValidation)
}

func TestApplyUnbanSkipsMemberChecks(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway() // target is not a member
	c := NewCoordinator(gw, db)

	req := banRequest()
	req.Action = model.ActionUnban
	req.ReasonCode = "mistake"
	record, err := c.Apply(req)
	require.NoError(t, err)
	assert.Equal(t, model.ActionUnban, record.Action)
	assert.Equal(t, []string{"target"}, gw.unbanned)
}

func TestApplyEnforcementFailureWritesNoRecord(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target"}}
	gw.enforceErr = restError(http.StatusForbidden)
	c := NewCoordinator(gw, db)

	_, err := c.Apply(banRequest())
	assert.ErrorIs(t, err, ErrPermission)

	counts, err := modlogdb.CountsByAction(db, "g1", nil)
	require.NoError(t, err)
	assert.Zero(t, counts[model.ActionBan])
}

func TestApplyDMFailureDoesNotBlock(t *testing.T) {
	db := testDB(t)
	gw := newFakeGateway()
	gw.members["target"] = &discordgo.Member{User: &discordgo.User{ID: "target"}}
	gw.dmFail = true
	c := NewCoordinator(gw, db)

	record, err := c.Apply(banRequest())
	require.NoError(t, err)
	assert.NotNil(t, record)
}

func TestReasonText(t *testing.T) {
	assert.Equal(t, "spam", Request{ReasonCode: "spam"}.ReasonText())
	assert.Equal(t, "spam: in #general", Request{ReasonCode: "spam", ReasonDetail: "in #general"}.ReasonText())
	assert.Equal(t, "harassing new members",
		Request{ReasonCode: model.ReasonOther, ReasonDetail: "harassing new members"}.ReasonText())
}

func TestApplyUnknownActionRejected(t *testing.T) {
	db := testDB(t)
	c := NewCoordinator(newFakeGateway(), db)

	req := banRequest()
	req.Action = "WARN"
	_, err := c.Apply(req)
	assert.True(t, errors.Is(err, ErrValidation))
}
