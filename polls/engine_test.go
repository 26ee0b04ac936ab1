package polls

import (
	"fmt"
	"testing"

	"moderation-bot/model"
	"moderation-bot/utils/database"
	"moderation-bot/utils/database/polldb"

	"github.com/bwmarrin/discordgo"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGateway struct {
	nextID           int
	sendFails        bool
	insertedEmojis   []string
	removedReactions []string
	clearedMessages  []string
	deletedMessages  []string
	editedMessages   []string
	dmEmbeds         []*discordgo.MessageEmbed
	lastEdit         *discordgo.MessageEmbed
}

func (f *fakeGateway) ChannelMessageSendEmbed(channelID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	if f.sendFails {
		return nil, fmt.Errorf("send refused")
	}
	if len(channelID) > 3 && channelID[:3] == "dm-" {
		f.dmEmbeds = append(f.dmEmbeds, embed)
	}
	f.nextID++
	return &discordgo.Message{ID: fmt.Sprintf("msg-%d", f.nextID), ChannelID: channelID}, nil
}

func (f *fakeGateway) ChannelMessageEditEmbed(channelID, messageID string, embed *discordgo.MessageEmbed, options ...discordgo.RequestOption) (*discordgo.Message, error) {
	f.editedMessages = append(f.editedMessages, messageID)
	f.lastEdit = embed
	return &discordgo.Message{ID: messageID}, nil
}

func (f *fakeGateway) ChannelMessageDelete(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.deletedMessages = append(f.deletedMessages, messageID)
	return nil
}

func (f *fakeGateway) MessageReactionAdd(channelID, messageID, emojiID string, options ...discordgo.RequestOption) error {
	f.insertedEmojis = append(f.insertedEmojis, emojiID)
	return nil
}

func (f *fakeGateway) MessageReactionRemove(channelID, messageID, emojiID, userID string, options ...discordgo.RequestOption) error {
	f.removedReactions = append(f.removedReactions, userID+":"+emojiID)
	return nil
}

func (f *fakeGateway) MessageReactionsRemoveAll(channelID, messageID string, options ...discordgo.RequestOption) error {
	f.clearedMessages = append(f.clearedMessages, messageID)
	return nil
}

func (f *fakeGateway) UserChannelCreate(recipientID string, options ...discordgo.RequestOption) (*discordgo.Channel, error) {
	return &discordgo.Channel{ID: "dm-" + recipientID}, nil
}

func testDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testEngine(t *testing.T) (*Engine, *fakeGateway, *sqlx.DB) {
	t.Helper()
	db := testDB(t)
	gw := &fakeGateway{}
	return NewEngine(gw, db, "bot-user", model.Settings{MaxPollOptions: 3}), gw, db
}

func TestOpenSeedsMarkers(t *testing.T) {
	e, gw, db := testEngine(t)

	poll, err := e.Open("g1", "c1", "alice", "Pizza or pasta?", []string{"Pizza", "Pasta"}, model.PollPublic)
	require.NoError(t, err)
	assert.Len(t, poll.PollID, 8)
	assert.Equal(t, model.PollOpen, poll.Status)
	assert.Equal(t, model.PollMarkers[:2], gw.insertedEmojis)

	stored, err := polldb.GetByMessage(db, poll.MessageID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	options, err := stored.Options()
	require.NoError(t, err)
	assert.Equal(t, []string{"Pizza", "Pasta"}, options)
}

func TestOpenRejectsBadOptionCounts(t *testing.T) {
	e, _, _ := testEngine(t)

	_, err := e.Open("g1", "c1", "alice", "q", []string{"only one"}, model.PollPublic)
	assert.ErrorIs(t, err, ErrBadOptions)

	_, err = e.Open("g1", "c1", "alice", "q", []string{"a", "b", "c", "d"}, model.PollPublic)
	assert.ErrorIs(t, err, ErrBadOptions)
}

func TestReactionAddRecordsVote(t *testing.T) {
	e, _, db := testEngine(t)
	poll, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)

	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "bob", model.PollMarkers[0]))
	// The bot's own seed reactions are not votes.
	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "bot-user", model.PollMarkers[0]))
	// Reactions outside the option markers are ignored.
	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "bob", "🎉"))
	// Unknown messages are not polls.
	require.NoError(t, e.HandleReactionAdd("c1", "some-other-message", "bob", model.PollMarkers[0]))

	votes, err := polldb.Votes(db, poll.PollID)
	require.NoError(t, err)
	require.Len(t, votes, 1)
	assert.Equal(t, "bob", votes[0].UserID)
}

func TestReactionRemoveRetractsVote(t *testing.T) {
	e, _, db := testEngine(t)
	poll, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)

	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "bob", model.PollMarkers[0]))
	require.NoError(t, e.HandleReactionRemove(poll.MessageID, "bob", model.PollMarkers[0]))

	votes, err := polldb.Votes(db, poll.PollID)
	require.NoError(t, err)
	assert.Empty(t, votes)
}

func TestCloseTalliesAndPublishes(t *testing.T) {
	e, gw, _ := testEngine(t)
	poll, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)

	for _, user := range []string{"u1", "u2", "u3"} {
		require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, user, model.PollMarkers[0]))
	}
	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "u4", model.PollMarkers[1]))

	closed, tallies, err := e.Close("g1", poll.PollID, "alice", false)
	require.NoError(t, err)
	assert.Equal(t, model.PollClosed, closed.Status)
	require.Len(t, tallies, 2)
	assert.Equal(t, 3, tallies[0].Votes)
	assert.InDelta(t, 75.0, tallies[0].Percent, 0.01)
	assert.Equal(t, 1, tallies[1].Votes)
	assert.InDelta(t, 25.0, tallies[1].Percent, 0.01)

	// Results were written into the original message and reactions cleared.
	assert.Equal(t, []string{poll.MessageID}, gw.editedMessages)
	assert.Equal(t, []string{poll.MessageID}, gw.clearedMessages)
}

func TestCloseDefaultsToLatestOpenPoll(t *testing.T) {
	e, _, _ := testEngine(t)
	_, err := e.Open("g1", "c1", "alice", "first", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)

	closed, _, err := e.Close("g1", "", "alice", false)
	require.NoError(t, err)
	assert.Equal(t, "first", closed.Content)

	_, _, err = e.Close("g1", "", "alice", false)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestClosePermissions(t *testing.T) {
	e, _, _ := testEngine(t)
	poll, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)

	_, _, err = e.Close("g1", poll.PollID, "stranger", false)
	assert.ErrorIs(t, err, ErrNotAllowed)

	// Staff may close polls they did not create.
	_, _, err = e.Close("g1", poll.PollID, "mod", true)
	assert.NoError(t, err)

	_, _, err = e.Close("g1", poll.PollID, "alice", false)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestLateVoteOnClosedPollCompensated(t *testing.T) {
	e, gw, db := testEngine(t)
	poll, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.NoError(t, err)
	_, _, err = e.Close("g1", poll.PollID, "alice", false)
	require.NoError(t, err)

	require.NoError(t, e.HandleReactionAdd("c1", poll.MessageID, "late-voter", model.PollMarkers[0]))

	votes, err := polldb.Votes(db, poll.PollID)
	require.NoError(t, err)
	assert.Empty(t, votes)
	assert.Equal(t, []string{"late-voter:" + model.PollMarkers[0]}, gw.removedReactions)
	require.Len(t, gw.dmEmbeds, 1)
	assert.Contains(t, gw.dmEmbeds[0].Description, poll.PollID)
}

func TestOpenCleansUpWhenRowInsertFails(t *testing.T) {
	e, gw, db := testEngine(t)

	// A closed handle makes the row insert fail after the message has
	// already been posted.
	require.NoError(t, db.Close())
	_, err := e.Open("g1", "c1", "alice", "q", []string{"a", "b"}, model.PollPublic)
	require.Error(t, err)
	assert.Len(t, gw.deletedMessages, 1)
}
