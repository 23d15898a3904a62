package service

import (
	"context"
	"testing"
	"time"

	"writing_marketplace/constants"
	"writing_marketplace/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newMessageService(db *gorm.DB) *MessageService {
	s := NewMessageService(db, newMemStore(), nil, "https://app.test", zap.NewNop())
	s.now = clock
	return s
}

func TestSendToWriter(t *testing.T) {
	db := newDB(t)
	msgs := newMessageService(db)
	user := createUser(t, db, "a@example.com")
	writer := createWriter(t, db, "w@example.com")
	order := createOrder(t, db, &user.ID, model.StatusPaid)
	ctx := asCaller(user.ID, model.RoleClient)

	msg, err := msgs.SendToWriter(ctx, model.SendMessageInput{
		WriterID: writer.ID.String(), OrderID: order.ID.String(), Subject: "  Sources  ", Body: "Please cite primary sources.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Sources", msg.Subject)
	assert.Equal(t, writer.ID, msg.ReceiverID)
	require.NotNil(t, msg.OrderID)
	assert.Equal(t, order.ID, *msg.OrderID)
	assert.True(t, msg.SentAt.Equal(fixedNow))

	_, err = msgs.SendToWriter(ctx, model.SendMessageInput{WriterID: uuid.NewString(), Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrWriterNotFound)

	other := createUser(t, db, "b@example.com")
	foreign := createOrder(t, db, &other.ID, model.StatusPending)
	_, err = msgs.SendToWriter(ctx, model.SendMessageInput{WriterID: writer.ID.String(), OrderID: foreign.ID.String(), Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = msgs.SendToWriter(asCaller(writer.ID, model.RoleWriter), model.SendMessageInput{WriterID: writer.ID.String(), Subject: "s", Body: "b"})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestSendToWriterRateLimited(t *testing.T) {
	db := newDB(t)
	msgs := newMessageService(db)
	user := createUser(t, db, "a@example.com")
	writer := createWriter(t, db, "w@example.com")
	ctx := asCaller(user.ID, model.RoleClient)

	in := model.SendMessageInput{WriterID: writer.ID.String(), Subject: "hi", Body: "hello"}
	for i := 0; i < constants.INBOX_SENDS_PER_HOUR; i++ {
		_, err := msgs.SendToWriter(ctx, in)
		require.NoError(t, err)
	}
	_, err := msgs.SendToWriter(ctx, in)
	assert.ErrorIs(t, err, ErrRateLimited)
}

func TestListFiltersAndToggle(t *testing.T) {
	db := newDB(t)
	msgs := newMessageService(db)
	user := createUser(t, db, "a@example.com")
	writer := createWriter(t, db, "w@example.com")
	client := asCaller(user.ID, model.RoleClient)
	author := asCaller(writer.ID, model.RoleWriter)

	first, err := msgs.SendToWriter(client, model.SendMessageInput{WriterID: writer.ID.String(), Subject: "one", Body: "b"})
	require.NoError(t, err)
	msgs.now = func() time.Time { return fixedNow.Add(time.Minute) }
	second, err := msgs.SendToWriter(client, model.SendMessageInput{WriterID: writer.ID.String(), Subject: "two", Body: "b"})
	require.NoError(t, err)

	count := func(ctx context.Context, filter model.MessageFilter) int64 {
		t.Helper()
		res, err := msgs.List(ctx, filter, model.Pagination{})
		require.NoError(t, err)
		return res.TotalCount
	}

	inbox, err := msgs.List(author, model.FilterInbox, model.Pagination{})
	require.NoError(t, err)
	require.EqualValues(t, 2, inbox.TotalCount)
	rows := inbox.Rows.([]model.Message)
	assert.Equal(t, second.ID, rows[0].ID)

	assert.EqualValues(t, 2, count(author, model.FilterUnread))
	assert.EqualValues(t, 2, count(client, model.FilterSent))
	assert.EqualValues(t, 0, count(client, model.FilterInbox))

	read, err := msgs.ToggleFlag(author, first.ID, model.FlagRead)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.EqualValues(t, 1, count(author, model.FilterUnread))

	_, err = msgs.ToggleFlag(author, first.ID, model.FlagArchive)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count(author, model.FilterInbox))
	assert.EqualValues(t, 1, count(author, model.FilterArchived))
	assert.EqualValues(t, 1, count(client, model.FilterArchived))

	_, err = msgs.ToggleFlag(author, second.ID, model.FlagTrash)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count(author, model.FilterTrash))
	assert.EqualValues(t, 1, count(author, model.FilterAll))

	restored, err := msgs.ToggleFlag(author, second.ID, model.FlagTrash)
	require.NoError(t, err)
	assert.False(t, restored.IsTrashed)

	stranger := asCaller(uuid.New(), model.RoleClient)
	_, err = msgs.ToggleFlag(stranger, first.ID, model.FlagRead)
	assert.ErrorIs(t, err, ErrMessageNotFound)
}
