package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"writing_marketplace/cache"
	"writing_marketplace/constants"
	"writing_marketplace/model"
	"writing_marketplace/utils"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MessageService struct {
	db        *gorm.DB
	store     cache.Store
	notify    Notifier
	clientURL string
	now       func() time.Time
	log       *zap.Logger
}

func NewMessageService(db *gorm.DB, store cache.Store, notify Notifier, clientURL string, log *zap.Logger) *MessageService {
	return &MessageService{
		db:        db,
		store:     store,
		notify:    notify,
		clientURL: strings.TrimRight(clientURL, "/"),
		now:       time.Now,
		log:       log,
	}
}

// SendToWriter stores a message from a client to a writer and emails the
// writer a copy.
func (s *MessageService) SendToWriter(ctx context.Context, in model.SendMessageInput) (*model.Message, error) {
	caller, err := requireRole(ctx, model.RoleClient)
	if err != nil {
		return nil, err
	}

	allowed, err := s.store.Allow(ctx, "inbox:"+caller.AccountID.String(), constants.INBOX_SENDS_PER_HOUR, time.Hour)
	if err != nil {
		s.log.Warn("inbox rate limit unavailable", zap.Error(err))
	} else if !allowed {
		return nil, ErrRateLimited
	}

	writerID, err := uuid.Parse(in.WriterID)
	if err != nil {
		return nil, ErrWriterNotFound
	}
	var writer model.Writer
	err = s.db.WithContext(ctx).Where("id = ? AND active = ?", writerID, true).First(&writer).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWriterNotFound
	}
	if err != nil {
		return nil, err
	}

	msg := model.Message{
		SenderID:     caller.AccountID,
		SenderRole:   model.RoleClient,
		ReceiverID:   writer.ID,
		ReceiverRole: model.RoleWriter,
		Subject:      strings.TrimSpace(in.Subject),
		Body:         in.Body,
		SentAt:       s.now(),
	}
	if in.OrderID != "" {
		orderID, err := uuid.Parse(in.OrderID)
		if err != nil {
			return nil, ErrOrderNotFound
		}
		var order model.Order
		err = s.db.WithContext(ctx).First(&order, "id = ?", orderID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOrderNotFound
		}
		if err != nil {
			return nil, err
		}
		if err := ownedBy(&order, caller); err != nil {
			return nil, err
		}
		msg.OrderID = &order.ID
	}

	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, err
	}

	var sender model.User
	senderName := caller.Email
	if err := s.db.WithContext(ctx).First(&sender, "id = ?", caller.AccountID).Error; err == nil && sender.Name != "" {
		senderName = sender.Name
	}
	s.emailWriter(writer, senderName, msg)
	return &msg, nil
}

func (s *MessageService) emailWriter(writer model.Writer, senderName string, msg model.Message) {
	if s.notify == nil {
		return
	}
	data := utils.WriterMessageData{
		WriterName: writer.Name,
		SenderName: senderName,
		Subject:    msg.Subject,
		Body:       msg.Body,
		InboxLink:  s.clientURL + "/inbox",
	}
	if msg.OrderID != nil {
		data.OrderID = msg.OrderID.String()
	}
	go func() {
		if err := s.notify.SendWriterMessage(writer.Email, data); err != nil {
			s.log.Error("send writer message email", zap.String("message_id", msg.ID.String()), zap.Error(err))
		}
	}()
}

// List returns the caller's messages matching filter, newest first.
func (s *MessageService) List(ctx context.Context, filter model.MessageFilter, page model.Pagination) (*model.ResponseCustom, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}
	me := caller.AccountID
	query := s.db.WithContext(ctx).Model(&model.Message{})

	involved := "(sender_id = ? OR receiver_id = ?)"
	switch filter {
	case model.FilterInbox:
		query = query.Where("receiver_id = ? AND is_archived = ? AND is_trashed = ?", me, false, false)
	case model.FilterSent:
		query = query.Where("sender_id = ? AND is_trashed = ?", me, false)
	case model.FilterUnread:
		query = query.Where("receiver_id = ? AND is_read = ? AND is_trashed = ?", me, false, false)
	case model.FilterArchived:
		query = query.Where(involved+" AND is_archived = ? AND is_trashed = ?", me, me, true, false)
	case model.FilterTrash:
		query = query.Where(involved+" AND is_trashed = ?", me, me, true)
	default:
		query = query.Where(involved+" AND is_trashed = ?", me, me, false)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, err
	}
	limit, p := utils.NormalizePage(page.Limit, page.Page)
	var rows []model.Message
	if err := utils.ApplyPagination(query.Order("sent_at desc"), limit, p).Find(&rows).Error; err != nil {
		return nil, err
	}
	return &model.ResponseCustom{Rows: rows, Limit: limit, Page: p, TotalCount: total}, nil
}

// ToggleFlag flips one flag on a message the caller sent or received.
func (s *MessageService) ToggleFlag(ctx context.Context, id uuid.UUID, flag model.MessageFlag) (*model.Message, error) {
	caller, err := requireCaller(ctx)
	if err != nil {
		return nil, err
	}

	var column string
	switch flag {
	case model.FlagRead:
		column = "is_read"
	case model.FlagArchive:
		column = "is_archived"
	case model.FlagTrash:
		column = "is_trashed"
	default:
		return nil, ErrMessageNotFound
	}

	var msg model.Message
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Where("id = ? AND (sender_id = ? OR receiver_id = ?)", id, caller.AccountID, caller.AccountID).
			First(&msg).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMessageNotFound
		}
		if err != nil {
			return err
		}
		var current bool
		switch flag {
		case model.FlagRead:
			current = msg.IsRead
		case model.FlagArchive:
			current = msg.IsArchived
		case model.FlagTrash:
			current = msg.IsTrashed
		}
		if err := tx.Model(&msg).Update(column, !current).Error; err != nil {
			return err
		}
		return tx.First(&msg, "id = ?", id).Error
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}
