package service

import (
	"context"
	"io"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/repository"
)

type mockTicketRepository struct {
	CreateFunc          func(ctx context.Context, ticket *domain.Ticket) error
	UpdateFunc          func(ctx context.Context, ticket *domain.Ticket) error
	DeleteFunc          func(ctx context.Context, id string) error
	GetByIDFunc         func(ctx context.Context, id string) (*domain.Ticket, error)
	ListWithFilterFunc  func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error)
	CountWithFilterFunc func(ctx context.Context, filter repository.TicketFilter) (int64, error)
	IncrementVoteFunc   func(ctx context.Context, id string, direction domain.VoteDirection) (int, int, error)
	TouchUpdatedFunc    func(ctx context.Context, id string) error
	CountByCategoryFunc func(ctx context.Context, categoryID string) (int64, error)
	CountByCreatorFunc  func(ctx context.Context, creatorID string) (int64, error)
}

func (m *mockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepository) Update(ctx context.Context, ticket *domain.Ticket) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, ticket)
	}
	return nil
}

func (m *mockTicketRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockTicketRepository) ListWithFilter(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	if m.ListWithFilterFunc != nil {
		return m.ListWithFilterFunc(ctx, filter)
	}
	return nil, nil
}

func (m *mockTicketRepository) CountWithFilter(ctx context.Context, filter repository.TicketFilter) (int64, error) {
	if m.CountWithFilterFunc != nil {
		return m.CountWithFilterFunc(ctx, filter)
	}
	return 0, nil
}

func (m *mockTicketRepository) IncrementVote(ctx context.Context, id string, direction domain.VoteDirection) (int, int, error) {
	if m.IncrementVoteFunc != nil {
		return m.IncrementVoteFunc(ctx, id, direction)
	}
	return 0, 0, nil
}

func (m *mockTicketRepository) TouchUpdated(ctx context.Context, id string) error {
	if m.TouchUpdatedFunc != nil {
		return m.TouchUpdatedFunc(ctx, id)
	}
	return nil
}

func (m *mockTicketRepository) CountByCategory(ctx context.Context, categoryID string) (int64, error) {
	if m.CountByCategoryFunc != nil {
		return m.CountByCategoryFunc(ctx, categoryID)
	}
	return 0, nil
}

func (m *mockTicketRepository) CountByCreator(ctx context.Context, creatorID string) (int64, error) {
	if m.CountByCreatorFunc != nil {
		return m.CountByCreatorFunc(ctx, creatorID)
	}
	return 0, nil
}

type mockCommentRepository struct {
	CreateFunc       func(ctx context.Context, comment *domain.Comment) error
	ListByTicketFunc func(ctx context.Context, ticketID string) ([]domain.Comment, error)
}

func (m *mockCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, comment)
	}
	return nil
}

func (m *mockCommentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Comment, error) {
	if m.ListByTicketFunc != nil {
		return m.ListByTicketFunc(ctx, ticketID)
	}
	return nil, nil
}

type mockAttachmentRepository struct {
	CreateFunc       func(ctx context.Context, attachment *domain.Attachment) error
	GetByIDFunc      func(ctx context.Context, id string) (*domain.Attachment, error)
	ListByTicketFunc func(ctx context.Context, ticketID string) ([]domain.Attachment, error)
}

func (m *mockAttachmentRepository) Create(ctx context.Context, attachment *domain.Attachment) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, attachment)
	}
	return nil
}

func (m *mockAttachmentRepository) GetByID(ctx context.Context, id string) (*domain.Attachment, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockAttachmentRepository) ListByTicket(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
	if m.ListByTicketFunc != nil {
		return m.ListByTicketFunc(ctx, ticketID)
	}
	return nil, nil
}

type mockCategoryRepository struct {
	CreateFunc    func(ctx context.Context, category *domain.Category) error
	UpdateFunc    func(ctx context.Context, category *domain.Category) error
	DeleteFunc    func(ctx context.Context, id string) error
	GetByIDFunc   func(ctx context.Context, id string) (*domain.Category, error)
	GetByNameFunc func(ctx context.Context, name string) (*domain.Category, error)
	ListFunc      func(ctx context.Context) ([]domain.Category, error)
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) Update(ctx context.Context, category *domain.Category) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, category)
	}
	return nil
}

func (m *mockCategoryRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockCategoryRepository) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockCategoryRepository) GetByName(ctx context.Context, name string) (*domain.Category, error) {
	if m.GetByNameFunc != nil {
		return m.GetByNameFunc(ctx, name)
	}
	return nil, nil
}

func (m *mockCategoryRepository) List(ctx context.Context) ([]domain.Category, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

type mockUserRepository struct {
	CreateFunc        func(ctx context.Context, user *domain.User) error
	UpdateFunc        func(ctx context.Context, user *domain.User) error
	DeleteFunc        func(ctx context.Context, id string) error
	GetByIDFunc       func(ctx context.Context, id string) (*domain.User, error)
	GetByUsernameFunc func(ctx context.Context, username string) (*domain.User, error)
	GetByEmailFunc    func(ctx context.Context, email string) (*domain.User, error)
	ListFunc          func(ctx context.Context) ([]domain.User, error)
	ListByRolesFunc   func(ctx context.Context, roles ...domain.Role) ([]domain.User, error)
	CountByRoleFunc   func(ctx context.Context, role domain.Role) (int64, error)
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, user)
	}
	return nil
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, id)
	}
	return nil
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	if m.GetByUsernameFunc != nil {
		return m.GetByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFunc != nil {
		return m.GetByEmailFunc(ctx, email)
	}
	return nil, nil
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx)
	}
	return nil, nil
}

func (m *mockUserRepository) ListByRoles(ctx context.Context, roles ...domain.Role) ([]domain.User, error) {
	if m.ListByRolesFunc != nil {
		return m.ListByRolesFunc(ctx, roles...)
	}
	return nil, nil
}

func (m *mockUserRepository) CountByRole(ctx context.Context, role domain.Role) (int64, error) {
	if m.CountByRoleFunc != nil {
		return m.CountByRoleFunc(ctx, role)
	}
	return 0, nil
}

type mockNotificationRepository struct {
	CreateFunc           func(ctx context.Context, notification *domain.Notification) error
	GetByIDFunc          func(ctx context.Context, id string) (*domain.Notification, error)
	ListByRecipientFunc  func(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error)
	CountByRecipientFunc func(ctx context.Context, recipientID string) (int64, error)
	CountUnreadFunc      func(ctx context.Context, recipientID string) (int64, error)
	MarkReadFunc         func(ctx context.Context, id string) error
	MarkAllReadFunc      func(ctx context.Context, recipientID string) (int64, error)
}

func (m *mockNotificationRepository) Create(ctx context.Context, notification *domain.Notification) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, notification)
	}
	return nil
}

func (m *mockNotificationRepository) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if m.GetByIDFunc != nil {
		return m.GetByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockNotificationRepository) ListByRecipient(ctx context.Context, recipientID string, limit, offset int) ([]domain.Notification, error) {
	if m.ListByRecipientFunc != nil {
		return m.ListByRecipientFunc(ctx, recipientID, limit, offset)
	}
	return nil, nil
}

func (m *mockNotificationRepository) CountByRecipient(ctx context.Context, recipientID string) (int64, error) {
	if m.CountByRecipientFunc != nil {
		return m.CountByRecipientFunc(ctx, recipientID)
	}
	return 0, nil
}

func (m *mockNotificationRepository) CountUnread(ctx context.Context, recipientID string) (int64, error) {
	if m.CountUnreadFunc != nil {
		return m.CountUnreadFunc(ctx, recipientID)
	}
	return 0, nil
}

func (m *mockNotificationRepository) MarkRead(ctx context.Context, id string) error {
	if m.MarkReadFunc != nil {
		return m.MarkReadFunc(ctx, id)
	}
	return nil
}

func (m *mockNotificationRepository) MarkAllRead(ctx context.Context, recipientID string) (int64, error) {
	if m.MarkAllReadFunc != nil {
		return m.MarkAllReadFunc(ctx, recipientID)
	}
	return 0, nil
}

type mockVoteRepository struct {
	UpsertFunc              func(ctx context.Context, vote *domain.Vote) error
	GetByTicketAndVoterFunc func(ctx context.Context, ticketID, voterID string) (*domain.Vote, error)
}

func (m *mockVoteRepository) Upsert(ctx context.Context, vote *domain.Vote) error {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, vote)
	}
	return nil
}

func (m *mockVoteRepository) GetByTicketAndVoter(ctx context.Context, ticketID, voterID string) (*domain.Vote, error) {
	if m.GetByTicketAndVoterFunc != nil {
		return m.GetByTicketAndVoterFunc(ctx, ticketID, voterID)
	}
	return nil, nil
}

type mockDispatcher struct {
	PublishFunc   func(ctx context.Context, event events.Event) error
	SubscribeFunc func(eventType events.EventType, handler events.EventHandler)
}

func (m *mockDispatcher) Publish(ctx context.Context, event events.Event) error {
	if m.PublishFunc != nil {
		return m.PublishFunc(ctx, event)
	}
	return nil
}

func (m *mockDispatcher) Subscribe(eventType events.EventType, handler events.EventHandler) {
	if m.SubscribeFunc != nil {
		m.SubscribeFunc(eventType, handler)
	}
}

type mockObjectStore struct {
	PutFunc    func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error
	GetFunc    func(ctx context.Context, key string) (io.ReadCloser, error)
	RemoveFunc func(ctx context.Context, key string) error
}

func (m *mockObjectStore) Put(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
	if m.PutFunc != nil {
		return m.PutFunc(ctx, key, reader, size, contentType)
	}
	return nil
}

func (m *mockObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, key)
	}
	return nil, nil
}

func (m *mockObjectStore) Remove(ctx context.Context, key string) error {
	if m.RemoveFunc != nil {
		return m.RemoveFunc(ctx, key)
	}
	return nil
}
