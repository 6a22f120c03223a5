package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quickdesk/helpdesk-service/internal/domain"
	"github.com/quickdesk/helpdesk-service/internal/events"
	"github.com/quickdesk/helpdesk-service/internal/persistence"
	"github.com/quickdesk/helpdesk-service/internal/repository"
	"github.com/quickdesk/helpdesk-service/pkg/errorutil"
)

func newTicketDeps() TicketDependencies {
	return TicketDependencies{
		TicketRepo:     &mockTicketRepository{},
		CommentRepo:    &mockCommentRepository{},
		AttachmentRepo: &mockAttachmentRepository{},
		CategoryRepo:   &mockCategoryRepository{},
		UserRepo:       &mockUserRepository{},
		VoteRepo:       &mockVoteRepository{},
		TxManager:      persistence.NewTxManager(nil),
		Store:          &mockObjectStore{},
		Dispatcher:     &mockDispatcher{},
	}
}

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var domainErr *errorutil.DomainError
	require.ErrorAs(t, err, &domainErr)
	return domainErr.Code
}

func TestTicketService_CreateTicket(t *testing.T) {
	tests := []struct {
		name         string
		priority     domain.TicketPriority
		wantPriority domain.TicketPriority
	}{
		{name: "defaults to medium priority", priority: "", wantPriority: domain.TicketPriorityMedium},
		{name: "keeps explicit priority", priority: domain.TicketPriorityUrgent, wantPriority: domain.TicketPriorityUrgent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var savedTicket *domain.Ticket
			tickets := &mockTicketRepository{
				CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
					ticket.ID = "t-1"
					savedTicket = ticket
					return nil
				},
			}
			var published []events.Event
			dispatcher := &mockDispatcher{
				PublishFunc: func(ctx context.Context, event events.Event) error {
					published = append(published, event)
					return nil
				},
			}

			deps := newTicketDeps()
			deps.TicketRepo = tickets
			deps.Dispatcher = dispatcher
			svc := NewTicketService(deps)

			actor := Actor{ID: "u-1", Username: "alice", Role: domain.RoleUser}
			result, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
				Subject:     "  Printer jammed  ",
				Description: "Paper stuck in tray two",
				CategoryID:  "cat-1",
				Priority:    tt.priority,
			})

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, "t-1", result.ID)
			assert.Equal(t, "Printer jammed", result.Subject)
			assert.Equal(t, domain.TicketStatusOpen, result.Status)
			assert.Equal(t, tt.wantPriority, result.Priority)
			assert.Equal(t, "u-1", result.CreatorID)
			assert.Nil(t, result.AssigneeID)

			require.NotNil(t, savedTicket)
			require.Len(t, published, 1)
			event := published[0]
			assert.Equal(t, events.EventTicketCreated, event.Type)
			assert.Equal(t, "t-1", event.TicketID)
			assert.Equal(t, "alice", event.Actor.Username)
			assert.NotEmpty(t, event.ID)
			assert.False(t, event.Timestamp.IsZero())

			payload, ok := event.Payload.(events.TicketCreatedPayload)
			require.True(t, ok)
			assert.Equal(t, "Printer jammed", payload.Subject)
			assert.Equal(t, "cat-1", payload.CategoryID)
			assert.Equal(t, tt.wantPriority, payload.Priority)
			assert.Equal(t, "u-1", payload.CreatorID)
		})
	}
}

func TestTicketService_CreateTicket_ValidationErrors(t *testing.T) {
	tests := []struct {
		name          string
		input         TicketCreateInput
		expectedError string
	}{
		{
			name:          "empty subject",
			input:         TicketCreateInput{Description: "desc", CategoryID: "cat-1"},
			expectedError: "subject is required",
		},
		{
			name:          "whitespace subject",
			input:         TicketCreateInput{Subject: "   ", Description: "desc", CategoryID: "cat-1"},
			expectedError: "subject is required",
		},
		{
			name:          "empty description",
			input:         TicketCreateInput{Subject: "subject", CategoryID: "cat-1"},
			expectedError: "description is required",
		},
		{
			name:          "missing category",
			input:         TicketCreateInput{Subject: "subject", Description: "desc"},
			expectedError: "category is required",
		},
		{
			name:          "unknown priority",
			input:         TicketCreateInput{Subject: "subject", Description: "desc", CategoryID: "cat-1", Priority: "blocker"},
			expectedError: "unknown priority",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var created bool
			tickets := &mockTicketRepository{
				CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
					created = true
					return nil
				},
			}
			deps := newTicketDeps()
			deps.TicketRepo = tickets
			svc := NewTicketService(deps)

			actor := Actor{ID: "u-1", Role: domain.RoleUser}
			result, err := svc.CreateTicket(context.Background(), actor, tt.input)

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
			assert.Contains(t, err.Error(), tt.expectedError)
			assert.False(t, created)
		})
	}
}

func TestTicketService_CreateTicket_CategoryNotFound(t *testing.T) {
	categories := &mockCategoryRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Category, error) {
			return nil, pgx.ErrNoRows
		},
	}
	deps := newTicketDeps()
	deps.CategoryRepo = categories
	svc := NewTicketService(deps)

	actor := Actor{ID: "u-1", Role: domain.RoleUser}
	result, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		Subject:     "subject",
		Description: "desc",
		CategoryID:  "missing",
	})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	assert.Contains(t, err.Error(), "category not found")
}

func TestTicketService_CreateTicket_StoresAttachments(t *testing.T) {
	tickets := &mockTicketRepository{
		CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
			ticket.ID = "t-9"
			return nil
		},
	}
	var putKeys []string
	var putTypes []string
	store := &mockObjectStore{
		PutFunc: func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
			putKeys = append(putKeys, key)
			putTypes = append(putTypes, contentType)
			return nil
		},
	}
	var records []*domain.Attachment
	attachments := &mockAttachmentRepository{
		CreateFunc: func(ctx context.Context, attachment *domain.Attachment) error {
			records = append(records, attachment)
			return nil
		},
	}

	deps := newTicketDeps()
	deps.TicketRepo = tickets
	deps.Store = store
	deps.AttachmentRepo = attachments
	svc := NewTicketService(deps)

	actor := Actor{ID: "u-1", Role: domain.RoleUser}
	_, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
		Subject:     "subject",
		Description: "desc",
		CategoryID:  "cat-1",
		Attachments: []AttachmentInput{
			{Filename: "Report Final.pdf", ContentType: "application/pdf", Size: 4, Content: strings.NewReader("%PDF")},
			{Filename: `..\evil name!.txt`, ContentType: "text/plain", Size: 5, Content: strings.NewReader("hello")},
		},
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"t-9_Report_Final.pdf", "t-9_evil_name_.txt"}, putKeys)
	assert.Equal(t, []string{"application/pdf", "text/plain"}, putTypes)

	require.Len(t, records, 2)
	assert.Equal(t, "t-9", records[0].TicketID)
	assert.Equal(t, "t-9_Report_Final.pdf", records[0].StoredFilename)
	assert.Equal(t, "t-9_Report_Final.pdf", records[0].StorageKey)
	assert.Equal(t, "Report Final.pdf", records[0].OriginalFilename)
	assert.Equal(t, int64(4), records[0].SizeBytes)
	assert.Equal(t, `..\evil name!.txt`, records[1].OriginalFilename)
}

func TestTicketService_CreateTicket_SkipsDisallowedUploads(t *testing.T) {
	t.Run("keeps allowed files and drops the rest", func(t *testing.T) {
		tickets := &mockTicketRepository{
			CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				ticket.ID = "t-4"
				return nil
			},
		}
		var putKeys []string
		store := &mockObjectStore{
			PutFunc: func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
				putKeys = append(putKeys, key)
				return nil
			},
		}
		var records []*domain.Attachment
		attachments := &mockAttachmentRepository{
			CreateFunc: func(ctx context.Context, attachment *domain.Attachment) error {
				records = append(records, attachment)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.Store = store
		deps.AttachmentRepo = attachments
		svc := NewTicketService(deps)

		actor := Actor{ID: "u-1", Role: domain.RoleUser}
		result, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
			Subject:     "subject",
			Description: "desc",
			CategoryID:  "cat-1",
			Attachments: []AttachmentInput{
				{Filename: "report.pdf", ContentType: "application/pdf", Size: 4, Content: strings.NewReader("%PDF")},
				{Filename: "setup.exe", Size: 1, Content: strings.NewReader("x")},
				{Filename: "README", Size: 1, Content: strings.NewReader("x")},
				{Filename: "notes.txt", Size: 1},
			},
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.Equal(t, "t-4", result.ID)
		assert.Equal(t, []string{"t-4_report.pdf"}, putKeys)
		require.Len(t, records, 1)
		assert.Equal(t, "report.pdf", records[0].OriginalFilename)
	})

	t.Run("ticket opens even when every upload is dropped", func(t *testing.T) {
		var created bool
		tickets := &mockTicketRepository{
			CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				created = true
				ticket.ID = "t-4"
				return nil
			},
		}
		var puts int
		store := &mockObjectStore{
			PutFunc: func(ctx context.Context, key string, reader io.Reader, size int64, contentType string) error {
				puts++
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.Store = store
		svc := NewTicketService(deps)

		actor := Actor{ID: "u-1", Role: domain.RoleUser}
		result, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
			Subject:     "subject",
			Description: "desc",
			CategoryID:  "cat-1",
			Attachments: []AttachmentInput{
				{Filename: "setup.exe", Size: 1, Content: strings.NewReader("x")},
			},
		})

		require.NoError(t, err)
		require.NotNil(t, result)
		assert.True(t, created)
		assert.Equal(t, "t-4", result.ID)
		assert.Zero(t, puts)
	})
}

func TestTicketService_CreateTicket_RemovesObjectsOnRollback(t *testing.T) {
	tests := []struct {
		name string
		fail func(deps *TicketDependencies)
	}{
		{
			name: "notification fan-out fails",
			fail: func(deps *TicketDependencies) {
				deps.Dispatcher = &mockDispatcher{
					PublishFunc: func(ctx context.Context, event events.Event) error {
						return errors.New("notification insert failed")
					},
				}
			},
		},
		{
			name: "attachment row insert fails",
			fail: func(deps *TicketDependencies) {
				deps.AttachmentRepo = &mockAttachmentRepository{
					CreateFunc: func(ctx context.Context, attachment *domain.Attachment) error {
						return errors.New("insert failed")
					},
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var removed []string
			store := &mockObjectStore{
				RemoveFunc: func(ctx context.Context, key string) error {
					removed = append(removed, key)
					return nil
				},
			}
			tickets := &mockTicketRepository{
				CreateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
					ticket.ID = "t-9"
					return nil
				},
			}

			deps := newTicketDeps()
			deps.TicketRepo = tickets
			deps.Store = store
			tt.fail(&deps)
			svc := NewTicketService(deps)

			actor := Actor{ID: "u-1", Role: domain.RoleUser}
			result, err := svc.CreateTicket(context.Background(), actor, TicketCreateInput{
				Subject:     "subject",
				Description: "desc",
				CategoryID:  "cat-1",
				Attachments: []AttachmentInput{{Filename: "data.txt", Size: 4, Content: strings.NewReader("data")}},
			})

			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, []string{"t-9_data.txt"}, removed)
		})
	}
}

func TestTicketService_GetTicket_Visibility(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, Subject: "subject", CreatorID: "u-1"}, nil
		},
	}
	comments := &mockCommentRepository{
		ListByTicketFunc: func(ctx context.Context, ticketID string) ([]domain.Comment, error) {
			return []domain.Comment{{ID: "c-1"}, {ID: "c-2"}}, nil
		},
	}
	attachments := &mockAttachmentRepository{
		ListByTicketFunc: func(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
			return []domain.Attachment{{ID: "a-1"}}, nil
		},
	}

	deps := newTicketDeps()
	deps.TicketRepo = tickets
	deps.CommentRepo = comments
	deps.AttachmentRepo = attachments
	svc := NewTicketService(deps)

	tests := []struct {
		name      string
		actor     Actor
		forbidden bool
	}{
		{name: "creator sees own ticket", actor: Actor{ID: "u-1", Role: domain.RoleUser}},
		{name: "other user is rejected", actor: Actor{ID: "u-2", Role: domain.RoleUser}, forbidden: true},
		{name: "agent sees any ticket", actor: Actor{ID: "u-3", Role: domain.RoleAgent}},
		{name: "admin sees any ticket", actor: Actor{ID: "u-4", Role: domain.RoleAdmin}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			detail, err := svc.GetTicket(context.Background(), tt.actor, "t-1")

			if tt.forbidden {
				require.Error(t, err)
				assert.Equal(t, "FORBIDDEN", domainCode(t, err))
				return
			}
			require.NoError(t, err)
			require.NotNil(t, detail)
			assert.Equal(t, "t-1", detail.Ticket.ID)
			assert.Len(t, detail.Comments, 2)
			assert.Len(t, detail.Attachments, 1)
		})
	}
}

func TestTicketService_GetTicket_NotFound(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return nil, pgx.ErrNoRows
		},
	}
	deps := newTicketDeps()
	deps.TicketRepo = tickets
	svc := NewTicketService(deps)

	_, err := svc.GetTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleAdmin}, "gone")

	require.Error(t, err)
	assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	assert.Contains(t, err.Error(), "ticket not found")
}

func TestTicketService_GetTicket_ViewerVote(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, CreatorID: "u-1"}, nil
		},
	}

	t.Run("includes the actor's recorded vote", func(t *testing.T) {
		var queriedTicket, queriedVoter string
		votes := &mockVoteRepository{
			GetByTicketAndVoterFunc: func(ctx context.Context, ticketID, voterID string) (*domain.Vote, error) {
				queriedTicket, queriedVoter = ticketID, voterID
				return &domain.Vote{TicketID: ticketID, VoterID: voterID, Direction: domain.VoteDown}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.VoteRepo = votes
		svc := NewTicketService(deps)

		detail, err := svc.GetTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1")

		require.NoError(t, err)
		assert.Equal(t, "t-1", queriedTicket)
		assert.Equal(t, "u-1", queriedVoter)
		require.NotNil(t, detail.ViewerVote)
		assert.Equal(t, domain.VoteDown, *detail.ViewerVote)
	})

	t.Run("no vote leaves the field nil", func(t *testing.T) {
		votes := &mockVoteRepository{
			GetByTicketAndVoterFunc: func(ctx context.Context, ticketID, voterID string) (*domain.Vote, error) {
				return nil, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.VoteRepo = votes
		svc := NewTicketService(deps)

		detail, err := svc.GetTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1")

		require.NoError(t, err)
		assert.Nil(t, detail.ViewerVote)
	})
}

func TestTicketService_UpdateTicket(t *testing.T) {
	subject := "New subject"
	priority := domain.TicketPriorityHigh

	var updated *domain.Ticket
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, Subject: "Old", Description: "Old desc", Priority: domain.TicketPriorityLow, CreatorID: "u-1", CategoryID: "cat-1"}, nil
		},
		UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
			updated = ticket
			return nil
		},
	}
	deps := newTicketDeps()
	deps.TicketRepo = tickets
	svc := NewTicketService(deps)

	actor := Actor{ID: "u-1", Role: domain.RoleUser}
	result, err := svc.UpdateTicket(context.Background(), actor, "t-1", TicketUpdateInput{
		Subject:  &subject,
		Priority: &priority,
	})

	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "New subject", result.Subject)
	assert.Equal(t, "Old desc", result.Description)
	assert.Equal(t, domain.TicketPriorityHigh, result.Priority)
	assert.Equal(t, "cat-1", result.CategoryID)
}

func TestTicketService_UpdateTicket_Errors(t *testing.T) {
	emptySubject := "  "
	badPriority := domain.TicketPriority("blocker")
	missingCategory := "missing"

	tests := []struct {
		name         string
		actor        Actor
		input        TicketUpdateInput
		expectedCode string
	}{
		{
			name:         "unrelated user cannot edit",
			actor:        Actor{ID: "u-2", Role: domain.RoleUser},
			expectedCode: "FORBIDDEN",
		},
		{
			name:         "blank subject rejected",
			actor:        Actor{ID: "u-1", Role: domain.RoleUser},
			input:        TicketUpdateInput{Subject: &emptySubject},
			expectedCode: "VALIDATION_FAILED",
		},
		{
			name:         "unknown priority rejected",
			actor:        Actor{ID: "u-1", Role: domain.RoleUser},
			input:        TicketUpdateInput{Priority: &badPriority},
			expectedCode: "VALIDATION_FAILED",
		},
		{
			name:         "unknown category rejected",
			actor:        Actor{ID: "u-1", Role: domain.RoleUser},
			input:        TicketUpdateInput{CategoryID: &missingCategory},
			expectedCode: "NOT_FOUND",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tickets := &mockTicketRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
					return &domain.Ticket{ID: id, CreatorID: "u-1", CategoryID: "cat-1"}, nil
				},
			}
			categories := &mockCategoryRepository{
				GetByIDFunc: func(ctx context.Context, id string) (*domain.Category, error) {
					return nil, pgx.ErrNoRows
				},
			}
			deps := newTicketDeps()
			deps.TicketRepo = tickets
			deps.CategoryRepo = categories
			svc := NewTicketService(deps)

			_, err := svc.UpdateTicket(context.Background(), tt.actor, "t-1", tt.input)

			require.Error(t, err)
			assert.Equal(t, tt.expectedCode, domainCode(t, err))
		})
	}
}

func TestTicketService_DeleteTicket(t *testing.T) {
	t.Run("agent cannot delete", func(t *testing.T) {
		var fetched bool
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				fetched = true
				return &domain.Ticket{ID: id}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		err := svc.DeleteTicket(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "t-1")

		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", domainCode(t, err))
		assert.False(t, fetched)
	})

	t.Run("admin deletes ticket and stored objects", func(t *testing.T) {
		var deletedID string
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, CreatorID: "u-1"}, nil
			},
			DeleteFunc: func(ctx context.Context, id string) error {
				deletedID = id
				return nil
			},
		}
		attachments := &mockAttachmentRepository{
			ListByTicketFunc: func(ctx context.Context, ticketID string) ([]domain.Attachment, error) {
				return []domain.Attachment{
					{ID: "a-1", StorageKey: "t-1_one.txt"},
					{ID: "a-2", StorageKey: "t-1_two.pdf"},
				}, nil
			},
		}
		var removed []string
		store := &mockObjectStore{
			RemoveFunc: func(ctx context.Context, key string) error {
				removed = append(removed, key)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.AttachmentRepo = attachments
		deps.Store = store
		svc := NewTicketService(deps)

		err := svc.DeleteTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1")

		require.NoError(t, err)
		assert.Equal(t, "t-1", deletedID)
		assert.Equal(t, []string{"t-1_one.txt", "t-1_two.pdf"}, removed)
	})

	t.Run("missing ticket", func(t *testing.T) {
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return nil, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		err := svc.DeleteTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "gone")

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestTicketService_AddComment(t *testing.T) {
	assigneeID := "agent-1"
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{
				ID:         id,
				Subject:    "Printer jammed",
				CreatorID:  "u-1",
				AssigneeID: &assigneeID,
				Priority:   domain.TicketPriorityHigh,
			}, nil
		},
	}
	var touchedID string
	tickets.TouchUpdatedFunc = func(ctx context.Context, id string) error {
		touchedID = id
		return nil
	}
	comments := &mockCommentRepository{
		CreateFunc: func(ctx context.Context, comment *domain.Comment) error {
			comment.ID = "c-7"
			return nil
		},
	}
	var published []events.Event
	dispatcher := &mockDispatcher{
		PublishFunc: func(ctx context.Context, event events.Event) error {
			published = append(published, event)
			return nil
		},
	}

	deps := newTicketDeps()
	deps.TicketRepo = tickets
	deps.CommentRepo = comments
	deps.Dispatcher = dispatcher
	svc := NewTicketService(deps)

	actor := Actor{ID: "u-9", Username: "bob", Role: domain.RoleAgent}
	comment, err := svc.AddComment(context.Background(), actor, "t-1", "  Have you tried tray one?  ")

	require.NoError(t, err)
	require.NotNil(t, comment)
	assert.Equal(t, "c-7", comment.ID)
	assert.Equal(t, "t-1", comment.TicketID)
	assert.Equal(t, "u-9", comment.AuthorID)
	assert.Equal(t, "Have you tried tray one?", comment.Content)
	assert.Equal(t, "t-1", touchedID)

	require.Len(t, published, 1)
	payload, ok := published[0].Payload.(events.CommentAddedPayload)
	require.True(t, ok)
	assert.Equal(t, "c-7", payload.CommentID)
	assert.Equal(t, "Printer jammed", payload.Subject)
	assert.Equal(t, "u-1", payload.CreatorID)
	require.NotNil(t, payload.AssigneeID)
	assert.Equal(t, "agent-1", *payload.AssigneeID)
	assert.Equal(t, domain.TicketPriorityHigh, payload.Priority)
}

func TestTicketService_AddComment_Errors(t *testing.T) {
	t.Run("blank content", func(t *testing.T) {
		var fetched bool
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				fetched = true
				return &domain.Ticket{ID: id, CreatorID: "u-1"}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		_, err := svc.AddComment(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", "   ")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
		assert.False(t, fetched)
	})

	t.Run("unrelated user", func(t *testing.T) {
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, CreatorID: "u-1"}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		_, err := svc.AddComment(context.Background(), Actor{ID: "u-2", Role: domain.RoleUser}, "t-1", "hi")

		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", domainCode(t, err))
	})
}

func TestTicketService_SetStatus(t *testing.T) {
	t.Run("plain user cannot change status", func(t *testing.T) {
		svc := NewTicketService(newTicketDeps())

		_, err := svc.SetStatus(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", domain.TicketStatusResolved)

		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", domainCode(t, err))
	})

	t.Run("unknown status", func(t *testing.T) {
		svc := NewTicketService(newTicketDeps())

		_, err := svc.SetStatus(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "t-1", "archived")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("missing ticket", func(t *testing.T) {
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return nil, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		_, err := svc.SetStatus(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "gone", domain.TicketStatusClosed)

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})

	t.Run("same status is a no-op", func(t *testing.T) {
		var updated bool
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, Status: domain.TicketStatusOpen, CreatorID: "u-1"}, nil
			},
			UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				updated = true
				return nil
			},
		}
		var published []events.Event
		dispatcher := &mockDispatcher{
			PublishFunc: func(ctx context.Context, event events.Event) error {
				published = append(published, event)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.Dispatcher = dispatcher
		svc := NewTicketService(deps)

		result, err := svc.SetStatus(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "t-1", domain.TicketStatusOpen)

		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOpen, result.Status)
		assert.False(t, updated)
		assert.Empty(t, published)
	})

	t.Run("transition publishes old and new status", func(t *testing.T) {
		var updated *domain.Ticket
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, Subject: "Printer jammed", Status: domain.TicketStatusOpen, CreatorID: "u-1"}, nil
			},
			UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				updated = ticket
				return nil
			},
		}
		var published []events.Event
		dispatcher := &mockDispatcher{
			PublishFunc: func(ctx context.Context, event events.Event) error {
				published = append(published, event)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.Dispatcher = dispatcher
		svc := NewTicketService(deps)

		result, err := svc.SetStatus(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "t-1", domain.TicketStatusInProgress)

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Equal(t, domain.TicketStatusInProgress, result.Status)

		require.Len(t, published, 1)
		payload, ok := published[0].Payload.(events.StatusChangedPayload)
		require.True(t, ok)
		assert.Equal(t, domain.TicketStatusOpen, payload.OldStatus)
		assert.Equal(t, domain.TicketStatusInProgress, payload.NewStatus)
		assert.Equal(t, "u-1", payload.CreatorID)
	})
}

func TestTicketService_AssignTicket(t *testing.T) {
	agentID := "agent-1"

	t.Run("agent cannot assign", func(t *testing.T) {
		svc := NewTicketService(newTicketDeps())

		_, err := svc.AssignTicket(context.Background(), Actor{ID: "u-3", Role: domain.RoleAgent}, "t-1", &agentID)

		require.Error(t, err)
		assert.Equal(t, "FORBIDDEN", domainCode(t, err))
	})

	t.Run("assignee must exist", func(t *testing.T) {
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id}, nil
			},
		}
		users := &mockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.User, error) {
				return nil, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.UserRepo = users
		svc := NewTicketService(deps)

		_, err := svc.AssignTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1", &agentID)

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
		assert.Contains(t, err.Error(), "assignee does not exist")
	})

	t.Run("assignee must be staff", func(t *testing.T) {
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id}, nil
			},
		}
		users := &mockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Role: domain.RoleUser}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.UserRepo = users
		svc := NewTicketService(deps)

		_, err := svc.AssignTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1", &agentID)

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
		assert.Contains(t, err.Error(), "assignee must be an agent or admin")
	})

	t.Run("assigning notifies the assignee", func(t *testing.T) {
		var updated *domain.Ticket
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				return &domain.Ticket{ID: id, Subject: "Printer jammed"}, nil
			},
			UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				updated = ticket
				return nil
			},
		}
		users := &mockUserRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.User, error) {
				return &domain.User{ID: id, Username: "carol", Role: domain.RoleAgent}, nil
			},
		}
		var published []events.Event
		dispatcher := &mockDispatcher{
			PublishFunc: func(ctx context.Context, event events.Event) error {
				published = append(published, event)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.UserRepo = users
		deps.Dispatcher = dispatcher
		svc := NewTicketService(deps)

		result, err := svc.AssignTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1", &agentID)

		require.NoError(t, err)
		require.NotNil(t, updated)
		require.NotNil(t, result.AssigneeID)
		assert.Equal(t, "agent-1", *result.AssigneeID)

		require.Len(t, published, 1)
		payload, ok := published[0].Payload.(events.TicketAssignedPayload)
		require.True(t, ok)
		assert.Equal(t, "agent-1", payload.AssigneeID)
		assert.Equal(t, "Printer jammed", payload.Subject)
	})

	t.Run("reassigning the current assignee is a no-op", func(t *testing.T) {
		var updated bool
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				current := agentID
				return &domain.Ticket{ID: id, AssigneeID: &current}, nil
			},
			UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				updated = true
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		_, err := svc.AssignTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1", &agentID)

		require.NoError(t, err)
		assert.False(t, updated)
	})

	t.Run("clearing drops the assignee without an event", func(t *testing.T) {
		var updated *domain.Ticket
		tickets := &mockTicketRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
				current := agentID
				return &domain.Ticket{ID: id, AssigneeID: &current}, nil
			},
			UpdateFunc: func(ctx context.Context, ticket *domain.Ticket) error {
				updated = ticket
				return nil
			},
		}
		var published []events.Event
		dispatcher := &mockDispatcher{
			PublishFunc: func(ctx context.Context, event events.Event) error {
				published = append(published, event)
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.Dispatcher = dispatcher
		svc := NewTicketService(deps)

		result, err := svc.AssignTicket(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, "t-1", nil)

		require.NoError(t, err)
		require.NotNil(t, updated)
		assert.Nil(t, result.AssigneeID)
		assert.Empty(t, published)
	})
}

func TestTicketService_VoteTicket(t *testing.T) {
	t.Run("records the vote and returns tallies", func(t *testing.T) {
		tickets := &mockTicketRepository{
			IncrementVoteFunc: func(ctx context.Context, id string, direction domain.VoteDirection) (int, int, error) {
				return 5, 2, nil
			},
		}
		var savedVote *domain.Vote
		votes := &mockVoteRepository{
			UpsertFunc: func(ctx context.Context, vote *domain.Vote) error {
				savedVote = vote
				return nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.VoteRepo = votes
		svc := NewTicketService(deps)

		up, down, err := svc.VoteTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", domain.VoteUp)

		require.NoError(t, err)
		assert.Equal(t, 5, up)
		assert.Equal(t, 2, down)
		require.NotNil(t, savedVote)
		assert.Equal(t, "t-1", savedVote.TicketID)
		assert.Equal(t, "u-1", savedVote.VoterID)
		assert.Equal(t, domain.VoteUp, savedVote.Direction)
	})

	t.Run("unknown direction", func(t *testing.T) {
		svc := NewTicketService(newTicketDeps())

		_, _, err := svc.VoteTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", "sideways")

		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})

	t.Run("missing ticket", func(t *testing.T) {
		tickets := &mockTicketRepository{
			IncrementVoteFunc: func(ctx context.Context, id string, direction domain.VoteDirection) (int, int, error) {
				return 0, 0, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		_, _, err := svc.VoteTicket(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "gone", domain.VoteDown)

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestTicketService_ListTickets(t *testing.T) {
	t.Run("plain users only see their own tickets", func(t *testing.T) {
		var captured repository.TicketFilter
		tickets := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				captured = filter
				return []domain.Ticket{{ID: "t-1"}, {ID: "t-2"}}, nil
			},
			CountWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) (int64, error) {
				return 25, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		page, err := svc.ListTickets(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, TicketListQuery{})

		require.NoError(t, err)
		require.NotNil(t, captured.CreatorID)
		assert.Equal(t, "u-1", *captured.CreatorID)
		assert.Equal(t, repository.SortRecent, captured.Sort)
		assert.Equal(t, 10, captured.Limit)
		assert.Equal(t, 0, captured.Offset)

		assert.Equal(t, 1, page.Page)
		assert.Equal(t, int64(25), page.TotalItems)
		assert.Equal(t, 3, page.TotalPages)
		assert.True(t, page.HasNext)
		assert.False(t, page.HasPrev)
	})

	t.Run("staff see everything with paging", func(t *testing.T) {
		var captured repository.TicketFilter
		tickets := &mockTicketRepository{
			ListWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
				captured = filter
				return []domain.Ticket{{ID: "t-21"}}, nil
			},
			CountWithFilterFunc: func(ctx context.Context, filter repository.TicketFilter) (int64, error) {
				return 25, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		svc := NewTicketService(deps)

		page, err := svc.ListTickets(context.Background(), Actor{ID: "adm-1", Role: domain.RoleAdmin}, TicketListQuery{
			Sort: repository.SortPriority,
			Page: 3,
		})

		require.NoError(t, err)
		assert.Nil(t, captured.CreatorID)
		assert.Equal(t, repository.SortPriority, captured.Sort)
		assert.Equal(t, 20, captured.Offset)

		assert.Equal(t, 3, page.Page)
		assert.False(t, page.HasNext)
		assert.True(t, page.HasPrev)
	})

	t.Run("unknown status or sort", func(t *testing.T) {
		svc := NewTicketService(newTicketDeps())
		badStatus := domain.TicketStatus("weird")

		_, err := svc.ListTickets(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, TicketListQuery{Status: &badStatus})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))

		_, err = svc.ListTickets(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, TicketListQuery{Sort: "alphabetical"})
		require.Error(t, err)
		assert.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
	})
}

func TestTicketService_OpenAttachment(t *testing.T) {
	tickets := &mockTicketRepository{
		GetByIDFunc: func(ctx context.Context, id string) (*domain.Ticket, error) {
			return &domain.Ticket{ID: id, CreatorID: "u-1"}, nil
		},
	}

	t.Run("streams the stored object", func(t *testing.T) {
		attachments := &mockAttachmentRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Attachment, error) {
				return &domain.Attachment{ID: id, TicketID: "t-1", StorageKey: "t-1_notes.txt", OriginalFilename: "notes.txt"}, nil
			},
		}
		var requestedKey string
		store := &mockObjectStore{
			GetFunc: func(ctx context.Context, key string) (io.ReadCloser, error) {
				requestedKey = key
				return io.NopCloser(strings.NewReader("hello")), nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.AttachmentRepo = attachments
		deps.Store = store
		svc := NewTicketService(deps)

		att, reader, err := svc.OpenAttachment(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", "a-1")

		require.NoError(t, err)
		defer reader.Close()
		assert.Equal(t, "notes.txt", att.OriginalFilename)
		assert.Equal(t, "t-1_notes.txt", requestedKey)

		data, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("attachment of another ticket reads as missing", func(t *testing.T) {
		attachments := &mockAttachmentRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Attachment, error) {
				return &domain.Attachment{ID: id, TicketID: "t-2", StorageKey: "t-2_notes.txt"}, nil
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.AttachmentRepo = attachments
		svc := NewTicketService(deps)

		_, _, err := svc.OpenAttachment(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", "a-1")

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})

	t.Run("unknown attachment", func(t *testing.T) {
		attachments := &mockAttachmentRepository{
			GetByIDFunc: func(ctx context.Context, id string) (*domain.Attachment, error) {
				return nil, pgx.ErrNoRows
			},
		}
		deps := newTicketDeps()
		deps.TicketRepo = tickets
		deps.AttachmentRepo = attachments
		svc := NewTicketService(deps)

		_, _, err := svc.OpenAttachment(context.Background(), Actor{ID: "u-1", Role: domain.RoleUser}, "t-1", "gone")

		require.Error(t, err)
		assert.Equal(t, "NOT_FOUND", domainCode(t, err))
	})
}

func TestSanitizeFilename(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "plain name", in: "report.pdf", want: "report.pdf"},
		{name: "spaces and punctuation", in: "weird name (1).png", want: "weird_name_1_.png"},
		{name: "unix path traversal", in: "../../etc/passwd.txt", want: "passwd.txt"},
		{name: "windows path", in: `..\..\boot config.txt`, want: "boot_config.txt"},
		{name: "only unsafe characters", in: "???", want: "file"},
		{name: "only dots", in: "...", want: "file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, sanitizeFilename(tt.in))
		})
	}
}
