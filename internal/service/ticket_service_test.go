package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/constants"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/models"
	"github.com/ayoubsiyari/talaria-log-v3-sub002/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupTicketServiceTest(t *testing.T) (*TicketService, *gorm.DB) {
	t.Helper()

	dsn := fmt.Sprintf("file:ticket_service_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.User{}, &models.Ticket{}, &models.TicketMessage{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	return NewTicketService(
		repository.NewTicketRepository(db),
		repository.NewUserRepository(db),
		nil,
	), db
}

func createTicketTestUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	user := &models.User{
		Email:        email,
		PasswordHash: "x",
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestOpenTicketValidation(t *testing.T) {
	svc, db := setupTicketServiceTest(t)
	user := createTicketTestUser(t, db, "open@example.com")

	if _, err := svc.Open(OpenTicketInput{UserID: user.ID, Subject: "  ", Body: "help"}); !errors.Is(err, ErrTicketInvalid) {
		t.Fatalf("expected ErrTicketInvalid for blank subject, got %v", err)
	}

	ticket, err := svc.Open(OpenTicketInput{
		UserID:   user.ID,
		Subject:  "Cannot export entries",
		Body:     "Export returns an empty file.",
		Priority: "urgent",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}
	if ticket.Status != constants.TicketStatusOpen {
		t.Fatalf("expected open status, got %s", ticket.Status)
	}
	if ticket.Priority != constants.TicketPriorityNormal {
		t.Fatalf("expected unknown priority coerced to normal, got %s", ticket.Priority)
	}
	if len(ticket.Messages) != 1 || ticket.Messages[0].AuthorType != constants.TicketAuthorUser {
		t.Fatalf("expected one user message, got %+v", ticket.Messages)
	}
}

func TestTicketReplyFlow(t *testing.T) {
	svc, db := setupTicketServiceTest(t)
	user := createTicketTestUser(t, db, "flow@example.com")
	stranger := createTicketTestUser(t, db, "flow-other@example.com")

	ticket, err := svc.Open(OpenTicketInput{
		UserID:  user.ID,
		Subject: "Billing question",
		Body:    "Was I charged twice?",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}

	if _, err := svc.UserReply(ticket.ID, stranger.ID, "hello"); !errors.Is(err, ErrTicketForbidden) {
		t.Fatalf("expected ErrTicketForbidden, got %v", err)
	}

	answered, err := svc.AdminReply(ticket.ID, 1, "Only one charge on our side.")
	if err != nil {
		t.Fatalf("admin reply failed: %v", err)
	}
	if answered.Status != constants.TicketStatusAnswered {
		t.Fatalf("expected answered after admin reply, got %s", answered.Status)
	}

	reopened, err := svc.UserReply(ticket.ID, user.ID, "I still see two charges.")
	if err != nil {
		t.Fatalf("user reply failed: %v", err)
	}
	if reopened.Status != constants.TicketStatusOpen {
		t.Fatalf("expected reopened after user reply, got %s", reopened.Status)
	}
	if len(reopened.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(reopened.Messages))
	}
}

func TestTicketCloseRules(t *testing.T) {
	svc, db := setupTicketServiceTest(t)
	user := createTicketTestUser(t, db, "close@example.com")
	stranger := createTicketTestUser(t, db, "close-other@example.com")

	ticket, err := svc.Open(OpenTicketInput{
		UserID:  user.ID,
		Subject: "Close me",
		Body:    "Resolved already.",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}

	if err := svc.Close(ticket.ID, stranger.ID); !errors.Is(err, ErrTicketForbidden) {
		t.Fatalf("expected ErrTicketForbidden, got %v", err)
	}
	// userID 0 is the admin bypass.
	if err := svc.Close(ticket.ID, 0); err != nil {
		t.Fatalf("admin close failed: %v", err)
	}
	// Closing twice is a no-op.
	if err := svc.Close(ticket.ID, user.ID); err != nil {
		t.Fatalf("re-close must be a no-op, got %v", err)
	}

	if _, err := svc.UserReply(ticket.ID, user.ID, "one more thing"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed, got %v", err)
	}
	if _, err := svc.AdminReply(ticket.ID, 1, "noted"); !errors.Is(err, ErrTicketClosed) {
		t.Fatalf("expected ErrTicketClosed for admin reply too, got %v", err)
	}
}

func TestTicketGetOwnership(t *testing.T) {
	svc, db := setupTicketServiceTest(t)
	user := createTicketTestUser(t, db, "get@example.com")
	stranger := createTicketTestUser(t, db, "get-other@example.com")

	ticket, err := svc.Open(OpenTicketInput{
		UserID:  user.ID,
		Subject: "Mine",
		Body:    "Private thread.",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}

	if _, err := svc.Get(ticket.ID, stranger.ID); !errors.Is(err, ErrTicketForbidden) {
		t.Fatalf("expected ErrTicketForbidden, got %v", err)
	}
	if _, err := svc.Get(ticket.ID, 0); err != nil {
		t.Fatalf("admin get failed: %v", err)
	}
	if _, err := svc.Get(ticket.ID+100, user.ID); !errors.Is(err, ErrTicketNotFound) {
		t.Fatalf("expected ErrTicketNotFound, got %v", err)
	}
}

func TestTicketAssignAndOwnerEmail(t *testing.T) {
	svc, db := setupTicketServiceTest(t)
	user := createTicketTestUser(t, db, "assign@example.com")

	ticket, err := svc.Open(OpenTicketInput{
		UserID:  user.ID,
		Subject: "Assign me",
		Body:    "Needs a human.",
	})
	if err != nil {
		t.Fatalf("open ticket failed: %v", err)
	}

	if err := svc.Assign(ticket.ID, 7); err != nil {
		t.Fatalf("assign failed: %v", err)
	}
	reloaded, err := svc.Get(ticket.ID, 0)
	if err != nil {
		t.Fatalf("get ticket failed: %v", err)
	}
	if reloaded.AssignedAdminID == nil || *reloaded.AssignedAdminID != 7 {
		t.Fatalf("expected assigned admin 7, got %+v", reloaded.AssignedAdminID)
	}

	email, subject, err := svc.OwnerEmail(ticket.ID)
	if err != nil {
		t.Fatalf("owner email failed: %v", err)
	}
	if email != user.Email || subject != "Assign me" {
		t.Fatalf("unexpected owner email %s / subject %s", email, subject)
	}
}
