package services

import (
	"context"
	"errors"
	"time"

	"github.com/cnichols1734/belvieu-digital/internal/models/db_models"
	"github.com/cnichols1734/belvieu-digital/pkg/utils"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AttachmentInput describes an already-uploaded file being linked to a
// message. Upload itself happens before the service is called.
type AttachmentInput struct {
	Filename    string
	StoragePath string
	ContentType string
	FileSize    int64
	PublicURL   string
}

// TicketThread is a ticket plus its visible message history.
type TicketThread struct {
	Ticket   db_models.Ticket
	Messages []db_models.TicketMessage
}

type TicketListFilter struct {
	Status   *db_models.TicketStatus
	Category *db_models.TicketCategory
}

// UsageStat is a workspace's consumed content-update quota for the
// current calendar month. Limit nil means unlimited.
type UsageStat struct {
	Used  int64
	Limit *int
}

// Workspace-scoped methods take the caller's workspace id and treat a
// ticket outside it as not found, so a guessed id from another tenant is
// indistinguishable from a missing one. Admin callers pass AdminScope.
var AdminScope = uuid.Nil

type TicketServiceInterface interface {
	Create(ctx context.Context, workspaceID, siteID, authorUserID uuid.UUID, subject, description string, category *string) (*db_models.Ticket, error)
	AddMessage(ctx context.Context, scope uuid.UUID, ticketID, authorUserID uuid.UUID, message string, isInternal, actorIsAdmin bool, attachments []AttachmentInput) (*db_models.TicketMessage, error)
	UpdateStatus(ctx context.Context, scope uuid.UUID, ticketID, actorUserID uuid.UUID, newStatus db_models.TicketStatus) (*db_models.Ticket, error)
	Assign(ctx context.Context, ticketID uuid.UUID, actorUserID uuid.UUID, assigneeID *uuid.UUID) error
	UpdateCategory(ctx context.Context, scope uuid.UUID, ticketID uuid.UUID, category *string) error
	GetThread(ctx context.Context, scope uuid.UUID, ticketID uuid.UUID, includeInternal bool) (*TicketThread, error)
	ListTickets(ctx context.Context, workspaceID uuid.UUID, filter TicketListFilter) ([]db_models.Ticket, error)
	ListAllTickets(ctx context.Context, filter TicketListFilter) ([]db_models.Ticket, error)
	MonthlyUsage(ctx context.Context, workspaceID uuid.UUID, now time.Time) (UsageStat, error)
	MonthlyUsageBulk(ctx context.Context, now time.Time) (map[uuid.UUID]UsageStat, error)
}

type ticketService struct {
	db *gorm.DB
}

func NewTicketService(db *gorm.DB) TicketServiceInterface {
	return &ticketService{db: db}
}

func canTransition(from, to db_models.TicketStatus) bool {
	for _, allowed := range db_models.TicketTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

func validCategory(raw string) (db_models.TicketCategory, bool) {
	for _, c := range db_models.TicketCategories {
		if string(c) == raw {
			return c, true
		}
	}
	return "", false
}

// monthStart truncates to the first instant of the calendar month in UTC.
// Usage counting is calendar-month based, not rolling 30 days.
func monthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func (t *ticketService) findScoped(tx *gorm.DB, scope uuid.UUID, ticketID uuid.UUID) (*db_models.Ticket, error) {
	q := tx.Where("id = ?", ticketID)
	if scope != AdminScope {
		q = q.Where("workspace_id = ?", scope)
	}
	var ticket db_models.Ticket
	if err := q.First(&ticket).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrTicketNotFound
		}
		return nil, err
	}
	return &ticket, nil
}

func (t *ticketService) Create(ctx context.Context, workspaceID, siteID, authorUserID uuid.UUID, subject, description string, category *string) (*db_models.Ticket, error) {
	subject = utils.StripMarkup(subject)
	description = utils.StripMarkup(description)
	if subject == "" {
		return nil, utils.Validationf("subject is required")
	}
	if description == "" {
		return nil, utils.Validationf("description is required")
	}

	var cat *db_models.TicketCategory
	if category != nil && *category != "" {
		parsed, ok := validCategory(*category)
		if !ok {
			return nil, utils.ErrInvalidCategory
		}
		cat = &parsed
	}

	ticket := &db_models.Ticket{
		WorkspaceID:    workspaceID,
		SiteID:         siteID,
		AuthorUserID:   authorUserID,
		Subject:        subject,
		Description:    description,
		Category:       cat,
		Status:         db_models.TicketOpen,
		Priority:       db_models.PriorityNormal,
		LastActivityAt: time.Now().Unix(),
	}

	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(ticket).Error; err != nil {
			return err
		}
		recordAudit(tx, &workspaceID, &authorUserID, "ticket.created", map[string]any{
			"ticket_id": ticket.ID.String(),
			"subject":   ticket.Subject,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (t *ticketService) AddMessage(ctx context.Context, scope uuid.UUID, ticketID, authorUserID uuid.UUID, message string, isInternal, actorIsAdmin bool, attachments []AttachmentInput) (*db_models.TicketMessage, error) {
	message = utils.StripMarkup(message)
	if message == "" {
		if len(attachments) == 0 {
			return nil, utils.Validationf("message body is required")
		}
		// Attachment-only messages get a placeholder body so the thread
		// stays readable in text-only views.
		message = "(attachment)"
	}
	if isInternal && !actorIsAdmin {
		return nil, utils.Validationf("internal notes are restricted to staff")
	}

	var created *db_models.TicketMessage
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := t.findScoped(tx, scope, ticketID)
		if err != nil {
			return err
		}

		msg := &db_models.TicketMessage{
			TicketID:     ticket.ID,
			AuthorUserID: authorUserID,
			Message:      message,
			IsInternal:   isInternal,
		}
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		for _, a := range attachments {
			att := db_models.TicketAttachment{
				MessageID:   msg.ID,
				TicketID:    ticket.ID,
				Filename:    a.Filename,
				StoragePath: a.StoragePath,
				ContentType: a.ContentType,
				FileSize:    a.FileSize,
				PublicURL:   a.PublicURL,
			}
			if err := tx.Create(&att).Error; err != nil {
				return err
			}
			msg.Attachments = append(msg.Attachments, att)
		}

		updates := map[string]any{"last_activity_at": time.Now().Unix()}
		// A client reply while we wait on the client pulls the ticket back
		// into in_progress. Internal notes and staff replies never move it.
		if ticket.Status == db_models.TicketWaitingOnClient && !isInternal && !actorIsAdmin {
			updates["status"] = string(db_models.TicketInProgress)
		}
		if err := tx.Model(&db_models.Ticket{}).
			Where("id = ?", ticket.ID).
			Updates(updates).Error; err != nil {
			return err
		}

		recordAudit(tx, &ticket.WorkspaceID, &authorUserID, "ticket.message_added", map[string]any{
			"ticket_id":   ticket.ID.String(),
			"is_internal": isInternal,
			"attachments": len(attachments),
		})
		created = msg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (t *ticketService) UpdateStatus(ctx context.Context, scope uuid.UUID, ticketID, actorUserID uuid.UUID, newStatus db_models.TicketStatus) (*db_models.Ticket, error) {
	if _, ok := db_models.TicketTransitions[newStatus]; !ok {
		return nil, utils.Validationf("unknown ticket status %q", string(newStatus))
	}

	var result *db_models.Ticket
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := t.findScoped(tx, scope, ticketID)
		if err != nil {
			return err
		}

		// Setting the current status again is a success with no writes.
		if ticket.Status == newStatus {
			result = ticket
			return nil
		}
		if !canTransition(ticket.Status, newStatus) {
			allowed := make([]string, 0, len(db_models.TicketTransitions[ticket.Status]))
			for _, a := range db_models.TicketTransitions[ticket.Status] {
				allowed = append(allowed, string(a))
			}
			return utils.NewInvalidTransition(string(ticket.Status), string(newStatus), allowed)
		}

		if err := tx.Model(&db_models.Ticket{}).
			Where("id = ?", ticket.ID).
			Updates(map[string]any{
				"status":           string(newStatus),
				"last_activity_at": time.Now().Unix(),
			}).Error; err != nil {
			return err
		}
		recordAudit(tx, &ticket.WorkspaceID, &actorUserID, "ticket.status_changed", map[string]any{
			"ticket_id": ticket.ID.String(),
			"from":      string(ticket.Status),
			"to":        string(newStatus),
		})
		ticket.Status = newStatus
		result = ticket
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Assign sets or clears the assignee. Only admin users can be assignees.
func (t *ticketService) Assign(ctx context.Context, ticketID uuid.UUID, actorUserID uuid.UUID, assigneeID *uuid.UUID) error {
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := t.findScoped(tx, AdminScope, ticketID)
		if err != nil {
			return err
		}

		if assigneeID != nil {
			var assignee db_models.User
			err := tx.Where("id = ?", *assigneeID).First(&assignee).Error
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return utils.ErrInvalidAssignee
			}
			if err != nil {
				return err
			}
			if !assignee.IsAdmin {
				return utils.ErrInvalidAssignee
			}
		}

		if err := tx.Model(&db_models.Ticket{}).
			Where("id = ?", ticket.ID).
			Update("assigned_to_user_id", assigneeID).Error; err != nil {
			return err
		}
		meta := map[string]any{"ticket_id": ticket.ID.String()}
		if assigneeID != nil {
			meta["assignee_id"] = assigneeID.String()
		}
		recordAudit(tx, &ticket.WorkspaceID, &actorUserID, "ticket.assigned", meta)
		return nil
	})
}

func (t *ticketService) UpdateCategory(ctx context.Context, scope uuid.UUID, ticketID uuid.UUID, category *string) error {
	var cat *db_models.TicketCategory
	if category != nil && *category != "" {
		parsed, ok := validCategory(*category)
		if !ok {
			return utils.ErrInvalidCategory
		}
		cat = &parsed
	}
	return t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ticket, err := t.findScoped(tx, scope, ticketID)
		if err != nil {
			return err
		}
		if err := tx.Model(&db_models.Ticket{}).
			Where("id = ?", ticket.ID).
			Update("category", cat).Error; err != nil {
			return err
		}
		meta := map[string]any{"ticket_id": ticket.ID.String()}
		if cat != nil {
			meta["category"] = string(*cat)
		}
		recordAudit(tx, &ticket.WorkspaceID, nil, "ticket.category_changed", meta)
		return nil
	})
}

func (t *ticketService) GetThread(ctx context.Context, scope uuid.UUID, ticketID uuid.UUID, includeInternal bool) (*TicketThread, error) {
	db := t.db.WithContext(ctx)
	ticket, err := t.findScoped(db, scope, ticketID)
	if err != nil {
		return nil, err
	}

	q := db.Preload("Attachments").
		Where("ticket_id = ?", ticket.ID).
		Order("created_at ASC")
	if !includeInternal {
		q = q.Where("is_internal = ?", false)
	}
	var messages []db_models.TicketMessage
	if err := q.Find(&messages).Error; err != nil {
		return nil, err
	}
	return &TicketThread{Ticket: *ticket, Messages: messages}, nil
}

func applyTicketFilter(q *gorm.DB, filter TicketListFilter) *gorm.DB {
	if filter.Status != nil {
		q = q.Where("status = ?", string(*filter.Status))
	}
	if filter.Category != nil {
		q = q.Where("category = ?", string(*filter.Category))
	}
	return q
}

func (t *ticketService) ListTickets(ctx context.Context, workspaceID uuid.UUID, filter TicketListFilter) ([]db_models.Ticket, error) {
	var tickets []db_models.Ticket
	q := t.db.WithContext(ctx).Where("workspace_id = ?", workspaceID)
	q = applyTicketFilter(q, filter)
	if err := q.Order("last_activity_at DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

func (t *ticketService) ListAllTickets(ctx context.Context, filter TicketListFilter) ([]db_models.Ticket, error) {
	var tickets []db_models.Ticket
	q := applyTicketFilter(t.db.WithContext(ctx), filter)
	if err := q.Order("last_activity_at DESC").Find(&tickets).Error; err != nil {
		return nil, err
	}
	return tickets, nil
}

// MonthlyUsage counts content updates completed since the start of the
// current calendar month (UTC), paired with the workspace's allowance.
// A ticket counts when it is category content_update, status done, and
// was last touched inside the month window.
func (t *ticketService) MonthlyUsage(ctx context.Context, workspaceID uuid.UUID, now time.Time) (UsageStat, error) {
	var used int64
	err := t.db.WithContext(ctx).Model(&db_models.Ticket{}).
		Where("workspace_id = ? AND category = ? AND status = ? AND updated_at >= ?",
			workspaceID, db_models.CategoryContentUpdate, db_models.TicketDone, monthStart(now).Unix()).
		Count(&used).Error
	if err != nil {
		return UsageStat{}, err
	}

	var settings db_models.WorkspaceSettings
	err = t.db.WithContext(ctx).
		Where("workspace_id = ?", workspaceID).
		First(&settings).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return UsageStat{}, err
	}
	return UsageStat{Used: used, Limit: settings.UpdateAllowance}, nil
}

// MonthlyUsageBulk computes the same stat for every workspace in one
// grouped query instead of N lookups. Feeds the admin usage dashboard,
// so workspaces with zero completed updates are still present.
func (t *ticketService) MonthlyUsageBulk(ctx context.Context, now time.Time) (map[uuid.UUID]UsageStat, error) {
	var allSettings []db_models.WorkspaceSettings
	if err := t.db.WithContext(ctx).Find(&allSettings).Error; err != nil {
		return nil, err
	}
	usage := make(map[uuid.UUID]UsageStat, len(allSettings))
	for _, s := range allSettings {
		usage[s.WorkspaceID] = UsageStat{Limit: s.UpdateAllowance}
	}

	type row struct {
		WorkspaceID uuid.UUID
		Total       int64
	}
	var rows []row
	err := t.db.WithContext(ctx).Model(&db_models.Ticket{}).
		Select("workspace_id, COUNT(*) AS total").
		Where("category = ? AND status = ? AND updated_at >= ?",
			db_models.CategoryContentUpdate, db_models.TicketDone, monthStart(now).Unix()).
		Group("workspace_id").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, r := range rows {
		stat := usage[r.WorkspaceID]
		stat.Used = r.Total
		usage[r.WorkspaceID] = stat
	}
	return usage, nil
}
