package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/sahilchouksey/smart-campus-api/model"
	"gorm.io/gorm"
)

// PlacementService maintains placement records. Only admins write them.
type PlacementService struct {
	db       *gorm.DB
	notifier Notifier
}

// NewPlacementService creates a new placement service
func NewPlacementService(db *gorm.DB, notifier Notifier) *PlacementService {
	return &PlacementService{db: db, notifier: notifier}
}

// PlacementInput is the writable part of a placement. Nil pointers are left unchanged on update.
type PlacementInput struct {
	StudentID  *uint
	Company    *string
	Role       *string
	PackageLPA *float64
	Status     *model.PlacementStatus
	Notes      *string
}

// List returns all placements for admins and the caller's own for students
func (s *PlacementService) List(ctx context.Context, actor Actor, status model.PlacementStatus) ([]model.Placement, error) {
	query := s.db.WithContext(ctx).Preload("Student")
	switch {
	case actor.IsAdmin():
	case actor.IsStudent():
		query = query.Where("student_id = ?", actor.ID)
	default:
		return nil, ErrForbidden
	}
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var placements []model.Placement
	if err := query.Order("updated_at DESC").Order("id DESC").Find(&placements).Error; err != nil {
		return nil, storeError("list placements", err, nil)
	}
	return placements, nil
}

// Create records a placement for a student
func (s *PlacementService) Create(ctx context.Context, actor Actor, in PlacementInput) (*model.Placement, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	if in.StudentID == nil || in.Company == nil || in.Role == nil {
		return nil, Validationf("student_id, company and role are required")
	}

	var student model.User
	if err := s.db.WithContext(ctx).First(&student, *in.StudentID).Error; err != nil {
		return nil, storeError("load student", err, ErrUserNotFound)
	}
	if !student.IsStudent() {
		return nil, Validationf("placements can only be recorded for students")
	}

	p := model.Placement{StudentID: student.ID, Status: model.PlacementApplied}
	applyPlacementInput(&p, in)
	if err := validatePlacement(&p); err != nil {
		return nil, err
	}
	if err := s.db.WithContext(ctx).Create(&p).Error; err != nil {
		return nil, storeError("create placement", err, nil)
	}
	p.Student = &student

	s.notifyStatus(ctx, &p)
	return &p, nil
}

// Update edits a placement. A status change notifies the student.
func (s *PlacementService) Update(ctx context.Context, actor Actor, id uint, in PlacementInput) (*model.Placement, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	var p model.Placement
	if err := s.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, storeError("load placement", err, ErrPlacementNotFound)
	}
	if in.StudentID != nil && *in.StudentID != p.StudentID {
		return nil, Validationf("a placement cannot be moved to another student")
	}

	oldStatus := p.Status
	applyPlacementInput(&p, in)
	if err := validatePlacement(&p); err != nil {
		return nil, err
	}
	err := s.db.WithContext(ctx).Model(&model.Placement{}).Where("id = ?", id).Updates(map[string]interface{}{
		"company":     p.Company,
		"role":        p.Role,
		"package_lpa": p.PackageLPA,
		"status":      p.Status,
		"notes":       p.Notes,
	}).Error
	if err != nil {
		return nil, storeError("update placement", err, nil)
	}
	if err := s.db.WithContext(ctx).Preload("Student").First(&p, id).Error; err != nil {
		return nil, storeError("reload placement", err, ErrPlacementNotFound)
	}

	if p.Status != oldStatus {
		s.notifyStatus(ctx, &p)
	}
	return &p, nil
}

// Delete removes a placement
func (s *PlacementService) Delete(ctx context.Context, actor Actor, id uint) error {
	if !actor.IsAdmin() {
		return ErrForbidden
	}
	res := s.db.WithContext(ctx).Delete(&model.Placement{}, id)
	if res.Error != nil {
		return storeError("delete placement", res.Error, nil)
	}
	if res.RowsAffected == 0 {
		return ErrPlacementNotFound
	}
	return nil
}

func (s *PlacementService) notifyStatus(ctx context.Context, p *model.Placement) {
	dispatch(ctx, s.notifier, []uint{p.StudentID}, NotifyRequest{
		Title:    fmt.Sprintf("Placement update: %s", p.Company),
		Message:  fmt.Sprintf("Your application for %s at %s is now %s.", p.Role, p.Company, p.Status),
		Type:     model.NotificationTypePlacement,
		Metadata: map[string]interface{}{"placement_id": p.ID, "status": p.Status},
	})
}

func applyPlacementInput(p *model.Placement, in PlacementInput) {
	if in.Company != nil {
		p.Company = strings.TrimSpace(*in.Company)
	}
	if in.Role != nil {
		p.Role = strings.TrimSpace(*in.Role)
	}
	if in.PackageLPA != nil {
		p.PackageLPA = *in.PackageLPA
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
	if in.Notes != nil {
		p.Notes = *in.Notes
	}
}

func validatePlacement(p *model.Placement) error {
	switch {
	case p.Company == "" || p.Role == "":
		return Validationf("company and role are required")
	case p.PackageLPA < 0:
		return Validationf("package_lpa cannot be negative")
	case !p.Status.Valid():
		return Validationf("status %q is not a valid placement status", p.Status)
	}
	return nil
}
