package departments

import (
	"github.com/google/uuid"

	"github.com/hrdesk/hrdesk/internal/shared"
)

// Department groups employees. At most one user manages it.
type Department struct {
	ID          int64
	Name        string
	Description string
	Manager     *Manager
}

// Manager is the summary of the managing user.
type Manager struct {
	UserID    uuid.UUID
	Username  string
	FirstName string
	LastName  string
}

// ManagerView is the JSON shape of a department manager.
type ManagerView struct {
	ID   uuid.UUID       `json:"id"`
	User ManagerUserView `json:"user"`
}

// ManagerUserView is the user part of ManagerView.
type ManagerUserView struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// View is the JSON shape of a department.
type View struct {
	ID          int64        `json:"id"`
	Name        string       `json:"name"`
	Manager     *ManagerView `json:"manager"`
	Description string       `json:"description"`
}

// View renders the public representation.
func (d Department) View() View {
	v := View{ID: d.ID, Name: d.Name, Description: d.Description}
	if d.Manager != nil {
		v.Manager = &ManagerView{
			ID: d.Manager.UserID,
			User: ManagerUserView{
				ID:        d.Manager.UserID,
				Username:  d.Manager.Username,
				FirstName: d.Manager.FirstName,
				LastName:  d.Manager.LastName,
			},
		}
	}
	return v
}

// Input is the payload accepted on create.
type Input struct {
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description" validate:"max=255"`
}

// Patch is a partial update. Nil fields are left untouched.
type Patch struct {
	Name        *string `json:"name" validate:"omitempty,max=255"`
	Description *string `json:"description" validate:"omitempty,max=255"`
}

// ListFilters narrows department listings.
type ListFilters struct {
	Query string
	Page  shared.PageRequest
}
