package employees

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/hrdesk/hrdesk/internal/departments"
	"github.com/hrdesk/hrdesk/internal/roles"
	"github.com/hrdesk/hrdesk/internal/shared"
	"github.com/hrdesk/hrdesk/internal/users"
)

// Leave statuses.
const (
	LeavePending   = "Pending"
	LeaveApproved  = "Approved"
	LeaveCancelled = "Cancelled"
)

// Employee links a user account to a department.
type Employee struct {
	ID           int64
	UserID       uuid.UUID
	DepartmentID *int64
	Manager      bool
	HireDate     *shared.Date
	User         users.User
}

// OwnerUserID makes an employee record owned by its user.
func (e Employee) OwnerUserID() uuid.UUID {
	return e.UserID
}

// Salary is one pay period record. Updates append new rows so the history
// is preserved.
type Salary struct {
	ID         int64
	EmployeeID int64
	PayRate    PayRate
	PayPeriod  string
	StartDate  *shared.Date
	EndDate    *shared.Date
	Employee   EmployeeSummary
}

// EmployeeOwnerUserID returns the user owning the salary's employee.
func (s Salary) EmployeeOwnerUserID() uuid.UUID {
	return s.Employee.User.ID
}

// Leave is a leave request.
type Leave struct {
	ID         int64
	EmployeeID int64
	LeaveType  string
	StartDate  *shared.Date
	EndDate    *shared.Date
	Reason     string
	Status     string
	OwnerID    uuid.UUID
}

// EmployeeOwnerUserID returns the user owning the leave's employee.
func (l Leave) EmployeeOwnerUserID() uuid.UUID {
	return l.OwnerID
}

// PayRate is a non-negative decimal with two fraction digits, kept as text
// so no precision is lost. JSON numbers and strings are both accepted.
type PayRate string

// ParsePayRate normalizes s to two fraction digits.
func ParsePayRate(s string) (PayRate, error) {
	s = strings.TrimSpace(s)
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || s == "" {
		return "", shared.NewValidationError("pay_rate: A valid number is required.")
	}
	if f < 0 {
		return "", shared.NewValidationError("pay_rate: Ensure this value is greater than or equal to 0.")
	}
	if f >= 1e8 {
		return "", shared.NewValidationError("pay_rate: Ensure that there are no more than 10 digits in total.")
	}
	return PayRate(strconv.FormatFloat(f, 'f', 2, 64)), nil
}

// UnmarshalJSON accepts 5000, 5000.5 or "5000.50".
func (p *PayRate) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	parsed, err := ParsePayRate(string(bytes.Trim(data, `"`)))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func (p PayRate) String() string {
	return string(p)
}

// EmployeeSummary identifies an employee inside salary payloads.
type EmployeeSummary struct {
	ID   int64       `json:"id"`
	User UserSummary `json:"user"`
}

// UserSummary is the short form of a user.
type UserSummary struct {
	ID        uuid.UUID `json:"id"`
	Username  string    `json:"username"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

// View is the detailed JSON shape of an employee.
type View struct {
	ID            int64             `json:"id"`
	User          users.View        `json:"user"`
	Department    *departments.View `json:"department"`
	HireDate      *shared.Date      `json:"hire_date"`
	Manager       bool              `json:"manager"`
	CurrentSalary *SalaryView       `json:"current_salary,omitempty"`
}

// SalaryView is the JSON shape of a salary.
type SalaryView struct {
	ID         int64           `json:"id"`
	EmployeeID int64           `json:"employee_id"`
	PayRate    string          `json:"pay_rate"`
	PayPeriod  string          `json:"pay_period"`
	StartDate  *shared.Date    `json:"start_date"`
	EndDate    *shared.Date    `json:"end_date"`
	Employee   EmployeeSummary `json:"employee"`
}

// View renders the public representation.
func (s Salary) View() SalaryView {
	return SalaryView{
		ID:         s.ID,
		EmployeeID: s.EmployeeID,
		PayRate:    s.PayRate.String(),
		PayPeriod:  s.PayPeriod,
		StartDate:  s.StartDate,
		EndDate:    s.EndDate,
		Employee:   s.Employee,
	}
}

// LeaveView is the JSON shape of a leave request.
type LeaveView struct {
	ID         int64        `json:"id"`
	EmployeeID int64        `json:"employee"`
	LeaveType  string       `json:"leave_type"`
	StartDate  *shared.Date `json:"start_date"`
	EndDate    *shared.Date `json:"end_date"`
	Reason     string       `json:"reason"`
	Status     string       `json:"status"`
}

// View renders the public representation.
func (l Leave) View() LeaveView {
	return LeaveView{
		ID:         l.ID,
		EmployeeID: l.EmployeeID,
		LeaveType:  l.LeaveType,
		StartDate:  l.StartDate,
		EndDate:    l.EndDate,
		Reason:     l.Reason,
		Status:     l.Status,
	}
}

// SalaryFields are the salary values supplied with a new employee.
type SalaryFields struct {
	PayRate   PayRate      `json:"pay_rate" validate:"required"`
	PayPeriod string       `json:"pay_period" validate:"max=50"`
	StartDate *shared.Date `json:"start_date"`
	EndDate   *shared.Date `json:"end_date"`
}

// CreateInput creates an employee together with its user account, and
// optionally a new role and a first salary, in one transaction.
type CreateInput struct {
	User         users.CreateInput `json:"user"`
	DepartmentID int64             `json:"department" validate:"required,gt=0"`
	HireDate     *shared.Date      `json:"hire_date"`
	Manager      bool              `json:"manager"`
	Role         *roles.Input      `json:"role"`
	Salary       *SalaryFields     `json:"salary"`
}

// UpdateInput is a partial employee update.
type UpdateInput struct {
	User         *users.UpdateInput `json:"user"`
	DepartmentID *int64             `json:"department" validate:"omitempty,gt=0"`
	HireDate     *shared.Date       `json:"hire_date"`
	Manager      *bool              `json:"manager"`
	Role         *roles.Patch       `json:"role"`
}

// CreateSalaryInput adds a salary row to an employee.
type CreateSalaryInput struct {
	EmployeeID int64 `json:"employee" validate:"required,gt=0"`
	SalaryFields
}

// SalaryPatch is a partial salary update.
type SalaryPatch struct {
	PayRate   *PayRate     `json:"pay_rate"`
	PayPeriod *string      `json:"pay_period" validate:"omitempty,max=50"`
	StartDate *shared.Date `json:"start_date"`
	EndDate   *shared.Date `json:"end_date"`
}

// CreateLeaveInput files a leave request.
type CreateLeaveInput struct {
	EmployeeID int64        `json:"employee" validate:"required,gt=0"`
	LeaveType  string       `json:"leave_type" validate:"max=100"`
	StartDate  *shared.Date `json:"start_date"`
	EndDate    *shared.Date `json:"end_date"`
	Reason     string       `json:"reason"`
	Status     string       `json:"status" validate:"omitempty,oneof=Pending Approved Cancelled"`
}

// LeavePatch changes the status of a leave request. Other fields are
// immutable once filed.
type LeavePatch struct {
	Status *string `json:"status" validate:"omitempty,oneof=Pending Approved Cancelled"`
}

// ListFilters narrows employee listings.
type ListFilters struct {
	Query        string
	DepartmentID *int64
	EmployeeID   *int64
	Page         shared.PageRequest
}

// RecordFilters narrows salary and leave listings.
type RecordFilters struct {
	Query      string
	EmployeeID *int64
	Page       shared.PageRequest
}

func checkDates(start, end *shared.Date) error {
	if start != nil && end != nil && end.Before(start.Time) {
		return shared.NewValidationError(fmt.Sprintf("end_date: End date %s is before start date %s.", end, start))
	}
	return nil
}
