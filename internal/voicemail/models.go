package voicemail

import "time"

// Template is one voicemail script, selected by attempt number.
// Placeholders use {snake_case} braces and are substituted literally.
//
// Invariant: at most one default, active template per attempt_number; the
// resolver synthesizes a generic script when none exists.
type Template struct {
	ID            string `json:"id" db:"id"`
	ScriptContent string `json:"script_content" db:"script_content"`
	AttemptNumber int    `json:"attempt_number" db:"attempt_number"`
	IsDefault     bool   `json:"is_default" db:"is_default"`
	IsActive      bool   `json:"is_active" db:"is_active"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Variable names recognized across default templates. Unknown placeholders
// are left verbatim so missing data stays visible in output.
const (
	VarFirstName       = "first_name"
	VarVehicleInterest = "vehicle_interest"
	VarSalespersonName = "salesperson_name"
	VarDealershipName  = "dealership_name"
	VarPhoneNumber     = "phone_number"
)
