package sync

import "time"

// RunType tells how a pass was triggered.
type RunType string

const (
	RunManual RunType = "manual"
	RunAuto   RunType = "auto"
)

// SyncRun is one recorded sync pass.
type SyncRun struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	RunID      string     `gorm:"size:36;index" json:"run_id"`
	StartedAt  time.Time  `gorm:"not null" json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`

	// Window bounds. The local bounds keep their offset as RFC 3339 text.
	WindowFromLocal string    `gorm:"size:40" json:"window_from_local"`
	WindowToLocal   string    `gorm:"size:40" json:"window_to_local"`
	WindowFromUTC   time.Time `json:"window_from_utc"`
	WindowToUTC     time.Time `json:"window_to_utc"`

	OK       bool `gorm:"default:false" json:"ok"`
	Fetched  int  `json:"fetched"`
	Created  int  `json:"created"`
	Updated  int  `json:"updated"`
	Skipped  int  `json:"skipped"`
	Deleted  int  `json:"deleted"`
	Failed   int  `json:"failed"`
	Warnings int  `json:"warnings"`

	Error string `gorm:"type:text" json:"error,omitempty"`

	RunType     RunType `gorm:"size:16;index;default:manual" json:"run_type"`
	InitiatedBy string  `gorm:"size:64" json:"initiated_by,omitempty"`

	Flights []SyncFlightLog `gorm:"foreignKey:SyncRunID;constraint:OnDelete:CASCADE" json:"flights,omitempty"`
}

// SyncFlightLog is the outcome of one flight within a recorded pass.
type SyncFlightLog struct {
	ID        uint `gorm:"primaryKey" json:"id"`
	SyncRunID uint `gorm:"not null;index" json:"sync_run_id"`

	SourceFlightID string     `gorm:"size:32;index" json:"source_flight_id"`
	FlightNo       string     `gorm:"size:16;index" json:"flight_no"`
	Adep           string     `gorm:"size:8;index" json:"adep"`
	Ades           string     `gorm:"size:8;index" json:"ades"`
	EOBT           *time.Time `gorm:"index" json:"eobt,omitempty"`

	Registration string `gorm:"size:16;index" json:"registration,omitempty"`
	AircraftID   int64  `json:"aircraft_id,omitempty"`

	PICName    string `gorm:"size:128" json:"pic_name,omitempty"`
	PICCode    string `gorm:"size:32;index" json:"pic_code,omitempty"`
	PICID      int64  `json:"pic_id,omitempty"`
	FOName     string `gorm:"size:128" json:"fo_name,omitempty"`
	FOCode     string `gorm:"size:32;index" json:"fo_code,omitempty"`
	FOID       int64  `json:"fo_id,omitempty"`
	TICID      int64  `json:"tic_id,omitempty"`
	CabinNames string `gorm:"type:text" json:"cabin_names,omitempty"`
	CabinCodes string `gorm:"type:text" json:"cabin_codes,omitempty"`

	PlanID   int64  `json:"plan_id,omitempty"`
	Result   string `gorm:"size:16;index" json:"result"`
	Reason   string `gorm:"size:256" json:"reason,omitempty"`
	Warnings string `gorm:"type:text" json:"warnings,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}
