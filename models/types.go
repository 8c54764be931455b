package models

import "time"

// Assembly status constants
const (
	AssemblyScheduled  = "SCHEDULED"
	AssemblyInProgress = "IN_PROGRESS"
	AssemblyCompleted  = "COMPLETED"
	AssemblyCancelled  = "CANCELLED"
)

// Vote status constants
const (
	VoteActive    = "ACTIVE"
	VoteCompleted = "COMPLETED"
)

// Minutes status constants
const (
	MinutesDraft   = "DRAFT"
	MinutesSigning = "SIGNING"
	MinutesSigned  = "SIGNED"
)

// Signature status constants
const (
	SignaturePending = "PENDING"
	SignatureSigned  = "SIGNED"
)

// Unit member roles
const (
	MemberOwner    = "owner"
	MemberDelegate = "delegate"
)

// Principal roles
const (
	RoleAdmin    = "admin"
	RoleResident = "resident"
)

// DefaultRequiredQuorum applies when an assembly has no explicit threshold.
const DefaultRequiredQuorum = 50.0

// DefaultVoteOptions are used when a vote is created without options.
var DefaultVoteOptions = []string{"A favor", "En contra", "Abstención"}

// Request types

type CreatePropertyRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

type CreateUnitRequest struct {
	Name        string   `json:"name"`
	Coefficient *float64 `json:"coefficient"`
}

type UpdateCoefficientRequest struct {
	Coefficient *float64 `json:"coefficient"`
}

type CreateUserRequest struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
}

type AddUnitMemberRequest struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type CreateAssemblyRequest struct {
	PropertyID     string     `json:"property_id"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	Location       string     `json:"location"`
	ScheduledDate  *time.Time `json:"scheduled_date"`
	RequiredQuorum *float64   `json:"required_quorum"`
}

type UpdateAssemblyRequest struct {
	Title          *string    `json:"title"`
	Description    *string    `json:"description"`
	Location       *string    `json:"location"`
	ScheduledDate  *time.Time `json:"scheduled_date"`
	RequiredQuorum *float64   `json:"required_quorum"`
	Conclusions    *string    `json:"conclusions"`
}

// UserID is honoured only for admins registering on behalf of a resident.
type RegisterAttendanceRequest struct {
	UnitID string `json:"unit_id"`
	UserID string `json:"user_id,omitempty"`
}

type CreateVoteRequest struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Options     []string `json:"options"`
	Weighted    *bool    `json:"weighted"`
}

type CastVoteRequest struct {
	UnitID string `json:"unit_id"`
	Option string `json:"option"`
}

// Response types

type CreatedResponse struct {
	ID string `json:"id"`
}

type CastVoteResponse struct {
	Ballot   Ballot `json:"ballot"`
	IsUpdate bool   `json:"is_update"`
	Message  string `json:"message"`
}

type AttendanceResponse struct {
	Attendance Attendance   `json:"attendance"`
	Quorum     QuorumResult `json:"quorum"`
}

type EndVoteResponse struct {
	Vote    Vote        `json:"vote"`
	Results VoteResults `json:"results"`
}

// Domain types

type Property struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	Name      string    `json:"name"`
	Address   string    `json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// Coefficient is the unit's ownership share; nil when not yet assigned.
type Unit struct {
	ID          string    `json:"id"`
	TenantID    string    `json:"tenant_id"`
	PropertyID  string    `json:"property_id"`
	Name        string    `json:"name"`
	Coefficient *float64  `json:"coefficient"`
	CreatedAt   time.Time `json:"created_at"`
}

type User struct {
	ID        string    `json:"id"`
	TenantID  string    `json:"tenant_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}

func (u User) FullName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

type UnitMember struct {
	UnitID string `json:"unit_id"`
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type Assembly struct {
	ID              string     `json:"id"`
	TenantID        string     `json:"tenant_id"`
	PropertyID      string     `json:"property_id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Location        string     `json:"location"`
	Status          string     `json:"status"`
	RequiredQuorum  *float64   `json:"required_quorum,omitempty"`
	ScheduledDate   *time.Time `json:"scheduled_date,omitempty"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`
	QuorumReachedAt *time.Time `json:"quorum_reached_at,omitempty"`
	Conclusions     string     `json:"conclusions"`
	CreatedBy       string     `json:"created_by"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

type Attendance struct {
	ID          string    `json:"id"`
	AssemblyID  string    `json:"assembly_id"`
	UnitID      string    `json:"unit_id"`
	UserID      string    `json:"user_id"`
	IsOwner     bool      `json:"is_owner"`
	IsDelegate  bool      `json:"is_delegate"`
	CheckInTime time.Time `json:"check_in_time"`
	UpdatedAt   time.Time `json:"updated_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
}

// AttendeeDetail is an attendance row joined with user and unit data.
type AttendeeDetail struct {
	Attendance
	UserName    string   `json:"user_name"`
	UnitName    string   `json:"unit_name"`
	Coefficient *float64 `json:"coefficient"`
}

type Vote struct {
	ID          string     `json:"id"`
	AssemblyID  string     `json:"assembly_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Options     []string   `json:"options"`
	Weighted    bool       `json:"weighted"`
	Status      string     `json:"status"`
	StartTime   time.Time  `json:"start_time"`
	EndTime     *time.Time `json:"end_time,omitempty"`
	CreatedBy   string     `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Coefficient is snapshotted when the ballot is first cast.
type Ballot struct {
	ID          string    `json:"id"`
	VoteID      string    `json:"vote_id"`
	UnitID      string    `json:"unit_id"`
	UserID      string    `json:"user_id"`
	Option      string    `json:"option"`
	Coefficient float64   `json:"coefficient"`
	CastAt      time.Time `json:"cast_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	IPHash      *string   `json:"-"` // Never expose in JSON
}

// Result types

type QuorumResult struct {
	AssemblyID          string  `json:"assembly_id"`
	TotalUnits          int     `json:"total_units"`
	PresentUnits        int     `json:"present_units"`
	TotalCoefficients   float64 `json:"total_coefficients"`
	PresentCoefficients float64 `json:"present_coefficients"`
	QuorumPercentage    float64 `json:"quorum_percentage"`
	RequiredQuorum      float64 `json:"required_quorum"`
	QuorumReached       bool    `json:"quorum_reached"`
	Timestamp           string  `json:"timestamp"`
}

type OptionResult struct {
	Option     string  `json:"option"`
	Count      int     `json:"count"`
	Weight     float64 `json:"weight"`
	Percentage float64 `json:"percentage"`
}

type VoteResults struct {
	VoteID      string         `json:"vote_id"`
	Title       string         `json:"title"`
	TotalVotes  int            `json:"total_votes"`
	TotalWeight float64        `json:"total_weight"`
	Options     []OptionResult `json:"options"` // declaration order
	Timestamp   string         `json:"timestamp"`
}

// Option returns the bucket for label.
func (r VoteResults) Option(label string) (OptionResult, bool) {
	for _, o := range r.Options {
		if o.Option == label {
			return o, true
		}
	}
	return OptionResult{}, false
}

// Minutes types

type MinutesAttendee struct {
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	Coefficient float64   `json:"coefficient"`
	CheckInTime time.Time `json:"check_in_time"`
}

type MinutesVote struct {
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Options     []string       `json:"options"`
	Results     []OptionResult `json:"results"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
}

type MinutesDocument struct {
	AssemblyID  string            `json:"assembly_id"`
	Title       string            `json:"title"`
	Date        *time.Time        `json:"date,omitempty"`
	Location    string            `json:"location"`
	Property    string            `json:"property"`
	Quorum      QuorumResult      `json:"quorum"`
	Attendees   []MinutesAttendee `json:"attendees"`
	Votes       []MinutesVote     `json:"votes"`
	Conclusions string            `json:"conclusions"`
	GeneratedAt string            `json:"generated_at"`
}

type Minutes struct {
	ID                  string          `json:"id"`
	AssemblyID          string          `json:"assembly_id"`
	Status              string          `json:"status"`
	GeneratedBy         string          `json:"generated_by"`
	Content             MinutesDocument `json:"content"`
	SignaturesRequired  int             `json:"signatures_required"`
	SignaturesCompleted int             `json:"signatures_completed"`
	CreatedAt           time.Time       `json:"created_at"`
}

// Signature is one signer's slot on a minutes document
type Signature struct {
	ID           string     `json:"id"`
	MinutesID    string     `json:"minutes_id"`
	SignerUserID string     `json:"signer_user_id"`
	SignerName   string     `json:"signer_name"`
	SignerRole   string     `json:"signer_role"`
	Status       string     `json:"status"`
	Digest       *string    `json:"digest,omitempty"`
	SignedAt     *time.Time `json:"signed_at,omitempty"`
	IPHash       *string    `json:"-"`
	UserAgent    string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
}

type SignerRequest struct {
	UserID string `json:"user_id"`
	Name   string `json:"name"` // defaults to the user's full name
	Role   string `json:"role"`
}

type RegisterSignersRequest struct {
	Signers []SignerRequest `json:"signers"`
}

type SignMinutesResponse struct {
	Signature           Signature `json:"signature"`
	MinutesStatus       string    `json:"minutes_status"`
	SignaturesRequired  int       `json:"signatures_required"`
	SignaturesCompleted int       `json:"signatures_completed"`
}

// Realtime types

// Event names, client to server
const (
	EventJoinAssembly       = "joinAssembly"
	EventLeaveAssembly      = "leaveAssembly"
	EventRegisterAttendance = "registerAttendance"
	EventSubmitVote         = "submitVote"
)

// Event names, server to client
const (
	EventQuorumUpdate      = "quorumUpdate"
	EventVoteResultsUpdate = "voteResultsUpdate"
	EventVoteCreated       = "voteCreated"
	EventVoteEnded         = "voteEnded"
	EventAssemblyStarted   = "assemblyStarted"
	EventAssemblyEnded     = "assemblyEnded"
	EventAssemblyCancelled = "assemblyCancelled"
	EventMinutesSigned     = "minutesSigned"
	EventError             = "error"
)

// Event is the envelope for every WebSocket frame in both directions.
type Event struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

type JoinAssemblyMessage struct {
	AssemblyID string `json:"assemblyId"`
}

type RegisterAttendanceMessage struct {
	AssemblyID string `json:"assemblyId"`
	UnitID     string `json:"unitId"`
}

type SubmitVoteMessage struct {
	AssemblyID string `json:"assemblyId,omitempty"`
	VoteID     string `json:"voteId"`
	UnitID     string `json:"unitId"`
	Option     string `json:"option"`
}

type VoteResultsUpdate struct {
	VoteID  string      `json:"voteId"`
	Results VoteResults `json:"results"`
}

type MinutesSignedMessage struct {
	AssemblyID string `json:"assemblyId"`
	MinutesID  string `json:"minutesId"`
	Signers    int    `json:"signers"`
}

type ErrorMessage struct {
	Message string `json:"message"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
