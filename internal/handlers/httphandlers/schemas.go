package httphandlers

type ConfigResponse struct {
	Version string
	Config  interface{}
}

type Resource struct {
	Self string
}

type Campaign struct {
	Resource

	ID                 string
	Title              string
	Owner              string
	Goal               string
	TotalRaised        string
	CustodyBalance     string
	Phase              string
	Finalized          bool
	CreatedAt          string
	Deadline           string
	Contributors       int
	MilestoneCount     int
	MilestonesReleased int
	Milestones         []Milestone `json:",omitempty"`
}

type Milestone struct {
	Index          int
	Title          string
	Amount         string
	Released       bool
	VotingPhase    string
	VotingDeadline *string
	YesWeight      string
	NoWeight       string
	Voters         int
	Round          int
}

type Contribution struct {
	CampaignID string
	Address    string
	Amount     string
}

type Notification struct {
	ID             string
	CampaignID     string
	Kind           string
	Actor          string
	Amount         *string
	MilestoneIndex *int
	Support        bool
	Outcome        string `json:",omitempty"`
	Timestamp      string
}

// Requests. Amounts are base-10 integers in the smallest currency unit

type CallerHeader struct {
	Address string `header:"X-Caller-Address" binding:"required,eth_addr"`
}

type CreateCampaignRequest struct {
	Title           string             `binding:"required,max=256"`
	Goal            string             `binding:"required,numeric"`
	DurationSeconds int64              `binding:"required,gt=0"`
	Milestones      []MilestoneRequest `binding:"required,min=1,dive"`
}

type MilestoneRequest struct {
	Title  string `binding:"required,max=256"`
	Amount string `binding:"required,numeric"`
}

type AmountRequest struct {
	Amount string `binding:"required,numeric"`
}

// PledgeRequest names the transaction that moved the pledged value into custody,
// required when custody is on chain
type PledgeRequest struct {
	Amount string `binding:"required,numeric"`
	TxHash string `binding:"omitempty,hexadecimal,len=66"`
}

type StartVoteRequest struct {
	DurationSeconds int64 `binding:"required,gt=0"`
}

type VoteRequest struct {
	Support *bool `binding:"required"`
}
