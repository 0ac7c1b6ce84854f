package models

// CaseSummary is the full read-only picture of one case
type CaseSummary struct {
	Case           Case                 `json:"case"`
	SeverityLabel  string               `json:"severityLabel"`
	Complaint      *ComplaintSubmission `json:"complaint,omitempty"`
	Complainants   []Complainant        `json:"complainants"`
	Witnesses      []SceneWitness       `json:"witnesses"`
	Suspects       []Suspect            `json:"suspects"`
	Submissions    []SuspectSubmission  `json:"submissions"`
	Interrogations []Interrogation      `json:"interrogations"`
	CourtSession   *CourtSession        `json:"courtSession,omitempty"`
	Payments       []BailPayment        `json:"payments"`
	Logs           []CaseLog            `json:"logs"`
	InvolvedUsers  []int64              `json:"involvedUsers"`
	EvidenceCounts map[string]int64     `json:"evidenceCounts"`
}

// GlobalReport aggregates department wide workflow counters
type GlobalReport struct {
	TotalCases           int64                   `json:"totalCases"`
	ActiveCases          int64                   `json:"activeCases"`
	ResolvedCases        int64                   `json:"resolvedCases"`
	CasesByStatus        map[CaseStatus]int64    `json:"casesByStatus"`
	CasesBySeverity      map[string]int64        `json:"casesBySeverity"`
	SuspectsByStatus     map[SuspectStatus]int64 `json:"suspectsByStatus"`
	PendingSubmissions   int64                   `json:"pendingSubmissions"`
	AwaitingCaptain      int64                   `json:"awaitingCaptain"`
	AwaitingChief        int64                   `json:"awaitingChief"`
	PaymentsByStatus     map[PaymentStatus]int64 `json:"paymentsByStatus"`
	TipsByStatus         map[TipStatus]int64     `json:"tipsByStatus"`
	ComplaintsInReview   int64                   `json:"complaintsInReview"`
	ComplaintsNeedRework int64                   `json:"complaintsNeedRework"`
}

// HighAlertEntry is one person wanted long enough to be publicly listed
type HighAlertEntry struct {
	GroupKey    string  `json:"groupKey"`
	NationalID  string  `json:"nationalID"`
	FullName    string  `json:"fullName"`
	PhotoURL    string  `json:"photoURL"`
	SuspectIDs  []int64 `json:"suspectIDs"`
	DaysWanted  int64   `json:"daysWanted"`
	MaxSeverity int     `json:"maxSeverity"`
	Rank        int64   `json:"rank"`
	Reward      int64   `json:"reward"`
}
