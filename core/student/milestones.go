package student

// MilestoneKey is the canonical identifier of a programme checkpoint. The sheet's
// column headers are derived from the milestone label, never from the key.
type MilestoneKey string

const (
	MilestoneProposalDefense MilestoneKey = "PROPOSAL_DEFENSE"
	MilestoneEthicsApproval  MilestoneKey = "ETHICS_APPROVAL"
	MilestoneDataCollection  MilestoneKey = "DATA_COLLECTION"
	MilestoneSeminar         MilestoneKey = "SEMINAR"
	MilestoneThesisSubmitted MilestoneKey = "THESIS_SUBMISSION"
	MilestoneVivaVoce        MilestoneKey = "VIVA_VOCE"
	MilestoneFinalSubmission MilestoneKey = "FINAL_SUBMISSION"
)

type (
	// MilestoneDefinition maps a canonical milestone to the tracking sheet's column
	// headers and carries the plan's month offset used to derive an expected date
	// when the sheet has none. Immutable for the process lifetime.
	MilestoneDefinition struct {
		Key                 MilestoneKey `json:"key"`
		Label               string       `json:"label"`
		ExpectedColumn      string       `json:"-"`
		ActualColumn        string       `json:"-"`
		DelaySentColumn     string       `json:"-"`
		DelaySentDateColumn string       `json:"-"`
		OffsetMonths        int          `json:"offset_months"`
	}

	// Plan is the ordered milestone set of one programme variant. The masters and
	// doctoral plans differ only in duration and month offsets.
	Plan struct {
		Name           string
		DurationMonths int
		Milestones     []MilestoneDefinition
	}
)

var milestoneLabels = []struct {
	key   MilestoneKey
	label string
}{
	{MilestoneProposalDefense, "Proposal Defense Endorsed"},
	{MilestoneEthicsApproval, "Ethics Approval Obtained"},
	{MilestoneDataCollection, "Data Collection Completed"},
	{MilestoneSeminar, "Research Seminar Presented"},
	{MilestoneThesisSubmitted, "Thesis Submitted for Examination"},
	{MilestoneVivaVoce, "Viva Voce Completed"},
	{MilestoneFinalSubmission, "Final Thesis Submission Endorsed"},
}

var (
	mastersOffsets = map[MilestoneKey]int{
		MilestoneProposalDefense: 6,
		MilestoneEthicsApproval:  9,
		MilestoneDataCollection:  16,
		MilestoneSeminar:         22,
		MilestoneThesisSubmitted: 30,
		MilestoneVivaVoce:        33,
		MilestoneFinalSubmission: 36,
	}
	doctoralOffsets = map[MilestoneKey]int{
		MilestoneProposalDefense: 6,
		MilestoneEthicsApproval:  10,
		MilestoneDataCollection:  20,
		MilestoneSeminar:         28,
		MilestoneThesisSubmitted: 36,
		MilestoneVivaVoce:        40,
		MilestoneFinalSubmission: 42,
	}

	MastersPlan  = newPlan("Masters (36-month)", 36, mastersOffsets)
	DoctoralPlan = newPlan("Doctoral (42-month)", 42, doctoralOffsets)
)

func newPlan(name string, duration int, offsets map[MilestoneKey]int) Plan {
	defs := make([]MilestoneDefinition, 0, len(milestoneLabels))
	for _, m := range milestoneLabels {
		defs = append(defs, MilestoneDefinition{
			Key:                 m.key,
			Label:               m.label,
			ExpectedColumn:      m.label + " - Expected",
			ActualColumn:        m.label + " - Actual",
			DelaySentColumn:     m.label + " - Delay Notified",
			DelaySentDateColumn: m.label + " - Delay Notified Date",
			OffsetMonths:        offsets[m.key],
		})
	}
	return Plan{Name: name, DurationMonths: duration, Milestones: defs}
}

// Milestone looks up a definition by canonical key.
func (p Plan) Milestone(key MilestoneKey) (MilestoneDefinition, bool) {
	for _, def := range p.Milestones {
		if def.Key == key {
			return def, true
		}
	}
	return MilestoneDefinition{}, false
}

// PlanFor selects the active plan for a student from their programme name.
func PlanFor(rec Record) Plan {
	if rec.IsDoctoral() {
		return DoctoralPlan
	}
	return MastersPlan
}
