package models

// Role tags a suspect with their part in the crime. It is private metadata for
// the responder and the judge, never shown to players.
type Role string

const (
	RoleKiller     Role = "killer"
	RoleAccomplice Role = "accomplice"
	RoleWitness    Role = "witness"
)

// SuspectPersona describes one interrogation target. The role-specific fields
// (Secret, Assistance, Observation) are required depending on Role and are
// validated when the case is loaded.
type SuspectPersona struct {
	ID   string
	Name string
	Role Role
	// Voice shapes how the suspect speaks: tone, mannerisms, emotional state.
	Voice string
	// PublicStory is the alibi the suspect openly repeats.
	PublicStory string
	// Secret is the hidden truth the suspect must never reveal verbatim.
	Secret string
	// Assistance describes what an accomplice helped cover up.
	Assistance string
	// Observation is what a witness saw but is reluctant to state plainly.
	Observation string
	// Redlines are admissions that must never appear in the suspect's replies.
	Redlines []string
}

// PrivateKnowledge returns the role-specific hidden fact the suspect must not
/// reveal: the killer's secret, the accomplice's cover-up, or the witness's
// withheld observation.
func (s *SuspectPersona) PrivateKnowledge() string {
	switch s.Role {
	case RoleKiller:
		return s.Secret
	case RoleAccomplice:
		return s.Assistance
	case RoleWitness:
		return s.Observation
	}
	return s.Secret
}

// Victim holds the public case-briefing facts about the deceased.
type Victim struct {
	Name        string
	TimeOfDeath string
	Location    string
	Cause       string
}

// Solution is the ground truth an accusation is graded against.
type Solution struct {
	// SuspectID references the killer's persona.
	SuspectID string
	Weapon    string
	Motive    string
	// Timeline lists what actually happened, used by the judge's narrative.
	Timeline []string
}

// Case is one complete murder mystery. Immutable once loaded.
type Case struct {
	ID       string
	Title    string
	Victim   Victim
	Solution Solution
	Suspects []SuspectPersona
	// Weapons and Motives enumerate the valid accusation options shown to players.
	Weapons []string
	Motives []string
	// Redlines are case-level phrases that must never appear in any reply.
	Redlines []string
}

// Suspect returns the persona with the given ID.
func (c *Case) Suspect(id string) (*SuspectPersona, bool) {
	for i := range c.Suspects {
		if c.Suspects[i].ID == id {
			return &c.Suspects[i], true
		}
	}
	return nil, false
}

// Killer returns the persona referenced by the solution.
func (c *Case) Killer() *SuspectPersona {
	killer, _ := c.Suspect(c.Solution.SuspectID)
	return killer
}
