// Package propensity estimates how likely a contact is to convert.
//
// Two strategies exist because the scoring was defined twice with different
// inputs: SessionStart runs when a session is created, LeadIntent when a lead is
// emitted. Neither is derived from the other.
package propensity

import (
	"fmt"
	"math"

	"github.com/josephinoo/agent-bg/internal/models"
)

const (
	NameSessionStart = "session_start"
	NameLeadIntent   = "lead_intent"
)

// Profile is everything a strategy may look at. Zero values mean unknown.
type Profile struct {
	Segment         models.Segment
	MonthlyIncome   float64
	EmploymentType  string
	CreditScore     *int
	CurrentProducts []string
}

// ProfileFor merges the contact record with the data collected in a session.
// Collected values win over stored ones.
func ProfileFor(c *models.Contact, segment models.Segment, data models.CollectedData) Profile {
	p := Profile{
		Segment:        segment,
		MonthlyIncome:  data.Income(),
		EmploymentType: data.EmploymentType,
	}
	if c != nil {
		p.CreditScore = c.CreditScore
		p.CurrentProducts = c.CurrentProducts
		if p.MonthlyIncome == 0 && c.MonthlyIncome != nil {
			p.MonthlyIncome = *c.MonthlyIncome
		}
	}
	return p
}

type Strategy interface {
	Name() string
	Score(p Profile) float64
}

// ByName returns one of the built-in strategies with its default tables.
func ByName(name string) (Strategy, error) {
	switch name {
	case NameSessionStart, "":
		return NewSessionStart(), nil
	case NameLeadIntent:
		return NewLeadIntent(), nil
	}
	return nil, fmt.Errorf("unknown propensity strategy %q", name)
}

// SessionStart multiplies a base score by segment, income and employment factors
// and clamps the result to [Floor, 1].
type SessionStart struct {
	Base                  float64
	Floor                 float64
	SegmentMultipliers    map[models.Segment]float64
	EmploymentMultipliers map[string]float64
}

func NewSessionStart() *SessionStart {
	return &SessionStart{
		Base:  0.5,
		Floor: 0.1,
		SegmentMultipliers: map[models.Segment]float64{
			models.SegmentPremium:  1.3,
			models.SegmentStandard: 1.0,
			models.SegmentBasic:    0.8,
		},
		EmploymentMultipliers: map[string]float64{
			models.EmploymentEmployee:      1.1,
			models.EmploymentBusinessOwner: 1.2,
			models.EmploymentFreelancer:    0.9,
			models.EmploymentRetired:       0.8,
		},
	}
}

func (s *SessionStart) Name() string { return NameSessionStart }

func (s *SessionStart) Score(p Profile) float64 {
	score := s.Base
	if m, ok := s.SegmentMultipliers[p.Segment]; ok {
		score *= m
	}

	switch income := p.MonthlyIncome; {
	case income <= 0:
	case income > 5000:
		score *= 1.2
	case income > 2000:
		score *= 1.1
	case income < 1000:
		score *= 0.8
	}

	if m, ok := s.EmploymentMultipliers[p.EmploymentType]; ok {
		score *= m
	}
	return clamp(score, s.Floor, 1)
}

// LeadIntent adds credit-score, income and product-holding adjustments to a
// per-segment base and clamps the result to [0, 1].
type LeadIntent struct {
	DefaultBase  float64
	SegmentBases map[models.Segment]float64
}

func NewLeadIntent() *LeadIntent {
	return &LeadIntent{
		DefaultBase: 0.5,
		SegmentBases: map[models.Segment]float64{
			models.SegmentPremium:  0.8,
			models.SegmentStandard: 0.6,
			models.SegmentBasic:    0.4,
		},
	}
}

func (l *LeadIntent) Name() string { return NameLeadIntent }

func (l *LeadIntent) Score(p Profile) float64 {
	score, ok := l.SegmentBases[p.Segment]
	if !ok {
		score = l.DefaultBase
	}

	if p.CreditScore != nil {
		switch cs := *p.CreditScore; {
		case cs >= 800:
			score += 0.2
		case cs >= 700:
			score += 0.1
		case cs < 600:
			score -= 0.1
		}
	}
	if p.MonthlyIncome > 1500 {
		score += 0.1
	}
	if len(p.CurrentProducts) > 0 {
		score += 0.1
	}
	return clamp(score, 0, 1)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
