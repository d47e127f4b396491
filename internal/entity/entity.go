package entity

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gofrs/uuid/v5"
	"github.com/shopspring/decimal"
)

type EntityType string

const (
	EntityTypeAcademia     EntityType = "academia"
	EntityTypeBusiness     EntityType = "business"
	EntityTypeGovernment   EntityType = "government"
	EntityTypeGrantmaker   EntityType = "grantmaker"
	EntityTypeFunder       EntityType = "funder"
	EntityTypeIntermediary EntityType = "intermediary"
	EntityTypeNonprofit    EntityType = "nonprofit"
)

func (t EntityType) Valid() bool {
	switch t {
	case EntityTypeAcademia, EntityTypeBusiness, EntityTypeGovernment, EntityTypeGrantmaker,
		EntityTypeFunder, EntityTypeIntermediary, EntityTypeNonprofit:
		return true
	default:
		return false
	}
}

// FlowType selects the onboarding flow for an organization category.
func (t EntityType) FlowType() FlowType {
	switch t {
	case EntityTypeGovernment:
		return FlowTypeGovernment
	case EntityTypeIntermediary:
		return FlowTypeGrantmakerIntermediary
	default:
		return FlowTypeFunderIntermediaryNonprofit
	}
}

// Entity is an organization progressing through onboarding. Name and Type
// identify it for deduplication.
type Entity struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Type          EntityType      `json:"type"`
	Onboarding    OnboardingState `json:"onboarding"`
	Profile       Profile         `json:"profile"`
	DocumentImage string          `json:"documentImage,omitempty"`
	Version       int64           `json:"version"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

type EntityFilter struct {
	Type   *EntityType
	Status *StepStatus
	Name   string
	Limit  uint64
	Offset uint64
}

type UploadedFile struct {
	URL string `json:"url"`
	ID  string `json:"id"`
}

const maxStatementLen = 150

type Profile struct {
	Structure      *Structure      `json:"structure,omitempty"`
	Strategy       *Strategy       `json:"strategy,omitempty"`
	Financials     *Financials     `json:"financials,omitempty"`
	HumanResources *HumanResources `json:"humanResources,omitempty"`
	Technology     *Technology     `json:"technology,omitempty"`
	Government     *Government     `json:"government,omitempty"`
	Subtype        string          `json:"subtype,omitempty"`
	ImpactAreas    []string        `json:"impactAreas,omitempty"`
	// Annual grantmaking in Puerto Rico.
	AnnualGrantmakingPR *decimal.Decimal `json:"annualGrantmakingPR,omitempty"`
	CompletedAt         *time.Time       `json:"profileCompletedAt,omitempty"`
}

type Structure struct {
	OperationalStructure string `json:"operationalStructure,omitempty"`
}

type Strategy struct {
	Vision  string `json:"vision,omitempty"`
	Mission string `json:"mission,omitempty"`
}

type Financials struct {
	OperatingBudget *decimal.Decimal `json:"operatingBudget,omitempty"`
	TypeOfIncome    *TypeOfIncome    `json:"typeOfIncome,omitempty"`
	IncomeSources   []IncomeSource   `json:"incomeSources,omitempty"`
}

type TypeOfIncome struct {
	Restricted   *decimal.Decimal `json:"restricted,omitempty"`
	Unrestricted *decimal.Decimal `json:"unrestricted,omitempty"`
}

type IncomeSource struct {
	Source     string          `json:"source"`
	Percentage decimal.Decimal `json:"percentage"`
}

type HumanResources struct {
	FullTimeEmployees string `json:"fullTimeEmployees,omitempty"`
	ExternalServices  string `json:"externalServices,omitempty"`
}

type Technology struct {
	AutomationLevel       string   `json:"automationLevel,omitempty"`
	CybersecurityPolicies string   `json:"cybersecurityPolicies,omitempty"`
	CollaborationTools    []string `json:"collaborationTools,omitempty"`
	DigitalPlatforms      []string `json:"digitalPlatforms,omitempty"`
}

type Government struct {
	SubAgency string `json:"subAgency,omitempty"`
	Program   string `json:"program,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (p Profile) Validate() error {
	if p.Strategy != nil {
		if utf8.RuneCountInString(p.Strategy.Vision) > maxStatementLen {
			return fmt.Errorf("%w: vision exceeds %d characters", ErrProfileInvalid, maxStatementLen)
		}

		if utf8.RuneCountInString(p.Strategy.Mission) > maxStatementLen {
			return fmt.Errorf("%w: mission exceeds %d characters", ErrProfileInvalid, maxStatementLen)
		}
	}

	if p.AnnualGrantmakingPR != nil && p.AnnualGrantmakingPR.IsNegative() {
		return fmt.Errorf("%w: annual grantmaking must not be negative", ErrProfileInvalid)
	}

	if f := p.Financials; f != nil {
		if f.OperatingBudget != nil && f.OperatingBudget.IsNegative() {
			return fmt.Errorf("%w: operating budget must not be negative", ErrProfileInvalid)
		}

		if f.TypeOfIncome != nil {
			for _, v := range []*decimal.Decimal{f.TypeOfIncome.Restricted, f.TypeOfIncome.Unrestricted} {
				if v != nil && v.IsNegative() {
					return fmt.Errorf("%w: income must not be negative", ErrProfileInvalid)
				}
			}
		}

		total := decimal.Zero

		for _, src := range f.IncomeSources {
			if strings.TrimSpace(src.Source) == "" {
				return fmt.Errorf("%w: income source name is required", ErrProfileInvalid)
			}

			if src.Percentage.IsNegative() || src.Percentage.GreaterThan(hundred) {
				return fmt.Errorf("%w: income source percentage must be between 0 and 100", ErrProfileInvalid)
			}

			total = total.Add(src.Percentage)
		}

		if total.GreaterThan(hundred) {
			return fmt.Errorf("%w: income source percentages exceed 100", ErrProfileInvalid)
		}
	}

	return nil
}
