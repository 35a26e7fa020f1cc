package canvas

import (
	"fmt"
	"strings"
)

// Framework is one of the supplementary analyses run on a finished canvas.
type Framework int

const (
	FrameworkValueProposition Framework = iota
	FrameworkFourP
	FrameworkThreeC
	FrameworkSWOT
)

// AllFrameworks returns frameworks in display order.
func AllFrameworks() []Framework {
	return []Framework{
		FrameworkValueProposition,
		FrameworkFourP,
		FrameworkThreeC,
		FrameworkSWOT,
	}
}

func (f Framework) valid() bool { return f >= 0 && int(f) < len(frameworkTable) }

func (f Framework) String() string {
	if !f.valid() {
		return "Unknown"
	}
	return frameworkTable[f].Name
}

// Key is the stable identifier used in URLs and flags.
func (f Framework) Key() string {
	if !f.valid() {
		return ""
	}
	return frameworkTable[f].Key
}

// ParseFramework accepts a key ("swot") or a display name ("SWOT analysis").
func ParseFramework(s string) (Framework, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	for i, d := range frameworkTable {
		if k == d.Key || k == strings.ToLower(d.Name) {
			return Framework(i), nil
		}
	}
	return 0, fmt.Errorf("unknown analysis framework %q", s)
}

// Heading is one fixed sub-heading the model must fill in.
type Heading struct {
	Title string
	Hint  string
}

// FrameworkDescriptor is the immutable prompt rule for a framework.
type FrameworkDescriptor struct {
	Framework Framework
	Key       string
	Name      string
	Role      string
	Task      string
	Headings  []Heading
	Closing   string
}

var frameworkTable = []FrameworkDescriptor{
	FrameworkValueProposition: {
		Framework: FrameworkValueProposition,
		Key:       "value-proposition",
		Name:      "Value Proposition Canvas",
		Role:      "You are an expert in customer understanding and value propositions.",
		Task:      "Using the Lean Canvas below, and treating its customer segment, problem, unique value proposition and solution as the most important inputs, describe the six elements of a Value Proposition Canvas concretely.",
		Headings: []Heading{
			{Title: "Customer Jobs", Hint: "functional, social and emotional jobs the customer segment is trying to get done"},
			{Title: "Pains", Hint: "obstacles, risks and frustrations around those jobs, drawn from the [Problem] section"},
			{Title: "Gains", Hint: "outcomes and benefits the customer expects or would be delighted by"},
			{Title: "Products & Services", Hint: "what the [Solution] actually offers"},
			{Title: "Pain Relievers", Hint: "how each offering removes a specific pain"},
			{Title: "Gain Creators", Hint: "how each offering produces a specific gain"},
		},
		Closing: "Format the result as Markdown with clear headings. Make the fit between the customer profile and the value map explicit.",
	},
	FrameworkFourP: {
		Framework: FrameworkFourP,
		Key:       "4p",
		Name:      "4P analysis",
		Role:      "You are an experienced marketing strategist.",
		Task:      "Based on the Lean Canvas below, propose a concrete marketing-mix strategy for this business from the 4P perspective (Product, Price, Place, Promotion).",
		Headings: []Heading{
			{Title: "Product", Hint: "details of the product or service that solves the customer's problem: features, quality, design, brand"},
			{Title: "Price", Hint: "pricing strategy, price range, discounts, payment terms"},
			{Title: "Place", Hint: "where and how customers access the offering: channels and logistics, informed by the [Channels] section"},
			{Title: "Promotion", Hint: "concrete ways to build awareness, interest and purchase intent: advertising, PR, social media, events"},
		},
		Closing: "Format the result as Markdown with clear headings.",
	},
	FrameworkThreeC: {
		Framework: FrameworkThreeC,
		Key:       "3c",
		Name:      "3C analysis",
		Role:      "You are an experienced management consultant.",
		Task:      "Using the Lean Canvas below, in particular its [Customer Segments], [Problem], [Solution], [Competitors] and [Unfair Advantage] sections, carry out a 3C analysis (Customer, Competitor, Company) of the environment this business operates in.",
		Headings: []Heading{
			{Title: "Customer", Hint: "deeper customer needs, market size and growth where known, customer behaviour and decision process"},
			{Title: "Competitor", Hint: "strengths and weaknesses of the competitors and alternatives listed, compared with this business"},
			{Title: "Company", Hint: "own strengths (especially the unfair advantage), weaknesses, available resources and management challenges"},
		},
		Closing: "Format the result as Markdown with clear headings, and make the company's position relative to its competitors explicit.",
	},
	FrameworkSWOT: {
		Framework: FrameworkSWOT,
		Key:       "swot",
		Name:      "SWOT analysis",
		Role:      "You are an experienced business analyst.",
		Task:      "Based on the Lean Canvas below, carry out a SWOT analysis of this business. Keep the internal environment (strengths, weaknesses) clearly separate from the external environment (opportunities, threats).",
		Headings: []Heading{
			{Title: "Strengths"},
			{Title: "Weaknesses"},
			{Title: "Opportunities"},
			{Title: "Threats"},
		},
		Closing: "Format the result as Markdown with clear headings.",
	},
}

// Descriptor returns a copy of the framework's prompt rule.
func (f Framework) Descriptor() (FrameworkDescriptor, bool) {
	if !f.valid() {
		return FrameworkDescriptor{}, false
	}
	d := frameworkTable[f]
	d.Headings = append([]Heading(nil), d.Headings...)
	return d, true
}
