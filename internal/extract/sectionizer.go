package extract

import (
	"regexp"
	"strings"

	"ehr-backend/internal/elements"
)

// Normalized document section names produced by the sectionizer. These are
// headings of the source document, not record sections.
const (
	docSectionHeader          = "header"
	docSectionPatientIdent    = "patient_identification"
	docSectionActiveIssues    = "active_medical_issues"
	docSectionPastHistory     = "past_medical_history"
	docSectionMedications     = "medications"
	docSectionAllergies       = "allergies"
	docSectionSocialHistory   = "social_history"
	docSectionPresentIllness  = "history_presenting_illness"
	docSectionReviewOfSystems = "review_of_systems"
	docSectionPhysicalExam    = "physical_examination"
	docSectionInvestigations  = "investigations"
	docSectionAssessment      = "assessment"
	docSectionProcedures      = "procedures"
)

var knownHeadings = []struct {
	match      string
	normalized string
}{
	{"PATIENT IDENTIFICATION", docSectionPatientIdent},
	{"ACTIVE MEDICAL ISSUES", docSectionActiveIssues},
	{"PAST MEDICAL HISTORY", docSectionPastHistory},
	{"RECONCILED ADMISSION MEDICATION LIST", docSectionMedications},
	{"MEDICATION LIST", docSectionMedications},
	{"MEDICATIONS", docSectionMedications},
	{"ALLERGIES", docSectionAllergies},
	{"SOCIAL HISTORY", docSectionSocialHistory},
	{"HISTORY OF PRESENTING ILLNESS", docSectionPresentIllness},
	{"REVIEW OF SYSTEMS", docSectionReviewOfSystems},
	{"PHYSICAL EXAMINATION", docSectionPhysicalExam},
	{"INVESTIGATIONS", docSectionInvestigations},
	{"ASSESSMENT", docSectionAssessment},
	{"PROCEDURES", docSectionProcedures},
	{"REASON FOR REFERRAL", docSectionPresentIllness},
}

var allCapsHeadingRe = regexp.MustCompile(`^[A-Z][A-Z\s]+:?$`)
var nonWordRe = regexp.MustCompile(`[^\w\s]`)

// documentSections groups elements under the heading they follow. Title
// elements are the primary heading signal; known clinical headings are
// honored even when the extractor typed them as narrative text. Content
// before the first heading lands in the "header" pseudo-section.
type documentSections struct {
	order    []string
	elements map[string][]elements.Element
}

func sectionize(els []elements.Element) documentSections {
	out := documentSections{elements: make(map[string][]elements.Element)}
	current := ""

	for _, el := range els {
		text := strings.TrimSpace(el.Text)
		if text == "" {
			continue
		}
		if name, ok := headingName(el, text); ok {
			current = name
			out.add(current, el)
			continue
		}
		if current == "" {
			out.add(docSectionHeader, el)
			continue
		}
		out.add(current, el)
	}
	return out
}

func (d *documentSections) add(name string, el elements.Element) {
	if _, ok := d.elements[name]; !ok {
		d.order = append(d.order, name)
	}
	d.elements[name] = append(d.elements[name], el)
}

func (d *documentSections) text(name string) string {
	return elements.CombineText(d.elements[name])
}

func (d *documentSections) has(name string) bool {
	_, ok := d.elements[name]
	return ok
}

func headingName(el elements.Element, text string) (string, bool) {
	upper := strings.ToUpper(strings.TrimSpace(strings.TrimSuffix(text, ":")))
	for _, h := range knownHeadings {
		if strings.Contains(upper, h.match) {
			return h.normalized, true
		}
	}
	if el.Type == elements.TypeTitle || allCapsHeadingRe.MatchString(text) {
		return normalizeHeading(text), true
	}
	return "", false
}

func normalizeHeading(text string) string {
	s := strings.ToLower(strings.TrimSpace(strings.TrimSuffix(text, ":")))
	s = nonWordRe.ReplaceAllString(s, "")
	return strings.ReplaceAll(s, " ", "_")
}
