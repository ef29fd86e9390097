package extract

import (
	"context"
	"regexp"
	"strings"

	"ehr-backend/internal/elements"
	"ehr-backend/internal/record"
)

// RuleExtractor extracts record sections with clinical-document regexes.
// It never fails on well-formed input: sections it cannot find simply stay
// empty.
type RuleExtractor struct{}

var (
	nameFromIdentRe = regexp.MustCompile(`(?i)PATIENT\s+IDENTIFICATION[:\s]+((?:Ms\.|Mr\.|Mrs\.|Dr\.|Miss\.|Mx\.)\s*[A-Z][A-Za-z]*(?:\s+[A-Z][a-z]+)?)`)
	nameTitledRe    = regexp.MustCompile(`((?:Ms\.|Mr\.|Mrs\.|Dr\.|Miss\.)\s+[A-Z][A-Za-z]*(?:\s+[A-Z][a-z]+)?)`)
	namePlainRe     = regexp.MustCompile(`(?i)patient\s*name[:\s]+([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`)

	dobRe = regexp.MustCompile(`(?i)(?:date\s*of\s*birth|dob|birth\s*date)[:\s]+(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`)
	mrnRe = regexp.MustCompile(`(?i)(?:MRN|medical\s+record\s+number|patient\s+id)[:\s]+([A-Z0-9-]+)`)

	ageGenderRe = regexp.MustCompile(`(?i)(\d+)[\s-]*years?[\s-]*old\s+(man|woman|male|female)`)
	ageRe       = regexp.MustCompile(`(?i)(?:(\d+)[\s-]*years?[\s-]*old|age[:\s]+(\d+))`)
	femaleRe    = regexp.MustCompile(`\b(Ms\.|Mrs\.|Miss\.)`)
	maleRe      = regexp.MustCompile(`\bMr\.`)
	genderRe    = regexp.MustCompile(`(?i)(?:gender|sex)[:\s]+(male|female|m|f)\b`)

	vitalsRes = []struct {
		set func(*record.VitalSigns, string)
		re  *regexp.Regexp
	}{
		{func(v *record.VitalSigns, s string) { v.BloodPressure = record.Str(s) }, regexp.MustCompile(`(?i)blood\s*pressure[:\s]+(\d+/\d+)`)},
		{func(v *record.VitalSigns, s string) { v.HeartRate = record.Str(s) }, regexp.MustCompile(`(?i)heart\s*rate[:\s]+(\d+)`)},
		{func(v *record.VitalSigns, s string) { v.Temperature = record.Str(s) }, regexp.MustCompile(`(?i)temperature[:\s]+(\d+\.?\d*)`)},
		{func(v *record.VitalSigns, s string) { v.RespiratoryRate = record.Str(s) }, regexp.MustCompile(`(?i)respiratory\s*rate[:\s]+(\d+)`)},
		{func(v *record.VitalSigns, s string) { v.OxygenSaturation = record.Str(s) }, regexp.MustCompile(`(?i)o2\s*sat(?:uration)?[:\s]+(\d+)`)},
	}

	listNumberRe   = regexp.MustCompile(`^\d+[\.\)]\s*`)
	diagnosisRe    = regexp.MustCompile(`(?i)(?:diagnosis|diagnoses|condition)[:\s]+([^\.\n]+)`)
	medicationRe   = regexp.MustCompile(`(?i)^(?:\d+[\.\)]\s*)?([A-Za-z][A-Za-z\s-]*?)\s+(\d+(?:\.\d+)?)\s*(mg|ml|g|units?|mcg)\b`)
	allergyRe      = regexp.MustCompile(`(?i)allerg(?:y|ies)[:\s]+([^\.\n]+)`)
	noAllergiesRe  = regexp.MustCompile(`(?i)no\s+known\s+allergies`)
	procedureRe    = regexp.MustCompile(`(?i)(?:procedure|procedures|surgery|intervention)[:\s]+([^\.\n]+)`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	noteSections   = []string{docSectionPresentIllness, docSectionPhysicalExam, docSectionAssessment, docSectionReviewOfSystems}
	noteMinLength  = 30
)

// ExtractSections runs the rules over the elements and returns a partial
// record populated only for the sections in scope.
func (RuleExtractor) ExtractSections(ctx context.Context, els []elements.Element, scope []record.SectionName) (record.StructuredRecord, error) {
	if err := ctx.Err(); err != nil {
		return record.StructuredRecord{}, err
	}

	sections := sectionize(els)
	fullText := elements.CombineText(els)

	var rec record.StructuredRecord
	if inScope(scope, record.SectionPatientInfo) {
		rec.PatientInfo = extractPatientInfo(sections, fullText)
	}
	if inScope(scope, record.SectionVitalSigns) {
		rec.VitalSigns = extractVitalSigns(fullText)
	}
	if inScope(scope, record.SectionDiagnoses) {
		rec.Diagnoses = extractDiagnoses(sections, fullText)
	}
	if inScope(scope, record.SectionMedications) {
		rec.Medications = extractMedications(sections)
	}
	if inScope(scope, record.SectionAllergies) {
		rec.Allergies = extractAllergies(fullText)
	}
	if inScope(scope, record.SectionProcedures) {
		rec.Procedures = extractProcedures(sections, fullText)
	}
	if inScope(scope, record.SectionClinicalNotes) {
		rec.ClinicalNotes = extractClinicalNotes(sections, els)
	}
	return rec, nil
}

func extractPatientInfo(sections documentSections, fullText string) record.PatientInfo {
	var info record.PatientInfo

	identText := sections.text(docSectionPatientIdent)
	search := identText
	if search == "" {
		search = fullText
	}

	if m := nameFromIdentRe.FindStringSubmatch(search); m != nil {
		info.Name = record.Str(strings.TrimSpace(m[1]))
	} else if m := nameTitledRe.FindStringSubmatch(search); m != nil {
		info.Name = record.Str(strings.TrimSpace(m[1]))
	} else if m := namePlainRe.FindStringSubmatch(fullText); m != nil {
		info.Name = record.Str(strings.TrimSpace(m[1]))
	}

	if m := ageGenderRe.FindStringSubmatch(search); m != nil {
		info.Age = record.Str(m[1])
		info.Gender = record.Str(normalizeGender(m[2]))
	}
	if info.Age == nil {
		if m := ageRe.FindStringSubmatch(fullText); m != nil {
			age := m[1]
			if age == "" {
				age = m[2]
			}
			info.Age = record.Str(age)
		}
	}
	if info.Gender == nil {
		info.Gender = extractGender(fullText)
	}

	if m := mrnRe.FindStringSubmatch(search); m != nil {
		info.MRN = record.Str(strings.TrimSpace(m[1]))
	} else if m := mrnRe.FindStringSubmatch(fullText); m != nil {
		info.MRN = record.Str(strings.TrimSpace(m[1]))
	}

	if m := dobRe.FindStringSubmatch(fullText); m != nil {
		info.DateOfBirth = record.Str(strings.TrimSpace(m[1]))
	}
	return info
}

func extractGender(text string) *string {
	if femaleRe.MatchString(text) {
		return record.Str("Female")
	}
	if maleRe.MatchString(text) {
		return record.Str("Male")
	}
	if m := genderRe.FindStringSubmatch(text); m != nil {
		return record.Str(normalizeGender(m[1]))
	}
	return nil
}

func normalizeGender(raw string) string {
	switch strings.ToLower(raw) {
	case "woman", "female", "f":
		return "Female"
	case "man", "male", "m":
		return "Male"
	}
	lower := strings.ToLower(raw)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

func extractVitalSigns(text string) record.VitalSigns {
	var vitals record.VitalSigns
	for _, entry := range vitalsRes {
		if m := entry.re.FindStringSubmatch(text); m != nil {
			entry.set(&vitals, strings.TrimSpace(m[1]))
		}
	}
	return vitals
}

func extractDiagnoses(sections documentSections, fullText string) []string {
	var diagnoses []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		d := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "."))
		if len(d) <= 3 {
			return
		}
		if _, ok := seen[d]; ok {
			return
		}
		seen[d] = struct{}{}
		diagnoses = append(diagnoses, d)
	}

	if sections.has(docSectionActiveIssues) {
		for _, el := range sections.elements[docSectionActiveIssues] {
			if el.Type != elements.TypeListItem {
				continue
			}
			add(listNumberRe.ReplaceAllString(strings.TrimSpace(el.Text), ""))
		}
	}
	if len(diagnoses) == 0 {
		for _, m := range diagnosisRe.FindAllStringSubmatch(fullText, -1) {
			add(m[1])
		}
	}
	return diagnoses
}

func extractMedications(sections documentSections) []record.Medication {
	var meds []record.Medication
	seen := make(map[record.Medication]struct{})

	add := func(el elements.Element) {
		if el.Type != elements.TypeListItem {
			return
		}
		m := medicationRe.FindStringSubmatch(strings.TrimSpace(el.Text))
		if m == nil {
			return
		}
		med := record.Medication{
			Name:   strings.TrimSpace(m[1]),
			Dosage: m[2] + " " + m[3],
		}
		if med.Name == "" {
			return
		}
		if _, ok := seen[med]; ok {
			return
		}
		seen[med] = struct{}{}
		meds = append(meds, med)
	}

	if sections.has(docSectionMedications) {
		for _, el := range sections.elements[docSectionMedications] {
			add(el)
		}
	}
	if len(meds) == 0 {
		// Medication-shaped list items can appear under other headings.
		for _, name := range sections.order {
			if name == docSectionPatientIdent || name == docSectionAllergies {
				continue
			}
			for _, el := range sections.elements[name] {
				add(el)
			}
		}
	}
	return meds
}

func extractAllergies(text string) []string {
	if noAllergiesRe.MatchString(text) {
		return []string{"No known allergies"}
	}
	var allergies []string
	seen := make(map[string]struct{})
	for _, m := range allergyRe.FindAllStringSubmatch(text, -1) {
		a := strings.TrimSpace(m[1])
		if a == "" {
			continue
		}
		if _, ok := seen[a]; ok {
			continue
		}
		seen[a] = struct{}{}
		allergies = append(allergies, a)
	}
	return allergies
}

func extractProcedures(sections documentSections, fullText string) []string {
	var procedures []string
	seen := make(map[string]struct{})

	add := func(raw string) {
		p := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "."))
		if p == "" {
			return
		}
		if _, ok := seen[p]; ok {
			return
		}
		seen[p] = struct{}{}
		procedures = append(procedures, p)
	}

	if sections.has(docSectionProcedures) {
		for _, el := range sections.elements[docSectionProcedures] {
			if el.Type == elements.TypeListItem {
				add(listNumberRe.ReplaceAllString(strings.TrimSpace(el.Text), ""))
			}
		}
	}
	if len(procedures) == 0 {
		for _, m := range procedureRe.FindAllStringSubmatch(fullText, -1) {
			add(m[1])
		}
	}
	return procedures
}

// extractClinicalNotes combines narrative text from the note-bearing
// document sections into one continuous note, the way the source documents
// read.
func extractClinicalNotes(sections documentSections, els []elements.Element) []string {
	var parts []string
	for _, name := range noteSections {
		if !sections.has(name) {
			continue
		}
		if text := strings.TrimSpace(sections.text(name)); text != "" {
			parts = append(parts, text)
		}
	}

	if len(parts) == 0 {
		// No recognized note sections: fall back to long narrative blocks.
		for _, el := range els {
			text := strings.TrimSpace(el.Text)
			if el.Type == elements.TypeNarrativeText && len(text) > noteMinLength {
				parts = append(parts, text)
			}
		}
	}

	if len(parts) == 0 {
		return nil
	}
	note := whitespaceRe.ReplaceAllString(strings.Join(parts, " "), " ")
	return []string{strings.TrimSpace(note)}
}
