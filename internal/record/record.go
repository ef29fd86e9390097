package record

// PatientInfo holds patient demographics. Every field is independently
// nullable: a nil pointer means the value was never extracted.
type PatientInfo struct {
	Name        *string `json:"name"`
	MRN         *string `json:"mrn"`
	Age         *string `json:"age"`
	Gender      *string `json:"gender"`
	DateOfBirth *string `json:"date_of_birth"`
}

// VitalSigns holds named readings. Any subset may be absent.
type VitalSigns struct {
	BloodPressure    *string `json:"blood_pressure"`
	HeartRate        *string `json:"heart_rate"`
	Temperature      *string `json:"temperature"`
	RespiratoryRate  *string `json:"respiratory_rate"`
	OxygenSaturation *string `json:"oxygen_saturation"`
}

// Medication is a name plus dosage pair.
type Medication struct {
	Name   string `json:"name"`
	Dosage string `json:"dosage"`
}

// StructuredRecord is the structured clinical record derived from a
// document. It is treated as an immutable value: mutations produce a new
// record via Merge, never field-by-field writes to a shared instance.
type StructuredRecord struct {
	PatientInfo   PatientInfo  `json:"patient_info"`
	VitalSigns    VitalSigns   `json:"vital_signs"`
	Diagnoses     []string     `json:"diagnoses"`
	Medications   []Medication `json:"medications"`
	Allergies     []string     `json:"allergies"`
	Procedures    []string     `json:"procedures"`
	ClinicalNotes []string     `json:"clinical_notes"`
}

// Str returns a pointer to s, for building nullable fields.
func Str(s string) *string {
	return &s
}
