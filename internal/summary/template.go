package summary

// DefaultTemplate is the built-in discharge summary layout.
const DefaultTemplate = `DISCHARGE SUMMARY

PATIENT INFORMATION:
  Name: {patient_name}
  Date of Birth: {date_of_birth}
  MRN: {mrn}
  Age: {age}
  Gender: {gender}

VITAL SIGNS:
{vital_signs}

DIAGNOSES:
{diagnoses}

MEDICATIONS:
{medications}

ALLERGIES:
{allergies}

PROCEDURES:
{procedures}

CLINICAL NOTES:
{clinical_notes}
`
