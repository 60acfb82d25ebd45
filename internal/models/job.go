package models

// Job is the canonical posting produced by the record builder. Every field is
// always present in JSON output, even when empty.
type Job struct {
	JobTitle            string `json:"job_title"`
	Company             string `json:"company"`
	DatePosted          string `json:"date_posted"`
	Location            string `json:"location"`
	RemoteStatus        string `json:"remote_status"`
	EmploymentType      string `json:"employment_type"`
	Schedule            string `json:"schedule"`
	LicenseRequirements string `json:"license_requirements"`
	SalaryRange         string `json:"salary_range"`
	JobDescription      string `json:"job_description"`
	ApplyLink           string `json:"apply_link"`
	Specialties         string `json:"specialties"`
	SourceSite          string `json:"source_site"`
	ScrapedAt           string `json:"scraped_at"`
}

// Columns is the fixed output column order shared by CSV headers and JSON keys.
var Columns = []string{
	FieldJobTitle,
	FieldCompany,
	FieldDatePosted,
	FieldLocation,
	FieldRemoteStatus,
	FieldEmploymentType,
	FieldSchedule,
	FieldLicenseRequirements,
	FieldSalaryRange,
	FieldJobDescription,
	FieldApplyLink,
	FieldSpecialties,
	FieldSourceSite,
	FieldScrapedAt,
}

const (
	FieldJobTitle            = "job_title"
	FieldCompany             = "company"
	FieldDatePosted          = "date_posted"
	FieldLocation            = "location"
	FieldRemoteStatus        = "remote_status"
	FieldEmploymentType      = "employment_type"
	FieldSchedule            = "schedule"
	FieldLicenseRequirements = "license_requirements"
	FieldSalaryRange         = "salary_range"
	FieldJobDescription      = "job_description"
	FieldApplyLink           = "apply_link"
	FieldSpecialties         = "specialties"
	FieldSourceSite          = "source_site"
	FieldScrapedAt           = "scraped_at"
)

// Row returns the field values in Columns order.
func (j Job) Row() []string {
	return []string{
		j.JobTitle,
		j.Company,
		j.DatePosted,
		j.Location,
		j.RemoteStatus,
		j.EmploymentType,
		j.Schedule,
		j.LicenseRequirements,
		j.SalaryRange,
		j.JobDescription,
		j.ApplyLink,
		j.Specialties,
		j.SourceSite,
		j.ScrapedAt,
	}
}
