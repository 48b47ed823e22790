// Package businesstype maps a selected business type to its experience
// requirement and required-document set. The table is defined at startup
// and never mutated; lookups are pure.
package businesstype

// DocumentSpec describes one required document for a business type. The
// Malay display name travels as data; rendering happens client-side.
type DocumentSpec struct {
	Type          string `json:"type"`
	DisplayName   string `json:"display_name"`
	DisplayNameMS string `json:"display_name_ms"`
}

// Config is the per-business-type requirement set.
type Config struct {
	RequiresExperienceYears bool           `json:"requires_experience_years"`
	RequiredDocuments       []DocumentSpec `json:"required_documents"`
}

// Document type keys shared with the staging area and storage paths.
const (
	DocLicense         = "license"
	DocBackgroundCheck = "background_check"
	DocTraining        = "training"
	DocCertification   = "certification"
	DocInsurance       = "insurance"
	DocPortfolio       = "portfolio"
)

// TypeOther is the fallback for unknown business types.
const TypeOther = "other"

var configs = map[string]Config{
	"security": {
		RequiresExperienceYears: true,
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Security Agency License", DisplayNameMS: "Lesen Agensi Keselamatan"},
			{Type: DocBackgroundCheck, DisplayName: "Staff Background Check", DisplayNameMS: "Semakan Latar Belakang Kakitangan"},
			{Type: DocTraining, DisplayName: "Training Certificate", DisplayNameMS: "Sijil Latihan"},
		},
	},
	"cleaning": {
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
			{Type: DocInsurance, DisplayName: "Liability Insurance", DisplayNameMS: "Insurans Liabiliti"},
		},
	},
	"plumbing": {
		RequiresExperienceYears: true,
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
			{Type: DocCertification, DisplayName: "Trade Certification", DisplayNameMS: "Sijil Kemahiran"},
		},
	},
	"electrical": {
		RequiresExperienceYears: true,
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
			{Type: DocCertification, DisplayName: "Wireman Certification", DisplayNameMS: "Sijil Pendawai"},
		},
	},
	"landscaping": {
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
			{Type: DocPortfolio, DisplayName: "Work Portfolio", DisplayNameMS: "Portfolio Kerja"},
		},
	},
	"maintenance": {
		RequiresExperienceYears: true,
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
		},
	},
	TypeOther: {
		RequiredDocuments: []DocumentSpec{
			{Type: DocLicense, DisplayName: "Business Registration", DisplayNameMS: "Pendaftaran Perniagaan"},
		},
	},
}

// ConfigFor returns the requirement set for a business type. Unknown
// keys fall back to the "other" config; the lookup never fails. The
// returned config is a copy, so callers cannot mutate the table.
func ConfigFor(businessType string) Config {
	cfg, found := configs[businessType]
	if !found {
		cfg = configs[TypeOther]
	}
	out := Config{
		RequiresExperienceYears: cfg.RequiresExperienceYears,
		RequiredDocuments:       make([]DocumentSpec, len(cfg.RequiredDocuments)),
	}
	copy(out.RequiredDocuments, cfg.RequiredDocuments)
	return out
}

// Known reports whether the business type exists in the table without
// applying the fallback. Step-1 validation uses it to require an actual
// selection.
func Known(businessType string) bool {
	_, found := configs[businessType]
	return found
}

// Types lists the selectable business type keys in stable order.
func Types() []string {
	return []string{"security", "cleaning", "plumbing", "electrical", "landscaping", "maintenance", TypeOther}
}
