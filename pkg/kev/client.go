package kev

import (
	"database/sql"
	"net/http"
)

type Client struct {
	Cli *http.Client
	DB  *sql.DB

	// FeedURL overrides the default CISA feed location, used by tests
	FeedURL string

	Store string
}

// Entry is one known-exploited vulnerability of the CISA catalog.
type Entry struct {
	CVEID           string `json:"cveID"`
	VendorProject   string `json:"vendorProject"`
	Product         string `json:"product"`
	VulnName        string `json:"vulnerabilityName"`
	DateAdded       string `json:"dateAdded"`
	DueDate         string `json:"dueDate"`
	RequiredAction  string `json:"requiredAction"`
	KnownRansomware bool   `json:"knownRansomwareCampaignUse"`
}
