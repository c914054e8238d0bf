package model

// Lead is a CRM contact together with its account, as read for scoring.
type Lead struct {
	ContactID     string   `json:"contact_id"`
	Name          string   `json:"name"`
	Title         string   `json:"title,omitempty"`
	Functions     []string `json:"functions,omitempty"`
	Relationship  string   `json:"relationship,omitempty"`
	Activities90d *int     `json:"activities_90d,omitempty"`
	Account       Account  `json:"account"`
}

// Account is the organization a contact belongs to.
type Account struct {
	ID            string   `json:"id,omitempty"`
	Name          string   `json:"name,omitempty"`
	OrgNumber     string   `json:"org_number,omitempty"`
	Website       string   `json:"website,omitempty"`
	Industry      string   `json:"industry,omitempty"`
	Street        string   `json:"street,omitempty"`
	City          string   `json:"city,omitempty"`
	PostalCode    string   `json:"postal_code,omitempty"`
	Country       string   `json:"country,omitempty"`
	AnnualRevenue *float64 `json:"annual_revenue,omitempty"`
	Employees     *int     `json:"employees,omitempty"`
	Rating        *float64 `json:"rating,omitempty"`
}

// HasAddress reports whether the account carries enough address data to
// geocode.
func (a Account) HasAddress() bool {
	return a.City != "" || a.PostalCode != "" || a.Street != ""
}

// LookupKey identifies the account for company data lookups, preferring the
// organization number.
func (a Account) LookupKey() string {
	if a.OrgNumber != "" {
		return a.OrgNumber
	}
	return a.Name
}
