package salesforce

import (
	"context"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/leadscore-cli/internal/model"
)

// ActivityWindowDays is the trailing window for activity counts.
const ActivityWindowDays = 90

// maxInClause bounds the number of IDs in one SOQL IN list.
const maxInClause = 200

// ContactAccount is the parent Account of a contact.
type ContactAccount struct {
	Name              string   `json:"Name" salesforce:"Name"`
	OrgNumber         string   `json:"Org_Number__c" salesforce:"Org_Number__c"`
	Website           string   `json:"Website" salesforce:"Website"`
	Industry          string   `json:"Industry" salesforce:"Industry"`
	BillingStreet     string   `json:"BillingStreet" salesforce:"BillingStreet"`
	BillingCity       string   `json:"BillingCity" salesforce:"BillingCity"`
	BillingPostalCode string   `json:"BillingPostalCode" salesforce:"BillingPostalCode"`
	BillingCountry    string   `json:"BillingCountry" salesforce:"BillingCountry"`
	AnnualRevenue     *float64 `json:"AnnualRevenue" salesforce:"AnnualRevenue"`
	NumberOfEmployees *int     `json:"NumberOfEmployees" salesforce:"NumberOfEmployees"`
	Rating            *float64 `json:"Lead_Rating__c" salesforce:"Lead_Rating__c"`
}

// Contact is a Contact record with the fields scoring needs.
type Contact struct {
	ID           string          `json:"Id" salesforce:"Id"`
	Name         string          `json:"Name" salesforce:"Name"`
	Title        string          `json:"Title" salesforce:"Title"`
	Functions    string          `json:"Functions__c" salesforce:"Functions__c"`
	Relationship string          `json:"Relationship_Strength__c" salesforce:"Relationship_Strength__c"`
	AccountID    string          `json:"AccountId" salesforce:"AccountId"`
	Account      *ContactAccount `json:"Account" salesforce:"Account"`
}

var contactFields = []string{
	"Id", "Name", "Title", "Functions__c", "Relationship_Strength__c", "AccountId",
	"Account.Name", "Account.Org_Number__c", "Account.Website", "Account.Industry",
	"Account.BillingStreet", "Account.BillingCity", "Account.BillingPostalCode", "Account.BillingCountry",
	"Account.AnnualRevenue", "Account.NumberOfEmployees", "Account.Lead_Rating__c",
}

// ContactQuery filters QueryContacts.
type ContactQuery struct {
	Limit int
	// IDs restricts the query to specific contacts.
	IDs []string
}

// QueryContacts fetches contacts with their account data.
func QueryContacts(ctx context.Context, c Client, q ContactQuery) ([]Contact, error) {
	soql := fmt.Sprintf("SELECT %s FROM Contact", strings.Join(contactFields, ", "))
	if len(q.IDs) > 0 {
		soql += " WHERE Id IN (" + quoteList(q.IDs) + ")"
	}
	soql += " ORDER BY LastModifiedDate DESC"
	if q.Limit > 0 {
		soql += fmt.Sprintf(" LIMIT %d", q.Limit)
	}

	var contacts []Contact
	if err := c.Query(ctx, soql, &contacts); err != nil {
		return nil, eris.Wrap(err, "sf: query contacts")
	}
	return contacts, nil
}

// ToLead converts a contact into the scoring input record. The semicolon
// separated Functions__c multi-picklist becomes the function list.
func (ct Contact) ToLead() model.Lead {
	lead := model.Lead{
		ContactID:    ct.ID,
		Name:         ct.Name,
		Title:        strings.TrimSpace(ct.Title),
		Functions:    splitPicklist(ct.Functions),
		Relationship: strings.TrimSpace(ct.Relationship),
	}
	lead.Account.ID = ct.AccountID
	if a := ct.Account; a != nil {
		lead.Account.Name = a.Name
		lead.Account.OrgNumber = a.OrgNumber
		lead.Account.Website = a.Website
		lead.Account.Industry = a.Industry
		lead.Account.Street = a.BillingStreet
		lead.Account.City = a.BillingCity
		lead.Account.PostalCode = a.BillingPostalCode
		lead.Account.Country = a.BillingCountry
		lead.Account.AnnualRevenue = a.AnnualRevenue
		lead.Account.Employees = a.NumberOfEmployees
		lead.Account.Rating = a.Rating
	}
	return lead
}

type activityCount struct {
	WhoID string `json:"WhoId" salesforce:"WhoId"`
	Count int    `json:"cnt" salesforce:"cnt"`
}

// CountActivities counts Tasks per contact over the trailing activity
// window. Every requested contact gets an entry, zero when it has no tasks.
func CountActivities(ctx context.Context, c Client, contactIDs []string) (map[string]int, error) {
	counts := make(map[string]int, len(contactIDs))
	for _, id := range contactIDs {
		counts[id] = 0
	}

	for start := 0; start < len(contactIDs); start += maxInClause {
		end := min(start+maxInClause, len(contactIDs))
		soql := fmt.Sprintf(
			"SELECT WhoId, COUNT(Id) cnt FROM Task WHERE WhoId IN (%s) AND ActivityDate = LAST_N_DAYS:%d GROUP BY WhoId",
			quoteList(contactIDs[start:end]), ActivityWindowDays,
		)
		var rows []activityCount
		if err := c.Query(ctx, soql, &rows); err != nil {
			return nil, eris.Wrapf(err, "sf: count activities batch %d-%d", start, end)
		}
		for _, r := range rows {
			counts[r.WhoID] = r.Count
		}
	}
	return counts, nil
}

// OpportunityOwner is the owning user of an opportunity.
type OpportunityOwner struct {
	Name string `json:"Name" salesforce:"Name"`
}

// Opportunity is a closed deal.
type Opportunity struct {
	ID        string            `json:"Id" salesforce:"Id"`
	Name      string            `json:"Name" salesforce:"Name"`
	Amount    *float64          `json:"Amount" salesforce:"Amount"`
	IsWon     bool              `json:"IsWon" salesforce:"IsWon"`
	CloseDate string            `json:"CloseDate" salesforce:"CloseDate"`
	OwnerID   string            `json:"OwnerId" salesforce:"OwnerId"`
	Owner     *OpportunityOwner `json:"Owner" salesforce:"Owner"`
}

// OwnerName returns the owner's display name, falling back to the ID.
func (o Opportunity) OwnerName() string {
	if o.Owner != nil && o.Owner.Name != "" {
		return o.Owner.Name
	}
	return o.OwnerID
}

// QueryClosedOpportunities fetches deals closed in the last days days. A
// non-positive days reads all closed deals.
func QueryClosedOpportunities(ctx context.Context, c Client, days int) ([]Opportunity, error) {
	soql := "SELECT Id, Name, Amount, IsWon, CloseDate, OwnerId, Owner.Name FROM Opportunity WHERE IsClosed = true"
	if days > 0 {
		soql += fmt.Sprintf(" AND CloseDate = LAST_N_DAYS:%d", days)
	}

	var opps []Opportunity
	if err := c.Query(ctx, soql, &opps); err != nil {
		return nil, eris.Wrap(err, "sf: query closed opportunities")
	}
	return opps, nil
}

func splitPicklist(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func quoteList(ids []string) string {
	quoted := make([]string, len(ids))
	for i, id := range ids {
		quoted[i] = "'" + escapeSoql(id) + "'"
	}
	return strings.Join(quoted, ", ")
}

// escapeSoql escapes quotes and backslashes in SOQL string literals.
func escapeSoql(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, "'", `\'`)
}
