package clinic

// QualityIssue is a typed data-quality tag. The string values are the
// exact tag strings written to the record store, so older records and
// the admin UI keep working unchanged.
type QualityIssue string

const (
	IssueGeoMismatch    QualityIssue = "geo-mismatch"
	IssueMissingAddress QualityIssue = "missing-address"
	IssueWebsiteOK      QualityIssue = "website-ok"
	IssueWebsiteDown    QualityIssue = "website-down"
	IssueMissingWebsite QualityIssue = "missing-website"
	IssueIncompleteData QualityIssue = "incomplete-data"
)

// tagDimensions groups tags that are mutually exclusive. Adding a tag
// removes any prior tag from the same dimension, so a record never
// carries e.g. both website-ok and website-down.
var tagDimensions = [][]QualityIssue{
	{IssueGeoMismatch, IssueMissingAddress},
	{IssueWebsiteOK, IssueWebsiteDown, IssueMissingWebsite},
}

// AddTag appends a quality tag to the clinic, first clearing any
// contradictory tag of the same dimension. Duplicate adds are no-ops.
func (c *Clinic) AddTag(issue QualityIssue) {
	for _, dim := range tagDimensions {
		if !containsIssue(dim, issue) {
			continue
		}
		filtered := c.Tags[:0]
		for _, t := range c.Tags {
			if !containsIssue(dim, QualityIssue(t)) {
				filtered = append(filtered, t)
			}
		}
		c.Tags = filtered
		break
	}
	if !c.HasTag(string(issue)) {
		c.Tags = append(c.Tags, string(issue))
	}
}

func containsIssue(dim []QualityIssue, issue QualityIssue) bool {
	for _, d := range dim {
		if d == issue {
			return true
		}
	}
	return false
}
