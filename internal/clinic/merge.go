package clinic

import "time"

// Merge fills gaps in an existing clinic from an incoming candidate.
// New data never overwrites populated fields; services and tags are
// unioned. Returns true if anything changed.
func Merge(existing, incoming *Clinic, now time.Time) bool {
	changed := false

	setIfEmpty := func(dst *string, src string) {
		if *dst == "" && src != "" {
			*dst = src
			changed = true
		}
	}

	setIfEmpty(&existing.Address, incoming.Address)
	setIfEmpty(&existing.Zip, incoming.Zip)
	setIfEmpty(&existing.Country, incoming.Country)
	setIfEmpty(&existing.Phone, incoming.Phone)
	setIfEmpty(&existing.Website, incoming.Website)
	setIfEmpty(&existing.Email, incoming.Email)

	if existing.Lat == nil && incoming.Lat != nil {
		existing.Lat, existing.Lng = incoming.Lat, incoming.Lng
		changed = true
	}

	for _, svc := range incoming.Services {
		if !containsString(existing.Services, svc) {
			existing.Services = append(existing.Services, svc)
			changed = true
		}
	}

	// Incoming quality tags go through AddTag so dimension exclusivity
	// holds on the merged record too.
	for _, tag := range incoming.Tags {
		if !existing.HasTag(tag) {
			existing.AddTag(QualityIssue(tag))
			changed = true
		}
	}

	if changed {
		existing.UpdatedAt = now
	}
	return changed
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
