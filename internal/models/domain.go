package models

import "sort"

// Domain is a fixed classification bucket for conferences. The set of slugs
// mirrors the upstream conference-data taxonomy and is not derived from data;
// conference counts are computed at read time.
type Domain struct {
	Slug        string `json:"slug"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Count       int    `json:"conference_count,omitempty"`
}

// DefaultDomainSlug is the general/web catch-all assigned when classification
// finds no keyword evidence.
const DefaultDomainSlug = "web"

var domainTable = map[string]Domain{
	"ai":           {Slug: "ai", Name: "Artificial Intelligence", Description: "Explores AI algorithms, models, ethics, and applications."},
	"data":         {Slug: "data", Name: "Data Science", Description: "Covers data analysis, visualization, and statistical methods."},
	"databases":    {Slug: "databases", Name: "Databases", Description: "Database technologies, optimization, and management systems."},
	"devops":       {Slug: "devops", Name: "DevOps", Description: "Development operations, CI/CD, and infrastructure automation."},
	"cloud":        {Slug: "cloud", Name: "Cloud Computing", Description: "Cloud platforms, services, and infrastructure management."},
	"security":     {Slug: "security", Name: "Cybersecurity", Description: "Security practices, threats, and defense mechanisms."},
	"web":          {Slug: "web", Name: "Web Development", Description: "Frontend, backend, and full-stack web technologies."},
	"gaming":       {Slug: "gaming", Name: "Game Development", Description: "Game design, development, and interactive entertainment."},
	"frontend":     {Slug: "frontend", Name: "Frontend Development", Description: "User interface design and frontend technologies."},
	"backend":      {Slug: "backend", Name: "Backend Development", Description: "Server-side development and API design."},
	"testing":      {Slug: "testing", Name: "Software Testing", Description: "Testing methodologies, tools, and quality assurance."},
	"architecture": {Slug: "architecture", Name: "Software Architecture", Description: "System design, patterns, and architectural principles."},
	"ux":           {Slug: "ux", Name: "User Experience", Description: "UX design, research, and user-centered design principles."},
}

// Domains returns all domains sorted by slug.
func Domains() []Domain {
	out := make([]Domain, 0, len(domainTable))
	for _, d := range domainTable {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

// DomainBySlug looks up a domain definition.
func DomainBySlug(slug string) (Domain, bool) {
	d, ok := domainTable[slug]
	return d, ok
}

// IsValidDomain reports whether the slug is part of the fixed taxonomy.
func IsValidDomain(slug string) bool {
	_, ok := domainTable[slug]
	return ok
}
