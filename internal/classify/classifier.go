// Package classify assigns conferences to domains by scoring keyword matches
// over their names and descriptions.
package classify

import (
	"regexp"
	"sort"
	"strings"

	"github.com/confscout/confscout/internal/models"
)

// Scoring weights. A keyword in the name outweighs one buried in the
// description, and short acronym-like keywords matching the name (ICML,
// NeurIPS and friends) get a large extra bonus.
const (
	nameWeight    = 10
	descWeight    = 3
	acronymWeight = 15
	acronymMaxLen = 5
)

// domainKeywords maps each domain slug to its keyword list. Matching is
// case-insensitive substring containment.
var domainKeywords = map[string][]string{
	"ai": {
		"artificial intelligence", "ai", "machine learning", "ml", "deep learning", "neural networks",
		"chatgpt", "gpt", "llm", "large language models", "natural language processing", "nlp",
		"computer vision", "robotics", "autonomous systems", "intelligent systems", "cognitive computing",
		"icait", "icmlc", "icml", "iccv", "nips", "neurips", "aaai", "ijcai", "iclr", "icann", "icprml",
	},
	"data": {
		"data", "data science", "data analytics", "big data", "data engineering", "business intelligence",
		"data mining", "data visualization", "statistics", "predictive analytics", "data governance",
	},
	"databases": {
		"database", "sql", "nosql", "mongodb", "postgresql", "mysql", "redis", "elasticsearch",
		"data warehousing", "data lakes", "data modeling",
	},
	"devops": {
		"devops", "ci/cd", "kubernetes", "docker", "infrastructure",
		"continuous integration", "continuous deployment", "containerization", "orchestration",
	},
	"cloud": {
		"cloud computing", "aws", "azure", "gcp", "serverless", "cloud native",
		"distributed systems", "scalability", "cloud architecture",
	},
	"security": {
		"cybersecurity", "security", "penetration testing", "ethical hacking", "infosec",
		"network security", "application security", "data protection", "privacy", "compliance",
	},
	"web": {
		"web development", "full stack", "javascript", "react", "vue", "angular",
		"web technologies", "web applications", "web services", "api development",
	},
	"gaming": {
		"game development", "gaming", "unity", "unreal engine", "game design", "game programming",
		"virtual reality", "vr", "augmented reality", "ar", "game engines",
	},
	"frontend": {
		"frontend", "user interface", "css", "html",
		"responsive design", "web design", "ui design", "ux design",
	},
	"backend": {
		"backend", "api", "server-side", "node.js", "server development",
		"database design", "system architecture",
	},
	"testing": {
		"testing", "qa", "quality assurance", "automated testing", "test automation",
		"unit testing", "integration testing", "performance testing", "test-driven development",
	},
	"architecture": {
		"software architecture", "system design", "design patterns", "microservices",
		"enterprise architecture", "solution architecture", "technical architecture",
		"software engineering", "software maintenance", "software science",
	},
	"ux": {
		"user experience", "ux", "ui", "design thinking", "usability",
		"user research", "interaction design", "information architecture",
	},
}

// techTags is the bounded vocabulary for tag extraction, matched on word
// boundaries.
var techTags = []string{
	"python", "javascript", "typescript", "java", "kotlin", "swift",
	"rust", "go", "golang", "ruby", "php", "scala", "elixir",
	"react", "vue", "angular", "svelte",
	"kubernetes", "docker", "terraform", "ansible",
	"aws", "azure", "gcp", "cloudflare",
	"postgres", "mysql", "mongodb", "redis", "elasticsearch",
	"graphql", "rest", "grpc",
	"agile", "scrum", "kanban",
}

const maxTags = 5

var tagPatterns = compileTagPatterns()

func compileTagPatterns() map[string]*regexp.Regexp {
	patterns := make(map[string]*regexp.Regexp, len(techTags))
	for _, tag := range techTags {
		patterns[tag] = regexp.MustCompile(`\b` + regexp.QuoteMeta(tag) + `\b`)
	}
	return patterns
}

// Classify returns the domain slug for a conference given its name and
// description. It is pure and deterministic: the highest-scoring domain wins
// and ties break by lexical slug order. With no keyword evidence at all it
// returns the general web catch-all.
func Classify(name, description string) string {
	slug, _ := ClassifyScored(name, description)
	return slug
}

// ClassifyScored is Classify plus the winning score, for diagnostics.
func ClassifyScored(name, description string) (string, int) {
	nameLower := strings.ToLower(name)
	descLower := strings.ToLower(description)

	bestSlug := models.DefaultDomainSlug
	bestScore := 0

	for _, slug := range sortedSlugs() {
		score := 0
		for _, keyword := range domainKeywords[slug] {
			inName := strings.Contains(nameLower, keyword)
			inDesc := strings.Contains(descLower, keyword)

			switch {
			case inName:
				score += nameWeight
			case inDesc:
				score += descWeight
			}
			if inName && len(keyword) <= acronymMaxLen {
				score += acronymWeight
			}
		}
		// Strictly-greater keeps the first (lexically smallest) slug on ties.
		if score > bestScore {
			bestScore = score
			bestSlug = slug
		}
	}

	return bestSlug, bestScore
}

// ExtractTags pulls known technology tags out of a conference's name and
// description, capped at five.
func ExtractTags(name, description string) []string {
	text := strings.ToLower(name + " " + description)

	var found []string
	for _, tag := range techTags {
		if tagPatterns[tag].MatchString(text) {
			found = append(found, tag)
			if len(found) == maxTags {
				break
			}
		}
	}
	return found
}

var orderedSlugs = func() []string {
	slugs := make([]string, 0, len(domainKeywords))
	for slug := range domainKeywords {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)
	return slugs
}()

func sortedSlugs() []string {
	return orderedSlugs
}
