// Package prompt composes the interviewer and coach prompts sent to the
// generation gateway. The focus-area catalog maps interview roles to the
// competencies the interviewer should probe; entries can be overridden
// from a YAML file and hot-reloaded.
package prompt

import (
	"fmt"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

// GeneralFocus is the fallback for roles without a catalog entry.
const GeneralFocus = "General professional competencies"

const softwareEngineerFocus = `
- Problem-solving: Ask about algorithms, data structures, and how they think through technical challenges
- System design: For mid/senior, explore architecture decisions and scalability
- Code quality: Discuss testing, code review practices, debugging approaches
- Past projects: Deep dive into their most complex or proud projects
- Technologies: Discuss specific tools/frameworks they've used and why
- Collaboration: How they work with other engineers and cross-functional teams
- Learning: How they stay current and approach learning new technologies`

const dataAnalystFocus = `
- Analytical thinking: How they approach data problems and extract insights
- Technical skills: SQL, Python/R, statistical methods they've applied
- Data storytelling: How they communicate findings to non-technical stakeholders
- Tools & platforms: Experience with visualization tools, databases, ML frameworks
- Business impact: Examples of data-driven decisions they've influenced
- Methodology: Their approach to cleaning, analyzing, and validating data
- Curiosity: How they identify questions worth investigating`

const salesFocus = `
- Sales approach: Their methodology and how they build relationships
- Objection handling: Real examples of difficult conversations and how they handled them
- Negotiation: Specific deals they've closed and the strategies used
- Metrics & achievement: Quota attainment, biggest wins, what drives their success
- Prospecting: How they identify and qualify leads
- Relationship building: Long-term client management approach
- Resilience: How they handle rejection and maintain motivation`

const retailFocus = `
- Customer service philosophy: What great service means to them
- Conflict resolution: Specific examples of handling difficult customers
- Product knowledge: How they learn and share product information
- Teamwork: Working with colleagues during busy periods
- Problem-solving: Creative solutions they've found for customer issues
- Multitasking: Managing multiple priorities in fast-paced environments
- Empathy: Understanding and addressing customer needs`

func builtinFocusAreas() map[string]string {
	return map[string]string{
		"Software Engineer / SDE":            softwareEngineerFocus,
		"Data Analyst / Data Scientist":      dataAnalystFocus,
		"Sales / Business Development":       salesFocus,
		"Retail Associate / Customer Support": retailFocus,
	}
}

// Catalog holds per-role focus areas. Safe for concurrent use; Reload
// swaps the override set atomically.
type Catalog struct {
	mu        sync.RWMutex
	overrides map[string]string
	builtin   map[string]string
}

// NewCatalog creates a catalog with the built-in focus areas
func NewCatalog() *Catalog {
	return &Catalog{
		builtin:   builtinFocusAreas(),
		overrides: map[string]string{},
	}
}

// FocusAreas returns the focus areas for a role. Overrides win over
// built-ins; unknown roles get the general fallback.
func (c *Catalog) FocusAreas(role string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if focus, ok := c.overrides[role]; ok {
		return focus
	}
	if focus, ok := c.builtin[role]; ok {
		return focus
	}
	return GeneralFocus
}

// Roles returns all roles with a dedicated catalog entry
func (c *Catalog) Roles() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	seen := make(map[string]bool, len(c.builtin)+len(c.overrides))
	roles := make([]string, 0, len(c.builtin)+len(c.overrides))
	for role := range c.builtin {
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	for role := range c.overrides {
		if !seen[role] {
			seen[role] = true
			roles = append(roles, role)
		}
	}
	return roles
}

// LoadFile replaces the override set with entries from a YAML file of the
// form:
//
//	focusAreas:
//	  "Product Manager": |
//	    - Roadmap ownership: ...
func (c *Catalog) LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read focus catalog %s: %w", path, err)
	}

	var doc struct {
		FocusAreas map[string]string `yaml:"focusAreas"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("failed to parse focus catalog %s: %w", path, err)
	}

	loaded := doc.FocusAreas
	if loaded == nil {
		loaded = map[string]string{}
	}

	c.mu.Lock()
	c.overrides = loaded
	c.mu.Unlock()
	return nil
}
