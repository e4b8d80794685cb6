package headhunter

import (
	"strconv"
	"strings"
)

// hh.ru experience dictionary ids.
const (
	ExperienceNone         = "noExperience"
	ExperienceBetween1And3 = "between1And3"
	ExperienceBetween3And6 = "between3And6"
	ExperienceMoreThan6    = "moreThan6"
)

type Vacancies struct {
	Items []*Vacancy
}

type Named struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

type Vacancy struct {
	ID     string `json:"id,omitempty"`
	Name   string `json:"name,omitempty"`
	Area   Named  `json:"area,omitempty"`
	Salary *struct {
		From     int    `json:"from,omitempty"`
		To       int    `json:"to,omitempty"`
		Currency string `json:"currency,omitempty"`
	} `json:"salary,omitempty"`
	Experience Named `json:"experience,omitempty"`
	Schedule   Named `json:"schedule,omitempty"`
	Employment Named `json:"employment,omitempty"`
	Employer   struct {
		ID   string `json:"id,omitempty"`
		Name string `json:"name,omitempty"`
	} `json:"employer,omitempty"`
	AlternateURL string  `json:"alternate_url,omitempty"`
	Description  string  `json:"description,omitempty"`
	KeySkills    []Named `json:"key_skills,omitempty"`
	Archived     bool    `json:"archived,omitempty"`
	Snippet      struct {
		Requirement    string `json:"requirement,omitempty"`
		Responsibility string `json:"responsibility,omitempty"`
	} `json:"snippet,omitempty"`
	PublishedAt string `json:"published_at,omitempty"`
}

func (v *Vacancies) Len() int {
	return len(v.Items)
}

// Skills returns the trimmed, de-duplicated key skill names in API order.
func (va *Vacancy) Skills() []string {
	seen := make(map[string]struct{}, len(va.KeySkills))
	skills := make([]string, 0, len(va.KeySkills))
	for _, s := range va.KeySkills {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		skills = append(skills, name)
	}
	return skills
}

// SalaryRange formats the salary fork, or returns empty string when it is hidden.
func (va *Vacancy) SalaryRange() string {
	if va.Salary == nil {
		return ""
	}

	var parts []string
	if va.Salary.From > 0 {
		parts = append(parts, "from "+strconv.Itoa(va.Salary.From))
	}
	if va.Salary.To > 0 {
		parts = append(parts, "to "+strconv.Itoa(va.Salary.To))
	}
	if len(parts) == 0 {
		return ""
	}
	if va.Salary.Currency != "" {
		parts = append(parts, va.Salary.Currency)
	}
	return strings.Join(parts, " ")
}
