// Package cases loads and validates the murder cases available to new game
// sessions. Cases are authored as YAML documents; one default case ships
// embedded in the binary and more can be loaded from a directory.
package cases

import (
	_ "embed"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/myrjola/blackwood/internal/errors"
	"github.com/myrjola/blackwood/internal/models"
	"github.com/myrjola/blackwood/internal/random"
	"gopkg.in/yaml.v3"
)

var (
	ErrEmpty       = errors.NewSentinel("case repository is empty")
	ErrNotFound    = errors.NewSentinel("case not found")
	ErrInvalidCase = errors.NewSentinel("invalid case definition")
)

//go:embed blackwood.yaml
var defaultCaseYAML []byte

type Repository struct {
	logger *slog.Logger
	// order preserves load order for deterministic listings.
	order []string
	cases map[string]*models.Case
}

// NewRepository returns a repository holding the embedded default case.
func NewRepository(logger *slog.Logger) (*Repository, error) {
	r := &Repository{
		logger: logger.With("source", "cases.Repository"),
		order:  nil,
		cases:  map[string]*models.Case{},
	}
	if err := r.add(defaultCaseYAML); err != nil {
		return nil, errors.Wrap(err, "load embedded case")
	}
	return r, nil
}

// NewEmptyRepository returns a repository with no cases. Used in tests that
// exercise the empty-repository failure mode.
func NewEmptyRepository(logger *slog.Logger) *Repository {
	return &Repository{
		logger: logger.With("source", "cases.Repository"),
		order:  nil,
		cases:  map[string]*models.Case{},
	}
}

// LoadDir loads every .yaml file in dir. A case with a known ID replaces the
// earlier definition so authors can override the embedded case.
func (r *Repository) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "read case directory", slog.String("dir", dir))
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		var contents []byte
		if contents, err = os.ReadFile(path); err != nil {
			return errors.Wrap(err, "read case file", slog.String("path", path))
		}
		if err = r.add(contents); err != nil {
			return errors.Wrap(err, "load case file", slog.String("path", path))
		}
		r.logger.Debug("loaded case file", "path", path)
	}
	return nil
}

// Get returns the case with the given ID.
func (r *Repository) Get(id string) (*models.Case, error) {
	c, ok := r.cases[id]
	if !ok {
		return nil, errors.Wrap(ErrNotFound, "get case", slog.String("case_id", id))
	}
	return c, nil
}

// Random returns a uniformly random case, or ErrEmpty when none are loaded.
func (r *Repository) Random() (*models.Case, error) {
	if len(r.order) == 0 {
		return nil, ErrEmpty
	}
	id, err := random.Pick(r.order)
	if err != nil {
		return nil, errors.Wrap(err, "pick case")
	}
	return r.cases[id], nil
}

// Summary identifies a case for listings without exposing its solution.
type Summary struct {
	ID    string
	Title string
}

// List returns the loaded cases in load order.
func (r *Repository) List() []Summary {
	summaries := make([]Summary, 0, len(r.order))
	for _, id := range r.order {
		summaries = append(summaries, Summary{ID: id, Title: r.cases[id].Title})
	}
	return summaries
}

// Len reports the number of loaded cases.
func (r *Repository) Len() int {
	return len(r.order)
}

func (r *Repository) add(contents []byte) error {
	var file caseFile
	if err := yaml.Unmarshal(contents, &file); err != nil {
		return errors.Wrap(err, "unmarshal case")
	}
	c := file.toModel()
	if err := validate(c); err != nil {
		return err
	}
	if _, known := r.cases[c.ID]; !known {
		r.order = append(r.order, c.ID)
	}
	r.cases[c.ID] = c
	return nil
}

// caseFile mirrors the YAML document shape and converts into the immutable
// model type.
type caseFile struct {
	ID     string `yaml:"id"`
	Title  string `yaml:"title"`
	Victim struct {
		Name        string `yaml:"name"`
		TimeOfDeath string `yaml:"time_of_death"`
		Location    string `yaml:"location"`
		Cause       string `yaml:"cause"`
	} `yaml:"victim"`
	Solution struct {
		Suspect  string   `yaml:"suspect"`
		Weapon   string   `yaml:"weapon"`
		Motive   string   `yaml:"motive"`
		Timeline []string `yaml:"timeline"`
	} `yaml:"solution"`
	Weapons  []string `yaml:"weapons"`
	Motives  []string `yaml:"motives"`
	Redlines []string `yaml:"redlines"`
	Suspects []struct {
		ID          string   `yaml:"id"`
		Name        string   `yaml:"name"`
		Role        string   `yaml:"role"`
		Voice       string   `yaml:"voice"`
		PublicStory string   `yaml:"public_story"`
		Secret      string   `yaml:"secret"`
		Assistance  string   `yaml:"assistance"`
		Observation string   `yaml:"observation"`
		Redlines    []string `yaml:"redlines"`
	} `yaml:"suspects"`
}

func (f caseFile) toModel() *models.Case {
	c := models.Case{
		ID:    f.ID,
		Title: f.Title,
		Victim: models.Victim{
			Name:        f.Victim.Name,
			TimeOfDeath: f.Victim.TimeOfDeath,
			Location:    f.Victim.Location,
			Cause:       f.Victim.Cause,
		},
		Solution: models.Solution{
			SuspectID: f.Solution.Suspect,
			Weapon:    f.Solution.Weapon,
			Motive:    f.Solution.Motive,
			Timeline:  f.Solution.Timeline,
		},
		Suspects: make([]models.SuspectPersona, len(f.Suspects)),
		Weapons:  f.Weapons,
		Motives:  f.Motives,
		Redlines: f.Redlines,
	}
	for i, s := range f.Suspects {
		c.Suspects[i] = models.SuspectPersona{
			ID:          s.ID,
			Name:        s.Name,
			Role:        models.Role(s.Role),
			Voice:       strings.TrimSpace(s.Voice),
			PublicStory: strings.TrimSpace(s.PublicStory),
			Secret:      strings.TrimSpace(s.Secret),
			Assistance:  strings.TrimSpace(s.Assistance),
			Observation: strings.TrimSpace(s.Observation),
			Redlines:    s.Redlines,
		}
	}
	return &c
}

const suspectsPerCase = 3

func validate(c *models.Case) error {
	var errorList []error

	fail := func(msg string, attrs ...slog.Attr) {
		errorList = append(errorList, errors.Wrap(ErrInvalidCase, msg, attrs...))
	}

	if c.ID == "" {
		fail("missing case id")
	}
	if c.Title == "" {
		fail("missing case title")
	}
	if len(c.Suspects) != suspectsPerCase {
		fail("case must have exactly three suspects", slog.Int("suspects", len(c.Suspects)))
	}
	if len(c.Weapons) == 0 {
		fail("case must declare weapon options")
	}
	if len(c.Motives) == 0 {
		fail("case must declare motive options")
	}

	killers := 0
	seen := map[string]bool{}
	for i := range c.Suspects {
		s := &c.Suspects[i]
		id := slog.String("suspect_id", s.ID)
		if s.ID == "" || s.Name == "" || s.Voice == "" || s.PublicStory == "" {
			fail("suspect missing id, name, voice, or public story", id)
		}
		if seen[s.ID] {
			fail("duplicate suspect id", id)
		}
		seen[s.ID] = true

		switch s.Role {
		case models.RoleKiller:
			killers++
			if s.Secret == "" {
				fail("killer requires a secret", id)
			}
			if len(s.Redlines) == 0 {
				fail("killer requires redlines", id)
			}
		case models.RoleAccomplice:
			if s.Assistance == "" {
				fail("accomplice requires an assistance description", id)
			}
		case models.RoleWitness:
			if s.Observation == "" {
				fail("witness requires an observation", id)
			}
		default:
			fail("unknown suspect role", id, slog.String("role", string(s.Role)))
		}
	}
	if killers != 1 {
		fail("case must have exactly one killer", slog.Int("killers", killers))
	}

	if killer, ok := c.Suspect(c.Solution.SuspectID); !ok {
		fail("solution references unknown suspect", slog.String("suspect_id", c.Solution.SuspectID))
	} else if killer.Role != models.RoleKiller {
		fail("solution suspect is not the killer", slog.String("suspect_id", c.Solution.SuspectID))
	}
	if !slices.Contains(c.Weapons, c.Solution.Weapon) {
		fail("solution weapon not in weapon options", slog.String("weapon", c.Solution.Weapon))
	}
	if !slices.Contains(c.Motives, c.Solution.Motive) {
		fail("solution motive not in motive options", slog.String("motive", c.Solution.Motive))
	}

	return errors.Join(errorList...)
}
