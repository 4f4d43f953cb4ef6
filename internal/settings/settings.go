// Package settings holds the user configuration of easyref: tag templates,
// auto-insertion switches, pandoc-crossref metadata and timing.
package settings

import (
	"cmp"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"easyref/internal/frontmatter"
	"easyref/internal/locale"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// CrossrefOption is one pandoc-crossref metadata key written by the update
// command. Value is a string, a bool or a list of strings.
type CrossrefOption struct {
	Name  string `json:"name" yaml:"name" validate:"required"`
	Value any    `json:"value" yaml:"value"`
}

type Settings struct {
	// Language forces the UI language. Empty follows the client locale.
	Language string `json:"language,omitempty" yaml:"language,omitempty" validate:"omitempty,oneof=en zh"`

	FigRefStyle string `json:"figRefStyle" yaml:"figRefStyle" validate:"required"`
	TblRefStyle string `json:"tblRefStyle" yaml:"tblRefStyle" validate:"required"`
	EqnRefStyle string `json:"eqnRefStyle" yaml:"eqnRefStyle" validate:"required"`
	SecRefStyle string `json:"secRefStyle" yaml:"secRefStyle" validate:"required"`

	AutoAddFigRef bool `json:"autoAddFigRef" yaml:"autoAddFigRef"`
	AutoAddTblRef bool `json:"autoAddTblRef" yaml:"autoAddTblRef"`
	AutoAddEqnRef bool `json:"autoAddEqnRef" yaml:"autoAddEqnRef"`

	MarkdownImageLinkStyle bool   `json:"markdownImageLinkStyle" yaml:"markdownImageLinkStyle"`
	RelativePath           bool   `json:"relativePath" yaml:"relativePath"`
	SaveImageNameFormat    string `json:"saveImageNameFormat" yaml:"saveImageNameFormat" validate:"required"`
	AttachmentFolder       string `json:"attachmentFolder" yaml:"attachmentFolder"`

	PandocCrossref []CrossrefOption `json:"pandocCrossrefConfig" yaml:"pandocCrossrefConfig" validate:"dive"`
	AdditionStyle  string           `json:"additionStyle" yaml:"additionStyle"`

	// Delays in milliseconds.
	TableCaptionDelay int `json:"tableCaptionDelay" yaml:"tableCaptionDelay" validate:"gte=0,lte=60000"`
	ImageDelay        int `json:"imageDelay" yaml:"imageDelay" validate:"gte=0,lte=60000"`
	CompanionDelay    int `json:"companionDelay" yaml:"companionDelay" validate:"gte=0,lte=60000"`

	// CompanionExtensions rewrite pasted images themselves; when one is
	// active, image normalization waits CompanionDelay instead of ImageDelay.
	CompanionExtensions []string `json:"companionExtensions" yaml:"companionExtensions" validate:"dive,required"`
	// ActiveExtensions is reported by the client.
	ActiveExtensions []string `json:"activeExtensions" yaml:"activeExtensions"`
}

// Default returns the default settings with titles in the language of tr.
func Default(tr locale.Translator) Settings {
	return Settings{
		FigRefStyle:            "fig{tag:3}",
		TblRefStyle:            "tbl{tag:3}",
		EqnRefStyle:            "eqn{tag:3}",
		SecRefStyle:            "sec{tag:3}",
		MarkdownImageLinkStyle: true,
		SaveImageNameFormat:    "{filename}-{index}.{ext}",
		PandocCrossref: []CrossrefOption{
			{Name: "figureTitle", Value: tr.T(locale.PrefixFigure)},
			{Name: "tableTitle", Value: tr.T(locale.PrefixTable)},
			{Name: "subfigGrid", Value: false},
			{Name: "figPrefix", Value: []string{tr.T(locale.PrefixFigure)}},
			{Name: "eqnPrefix", Value: []string{tr.T(locale.PrefixEquation)}},
			{Name: "tblPrefix", Value: []string{tr.T(locale.PrefixTable)}},
			{Name: "linkReferences", Value: false},
			{Name: "nameInLink", Value: false},
		},
		TableCaptionDelay:   10,
		ImageDelay:          100,
		CompanionDelay:      3000,
		CompanionExtensions: []string{"image-converter"},
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks s. Errors from several fields are joined.
func (s Settings) Validate() error {
	var errs []error
	if err := validate.Struct(s); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			errs = append(errs, fmt.Errorf("%s: failed %q check", fe.Namespace(), fe.Tag()))
		}
	}
	for _, opt := range s.PandocCrossref {
		if !validValue(opt.Value) {
			errs = append(errs, fmt.Errorf("pandocCrossrefConfig %s: value must be a string, a bool or a non-empty list", opt.Name))
		}
	}
	if err := frontmatter.Validate(s.AdditionStyle); err != nil {
		errs = append(errs, fmt.Errorf("additionStyle: %w", err))
	}
	return errors.Join(errs...)
}

func validValue(v any) bool {
	switch v := v.(type) {
	case string, bool:
		return true
	case []string:
		return len(v) > 0
	case []any:
		if len(v) == 0 {
			return false
		}
		for _, e := range v {
			if _, ok := e.(string); !ok {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// CrossrefString returns the string value of the crossref option name, or ""
// when it is missing or not a string.
func (s Settings) CrossrefString(name string) string {
	for _, opt := range s.PandocCrossref {
		if opt.Name == name {
			v, _ := opt.Value.(string)
			return v
		}
	}
	return ""
}

// Titles returns the default figure and table titles for labels: the
// figureTitle and tableTitle crossref options, else the words of tr.
func (s Settings) Titles(tr locale.Translator) (figure, table string) {
	return cmp.Or(s.CrossrefString("figureTitle"), tr.T(locale.PrefixFigure)),
		cmp.Or(s.CrossrefString("tableTitle"), tr.T(locale.PrefixTable))
}

// Pairs returns the crossref options in front-matter form.
func (s Settings) Pairs() []frontmatter.Pair {
	pairs := make([]frontmatter.Pair, len(s.PandocCrossref))
	for i, opt := range s.PandocCrossref {
		pairs[i] = frontmatter.Pair{Key: opt.Name, Value: opt.Value}
	}
	return pairs
}

func ms(n int) time.Duration {
	return time.Duration(n) * time.Millisecond
}

func (s Settings) TableDelay() time.Duration {
	return ms(s.TableCaptionDelay)
}

// ImageDelayDuration is the wait before normalizing image links, longer when
// a companion extension is active.
func (s Settings) ImageDelayDuration() time.Duration {
	for _, ext := range s.ActiveExtensions {
		if slices.Contains(s.CompanionExtensions, ext) {
			return ms(s.CompanionDelay)
		}
	}
	return ms(s.ImageDelay)
}

// Load overlays v, typically LSP initialization options or a configuration
// change, on base. Only fields present in v are overwritten.
func Load(base Settings, v any) (Settings, error) {
	if v == nil {
		return base, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to marshal source: %w", err)
	}

	s := base.clone()
	if err := json.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to unmarshal into Settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

// LoadFile overlays the YAML file at path on base.
func LoadFile(base Settings, path string) (Settings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Settings{}, fmt.Errorf("failed to read settings: %w", err)
	}

	s := base.clone()
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

func (s Settings) clone() Settings {
	s.PandocCrossref = slices.Clone(s.PandocCrossref)
	s.CompanionExtensions = slices.Clone(s.CompanionExtensions)
	s.ActiveExtensions = slices.Clone(s.ActiveExtensions)
	return s
}
