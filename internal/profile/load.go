package profile

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/ayusman/posecoach/internal/detector"
)

//go:embed profiles.yaml
var builtinProfiles []byte

// Document is the YAML representation of a pose library.
type Document struct {
	Aliases map[string]string `yaml:"aliases"`
	Poses   []PoseDoc         `yaml:"poses"`
}

// PoseDoc is the YAML representation of one profile.
type PoseDoc struct {
	ID            string     `yaml:"id"`
	Name          string     `yaml:"name"`
	Description   string     `yaml:"description"`
	Normalization string     `yaml:"normalization"`
	Joints        []JointDoc `yaml:"joints"`
}

// JointDoc is the YAML representation of one joint check.
type JointDoc struct {
	Name      string   `yaml:"name"`
	Points    []string `yaml:"points"`
	Target    float64  `yaml:"target"`
	Tolerance float64  `yaml:"tolerance"`
	Weight    *float64 `yaml:"weight"`
	Feedback  string   `yaml:"feedback"`
}

// Parse decodes a YAML pose library into validated profiles and an alias table.
// An omitted weight defaults to 1 and an omitted normalization to "anchor".
func Parse(r io.Reader) ([]*Profile, map[string]string, error) {
	var doc Document
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, errors.New("empty pose library")
		}
		return nil, nil, fmt.Errorf("decode pose library: %w", err)
	}

	profiles := make([]*Profile, 0, len(doc.Poses))
	for i, pd := range doc.Poses {
		p, err := pd.toProfile()
		if err != nil {
			return nil, nil, fmt.Errorf("pose %d: %w", i, err)
		}
		if err := p.Validate(); err != nil {
			return nil, nil, err
		}
		profiles = append(profiles, p)
	}

	aliases := doc.Aliases
	if aliases == nil {
		aliases = make(map[string]string)
	}

	return profiles, aliases, nil
}

// ParseFile reads a YAML pose library from disk.
func ParseFile(path string) ([]*Profile, map[string]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open pose library: %w", err)
	}
	defer f.Close()
	return Parse(f)
}

// Builtin returns the built-in pose library.
func Builtin() ([]*Profile, map[string]string, error) {
	return Parse(bytes.NewReader(builtinProfiles))
}

// Default returns a registry of the built-in pose library.
func Default() (*Registry, error) {
	profiles, aliases, err := Builtin()
	if err != nil {
		return nil, err
	}
	return NewRegistry(profiles, aliases)
}

func (pd PoseDoc) toProfile() (*Profile, error) {
	p := &Profile{
		ID:            pd.ID,
		Name:          pd.Name,
		Description:   pd.Description,
		Normalization: detector.ScaleMethod(pd.Normalization),
	}
	if p.Normalization == "" {
		p.Normalization = detector.ScaleAnchor
	}
	if p.Name == "" {
		p.Name = p.ID
	}

	for _, jd := range pd.Joints {
		if len(jd.Points) != 3 {
			return nil, fmt.Errorf("joint %q: want 3 points, got %d", jd.Name, len(jd.Points))
		}
		weight := 1.0
		if jd.Weight != nil {
			weight = *jd.Weight
		}
		p.Joints = append(p.Joints, JointCheck{
			Name:        jd.Name,
			Points:      [3]string{jd.Points[0], jd.Points[1], jd.Points[2]},
			TargetAngle: jd.Target,
			Tolerance:   jd.Tolerance,
			Weight:      weight,
			Feedback:    jd.Feedback,
		})
	}

	return p, nil
}

// Write encodes profiles and aliases as a YAML pose library that Parse accepts.
func Write(w io.Writer, profiles []*Profile, aliases map[string]string) error {
	doc := Document{Aliases: aliases}
	for _, p := range profiles {
		doc.Poses = append(doc.Poses, ToDoc(p))
	}

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode pose library: %w", err)
	}
	return enc.Close()
}

// ToDoc converts a profile back into its YAML representation.
func ToDoc(p *Profile) PoseDoc {
	pd := PoseDoc{
		ID:            p.ID,
		Name:          p.Name,
		Description:   p.Description,
		Normalization: string(p.Normalization),
	}
	for _, j := range p.Joints {
		w := j.Weight
		pd.Joints = append(pd.Joints, JointDoc{
			Name:      j.Name,
			Points:    j.Points[:],
			Target:    j.TargetAngle,
			Tolerance: j.Tolerance,
			Weight:    &w,
			Feedback:  j.Feedback,
		})
	}
	return pd
}
